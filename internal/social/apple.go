package social

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marketsquad/authgate/internal/config"
	"github.com/marketsquad/authgate/internal/models"
)

const (
	defaultAppleTokenURL = "https://appleid.apple.com/auth/token"
	appleAudience        = "https://appleid.apple.com"

	// Apple allows client secrets up to six months; the mobile clients
	// were shipped against a 60-day assertion.
	appleSecretLifetime = 60 * 24 * time.Hour
)

// appleClient performs the sign-in-with-apple code exchange: it builds a
// short-lived ES256 client assertion from the configured signing key,
// trades the authorization code for an identity token and decodes the
// token's claims.
//
// The returned id_token's signature is NOT verified against Apple's public
// keys; the token arrives directly from appleid.apple.com over TLS within
// the same exchange.
type appleClient struct {
	cfg        config.AppleConfig
	signingKey *ecdsa.PrivateKey
	http       *http.Client
	tokenURL   string
}

func newAppleClient(cfg config.AppleConfig, httpClient *http.Client) (*appleClient, error) {
	keyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple signing key: %w", err)
	}

	signingKey, err := jwt.ParseECPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple signing key: %w", err)
	}

	return &appleClient{
		cfg:        cfg,
		signingKey: signingKey,
		http:       httpClient,
		tokenURL:   defaultAppleTokenURL,
	}, nil
}

// clientSecret builds the ES256-signed assertion Apple requires in place
// of a static client secret.
func (a *appleClient) clientSecret() (string, error) {
	now := timeNow()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": a.cfg.TeamID,
		"iat": now.Unix(),
		"exp": now.Add(appleSecretLifetime).Unix(),
		"aud": appleAudience,
		"sub": a.cfg.ClientID,
	})
	token.Header["kid"] = a.cfg.KeyID

	secret, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign apple client secret: %w", err)
	}

	return secret, nil
}

func (a *appleClient) exchange(ctx context.Context, code string) (*models.SocialClaims, error) {
	secret, err := a.clientSecret()
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {a.cfg.RedirectURI},
		"client_id":     {a.cfg.ClientID},
		"client_secret": {secret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apple token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apple token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode apple token response: %w", err)
	}

	return decodeIdentityToken(tokenResp.IDToken)
}

// decodeIdentityToken extracts the claims from the payload segment of the
// identity token.
func decodeIdentityToken(idToken string) (*models.SocialClaims, error) {
	segments := strings.Split(idToken, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("malformed apple identity token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode apple identity token payload: %w", err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Kid   string `json:"kid"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse apple identity token payload: %w", err)
	}

	return &models.SocialClaims{
		Medium:  models.MediumApple,
		Email:   claims.Email,
		Subject: claims.Sub,
		KeyID:   claims.Kid,
	}, nil
}
