package social

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsquad/authgate/internal/config"
	"github.com/marketsquad/authgate/internal/models"
)

func testSocialConfig() config.SocialConfig {
	return config.SocialConfig{
		ExchangeTimeout: 5 * time.Second,
	}
}

func newTestClient(t *testing.T, cfg config.SocialConfig) *Client {
	t.Helper()

	client, err := NewClient(cfg, slog.Default())
	require.NoError(t, err)
	return client
}

func TestClient_Exchange_Google(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "provider-token", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]string{
			"sub":   "google-sub-1",
			"email": "dana@example.com",
			"name":  "Dana Okafor",
		})
	}))
	defer server.Close()

	client := newTestClient(t, testSocialConfig())
	client.SetEndpoints(server.URL, "", "")

	claims, err := client.Exchange(context.Background(), models.MediumGoogle, "provider-token", "")

	require.NoError(t, err)
	assert.Equal(t, models.MediumGoogle, claims.Medium)
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, "google-sub-1", claims.Subject)
}

func TestClient_Exchange_Facebook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fb-user-1", r.URL.Path)
		assert.Equal(t, "provider-token", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]string{
			"id":    "fb-user-1",
			"email": "dana@example.com",
			"name":  "Dana Okafor",
		})
	}))
	defer server.Close()

	client := newTestClient(t, testSocialConfig())
	client.SetEndpoints("", server.URL, "")

	claims, err := client.Exchange(context.Background(), models.MediumFacebook, "provider-token", "fb-user-1")

	require.NoError(t, err)
	assert.Equal(t, models.MediumFacebook, claims.Medium)
	assert.Equal(t, "fb-user-1", claims.Subject)
}

func TestClient_Exchange_ProviderRejectsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, testSocialConfig())
	client.SetEndpoints(server.URL, "", "")

	_, err := client.Exchange(context.Background(), models.MediumGoogle, "bad-token", "")

	assert.Error(t, err)
}

func TestClient_Exchange_UnsupportedMedium(t *testing.T) {
	client := newTestClient(t, testSocialConfig())

	_, err := client.Exchange(context.Background(), "myspace", "token", "")

	assert.Error(t, err)
}

func TestClient_Exchange_AppleNotConfigured(t *testing.T) {
	client := newTestClient(t, testSocialConfig())

	_, err := client.Exchange(context.Background(), models.MediumApple, "", "auth-code")

	assert.Error(t, err)
}

func writeTestAppleKey(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "apple_key.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	return path
}

func appleTestConfig(t *testing.T) config.SocialConfig {
	cfg := testSocialConfig()
	cfg.Apple = config.AppleConfig{
		TeamID:         "TEAM123456",
		KeyID:          "KEY1234567",
		ClientID:       "com.example.app",
		RedirectURI:    "https://example.com/callback",
		PrivateKeyPath: writeTestAppleKey(t),
	}
	return cfg
}

func fakeIdentityToken(t *testing.T, payload map[string]string) string {
	t.Helper()

	encode := func(v any) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}

	header := encode(map[string]string{"alg": "RS256", "kid": "apple-key-1"})
	body := encode(payload)
	return header + "." + body + ".signature"
}

func TestClient_Exchange_Apple(t *testing.T) {
	idToken := fakeIdentityToken(t, map[string]string{
		"sub":   "apple-sub-1",
		"email": "hidden@privaterelay.appleid.com",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code-1", r.PostForm.Get("code"))
		assert.Equal(t, "com.example.app", r.PostForm.Get("client_id"))
		assert.NotEmpty(t, r.PostForm.Get("client_secret"))

		json.NewEncoder(w).Encode(map[string]string{"id_token": idToken})
	}))
	defer server.Close()

	client := newTestClient(t, appleTestConfig(t))
	client.SetEndpoints("", "", server.URL)

	claims, err := client.Exchange(context.Background(), models.MediumApple, "", "auth-code-1")

	require.NoError(t, err)
	assert.Equal(t, models.MediumApple, claims.Medium)
	assert.Equal(t, "apple-sub-1", claims.Subject)
	assert.Equal(t, "hidden@privaterelay.appleid.com", claims.Email)
}

func TestAppleClient_ClientSecretClaims(t *testing.T) {
	client := newTestClient(t, appleTestConfig(t))
	require.NotNil(t, client.apple)

	secret, err := client.apple.clientSecret()
	require.NoError(t, err)

	// Decode without verification to inspect the assertion's shape
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(secret, jwt.MapClaims{})
	require.NoError(t, err)

	assert.Equal(t, "ES256", token.Header["alg"])
	assert.Equal(t, "KEY1234567", token.Header["kid"])

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "TEAM123456", claims["iss"])
	assert.Equal(t, "com.example.app", claims["sub"])
	assert.Equal(t, "https://appleid.apple.com", claims["aud"])
}

func TestDecodeIdentityToken_Malformed(t *testing.T) {
	_, err := decodeIdentityToken("only-one-segment")
	assert.Error(t, err)

	_, err = decodeIdentityToken("a.%%%.c")
	assert.Error(t, err)
}
