package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marketsquad/authgate/internal/config"
	"github.com/marketsquad/authgate/internal/models"
)

const (
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultFacebookGraphURL  = "https://graph.facebook.com"
)

// Exchanger swaps a provider token for verified identity claims
type Exchanger interface {
	Exchange(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error)
}

// Client exchanges provider tokens against the google, facebook and apple
// endpoints. Every call is bounded by the configured timeout; any failure
// is returned to the caller, who treats it as a soft rejection rather than
// a hard error.
type Client struct {
	http   *http.Client
	apple  *appleClient
	logger *slog.Logger

	// Overridable in tests
	googleUserInfoURL string
	facebookGraphURL  string
}

// NewClient creates a social exchange client. The apple flow is only
// available when the Apple credential bundle is configured.
func NewClient(cfg config.SocialConfig, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.ExchangeTimeout}

	var apple *appleClient
	if cfg.Apple.TeamID != "" {
		var err error
		apple, err = newAppleClient(cfg.Apple, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize apple login: %w", err)
		}
	}

	return &Client{
		http:              httpClient,
		apple:             apple,
		logger:            logger,
		googleUserInfoURL: defaultGoogleUserInfoURL,
		facebookGraphURL:  defaultFacebookGraphURL,
	}, nil
}

// Exchange resolves a provider token into normalized claims. For google
// and facebook the token is an access token; for apple, uniqueID carries
// the authorization code to exchange.
func (c *Client) Exchange(ctx context.Context, medium, token, uniqueID string) (*models.SocialClaims, error) {
	switch medium {
	case models.MediumGoogle:
		return c.exchangeGoogle(ctx, token)
	case models.MediumFacebook:
		return c.exchangeFacebook(ctx, token, uniqueID)
	case models.MediumApple:
		if c.apple == nil {
			return nil, fmt.Errorf("apple login is not configured")
		}
		return c.apple.exchange(ctx, uniqueID)
	default:
		return nil, fmt.Errorf("unsupported social medium: %s", medium)
	}
}

func (c *Client) exchangeGoogle(ctx context.Context, token string) (*models.SocialClaims, error) {
	endpoint := c.googleUserInfoURL + "?access_token=" + url.QueryEscape(token)

	var payload struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}

	return &models.SocialClaims{
		Medium:  models.MediumGoogle,
		Email:   payload.Email,
		Name:    payload.Name,
		Subject: payload.Sub,
	}, nil
}

func (c *Client) exchangeFacebook(ctx context.Context, token, uniqueID string) (*models.SocialClaims, error) {
	endpoint := fmt.Sprintf("%s/%s?access_token=%s&fields=name,email",
		c.facebookGraphURL, url.PathEscape(uniqueID), url.QueryEscape(token))

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("facebook graph request failed: %w", err)
	}

	return &models.SocialClaims{
		Medium:  models.MediumFacebook,
		Email:   payload.Email,
		Name:    payload.Name,
		Subject: payload.ID,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

// SetEndpoints overrides the provider base URLs (tests only)
func (c *Client) SetEndpoints(googleUserInfo, facebookGraph, appleToken string) {
	if googleUserInfo != "" {
		c.googleUserInfoURL = googleUserInfo
	}
	if facebookGraph != "" {
		c.facebookGraphURL = facebookGraph
	}
	if appleToken != "" && c.apple != nil {
		c.apple.tokenURL = appleToken
	}
}

var _ Exchanger = (*Client)(nil)

// timeNow is stubbed in tests
var timeNow = time.Now
