package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paypalsdk "github.com/plutov/paypal/v4"

	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"
)

var (
	errCredentialsMissing = errors.New("paypal client id and secret are required")
	errInvalidPayPalEnv   = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
)

// Client wraps the PayPal REST client plus env-specific metadata.
type Client struct {
	api         *paypalsdk.Client
	environment string
	webhookID   string
}

// NewClient initializes PayPal once with the configured credentials and env.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, errCredentialsMissing
	}

	env, base, err := normalizeEnv(cfg.Env)
	if err != nil {
		return nil, err
	}

	api, err := paypalsdk.NewClient(strings.TrimSpace(cfg.ClientID), strings.TrimSpace(cfg.Secret), base)
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}
	if _, err := api.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("paypal access token: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paypal client initialized (%s)", env))
	}

	return &Client{
		api:         api,
		environment: env,
		webhookID:   strings.TrimSpace(cfg.WebhookID),
	}, nil
}

// API returns the underlying PayPal REST client.
func (c *Client) API() *paypalsdk.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized PayPal environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// WebhookID returns the configured webhook ID used for signature verification.
func (c *Client) WebhookID() string {
	if c == nil {
		return ""
	}
	return c.webhookID
}

// VerifyWebhook checks the transmission signature headers against the
// configured webhook ID. Returns false when verification is not configured.
func (c *Client) VerifyWebhook(ctx context.Context, req *http.Request) (bool, error) {
	if c == nil || c.webhookID == "" {
		return false, errors.New("paypal webhook id not configured")
	}
	resp, err := c.api.VerifyWebhookSignature(ctx, req, c.webhookID)
	if err != nil {
		return false, fmt.Errorf("verify webhook signature: %w", err)
	}
	return strings.EqualFold(resp.VerificationStatus, "SUCCESS"), nil
}

// CreatePayout submits a single-item payout batch to the vendor's PayPal email.
func (c *Client) CreatePayout(ctx context.Context, payout paypalsdk.Payout) (*paypalsdk.PayoutResponse, error) {
	if c == nil {
		return nil, errors.New("paypal client not initialized")
	}
	return c.api.CreatePayout(ctx, payout)
}

func normalizeEnv(raw string) (env string, base string, err error) {
	env = strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv:
		return env, paypalsdk.APIBaseSandBox, nil
	case liveEnv:
		return env, paypalsdk.APIBaseLive, nil
	default:
		return "", "", errInvalidPayPalEnv
	}
}
