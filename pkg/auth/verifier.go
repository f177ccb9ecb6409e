package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/logger"
)

// ErrInvalidToken is returned when a token is rejected by the verifier.
var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a bearer token to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// NewVerifier verifies locally when a JWT secret is configured and falls back
// to the provider's user endpoint otherwise.
func NewVerifier(cfg config.SupabaseConfig, httpCfg config.HTTPConfig, logg *logger.Logger) Verifier {
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		return NewJWTVerifier(cfg.JWTSecret)
	}
	return NewSupabaseVerifier(cfg, httpCfg, logg)
}

// JWTVerifier checks HS256 tokens against the project secret without a network hop.
type JWTVerifier struct {
	secret string
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*User, error) {
	claims, err := ParseAccessToken(v.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// SupabaseVerifier asks the provider's auth service who owns the token.
type SupabaseVerifier struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logg       *logger.Logger
}

func NewSupabaseVerifier(cfg config.SupabaseConfig, httpCfg config.HTTPConfig, logg *logger.Logger) *SupabaseVerifier {
	timeout := httpCfg.ClientTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	apiKey := cfg.AnonKey
	if apiKey == "" {
		apiKey = cfg.ServiceRoleKey
	}
	return &SupabaseVerifier{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.BaseURL() + "/auth/v1/user",
		apiKey:     apiKey,
		logg:       logg,
	}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth user lookup: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && v.logg != nil {
			v.logg.Warn(ctx, "auth: closing response body failed")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("auth user lookup failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding auth user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}
