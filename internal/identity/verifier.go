// Package identity turns a request into the identity uploads are metered
// against: a verified user from a bearer ID token, or a guest keyed by the
// client address.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type TokenVerifierInterface interface {
	Verify(ctx context.Context, raw string) (models.Identity, error)
	Close()
}

// JwksVerifier validates ID tokens against the identity provider's published
// keys. The key set is cached and refreshed in the background.
type JwksVerifier struct {
	keys     func(ctx context.Context) (jwk.Set, error)
	issuer   string
	audience string
	cancel   context.CancelFunc
}

func NewJwksVerifier(conf *structures.Config, logger providers.Logger) (TokenVerifierInterface, error) {
	ctx, cancel := context.WithCancel(context.Background())
	url := conf.Auth.JwksURL

	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// A failed first fetch is retried on the first verification.
	if _, err := cache.Refresh(ctx, url); err != nil {
		logger.Warnf(providers.TypeApp, "Failed to fetch JWKS from %s: %s", url, err)
	}

	return &JwksVerifier{
		keys: func(ctx context.Context) (jwk.Set, error) {
			return cache.Get(ctx, url)
		},
		issuer:   conf.Auth.Issuer,
		audience: conf.Auth.Audience,
		cancel:   cancel,
	}, nil
}

// NewStaticVerifier verifies against a fixed key set.
func NewStaticVerifier(keys jwk.Set, issuer, audience string) *JwksVerifier {
	return &JwksVerifier{
		keys: func(context.Context) (jwk.Set, error) {
			return keys, nil
		},
		issuer:   issuer,
		audience: audience,
		cancel:   func() {},
	}
}

func (v *JwksVerifier) Verify(ctx context.Context, raw string) (models.Identity, error) {
	keyset, err := v.keys(ctx)
	if err != nil {
		return models.Identity{}, models.NewInfrastructureError("fetch JWKS", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %s", models.ErrUnauthenticated, err)
	}
	if token.Subject() == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no subject", models.ErrUnauthenticated)
	}

	label := "unknown"
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok && s != "" {
			label = s
		}
	}
	return models.NewUser(token.Subject(), label), nil
}

// Close stops the background key refresh.
func (v *JwksVerifier) Close() {
	v.cancel()
}
