package middleware

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// ProviderSet is the wire provider set for middleware components
var ProviderSet = wire.NewSet(ProvideAuth)

// AuthConfig selects how mutating requests are authenticated. JWKS wins over
// Secret; with neither set authentication is off.
type AuthConfig struct {
	JWKS   string
	Issuer string
	Secret string
}

// Auth wraps the protected routes. The zero value lets every request through.
type Auth struct {
	jwt *JWTMiddleware
}

// ProvideAuth builds the authentication middleware from config.
func ProvideAuth(ctx context.Context, cfg AuthConfig, log logger.Logger) (*Auth, error) {
	switch {
	case cfg.JWKS != "":
		m, err := NewJWKSMiddleware(ctx, cfg.JWKS, cfg.Issuer)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "API authentication enabled", "mode", "jwks", "issuer", cfg.Issuer)
		return &Auth{jwt: m}, nil
	case cfg.Secret != "":
		log.Info(ctx, "API authentication enabled", "mode", "hmac", "issuer", cfg.Issuer)
		return &Auth{jwt: NewHMACMiddleware([]byte(cfg.Secret), cfg.Issuer)}, nil
	default:
		log.Warn(ctx, "API authentication disabled; mutating endpoints and the stream are open")
		return &Auth{}, nil
	}
}

// Enabled reports whether tokens are checked.
func (a *Auth) Enabled() bool {
	return a != nil && a.jwt != nil
}

// Middleware enforces authentication when enabled.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return a.jwt.Middleware(next)
}

// QueryMiddleware is Middleware that also takes the token from the
// access_token query parameter.
func (a *Auth) QueryMiddleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return a.jwt.QueryMiddleware(next)
}
