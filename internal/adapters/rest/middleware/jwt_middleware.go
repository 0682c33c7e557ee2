package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrMissingToken   = errors.New("missing authentication token")
	ErrInvalidToken   = errors.New("invalid authentication token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrMissingSubject = errors.New("missing subject in token")
)

type jwtContextKey string

const JWTSubjectContextKey jwtContextKey = "jwt_subject"

// AccessTokenParam is the query parameter QueryMiddleware reads a token from.
const AccessTokenParam = "access_token"

// JWTMiddleware validates bearer tokens on the mutating API routes. Keys come
// either from a JWKS endpoint or from a shared HMAC secret.
type JWTMiddleware struct {
	issuer    string
	keyOption func(ctx context.Context) (jwt.ParseOption, error)
}

// NewJWKSMiddleware validates tokens against the key set published at jwksEndpoint.
func NewJWKSMiddleware(ctx context.Context, jwksEndpoint string, issuer string) (*JWTMiddleware, error) {
	cache, err := jwk.NewCache(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	if err := cache.Register(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Fail at startup rather than on the first request.
	if _, err := cache.Lookup(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	return &JWTMiddleware{
		issuer: issuer,
		keyOption: func(ctx context.Context) (jwt.ParseOption, error) {
			keySet, err := cache.Lookup(ctx, jwksEndpoint)
			if err != nil {
				return nil, err
			}
			return jwt.WithKeySet(keySet), nil
		},
	}, nil
}

// NewHMACMiddleware validates HS256 tokens signed with secret.
func NewHMACMiddleware(secret []byte, issuer string) *JWTMiddleware {
	option := jwt.WithKey(jwa.HS256(), secret)
	return &JWTMiddleware{
		issuer: issuer,
		keyOption: func(context.Context) (jwt.ParseOption, error) {
			return option, nil
		},
	}
}

// Middleware requires a bearer token in the Authorization header.
func (m *JWTMiddleware) Middleware(next http.Handler) http.Handler {
	return m.handler(next, false)
}

// QueryMiddleware also accepts the token in the access_token query parameter,
// for clients such as browser websockets that cannot set headers.
func (m *JWTMiddleware) QueryMiddleware(next http.Handler) http.Handler {
	return m.handler(next, true)
}

func (m *JWTMiddleware) handler(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := requestToken(w, r, allowQuery)
		if !ok {
			return
		}

		keyOption, err := m.keyOption(r.Context())
		if err != nil {
			WriteJSONError(w, ErrorCodeInternalServerError, fmt.Sprintf("Failed to get signing keys: %v", err), http.StatusInternalServerError)
			return
		}

		options := []jwt.ParseOption{keyOption, jwt.WithValidate(true)}
		if m.issuer != "" {
			options = append(options, jwt.WithIssuer(m.issuer))
		}

		token, err := jwt.ParseString(tokenString, options...)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				WriteJSONError(w, ErrorCodeTokenExpired, ErrTokenExpired.Error(), http.StatusUnauthorized)
				return
			}
			WriteJSONError(w, ErrorCodeInvalidToken, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		var subject string
		if err := token.Get("sub", &subject); err != nil || subject == "" {
			WriteJSONError(w, ErrorCodeInvalidToken, ErrMissingSubject.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), JWTSubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestToken extracts the raw token, writing a 401 when there is none.
func requestToken(w http.ResponseWriter, r *http.Request, allowQuery bool) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := r.URL.Query().Get(AccessTokenParam); token != "" {
				return token, true
			}
		}
		WriteJSONError(w, ErrorCodeUnauthorized, ErrMissingToken.Error(), http.StatusUnauthorized)
		return "", false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		WriteJSONError(w, ErrorCodeUnauthorized, "Invalid authorization header format", http.StatusUnauthorized)
		return "", false
	}
	return tokenString, true
}

// GetJWTSubject returns the token subject stored by the middleware.
func GetJWTSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(JWTSubjectContextKey).(string)
	return subject, ok
}
