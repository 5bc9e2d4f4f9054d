package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
)

// Claims are issued by the account service; id is the user ID.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 tokens from the Authorization header or the auth cookie.
type Authenticator struct {
	secret     []byte
	cookieName string
	log        logrus.FieldLogger
}

func NewAuthenticator(secret, cookieName string, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{secret: []byte(secret), cookieName: cookieName, log: log}
}

// Issue signs a token for the principal. Used by tooling and tests.
func (a *Authenticator) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: p.UserID,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a token and resolves it to a principal.
func (a *Authenticator) Parse(raw string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	claims, _ := token.Claims.(*Claims)
	if claims == nil || claims.UserID == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return domain.Principal{UserID: claims.UserID, Role: role}, nil
}

// Middleware rejects requests without a valid token and stores the principal in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.Parse(a.tokenFrom(r))
		if err != nil {
			writeError(w, r, a.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// tokenFrom checks the bearer header, then the cookie. Browsers cannot set
// headers on websocket handshakes, so upgrades may also pass ?token=.
func (a *Authenticator) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// RequireCapability lets the request through only if the caller's role holds c.
func RequireCapability(c domain.Capability, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFrom(r.Context())
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			if !principal.Role.Can(c) {
				writeError(w, r, log, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func principalFrom(ctx context.Context) (domain.Principal, error) {
	if p, ok := ctx.Value(ctxKeyPrincipal).(domain.Principal); ok {
		return p, nil
	}
	return domain.Principal{}, domain.ErrUnauthorized
}
