package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

const (
	// CookieName is the session cookie issued by the scheduling API.
	CookieName = "access_token_cookie"

	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")

	nowFunc = time.Now // mockable
)

type (
	// Principal is the logged in administrator.
	Principal struct {
		Name string `json:"user"`
	}

	// SessionChecker asks the API who owns a session token.
	SessionChecker interface {
		CurrentUser(ctx context.Context, token string) (Principal, error)
	}

	Gate struct {
		checker      SessionChecker
		verifyRemote bool
	}
)

// NewGate returns a Gate. When verifyRemote is false the presence of a
// non-expired token is enough to be authenticated.
func NewGate(checker SessionChecker, verifyRemote bool) *Gate {
	return &Gate{checker: checker, verifyRemote: verifyRemote}
}

// Authenticate resolves the Principal owning token.
func (g *Gate) Authenticate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrNoSession
	}
	if Expired(token) {
		return Principal{}, ErrSessionExpired
	}
	if !g.verifyRemote || g.checker == nil {
		return Principal{Name: "admin"}, nil
	}

	usr, err := g.checker.CurrentUser(ctx, token)
	if err != nil {
		if rejected(err) {
			return Principal{}, errors.Wrap(ErrNoSession, err.Error())
		}
		// the API could not tell; the session may still be good
		return Principal{}, errors.Wrap(err, "checking session")
	}
	if usr.Name == "" {
		usr.Name = "admin"
	}
	return usr, nil
}

// IsSessionError reports whether err means the visitor holds no usable session.
func IsSessionError(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrNoSession || cause == ErrSessionExpired
}

// rejected reports whether the API refused the token itself.
func rejected(err error) bool {
	return core.IsAPIStatus(err, http.StatusUnauthorized) || core.IsAPIStatus(err, http.StatusForbidden)
}

// Expired reports whether token is a JWT whose expiry has passed.
// The signature is not checked: the API owns the signing key.
func Expired(token string) bool {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return !claims.VerifyExpiresAt(nowFunc().Unix(), true)
}

// ProtectedRedirect returns where an anonymous visitor of a protected page must go.
func ProtectedRedirect(authenticated bool) string {
	if authenticated {
		return ""
	}
	return LoginPath
}

// PublicOnlyRedirect returns where a logged in visitor of the landing or login page must go.
func PublicOnlyRedirect(authenticated bool) string {
	if authenticated {
		return DashboardPath
	}
	return ""
}
