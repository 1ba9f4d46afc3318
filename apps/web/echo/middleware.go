package echoweb

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/auth"
)

const (
	userKey = "user"
	jsonKey = "json"
)

func contextUser(ctx echo.Context) (auth.Principal, bool) {
	usr, ok := ctx.Get(userKey).(auth.Principal)
	return usr, ok
}

func sessionToken(ctx echo.Context) string {
	ck, err := ctx.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func setSessionCookie(ctx echo.Context, token string, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// sessionMiddleware lets through visitors holding a live session.
// The token is forwarded to the API through the request context.
func sessionMiddleware(gate *auth.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := sessionToken(ctx)
			usr, err := gate.Authenticate(ctx.Request().Context(), token)
			if err != nil {
				if !auth.IsSessionError(err) {
					return err
				}
				if token != "" {
					clearSessionCookie(ctx)
				}
				if wantsJSON(ctx) {
					return echo.NewHTTPError(http.StatusUnauthorized, errors.Cause(err).Error())
				}
				return ctx.Redirect(http.StatusSeeOther, auth.ProtectedRedirect(false))
			}

			ctx.Set(userKey, usr)
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(auth.NewContext(req.Context(), token)))
			return next(ctx)
		}
	}
}

// publicOnlyMiddleware sends logged in visitors to their dashboard.
func publicOnlyMiddleware(gate *auth.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			_, err := gate.Authenticate(ctx.Request().Context(), sessionToken(ctx))
			if to := auth.PublicOnlyRedirect(err == nil); to != "" {
				return ctx.Redirect(http.StatusSeeOther, to)
			}
			return next(ctx)
		}
	}
}

// jsonMiddleware marks a route as answering JSON, errors included.
func jsonMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Set(jsonKey, true)
		return next(ctx)
	}
}
