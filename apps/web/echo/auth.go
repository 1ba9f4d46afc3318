package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
)

type authWeb struct {
	pages      pageBuilder
	svc        *auth.Service
	validate   *validator.Validate
	translator ut.Translator
	secure     bool
}

func registerAuthWeb(
	app *echo.Echo,
	session, publicOnly echo.MiddlewareFunc,
	pages pageBuilder,
	svc *auth.Service,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) {
	h := authWeb{pages: pages, svc: svc, validate: validate, translator: translator, secure: conf.Server.SecureCookies}

	app.GET("/", pages.static("landing", "Welcome"), publicOnly)
	app.GET(auth.LoginPath, pages.static("login", "Log in"), publicOnly)
	app.POST(auth.LoginPath, h.login, publicOnly)
	app.POST("/logout", h.logout, session)
}

func (h authWeb) login(ctx echo.Context) error {
	p := h.pages.new(ctx, "Log in", nil)

	var data auth.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(h.validate); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "login", p)
	}

	token, _, err := h.svc.Login(ctx.Request().Context(), data)
	if core.IsAPIStatus(err, http.StatusUnauthorized) { // a wrong password is not a lost session
		p.Error = core.UserMessage(err)
		return ctx.Render(http.StatusBadRequest, "login", p)
	}
	if err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "login", p)
	}

	setSessionCookie(ctx, token, h.secure)
	return ctx.Redirect(http.StatusSeeOther, auth.DashboardPath)
}

func (h authWeb) logout(ctx echo.Context) error {
	req := ctx.Request()
	err := h.svc.Logout(req.Context(), auth.TokenFromContext(req.Context()))
	clearSessionCookie(ctx)
	if err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, auth.LoginPath)
}
