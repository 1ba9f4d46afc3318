package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core/auth"
)

// flashMessages are the notices a redirect may ask a page to show, by key.
var flashMessages = map[string]string{
	"reset":     "All availability records were reset.",
	"link":      "The availability link was sent.",
	"shared":    "The timetable is on its way.",
	"class":     "The class roster was saved.",
	"submitted": "Thank you, your availability was recorded.",
	"generated": "The timetable was generated and the availability records were updated.",
}

type (
	// page is the data every template receives.
	page struct {
		AppName string
		Title   string
		User    *auth.Principal
		Flash   string
		Error   string
		Fields  map[string]string
		Data    interface{}
	}

	pageBuilder struct {
		appName string
	}
)

func (pb pageBuilder) new(ctx echo.Context, title string, data interface{}) *page {
	p := &page{
		AppName: pb.appName,
		Title:   title,
		Fields:  map[string]string{},
		Data:    data,
		Flash:   flashMessages[ctx.QueryParam("ok")],
	}
	if usr, ok := contextUser(ctx); ok {
		p.User = &usr
	}
	return p
}

// static serves a template that needs no data.
func (pb pageBuilder) static(name, title string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Render(http.StatusOK, name, pb.new(ctx, title, nil))
	}
}

// fail fills p from err. It returns the status to render with, or ok=false
// when err must reach the error handler: unexpected errors and lost sessions.
func (p *page) fail(err error, translator ut.Translator) (code int, ok bool) {
	res := classify(err, translator)
	if res.unexpected || res.code == http.StatusUnauthorized {
		return 0, false
	}
	if len(res.fields) > 0 {
		p.Fields = res.fields
	} else {
		p.Error = res.message
	}
	return res.code, true
}
