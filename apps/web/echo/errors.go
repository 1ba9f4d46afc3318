package echoweb

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/auth"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/timetable"
)

var errMalformedQuery = echo.NewHTTPError(http.StatusBadRequest, "malformed request")

type (
	// errorResult is how an error is shown to the visitor.
	errorResult struct {
		code       int
		message    string
		fields     map[string]string
		unexpected bool
	}

	errorPage struct {
		Code    int
		Status  string
		Message string
	}
)

// classify maps err onto a status and a user facing message.
// Failures of the external API keep their message; 5xx answers become 502 since this
// console is only a gateway to it.
func classify(err error, translator ut.Translator) errorResult {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		msg, ok := origErr.Message.(string)
		if !ok {
			msg = http.StatusText(origErr.Code)
		}
		return errorResult{code: origErr.Code, message: msg}
	case validator.ValidationErrors:
		return errorResult{code: http.StatusBadRequest, fields: core.TranslateErrors(origErr, translator)}
	case *core.ValidationError:
		res := errorResult{code: http.StatusBadRequest}
		if origErr.Fields != nil {
			res.fields = make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				res.fields[fErr.Field] = fErr.Error
			}
		} else {
			res.message = origErr.Error()
		}
		return res
	case *core.APIError:
		code := origErr.StatusCode
		if code >= http.StatusInternalServerError || code < http.StatusBadRequest {
			code = http.StatusBadGateway
		}
		return errorResult{code: code, message: origErr.Message}
	case *timetable.NotFoundError:
		return errorResult{code: http.StatusNotFound, message: origErr.Error()}
	}

	switch cause := errors.Cause(err); cause {
	case timetable.ErrNoTimetables, availability.ErrNotFound:
		return errorResult{code: http.StatusNotFound, message: cause.Error()}
	case core.ErrNetwork, core.ErrBadResponse:
		return errorResult{code: http.StatusBadGateway, message: cause.Error()}
	case auth.ErrNoSession, auth.ErrSessionExpired:
		return errorResult{code: http.StatusUnauthorized, message: cause.Error()}
	}

	msg := http.StatusText(http.StatusInternalServerError)
	return errorResult{code: http.StatusInternalServerError, message: msg, unexpected: true}
}

// wantsJSON reports whether the response to ctx must be JSON rather than a page.
func wantsJSON(ctx echo.Context) bool {
	if asJSON, _ := ctx.Get(jsonKey).(bool); asJSON {
		return true
	}
	return strings.HasPrefix(ctx.Request().URL.Path, "/api/")
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, appName string, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		res := classify(err, translator)

		if res.unexpected {
			args := []interface{}{errors.Wrap(err, res.message)}
			if usr, ok := contextUser(ctx); ok {
				args = append(args, usr)
			}
			logger.Error(res.message, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}

		var sendErr error
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			sendErr = ctx.NoContent(res.code)
		case wantsJSON(ctx):
			var message interface{} = echo.Map{"error": res.message}
			if ctx.Echo().Debug {
				message = echo.Map{"error": err.Error()}
			} else if len(res.fields) > 0 {
				message = res.fields
			}
			sendErr = ctx.JSON(res.code, message)
		case res.code == http.StatusUnauthorized:
			// the API dropped the session
			clearSessionCookie(ctx)
			sendErr = ctx.Redirect(http.StatusSeeOther, auth.LoginPath)
		default:
			msg := res.message
			if ctx.Echo().Debug {
				msg = err.Error()
			} else if len(res.fields) > 0 {
				msg = fieldsSummary(res.fields)
			}
			p := pageBuilder{appName: appName}.new(ctx, http.StatusText(res.code), errorPage{
				Code: res.code, Status: http.StatusText(res.code), Message: msg,
			})
			sendErr = ctx.Render(res.code, "error", p)
		}
		if sendErr != nil {
			ctx.Echo().Logger.Error(sendErr)
		}
	}
}

func fieldsSummary(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for fld, msg := range fields {
		parts = append(parts, fld+": "+msg)
	}
	return strings.Join(parts, "; ")
}
