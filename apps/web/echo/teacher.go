package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
)

// teacherWeb serves the public availability picker reached from the emailed link.
type teacherWeb struct {
	pages      pageBuilder
	svc        *availability.Service
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

type teacherAvailabilityData struct {
	TeacherID string
	Grid      slot.Grid
}

func registerTeacherWeb(
	app *echo.Echo,
	pages pageBuilder,
	svc *availability.Service,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	h := teacherWeb{pages: pages, svc: svc, validate: validate, translator: translator, logger: logger}

	app.GET("/teacher/availability", h.form)
	app.POST("/teacher/availability", h.submit)
}

func (h teacherWeb) form(ctx echo.Context) error {
	data := teacherAvailabilityData{TeacherID: core.CleanString(ctx.QueryParam("teacher_id"))}
	if data.TeacherID != "" {
		rec, err := h.svc.Response(ctx.Request().Context(), data.TeacherID)
		switch {
		case err == nil:
			data.Grid = slot.ToGrid(rec.Unavailable())
		case errors.Is(err, availability.ErrNotFound):
			// first visit
		default:
			h.logger.Warn("prefilling availability of "+data.TeacherID, err)
		}
	}
	return ctx.Render(http.StatusOK, "teacher_availability", h.pages.new(ctx, "Your availability", data))
}

func (h teacherWeb) submit(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errMalformedQuery
	}

	sub := availability.Submission{TeacherID: params.Get("teacher_id"), Slots: make([]slot.Index, 0)}
	data := teacherAvailabilityData{TeacherID: core.CleanString(sub.TeacherID)}
	p := h.pages.new(ctx, "Your availability", &data)

	for _, v := range params["slot"] {
		i, err := slot.Parse(v)
		if err != nil {
			p.Fields["slots"] = err.Error()
			return ctx.Render(http.StatusBadRequest, "teacher_availability", p)
		}
		sub.Slots = append(sub.Slots, i)
	}
	data.Grid = slot.ToGrid(sub.Slots)

	if err := sub.Validate(h.validate); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "teacher_availability", p)
	}
	if err := h.svc.Submit(ctx.Request().Context(), sub); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "teacher_availability", p)
	}

	p.Flash = flashMessages["submitted"]
	return ctx.Render(http.StatusOK, "teacher_availability", p)
}
