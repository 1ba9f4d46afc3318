package echoweb

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/invigilation"
)

type (
	invigilationWeb struct {
		pages      pageBuilder
		svc        *invigilation.Service
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}

	invigilationData struct {
		Form    invigilation.Request
		Result  *invigilation.Result
		History []invigilation.Record
	}
)

func registerInvigilationWeb(
	grp *echo.Group,
	pages pageBuilder,
	svc *invigilation.Service,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	h := invigilationWeb{pages: pages, svc: svc, validate: validate, translator: translator, logger: logger}

	grp.GET("/invigilation", h.form)
	grp.POST("/invigilation", h.assign)
}

func (h invigilationWeb) history(ctx echo.Context) []invigilation.Record {
	records, err := h.svc.History(ctx.Request().Context())
	if err != nil {
		h.logger.Warn("loading invigilation history", err)
	}
	return records
}

func (h invigilationWeb) form(ctx echo.Context) error {
	data := invigilationData{Form: invigilation.NewRequest(), History: h.history(ctx)}
	return ctx.Render(http.StatusOK, "invigilation", h.pages.new(ctx, "Invigilation", data))
}

func (h invigilationWeb) assign(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errMalformedQuery
	}

	data := invigilationData{Form: invigilation.Request{
		ExamDateFrom:  params.Get("exam_date_from"),
		ExamDateTo:    params.Get("exam_date_to"),
		ExamTimeStart: params.Get("exam_time_start"),
		ExamTimeEnd:   params.Get("exam_time_end"),
	}}
	data.Form.SetTeachers(params.Get("teacher_names"))
	p := h.pages.new(ctx, "Invigilation", &data)

	perDay := core.CleanString(params.Get("teachers_per_day"))
	if n, err := strconv.Atoi(perDay); err == nil {
		data.Form.TeachersPerDay = n
	} else if perDay != "" {
		p.Fields["teachers_per_day"] = "must be a whole number"
		data.History = h.history(ctx)
		return ctx.Render(http.StatusBadRequest, "invigilation", p)
	}

	// rejected forms never reach the API
	if err := data.Form.Validate(h.validate); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		data.History = h.history(ctx)
		return ctx.Render(code, "invigilation", p)
	}

	res, err := h.svc.Assign(ctx.Request().Context(), data.Form)
	if err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		data.History = h.history(ctx)
		return ctx.Render(code, "invigilation", p)
	}

	data.Result = &res
	data.History = h.history(ctx)
	return ctx.Render(http.StatusOK, "invigilation", p)
}
