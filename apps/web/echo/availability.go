package echoweb

import (
	"net/http"
	"net/url"
	"strconv"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/availability"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/core/timetable"
)

type (
	availabilityWeb struct {
		pages        pageBuilder
		svc          *availability.Service
		timetableSvc *timetable.Service
		validate     *validator.Validate
		translator   ut.Translator
		logger       core.Logger
	}

	teacherRow struct {
		timetable.Teacher
		Submitted   bool
		Unavailable []slot.Index
	}

	availabilityData struct {
		Classes    []string
		Selected   string
		Teachers   []teacherRow
		LoadErrors []string
	}
)

func registerAvailabilityWeb(
	grp *echo.Group,
	pages pageBuilder,
	svc *availability.Service,
	timetableSvc *timetable.Service,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	h := availabilityWeb{
		pages:        pages,
		svc:          svc,
		timetableSvc: timetableSvc,
		validate:     validate,
		translator:   translator,
		logger:       logger,
	}

	grp.GET("/availability", h.overview)
	grp.GET("/availability/:teacherID", h.record, jsonMiddleware)
	grp.POST("/availability/reset", h.reset)
	grp.POST("/teachers/link", h.sendLink)
	grp.POST("/generate", h.generate)
}

// load fetches the rosters and the availability records side by side.
// A failing fetch only blanks its part of the page.
func (h availabilityWeb) load(ctx echo.Context, selected string) availabilityData {
	reqCtx := ctx.Request().Context()

	var (
		wg               sync.WaitGroup
		inputs           timetable.InputData
		records          map[string]availability.Record
		inputErr, recErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		inputs, inputErr = h.timetableSvc.Inputs(reqCtx)
	}()
	go func() {
		defer wg.Done()
		records, recErr = h.svc.ByTeacher(reqCtx)
	}()
	wg.Wait()

	data := availabilityData{Classes: inputs.Names(), Selected: core.CleanString(selected)}
	for _, err := range []error{inputErr, recErr} {
		if err != nil {
			h.logger.Warn("loading the availability page", err)
			data.LoadErrors = append(data.LoadErrors, core.UserMessage(err))
		}
	}
	if data.Selected == "" && len(data.Classes) > 0 {
		data.Selected = data.Classes[0]
	}

	class, _ := inputs.Class(data.Selected)
	for _, t := range class.Teachers {
		row := teacherRow{Teacher: t}
		if rec, ok := records[t.ID]; ok {
			row.Submitted = rec.Submitted
			row.Unavailable = rec.Unavailable()
		}
		data.Teachers = append(data.Teachers, row)
	}
	return data
}

func (h availabilityWeb) overview(ctx echo.Context) error {
	data := h.load(ctx, ctx.QueryParam("class"))
	return ctx.Render(http.StatusOK, "availability", h.pages.new(ctx, "Availability", data))
}

func (h availabilityWeb) record(ctx echo.Context) error {
	rec, err := h.svc.Response(ctx.Request().Context(), ctx.Param("teacherID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (h availabilityWeb) reset(ctx echo.Context) error {
	if err := h.svc.Reset(ctx.Request().Context()); err != nil {
		return h.failed(ctx, "", err)
	}
	return ctx.Redirect(http.StatusSeeOther, "/availability?ok=reset")
}

func (h availabilityWeb) sendLink(ctx echo.Context) error {
	var req availability.LinkRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	class := ctx.FormValue("class")
	if err := req.Validate(h.validate); err != nil {
		return h.failed(ctx, class, err)
	}
	if err := h.svc.SendLink(ctx.Request().Context(), req); err != nil {
		return h.failed(ctx, class, err)
	}
	return ctx.Redirect(http.StatusSeeOther, overviewURL(class, "link"))
}

// generate builds the timetable of a class, then lets the API fold it into the teachers' availability.
func (h availabilityWeb) generate(ctx echo.Context) error {
	class := ctx.FormValue("class")
	reqCtx := ctx.Request().Context()

	res, err := h.timetableSvc.Generate(reqCtx, class)
	if err != nil {
		return h.failed(ctx, class, err)
	}
	if !res.Success && res.Message != "" {
		return h.failed(ctx, class, core.NewAPIError(http.StatusBadRequest, res.Message))
	}

	if synced, err := h.svc.Sync(reqCtx); err != nil {
		h.logger.Warn("syncing availability after generating "+class, err)
	} else {
		h.logger.Info("availability synced for " + strconv.Itoa(len(synced.UpdatedTeachers)) + " teacher(s)")
	}
	if _, err := h.timetableSvc.Refresh(reqCtx); err != nil {
		h.logger.Warn("refreshing timetables after generating "+class, err)
	}
	return ctx.Redirect(http.StatusSeeOther, overviewURL(class, "generated"))
}

// failed shows the overview again with err explained.
func (h availabilityWeb) failed(ctx echo.Context, class string, err error) error {
	p := h.pages.new(ctx, "Availability", h.load(ctx, class))
	code, ok := p.fail(err, h.translator)
	if !ok {
		return err
	}
	if len(p.Fields) > 0 {
		p.Error = fieldsSummary(p.Fields)
	}
	return ctx.Render(code, "availability", p)
}

func overviewURL(class, flash string) string {
	q := url.Values{}
	if class = core.CleanString(class); class != "" {
		q.Set("class", class)
	}
	q.Set("ok", flash)
	return "/availability?" + q.Encode()
}
