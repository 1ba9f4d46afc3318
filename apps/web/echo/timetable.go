package echoweb

import (
	"bytes"
	"html/template"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/slot"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/services/export"
)

const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"

	viewClass = "class"
	viewGiant = "giant"
)

type (
	timetableWeb struct {
		pages      pageBuilder
		svc        *timetable.Service
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		conf       *core.Config
	}

	classTimetableData struct {
		Classes      []string
		Selected     string
		Schedule     slot.Schedule
		ShareClasses []string
		View         string
	}

	giantData struct {
		Classes      []string
		Picked       map[string]bool
		Shown        []string
		Giant        slot.Giant
		Conflicts    []slot.Index
		Conflicting  map[slot.Index]bool
		Query        template.URL
		ShareClasses []string
		View         string
	}

	giantJSON struct {
		Classes   []string                    `json:"classes"`
		Slots     map[slot.Index][]slot.Entry `json:"slots"`
		Conflicts []slot.Index                `json:"conflicts"`
	}

	// ShareRequest emails a timetable export.
	ShareRequest struct {
		To      []string `json:"to" validate:"required,min=1,dive,email"`
		Format  string   `json:"format" validate:"oneof=pdf xlsx"`
		View    string   `json:"view" validate:"oneof=class giant"`
		Classes []string `json:"classes"`
	}

	shareEmailData struct {
		Sender  string
		Title   string
		Format  string
		Classes []string
	}
)

func registerTimetableWeb(
	grp *echo.Group,
	pages pageBuilder,
	svc *timetable.Service,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) {
	h := timetableWeb{pages: pages, svc: svc, mailSvc: mailSvc, validate: validate, translator: translator, conf: conf}

	grp.GET("/timetables", h.classView)
	grp.GET("/timetables/export.pdf", h.exportClass(formatPDF))
	grp.GET("/timetables/export.xlsx", h.exportClass(formatXLSX))
	grp.POST("/timetables/share", h.share)

	grp.GET("/giant", h.giantView)
	grp.GET("/giant/export.pdf", h.exportGiant(formatPDF))
	grp.GET("/giant/export.xlsx", h.exportGiant(formatXLSX))
	grp.GET("/api/giant", h.giantAPI)
}

func (h timetableWeb) loadClass(ctx echo.Context, selected string) (classTimetableData, error) {
	data := classTimetableData{Selected: core.CleanString(selected), View: viewClass}
	tables, err := h.svc.Timetables(ctx.Request().Context())
	if err != nil {
		return data, err
	}
	data.Classes = timetable.ClassIDs(tables)
	if data.Selected == "" {
		return data, nil
	}

	tt, err := h.svc.Timetable(ctx.Request().Context(), data.Selected)
	if err != nil {
		data.Selected = ""
		return data, err
	}
	data.Schedule = tt.Schedule()
	data.ShareClasses = []string{tt.ClassID}
	return data, nil
}

func (h timetableWeb) classView(ctx echo.Context) error {
	data, err := h.loadClass(ctx, ctx.QueryParam("class"))
	p := h.pages.new(ctx, "Timetables", data)
	if err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "timetables", p)
	}
	return ctx.Render(http.StatusOK, "timetables", p)
}

// loadGiant merges the picked classes, or every class when all is set.
// Nothing is merged while no class is picked.
func (h timetableWeb) loadGiant(ctx echo.Context, classes []string, all bool) (giantData, error) {
	data := giantData{Picked: make(map[string]bool), Conflicting: make(map[slot.Index]bool), View: viewGiant}
	tables, err := h.svc.Timetables(ctx.Request().Context())
	if err != nil {
		return data, err
	}
	data.Classes = timetable.ClassIDs(tables)
	if all {
		classes = data.Classes
	}
	for _, c := range classes {
		if c = core.CleanString(c); c != "" {
			data.Picked[c] = true
		}
	}
	if len(data.Picked) == 0 {
		return data, nil
	}

	shown, giant, err := h.svc.Giant(ctx.Request().Context(), classes)
	if err != nil {
		return data, err
	}
	data.Shown = shown
	data.Giant = giant
	data.Conflicts = giant.Conflicts()
	for _, i := range data.Conflicts {
		data.Conflicting[i] = true
	}
	q := url.Values{"class": shown}
	data.Query = template.URL(q.Encode())
	data.ShareClasses = shown
	return data, nil
}

func (h timetableWeb) giantView(ctx echo.Context) error {
	data, err := h.loadGiant(ctx, ctx.QueryParams()["class"], ctx.QueryParam("all") != "")
	p := h.pages.new(ctx, "Giant timetable", data)
	if err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "giant", p)
	}
	return ctx.Render(http.StatusOK, "giant", p)
}

func (h timetableWeb) giantAPI(ctx echo.Context) error {
	shown, giant, err := h.svc.Giant(ctx.Request().Context(), ctx.QueryParams()["class"])
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, giantJSON{Classes: shown, Slots: giant, Conflicts: giant.Conflicts()})
}

// table builds the exported table of a view.
func (h timetableWeb) table(ctx echo.Context, view string, classes []string) (export.Table, error) {
	if view == viewGiant {
		shown, giant, err := h.svc.Giant(ctx.Request().Context(), classes)
		if err != nil {
			return export.Table{}, err
		}
		return export.FromGiant(shown, giant), nil
	}

	if len(classes) == 0 || core.CleanString(classes[0]) == "" {
		return export.Table{}, core.NewValidationError(nil, core.FieldError{Field: "class", Error: "this field is required"})
	}
	tt, err := h.svc.Timetable(ctx.Request().Context(), classes[0])
	if err != nil {
		return export.Table{}, err
	}
	return export.FromSchedule(tt.ClassID, tt.Schedule()), nil
}

func render(format string, t export.Table) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	if format == formatXLSX {
		return buf, export.ContentTypeXLSX, export.XLSX(buf, t.Title, t)
	}
	return buf, export.ContentTypePDF, export.PDF(buf, t)
}

func (h timetableWeb) export(ctx echo.Context, format, view string, classes []string) error {
	t, err := h.table(ctx, view, classes)
	if err != nil {
		return err
	}
	buf, ct, err := render(format, t)
	if err != nil {
		return errors.Wrap(err, "rendering "+format)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+t.Filename(format)+`"`)
	return ctx.Blob(http.StatusOK, ct, buf.Bytes())
}

func (h timetableWeb) exportClass(format string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return h.export(ctx, format, viewClass, []string{ctx.QueryParam("class")})
	}
}

func (h timetableWeb) exportGiant(format string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return h.export(ctx, format, viewGiant, ctx.QueryParams()["class"])
	}
}

func (h timetableWeb) share(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errMalformedQuery
	}
	req := ShareRequest{
		To:      core.SplitList(params.Get("to")),
		Format:  core.CleanString(params.Get("format"), true /* lower */),
		View:    core.CleanString(params.Get("view"), true /* lower */),
		Classes: params["class"],
	}

	if err := h.validate.Struct(req); err != nil {
		return h.shareFailed(ctx, req, err)
	}
	t, err := h.table(ctx, req.View, req.Classes)
	if err != nil {
		return h.shareFailed(ctx, req, err)
	}
	buf, ct, err := render(req.Format, t)
	if err != nil {
		return errors.Wrap(err, "rendering "+req.Format)
	}

	sender := h.conf.AppName
	if usr, ok := contextUser(ctx); ok && usr.Name != "" {
		sender = usr.Name
	}
	msg := core.NewEmailMessage(h.conf)
	for _, to := range req.To {
		msg.To = append(msg.To, mail.Address{Address: to})
	}
	msg.Subject = t.Title
	msg.TemplateName = "share_timetable"
	msg.TemplateData = shareEmailData{Sender: sender, Title: t.Title, Format: req.Format, Classes: req.Classes}
	if err := msg.Attach(buf, t.Filename(req.Format), ct); err != nil {
		return errors.Wrap(err, "attaching export")
	}
	h.mailSvc.SendMessages(msg)

	return ctx.Redirect(http.StatusSeeOther, shareReturnURL(req, "shared"))
}

// shareFailed shows the page the share form was posted from, with err explained.
func (h timetableWeb) shareFailed(ctx echo.Context, req ShareRequest, err error) error {
	var p *page
	name := "timetables"
	if req.View == viewGiant {
		name = "giant"
		data, dErr := h.loadGiant(ctx, req.Classes, false)
		if dErr != nil {
			return dErr
		}
		p = h.pages.new(ctx, "Giant timetable", data)
	} else {
		var selected string
		if len(req.Classes) > 0 {
			selected = req.Classes[0]
		}
		data, dErr := h.loadClass(ctx, selected)
		if dErr != nil {
			return dErr
		}
		p = h.pages.new(ctx, "Timetables", data)
	}

	code, ok := p.fail(err, h.translator)
	if !ok {
		return err
	}
	// collapse "to[1]" onto the single recipients input
	for fld, msg := range p.Fields {
		if strings.HasPrefix(fld, "to[") {
			p.Fields["to"] = msg
			delete(p.Fields, fld)
		}
	}
	for _, fld := range []string{"format", "view"} {
		if msg, found := p.Fields[fld]; found {
			p.Error = fld + ": " + msg
		}
	}
	return ctx.Render(code, name, p)
}

func shareReturnURL(req ShareRequest, flash string) string {
	q := url.Values{"ok": {flash}}
	if req.View == viewGiant {
		q["class"] = req.Classes
		return "/giant?" + q.Encode()
	}
	if len(req.Classes) > 0 {
		q.Set("class", req.Classes[0])
	}
	return "/timetables?" + q.Encode()
}
