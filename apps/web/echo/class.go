package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

const (
	defaultRosterRows = 3
	maxRosterRows     = 50
)

type (
	classWeb struct {
		pages      pageBuilder
		svc        *timetable.Service
		validate   *validator.Validate
		translator ut.Translator
	}

	classFormData struct {
		ClassName string
		Rows      []timetable.Teacher
	}
)

func registerClassWeb(
	grp *echo.Group,
	pages pageBuilder,
	svc *timetable.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	h := classWeb{pages: pages, svc: svc, validate: validate, translator: translator}

	grp.GET("/classes/new", h.form)
	grp.POST("/classes", h.create)
}

func emptyRows(n int) []timetable.Teacher {
	rows := make([]timetable.Teacher, n)
	for i := range rows {
		rows[i].TheoryLab = timetable.KindTheory
	}
	return rows
}

func (h classWeb) form(ctx echo.Context) error {
	n := defaultRosterRows
	if v := ctx.QueryParam("rows"); v != "" {
		if rows, err := strconv.Atoi(v); err == nil && rows > 0 {
			n = rows
		}
	}
	if n > maxRosterRows {
		n = maxRosterRows
	}
	data := classFormData{Rows: emptyRows(n)}
	return ctx.Render(http.StatusOK, "class_form", h.pages.new(ctx, "New class", data))
}

func (h classWeb) create(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errMalformedQuery
	}
	class, fields := parseRoster(params)
	data := classFormData{ClassName: class.ClassName, Rows: class.Teachers}
	p := h.pages.new(ctx, "New class", &data)

	if len(fields) > 0 {
		p.Fields = fields
		data.Rows = keepRows(data.Rows)
		return ctx.Render(http.StatusBadRequest, "class_form", p)
	}
	if err := class.Validate(h.validate); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		data.Rows = keepRows(class.Teachers)
		return ctx.Render(code, "class_form", p)
	}
	if err := h.svc.CreateClass(ctx.Request().Context(), class); err != nil {
		code, ok := p.fail(err, h.translator)
		if !ok {
			return err
		}
		return ctx.Render(code, "class_form", p)
	}

	return ctx.Redirect(http.StatusSeeOther, "/classes/new?ok=class")
}

// keepRows makes sure a rejected form still shows at least one row.
func keepRows(rows []timetable.Teacher) []timetable.Teacher {
	if len(rows) == 0 {
		return emptyRows(1)
	}
	return rows
}

// parseRoster reads the parallel teacher_id[], teacher_name[]... fields of the roster form.
// Fully blank rows are skipped. Fields that cannot be parsed are reported by name.
func parseRoster(params url.Values) (timetable.ClassInput, map[string]string) {
	class := timetable.ClassInput{ClassName: params.Get("class_name")}
	fields := make(map[string]string)

	ids := params["teacher_id[]"]
	names := params["teacher_name[]"]
	subjects := params["subject_name[]"]
	mobiles := params["mobileno[]"]
	emails := params["email[]"]
	counts := params["no_of_classes[]"]
	kinds := params["theory_lab[]"]

	n := len(ids)
	for _, col := range [][]string{names, subjects, mobiles, emails, counts, kinds} {
		if len(col) > n {
			n = len(col)
		}
	}

	at := func(col []string, i int) string {
		if i < len(col) {
			return core.CleanString(col[i])
		}
		return ""
	}

	for i := 0; i < n; i++ {
		t := timetable.Teacher{
			ID:        at(ids, i),
			Name:      at(names, i),
			Subject:   core.SplitList(at(subjects, i)),
			MobileNo:  at(mobiles, i),
			Email:     at(emails, i),
			TheoryLab: at(kinds, i),
		}
		count := at(counts, i)
		if t.ID == "" && t.Name == "" && len(t.Subject) == 0 && t.MobileNo == "" && t.Email == "" && (count == "" || count == "0") {
			continue
		}
		if t.TheoryLab == "" {
			t.TheoryLab = timetable.KindTheory
		}
		if count != "" {
			c, err := strconv.Atoi(count)
			if err != nil {
				fields[fmt.Sprintf("teachers[%d].no_of_classes", len(class.Teachers))] = "must be a whole number"
			}
			t.NoOfClasses = c
		}
		class.Teachers = append(class.Teachers, t)
	}
	return class, fields
}
