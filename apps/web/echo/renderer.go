package echoweb

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/slot"
)

var templateFuncs = template.FuncMap{
	"days":      func() [slot.DaysPerWeek]string { return slot.Days },
	"periods":   func() [slot.PeriodsPerDay]string { return slot.PeriodLabels },
	"slotAt":    slot.MustFlatIndex,
	"slotValue": func(day, period int) int { return int(slot.MustFlatIndex(day, period)) }, // plain number for form values
	"join":      strings.Join,
	"add":       func(a, b int) int { return a + b },
	"fieldError": func(fields map[string]string, name string, row int, leaf string) template.HTML {
		msg, ok := fields[fmt.Sprintf("%s[%d].%s", name, row, leaf)]
		if !ok {
			return ""
		}
		return template.HTML(`<span class="field-error">` + template.HTMLEscapeString(msg) + `</span>`)
	},
}

// renderer executes page templates. Each page extends _base.gohtml and sees every other partial.
type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(fsys fs.FS, dir string) (*renderer, error) {
	fps, err := fs.Glob(fsys, path.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, err
	}

	partials := make([]string, 0)
	pageFiles := make([]string, 0, len(fps))
	for _, fp := range fps {
		if strings.HasPrefix(path.Base(fp), "_") {
			partials = append(partials, fp)
		} else {
			pageFiles = append(pageFiles, fp)
		}
	}

	rdr := &renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, fp := range pageFiles {
		name := strings.TrimSuffix(path.Base(fp), ".gohtml")
		files := append(append([]string{}, partials...), fp)
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, files...)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fp)
		}
		rdr.pages[name] = tmpl
	}
	return rdr, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("page template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
