package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

var errNotLoaded = errors.New("dashboard templates not loaded: call views.LoadTemplates during startup")

// loadTemplatesFromFS parses the page and its partials from dir in fsys.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. The server must not start
// when it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

func execute(w io.Writer, name string, data any) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, name, data)
}

func RenderDashboard(w io.Writer, data DashboardData) error {
	return execute(w, "dashboard.html", data)
}

func RenderStatusPartial(w io.Writer, data StatusData) error {
	return execute(w, "partials/status.html", data)
}

func RenderCardsPartial(w io.Writer, data CardsData) error {
	return execute(w, "partials/cards.html", data)
}

func RenderChartPartial(w io.Writer, data ChartData) error {
	return execute(w, "partials/chart.html", data)
}

func RenderTablePartial(w io.Writer, data TableData) error {
	return execute(w, "partials/table.html", data)
}
