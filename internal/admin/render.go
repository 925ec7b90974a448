package admin

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.Title}} | Storefront Admin</title></head>
<body>
<h1>{{.Title}}</h1>
<p><a href="/admin">All screens</a></p>
{{if .Message}}<p><em>{{.Message}}</em></p>{{end}}
{{range .Filters}}
<p>{{.Label}}:
{{range .Options}}<a href="?{{.Query}}">{{.Label}}</a> {{end}}
</p>
{{end}}
<form method="POST">
<table border="1">
<tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}
<tr><td><input type="checkbox" name="id" value="{{.ID}}"></td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}
</table>
{{range .Actions}}
<button formaction="/admin/{{$.Slug}}/actions/{{.Slug}}">{{.Name}}</button>
{{end}}
</form>
</body>
</html>
`

const indexTemplate = `<!DOCTYPE html>
<html>
<head><title>Storefront Admin</title></head>
<body>
<h1>Storefront Admin</h1>
<ul>
{{range .}}<li><a href="/admin/{{.Slug}}">{{.Title}}</a></li>{{end}}
</ul>
</body>
</html>
`

// Server renders every configured screen with one template.
type Server struct {
	screens map[string]ScreenConfig
	ordered []ScreenConfig
	page    *template.Template
	index   *template.Template
	logger  *slog.Logger
}

func NewServer(logger *slog.Logger, screens ...ScreenConfig) *Server {
	s := &Server{
		screens: make(map[string]ScreenConfig, len(screens)),
		ordered: screens,
		page:    template.Must(template.New("page").Parse(pageTemplate)),
		index:   template.Must(template.New("index").Parse(indexTemplate)),
		logger:  logger,
	}
	for _, screen := range screens {
		s.screens[screen.Slug] = screen
	}
	return s
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", s.HandleIndex)
	mux.HandleFunc("GET /admin/{screen}", s.HandleScreen)
	mux.HandleFunc("POST /admin/{screen}/actions/{action}", s.HandleAction)
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, s.ordered); err != nil {
		s.logger.Error("failed to render admin index", "error", err)
	}
}

type filterOptionData struct {
	Label string
	Query string
}

type filterData struct {
	Label   string
	Options []filterOptionData
}

type rowData struct {
	ID    int64
	Cells []string
}

type pageData struct {
	Slug    string
	Title   string
	Message string
	Columns []string
	Filters []filterData
	Actions []Action
	Rows    []rowData
}

func (s *Server) HandleScreen(w http.ResponseWriter, r *http.Request) {
	screen, ok := s.screens[r.PathValue("screen")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	rows, err := screen.Rows(r.Context(), r.URL.Query())
	if err != nil {
		s.logger.Error("failed to load screen rows", "screen", screen.Slug, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Slug:    screen.Slug,
		Title:   screen.Title,
		Message: r.URL.Query().Get("msg"),
		Actions: screen.Actions,
	}
	for _, col := range screen.Columns {
		data.Columns = append(data.Columns, col.Name)
	}
	for _, f := range screen.Filters {
		fd := filterData{Label: f.Label}
		for _, opt := range f.Options {
			fd.Options = append(fd.Options, filterOptionData{
				Label: opt.Label,
				Query: f.Param + "=" + opt.Value,
			})
		}
		data.Filters = append(data.Filters, fd)
	}
	for _, row := range rows {
		rd := rowData{ID: screen.RowID(row)}
		for _, col := range screen.Columns {
			rd.Cells = append(rd.Cells, col.Value(row))
		}
		data.Rows = append(data.Rows, rd)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("failed to render screen", "screen", screen.Slug, "error", err)
	}
}

func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	screen, ok := s.screens[r.PathValue("screen")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	action, ok := screen.action(r.PathValue("action"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var ids []int64
	for _, raw := range r.Form["id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	updated, err := action.Run(r.Context(), ids)
	if err != nil {
		s.logger.Error("admin action failed", "screen", screen.Slug, "action", action.Slug, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("admin action applied", "screen", screen.Slug, "action", action.Slug, "updated", updated)
	msg := strconv.FormatInt(updated, 10) + " rows were successfully updated"
	http.Redirect(w, r, "/admin/"+screen.Slug+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}
