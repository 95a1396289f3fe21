package gateway

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/timer"
)

//go:embed web
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/page.html"))

type pageData struct {
	Title  string
	Admin  bool
	WSPath string
	Timer  timer.View
	// Roster is rendered by the projector, which escapes user data
	Roster template.HTML
	Count  int
}

// Page serves the dashboard for one surface mode. Admin controls are only
// rendered by a page constructed in admin mode.
type Page struct {
	mode roster.Mode
	feed *Feed
	auth rpc.AdminAuth
}

// NewPage creates a page for mode.
func NewPage(mode roster.Mode, feed *Feed, auth rpc.AdminAuth) *Page {
	return &Page{mode: mode, feed: feed, auth: auth}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := pageData{
		Title:  "Race Dashboard",
		WSPath: "/ws",
		Timer:  p.feed.View(),
	}

	if p.mode == roster.ModeAdmin {
		if !p.auth.Authorized(r) {
			http.Error(w, "Admin token required", http.StatusUnauthorized)
			return
		}
		// trade the query token for a session cookie and drop it from the URL
		if r.URL.Query().Get(rpc.AdminQueryParam) != "" {
			http.SetCookie(w, p.auth.SessionCookie())
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}
		data.Title = "Race Control"
		data.Admin = true
		data.WSPath = "/ws/admin"
	}

	rendered := p.feed.Roster(p.mode)
	data.Roster = template.HTML(rendered.HTML)
	data.Count = rendered.Count

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("mode", string(p.mode)).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// RegisterPageRoutes registers the viewer page, the admin page and assets
func RegisterPageRoutes(mux *http.ServeMux, feed *Feed, auth rpc.AdminAuth) {
	viewer := NewPage(roster.ModeViewer, feed, auth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		viewer.ServeHTTP(w, r)
	})
	mux.Handle("/admin", NewPage(roster.ModeAdmin, feed, auth))

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}
