// Package site implements the public marketing views: the landing page
// with hero and services sections, the cases grid, and the lead form.
package site

import (
	"context"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"sort"

	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/internal/store"
	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/logger"
	"github.com/brightlead/site/pkg/bl/middleware"
	"github.com/brightlead/site/pkg/bl/render"
	"github.com/go-chi/chi/v5"
)

// Handler renders the public pages and dispatches store actions.
type Handler struct {
	store       *store.Store
	templatesFS fs.FS
	tmpl        map[string]*template.Template
	cfg         *config.Config
	log         logger.Logger
}

// NewHandler creates a new public site handler.
func NewHandler(st *store.Store, templatesFS fs.FS, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{
		store:       st,
		templatesFS: templatesFS,
		cfg:         cfg,
		log:         log,
	}
}

// Start parses the page templates.
func (h *Handler) Start(ctx context.Context) error {
	h.tmpl = make(map[string]*template.Template)
	for _, name := range []string{"home", "cases", "contact"} {
		funcs := render.MergeFuncMaps(render.FuncMap(), template.FuncMap{
			"topMetrics": topMetrics,
		})
		tmpl, err := template.New("").Funcs(funcs).ParseFS(h.templatesFS,
			"assets/templates/base.html",
			"assets/templates/"+name+".html",
		)
		if err != nil {
			return err
		}
		h.tmpl[name] = tmpl
	}

	h.log.Info("Site handler started")
	return nil
}

// RegisterRoutes registers the public routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Info("Registering site routes")

	r.Get("/", h.HandleHome)
	r.Get("/cases", h.HandleCases)
	r.Get("/contact", h.HandleContactForm)
	r.Post("/contact", h.HandleContactSubmit)
}

type pageData struct {
	Title    string
	SiteName string
	Flash    *middleware.Flash

	Hero     *remote.ContentBlock
	Services *remote.ContentBlock
	Cases    []remote.CaseItem
	Error    string

	Form        store.FormData
	FieldErrors map[string][]string
	Submitting  bool
}

// HandleHome renders the landing page: hero and services content plus
// the cases grid. Fetch failures keep whatever the store already holds.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.store.FetchContent(r.Context(), "hero")
	h.store.FetchContent(r.Context(), "services")
	h.store.FetchCases(r.Context())

	data := pageData{
		Title:    h.cfg.Site.Name,
		SiteName: h.cfg.Site.Name,
		Flash:    middleware.PopFlash(w, r),
		Hero:     h.contentBlock("hero"),
		Services: h.contentBlock("services"),
		Cases:    h.store.Cases(),
		Error:    h.store.Err(store.DomainCases),
		Form:     h.store.FormData(),
	}
	h.renderPage(w, "home", data)
}

// HandleCases renders the cases page.
func (h *Handler) HandleCases(w http.ResponseWriter, r *http.Request) {
	h.store.FetchCases(r.Context())

	data := pageData{
		Title:    "运营案例",
		SiteName: h.cfg.Site.Name,
		Flash:    middleware.PopFlash(w, r),
		Cases:    h.store.Cases(),
		Error:    h.store.Err(store.DomainCases),
	}
	h.renderPage(w, "cases", data)
}

// HandleContactForm renders the lead form.
func (h *Handler) HandleContactForm(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:    "立即咨询",
		SiteName: h.cfg.Site.Name,
		Flash:    middleware.PopFlash(w, r),
		Form:     h.store.FormData(),
	}
	h.renderPage(w, "contact", data)
}

// HandleContactSubmit runs the submission flow: the form-layer schema
// check first for per-field inline feedback, then the store's own
// workflow. Schema failures re-render the form without touching the
// network; the store independently re-checks the required fields.
func (h *Handler) HandleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "提交失败", "表单数据无效")
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	h.store.UpdateFormField("name", r.FormValue("name"))
	h.store.UpdateFormField("phone", r.FormValue("phone"))
	h.store.UpdateFormField("industry", r.FormValue("industry"))
	h.store.UpdateFormField("message", r.FormValue("message"))

	form := h.store.FormData()
	if errs := form.Validate(); errs.HasErrors() {
		data := pageData{
			Title:       "立即咨询",
			SiteName:    h.cfg.Site.Name,
			Form:        form,
			FieldErrors: errs.AsMap(),
			Flash:       &middleware.Flash{Level: "error", Title: "提交失败", Message: errs.First().Message},
		}
		h.renderPage(w, "contact", data)
		return
	}

	result := h.store.SubmitForm(r.Context())
	if !result.Success {
		data := pageData{
			Title:    "立即咨询",
			SiteName: h.cfg.Site.Name,
			Form:     h.store.FormData(),
			Flash:    &middleware.Flash{Level: "error", Title: "提交失败", Message: result.Message},
		}
		h.renderPage(w, "contact", data)
		return
	}

	middleware.SetFlash(w, "success", "提交成功", result.Message)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// maxCardMetrics caps how many metrics a case card displays.
const maxCardMetrics = 3

type metricEntry struct {
	Label string
	Value string
}

// topMetrics orders a case's metrics by label and keeps at most
// maxCardMetrics of them for the card layout.
func topMetrics(metrics map[string]string) []metricEntry {
	labels := make([]string, 0, len(metrics))
	for label := range metrics {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	if len(labels) > maxCardMetrics {
		labels = labels[:maxCardMetrics]
	}

	entries := make([]metricEntry, 0, len(labels))
	for _, label := range labels {
		entries = append(entries, metricEntry{Label: label, Value: metrics[label]})
	}
	return entries
}

// contentBlock decodes a cached content section into its display shape.
func (h *Handler) contentBlock(section string) *remote.ContentBlock {
	raw := h.store.Content(section)
	if len(raw) == 0 {
		return nil
	}

	var block remote.ContentBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		h.log.Errorf("cannot decode %s content: %v", section, err)
		return nil
	}
	return &block
}

func (h *Handler) renderPage(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := h.tmpl[name]
	if !ok {
		h.log.Errorf("unknown template: %s", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		h.log.Errorf("Template execute error for %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
