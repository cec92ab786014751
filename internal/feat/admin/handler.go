// Package admin implements the admin console: login, the content and
// case editors, and lead management. Every editor follows the same
// pattern: fetch list, present a table, pre-populate an edit form from
// the selected record, save and refetch. JSON-valued fields are edited
// as serialized text and must parse before a save request is issued.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/brightlead/site/internal/journal"
	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/internal/session"
	"github.com/brightlead/site/internal/store"
	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/logger"
	"github.com/brightlead/site/pkg/bl/middleware"
	"github.com/brightlead/site/pkg/bl/render"
	"github.com/go-chi/chi/v5"
)

// StatusLabels maps lead statuses to their display names.
var StatusLabels = map[string]string{
	remote.LeadStatusNew:       "新客户",
	remote.LeadStatusContacted: "已联系",
	remote.LeadStatusQualified: "已确认",
	remote.LeadStatusConverted: "已转化",
	remote.LeadStatusClosed:    "已关闭",
}

// Handler renders the admin console views.
type Handler struct {
	store       *store.Store
	client      remote.Client
	vault       session.Service
	journal     journal.Service
	guardMw     func(http.Handler) http.Handler
	templatesFS fs.FS
	tmpl        map[string]*template.Template
	cfg         *config.Config
	log         logger.Logger
}

// NewHandler creates a new admin console handler.
func NewHandler(
	st *store.Store,
	client remote.Client,
	vault session.Service,
	jrnl journal.Service,
	guardMw func(http.Handler) http.Handler,
	templatesFS fs.FS,
	cfg *config.Config,
	log logger.Logger,
) *Handler {
	return &Handler{
		store:       st,
		client:      client,
		vault:       vault,
		journal:     jrnl,
		guardMw:     guardMw,
		templatesFS: templatesFS,
		cfg:         cfg,
		log:         log,
	}
}

// Start parses the console templates.
func (h *Handler) Start(ctx context.Context) error {
	h.tmpl = make(map[string]*template.Template)
	for _, name := range []string{"login", "content", "cases", "leads"} {
		tmpl, err := template.New("").Funcs(render.FuncMap()).ParseFS(h.templatesFS,
			"assets/templates/base.html",
			"assets/templates/admin/"+name+".html",
		)
		if err != nil {
			return err
		}
		h.tmpl[name] = tmpl
	}

	h.log.Info("Admin handler started")
	return nil
}

// RegisterRoutes registers the console routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Info("Registering admin routes")

	r.Get("/admin/login", h.HandleLoginForm)
	r.Post("/admin/login", h.HandleLogin)
	r.Post("/admin/logout", h.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.guardMw)
		r.Get("/admin", h.handleHome)
		r.Get("/admin/content", h.HandleContentList)
		r.Post("/admin/content", h.HandleContentSave)
		r.Get("/admin/cases", h.HandleCaseList)
		r.Post("/admin/cases", h.HandleCaseSave)
		r.Post("/admin/cases/{id}/delete", h.HandleCaseDelete)
		r.Get("/admin/leads", h.HandleLeadList)
		r.Post("/admin/leads/{id}/status", h.HandleLeadStatus)
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/content", http.StatusSeeOther)
}

type pageData struct {
	Title    string
	SiteName string
	Username string
	Flash    *middleware.Flash

	ContentBlocks  []remote.ContentBlock
	EditingContent *contentForm

	Cases       []remote.CaseItem
	EditingCase *caseForm

	LeadPage     remote.LeadPage
	Leads        []remote.Lead
	Query        remote.LeadsQuery
	Pages        int
	StatusLabels map[string]string
	Statuses     []string
	JournalCount int64
}

// --- Login / logout ---

// HandleLoginForm shows the login page, or goes straight to the console
// when a token is already persisted.
func (h *Handler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	token, err := h.vault.Token(r.Context())
	if err != nil {
		h.log.Errorf("cannot read session vault: %v", err)
	}
	if token != "" {
		http.Redirect(w, r, "/admin/content", http.StatusSeeOther)
		return
	}

	h.renderPage(w, "login", pageData{
		Title:    "管理后台登录",
		SiteName: h.cfg.Site.Name,
		Flash:    middleware.PopFlash(w, r),
	})
}

// HandleLogin exchanges credentials for a backend token and persists it.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "登录失败", "请求参数格式不正确")
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))
	if username == "" || password == "" {
		middleware.SetFlash(w, "error", "登录失败", "请输入用户名和密码")
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	data, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		h.log.Errorf("login failed for %s: %v", username, err)
		middleware.SetFlash(w, "error", "登录失败", loginFailureMessage(err))
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	if err := h.vault.Save(r.Context(), data.Token, data.Username); err != nil {
		h.log.Errorf("cannot persist session: %v", err)
		middleware.SetFlash(w, "error", "登录失败", "无法保存登录状态，请重试")
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
		return
	}

	h.log.Infof("Admin authenticated: %s", data.Username)
	middleware.SetFlash(w, "success", "登录成功", "欢迎回来，"+data.Username+"！")
	http.Redirect(w, r, "/admin/content", http.StatusSeeOther)
}

// HandleLogout clears the persisted session and returns to login.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.vault.Clear(r.Context()); err != nil {
		h.log.Errorf("cannot clear session: %v", err)
	}
	h.log.Info("Admin signed out")
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}

func loginFailureMessage(err error) string {
	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return "用户名或密码错误"
	}

	var decodeErr *remote.DecodeError
	if errors.As(err, &decodeErr) {
		return "服务器响应格式错误"
	}
	return "无法连接到服务器，请检查网络连接或稍后重试"
}

// demote clears the persisted session after a rejected admin call and
// redirects to login. Returns true when err was an authentication error.
func (h *Handler) demote(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, remote.ErrUnauthorized) {
		return false
	}

	if cErr := h.vault.Clear(r.Context()); cErr != nil {
		h.log.Errorf("cannot clear session after 401: %v", cErr)
	}
	middleware.SetFlash(w, "warning", "登录已失效", "请重新登录管理后台")
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
	return true
}

// --- Content editor ---

// contentForm is the content block edit form, with metadata kept as the
// raw serialized text the admin typed.
type contentForm struct {
	Section  string
	Title    string
	Content  string
	Metadata string
	IsActive bool
}

func contentFormFrom(b remote.ContentBlock) *contentForm {
	metadata := "{}"
	if len(b.Metadata) > 0 {
		if data, err := json.MarshalIndent(b.Metadata, "", "  "); err == nil {
			metadata = string(data)
		}
	}
	return &contentForm{
		Section:  b.Section,
		Title:    b.Title,
		Content:  b.Content,
		Metadata: metadata,
		IsActive: b.IsActive,
	}
}

// HandleContentList shows the content table and, when a section is
// selected, the edit form pre-populated from the cached record.
func (h *Handler) HandleContentList(w http.ResponseWriter, r *http.Request) {
	if err := h.store.FetchAdminContent(r.Context(), session.TokenFromContext(r.Context())); err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot fetch admin content: %v", err)
	}

	data := pageData{
		Title:          "内容管理",
		SiteName:       h.cfg.Site.Name,
		Username:       session.UsernameFromContext(r.Context()),
		Flash:          middleware.PopFlash(w, r),
		ContentBlocks:  h.store.AdminContent(),
		EditingContent: &contentForm{Metadata: "{}", IsActive: true},
	}
	if errMsg := h.store.Err(store.DomainContent); errMsg != "" && data.Flash == nil {
		data.Flash = &middleware.Flash{Level: "error", Title: "加载失败", Message: errMsg}
	}

	if section := r.URL.Query().Get("section"); section != "" {
		for _, b := range data.ContentBlocks {
			if b.Section == section {
				data.EditingContent = contentFormFrom(b)
				break
			}
		}
	}

	h.renderPage(w, "content", data)
}

// HandleContentSave validates the edit form, parses the metadata text,
// and saves. Invalid metadata is rejected here; no request is issued.
func (h *Handler) HandleContentSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "保存失败", "表单数据无效")
		http.Redirect(w, r, "/admin/content", http.StatusSeeOther)
		return
	}

	form := &contentForm{
		Section:  strings.TrimSpace(r.FormValue("section")),
		Title:    strings.TrimSpace(r.FormValue("title")),
		Content:  r.FormValue("content"),
		Metadata: r.FormValue("metadata"),
		IsActive: r.FormValue("is_active") != "",
	}

	if form.Section == "" {
		h.renderContentEditor(w, r, form, "区块标识不能为空")
		return
	}

	metadata := map[string]any{}
	if strings.TrimSpace(form.Metadata) != "" {
		if err := json.Unmarshal([]byte(form.Metadata), &metadata); err != nil {
			h.renderContentEditor(w, r, form, "metadata格式不正确，请输入有效的JSON")
			return
		}
	}

	token := session.TokenFromContext(r.Context())
	err := h.store.SaveContent(r.Context(), token, remote.ContentInput{
		Section:  form.Section,
		Title:    form.Title,
		Content:  form.Content,
		Metadata: metadata,
		IsActive: form.IsActive,
	})
	if err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot save content %s: %v", form.Section, err)
		h.renderContentEditor(w, r, form, saveFailureMessage(err, "保存内容失败"))
		return
	}

	middleware.SetFlash(w, "success", "保存成功", "内容已更新")
	http.Redirect(w, r, "/admin/content", http.StatusSeeOther)
}

// renderContentEditor re-renders the editor after a rejected save, with
// the entered values intact so the admin can correct and retry.
func (h *Handler) renderContentEditor(w http.ResponseWriter, r *http.Request, form *contentForm, errMsg string) {
	h.renderPage(w, "content", pageData{
		Title:          "内容管理",
		SiteName:       h.cfg.Site.Name,
		Username:       session.UsernameFromContext(r.Context()),
		Flash:          &middleware.Flash{Level: "error", Title: "保存失败", Message: errMsg},
		ContentBlocks:  h.store.AdminContent(),
		EditingContent: form,
	})
}

// --- Case editor ---

// caseForm is the case edit form; metrics stay serialized text.
type caseForm struct {
	ID           int64
	Title        string
	Description  string
	Platform     string
	ImageURL     string
	Metrics      string
	DisplayOrder int
	IsActive     bool
}

func caseFormFrom(c remote.CaseItem) *caseForm {
	metrics := "{}"
	if len(c.Metrics) > 0 {
		if data, err := json.MarshalIndent(c.Metrics, "", "  "); err == nil {
			metrics = string(data)
		}
	}
	return &caseForm{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Platform:     c.Platform,
		ImageURL:     c.ImageURL,
		Metrics:      metrics,
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
	}
}

// HandleCaseList shows the case table and edit form.
func (h *Handler) HandleCaseList(w http.ResponseWriter, r *http.Request) {
	if err := h.store.FetchAdminCases(r.Context(), session.TokenFromContext(r.Context())); err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot fetch admin cases: %v", err)
	}

	data := pageData{
		Title:       "案例管理",
		SiteName:    h.cfg.Site.Name,
		Username:    session.UsernameFromContext(r.Context()),
		Flash:       middleware.PopFlash(w, r),
		Cases:       h.store.AdminCases(),
		EditingCase: &caseForm{Metrics: "{}", IsActive: true},
	}
	if errMsg := h.store.Err(store.DomainCases); errMsg != "" && data.Flash == nil {
		data.Flash = &middleware.Flash{Level: "error", Title: "加载失败", Message: errMsg}
	}

	if idStr := r.URL.Query().Get("id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			for _, c := range data.Cases {
				if c.ID == id {
					data.EditingCase = caseFormFrom(c)
					break
				}
			}
		}
	}

	h.renderPage(w, "cases", data)
}

// HandleCaseSave creates or updates a case. The metrics text must parse
// as JSON before any request is issued.
func (h *Handler) HandleCaseSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "保存失败", "表单数据无效")
		http.Redirect(w, r, "/admin/cases", http.StatusSeeOther)
		return
	}

	id, _ := strconv.ParseInt(r.FormValue("id"), 10, 64)
	displayOrder, _ := strconv.Atoi(r.FormValue("display_order"))
	form := &caseForm{
		ID:           id,
		Title:        strings.TrimSpace(r.FormValue("title")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		Platform:     strings.TrimSpace(r.FormValue("platform")),
		ImageURL:     strings.TrimSpace(r.FormValue("image_url")),
		Metrics:      r.FormValue("metrics"),
		DisplayOrder: displayOrder,
		IsActive:     r.FormValue("is_active") != "",
	}

	if form.Title == "" {
		h.renderCaseEditor(w, r, form, "案例标题不能为空")
		return
	}

	metrics := map[string]string{}
	if strings.TrimSpace(form.Metrics) != "" {
		if err := json.Unmarshal([]byte(form.Metrics), &metrics); err != nil {
			h.renderCaseEditor(w, r, form, "metrics格式不正确，请输入有效的JSON")
			return
		}
	}

	token := session.TokenFromContext(r.Context())
	err := h.store.SaveCase(r.Context(), token, form.ID, remote.CaseInput{
		Title:        form.Title,
		Description:  form.Description,
		Platform:     form.Platform,
		ImageURL:     form.ImageURL,
		Metrics:      metrics,
		DisplayOrder: form.DisplayOrder,
		IsActive:     form.IsActive,
	})
	if err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot save case %d: %v", form.ID, err)
		h.renderCaseEditor(w, r, form, saveFailureMessage(err, "保存案例失败"))
		return
	}

	middleware.SetFlash(w, "success", "保存成功", "案例已更新")
	http.Redirect(w, r, "/admin/cases", http.StatusSeeOther)
}

func (h *Handler) renderCaseEditor(w http.ResponseWriter, r *http.Request, form *caseForm, errMsg string) {
	h.renderPage(w, "cases", pageData{
		Title:       "案例管理",
		SiteName:    h.cfg.Site.Name,
		Username:    session.UsernameFromContext(r.Context()),
		Flash:       &middleware.Flash{Level: "error", Title: "保存失败", Message: errMsg},
		Cases:       h.store.AdminCases(),
		EditingCase: form,
	})
}

// HandleCaseDelete deletes a case and refetches the list.
func (h *Handler) HandleCaseDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.SetFlash(w, "error", "删除失败", "无效的案例ID")
		http.Redirect(w, r, "/admin/cases", http.StatusSeeOther)
		return
	}

	token := session.TokenFromContext(r.Context())
	if err := h.store.DeleteCase(r.Context(), token, id); err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot delete case %d: %v", id, err)
		middleware.SetFlash(w, "error", "删除失败", saveFailureMessage(err, "删除案例失败"))
		http.Redirect(w, r, "/admin/cases", http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "删除成功", "案例已删除")
	http.Redirect(w, r, "/admin/cases", http.StatusSeeOther)
}

// --- Lead management ---

// HandleLeadList shows one page of leads with an optional status filter.
func (h *Handler) HandleLeadList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	q := remote.LeadsQuery{
		Page:   page,
		Limit:  10,
		Status: r.URL.Query().Get("status"),
	}

	if err := h.store.FetchLeads(r.Context(), session.TokenFromContext(r.Context()), q); err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot fetch leads: %v", err)
	}

	leadPage, query := h.store.Leads()
	pages := 0
	if leadPage.Limit > 0 {
		pages = (leadPage.Total + leadPage.Limit - 1) / leadPage.Limit
	}

	journalCount, err := h.journal.Count(r.Context())
	if err != nil {
		h.log.Errorf("cannot count journal entries: %v", err)
	}

	data := pageData{
		Title:        "留咨管理",
		SiteName:     h.cfg.Site.Name,
		Username:     session.UsernameFromContext(r.Context()),
		Flash:        middleware.PopFlash(w, r),
		LeadPage:     leadPage,
		Leads:        leadPage.Leads,
		Query:        query,
		Pages:        pages,
		StatusLabels: StatusLabels,
		Statuses:     remote.LeadStatuses,
		JournalCount: journalCount,
	}
	if errMsg := h.store.Err(store.DomainLeads); errMsg != "" && data.Flash == nil {
		data.Flash = &middleware.Flash{Level: "error", Title: "加载失败", Message: errMsg}
	}

	h.renderPage(w, "leads", data)
}

// HandleLeadStatus applies a status transition immediately on selection.
func (h *Handler) HandleLeadStatus(w http.ResponseWriter, r *http.Request) {
	backTo := "/admin/leads"
	if err := r.ParseForm(); err == nil {
		if back := r.FormValue("back"); back != "" && strings.HasPrefix(back, "/admin/leads") {
			backTo = back
		}
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.SetFlash(w, "error", "更新失败", "无效的线索ID")
		http.Redirect(w, r, backTo, http.StatusSeeOther)
		return
	}

	status := r.FormValue("status")
	token := session.TokenFromContext(r.Context())
	if err := h.store.UpdateLeadStatus(r.Context(), token, id, status); err != nil {
		if h.demote(w, r, err) {
			return
		}
		h.log.Errorf("cannot update lead %d status: %v", id, err)
		middleware.SetFlash(w, "error", "更新失败", saveFailureMessage(err, "更新状态失败"))
		http.Redirect(w, r, backTo, http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "更新成功", "客户状态已更新为："+StatusLabels[status])
	http.Redirect(w, r, backTo, http.StatusSeeOther)
}

// --- Helpers ---

// saveFailureMessage prefers the server-provided message, falling back
// to the operation's generic text.
func saveFailureMessage(err error, fallback string) string {
	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	return fallback
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
