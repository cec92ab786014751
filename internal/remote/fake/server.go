// Package fake is an in-process stand-in for the REST backend. It serves
// the same endpoints with in-memory data, so handler and store tests (and
// dev mode without a real backend) can run against realistic responses.
package fake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brightlead/site/internal/remote"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Server holds the in-memory backend state. All exported fields may be
// seeded before serving; access afterwards goes through the mutex.
type Server struct {
	mu sync.Mutex

	Cases   []remote.CaseItem
	Content []remote.ContentBlock
	Leads   []remote.Lead

	adminUser    string
	passwordHash []byte
	tokens       map[string]string // token -> username

	nextID int64
	router chi.Router
}

// NewServer creates a fake backend with one admin account.
// The password is stored bcrypt-hashed, never in the clear.
func NewServer(adminUser, adminPassword string) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("cannot hash admin password: %w", err)
	}

	s := &Server{
		adminUser:    adminUser,
		passwordHash: hash,
		tokens:       make(map[string]string),
		nextID:       1,
	}

	r := chi.NewRouter()
	r.Get("/api/get-cases", s.handleGetCases)
	r.Get("/api/get-content/{section}", s.handleGetContent)
	r.Post("/api/submit-form", s.handleSubmitForm)
	r.Post("/api/admin/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/admin/content", s.handleListContent)
		r.Post("/api/admin/content", s.handleSaveContent)
		r.Get("/api/admin/cases", s.handleListCases)
		r.Post("/api/admin/cases", s.handleCreateCase)
		r.Put("/api/admin/cases/{id}", s.handleUpdateCase)
		r.Delete("/api/admin/cases/{id}", s.handleDeleteCase)
		r.Get("/api/admin/leads", s.handleListLeads)
		r.Put("/api/admin/leads/{id}", s.handleUpdateLead)
	})

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedCase adds a case record and returns its ID.
func (s *Server) SeedCase(c remote.CaseItem) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	s.Cases = append(s.Cases, c)
	return c.ID
}

// SeedContent adds a content block and returns its ID.
func (s *Server) SeedContent(b remote.ContentBlock) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	s.Content = append(s.Content, b)
	return b.ID
}

// SeedLead adds a lead record and returns its ID.
func (s *Server) SeedLead(l remote.Lead) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID
	s.nextID++
	if l.Status == "" {
		l.Status = remote.LeadStatusNew
	}
	s.Leads = append(s.Leads, l)
	return l.ID
}

// IssueToken mints a valid token without going through login.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New().String()
	s.tokens[token] = s.adminUser
	return token
}

// RevokeAllTokens invalidates every issued token. Subsequent admin
// requests fail with 401, which is how tests exercise session demotion.
func (s *Server) RevokeAllTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// --- Public endpoints ---

func (s *Server) handleGetCases(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cases := make([]remote.CaseItem, len(s.Cases))
	copy(cases, s.Cases)
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true, Data: mustMarshal(cases)})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Content {
		if b.Section == section && b.IsActive {
			writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true, Data: mustMarshal(b)})
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, remote.Envelope{Success: false, Message: "内容不存在"})
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	var req remote.LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "请求格式错误"})
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "姓名和手机号码为必填项"})
		return
	}

	s.mu.Lock()
	lead := remote.Lead{
		ID:        s.nextID,
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Industry:  strings.TrimSpace(req.Industry),
		Message:   strings.TrimSpace(req.Message),
		Source:    "website",
		Status:    remote.LeadStatusNew,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.Leads = append(s.Leads, lead)
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, remote.Envelope{
		Success: true,
		Message: "提交成功，我们会尽快联系您！",
		Data:    mustMarshal(map[string]int64{"id": lead.ID}),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "请求格式错误"})
		return
	}

	if req.Username != s.adminUser ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)) != nil {
		writeEnvelope(w, http.StatusUnauthorized, remote.Envelope{Success: false, Message: "用户名或密码错误"})
		return
	}

	s.mu.Lock()
	token := uuid.New().String()
	s.tokens[token] = req.Username
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, remote.Envelope{
		Success: true,
		Data:    mustMarshal(remote.LoginData{Token: token, Username: req.Username}),
	})
}

// --- Admin endpoints ---

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeEnvelope(w, http.StatusUnauthorized, remote.Envelope{Success: false, Message: "未授权"})
			return
		}

		s.mu.Lock()
		_, ok := s.tokens[parts[1]]
		s.mu.Unlock()
		if !ok {
			writeEnvelope(w, http.StatusUnauthorized, remote.Envelope{Success: false, Message: "登录已失效"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	blocks := make([]remote.ContentBlock, len(s.Content))
	copy(blocks, s.Content)
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true, Data: mustMarshal(blocks)})
}

func (s *Server) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	var in remote.ContentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "请求格式错误"})
		return
	}
	if strings.TrimSpace(in.Section) == "" {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "section不能为空"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Upsert by section key.
	for i, b := range s.Content {
		if b.Section == in.Section {
			s.Content[i].Title = in.Title
			s.Content[i].Content = in.Content
			s.Content[i].Metadata = in.Metadata
			s.Content[i].IsActive = in.IsActive
			writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
			return
		}
	}
	s.Content = append(s.Content, remote.ContentBlock{
		ID:       s.nextID,
		Section:  in.Section,
		Title:    in.Title,
		Content:  in.Content,
		Metadata: in.Metadata,
		IsActive: in.IsActive,
	})
	s.nextID++
	writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	s.handleGetCases(w, r)
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var in remote.CaseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "请求格式错误"})
		return
	}

	s.mu.Lock()
	s.Cases = append(s.Cases, remote.CaseItem{
		ID:           s.nextID,
		Title:        in.Title,
		Description:  in.Description,
		Platform:     in.Platform,
		ImageURL:     in.ImageURL,
		Metrics:      in.Metrics,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
	})
	s.nextID++
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "无效的案例ID"})
		return
	}

	var in remote.CaseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "请求格式错误"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.Cases {
		if c.ID == id {
			s.Cases[i] = remote.CaseItem{
				ID:           id,
				Title:        in.Title,
				Description:  in.Description,
				Platform:     in.Platform,
				ImageURL:     in.ImageURL,
				Metrics:      in.Metrics,
				DisplayOrder: in.DisplayOrder,
				IsActive:     in.IsActive,
			}
			writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, remote.Envelope{Success: false, Message: "案例不存在"})
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "无效的案例ID"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.Cases {
		if c.ID == id {
			s.Cases = append(s.Cases[:i], s.Cases[i+1:]...)
			writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, remote.Envelope{Success: false, Message: "案例不存在"})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	var filtered []remote.Lead
	for _, l := range s.Leads {
		if status == "" || l.Status == status {
			filtered = append(filtered, l)
		}
	}
	s.mu.Unlock()

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pageData := remote.LeadPage{
		Leads: filtered[start:end],
		Total: total,
		Limit: limit,
	}
	writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true, Data: mustMarshal(pageData)})
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "无效的线索ID"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !remote.IsValidLeadStatus(req.Status) {
		writeEnvelope(w, http.StatusBadRequest, remote.Envelope{Success: false, Message: "无效的状态值"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.Leads {
		if l.ID == id {
			s.Leads[i].Status = req.Status
			writeEnvelope(w, http.StatusOK, remote.Envelope{Success: true})
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, remote.Envelope{Success: false, Message: "线索不存在"})
}

func writeEnvelope(w http.ResponseWriter, status int, env remote.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
