package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/pkg/bl/logger"
)

// fakeClient implements remote.Client with per-method hooks and call
// counters. Unhooked methods return empty values.
type fakeClient struct {
	mu sync.Mutex

	getCasesFn   func(ctx context.Context) ([]remote.CaseItem, error)
	getContentFn func(ctx context.Context, section string) (json.RawMessage, error)
	submitFormFn func(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error)
	listLeadsFn  func(ctx context.Context, token string, q remote.LeadsQuery) (*remote.LeadPage, error)

	submitCalls int
	casesCalls  int
	leadsCalls  int
}

func (f *fakeClient) GetCases(ctx context.Context) ([]remote.CaseItem, error) {
	f.mu.Lock()
	f.casesCalls++
	f.mu.Unlock()
	if f.getCasesFn != nil {
		return f.getCasesFn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) GetContent(ctx context.Context, section string) (json.RawMessage, error) {
	if f.getContentFn != nil {
		return f.getContentFn(ctx, section)
	}
	return nil, nil
}

func (f *fakeClient) SubmitForm(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.submitFormFn != nil {
		return f.submitFormFn(ctx, req)
	}
	return &remote.Envelope{Success: true}, nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*remote.LoginData, error) {
	return &remote.LoginData{Token: "t", Username: username}, nil
}

func (f *fakeClient) ListContent(ctx context.Context, token string) ([]remote.ContentBlock, error) {
	return nil, nil
}

func (f *fakeClient) SaveContent(ctx context.Context, token string, in remote.ContentInput) error {
	return nil
}

func (f *fakeClient) ListCases(ctx context.Context, token string) ([]remote.CaseItem, error) {
	return nil, nil
}

func (f *fakeClient) CreateCase(ctx context.Context, token string, in remote.CaseInput) error {
	return nil
}

func (f *fakeClient) UpdateCase(ctx context.Context, token string, id int64, in remote.CaseInput) error {
	return nil
}

func (f *fakeClient) DeleteCase(ctx context.Context, token string, id int64) error {
	return nil
}

func (f *fakeClient) ListLeads(ctx context.Context, token string, q remote.LeadsQuery) (*remote.LeadPage, error) {
	f.mu.Lock()
	f.leadsCalls++
	f.mu.Unlock()
	if f.listLeadsFn != nil {
		return f.listLeadsFn(ctx, token, q)
	}
	return &remote.LeadPage{}, nil
}

func (f *fakeClient) UpdateLeadStatus(ctx context.Context, token string, id int64, status string) error {
	return nil
}

func newTestStore(client remote.Client) *Store {
	return New(client, logger.NewNoop())
}

func TestSubmitFormValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name    string
		form    FormData
		wantMsg string
	}{
		{
			name:    "empty name",
			form:    FormData{Phone: "13800138000"},
			wantMsg: MsgNameRequired,
		},
		{
			name:    "whitespace name",
			form:    FormData{Name: "   ", Phone: "13800138000"},
			wantMsg: MsgNameRequired,
		},
		{
			name:    "empty phone",
			form:    FormData{Name: "王小明"},
			wantMsg: MsgPhoneRequired,
		},
		{
			name:    "invalid phone",
			form:    FormData{Name: "王小明", Phone: "12345"},
			wantMsg: MsgPhoneInvalid,
		},
		{
			name:    "landline style phone",
			form:    FormData{Name: "王小明", Phone: "01012345678"},
			wantMsg: MsgPhoneInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			s := newTestStore(client)
			s.UpdateFormField("name", tt.form.Name)
			s.UpdateFormField("phone", tt.form.Phone)

			result := s.SubmitForm(context.Background())

			if result.Success {
				t.Error("Expected failure result")
			}
			if result.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, result.Message)
			}
			if client.submitCalls != 0 {
				t.Errorf("Expected no network call, got %d", client.submitCalls)
			}
			if s.Err(DomainForm) != tt.wantMsg {
				t.Errorf("Expected form error %q, got %q", tt.wantMsg, s.Err(DomainForm))
			}
			if s.Loading(DomainForm) {
				t.Error("Expected loading flag cleared after failure")
			}
		})
	}
}

func TestSubmitFormSuccessResetsForm(t *testing.T) {
	client := &fakeClient{
		submitFormFn: func(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error) {
			if req.Name != "王小明" {
				t.Errorf("Expected trimmed name, got %q", req.Name)
			}
			if req.Phone != "13800138000" {
				t.Errorf("Expected trimmed phone, got %q", req.Phone)
			}
			return &remote.Envelope{Success: true}, nil
		},
	}
	s := newTestStore(client)
	s.UpdateFormField("name", "  王小明  ")
	s.UpdateFormField("phone", " 13800138000 ")
	s.UpdateFormField("industry", "美妆")

	result := s.SubmitForm(context.Background())

	if !result.Success {
		t.Fatalf("Expected success, got message %q", result.Message)
	}
	if result.Message != MsgSubmitSuccess {
		t.Errorf("Expected default success message, got %q", result.Message)
	}
	if !s.FormData().IsEmpty() {
		t.Errorf("Expected form reset after success, got %+v", s.FormData())
	}
}

func TestSubmitFormFailureRetainsForm(t *testing.T) {
	client := &fakeClient{
		submitFormFn: func(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error) {
			return nil, &remote.ServerError{Status: 500, Message: "数据库连接失败"}
		},
	}
	s := newTestStore(client)
	s.UpdateFormField("name", "王小明")
	s.UpdateFormField("phone", "13800138000")

	result := s.SubmitForm(context.Background())

	if result.Success {
		t.Error("Expected failure result")
	}
	if result.Message != "数据库连接失败" {
		t.Errorf("Expected server message, got %q", result.Message)
	}
	if s.FormData().IsEmpty() {
		t.Error("Expected form retained after failure")
	}
}

func TestSubmitFormServerMessagePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "server message wins",
			err:     &remote.ServerError{Status: 400, Message: "手机号已存在"},
			wantMsg: "手机号已存在",
		},
		{
			name:    "status fallback when message empty",
			err:     &remote.ServerError{Status: 502},
			wantMsg: "提交失败 (状态码: 502)",
		},
		{
			name:    "content type mismatch",
			err:     &remote.DecodeError{Reason: remote.DecodeReasonContentType, ContentType: "text/html"},
			wantMsg: MsgBadContentType,
		},
		{
			name:    "malformed body",
			err:     &remote.DecodeError{Reason: remote.DecodeReasonSyntax},
			wantMsg: MsgBadResponse,
		},
		{
			name:    "transport failure",
			err:     context.DeadlineExceeded,
			wantMsg: MsgNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				submitFormFn: func(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error) {
					return nil, tt.err
				},
			}
			s := newTestStore(client)
			s.UpdateFormField("name", "王小明")
			s.UpdateFormField("phone", "13800138000")

			result := s.SubmitForm(context.Background())
			if result.Success {
				t.Error("Expected failure result")
			}
			if result.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, result.Message)
			}
		})
	}
}

func TestSubmitFormRecordsLocally(t *testing.T) {
	var recorded []remote.LeadRequest
	s := newTestStore(&fakeClient{})
	s.SetRecorder(recorderFunc(func(ctx context.Context, sub remote.LeadRequest) error {
		recorded = append(recorded, sub)
		return nil
	}))
	s.UpdateFormField("name", "王小明")
	s.UpdateFormField("phone", "13800138000")

	if result := s.SubmitForm(context.Background()); !result.Success {
		t.Fatalf("Expected success, got %q", result.Message)
	}
	if len(recorded) != 1 {
		t.Fatalf("Expected 1 recorded submission, got %d", len(recorded))
	}
	if recorded[0].Name != "王小明" {
		t.Errorf("Expected recorded name 王小明, got %q", recorded[0].Name)
	}
}

type recorderFunc func(ctx context.Context, sub remote.LeadRequest) error

func (f recorderFunc) Record(ctx context.Context, sub remote.LeadRequest) error {
	return f(ctx, sub)
}

func TestFetchCasesFailurePreservesList(t *testing.T) {
	calls := 0
	client := &fakeClient{}
	client.getCasesFn = func(ctx context.Context) ([]remote.CaseItem, error) {
		calls++
		if calls == 1 {
			return []remote.CaseItem{{ID: 1, Title: "案例一"}}, nil
		}
		return nil, &remote.ServerError{Status: 500}
	}
	s := newTestStore(client)

	s.FetchCases(context.Background())
	if len(s.Cases()) != 1 {
		t.Fatalf("Expected 1 case after first fetch, got %d", len(s.Cases()))
	}
	if s.Err(DomainCases) != "" {
		t.Errorf("Expected no error after success, got %q", s.Err(DomainCases))
	}

	s.FetchCases(context.Background())
	if len(s.Cases()) != 1 {
		t.Errorf("Expected prior list preserved after failure, got %d cases", len(s.Cases()))
	}
	if s.Err(DomainCases) != MsgCasesFailed {
		t.Errorf("Expected error %q, got %q", MsgCasesFailed, s.Err(DomainCases))
	}
}

func TestFetchCasesClearsStaleError(t *testing.T) {
	calls := 0
	client := &fakeClient{}
	client.getCasesFn = func(ctx context.Context) ([]remote.CaseItem, error) {
		calls++
		if calls == 1 {
			return nil, &remote.ServerError{Status: 500}
		}
		return []remote.CaseItem{{ID: 1}}, nil
	}
	s := newTestStore(client)

	s.FetchCases(context.Background())
	if s.Err(DomainCases) == "" {
		t.Fatal("Expected error after failed fetch")
	}

	s.FetchCases(context.Background())
	if s.Err(DomainCases) != "" {
		t.Errorf("Expected error cleared after retry, got %q", s.Err(DomainCases))
	}
}

func TestFetchContentCachesPerSection(t *testing.T) {
	client := &fakeClient{
		getContentFn: func(ctx context.Context, section string) (json.RawMessage, error) {
			return json.RawMessage(`{"section":"` + section + `"}`), nil
		},
	}
	s := newTestStore(client)

	s.FetchContent(context.Background(), "hero")
	s.FetchContent(context.Background(), "services")

	if got := string(s.Content("hero")); got != `{"section":"hero"}` {
		t.Errorf("Unexpected hero payload: %s", got)
	}
	if got := string(s.Content("services")); got != `{"section":"services"}` {
		t.Errorf("Unexpected services payload: %s", got)
	}
	if s.Content("missing") != nil {
		t.Error("Expected nil for unfetched section")
	}
}

func TestConcurrentFetchesLastCompletedWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	calls := 0
	client := &fakeClient{}
	client.getCasesFn = func(ctx context.Context) ([]remote.CaseItem, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			// The first request stalls in flight and completes last.
			close(entered)
			<-release
			return []remote.CaseItem{{ID: 1, Title: "慢请求"}}, nil
		}
		return []remote.CaseItem{{ID: 2, Title: "快请求"}}, nil
	}
	s := newTestStore(client)

	done := make(chan struct{})
	go func() {
		s.FetchCases(context.Background())
		close(done)
	}()
	<-entered

	// The second fetch starts after the first and completes first.
	s.FetchCases(context.Background())
	if got := s.Cases(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("Expected fast result applied first, got %+v", got)
	}

	close(release)
	<-done

	// The stalled request completed last, so its result owns the
	// collection even though it started first.
	got := s.Cases()
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Expected last-completed result, got %+v", got)
	}
}

func TestConcurrentSubmitsLastCompletedWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	calls := 0
	client := &fakeClient{}
	client.submitFormFn = func(ctx context.Context, req remote.LeadRequest) (*remote.Envelope, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			// The first submission stalls in flight and fails last.
			close(entered)
			<-release
			return nil, context.DeadlineExceeded
		}
		return &remote.Envelope{Success: true}, nil
	}
	s := newTestStore(client)
	s.UpdateFormField("name", "王小明")
	s.UpdateFormField("phone", "13800138000")

	results := make(chan Result, 1)
	go func() {
		results <- s.SubmitForm(context.Background())
	}()
	<-entered

	// The second submission starts after the first and completes first.
	fast := s.SubmitForm(context.Background())
	if !fast.Success {
		t.Fatalf("Expected fast submission to succeed, got %+v", fast)
	}
	if !s.FormData().IsEmpty() {
		t.Error("Expected form reset after fast success")
	}
	if got := s.Err(DomainForm); got != "" {
		t.Errorf("Expected no form error after fast success, got %q", got)
	}

	close(release)
	slow := <-results

	// The stalled submission failed last, so its outcome owns the
	// form registers even though it started first.
	if slow.Success {
		t.Fatal("Expected slow submission to fail")
	}
	if got := s.Err(DomainForm); got != MsgNetworkError {
		t.Errorf("Expected %q after last-completed failure, got %q", MsgNetworkError, got)
	}
	if s.Loading(DomainForm) {
		t.Error("Expected form loading cleared")
	}
	if !s.FormData().IsEmpty() {
		t.Error("Expected failed submission to leave the reset form alone")
	}
}

func TestUpdateLeadStatusRejectsUnknownStatus(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(client)

	err := s.UpdateLeadStatus(context.Background(), "token", 1, "archived")
	if err == nil {
		t.Fatal("Expected error for unknown status")
	}
	if client.leadsCalls != 0 {
		t.Errorf("Expected no refetch after rejection, got %d", client.leadsCalls)
	}
}

func TestUpdateLeadStatusRefetchesCurrentQuery(t *testing.T) {
	var gotQuery remote.LeadsQuery
	client := &fakeClient{}
	client.listLeadsFn = func(ctx context.Context, token string, q remote.LeadsQuery) (*remote.LeadPage, error) {
		gotQuery = q
		return &remote.LeadPage{Total: 1, Limit: 10}, nil
	}
	s := newTestStore(client)

	q := remote.LeadsQuery{Page: 3, Limit: 10, Status: "contacted"}
	if err := s.FetchLeads(context.Background(), "token", q); err != nil {
		t.Fatalf("FetchLeads failed: %v", err)
	}

	if err := s.UpdateLeadStatus(context.Background(), "token", 7, "qualified"); err != nil {
		t.Fatalf("UpdateLeadStatus failed: %v", err)
	}
	if gotQuery != q {
		t.Errorf("Expected refetch with query %+v, got %+v", q, gotQuery)
	}
}

func TestUpdateFormFieldIgnoresUnknownField(t *testing.T) {
	s := newTestStore(&fakeClient{})
	s.UpdateFormField("email", "a@example.com")

	if !s.FormData().IsEmpty() {
		t.Errorf("Expected form untouched, got %+v", s.FormData())
	}
}
