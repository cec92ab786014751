package fake

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/pkg/bl/logger"
)

func setupServer(t *testing.T) (*Server, remote.Client, func()) {
	t.Helper()

	srv, err := NewServer("admin", "admin123")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ts := httptest.NewServer(srv)
	client := remote.NewClient(ts.URL, 5*time.Second, logger.NewNoop())
	return srv, client, ts.Close
}

func TestLoginRoundTrip(t *testing.T) {
	_, client, cleanup := setupServer(t)
	defer cleanup()

	data, err := client.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if data.Token == "" {
		t.Error("Expected non-empty token")
	}
	if data.Username != "admin" {
		t.Errorf("Expected username admin, got %q", data.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, client, cleanup := setupServer(t)
	defer cleanup()

	_, err := client.Login(context.Background(), "admin", "wrong")

	var serverErr *remote.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected ServerError, got %v", err)
	}
	if serverErr.Message != "用户名或密码错误" {
		t.Errorf("Expected credential message, got %q", serverErr.Message)
	}
}

func TestSubmitFormCreatesLead(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()

	env, err := client.SubmitForm(context.Background(), remote.LeadRequest{
		Name:  "王小明",
		Phone: "13800138000",
	})
	if err != nil {
		t.Fatalf("SubmitForm failed: %v", err)
	}
	if !env.Success {
		t.Error("Expected success envelope")
	}

	token := srv.IssueToken()
	page, err := client.ListLeads(context.Background(), token, remote.LeadsQuery{})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("Expected 1 lead, got %d", page.Total)
	}
	if page.Leads[0].Status != remote.LeadStatusNew {
		t.Errorf("Expected status new, got %q", page.Leads[0].Status)
	}
	if page.Leads[0].Source != "website" {
		t.Errorf("Expected source website, got %q", page.Leads[0].Source)
	}
}

func TestSubmitFormRejectsMissingRequired(t *testing.T) {
	_, client, cleanup := setupServer(t)
	defer cleanup()

	_, err := client.SubmitForm(context.Background(), remote.LeadRequest{Name: "王小明"})

	var serverErr *remote.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected ServerError, got %v", err)
	}
}

func TestGetContentOnlyActive(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()

	srv.SeedContent(remote.ContentBlock{Section: "hero", Title: "首页", IsActive: true})
	srv.SeedContent(remote.ContentBlock{Section: "draft", Title: "草稿", IsActive: false})

	if _, err := client.GetContent(context.Background(), "hero"); err != nil {
		t.Fatalf("GetContent hero failed: %v", err)
	}
	if _, err := client.GetContent(context.Background(), "draft"); err == nil {
		t.Error("Expected inactive section to be hidden")
	}
}

func TestCaseCRUD(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()
	ctx := context.Background()
	token := srv.IssueToken()

	if err := client.CreateCase(ctx, token, remote.CaseInput{Title: "新案例", IsActive: true}); err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}

	cases, err := client.ListCases(ctx, token)
	if err != nil {
		t.Fatalf("ListCases failed: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("Expected 1 case, got %d", len(cases))
	}

	id := cases[0].ID
	if err := client.UpdateCase(ctx, token, id, remote.CaseInput{Title: "改名"}); err != nil {
		t.Fatalf("UpdateCase failed: %v", err)
	}

	cases, _ = client.ListCases(ctx, token)
	if cases[0].Title != "改名" {
		t.Errorf("Expected updated title, got %q", cases[0].Title)
	}

	if err := client.DeleteCase(ctx, token, id); err != nil {
		t.Fatalf("DeleteCase failed: %v", err)
	}
	cases, _ = client.ListCases(ctx, token)
	if len(cases) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(cases))
	}
}

func TestSaveContentUpsertsBySection(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()
	ctx := context.Background()
	token := srv.IssueToken()

	in := remote.ContentInput{Section: "hero", Title: "第一版", IsActive: true}
	if err := client.SaveContent(ctx, token, in); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	in.Title = "第二版"
	if err := client.SaveContent(ctx, token, in); err != nil {
		t.Fatalf("Second SaveContent failed: %v", err)
	}

	blocks, err := client.ListContent(ctx, token)
	if err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block after upsert, got %d", len(blocks))
	}
	if blocks[0].Title != "第二版" {
		t.Errorf("Expected latest title, got %q", blocks[0].Title)
	}
}

func TestLeadPaginationAndFilter(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()
	ctx := context.Background()
	token := srv.IssueToken()

	for i := 0; i < 15; i++ {
		status := remote.LeadStatusNew
		if i%3 == 0 {
			status = remote.LeadStatusContacted
		}
		srv.SeedLead(remote.Lead{Name: "客户", Phone: "13800138000", Status: status})
	}

	page, err := client.ListLeads(ctx, token, remote.LeadsQuery{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if page.Total != 15 {
		t.Errorf("Expected total 15, got %d", page.Total)
	}
	if len(page.Leads) != 5 {
		t.Errorf("Expected 5 leads on page 2, got %d", len(page.Leads))
	}

	page, err = client.ListLeads(ctx, token, remote.LeadsQuery{Status: remote.LeadStatusContacted})
	if err != nil {
		t.Fatalf("Filtered ListLeads failed: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Expected 5 contacted leads, got %d", page.Total)
	}
	for _, l := range page.Leads {
		if l.Status != remote.LeadStatusContacted {
			t.Errorf("Filter leaked status %q", l.Status)
		}
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()
	ctx := context.Background()
	token := srv.IssueToken()

	id := srv.SeedLead(remote.Lead{Name: "客户", Phone: "13800138000"})
	if err := client.UpdateLeadStatus(ctx, token, id, remote.LeadStatusQualified); err != nil {
		t.Fatalf("UpdateLeadStatus failed: %v", err)
	}

	page, _ := client.ListLeads(ctx, token, remote.LeadsQuery{})
	if page.Leads[0].Status != remote.LeadStatusQualified {
		t.Errorf("Expected qualified, got %q", page.Leads[0].Status)
	}
}

func TestRevokedTokenReturns401(t *testing.T) {
	srv, client, cleanup := setupServer(t)
	defer cleanup()
	ctx := context.Background()

	token := srv.IssueToken()
	if _, err := client.ListContent(ctx, token); err != nil {
		t.Fatalf("ListContent with valid token failed: %v", err)
	}

	srv.RevokeAllTokens()
	_, err := client.ListContent(ctx, token)
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized after revocation, got %v", err)
	}
}
