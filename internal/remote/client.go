package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brightlead/site/pkg/bl/logger"
)

// Client is the typed interface to the REST backend. All methods are
// blocking and honor the passed context; no retries are performed.
type Client interface {
	// Public endpoints.
	GetCases(ctx context.Context) ([]CaseItem, error)
	GetContent(ctx context.Context, section string) (json.RawMessage, error)
	SubmitForm(ctx context.Context, req LeadRequest) (*Envelope, error)

	// Admin endpoints. Login returns the opaque session token; the rest
	// require it as a bearer credential.
	Login(ctx context.Context, username, password string) (*LoginData, error)
	ListContent(ctx context.Context, token string) ([]ContentBlock, error)
	SaveContent(ctx context.Context, token string, in ContentInput) error
	ListCases(ctx context.Context, token string) ([]CaseItem, error)
	CreateCase(ctx context.Context, token string, in CaseInput) error
	UpdateCase(ctx context.Context, token string, id int64, in CaseInput) error
	DeleteCase(ctx context.Context, token string, id int64) error
	ListLeads(ctx context.Context, token string, q LeadsQuery) (*LeadPage, error)
	UpdateLeadStatus(ctx context.Context, token string, id int64, status string) error
}

type client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// do issues one request and validates the response shape. It returns the
// decoded envelope only when the backend reported success; every other
// outcome maps to the error taxonomy: transport failures are wrapped
// verbatim, ErrUnauthorized flags a rejected credential on authenticated
// calls, DecodeError flags an uninterpretable body, and ServerError
// carries a well-formed failure with the most specific message available.
func (c *client) do(ctx context.Context, method, path, token string, body any) (*Envelope, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach backend: %w", err)
	}
	defer resp.Body.Close()

	if token != "" && resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != "application/json" {
		return nil, &DecodeError{Reason: DecodeReasonContentType, ContentType: contentType}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &DecodeError{Reason: DecodeReasonSyntax, Err: err}
	}

	if resp.StatusCode >= 400 || !env.Success {
		return nil, &ServerError{Status: resp.StatusCode, Message: env.FailureMessage()}
	}

	return &env, nil
}

// decodeData unmarshals the envelope payload into out.
func decodeData(env *Envelope, out any) error {
	if len(env.Data) == 0 {
		return &DecodeError{Reason: DecodeReasonSyntax, Err: fmt.Errorf("missing data payload")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &DecodeError{Reason: DecodeReasonSyntax, Err: err}
	}
	return nil
}

func (c *client) GetCases(ctx context.Context) ([]CaseItem, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/get-cases", "", nil)
	if err != nil {
		return nil, err
	}

	var cases []CaseItem
	if err := decodeData(env, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *client) GetContent(ctx context.Context, section string) (json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/get-content/"+url.PathEscape(section), "", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *client) SubmitForm(ctx context.Context, req LeadRequest) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/submit-form", "", req)
}

func (c *client) Login(ctx context.Context, username, password string) (*LoginData, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var data LoginData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, &DecodeError{Reason: DecodeReasonSyntax, Err: fmt.Errorf("login response has no token")}
	}
	return &data, nil
}

func (c *client) ListContent(ctx context.Context, token string) ([]ContentBlock, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/admin/content", token, nil)
	if err != nil {
		return nil, err
	}

	var blocks []ContentBlock
	if err := decodeData(env, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *client) SaveContent(ctx context.Context, token string, in ContentInput) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/content", token, in)
	return err
}

func (c *client) ListCases(ctx context.Context, token string) ([]CaseItem, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/admin/cases", token, nil)
	if err != nil {
		return nil, err
	}

	var cases []CaseItem
	if err := decodeData(env, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *client) CreateCase(ctx context.Context, token string, in CaseInput) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/cases", token, in)
	return err
}

func (c *client) UpdateCase(ctx context.Context, token string, id int64, in CaseInput) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/cases/%d", id), token, in)
	return err
}

func (c *client) DeleteCase(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/cases/%d", id), token, nil)
	return err
}

func (c *client) ListLeads(ctx context.Context, token string, q LeadsQuery) (*LeadPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", fmt.Sprintf("%d", q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}

	path := "/api/admin/leads"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	env, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var page LeadPage
	if err := decodeData(env, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *client) UpdateLeadStatus(ctx context.Context, token string, id int64, status string) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/leads/%d", id), token, map[string]string{
		"status": status,
	})
	return err
}
