// Package store is the single source of truth for all cross-view mutable
// state. Views read state through getters and mutate it only through
// actions; async actions release the lock while a request is in flight,
// so concurrent calls on the same domain resolve last-writer-wins by
// completion order. No request ordering is enforced.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/pkg/bl/logger"
)

// SubmissionRecorder keeps a local record of successful public form
// submissions. Recording is best-effort; failures are logged, never
// surfaced to the visitor.
type SubmissionRecorder interface {
	Record(ctx context.Context, sub remote.LeadRequest) error
}

// Store holds all cross-view state for one application process.
// It is injectable by reference; nothing in the repo reaches it through
// a package-level variable.
type Store struct {
	client   remote.Client
	recorder SubmissionRecorder
	log      logger.Logger

	mu           sync.Mutex
	form         FormData
	cases        []remote.CaseItem
	content      map[string]json.RawMessage
	adminContent []remote.ContentBlock
	adminCases   []remote.CaseItem
	leads        remote.LeadPage
	leadsQuery   remote.LeadsQuery
	loading      map[Domain]bool
	errs         map[Domain]string
}

// New creates a store backed by the given client.
func New(client remote.Client, log logger.Logger) *Store {
	return &Store{
		client:  client,
		log:     log,
		content: make(map[string]json.RawMessage),
		loading: make(map[Domain]bool),
		errs:    make(map[Domain]string),
	}
}

// SetRecorder attaches an optional local submission recorder.
func (s *Store) SetRecorder(r SubmissionRecorder) {
	s.recorder = r
}

// --- Form state ---

// UpdateFormField replaces one field of the form. No validation happens
// here; it is deferred to submission time.
func (s *Store) UpdateFormField(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case "name":
		s.form.Name = value
	case "phone":
		s.form.Phone = value
	case "industry":
		s.form.Industry = value
	case "message":
		s.form.Message = value
	}
}

// ResetForm restores the form to all-empty.
func (s *Store) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = FormData{}
}

// FormData returns a copy of the current form state.
func (s *Store) FormData() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// --- Collections and flags ---

// SetCollection replaces the cached collection for a domain wholesale.
// There is no partial merge; entries absent from items are dropped.
func (s *Store) SetCollection(domain Domain, items any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch domain {
	case DomainCases:
		if cases, ok := items.([]remote.CaseItem); ok {
			s.cases = cases
		}
	case DomainLeads:
		if page, ok := items.(remote.LeadPage); ok {
			s.leads = page
		}
	}
}

// SetLoading sets the loading flag for a domain.
func (s *Store) SetLoading(domain Domain, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[domain] = v
}

// SetError sets the error register for a domain; the last write wins.
// An empty message clears the register.
func (s *Store) SetError(domain Domain, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		delete(s.errs, domain)
		return
	}
	s.errs[domain] = message
}

// ClearError clears the error register for a domain.
func (s *Store) ClearError(domain Domain) {
	s.SetError(domain, "")
}

// Loading reports the loading flag for a domain.
func (s *Store) Loading(domain Domain) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[domain]
}

// Err returns the active error message for a domain, or empty.
func (s *Store) Err(domain Domain) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[domain]
}

// Cases returns the cached public case list.
func (s *Store) Cases() []remote.CaseItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cases
}

// Content returns the cached content payload for a section, or nil.
func (s *Store) Content(section string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content[section]
}

// AdminContent returns the cached admin content block list.
func (s *Store) AdminContent() []remote.ContentBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminContent
}

// AdminCases returns the cached admin case list.
func (s *Store) AdminCases() []remote.CaseItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminCases
}

// Leads returns the cached lead page and the query that produced it.
func (s *Store) Leads() (remote.LeadPage, remote.LeadsQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads, s.leadsQuery
}

// --- Public fetch actions ---

// FetchCases requests the public case list. On success the cases
// collection is replaced wholesale; on failure a domain error is set and
// the prior collection is left intact.
func (s *Store) FetchCases(ctx context.Context) {
	s.SetLoading(DomainCases, true)
	s.ClearError(DomainCases)

	cases, err := s.client.GetCases(ctx)

	if err != nil {
		s.log.Errorf("cannot fetch cases: %v", err)
		s.SetError(DomainCases, fetchFailureMessage(err, MsgCasesFailed))
		s.SetLoading(DomainCases, false)
		return
	}

	s.SetCollection(DomainCases, cases)
	s.SetLoading(DomainCases, false)
}

// FetchContent requests one named content section. Sections share the
// content domain flags; payloads are cached per section.
func (s *Store) FetchContent(ctx context.Context, section string) {
	s.SetLoading(DomainContent, true)
	s.ClearError(DomainContent)

	data, err := s.client.GetContent(ctx, section)

	if err != nil {
		s.log.Errorf("cannot fetch content %q: %v", section, err)
		s.SetError(DomainContent, fetchFailureMessage(err, MsgContentFailed))
		s.SetLoading(DomainContent, false)
		return
	}

	s.mu.Lock()
	s.content[section] = data
	s.mu.Unlock()
	s.SetLoading(DomainContent, false)
}

// --- Form submission ---

// SubmitForm runs the primary workflow: required-field validation,
// submission of trimmed values, and shape-checked response handling.
// Validation failures short-circuit before any network call. Every
// failure is terminal for the attempt; the form is reset only on
// success. The returned Result always carries a user-facing message.
func (s *Store) SubmitForm(ctx context.Context) Result {
	s.SetLoading(DomainForm, true)
	s.ClearError(DomainForm)

	form := s.FormData().Trimmed()

	if form.Name == "" {
		return s.submitFailure(MsgNameRequired)
	}
	if form.Phone == "" {
		return s.submitFailure(MsgPhoneRequired)
	}
	if !phonePattern.MatchString(form.Phone) {
		return s.submitFailure(MsgPhoneInvalid)
	}

	req := remote.LeadRequest{
		Name:     form.Name,
		Phone:    form.Phone,
		Industry: form.Industry,
		Message:  form.Message,
	}

	env, err := s.client.SubmitForm(ctx, req)
	if err != nil {
		s.log.Errorf("form submission failed: %v", err)
		return s.submitFailure(submitFailureMessage(err))
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, req); err != nil {
			s.log.Errorf("cannot record submission locally: %v", err)
		}
	}

	s.ResetForm()
	s.SetLoading(DomainForm, false)

	message := env.Message
	if message == "" {
		message = MsgSubmitSuccess
	}
	return Result{Success: true, Message: message, Data: env.Data}
}

func (s *Store) submitFailure(message string) Result {
	s.SetError(DomainForm, message)
	s.SetLoading(DomainForm, false)
	return Result{Success: false, Message: message}
}

// --- Admin synchronization actions ---

// FetchAdminContent replaces the admin content list.
func (s *Store) FetchAdminContent(ctx context.Context, token string) error {
	s.SetLoading(DomainContent, true)
	s.ClearError(DomainContent)

	blocks, err := s.client.ListContent(ctx, token)
	if err != nil {
		s.SetError(DomainContent, fetchFailureMessage(err, MsgContentFailed))
		s.SetLoading(DomainContent, false)
		return err
	}

	s.mu.Lock()
	s.adminContent = blocks
	s.mu.Unlock()
	s.SetLoading(DomainContent, false)
	return nil
}

// SaveContent saves one content block and refetches the full list on
// success. On failure the cached list is left unchanged.
func (s *Store) SaveContent(ctx context.Context, token string, in remote.ContentInput) error {
	if err := s.client.SaveContent(ctx, token, in); err != nil {
		return err
	}
	return s.FetchAdminContent(ctx, token)
}

// FetchAdminCases replaces the admin case list.
func (s *Store) FetchAdminCases(ctx context.Context, token string) error {
	s.SetLoading(DomainCases, true)
	s.ClearError(DomainCases)

	cases, err := s.client.ListCases(ctx, token)
	if err != nil {
		s.SetError(DomainCases, fetchFailureMessage(err, MsgCasesFailed))
		s.SetLoading(DomainCases, false)
		return err
	}

	s.mu.Lock()
	s.adminCases = cases
	s.mu.Unlock()
	s.SetLoading(DomainCases, false)
	return nil
}

// SaveCase creates (id == 0) or updates a case record, then refetches.
func (s *Store) SaveCase(ctx context.Context, token string, id int64, in remote.CaseInput) error {
	var err error
	if id == 0 {
		err = s.client.CreateCase(ctx, token, in)
	} else {
		err = s.client.UpdateCase(ctx, token, id, in)
	}
	if err != nil {
		return err
	}
	return s.FetchAdminCases(ctx, token)
}

// DeleteCase deletes a case record, then refetches.
func (s *Store) DeleteCase(ctx context.Context, token string, id int64) error {
	if err := s.client.DeleteCase(ctx, token, id); err != nil {
		return err
	}
	return s.FetchAdminCases(ctx, token)
}

// FetchLeads replaces the cached lead page with the given query's result.
func (s *Store) FetchLeads(ctx context.Context, token string, q remote.LeadsQuery) error {
	s.SetLoading(DomainLeads, true)
	s.ClearError(DomainLeads)

	page, err := s.client.ListLeads(ctx, token, q)
	if err != nil {
		s.SetError(DomainLeads, fetchFailureMessage(err, MsgNetworkError))
		s.SetLoading(DomainLeads, false)
		return err
	}

	s.mu.Lock()
	s.leads = *page
	s.leadsQuery = q
	s.mu.Unlock()
	s.SetLoading(DomainLeads, false)
	return nil
}

// UpdateLeadStatus applies a status transition immediately, then
// refetches the current page.
func (s *Store) UpdateLeadStatus(ctx context.Context, token string, id int64, status string) error {
	if !remote.IsValidLeadStatus(status) {
		return fmt.Errorf("invalid lead status %q", status)
	}
	if err := s.client.UpdateLeadStatus(ctx, token, id, status); err != nil {
		return err
	}

	_, q := s.Leads()
	return s.FetchLeads(ctx, token, q)
}

// --- Failure message mapping ---

// submitFailureMessage maps a client error to the submission flow's
// user-facing message, preferring the server-provided text.
func submitFailureMessage(err error) string {
	var serverErr *remote.ServerError
	var decodeErr *remote.DecodeError

	switch {
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return fmt.Sprintf("提交失败 (状态码: %d)", serverErr.Status)
	case errors.As(err, &decodeErr):
		if decodeErr.Reason == remote.DecodeReasonContentType {
			return MsgBadContentType
		}
		return MsgBadResponse
	default:
		return MsgNetworkError
	}
}

// fetchFailureMessage maps a client error to a fetch flow message:
// server-provided text when present, the domain fallback for other
// server failures, the generic network message otherwise.
func fetchFailureMessage(err error, fallback string) string {
	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return fallback
	}
	return MsgNetworkError
}
