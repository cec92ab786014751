// Package journal keeps a local record of successful public form
// submissions. The backend remains the system of record; the journal
// only preserves what this site sent, for audit when the backend and
// site disagree.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/logger"
	"github.com/google/uuid"
)

// Entry is one journaled submission.
type Entry struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Industry  string
	Message   string
	CreatedAt time.Time
}

// DBProvider provides access to the local database.
type DBProvider interface {
	GetDB() *sql.DB
}

// Service defines the journal interface.
type Service interface {
	Start(ctx context.Context) error
	Record(ctx context.Context, sub remote.LeadRequest) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	dbProvider DBProvider
	cfg        *config.Config
	log        logger.Logger
}

// NewService creates a new journal service.
func NewService(dbProvider DBProvider, cfg *config.Config, log logger.Logger) Service {
	return &service{
		dbProvider: dbProvider,
		cfg:        cfg,
		log:        log,
	}
}

func (s *service) Start(ctx context.Context) error {
	s.log.Info("Submission journal started")
	return nil
}

// Record appends one submission to the journal.
func (s *service) Record(ctx context.Context, sub remote.LeadRequest) error {
	_, err := s.dbProvider.GetDB().ExecContext(ctx,
		`INSERT INTO lead_journal (id, name, phone, industry, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sub.Name, sub.Phone, sub.Industry, sub.Message, time.Now())
	if err != nil {
		return fmt.Errorf("cannot record submission: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries, most recent first.
func (s *service) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.dbProvider.GetDB().QueryContext(ctx,
		`SELECT id, name, phone, industry, message, created_at
		 FROM lead_journal ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("cannot list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var id string
		if err := rows.Scan(&id, &e.Name, &e.Phone, &e.Industry, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("cannot scan journal entry: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid journal entry id %q: %w", id, err)
		}
		e.ID = parsed
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the total number of journaled submissions.
func (s *service) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.dbProvider.GetDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lead_journal").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("cannot count journal entries: %w", err)
	}
	return count, nil
}
