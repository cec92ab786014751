// Package session implements the admin session guard: a small locally
// persisted vault for the backend-issued token and username, plus the
// middleware that gates admin views on the token's presence. A token is
// valid until explicitly cleared; the first rejected admin request
// demotes the session instead.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/logger"
)

// Well-known vault keys. Only this package and the login/logout flows
// touch them.
const (
	KeyToken    = "admin_token"
	KeyUsername = "admin_username"
)

// DBProvider provides access to the local database.
type DBProvider interface {
	GetDB() *sql.DB
}

// Service defines the session vault interface.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	Username(ctx context.Context) (string, error)
	Save(ctx context.Context, token, username string) error
	Clear(ctx context.Context) error
}

type service struct {
	dbProvider DBProvider
	cfg        *config.Config
	log        logger.Logger
}

// NewService creates a new session vault service.
func NewService(dbProvider DBProvider, cfg *config.Config, log logger.Logger) Service {
	return &service{
		dbProvider: dbProvider,
		cfg:        cfg,
		log:        log,
	}
}

func (s *service) Start(ctx context.Context) error {
	s.log.Info("Session vault started")
	return nil
}

func (s *service) Stop(ctx context.Context) error {
	s.log.Info("Session vault stopped")
	return nil
}

func (s *service) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.dbProvider.GetDB().QueryRowContext(ctx,
		"SELECT value FROM session_vault WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot read vault key %s: %w", key, err)
	}
	return value, nil
}

func (s *service) set(ctx context.Context, key, value string) error {
	_, err := s.dbProvider.GetDB().ExecContext(ctx,
		`INSERT INTO session_vault (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("cannot write vault key %s: %w", key, err)
	}
	return nil
}

// Token returns the persisted session token, or empty when anonymous.
func (s *service) Token(ctx context.Context) (string, error) {
	return s.get(ctx, KeyToken)
}

// Username returns the persisted display name, or empty.
func (s *service) Username(ctx context.Context) (string, error) {
	return s.get(ctx, KeyUsername)
}

// Save persists both session values. Called only on login success.
func (s *service) Save(ctx context.Context, token, username string) error {
	if err := s.set(ctx, KeyToken, token); err != nil {
		return err
	}
	return s.set(ctx, KeyUsername, username)
}

// Clear removes both persisted values. Called on logout and on demotion.
func (s *service) Clear(ctx context.Context) error {
	_, err := s.dbProvider.GetDB().ExecContext(ctx,
		"DELETE FROM session_vault WHERE key IN (?, ?)", KeyToken, KeyUsername)
	if err != nil {
		return fmt.Errorf("cannot clear session vault: %w", err)
	}
	return nil
}
