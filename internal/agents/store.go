// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/sparkrag/internal/logging"
)

// Errors returned by the store.
var (
	ErrNotFound      = errors.New("agent not found")
	ErrNameRequired  = errors.New("agent name is required")
	ErrDuplicateName = errors.New("an agent with that name already exists")
	ErrStoreClosed   = errors.New("agent store is closed")
)

// DefaultSystemPrompt is the prompt of the built-in profile.
const DefaultSystemPrompt = "You are Spark, a helpful AI assistant running on a local NVIDIA Jetson system. Be concise but thorough."

// DefaultName is the name of the built-in profile.
const DefaultName = "Spark"

// Profile is an assistant persona.
type Profile struct {
	ID           string    `json:"id" yaml:"id,omitempty"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description,omitempty"`
	SystemPrompt string    `json:"systemPrompt" yaml:"system_prompt,omitempty"`
	DefaultKB    []string  `json:"defaultKB" yaml:"default_kb,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"-"`
}

// DefaultProfile returns the built-in profile without an ID.
func DefaultProfile() Profile {
	return Profile{
		Name:         DefaultName,
		Description:  "General assistant",
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Store persists profiles in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *zap.Logger
}

// Open opens (creating if needed) the database at path. The special path
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, now: time.Now, log: logging.Named("agents")}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrStoreClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Add inserts p with a new ID unless p.ID is already set.
func (s *Store) Add(ctx context.Context, p Profile) (Profile, error) {
	if s.db == nil {
		return Profile{}, ErrStoreClosed
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Profile{}, ErrNameRequired
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now().UTC().Truncate(time.Second)
	p.CreatedAt, p.UpdatedAt = now, now

	kbJSON, err := encodeKB(p.DefaultKB)
	if err != nil {
		return Profile{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, description, system_prompt, default_kb, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.SystemPrompt, kbJSON, now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, fmt.Errorf("%w: %s", ErrDuplicateName, p.Name)
		}
		return Profile{}, fmt.Errorf("insert agent: %w", err)
	}

	s.log.Info("agent added", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update replaces the stored fields of the profile with p.ID.
func (s *Store) Update(ctx context.Context, p Profile) (Profile, error) {
	if s.db == nil {
		return Profile{}, ErrStoreClosed
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Profile{}, ErrNameRequired
	}
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return Profile{}, err
	}
	kbJSON, err := encodeKB(p.DefaultKB)
	if err != nil {
		return Profile{}, err
	}
	now := s.now().UTC().Truncate(time.Second)

	_, err = s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, description = ?, system_prompt = ?, default_kb = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, p.SystemPrompt, kbJSON, now.Unix(), p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, fmt.Errorf("%w: %s", ErrDuplicateName, p.Name)
		}
		return Profile{}, fmt.Errorf("update agent: %w", err)
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now
	return p, nil
}

// Get returns the profile with id.
func (s *Store) Get(ctx context.Context, id string) (Profile, error) {
	return s.queryOne(ctx, "WHERE id = ?", id)
}

// GetByName returns the profile with name, compared case-insensitively.
func (s *Store) GetByName(ctx context.Context, name string) (Profile, error) {
	return s.queryOne(ctx, "WHERE name = ?", strings.TrimSpace(name))
}

// List returns all profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, selectProfiles+" ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the profile with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.log.Info("agent deleted", zap.String("id", id))
	return nil
}

// EnsureDefault adds the built-in profile when the store is empty and
// returns the first profile by name.
func (s *Store) EnsureDefault(ctx context.Context) (Profile, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Profile{}, err
	}
	if len(list) > 0 {
		return list[0], nil
	}
	return s.Add(ctx, DefaultProfile())
}

const selectProfiles = `
	SELECT id, name, description, system_prompt, default_kb, created_at, updated_at
	FROM profiles`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryOne(ctx context.Context, where string, arg any) (Profile, error) {
	if s.db == nil {
		return Profile{}, ErrStoreClosed
	}
	row := s.db.QueryRowContext(ctx, selectProfiles+" "+where, arg)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %v", ErrNotFound, arg)
	}
	return p, err
}

func scanProfile(r rowScanner) (Profile, error) {
	var (
		p                Profile
		kbJSON           string
		created, updated int64
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &p.SystemPrompt, &kbJSON, &created, &updated); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal([]byte(kbJSON), &p.DefaultKB); err != nil {
		return Profile{}, fmt.Errorf("decode default_kb for %s: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func encodeKB(paths []string) (string, error) {
	if paths == nil {
		paths = []string{}
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", fmt.Errorf("encode default_kb: %w", err)
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
