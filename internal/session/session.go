// Package session persists multi-step form interactions between submissions.
//
// Each end-user interaction owns one [Session]: its mode (create or update),
// the current step, the accumulated draft of valid field values, and, once
// committed, the persisted entity's ID. Sessions are YAML files in a
// sessions directory so that consecutive CLI invocations continue the same
// interaction.
//
// Key types:
//   - [Session] - one interaction's state
//   - [Manager] - loads and saves sessions under a directory
//
// No two submissions for one session overlap; the pipeline is synchronous
// and each session file has a single owner.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"formflow/internal/field"
)

// DefaultSessionsDir is the sessions directory relative to the working
// directory when no explicit path is configured.
const DefaultSessionsDir = ".formflow/sessions"

// EnvSessionsDir is the environment variable overriding the sessions
// directory.
const EnvSessionsDir = "FORMFLOW_SESSIONS_DIR"

// ErrNotFound is a sentinel error indicating no session file exists for the
// requested ID. Callers should report this as a caller mistake (wrong or
// expired session ID), not retry.
var ErrNotFound = errors.New("session not found")

// Mode distinguishes create-flow from update-flow sessions.
type Mode string

const (
	// ModeCreate builds a new entity; it exists only in the draft until the
	// terminal step commits.
	ModeCreate Mode = "create"

	// ModeUpdate rewrites an existing entity fetched by ID before step 1.
	ModeUpdate Mode = "update"
)

// IsValid reports whether the mode is one of the defined values.
func (m Mode) IsValid() bool {
	return m == ModeCreate || m == ModeUpdate
}

// Session is the persisted state of one multi-step interaction.
type Session struct {
	// ID identifies the session; it is also the session file name.
	ID string `yaml:"id"`

	// Mode is create or update.
	Mode Mode `yaml:"mode"`

	// EntityID is the target entity's record ID. Set from the start for
	// update flow; assigned at commit for create flow.
	EntityID string `yaml:"entity_id,omitempty"`

	// Step is the current 1-based step number.
	Step int `yaml:"step"`

	// Draft accumulates the validated field values of advanced steps.
	Draft map[string]any `yaml:"draft,omitempty"`

	// Committed is set once the terminal step has persisted the entity.
	// A committed session accepts no further submissions.
	Committed bool `yaml:"committed"`
}

// DraftFields returns the draft as a [field.FieldSet].
func (s *Session) DraftFields() field.FieldSet {
	if s.Draft == nil {
		return field.FieldSet{}
	}
	return field.Normalize(s.Draft)
}

// SetDraft replaces the draft with the given field set.
func (s *Session) SetDraft(fs field.FieldSet) {
	s.Draft = field.Plain(fs)
}

// ResolveDir determines the sessions directory.
//
// Resolution order:
//  1. FORMFLOW_SESSIONS_DIR environment variable
//  2. Explicit configured parameter (if non-empty)
//  3. [DefaultSessionsDir]
func ResolveDir(configured string) string {
	if envDir := os.Getenv(EnvSessionsDir); envDir != "" {
		return envDir
	}
	if configured != "" {
		return configured
	}
	return DefaultSessionsDir
}

// Manager loads and saves session files under one directory.
type Manager struct {
	dir string
}

// NewManager creates a [Manager] rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Begin creates, persists, and returns a new session at step 1.
//
// For [ModeUpdate], entityID must identify the record being updated; the
// caller is responsible for having fetched it and seeded the draft.
func (m *Manager) Begin(mode Mode, entityID string) (*Session, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid session mode: %s", mode)
	}
	if mode == ModeUpdate && entityID == "" {
		return nil, fmt.Errorf("update session requires an entity id")
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Mode:     mode,
		EntityID: entityID,
		Step:     1,
	}
	if err := m.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads the session with the given ID.
// Returns [ErrNotFound] when no session file exists.
func (m *Manager) Load(id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session id must not be empty")
	}

	data, err := os.ReadFile(m.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

// Save persists the session atomically (write to temp, then rename).
func (m *Manager) Save(sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session id must be set")
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	fullPath := m.path(sess.ID)
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".yaml")
}
