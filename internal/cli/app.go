// Package cli provides the formflow command-line interface.
//
// Commands are built around an [App] container holding the loaded
// configuration and the wired dependencies: the form definition, the rule
// table, the submission controller, the record store, and the session
// manager. Dependencies are held as narrow interfaces so tests can
// substitute mocks without touching the filesystem.
//
// Command structure:
//   - begin  - start a create or update session
//   - submit - process one submission for a session
//   - status - show a session's progress
//   - list   - list persisted records
//   - show   - show one record by ID
//   - schema - print the active form definition
package cli

import (
	"formflow/internal/config"
	"formflow/internal/field"
	"formflow/internal/pipeline"
	"formflow/internal/render"
	"formflow/internal/rules"
	"formflow/internal/schema"
	"formflow/internal/session"
	"formflow/internal/store"
)

// Submitter processes one submission for a session.
// The [pipeline.Controller] type implements this interface.
type Submitter interface {
	Submit(sess *session.Session, fs field.FieldSet, step int) (*pipeline.Outcome, error)
}

// RecordStore reads persisted entity records.
// The [store.Store] type implements this interface.
type RecordStore interface {
	FindByID(id string) (*store.Record, error)
	List() ([]store.Record, error)
}

// SessionStore creates, loads, and saves sessions.
// The [session.Manager] type implements this interface.
type SessionStore interface {
	Begin(mode session.Mode, entityID string) (*session.Session, error)
	Load(id string) (*session.Session, error)
	Save(sess *session.Session) error
}

// App holds the wired dependencies shared by all commands.
type App struct {
	// Config is the loaded configuration.
	Config *config.Config

	// Definition is the active form definition.
	Definition *schema.Definition

	// Table is the cumulative rule table built from Definition.
	Table *rules.Table

	// Controller processes submissions.
	Controller Submitter

	// Records reads persisted entities.
	Records RecordStore

	// Sessions manages interaction state.
	Sessions SessionStore

	// Renderer formats terminal output.
	Renderer *render.Renderer
}

// NewApp wires an [App] from configuration: it discovers the form
// definition, builds the rule table, and constructs the store, session
// manager, controller, and renderer.
func NewApp(cfg *config.Config) (*App, error) {
	def, err := schema.FindDefinition(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	table, err := rules.NewTable(def)
	if err != nil {
		return nil, err
	}

	entityStore := store.New(cfg.StorePath, def.UniqueField)
	sessions := session.NewManager(session.ResolveDir(cfg.SessionsDir))

	return &App{
		Config:     cfg,
		Definition: def,
		Table:      table,
		Controller: pipeline.NewController(table, entityStore, sessions),
		Records:    entityStore,
		Sessions:   sessions,
		Renderer:   render.New(cfg.Output.Plain),
	}, nil
}
