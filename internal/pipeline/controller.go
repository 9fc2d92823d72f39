// Package pipeline drives multi-step form submissions to a committed entity.
//
// The [Controller] accepts one submission at a time for a session: it
// validates the accumulated field values against the current step's
// cumulative rule set and produces one of three outcomes: Advance to the
// next step, Commit of the persisted entity, or Reject with field errors.
// Step transitions only move forward; a rejected submission leaves the
// session exactly where it was so the caller can correct and resubmit.
//
// Key concepts:
//   - Validation is [rules.Table.Validate] over the session draft merged
//     with the new submission
//   - Persistence happens exactly once, at the terminal step
//   - A commit-time persistence failure (uniqueness violated, store
//     unavailable) is surfaced as a Reject with an entity-level error, and
//     the session stays on the terminal step for resubmission
package pipeline

import (
	"errors"
	"fmt"

	"formflow/internal/field"
	"formflow/internal/rules"
	"formflow/internal/session"
	"formflow/internal/store"
)

// Sentinel errors for submission handling.
var (
	// ErrCommitted indicates the session has already persisted its entity
	// and accepts no further submissions.
	ErrCommitted = errors.New("session is already committed")

	// ErrStepMismatch indicates the submitted step number is not the
	// session's current step. Steps cannot be revisited once advanced.
	ErrStepMismatch = errors.New("submitted step does not match session step")
)

// OutcomeKind labels the three possible submission outcomes.
type OutcomeKind string

const (
	// OutcomeAdvance means validation passed and the session moved to the
	// next step.
	OutcomeAdvance OutcomeKind = "advance"

	// OutcomeCommit means the terminal step passed and the entity was
	// persisted.
	OutcomeCommit OutcomeKind = "commit"

	// OutcomeReject means validation or persistence failed; the session
	// step is unchanged.
	OutcomeReject OutcomeKind = "reject"
)

// Outcome is the result of one submission.
type Outcome struct {
	// Kind is advance, commit, or reject.
	Kind OutcomeKind

	// NextStep is the session's step after an Advance (1-based).
	NextStep int

	// StepName is the display name of NextStep.
	StepName string

	// EntityID is the persisted record's ID after a Commit.
	EntityID string

	// Result carries the field-to-errors mapping for a Reject.
	Result rules.Result
}

// EntityStore is the persistence collaborator the controller commits to.
// The [store.Store] type implements this interface.
type EntityStore interface {
	Save(rec *store.Record) error
	FindByID(id string) (*store.Record, error)
}

// SessionWriter persists session state after a successful transition.
// The [session.Manager] type implements this interface.
type SessionWriter interface {
	Save(sess *session.Session) error
}

// Controller validates submissions and advances sessions.
//
// Create with [NewController]. The controller is stateless between calls;
// all interaction state lives in the [session.Session].
type Controller struct {
	table    *rules.Table
	store    EntityStore
	sessions SessionWriter
}

// NewController creates a [Controller] with the required dependencies.
func NewController(table *rules.Table, entityStore EntityStore, sessions SessionWriter) *Controller {
	return &Controller{
		table:    table,
		store:    entityStore,
		sessions: sessions,
	}
}

// Submit processes one submission for the session's current step.
//
// The submitted field set is filtered to the fields permitted through the
// current step, merged over the session draft, and validated against the
// cumulative rule set. On Advance and Commit the session is mutated and
// persisted; on Reject it is untouched.
//
// Returns [ErrCommitted] for a finished session and [ErrStepMismatch] when
// step is not the session's current step. Resubmitting the current step is
// the normal correction path after a Reject.
func (c *Controller) Submit(sess *session.Session, fs field.FieldSet, step int) (*Outcome, error) {
	if sess.Committed {
		return nil, ErrCommitted
	}
	if step != sess.Step {
		return nil, fmt.Errorf("%w: submitted %d, current %d", ErrStepMismatch, step, sess.Step)
	}

	permitted := c.table.Permit(fs, step)
	merged := sess.DraftFields().Merge(permitted)

	res, err := c.table.Validate(merged, step)
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		return &Outcome{Kind: OutcomeReject, Result: res}, nil
	}

	if step < c.table.Terminal() {
		return c.advance(sess, merged)
	}
	return c.commit(sess, merged)
}

func (c *Controller) advance(sess *session.Session, merged field.FieldSet) (*Outcome, error) {
	sess.SetDraft(merged)
	sess.Step++
	if err := c.sessions.Save(sess); err != nil {
		return nil, err
	}
	return &Outcome{
		Kind:     OutcomeAdvance,
		NextStep: sess.Step,
		StepName: c.table.StepName(sess.Step),
	}, nil
}

func (c *Controller) commit(sess *session.Session, merged field.FieldSet) (*Outcome, error) {
	def := c.table.Definition()

	id := sess.EntityID
	if id == "" {
		id = store.NewID()
	}

	rec := &store.Record{
		ID:     id,
		Entity: def.Entity,
		Values: field.Plain(merged.WithoutDestroyed()),
	}

	if err := c.store.Save(rec); err != nil {
		// Validation and persistence are not atomic; constraints enforced
		// only by the store surface here as an entity-level rejection. The
		// session stays on the terminal step so the caller can correct the
		// offending value and resubmit just this step.
		var res rules.Result
		if errors.Is(err, store.ErrDuplicate) {
			res.Add(rules.BaseField, fmt.Sprintf("%s has already been taken", def.UniqueField))
		} else {
			res.Add(rules.BaseField, "could not be saved")
		}
		return &Outcome{Kind: OutcomeReject, Result: res}, nil
	}

	sess.SetDraft(merged)
	sess.EntityID = id
	sess.Committed = true
	if err := c.sessions.Save(sess); err != nil {
		return nil, err
	}

	return &Outcome{Kind: OutcomeCommit, EntityID: id}, nil
}
