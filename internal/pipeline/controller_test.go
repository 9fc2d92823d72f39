package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"formflow/internal/field"
	"formflow/internal/rules"
	"formflow/internal/session"
	"formflow/internal/store"
)

func newTestController() (*Controller, *MockEntityStore, *MockSessionWriter) {
	entityStore := &MockEntityStore{Records: make(map[string]*store.Record)}
	sessions := &MockSessionWriter{}
	return NewController(rules.DefaultTable(), entityStore, sessions), entityStore, sessions
}

func createSession() *session.Session {
	return &session.Session{ID: "s-1", Mode: session.ModeCreate, Step: 1}
}

func TestController_Submit_RejectKeepsStep(t *testing.T) {
	c, entityStore, sessions := newTestController()
	sess := createSession()

	out, err := c.Submit(sess, field.FieldSet{}, 1)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeReject {
		t.Fatalf("Kind = %s, want reject", out.Kind)
	}
	if got := out.Result.Errors["kind"]; !reflect.DeepEqual(got, []string{"can't be blank"}) {
		t.Errorf("kind errors = %v, want [can't be blank]", got)
	}
	if sess.Step != 1 {
		t.Errorf("session step = %d, want 1 (unchanged)", sess.Step)
	}
	if sessions.Saves != 0 {
		t.Errorf("session saved %d times on reject, want 0", sessions.Saves)
	}
	if len(entityStore.Saved) != 0 {
		t.Error("entity persisted on reject")
	}
}

func TestController_Submit_Advance(t *testing.T) {
	c, entityStore, sessions := newTestController()
	sess := createSession()

	out, err := c.Submit(sess, field.FieldSet{"kind": "standard", "name": "widget"}, 1)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeAdvance {
		t.Fatalf("Kind = %s, want advance (errors: %v)", out.Kind, out.Result.Errors)
	}
	if out.NextStep != 2 {
		t.Errorf("NextStep = %d, want 2", out.NextStep)
	}
	if out.StepName != "pricing" {
		t.Errorf("StepName = %q, want pricing", out.StepName)
	}
	if sess.Step != 2 {
		t.Errorf("session step = %d, want 2", sess.Step)
	}
	if sessions.Saves != 1 {
		t.Errorf("session saves = %d, want 1", sessions.Saves)
	}
	if len(entityStore.Saved) != 0 {
		t.Error("entity persisted before the terminal step")
	}

	// Draft retains the step 1 values.
	draft := sess.DraftFields()
	if kind, _ := draft.String("kind"); kind != "standard" {
		t.Errorf("draft kind = %q, want standard", kind)
	}
}

func TestController_Submit_CommitPersistsOnce(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{"sku": "W-1", "price": 10}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeCommit {
		t.Fatalf("Kind = %s, want commit (errors: %v)", out.Kind, out.Result.Errors)
	}
	if out.EntityID == "" {
		t.Error("EntityID empty after commit")
	}
	if !sess.Committed {
		t.Error("session not marked committed")
	}
	if sess.EntityID != out.EntityID {
		t.Errorf("session entity id = %q, want %q", sess.EntityID, out.EntityID)
	}

	if len(entityStore.Saved) != 1 {
		t.Fatalf("persisted %d records, want exactly 1", len(entityStore.Saved))
	}
	rec := entityStore.Saved[0]
	if rec.Entity != "product" {
		t.Errorf("record entity = %q, want product", rec.Entity)
	}
	if rec.Values["price"] != 10 {
		t.Errorf("record price = %v, want 10", rec.Values["price"])
	}
	if rec.Values["kind"] != "standard" {
		t.Errorf("record kind = %v, want standard (draft not merged)", rec.Values["kind"])
	}
}

func TestController_Submit_RejectAtTerminal(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{"sku": "W-1", "price": -5}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeReject {
		t.Fatalf("Kind = %s, want reject", out.Kind)
	}
	want := []string{"must be greater than or equal to 0"}
	if got := out.Result.Errors["price"]; !reflect.DeepEqual(got, want) {
		t.Errorf("price errors = %v, want %v", got, want)
	}
	if sess.Step != 2 || sess.Committed {
		t.Errorf("session = step %d committed %v, want step 2 uncommitted", sess.Step, sess.Committed)
	}
	if len(entityStore.Saved) != 0 {
		t.Error("entity persisted on terminal reject")
	}

	// The correction path: resubmit the same step with a valid value.
	out, err = c.Submit(sess, field.FieldSet{"sku": "W-1", "price": 10}, 2)
	if err != nil {
		t.Fatalf("resubmit err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("resubmit Kind = %s, want commit", out.Kind)
	}
}

func TestController_Submit_DuplicateAtCommit(t *testing.T) {
	c, entityStore, _ := newTestController()
	entityStore.SaveErr = store.ErrDuplicate
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{"sku": "W-1", "price": 10}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeReject {
		t.Fatalf("Kind = %s, want reject", out.Kind)
	}
	want := []string{"sku has already been taken"}
	if got := out.Result.Errors[rules.BaseField]; !reflect.DeepEqual(got, want) {
		t.Errorf("base errors = %v, want %v", got, want)
	}
	if sess.Committed {
		t.Error("session committed despite persistence failure")
	}
	if sess.Step != 2 {
		t.Errorf("session step = %d, want 2 (stays on terminal step)", sess.Step)
	}

	// Retrying the final step after the conflict clears succeeds.
	entityStore.SaveErr = nil
	out, err = c.Submit(sess, field.FieldSet{"sku": "W-2", "price": 10}, 2)
	if err != nil {
		t.Fatalf("retry err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("retry Kind = %s, want commit", out.Kind)
	}
}

func TestController_Submit_StoreFailureAtCommit(t *testing.T) {
	c, entityStore, _ := newTestController()
	entityStore.SaveErr = errors.New("disk full")
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{"sku": "W-1", "price": 10}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}

	if out.Kind != OutcomeReject {
		t.Fatalf("Kind = %s, want reject", out.Kind)
	}
	want := []string{"could not be saved"}
	if got := out.Result.Errors[rules.BaseField]; !reflect.DeepEqual(got, want) {
		t.Errorf("base errors = %v, want %v", got, want)
	}
}

func TestController_Submit_DestroyedVariantsExcludedFromCommit(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{
		"sku": "W-1", "price": 10,
		"variants": []field.FieldSet{
			{"name": "small"},
			{"name": "large", field.DestroyKey: true},
		},
	}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("Kind = %s, want commit (errors: %v)", out.Kind, out.Result.Errors)
	}

	variants, ok := entityStore.Saved[0].Values["variants"].([]any)
	if !ok {
		t.Fatalf("variants = %T, want []any", entityStore.Saved[0].Values["variants"])
	}
	if len(variants) != 1 {
		t.Fatalf("persisted %d variants, want 1", len(variants))
	}
	item, _ := variants[0].(map[string]any)
	if item["name"] != "small" {
		t.Errorf("persisted variant = %v, want name small", item)
	}
}

func TestController_Submit_UpdateFlowKeepsEntityID(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := &session.Session{ID: "s-2", Mode: session.ModeUpdate, EntityID: "existing-id", Step: 1}
	sess.SetDraft(field.FieldSet{"kind": "standard", "name": "widget", "sku": "W-1", "price": 5})

	mustAdvance(t, c, sess, field.FieldSet{"kind": "premium"})

	out, err := c.Submit(sess, field.FieldSet{"price": 20}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("Kind = %s, want commit (errors: %v)", out.Kind, out.Result.Errors)
	}
	if out.EntityID != "existing-id" {
		t.Errorf("EntityID = %q, want existing-id", out.EntityID)
	}

	rec := entityStore.Saved[0]
	if rec.ID != "existing-id" {
		t.Errorf("record ID = %q, want existing-id", rec.ID)
	}
	if rec.Values["kind"] != "premium" {
		t.Errorf("record kind = %v, want premium (update not applied)", rec.Values["kind"])
	}
	if rec.Values["price"] != 20 {
		t.Errorf("record price = %v, want 20", rec.Values["price"])
	}
}

func TestController_Submit_StepMismatch(t *testing.T) {
	c, _, _ := newTestController()
	sess := createSession()

	_, err := c.Submit(sess, field.FieldSet{"kind": "standard"}, 2)
	if !errors.Is(err, ErrStepMismatch) {
		t.Errorf("err = %v, want ErrStepMismatch", err)
	}
}

func TestController_Submit_CommittedSession(t *testing.T) {
	c, _, _ := newTestController()
	sess := createSession()
	sess.Committed = true

	_, err := c.Submit(sess, field.FieldSet{}, 1)
	if !errors.Is(err, ErrCommitted) {
		t.Errorf("err = %v, want ErrCommitted", err)
	}
}

func TestController_Submit_UndeclaredVariantKeysDropped(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget"})

	out, err := c.Submit(sess, field.FieldSet{
		"sku": "W-1", "price": 10,
		"variants": []field.FieldSet{
			{"name": "small", "color": "red"},
		},
	}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("Kind = %s, want commit (errors: %v)", out.Kind, out.Result.Errors)
	}

	variants, ok := entityStore.Saved[0].Values["variants"].([]any)
	if !ok || len(variants) != 1 {
		t.Fatalf("variants = %#v, want one item", entityStore.Saved[0].Values["variants"])
	}
	item, _ := variants[0].(map[string]any)
	if got, ok := item["color"]; ok {
		t.Errorf("undeclared nested item key persisted: color = %v", got)
	}
	if item["name"] != "small" {
		t.Errorf("persisted variant name = %v, want small", item["name"])
	}
}

func TestController_Submit_UnpermittedFieldsDropped(t *testing.T) {
	c, entityStore, _ := newTestController()
	sess := createSession()

	mustAdvance(t, c, sess, field.FieldSet{"kind": "standard", "name": "widget", "admin": true})

	out, err := c.Submit(sess, field.FieldSet{"sku": "W-1", "price": 10}, 2)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	if out.Kind != OutcomeCommit {
		t.Fatalf("Kind = %s, want commit", out.Kind)
	}
	if _, ok := entityStore.Saved[0].Values["admin"]; ok {
		t.Error("unpermitted field reached the persisted record")
	}
}

func mustAdvance(t *testing.T, c *Controller, sess *session.Session, fs field.FieldSet) {
	t.Helper()

	out, err := c.Submit(sess, fs, sess.Step)
	if err != nil {
		t.Fatalf("Submit err = %v", err)
	}
	if out.Kind != OutcomeAdvance {
		t.Fatalf("Kind = %s, want advance (errors: %v)", out.Kind, out.Result.Errors)
	}
}
