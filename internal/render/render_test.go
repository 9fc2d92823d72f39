package render

import (
	"strings"
	"testing"

	"formflow/internal/pipeline"
	"formflow/internal/rules"
	"formflow/internal/session"
	"formflow/internal/store"
)

func TestRenderer_Outcome_Advance(t *testing.T) {
	r := New(true)

	got := r.Outcome(&pipeline.Outcome{
		Kind:     pipeline.OutcomeAdvance,
		NextStep: 2,
		StepName: "pricing",
	})

	want := "✓ advanced to step 2 (pricing)"
	if got != want {
		t.Errorf("Outcome = %q, want %q", got, want)
	}
}

func TestRenderer_Outcome_Commit(t *testing.T) {
	r := New(true)

	got := r.Outcome(&pipeline.Outcome{
		Kind:     pipeline.OutcomeCommit,
		EntityID: "abc-123",
	})

	if !strings.Contains(got, "✓ committed") || !strings.Contains(got, "abc-123") {
		t.Errorf("Outcome = %q, want committed banner with entity id", got)
	}
}

func TestRenderer_Outcome_Reject(t *testing.T) {
	r := New(true)

	var res rules.Result
	res.Add("price", "must be greater than or equal to 0")
	res.Add("kind", "can't be blank")

	got := r.Outcome(&pipeline.Outcome{Kind: pipeline.OutcomeReject, Result: res})

	lines := strings.Split(got, "\n")
	if lines[0] != "✗ rejected" {
		t.Errorf("first line = %q, want ✗ rejected", lines[0])
	}
	// Fields print in sorted order.
	if !strings.Contains(lines[1], "kind: can't be blank") {
		t.Errorf("line 2 = %q, want kind error", lines[1])
	}
	if !strings.Contains(lines[2], "price: must be greater than or equal to 0") {
		t.Errorf("line 3 = %q, want price error", lines[2])
	}
}

func TestRenderer_Session(t *testing.T) {
	r := New(true)

	sess := &session.Session{ID: "s-1", Mode: session.ModeCreate, Step: 2}
	got := r.Session(sess, 2, "pricing")
	if !strings.Contains(got, "s-1") || !strings.Contains(got, "step 2/2 (pricing)") {
		t.Errorf("Session = %q, want progress line", got)
	}

	sess.Committed = true
	sess.EntityID = "e-9"
	got = r.Session(sess, 2, "pricing")
	if !strings.Contains(got, "committed") || !strings.Contains(got, "e-9") {
		t.Errorf("Session = %q, want committed line", got)
	}
}

func TestRenderer_Record(t *testing.T) {
	r := New(true)

	rec := &store.Record{
		ID:     "e-1",
		Entity: "product",
		Values: map[string]any{
			"kind":  "standard",
			"price": 10,
			"variants": []any{
				map[string]any{"name": "small", "stock": 3},
			},
		},
	}

	got := r.Record(rec)

	for _, want := range []string{"product", "e-1", "kind: standard", "price: 10", "- name: small, stock: 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("Record output missing %q:\n%s", want, got)
		}
	}
}
