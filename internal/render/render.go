// Package render formats pipeline outcomes for the terminal.
//
// Output is styled with lipgloss: green for advances and commits, red for
// rejections, faint for metadata. Plain mode strips all styling for tests
// and non-TTY output.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"formflow/internal/pipeline"
	"formflow/internal/rules"
	"formflow/internal/session"
	"formflow/internal/store"
)

// Renderer formats outcomes, sessions, and records as terminal text.
// Create with [New].
type Renderer struct {
	success lipgloss.Style
	failure lipgloss.Style
	field   lipgloss.Style
	meta    lipgloss.Style
}

// New creates a [Renderer]. With plain set, no colors or emphasis are
// applied; the text content is identical either way.
func New(plain bool) *Renderer {
	r := &Renderer{
		success: lipgloss.NewStyle(),
		failure: lipgloss.NewStyle(),
		field:   lipgloss.NewStyle(),
		meta:    lipgloss.NewStyle(),
	}
	if !plain {
		r.success = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
		r.failure = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		r.field = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		r.meta = lipgloss.NewStyle().Faint(true)
	}
	return r
}

// Outcome renders a submission outcome.
func (r *Renderer) Outcome(out *pipeline.Outcome) string {
	switch out.Kind {
	case pipeline.OutcomeAdvance:
		return r.success.Render(fmt.Sprintf("✓ advanced to step %d (%s)", out.NextStep, out.StepName))
	case pipeline.OutcomeCommit:
		return r.success.Render("✓ committed") + " " + r.meta.Render("entity "+out.EntityID)
	case pipeline.OutcomeReject:
		return r.Reject(&out.Result)
	default:
		return string(out.Kind)
	}
}

// Reject renders the field-to-errors mapping of a rejected submission,
// one line per field in sorted order.
func (r *Renderer) Reject(res *rules.Result) string {
	var b strings.Builder
	b.WriteString(r.failure.Render("✗ rejected"))
	for _, name := range res.Fields() {
		for _, msg := range res.Errors[name] {
			b.WriteString("\n  ")
			b.WriteString(r.field.Render(name))
			b.WriteString(": ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

// Session renders one session's progress line.
func (r *Renderer) Session(sess *session.Session, terminal int, stepName string) string {
	if sess.Committed {
		return fmt.Sprintf("session %s  %s  %s",
			sess.ID,
			r.meta.Render(string(sess.Mode)),
			r.success.Render("committed → entity "+sess.EntityID))
	}
	return fmt.Sprintf("session %s  %s  step %d/%d (%s)",
		sess.ID,
		r.meta.Render(string(sess.Mode)),
		sess.Step, terminal, stepName)
}

// Record renders one persisted record with its field values, nested
// association items indented underneath their field.
func (r *Renderer) Record(rec *store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", rec.Entity, r.meta.Render(rec.ID))
	for _, name := range sortedKeys(rec.Values) {
		v := rec.Values[name]
		if items, ok := v.([]any); ok {
			fmt.Fprintf(&b, "\n  %s:", r.field.Render(name))
			for _, item := range items {
				if m, ok := item.(map[string]any); ok {
					fmt.Fprintf(&b, "\n    - %s", inlineValues(m))
				}
			}
			continue
		}
		fmt.Fprintf(&b, "\n  %s: %v", r.field.Render(name), v)
	}
	return b.String()
}

func inlineValues(m map[string]any) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
