// Package render turns template definitions and context data into subject
// lines and HTML bodies, with orchestrator-level safety checks for leaked
// template syntax.
package render

import (
	"fmt"
	"strings"
	texttemplate "text/template"

	"github.com/rs/zerolog"
)

// Engine renders a template string against context data. The dispatch
// orchestrator is engine-agnostic; swapping template libraries means
// swapping this implementation.
type Engine interface {
	Render(tpl string, data map[string]any) (string, error)
}

// TextEngine is the default Engine backed by text/template. Missing context
// keys are reported as render errors rather than silently emitted, which
// feeds the unresolved-token safety check.
type TextEngine struct{}

// Render parses and executes the template string against data.
func (TextEngine) Render(tpl string, data map[string]any) (string, error) {
	t, err := texttemplate.New("msg").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("render: parse template: %w", err)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	return buf.String(), nil
}

// Renderer composes an Engine with the email shell. Render errors never
// propagate to callers: the raw template string is returned instead, so the
// orchestrator's unresolved-token check decides the message's fate.
type Renderer struct {
	engine Engine
	shell  Shell
	log    zerolog.Logger
}

// NewRenderer creates a Renderer. A nil engine defaults to TextEngine and a
// nil shell to the standard email shell.
func NewRenderer(engine Engine, shell Shell, log zerolog.Logger) *Renderer {
	if engine == nil {
		engine = TextEngine{}
	}
	if shell == nil {
		shell = NewEmailShell()
	}
	return &Renderer{engine: engine, shell: shell, log: log}
}

// Subject renders a subject line. On engine error the raw template string is
// returned so the caller can detect the leaked syntax instead of sending it.
func (r *Renderer) Subject(tpl string, data map[string]any) string {
	out, err := r.engine.Render(tpl, data)
	if err != nil {
		r.log.Warn().Err(err).Msg("subject render failed, falling back to raw template")
		return tpl
	}
	return out
}

// Body renders the inner HTML fragment and wraps it in the email shell. The
// shell receives the full context so it can show brand fields. On engine
// error the raw fragment is wrapped, again deferring to the token check.
func (r *Renderer) Body(tpl string, data map[string]any) string {
	fragment, err := r.engine.Render(tpl, data)
	if err != nil {
		r.log.Warn().Err(err).Msg("body render failed, falling back to raw template")
		fragment = tpl
	}
	return r.shell.Wrap(fragment, data)
}
