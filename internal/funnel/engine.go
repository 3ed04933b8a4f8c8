// Package funnel implements the quiz progression state machine: a
// fixed ordered step list, a monotonically advancing cursor, and the
// answer map mutated only by transitions.
package funnel

import (
	"sync"
	"time"
)

// Kind tags the payload variant of a step. Exactly one payload shape
// is populated per kind.
type Kind string

const (
	KindLanding       Kind = "landing"
	KindChoice        Kind = "choice"
	KindInformational Kind = "informational"
	KindTestimonials  Kind = "testimonials"
)

// Option is one selectable answer on a choice step.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Step is one page of the funnel. Name doubles as the answer-map key.
type Step struct {
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	Options       []Option `json:"options,omitempty"`
	TextBlocks    []string `json:"textBlocks,omitempty"`
	ContinueLabel string   `json:"continueLabel,omitempty"`
}

// Phase is the coarse engine state beyond the step cursor.
type Phase string

const (
	// PhaseStep means the cursor points at steps[Cursor].
	PhaseStep Phase = "step"
	// PhaseResult means the simulated profile result is revealed.
	PhaseResult Phase = "result"
	// PhaseSales is terminal; the sales screen's own call-to-action is
	// an out-of-band navigation, not an engine transition.
	PhaseSales Phase = "sales"
)

// Scheduler schedules fn after d and returns a cancel func. The
// default uses time.AfterFunc; tests inject a manual scheduler.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// DefaultSelectDelay is how long a selected option stays highlighted
// before the view advances.
const DefaultSelectDelay = 300 * time.Millisecond

// Engine owns the single source of truth for what the visitor sees
// next. All mutation happens through SelectOption and Advance; reads
// never transition.
type Engine struct {
	mu sync.Mutex

	steps   []Step
	cursor  int
	phase   Phase
	answers map[string]string

	schedule    Scheduler
	selectDelay time.Duration

	// pendingCancel cancels the one in-flight debounced advance, if
	// any. pendingSeq guards against a superseded timer firing late.
	pendingCancel func()
	pendingSeq    uint64
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithScheduler replaces the timer used for the debounced advance.
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) { e.schedule = s }
}

// WithSelectDelay overrides the debounce delay.
func WithSelectDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.selectDelay = d }
}

// NewEngine creates an engine positioned at the first step.
func NewEngine(steps []Step, opts ...EngineOption) *Engine {
	e := &Engine{
		steps:       steps,
		phase:       PhaseStep,
		answers:     make(map[string]string),
		selectDelay: DefaultSelectDelay,
		schedule: func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Steps returns the fixed step list.
func (e *Engine) Steps() []Step { return e.steps }

// Cursor returns the current step index.
func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Answer returns the recorded answer for a step, if any.
func (e *Engine) Answer(stepName string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.answers[stepName]
	return v, ok
}

// Answers returns a copy of the answer map.
func (e *Engine) Answers() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.answers))
	for k, v := range e.answers {
		out[k] = v
	}
	return out
}

// SelectOption records the answer for the current choice step and
// schedules a debounced advance. A second selection before the
// debounce fires overwrites the answer and supersedes the pending
// advance, so at most one transition is ever in flight. Calls naming
// a step other than the current one, or landing on a non-choice step,
// are no-ops: they guard against stale event handlers.
func (e *Engine) SelectOption(stepName, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseStep {
		return
	}
	step := e.steps[e.cursor]
	if step.Kind != KindChoice || step.Name != stepName {
		return
	}

	e.answers[stepName] = value

	if e.pendingCancel != nil {
		e.pendingCancel()
	}
	e.pendingSeq++
	seq := e.pendingSeq
	e.pendingCancel = e.schedule(e.selectDelay, func() {
		e.commitPending(seq)
	})
}

// commitPending performs the debounced advance if it has not been
// superseded or cancelled in the meantime.
func (e *Engine) commitPending(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.pendingSeq {
		return
	}
	e.pendingCancel = nil
	e.advanceLocked()
}

// Advance performs the explicit "continue" transition. It is valid on
// any step; on the last step it reveals the result, one more call
// reveals the sales screen, and the sales screen is terminal. An
// explicit advance supersedes any pending debounced one.
func (e *Engine) Advance() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
	e.advanceLocked()
}

func (e *Engine) advanceLocked() {
	switch e.phase {
	case PhaseStep:
		if e.cursor+1 < len(e.steps) {
			e.cursor++
		} else {
			e.phase = PhaseResult
		}
	case PhaseResult:
		e.phase = PhaseSales
	case PhaseSales:
		// terminal
	}
}

// Stop cancels any pending debounced transition. Callers must invoke
// it when the owning view unmounts so a stale timer cannot advance a
// funnel the visitor already left.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
}

func (e *Engine) cancelPendingLocked() {
	if e.pendingCancel != nil {
		e.pendingCancel()
		e.pendingCancel = nil
	}
	e.pendingSeq++
}
