package corepipeline

import "fmt"

// Debug gates whether an InvariantError panics (true, development/test
// builds) or is logged and swallowed so the surrounding task can continue
// (false, production). Mirrors the teacher's config-driven debug/prod
// split; unlike a circuit breaker tripping on an expected failure, an
// InvariantError represents a bug and should be loud wherever it is safe to
// be loud.
var Debug = false

// ParseError indicates an LLM response could not be decoded into the shape
// a pipeline stage required — malformed JSON, or JSON missing a required
// field. It is always non-fatal to the enclosing task: the task logs the
// error and produces no result for that invocation.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corepipeline: %s: parse error: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PolicyError indicates a structurally valid LLM response that violates
// the stage's contract — e.g. a verdict outside {SUPPORTED, REFUTED,
// UNCERTAIN}. Like ParseError, it terminates only the enclosing task.
type PolicyError struct {
	Stage  string
	Detail string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("corepipeline: %s: policy violation: %s", e.Stage, e.Detail)
}

// InvariantError indicates an internal bug: a state transition the core
// should never be able to reach (e.g. switching to a topic id that does
// not exist in the graph). It is never swallowed silently.
//
// When Debug is true, the State Core panics on InvariantError as soon as
// it is detected. When Debug is false, the caller logs it as an "error"
// notification of kind "invariant" and the enclosing task still returns
// without mutating state further.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("corepipeline: invariant violated in %s: %s", e.Op, e.Detail)
}

// raiseInvariant constructs an InvariantError for op/detail and panics
// immediately if Debug is set; otherwise it returns the error for the
// caller to log and propagate as an "invariant" notification.
func raiseInvariant(op, detail string) error {
	err := &InvariantError{Op: op, Detail: detail}
	if Debug {
		panic(err)
	}
	return err
}
