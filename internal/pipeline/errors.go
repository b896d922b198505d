package pipeline

import "fmt"

// SynthesisError reports that no executable query could be produced. The
// interpretation parsed so far, if any, is carried along so callers can
// keep it in the response.
type SynthesisError struct {
	Interpretation string
	Err            error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("query synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ExecutionError reports that the engine rejected the synthesized query.
// Query holds exactly the text that was attempted.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// SummarizationError reports that the second generation call failed. It is
// non-fatal: the result rows are still returned.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }
