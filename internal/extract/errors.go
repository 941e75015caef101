package extract

import "fmt"

// CallError is a failed language-model call. Extractors recover from it.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("extract: %s call failed: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// MalformedResponseError is a model answer that could not be parsed into
// the expected structure.
type MalformedResponseError struct {
	Op  string
	Raw string
}

func (e *MalformedResponseError) Error() string {
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("extract: malformed %s response: %q", e.Op, raw)
}
