package clinical

import "fmt"

// APIError is the typed failure for any backend call. StatusCode is zero for
// transport-level failures that never produced a response.
type APIError struct {
	Op         string // the failed operation, e.g. "fetch vitals"
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}
