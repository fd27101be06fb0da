// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Error kinds of a poll iteration. Callers wrap them with fmt.Errorf("%w") and
// match with errors.Is.
var ErrRequest = fmt.Errorf("homework API request failed")
var ErrHTTP = fmt.Errorf("page unavailable")
var ErrShape = fmt.Errorf("unexpected response shape")
var ErrMissingField = fmt.Errorf("missing field in response")
var ErrUndocumentedStatus = fmt.Errorf("undocumented homework status")

// KindOf names the error kind for log fields. Errors outside the taxonomy are "unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRequest):
		return "request"
	case errors.Is(err, ErrHTTP):
		return "http"
	case errors.Is(err, ErrShape):
		return "shape"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrUndocumentedStatus):
		return "undocumented_status"
	default:
		return "unknown"
	}
}
