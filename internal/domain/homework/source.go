// internal/domain/homework/source.go
package homework

import "context"

// Source fetches the raw homework statuses changed since fromDate (Unix seconds).
type Source interface {
	FetchStatuses(ctx context.Context, fromDate int64) ([]byte, error)
}
