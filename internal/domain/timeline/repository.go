package timeline

import "context"

type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByRequest(ctx context.Context, requestID string, limit int) ([]Entry, error)
}
