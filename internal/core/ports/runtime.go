package ports

import (
	"context"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// IDGenerator hands out cluster-unique, roughly time-ordered ids per scope.
type IDGenerator interface {
	NextID(ctx context.Context, scope string) (int64, error)
}

// TaskRunner runs background work on a bounded set of workers.
// Submit reports false when the task was rejected (pool full or closed).
type TaskRunner interface {
	Submit(name string, task func(ctx context.Context)) bool
}
