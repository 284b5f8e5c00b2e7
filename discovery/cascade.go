package discovery

import "context"

// stage is one extraction strategy. It reports false when it located
// nothing, letting the next stage run.
type stage[T any] func(ctx context.Context) (T, bool)

// cascade runs stages in order and returns the first located result.
func cascade[T any](ctx context.Context, stages ...stage[T]) (T, bool) {
	for _, s := range stages {
		if ctx.Err() != nil {
			break
		}
		if v, ok := s(ctx); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
