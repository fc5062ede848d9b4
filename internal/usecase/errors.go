package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// asKind wraps err with kind unless it already carries it.
func asKind(kind, err error, format string, args ...any) error {
	if errors.Is(err, kind) {
		return fmt.Errorf(format+": %w", append(args, err)...)
	}
	return fmt.Errorf("%w: "+format+": %w", append(append([]any{kind}, args...), err)...)
}

// withTimeout bounds ctx by d; a non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
