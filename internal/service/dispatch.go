package service

import (
	"context"

	"github.com/ondegooltd/sirahats-sub001/internal/notify"
)

// Dispatcher sends a notification off the request path. Implementations must not
// block on delivery or surface its failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Notification)
}
