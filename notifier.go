package account

import (
	"context"
	"sync"
	"time"
)

// DefaultNotificationTimeout bounds a single background send
const DefaultNotificationTimeout = 30 * time.Second

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, to, activationKey, account string) error

func (f NotifierFunc) SendActivationEmail(ctx context.Context, to, activationKey, account string) error {
	return f(ctx, to, activationKey, account)
}

// AsyncNotifier sends in the background. SendActivationEmail returns
// immediately and never reports delivery errors; failures are logged and
// recorded as ActivityEventNotificationError.
type AsyncNotifier struct {
	next         Notifier
	timeout      time.Duration
	logger       Logger
	activitySink ActivitySink
	wg           sync.WaitGroup
}

var _ Notifier = (*AsyncNotifier)(nil)

// AsyncNotifierOption customizes the AsyncNotifier
type AsyncNotifierOption func(*AsyncNotifier)

func WithNotificationTimeout(d time.Duration) AsyncNotifierOption {
	return func(n *AsyncNotifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func WithNotifierLogger(logger Logger) AsyncNotifierOption {
	return func(n *AsyncNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithNotifierActivitySink(sink ActivitySink) AsyncNotifierOption {
	return func(n *AsyncNotifier) {
		n.activitySink = normalizeActivitySink(sink)
	}
}

func NewAsyncNotifier(next Notifier, opts ...AsyncNotifierOption) *AsyncNotifier {
	n := &AsyncNotifier{
		next:         next,
		timeout:      DefaultNotificationTimeout,
		logger:       NopLogger(),
		activitySink: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// SendActivationEmail schedules the send. The request context is not used
// for the send so a finished request does not cancel delivery.
func (n *AsyncNotifier) SendActivationEmail(_ context.Context, to, activationKey, account string) error {
	if n.next == nil {
		return nil
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.next.SendActivationEmail(ctx, to, activationKey, account); err != nil {
			n.logger.Error("activation email to account=%s failed: %v", account, err)
			emitActivity(ctx, n.activitySink, n.logger, ActivityEvent{
				EventType: ActivityEventNotificationError,
				Account:   account,
				Metadata: map[string]any{
					"error": err.Error(),
				},
			})
			return
		}

		n.logger.Debug("activation email sent account=%s", account)
	}()

	return nil
}

// Wait blocks until every scheduled send finished
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}
