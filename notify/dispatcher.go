package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
)

// DefaultSendTimeout bounds a single delivery attempt
const DefaultSendTimeout = 30 * time.Second

// Delivery outcomes passed to the observer
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Dispatcher implements auth.CredentialNotifier. Each notice is rendered
// and sent on its own goroutine, detached from the caller's cancellation.
// Failures are logged and never returned.
type Dispatcher struct {
	sender   Sender
	renderer *Renderer
	logger   *slog.Logger
	timeout  time.Duration
	observer func(kind, outcome string)
	wg       sync.WaitGroup
}

var _ auth.CredentialNotifier = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher delivering through sender
func NewDispatcher(sender Sender, renderer *Renderer) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		renderer: renderer,
		logger:   slog.Default().With("component", "notify"),
		timeout:  DefaultSendTimeout,
	}
}

func (d *Dispatcher) WithLogger(logger *slog.Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// WithObserver registers a callback invoked after every delivery attempt
func (d *Dispatcher) WithObserver(fn func(kind, outcome string)) *Dispatcher {
	d.observer = fn
	return d
}

func (d *Dispatcher) NotifyAccountCreated(ctx context.Context, notice auth.CredentialNotice) {
	d.dispatch(ctx, TemplateWelcome, SubjectWelcome, notice)
}

func (d *Dispatcher) NotifyCredentialsReset(ctx context.Context, notice auth.CredentialNotice) {
	d.dispatch(ctx, TemplateReset, SubjectReset, notice)
}

// Wait blocks until every in flight notice finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, kind, subject string, notice auth.CredentialNotice) {
	if notice.Email == "" {
		d.logger.Warn("notification skipped, no recipient", "kind", kind, "username", notice.Username)
		return
	}

	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.deliver(ctx, kind, subject, notice); err != nil {
			d.logger.Error("notification failed", "kind", kind, "to", notice.Email, "error", err)
			d.observe(kind, OutcomeFailed)
			return
		}

		d.logger.Info("notification sent", "kind", kind, "to", notice.Email)
		d.observe(kind, OutcomeSent)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, kind, subject string, notice auth.CredentialNotice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("NOTIFY_PANIC").With("kind", kind).Errorf("notification panicked: %v", r)
		}
	}()

	body, err := d.renderer.Render(kind, notice)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, notice.Email, subject, body)
}

func (d *Dispatcher) observe(kind, outcome string) {
	if d.observer != nil {
		d.observer(kind, outcome)
	}
}
