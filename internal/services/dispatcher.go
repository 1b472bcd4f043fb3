package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Template names a transactional message.
type Template string

const (
	TemplateAccountCreated         Template = "account_created"
	TemplateLoginAlert             Template = "login_alert"
	TemplatePasswordResetRequested Template = "password_reset_requested"
	TemplatePasswordResetCompleted Template = "password_reset_completed"
	TemplateOrderConfirmation      Template = "order_confirmation"
)

// Notification is one message to deliver.
type Notification struct {
	Template   Template
	Recipients []string
	Data       map[string]string
}

// Notifier accepts notifications for best-effort delivery. Notify must not block.
type Notifier interface {
	Notify(n Notification)
}

// Sender delivers a notification over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

const defaultSendTimeout = 10 * time.Second

// Dispatcher hands notifications to a fixed pool of workers through a bounded
// queue. Failed or dropped deliveries are logged and never retried.
type Dispatcher struct {
	queue       chan Notification
	senders     []Sender
	log         *zap.Logger
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers draining a queue of queueSize notifications.
func NewDispatcher(log *zap.Logger, queueSize, workers int, senders ...Sender) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		queue:       make(chan Notification, queueSize),
		senders:     senders,
		log:         log,
		sendTimeout: defaultSendTimeout,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Notify enqueues n, dropping it when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Notify(n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("Notification dropped: dispatcher closed", zap.String("template", string(n.Template)))
		return
	}

	select {
	case d.queue <- n:
	default:
		d.log.Warn("Notification dropped: queue full",
			zap.String("template", string(n.Template)),
			zap.Int("queue_size", cap(d.queue)),
		)
	}
}

// Close stops accepting notifications and waits for queued ones to be sent
// or for ctx to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	for _, sender := range d.senders {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := sender.Send(ctx, n)
		cancel()

		if err != nil {
			d.log.Error("Notification delivery failed",
				zap.String("sender", sender.Name()),
				zap.String("template", string(n.Template)),
				zap.Strings("recipients", n.Recipients),
				zap.Error(err),
			)
			continue
		}

		d.log.Debug("Notification delivered",
			zap.String("sender", sender.Name()),
			zap.String("template", string(n.Template)),
		)
	}
}
