// Package notify delivers best-effort chat messages off the request path.
// Enqueueing never blocks: when the queue is full the message is dropped and
// counted.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
)

// Sender delivers one message. telegram.Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type message struct {
	chatID int64
	text   string
}

type Notifier struct {
	sender      Sender
	queue       chan message
	logger      logging.Logger
	metrics     *metrics.Metrics
	sendTimeout time.Duration
	once        sync.Once
	done        chan struct{}
}

func New(sender Sender, size int, l logging.Logger, m *metrics.Metrics) *Notifier {
	if size < 1 {
		size = 1
	}
	return &Notifier{
		sender:      sender,
		queue:       make(chan message, size),
		logger:      l.With("module", "notify"),
		metrics:     m,
		sendTimeout: 10 * time.Second,
		done:        make(chan struct{}),
	}
}

// Notify queues text for chatID and reports whether it was accepted.
func (n *Notifier) Notify(chatID int64, text string) bool {
	select {
	case n.queue <- message{chatID: chatID, text: text}:
		return true
	default:
		n.metrics.Notification("dropped")
		n.logger.Warn(context.Background(), "notification queue full, dropping message", "chat_id", chatID)
		return false
	}
}

// NotifyAll queues the same text for every chat.
func (n *Notifier) NotifyAll(chatIDs []int64, text string) {
	for _, id := range chatIDs {
		n.Notify(id, text)
	}
}

// Run sends queued messages until ctx is cancelled, then tries to flush what
// is left within one send timeout.
func (n *Notifier) Run(ctx context.Context) {
	defer n.once.Do(func() { close(n.done) })

	for {
		select {
		case <-ctx.Done():
			n.drain()
			return
		case m := <-n.queue:
			n.send(context.WithoutCancel(ctx), m)
		}
	}
}

// Done is closed when Run has returned.
func (n *Notifier) Done() <-chan struct{} { return n.done }

func (n *Notifier) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
	defer cancel()
	for {
		select {
		case m := <-n.queue:
			n.send(ctx, m)
		default:
			return
		}
	}
}

func (n *Notifier) send(ctx context.Context, m message) {
	sctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	if err := n.sender.SendMessage(sctx, m.chatID, m.text); err != nil {
		n.metrics.Notification("failed")
		n.logger.Warn(ctx, "notification failed", "chat_id", m.chatID, "error", err)
		return
	}
	n.metrics.Notification("sent")
}
