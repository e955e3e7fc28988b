package commands

import (
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/smolassistant/history"
	"github.com/teranos/smolassistant/logger"
)

const deliveryBuffer = 64

// deliveryConsumer moves fired reminders off the scheduler goroutine: each
// one is recorded in the message history and handed to notify in order.
type deliveryConsumer struct {
	history *history.MessageHistory
	notify  func(string)
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	started bool
	closed  bool
	queue   chan string
	done    chan struct{}
}

func newDeliveryConsumer(hist *history.MessageHistory, notify func(string), log *zap.SugaredLogger) *deliveryConsumer {
	if log == nil {
		log = logger.Logger
	}
	return &deliveryConsumer{
		history: hist,
		notify:  notify,
		log:     logger.AddRemindSymbol(log),
		queue:   make(chan string, deliveryBuffer),
		done:    make(chan struct{}),
	}
}

// Start launches the consumer goroutine
func (c *deliveryConsumer) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true

	go func() {
		defer close(c.done)
		for text := range c.queue {
			c.handle(text)
		}
	}()
}

// Deliver queues text. Deliveries after Close are logged and dropped.
func (c *deliveryConsumer) Deliver(text string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.log.Warnw("Reminder delivered after shutdown, dropping", "text", text)
		return
	}
	c.queue <- text
}

// Close stops accepting deliveries and waits for the queue to drain
func (c *deliveryConsumer) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.done
	}
}

func (c *deliveryConsumer) handle(text string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("Reminder delivery panicked", "panic", r)
		}
	}()

	c.history.Add(history.RoleReminder, text)
	c.log.Infow("Reminder delivered", "text", text)
	if c.notify != nil {
		c.notify(text)
	}
}
