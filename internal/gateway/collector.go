package gateway

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/group"
)

// Collector implements the input-collection contract: a flow posts a
// prompt and suspends until the same user sends their next message in
// the same channel, or the timeout passes. While a flow is suspended no
// partial state exists anywhere but in the flow's own stack.
type Collector struct {
	dispatcher dispatch.Dispatcher
	log        *zap.Logger

	mu      sync.Mutex
	waiting map[waitKey]chan string
}

type waitKey struct {
	userID    string
	channelID string
}

// NewCollector creates a new prompt collector
func NewCollector(dispatcher dispatch.Dispatcher, log *zap.Logger) *Collector {
	return &Collector{
		dispatcher: dispatcher,
		log:        log,
		waiting:    make(map[waitKey]chan string),
	}
}

// PromptAndAwait sends the prompt into the channel and blocks until the
// user answers, the timeout passes (group.ErrPromptTimeout), or the
// context is cancelled. A newer prompt for the same user and channel
// displaces the old one, which then times out on its own.
func (c *Collector) PromptAndAwait(ctx context.Context, userID, channelID, prompt string, timeout time.Duration) (string, error) {
	key := waitKey{userID: userID, channelID: channelID}
	ch := make(chan string, 1)

	c.mu.Lock()
	c.waiting[key] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiting[key] == ch {
			delete(c.waiting, key)
		}
		c.mu.Unlock()
	}()

	if err := c.dispatcher.Announce(ctx, dispatch.Channel(channelID), prompt); err != nil {
		c.log.Warn("prompt delivery failed", zap.String("channel_id", channelID), zap.Error(err))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case answer := <-ch:
		return answer, nil
	case <-timer.C:
		return "", group.ErrPromptTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Offer hands an incoming message to a suspended flow if one is waiting
// for this user and channel. It reports whether the message was
// consumed; consumed messages are not treated as commands.
func (c *Collector) Offer(userID, channelID, content string) bool {
	key := waitKey{userID: userID, channelID: channelID}

	c.mu.Lock()
	ch, ok := c.waiting[key]
	if ok {
		delete(c.waiting, key)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	ch <- content
	return true
}
