package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/clock"
	"github.com/scholarsync/bot/internal/command"
	"github.com/scholarsync/bot/internal/group"
)

func newTestHandler() (*Handler, *Collector, *stubDispatcher) {
	dispatcher := &stubDispatcher{}
	registry := group.NewRegistry(clock.New())
	svc := group.NewService(registry, dispatcher, zap.NewNop())
	collector := NewCollector(dispatcher, zap.NewNop())
	router := command.NewRouter(svc, collector, dispatcher, nil, zap.NewNop())
	return NewHandler(router, collector, zap.NewNop()), collector, dispatcher
}

func postEvent(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestReceiveRejectsBadPayloads(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := postEvent(t, h, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postEvent(t, h, `{"content":"-help"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id and channel_id are required")
}

func TestReceiveAcknowledgesCommand(t *testing.T) {
	h, _, dispatcher := newTestHandler()

	rec := postEvent(t, h, `{"user_id":"u1","channel_id":"lobby","content":"-help"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted")

	// Dispatch runs asynchronously; the reply follows shortly
	require.Eventually(t, func() bool {
		return len(dispatcher.messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, dispatcher.messages()[0], "ScholarSync Bot Commands")
}

func TestReceiveFeedsSuspendedPrompt(t *testing.T) {
	h, collector, _ := newTestHandler()

	answers := make(chan string, 1)
	go func() {
		answer, err := collector.PromptAndAwait(context.Background(), "u1", "lobby", "subject?", time.Second)
		if err == nil {
			answers <- answer
		}
	}()

	require.Eventually(t, func() bool {
		rec := postEvent(t, h, `{"user_id":"u1","channel_id":"lobby","content":"Linear Algebra"}`)
		return strings.Contains(rec.Body.String(), "consumed")
	}, time.Second, 5*time.Millisecond)

	select {
	case answer := <-answers:
		assert.Equal(t, "Linear Algebra", answer)
	case <-time.After(time.Second):
		t.Fatal("prompt never received the answer")
	}
}

func TestReceiveAttachmentsBypassPrompts(t *testing.T) {
	h, collector, _ := newTestHandler()

	done := make(chan struct{})
	go func() {
		collector.PromptAndAwait(context.Background(), "u2", "lobby", "subject?", time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool {
		collector.mu.Lock()
		defer collector.mu.Unlock()
		return len(collector.waiting) == 1
	}, time.Second, 5*time.Millisecond)

	// An event carrying attachments is never consumed by a prompt
	rec := postEvent(t, h, `{"user_id":"u2","channel_id":"lobby","content":"","attachments":[{"filename":"notes.pdf","url":"http://files/notes.pdf"}]}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted")

	// The suspended prompt is still waiting for a text answer
	assert.True(t, collector.Offer("u2", "lobby", "Calculus"))
	<-done
}
