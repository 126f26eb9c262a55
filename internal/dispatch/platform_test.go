package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiCall struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// platformServer fakes the chat platform API and records every call
type platformServer struct {
	mu        sync.Mutex
	calls     []apiCall
	nextID    int
	failPaths map[string]int
}

func newPlatformServer() (*platformServer, *httptest.Server) {
	ps := &platformServer{failPaths: make(map[string]int)}
	return ps, httptest.NewServer(ps)
}

func (s *platformServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := apiCall{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if raw, err := io.ReadAll(r.Body); err == nil && len(raw) > 0 {
		json.Unmarshal(raw, &call.Body)
	}
	s.calls = append(s.calls, call)

	if status, ok := s.failPaths[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/channels" {
		s.nextID++
		json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("ch-%d", s.nextID)})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *platformServer) recorded() []apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apiCall(nil), s.calls...)
}

func newTestPlatform(t *testing.T) (*Platform, *platformServer) {
	t.Helper()
	ps, srv := newPlatformServer()
	t.Cleanup(srv.Close)
	return NewPlatform(srv.URL, "token-123", "general", zap.NewNop()), ps
}

func TestCreateResources(t *testing.T) {
	p, ps := newTestPlatform(t)

	discussion, live, err := p.CreateResources(context.Background(), "calculus-30min", true)
	require.NoError(t, err)
	assert.Equal(t, "ch-1", discussion)
	assert.Equal(t, "ch-2", live)

	calls := ps.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "Bot token-123", calls[0].Auth)
	assert.Equal(t, map[string]any{"name": "calculus-30min", "kind": "text", "secret": true}, calls[0].Body)
	assert.Equal(t, map[string]any{"name": "calculus-30min-voice", "kind": "voice", "secret": true}, calls[1].Body)
}

func TestCreateResourcesKeepsDiscussionOnVoiceFailure(t *testing.T) {
	// First create succeeds, the voice follow-up fails
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		if count > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "ch-1"})
	}))
	defer srv.Close()

	p := NewPlatform(srv.URL, "", "general", zap.NewNop())
	discussion, live, err := p.CreateResources(context.Background(), "calculus-30min", false)
	require.Error(t, err)
	assert.Equal(t, "ch-1", discussion, "the surviving handle is reported for later cleanup")
	assert.Empty(t, live)
}

func TestDestroyResourcesAttemptsBoth(t *testing.T) {
	p, ps := newTestPlatform(t)
	ps.failPaths["/channels/ch-1"] = http.StatusInternalServerError

	err := p.DestroyResources(context.Background(), "ch-1", "ch-2")
	require.Error(t, err)

	calls := ps.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/channels/ch-1", calls[0].Path)
	assert.Equal(t, "/channels/ch-2", calls[1].Path)
}

func TestDestroyResourcesSkipsEmptyHandles(t *testing.T) {
	p, ps := newTestPlatform(t)

	require.NoError(t, p.DestroyResources(context.Background(), "", "ch-2"))

	calls := ps.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "/channels/ch-2", calls[0].Path)
}

func TestAnnounceRoutesByAudience(t *testing.T) {
	p, ps := newTestPlatform(t)
	ctx := context.Background()

	require.NoError(t, p.Announce(ctx, Public(), "hello all"))
	require.NoError(t, p.Announce(ctx, Channel("ch-9"), "hello group"))
	require.NoError(t, p.Announce(ctx, Direct("u1"), "hello you"))

	calls := ps.recorded()
	require.Len(t, calls, 3)
	assert.Equal(t, "/channels/general/messages", calls[0].Path)
	assert.Equal(t, map[string]any{"content": "hello all"}, calls[0].Body)
	assert.Equal(t, "/channels/ch-9/messages", calls[1].Path)
	assert.Equal(t, "/users/u1/messages", calls[2].Path)

	err := p.Announce(ctx, Audience{Kind: "CARRIER_PIGEON"}, "hi")
	assert.Error(t, err)
}

func TestSetMemberAccess(t *testing.T) {
	p, ps := newTestPlatform(t)

	require.NoError(t, p.SetMemberAccess(context.Background(), "ch-1", "u1", true))
	require.NoError(t, p.SetMemberAccess(context.Background(), "ch-1", "u1", false))

	calls := ps.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/channels/ch-1/permissions/u1", calls[0].Path)
	assert.Equal(t, map[string]any{"allowed": true}, calls[0].Body)
	assert.Equal(t, map[string]any{"allowed": false}, calls[1].Body)
}

func TestErrorStatusSurfaces(t *testing.T) {
	p, ps := newTestPlatform(t)
	ps.failPaths["/channels/general/messages"] = http.StatusForbidden

	err := p.Announce(context.Background(), Public(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
