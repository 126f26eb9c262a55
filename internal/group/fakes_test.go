package group

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scholarsync/bot/internal/dispatch"
)

// fakeClock is a hand-advanced clock for expiry tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type announcement struct {
	Audience dispatch.Audience
	Text     string
}

type accessChange struct {
	Handle  string
	UserID  string
	Allowed bool
}

// fakeDispatcher records every side effect the core requests
type fakeDispatcher struct {
	mu            sync.Mutex
	failCreate    bool
	failAnnounce  bool
	nextHandle    int
	announcements []announcement
	destroyed     [][2]string
	access        []accessChange
}

func (d *fakeDispatcher) CreateResources(ctx context.Context, label string, secret bool) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failCreate {
		return "", "", errors.New("platform unavailable")
	}
	d.nextHandle++
	return fmt.Sprintf("text-%d", d.nextHandle), fmt.Sprintf("voice-%d", d.nextHandle), nil
}

func (d *fakeDispatcher) DestroyResources(ctx context.Context, discussion, live string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = append(d.destroyed, [2]string{discussion, live})
	return nil
}

func (d *fakeDispatcher) Announce(ctx context.Context, aud dispatch.Audience, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAnnounce {
		return errors.New("delivery failed")
	}
	d.announcements = append(d.announcements, announcement{Audience: aud, Text: text})
	return nil
}

func (d *fakeDispatcher) SetMemberAccess(ctx context.Context, handle, userID string, allowed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.access = append(d.access, accessChange{Handle: handle, UserID: userID, Allowed: allowed})
	return nil
}

func (d *fakeDispatcher) textsFor(kind dispatch.AudienceKind) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, a := range d.announcements {
		if a.Audience.Kind == kind {
			out = append(out, a.Text)
		}
	}
	return out
}
