package group

import (
	"sort"
	"sync"
	"time"

	"github.com/scholarsync/bot/internal/clock"
)

// Registry is the single authority for group state. It owns both the
// group table and the user -> group membership index behind one mutex,
// so the uniqueness invariant (a user belongs to at most one group, and
// appears in that group's member list iff it appears in the index) is
// enforced in one place.
//
// Every method that returns a Group returns a snapshot copy; callers
// never see live state.
type Registry struct {
	mu     sync.Mutex
	clock  clock.Clock
	nextID int64
	groups map[int64]*Group
	byUser map[string]int64
}

// NewRegistry creates an empty registry. State is process-memory only
// and intentionally lost on restart.
func NewRegistry(c clock.Clock) *Registry {
	return &Registry{
		clock:  c,
		groups: make(map[int64]*Group),
		byUser: make(map[string]int64),
	}
}

// Allocate creates a new group with a fresh, strictly increasing ID and
// the owner as sole member. It fails with ErrInvalidArgument for a
// non-positive capacity or TTL and with ErrAlreadyMember if the owner is
// already indexed somewhere.
func (r *Registry) Allocate(subject string, capacity int, ownerID, ownerName string, ttlMinutes int, vis Visibility) (Group, error) {
	if capacity < 1 || ttlMinutes < 1 {
		return Group{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[ownerID]; ok {
		return Group{}, ErrAlreadyMember
	}

	r.nextID++
	now := r.clock.Now()
	g := &Group{
		ID:         r.nextID,
		Subject:    subject,
		Capacity:   capacity,
		OwnerID:    ownerID,
		OwnerName:  ownerName,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttlMinutes) * time.Minute),
		Members:    []string{ownerID},
		AlertStage: AlertNone,
		Visibility: vis,
	}
	r.groups[g.ID] = g
	r.byUser[ownerID] = g.ID

	return g.clone(), nil
}

// SetResources records the platform handles created for a group
func (r *Registry) SetResources(id int64, res Resources) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok {
		return false
	}
	g.Resources = res
	return true
}

// Get returns the group with the given ID, if it exists
func (r *Registry) Get(id int64) (Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

// GroupFor returns the group the user currently belongs to, if any
func (r *Registry) GroupFor(userID string) (Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return Group{}, false
	}
	g, ok := r.groups[id]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

// ListAll returns snapshots of every group, ordered by ID ascending
func (r *Registry) ListAll() []Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddMember adds the user to the group's member list and the index in
// one atomic step.
func (r *Registry) AddMember(id int64, userID string) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	if g.HasMember(userID) {
		return Group{}, ErrAlreadyMember
	}
	if _, ok := r.byUser[userID]; ok {
		return Group{}, ErrAlreadyInGroup
	}
	if g.IsFull() {
		return Group{}, ErrGroupFull
	}

	g.Members = append(g.Members, userID)
	r.byUser[userID] = id
	return g.clone(), nil
}

// RemoveUser takes the user out of whichever group they are in. The
// group stays alive even when emptied; only the expiry sweep dissolves
// groups.
func (r *Registry) RemoveUser(userID string) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return Group{}, ErrNotInGroup
	}
	delete(r.byUser, userID)

	g, ok := r.groups[id]
	if !ok {
		// Index entry without a group would be an invariant breach;
		// treat it as not-in-group after clearing the stale entry.
		return Group{}, ErrNotInGroup
	}
	for i, m := range g.Members {
		if m == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			break
		}
	}
	return g.clone(), nil
}

// Extend pushes the group's expiry forward and re-arms all staged
// alerts by resetting the alert stage.
func (r *Registry) Extend(userID string, minutes int) (Group, error) {
	if minutes < 1 {
		return Group{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return Group{}, ErrNotInGroup
	}
	g, ok := r.groups[id]
	if !ok {
		return Group{}, ErrNotInGroup
	}

	g.ExpiresAt = g.ExpiresAt.Add(time.Duration(minutes) * time.Minute)
	g.AlertStage = AlertNone
	return g.clone(), nil
}

// AdvanceAlert moves the group's alert stage forward to the given stage.
// It reports false if the group is gone or the stage would not advance,
// which is what guarantees each stage fires at most once per epoch.
func (r *Registry) AdvanceAlert(id int64, stage AlertStage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok || stage <= g.AlertStage {
		return false
	}
	g.AlertStage = stage
	return true
}

// Remove deletes the group and every member's index entry. Removing an
// unknown ID is a no-op. The removed snapshot is returned so the caller
// can tear down its resources.
func (r *Registry) Remove(id int64) (Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[id]
	if !ok {
		return Group{}, false
	}
	delete(r.groups, id)
	for _, m := range g.Members {
		if r.byUser[m] == id {
			delete(r.byUser, m)
		}
	}
	return g.clone(), true
}
