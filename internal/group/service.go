package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
)

// Service is the lifecycle engine. It mutates the registry and drives
// channel side effects through the dispatcher. Dispatcher failures are
// logged and otherwise ignored; registry state is never rolled back
// because a message or channel call failed.
type Service struct {
	registry   *Registry
	dispatcher dispatch.Dispatcher
	log        *zap.Logger
}

// NewService creates a new lifecycle service
func NewService(registry *Registry, dispatcher dispatch.Dispatcher, log *zap.Logger) *Service {
	return &Service{registry: registry, dispatcher: dispatcher, log: log}
}

// CreateParams carries the fully collected inputs for a new group. The
// create flow collects these over several prompts and only calls
// CreateGroup once everything validated, so no partial group is ever
// visible.
type CreateParams struct {
	OwnerID    string
	OwnerName  string
	Subject    string
	Capacity   int
	TTLMinutes int
	Visibility Visibility
}

// ChannelLabel builds the discussion channel name for a group, e.g.
// "linear algebra" for 30 minutes becomes "linear-algebra-30min".
func ChannelLabel(subject string, ttlMinutes int) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(subject), " ", "-"))
	return fmt.Sprintf("%s-%dmin", slug, ttlMinutes)
}

// CreateGroup allocates a group with the owner as sole member and
// provisions its channels. The owner must not already be in a group.
func (s *Service) CreateGroup(ctx context.Context, p CreateParams) (Group, error) {
	if _, ok := s.registry.GroupFor(p.OwnerID); ok {
		return Group{}, ErrAlreadyInGroup
	}

	g, err := s.registry.Allocate(p.Subject, p.Capacity, p.OwnerID, p.OwnerName, p.TTLMinutes, p.Visibility)
	if err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return Group{}, ErrAlreadyInGroup
		}
		return Group{}, err
	}

	discussion, live, err := s.dispatcher.CreateResources(ctx, ChannelLabel(p.Subject, p.TTLMinutes), g.IsSecret())
	if err != nil {
		s.log.Warn("channel provisioning failed",
			zap.Int64("group_id", g.ID),
			zap.Error(err))
	}
	res := Resources{Discussion: discussion, Live: live}
	if res != (Resources{}) {
		s.registry.SetResources(g.ID, res)
		g.Resources = res
		s.grantAccess(ctx, res, p.OwnerID)
	}

	s.log.Info("group created",
		zap.Int64("group_id", g.ID),
		zap.String("subject", g.Subject),
		zap.Int("capacity", g.Capacity),
		zap.String("visibility", string(g.Visibility)))
	return g, nil
}

// JoinGroup adds the user to an existing group and grants channel access
func (s *Service) JoinGroup(ctx context.Context, userID string, groupID int64) (Group, error) {
	g, err := s.registry.AddMember(groupID, userID)
	if err != nil {
		return Group{}, err
	}
	s.grantAccess(ctx, g.Resources, userID)

	s.log.Info("member joined",
		zap.Int64("group_id", g.ID),
		zap.String("user_id", userID),
		zap.Int("members", len(g.Members)))
	return g, nil
}

// LeaveGroup removes the user from their current group and revokes
// channel access. An emptied group is deliberately left standing until
// it expires, so it can be rejoined.
func (s *Service) LeaveGroup(ctx context.Context, userID string) (Group, error) {
	g, err := s.registry.RemoveUser(userID)
	if err != nil {
		return Group{}, err
	}
	s.revokeAccess(ctx, g.Resources, userID)

	s.log.Info("member left",
		zap.Int64("group_id", g.ID),
		zap.String("user_id", userID),
		zap.Int("members", len(g.Members)))
	return g, nil
}

// InviteResult reports what an invite call accomplished
type InviteResult struct {
	Group   Group
	Added   []string
	Skipped []string
	Full    bool
}

// InviteMembers adds each eligible target to the requester's group.
// Targets already in some group are skipped, not failed; a full group
// stops further additions. The call fails with ErrGroupFull only when
// nothing could be added at all.
func (s *Service) InviteMembers(ctx context.Context, requesterID string, groupID int64, targets []string) (InviteResult, error) {
	current, ok := s.registry.GroupFor(requesterID)
	if !ok || current.ID != groupID {
		return InviteResult{}, ErrNotInGroup
	}

	result := InviteResult{Group: current}
	for _, target := range targets {
		g, err := s.registry.AddMember(groupID, target)
		switch {
		case err == nil:
			result.Group = g
			result.Added = append(result.Added, target)
			s.grantAccess(ctx, g.Resources, target)
		case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrAlreadyInGroup):
			result.Skipped = append(result.Skipped, target)
		case errors.Is(err, ErrGroupFull):
			result.Full = true
			if len(result.Added) == 0 {
				return result, ErrGroupFull
			}
			return result, nil
		case errors.Is(err, ErrNotFound):
			// Group dissolved between the membership check and now
			return result, ErrNotFound
		}
	}
	return result, nil
}

// ExtendGroup pushes the caller's group expiry forward and re-arms its
// staged alerts.
func (s *Service) ExtendGroup(ctx context.Context, userID string, minutes int) (Group, error) {
	g, err := s.registry.Extend(userID, minutes)
	if err != nil {
		return Group{}, err
	}

	s.log.Info("group extended",
		zap.Int64("group_id", g.ID),
		zap.Int("minutes", minutes),
		zap.Time("expires_at", g.ExpiresAt))
	return g, nil
}

// CurrentGroup returns the group the user belongs to, if any
func (s *Service) CurrentGroup(userID string) (Group, bool) {
	return s.registry.GroupFor(userID)
}

// List returns every group, ordered by ID ascending
func (s *Service) List() []Group {
	return s.registry.ListAll()
}

// Members returns the group with the given ID for member display
func (s *Service) Members(groupID int64) (Group, error) {
	g, ok := s.registry.Get(groupID)
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

// SecretGroups returns every secret group, for the privileged overview
func (s *Service) SecretGroups() []Group {
	var out []Group
	for _, g := range s.registry.ListAll() {
		if g.IsSecret() {
			out = append(out, g)
		}
	}
	return out
}

func (s *Service) grantAccess(ctx context.Context, res Resources, userID string) {
	s.setAccess(ctx, res, userID, true)
}

func (s *Service) revokeAccess(ctx context.Context, res Resources, userID string) {
	s.setAccess(ctx, res, userID, false)
}

func (s *Service) setAccess(ctx context.Context, res Resources, userID string, allowed bool) {
	for _, handle := range []string{res.Discussion, res.Live} {
		if handle == "" {
			continue
		}
		if err := s.dispatcher.SetMemberAccess(ctx, handle, userID, allowed); err != nil {
			s.log.Warn("channel access update failed",
				zap.String("handle", handle),
				zap.String("user_id", userID),
				zap.Bool("allowed", allowed),
				zap.Error(err))
		}
	}
}
