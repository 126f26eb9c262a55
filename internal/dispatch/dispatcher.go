package dispatch

import "context"

// AudienceKind selects where an announcement is delivered.
type AudienceKind string

const (
	AudiencePublicChannel AudienceKind = "PUBLIC_CHANNEL"
	AudienceGroupChannel  AudienceKind = "GROUP_CHANNEL"
	AudienceDirectMessage AudienceKind = "DIRECT_MESSAGE"
)

// Audience identifies the destination of an announcement. Target is a
// channel handle for group channels, a user ID for direct messages, and
// empty for the public channel.
type Audience struct {
	Kind   AudienceKind
	Target string
}

// Public addresses the community-wide announcement channel.
func Public() Audience {
	return Audience{Kind: AudiencePublicChannel}
}

// Channel addresses a specific group channel by its opaque handle.
func Channel(handle string) Audience {
	return Audience{Kind: AudienceGroupChannel, Target: handle}
}

// Direct addresses a single user via direct message.
func Direct(userID string) Audience {
	return Audience{Kind: AudienceDirectMessage, Target: userID}
}

// Dispatcher is the only boundary through which the core performs
// observable side effects: sending messages and managing the channels
// that back a group. All calls are fire-and-forget from the core's
// perspective; lifecycle correctness never depends on their success.
type Dispatcher interface {
	// CreateResources provisions the discussion and live (voice)
	// surfaces for a new group and returns their opaque handles.
	CreateResources(ctx context.Context, label string, secret bool) (discussion, live string, err error)

	// DestroyResources tears down the surfaces created for a group.
	// Unknown or already-deleted handles are not an error worth acting on.
	DestroyResources(ctx context.Context, discussion, live string) error

	// Announce delivers a message to the given audience.
	Announce(ctx context.Context, aud Audience, text string) error

	// SetMemberAccess grants or revokes a user's access to a channel.
	SetMemberAccess(ctx context.Context, handle, userID string, allowed bool) error
}
