package group

import "time"

// Visibility controls which channels receive lifecycle announcements
type Visibility string

const (
	VisibilityPublic Visibility = "PUBLIC"
	VisibilitySecret Visibility = "SECRET"
)

// AlertStage marks which expiry warning has already fired for a group.
// Stages only move forward; an extension resets the stage to AlertNone
// so all warnings re-arm.
type AlertStage int

const (
	AlertNone AlertStage = iota
	AlertTenMin
	AlertFiveMin
	AlertOneMin
)

// String returns a readable name for logging
func (s AlertStage) String() string {
	switch s {
	case AlertTenMin:
		return "TEN_MIN"
	case AlertFiveMin:
		return "FIVE_MIN"
	case AlertOneMin:
		return "ONE_MIN"
	default:
		return "NONE"
	}
}

// Resources holds the opaque platform handles backing a group. The core
// never interprets them; it only hands them back to the dispatcher for
// access changes and teardown.
type Resources struct {
	Discussion string `json:"discussion"`
	Live       string `json:"live"`
}

// Group represents one time-boxed study session
type Group struct {
	ID         int64      `json:"id"`
	Subject    string     `json:"subject"`
	Capacity   int        `json:"capacity"`
	OwnerID    string     `json:"owner_id"`
	OwnerName  string     `json:"owner_name"` // informational only
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Members    []string   `json:"members"` // user IDs, creator first
	AlertStage AlertStage `json:"-"`
	Visibility Visibility `json:"visibility"`
	Resources  Resources  `json:"resources"`
}

// IsSecret reports whether lifecycle announcements stay private
func (g *Group) IsSecret() bool {
	return g.Visibility == VisibilitySecret
}

// HasMember reports whether the user is in this group
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the group is at capacity
func (g *Group) IsFull() bool {
	return len(g.Members) >= g.Capacity
}

// clone returns a snapshot safe to hand outside the registry lock
func (g *Group) clone() Group {
	out := *g
	out.Members = make([]string, len(g.Members))
	copy(out.Members, g.Members)
	return out
}
