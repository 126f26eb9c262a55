package group

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID          int64    `json:"id"`
	Subject     string   `json:"subject"`
	Capacity    int      `json:"capacity"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	ExpiresAt   string   `json:"expires_at"`
	MemberCount int      `json:"member_count"`
	Members     []string `json:"members,omitempty"`
}

// ToResponse converts a Group snapshot to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Subject:     g.Subject,
		Capacity:    g.Capacity,
		CreatedBy:   g.OwnerName,
		CreatedAt:   g.CreatedAt.Format("2006-01-02T15:04:05Z"),
		ExpiresAt:   g.ExpiresAt.Format("2006-01-02T15:04:05Z"),
		MemberCount: len(g.Members),
	}
}
