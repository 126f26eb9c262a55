package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/scholarsync/bot/internal/group"
)

func formatClock(t time.Time) string {
	return t.UTC().Format("15:04 UTC")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func secretTag(g group.Group) string {
	if g.IsSecret() {
		return " (Secret)"
	}
	return ""
}

func renderList(groups []group.Group) string {
	var sb strings.Builder
	sb.WriteString("📚 **Study Groups Overview**\n")
	for _, g := range groups {
		fmt.Fprintf(&sb, "**Group ID %d: %s%s**\n", g.ID, g.Subject, secretTag(g))
		fmt.Fprintf(&sb, "  Created by: %s\n", g.OwnerName)
		fmt.Fprintf(&sb, "  Created at: %s\n", formatTimestamp(g.CreatedAt))
		fmt.Fprintf(&sb, "  Expires at: %s\n", formatClock(g.ExpiresAt))
		fmt.Fprintf(&sb, "  Members: %d/%d\n", len(g.Members), g.Capacity)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderMembers(g group.Group) string {
	if len(g.Members) == 0 {
		return fmt.Sprintf("**Members in Group %d (%s):**\nNo members found.", g.ID, g.Subject)
	}
	mentions := make([]string, len(g.Members))
	for i, m := range g.Members {
		mentions[i] = "<@" + m + ">"
	}
	return fmt.Sprintf("**Members in Group %d (%s):**\n%s", g.ID, g.Subject, strings.Join(mentions, ", "))
}

func renderShare(g group.Group) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📢 **Study Group %d: %s%s**\n", g.ID, g.Subject, secretTag(g))
	fmt.Fprintf(&sb, "👤 Created By: %s\n", g.OwnerName)
	fmt.Fprintf(&sb, "👥 Members: %d/%d\n", len(g.Members), g.Capacity)
	fmt.Fprintf(&sb, "⏳ Expires at: %s\n", formatClock(g.ExpiresAt))
	sb.WriteString("Share this message to invite more members!")
	return sb.String()
}

func renderSecret(groups []group.Group) string {
	if len(groups) == 0 {
		return "No secret groups found."
	}
	lines := make([]string, len(groups))
	for i, g := range groups {
		channel := g.Resources.Discussion
		if channel == "" {
			channel = "N/A"
		}
		lines[i] = fmt.Sprintf("ID %d: %s | Channel: %s | Created by: %s | Expires at: %s",
			g.ID, g.Subject, channel, g.OwnerName, formatTimestamp(g.ExpiresAt))
	}
	return strings.Join(lines, "\n")
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("📚 **ScholarSync Bot Commands**\n")
	sb.WriteString("Use the commands below to manage your study groups and boost your study sessions!\n\n")
	sb.WriteString("**-create** — 🤓 Create a new study group. You'll be asked for **subject, duration (minutes), and max members**, plus whether it should be secret.\n")
	sb.WriteString("**-join <id>** — 👥 Join an existing study group. (One group per user)\n")
	sb.WriteString("**-leave** — 🚪 Leave your current study group.\n")
	sb.WriteString("**-list** — 📋 View all active study groups with details.\n")
	sb.WriteString("**-share <id>** — 📢 Share study group details with others.\n")
	sb.WriteString("**-members <id>** — 👤 View all members in a study group.\n")
	sb.WriteString("**-extend** — ⏳ Extend the expiration time of your study group.\n")
	sb.WriteString("**-invite @user** — ✉️ (In-group) Invite additional members to your group.\n")
	sb.WriteString("\nAttach a PDF to any message and I'll offer to turn it into a summary or flashcards.\n")
	sb.WriteString("Happy Studying! 🚀")
	return sb.String()
}
