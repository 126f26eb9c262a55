package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/group"
	"github.com/scholarsync/bot/internal/summarize"
)

// Prefix marks chat messages that carry a command
const Prefix = "-"

// promptTimeout bounds every interactive input prompt
const promptTimeout = 60 * time.Second

// secretPromptTimeout bounds the initial secret-group question, which
// defaults to "no" instead of aborting the flow.
const secretPromptTimeout = 20 * time.Second

// Attachment is a file reference carried on an incoming message
type Attachment struct {
	Filename string
	URL      string
}

// Message is one inbound chat message, already stripped of transport
// details by the gateway.
type Message struct {
	UserID      string
	UserName    string
	ChannelID   string
	Content     string
	Admin       bool
	Attachments []Attachment
}

// Collector collects one free-text answer from a user in a channel. It
// fails with group.ErrPromptTimeout when the deadline passes; an
// abandoned flow leaves no trace in the registry.
type Collector interface {
	PromptAndAwait(ctx context.Context, userID, channelID, prompt string, timeout time.Duration) (string, error)
}

// Summarizer handles document attachments, decoupled from lifecycle
type Summarizer interface {
	HandleAttachments(ctx context.Context, userID, channelID string, attachments []summarize.Attachment)
}

// Router translates chat commands into lifecycle engine calls and
// renders the results. It performs no registry logic itself.
type Router struct {
	service    *group.Service
	collector  Collector
	dispatcher dispatch.Dispatcher
	summarizer Summarizer
	log        *zap.Logger
}

// NewRouter creates a new command router
func NewRouter(service *group.Service, collector Collector, dispatcher dispatch.Dispatcher, summarizer Summarizer, log *zap.Logger) *Router {
	return &Router{
		service:    service,
		collector:  collector,
		dispatcher: dispatcher,
		summarizer: summarizer,
		log:        log,
	}
}

// Dispatch routes one message: attachments go to the summarizer,
// prefixed text goes to the matching command handler, anything else is
// ignored.
func (r *Router) Dispatch(ctx context.Context, msg Message) {
	if len(msg.Attachments) > 0 && r.summarizer != nil {
		attachments := make([]summarize.Attachment, len(msg.Attachments))
		for i, a := range msg.Attachments {
			attachments[i] = summarize.Attachment{Filename: a.Filename, URL: a.URL}
		}
		r.summarizer.HandleAttachments(ctx, msg.UserID, msg.ChannelID, attachments)
		return
	}

	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, Prefix) {
		return
	}
	fields := strings.Fields(content)
	name := strings.TrimPrefix(fields[0], Prefix)
	args := fields[1:]

	switch name {
	case "create":
		r.create(ctx, msg)
	case "join":
		r.join(ctx, msg, args)
	case "leave":
		r.leave(ctx, msg)
	case "list":
		r.list(ctx, msg)
	case "members":
		r.members(ctx, msg, args)
	case "share":
		r.share(ctx, msg, args)
	case "extend":
		r.extend(ctx, msg)
	case "invite":
		r.invite(ctx, msg, args)
	case "secret":
		r.secret(ctx, msg)
	case "help":
		r.reply(ctx, msg.ChannelID, helpText())
	default:
		r.reply(ctx, msg.ChannelID, "ℹ️ Unknown command. Use **-help** to see what I can do.")
	}
}

func (r *Router) join(ctx context.Context, msg Message, args []string) {
	if len(args) == 0 {
		groups := r.service.List()
		if len(groups) == 0 {
			r.reply(ctx, msg.ChannelID, "ℹ️ There are no existing study groups. Use **-create** to start one.")
			return
		}
		r.reply(ctx, msg.ChannelID, "Usage: `-join <group id>`\n"+renderList(groups))
		return
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ That doesn't look like a group ID.")
		return
	}

	g, err := r.service.JoinGroup(ctx, msg.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrNotFound):
			r.reply(ctx, msg.ChannelID, "⚠️ The selected group no longer exists.")
		case errors.Is(err, group.ErrAlreadyMember):
			r.reply(ctx, msg.ChannelID, "ℹ️ You're already in this group.")
		case errors.Is(err, group.ErrAlreadyInGroup):
			r.reply(ctx, msg.ChannelID, "⚠️ You are already in a study group. Use **-leave** to exit your current group before joining another.")
		case errors.Is(err, group.ErrGroupFull):
			r.reply(ctx, msg.ChannelID, "⚠️ Sorry, this group is full.")
		default:
			r.reply(ctx, msg.ChannelID, "⚠️ Something went wrong. Try again.")
		}
		return
	}

	r.reply(ctx, msg.ChannelID, fmt.Sprintf("✅ You joined Group %d: %s.", g.ID, g.Subject))
	if !g.IsSecret() {
		r.announcePublic(ctx, fmt.Sprintf("👤 **%s** joined Group **%d: %s**. Members: %d/%d. Expires at: %s.",
			msg.UserName, g.ID, g.Subject, len(g.Members), g.Capacity, formatClock(g.ExpiresAt)))
	}
}

func (r *Router) leave(ctx context.Context, msg Message) {
	g, err := r.service.LeaveGroup(ctx, msg.UserID)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ You are not in any study group.")
		return
	}

	r.reply(ctx, msg.ChannelID, fmt.Sprintf("🚪 You have left Group %d: %s.", g.ID, g.Subject))
	if !g.IsSecret() {
		r.announcePublic(ctx, fmt.Sprintf("👤 **%s** left Group **%d: %s**. Members: %d/%d. Expires at: %s.",
			msg.UserName, g.ID, g.Subject, len(g.Members), g.Capacity, formatClock(g.ExpiresAt)))
	}
}

func (r *Router) list(ctx context.Context, msg Message) {
	groups := r.service.List()
	if len(groups) == 0 {
		r.reply(ctx, msg.ChannelID, "ℹ️ There are no study groups created yet.")
		return
	}
	r.reply(ctx, msg.ChannelID, renderList(groups))
}

func (r *Router) members(ctx context.Context, msg Message, args []string) {
	if len(args) == 0 {
		r.reply(ctx, msg.ChannelID, "Usage: `-members <group id>`")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ Invalid selection.")
		return
	}

	g, err := r.service.Members(id)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ The selected group no longer exists.")
		return
	}
	r.reply(ctx, msg.ChannelID, renderMembers(g))
}

func (r *Router) share(ctx context.Context, msg Message, args []string) {
	groups := r.service.List()
	if len(groups) == 0 {
		r.reply(ctx, msg.ChannelID, "ℹ️ There are no study groups available to share.")
		return
	}
	if len(args) == 0 {
		r.reply(ctx, msg.ChannelID, "Usage: `-share <group id>`\n"+renderList(groups))
		return
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ Invalid selection.")
		return
	}
	g, err := r.service.Members(id)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ The selected group no longer exists.")
		return
	}
	r.reply(ctx, msg.ChannelID, renderShare(g))
}

func (r *Router) invite(ctx context.Context, msg Message, args []string) {
	current, ok := r.service.CurrentGroup(msg.UserID)
	if !ok {
		r.reply(ctx, msg.ChannelID, "⚠️ You are not in any study group.")
		return
	}
	if len(args) == 0 {
		r.reply(ctx, msg.ChannelID, "Usage: `-invite @user [@user ...]`")
		return
	}

	targets := make([]string, 0, len(args))
	for _, a := range args {
		if t := parseMention(a); t != "" {
			targets = append(targets, t)
		}
	}

	result, err := r.service.InviteMembers(ctx, msg.UserID, current.ID, targets)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrGroupFull):
			r.reply(ctx, msg.ChannelID, "⚠️ Your group is already full.")
		case errors.Is(err, group.ErrNotInGroup):
			r.reply(ctx, msg.ChannelID, "⚠️ You are not in any study group.")
		default:
			r.reply(ctx, msg.ChannelID, "⚠️ Group not found.")
		}
		return
	}

	for _, target := range result.Added {
		dm := fmt.Sprintf("You have been invited to join the study group **'%s'** (ID %d).", result.Group.Subject, result.Group.ID)
		if err := r.dispatcher.Announce(ctx, dispatch.Direct(target), dm); err != nil {
			r.log.Warn("invite DM failed", zap.String("user_id", target), zap.Error(err))
		}
	}

	text := "✅ Invite processing complete."
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf(" %d member(s) were already in a group and were skipped.", len(result.Skipped))
	}
	if result.Full {
		text += " Your group reached capacity before everyone could be added."
	}
	r.reply(ctx, msg.ChannelID, text)
}

func (r *Router) secret(ctx context.Context, msg Message) {
	if !msg.Admin {
		r.reply(ctx, msg.ChannelID, "⚠️ This command requires administrator permissions.")
		return
	}
	r.reply(ctx, msg.ChannelID, renderSecret(r.service.SecretGroups()))
}

func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.dispatcher.Announce(ctx, dispatch.Channel(channelID), text); err != nil {
		r.log.Warn("reply failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (r *Router) announcePublic(ctx context.Context, text string) {
	if err := r.dispatcher.Announce(ctx, dispatch.Public(), text); err != nil {
		r.log.Warn("public announcement failed", zap.Error(err))
	}
}

// parseMention turns "<@123>", "@name" or a raw ID into a user ID
func parseMention(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimSuffix(s, ">")
	s = strings.TrimPrefix(s, "@")
	return s
}
