package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/group"
)

// create runs the interactive creation flow: secret? -> subject ->
// duration -> capacity. Inputs are collected into CreateParams and the
// engine is invoked once at the end, so an abandoned or timed-out flow
// leaves no group and no channels behind.
func (r *Router) create(ctx context.Context, msg Message) {
	if _, ok := r.service.CurrentGroup(msg.UserID); ok {
		r.reply(ctx, msg.ChannelID, "⚠️ You are already in a study group. Use **-leave** to exit your current group before creating a new one.")
		return
	}

	visibility := group.VisibilityPublic
	answer, err := r.collector.PromptAndAwait(ctx, msg.UserID, msg.ChannelID,
		"🔒 Do you want to create a secret group? (yes/no)", secretPromptTimeout)
	// No answer within the window defaults to a public group
	if err == nil && strings.EqualFold(strings.TrimSpace(answer), "yes") {
		visibility = group.VisibilitySecret
	}

	subject, ok := r.ask(ctx, msg, "✏️ Please enter the **subject** for the study group:")
	if !ok {
		return
	}

	duration, ok := r.askNumber(ctx, msg,
		"⏳ For how many minutes should this group exist? (Enter a number)",
		"⚠️ Duration must be greater than 0.")
	if !ok {
		return
	}

	capacity, ok := r.askNumber(ctx, msg,
		"👥 How many people (including you) should be allowed in this group?",
		"⚠️ Enter a valid number greater than 0.")
	if !ok {
		return
	}

	g, err := r.service.CreateGroup(ctx, group.CreateParams{
		OwnerID:    msg.UserID,
		OwnerName:  msg.UserName,
		Subject:    subject,
		Capacity:   capacity,
		TTLMinutes: duration,
		Visibility: visibility,
	})
	if err != nil {
		if errors.Is(err, group.ErrAlreadyInGroup) {
			r.reply(ctx, msg.ChannelID, "⚠️ You are already in a study group. Use **-leave** to exit your current group before creating a new one.")
			return
		}
		r.reply(ctx, msg.ChannelID, "⚠️ Something went wrong. Could not create the group.")
		return
	}

	confirmation := fmt.Sprintf("✅ Study group created with ID **%d**!", g.ID)
	if g.Resources.Discussion != "" {
		confirmation += fmt.Sprintf("\nText Channel: <#%s>\nVoice Channel: <#%s>", g.Resources.Discussion, g.Resources.Live)
	}
	r.reply(ctx, msg.ChannelID, confirmation)

	if g.IsSecret() {
		dm := fmt.Sprintf("✅ Secret study group created with ID **%d**! Use **-invite** to bring in members.", g.ID)
		if err := r.dispatcher.Announce(ctx, dispatch.Direct(msg.UserID), dm); err != nil {
			r.log.Warn("secret creation DM failed", zap.String("user_id", msg.UserID), zap.Error(err))
		}
		return
	}
	r.announcePublic(ctx, fmt.Sprintf("✅ **Group Created:** ID **%d** - **%s**. Expires at %s.",
		g.ID, g.Subject, formatClock(g.ExpiresAt)))
}

// extend runs the interactive extension flow
func (r *Router) extend(ctx context.Context, msg Message) {
	if _, ok := r.service.CurrentGroup(msg.UserID); !ok {
		r.reply(ctx, msg.ChannelID, "⚠️ You are not in any study group.")
		return
	}

	minutes, ok := r.askNumber(ctx, msg,
		"⏳ How many minutes do you want to extend the group?",
		"⚠️ Extension must be at least 1 minute.")
	if !ok {
		return
	}

	g, err := r.service.ExtendGroup(ctx, msg.UserID, minutes)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ You are not in any study group.")
		return
	}

	r.reply(ctx, msg.ChannelID, fmt.Sprintf("✅ Group %d extended. New expiration time: %s.", g.ID, formatClock(g.ExpiresAt)))
	if !g.IsSecret() {
		r.announcePublic(ctx, fmt.Sprintf("⏳ **Group Extended:** Group %d - %s now expires at %s.",
			g.ID, g.Subject, formatClock(g.ExpiresAt)))
	}
}

// ask collects one free-text answer, handling the timeout message
func (r *Router) ask(ctx context.Context, msg Message, prompt string) (string, bool) {
	answer, err := r.collector.PromptAndAwait(ctx, msg.UserID, msg.ChannelID, prompt, promptTimeout)
	if err != nil {
		if errors.Is(err, group.ErrPromptTimeout) {
			r.reply(ctx, msg.ChannelID, "⏰ You took too long to respond. Please try again.")
		}
		return "", false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		r.reply(ctx, msg.ChannelID, "⚠️ That can't be empty. Try again.")
		return "", false
	}
	return answer, true
}

// askNumber collects one positive integer answer
func (r *Router) askNumber(ctx context.Context, msg Message, prompt, rangeMsg string) (int, bool) {
	answer, ok := r.ask(ctx, msg, prompt)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		r.reply(ctx, msg.ChannelID, "⚠️ That doesn't look like a number. Try again.")
		return 0, false
	}
	if n < 1 {
		r.reply(ctx, msg.ChannelID, rangeMsg)
		return 0, false
	}
	return n, true
}
