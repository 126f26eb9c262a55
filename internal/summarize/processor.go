package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/group"
)

// maxDocumentBytes caps how much of an attachment is downloaded
const maxDocumentBytes = 16 << 20

// Attachment is a file reference carried on an incoming message
type Attachment struct {
	Filename string
	URL      string
}

// Prompter collects one free-text answer from a user in a channel,
// failing with group.ErrPromptTimeout when the deadline passes.
type Prompter interface {
	PromptAndAwait(ctx context.Context, userID, channelID, prompt string, timeout time.Duration) (string, error)
}

// Processor runs the PDF-to-study-aid flow: fetch the attachment,
// extract its text, ask the user which mode they want, generate, and
// deliver the result by direct message. The flow is fully decoupled
// from group lifecycle.
type Processor struct {
	completer  Completer
	factory    *Factory
	dispatcher dispatch.Dispatcher
	prompter   Prompter
	client     *http.Client
	extract    func([]byte) (string, error)
	log        *zap.Logger
}

// NewProcessor creates a new attachment processor
func NewProcessor(completer Completer, dispatcher dispatch.Dispatcher, prompter Prompter, log *zap.Logger) *Processor {
	return &Processor{
		completer:  completer,
		factory:    NewStrategyFactory(),
		dispatcher: dispatcher,
		prompter:   prompter,
		client:     &http.Client{Timeout: 30 * time.Second},
		extract:    ExtractText,
		log:        log,
	}
}

// HandleAttachments processes the first PDF attachment on a message.
// Messages with attachments but no PDF get a hint instead.
func (p *Processor) HandleAttachments(ctx context.Context, userID, channelID string, attachments []Attachment) {
	var doc *Attachment
	for i := range attachments {
		if strings.HasSuffix(strings.ToLower(attachments[i].Filename), ".pdf") {
			doc = &attachments[i]
			break
		}
	}
	if doc == nil {
		p.announce(ctx, channelID, "Please attach a PDF file for processing.")
		return
	}

	data, err := p.fetch(ctx, doc.URL)
	if err != nil {
		p.log.Warn("attachment fetch failed", zap.String("url", doc.URL), zap.Error(err))
		p.announce(ctx, channelID, "Error reading the PDF file.")
		return
	}

	text, err := p.extract(data)
	if err != nil {
		p.log.Warn("pdf extraction failed", zap.String("filename", doc.Filename), zap.Error(err))
		p.announce(ctx, channelID, "Error reading the PDF file.")
		return
	}

	answer, err := p.prompter.PromptAndAwait(ctx, userID, channelID,
		"Please select what the bot should do with the PDF: reply `summary` or `flashcards`.", 60*time.Second)
	if err != nil {
		if !errors.Is(err, group.ErrPromptTimeout) {
			p.log.Warn("mode prompt failed", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	strategy, err := p.factory.CreateFromString(answer)
	if err != nil {
		p.announce(ctx, channelID, "Invalid option selected.")
		return
	}

	result, err := p.completer.Complete(ctx, strategy.BuildPrompt(text))
	if err != nil {
		p.log.Warn("generation failed", zap.String("mode", string(strategy.Mode())), zap.Error(err))
		p.announce(ctx, channelID, "Error processing AI request.")
		return
	}

	dm := fmt.Sprintf("Here is the %s for your PDF:\n\n%s", strategy.Label(), result)
	if err := p.dispatcher.Announce(ctx, dispatch.Direct(userID), dm); err != nil {
		p.announce(ctx, channelID, "Could not send you a DM. Please check your DM settings.")
	}
}

func (p *Processor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

func (p *Processor) announce(ctx context.Context, channelID, text string) {
	if err := p.dispatcher.Announce(ctx, dispatch.Channel(channelID), text); err != nil {
		p.log.Warn("channel notice failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}
