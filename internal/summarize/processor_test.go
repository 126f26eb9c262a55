package summarize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/group"
)

type fakeCompleter struct {
	fail    bool
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if f.fail {
		return "", errors.New("model unavailable")
	}
	f.prompts = append(f.prompts, prompt)
	return "generated study aid", nil
}

type fakePrompter struct {
	answer  string
	timeout bool
}

func (f *fakePrompter) PromptAndAwait(ctx context.Context, userID, channelID, prompt string, timeout time.Duration) (string, error) {
	if f.timeout {
		return "", group.ErrPromptTimeout
	}
	return f.answer, nil
}

type messageSink struct {
	mu     sync.Mutex
	failDM bool
	sent   []struct {
		Audience dispatch.Audience
		Text     string
	}
}

func (d *messageSink) CreateResources(ctx context.Context, label string, secret bool) (string, string, error) {
	return "", "", nil
}

func (d *messageSink) DestroyResources(ctx context.Context, discussion, live string) error {
	return nil
}

func (d *messageSink) Announce(ctx context.Context, aud dispatch.Audience, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failDM && aud.Kind == dispatch.AudienceDirectMessage {
		return errors.New("dms closed")
	}
	d.sent = append(d.sent, struct {
		Audience dispatch.Audience
		Text     string
	}{aud, text})
	return nil
}

func (d *messageSink) SetMemberAccess(ctx context.Context, handle, userID string, allowed bool) error {
	return nil
}

func (d *messageSink) textsFor(kind dispatch.AudienceKind) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, m := range d.sent {
		if m.Audience.Kind == kind {
			out = append(out, m.Text)
		}
	}
	return out
}

func documentServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProcessor(completer *fakeCompleter, sink *messageSink, prompter *fakePrompter) *Processor {
	p := NewProcessor(completer, sink, prompter, zap.NewNop())
	p.extract = func(data []byte) (string, error) {
		return string(data), nil
	}
	return p
}

func TestHandleAttachmentsDeliversResult(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	completer := &fakeCompleter{}
	sink := &messageSink{}
	p := newTestProcessor(completer, sink, &fakePrompter{answer: "summary"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "Notes.PDF", URL: srv.URL},
	})

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "lecture notes")

	dms := sink.textsFor(dispatch.AudienceDirectMessage)
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0], "Here is the summary for your PDF")
	assert.Contains(t, dms[0], "generated study aid")
}

func TestHandleAttachmentsWithoutPDF(t *testing.T) {
	sink := &messageSink{}
	p := newTestProcessor(&fakeCompleter{}, sink, &fakePrompter{answer: "summary"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "photo.png", URL: "http://files/photo.png"},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Please attach a PDF file")
}

func TestHandleAttachmentsFetchFailure(t *testing.T) {
	srv := documentServer(t, http.StatusNotFound, "")
	sink := &messageSink{}
	p := newTestProcessor(&fakeCompleter{}, sink, &fakePrompter{answer: "summary"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Error reading the PDF file")
}

func TestHandleAttachmentsExtractionFailure(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "not a pdf")
	sink := &messageSink{}
	p := NewProcessor(&fakeCompleter{}, sink, &fakePrompter{answer: "summary"}, zap.NewNop())

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Error reading the PDF file")
}

func TestHandleAttachmentsPromptTimeoutIsSilent(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	sink := &messageSink{}
	p := newTestProcessor(&fakeCompleter{}, sink, &fakePrompter{timeout: true})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	assert.Empty(t, sink.sent, "an abandoned prompt produces no output")
}

func TestHandleAttachmentsInvalidMode(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	sink := &messageSink{}
	p := newTestProcessor(&fakeCompleter{}, sink, &fakePrompter{answer: "interpretive dance"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Invalid option selected")
}

func TestHandleAttachmentsCompleterFailure(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	sink := &messageSink{}
	p := newTestProcessor(&fakeCompleter{fail: true}, sink, &fakePrompter{answer: "flashcards"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Error processing AI request")
}

func TestHandleAttachmentsClosedDMs(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	sink := &messageSink{failDM: true}
	p := newTestProcessor(&fakeCompleter{}, sink, &fakePrompter{answer: "summary"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "notes.pdf", URL: srv.URL},
	})

	notices := sink.textsFor(dispatch.AudienceGroupChannel)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Could not send you a DM")
}

func TestHandleAttachmentsPicksFirstPDF(t *testing.T) {
	srv := documentServer(t, http.StatusOK, "lecture notes")
	completer := &fakeCompleter{}
	sink := &messageSink{}
	p := newTestProcessor(completer, sink, &fakePrompter{answer: "flashcards"})

	p.HandleAttachments(context.Background(), "u1", "ch1", []Attachment{
		{Filename: "cover.jpg", URL: "http://files/cover.jpg"},
		{Filename: "chapter1.pdf", URL: srv.URL},
		{Filename: "chapter2.pdf", URL: "http://files/chapter2.pdf"},
	})

	dms := sink.textsFor(dispatch.AudienceDirectMessage)
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0], "Here is the flashcards for your PDF")
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	_, err := ExtractText([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
