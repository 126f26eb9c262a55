package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/command"
	"github.com/scholarsync/bot/pkg/response"
)

// Event is one message delivery from the chat platform
type Event struct {
	UserID      string            `json:"user_id"`
	UserName    string            `json:"user_name"`
	ChannelID   string            `json:"channel_id"`
	Content     string            `json:"content"`
	Admin       bool              `json:"admin"`
	Attachments []EventAttachment `json:"attachments,omitempty"`
}

// EventAttachment is a file reference on an event
type EventAttachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Handler receives message events over HTTP and feeds them to the
// command router, or to a suspended prompt if one is waiting.
type Handler struct {
	router    *command.Router
	collector *Collector
	log       *zap.Logger
}

// NewHandler creates a new gateway handler
func NewHandler(router *command.Router, collector *Collector, log *zap.Logger) *Handler {
	return &Handler{router: router, collector: collector, log: log}
}

// Routes returns the router for event deliveries
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Receive)

	return r
}

// Receive handles POST /events. Interactive flows can outlive the
// request by minutes, so dispatch runs in its own goroutine and the
// delivery is acknowledged immediately.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		response.BadRequest(w, "Invalid event body")
		return
	}
	if ev.UserID == "" || ev.ChannelID == "" {
		response.BadRequest(w, "user_id and channel_id are required")
		return
	}

	if len(ev.Attachments) == 0 && h.collector.Offer(ev.UserID, ev.ChannelID, ev.Content) {
		response.JSON(w, http.StatusAccepted, map[string]string{"status": "consumed"})
		return
	}

	msg := command.Message{
		UserID:    ev.UserID,
		UserName:  ev.UserName,
		ChannelID: ev.ChannelID,
		Content:   ev.Content,
		Admin:     ev.Admin,
	}
	for _, a := range ev.Attachments {
		msg.Attachments = append(msg.Attachments, command.Attachment{Filename: a.Filename, URL: a.URL})
	}

	go h.router.Dispatch(context.Background(), msg)

	response.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
