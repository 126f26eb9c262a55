package group

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scholarsync/bot/pkg/response"
)

// Handler exposes a read-only HTTP view of public groups, used by
// dashboards and uptime tooling. All mutations go through the chat
// command surface; nothing here touches lifecycle logic.
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	return r
}

// List handles GET /groups, returning public groups only
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var out []*GroupResponse
	for _, g := range h.service.List() {
		if g.IsSecret() {
			continue
		}
		out = append(out, g.ToResponse())
	}
	if out == nil {
		out = []*GroupResponse{}
	}

	response.JSON(w, http.StatusOK, out)
}

// GetByID handles GET /groups/{id} with the member list included.
// Secret groups are reported as not found so they never leak here.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	g, err := h.service.Members(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}
	if g.IsSecret() {
		response.NotFound(w, ErrNotFound.Error())
		return
	}

	resp := g.ToResponse()
	resp.Members = g.Members
	response.JSON(w, http.StatusOK, resp)
}
