package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/newsroom-notifications/internal/adapters/primary/validation"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

const maxNotificationsPerPage = 100

// NotificationHandler serves a user's notification history. Clients call it
// on (re)connect to catch up on anything pushed while they were offline.
type NotificationHandler struct {
	notificationService ports.NotificationService
	errorHandler        *ErrorHandler
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notificationService ports.NotificationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		errorHandler:        errorHandler,
		logger:              logger.With("handler", "notification"),
	}
}

// RegisterRoutes sets up the routing for notification endpoints.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListNotifications)
	r.Post("/read", h.HandleMarkAllRead)
	r.Post("/{notificationID}/read", h.HandleMarkRead)
}

// MarkAllReadResponse reports how many notifications were flagged.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// HandleListNotifications handles GET /notifications?unread=&limit=&offset=
func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	pagination := validation.ParsePagination(r, maxNotificationsPerPage)

	items, total, err := h.notificationService.ListForUser(r.Context(), ports.ListNotificationsParams{
		RecipientID: identity.UserID,
		UnreadOnly:  validation.ParseBoolQueryParam(r, "unread", false),
		Limit:       pagination.Limit,
		Offset:      pagination.Offset,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	data := make([]domain.Notification, 0, len(items))
	for _, n := range items {
		data = append(data, *n)
	}

	WritePaginated(w, data, pagination.Limit, pagination.Offset, total)
}

// HandleMarkRead handles POST /notifications/{notificationID}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	notificationID, err := parseUUIDParam(r, "notificationID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, identity.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// HandleMarkAllRead handles POST /notifications/read
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), identity.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "notifications marked read", "count", updated)

	WriteJSON(w, http.StatusOK, MarkAllReadResponse{Updated: updated})
}
