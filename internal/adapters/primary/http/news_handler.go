package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/newsroom-notifications/internal/adapters/primary/http/middleware"
	"github.com/lorrc/newsroom-notifications/internal/adapters/primary/validation"
	"github.com/lorrc/newsroom-notifications/internal/auth"
	"github.com/lorrc/newsroom-notifications/internal/core/domain"
	"github.com/lorrc/newsroom-notifications/internal/core/ports"
	"github.com/lorrc/newsroom-notifications/internal/core/utils"
)

// NewsHandler handles HTTP requests for news items
type NewsHandler struct {
	newsService  ports.NewsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(
	newsService ports.NewsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NewsHandler {
	return &NewsHandler{
		newsService:  newsService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "news"),
	}
}

// RegisterRoutes sets up the routing for all news endpoints.
func (h *NewsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListNews)
	r.Post("/", h.HandleCreateNews)
	r.Get("/published", h.HandleListPublishedNews)

	r.Route("/{newsID}", func(r chi.Router) {
		r.Get("/", h.HandleGetNews)
		r.Put("/", h.HandleUpdateNews)
		r.Delete("/", h.HandleDeleteNews)
	})
}

// --- Request/Response DTOs ---

// NewsRequest defines the JSON body for creating or replacing a news item
type NewsRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Images    []string   `json:"images"`
	Files     []string   `json:"files"`
	PublishAt *time.Time `json:"publishAt"`
}

// Validate validates the news request
func (r *NewsRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	v.Required("content", r.Content).
		MaxLength("content", r.Content, domain.MaxContentLength)

	for _, image := range r.Images {
		v.URL("images", image)
	}
	for _, file := range r.Files {
		v.URL("files", file)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// NewsDTO defines the JSON response for news items.
type NewsDTO struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Images    []string `json:"images"`
	Files     []string `json:"files"`
	AuthorID  string   `json:"authorId"`
	PublishAt *string  `json:"publishAt"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func toNewsDTO(n *domain.News) NewsDTO {
	var publishAt *string
	if n.PublishAt != nil {
		value := n.PublishAt.UTC().Format(time.RFC3339)
		publishAt = &value
	}

	return NewsDTO{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		Images:    utils.NonNilStrings(n.Images),
		Files:     utils.NonNilStrings(n.Files),
		AuthorID:  n.AuthorID.String(),
		PublishAt: publishAt,
		Status:    string(n.Status),
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toNewsDTOs(items []*domain.News) []NewsDTO {
	response := make([]NewsDTO, 0, len(items))
	for _, n := range items {
		response = append(response, toNewsDTO(n))
	}
	return response
}

// --- Handlers ---

// HandleListNews handles GET /news
func (h *NewsHandler) HandleListNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.ListNews(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, toNewsDTOs(items))
}

// HandleListPublishedNews handles GET /news/published
func (h *NewsHandler) HandleListPublishedNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.ListPublishedNews(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, toNewsDTOs(items))
}

// HandleGetNews handles GET /news/{newsID}
func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	newsID, err := parseUUIDParam(r, "newsID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	item, err := h.newsService.GetNews(r.Context(), newsID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toNewsDTO(item))
}

// HandleCreateNews handles POST /news
func (h *NewsHandler) HandleCreateNews(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[NewsRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	item, err := h.newsService.CreateNews(r.Context(), ports.CreateNewsParams{
		Title:     req.Title,
		Content:   req.Content,
		Images:    req.Images,
		Files:     req.Files,
		AuthorID:  identity.UserID,
		PublishAt: req.PublishAt,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "news created",
		"news_id", item.ID,
		"status", item.Status,
	)

	WriteCreated(w, toNewsDTO(item))
}

// HandleUpdateNews handles PUT /news/{newsID}
func (h *NewsHandler) HandleUpdateNews(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	newsID, err := parseUUIDParam(r, "newsID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[NewsRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	item, err := h.newsService.UpdateNews(r.Context(), ports.UpdateNewsParams{
		NewsID:    newsID,
		ActorID:   identity.UserID,
		Title:     req.Title,
		Content:   req.Content,
		Images:    req.Images,
		Files:     req.Files,
		PublishAt: req.PublishAt,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "news updated",
		"news_id", item.ID,
		"status", item.Status,
	)

	WriteJSON(w, http.StatusOK, toNewsDTO(item))
}

// HandleDeleteNews handles DELETE /news/{newsID}
func (h *NewsHandler) HandleDeleteNews(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	newsID, err := parseUUIDParam(r, "newsID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.newsService.DeleteNews(r.Context(), newsID, identity.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "news deleted", "news_id", newsID)

	WriteNoContent(w)
}

// --- Shared helpers ---

// requireIdentity returns the verified caller or writes a 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := mw.GetIdentity(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return auth.Identity{}, false
	}
	return identity, true
}

// parseUUIDParam extracts and validates a UUID path parameter.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		v := validation.NewValidator()
		v.Custom(name, false, "Must be a valid UUID")
		return uuid.Nil, v.Errors()
	}
	return id, nil
}
