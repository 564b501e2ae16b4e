package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/infrastructure/storage"
	"NewsRefinery/internal/ports"
)

// Ingestion triggers one ingestion run.
type Ingestion interface {
	Run(ctx context.Context) (domain.CrawlResult, error)
}

// Transformation triggers one transformation run over a selection.
type Transformation interface {
	Run(ctx context.Context, ids []string) (domain.ProcessResult, error)
}

// Handler serves the admin commands and the public article endpoint.
type Handler struct {
	ingestion Ingestion
	transform Transformation
	articles  ports.ArticleRepository
	settings  ports.SettingsRepository
	logger    *slog.Logger
}

// NewHandler wires the pipeline triggers and repositories.
func NewHandler(ingestion Ingestion, transform Transformation, articles ports.ArticleRepository, settings ports.SettingsRepository, logger *slog.Logger) *Handler {
	return &Handler{
		ingestion: ingestion,
		transform: transform,
		articles:  articles,
		settings:  settings,
		logger:    logger,
	}
}

type crawlData struct {
	TotalNews  int      `json:"totalNews"`
	NewNews    int      `json:"newNews"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}

type processRequest struct {
	NewsIDs []string `json:"newsIds"`
	// BatchSize is accepted for compatibility; the sequential pipeline
	// processes the full selection regardless.
	BatchSize int `json:"batchSize"`
}

type processData struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Crawl handles POST /api/admin/crawl. Partial success (some sources down)
// answers 207 so callers can tell it apart from a clean run and from a crash.
func (h *Handler) Crawl(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingestion.Run(r.Context())
	if err != nil {
		h.error(w, http.StatusInternalServerError, "crawl failed", err)
		return
	}

	data := crawlData{
		TotalNews:  result.TotalFetched,
		NewNews:    result.NewNews,
		Duplicates: result.Duplicates,
		Errors:     result.Errors,
	}

	status := http.StatusOK
	message := "crawl completed"
	if !result.Success() {
		status = http.StatusMultiStatus
		message = "crawl completed with source errors"
	}

	h.respond(w, status, apiResponse{Success: result.Success(), Message: message, Data: data})
}

// Process handles POST /api/admin/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transform.Run(r.Context(), req.NewsIDs)
	if errors.Is(err, domain.ErrNoSelection) {
		h.error(w, http.StatusBadRequest, "newsIds must not be empty", err)
		return
	}
	if err != nil {
		h.error(w, http.StatusInternalServerError, "processing failed", err)
		return
	}

	data := processData{
		Processed: result.Processed,
		Failed:    result.Failed,
		Errors:    result.Errors,
	}
	if data.Errors == nil {
		data.Errors = []string{}
	}

	h.respond(w, http.StatusOK, apiResponse{Success: result.Success(), Message: "processing finished", Data: data})
}

const settingsProvider = "xai"

type settingsRequest struct {
	XAIAPIKey string `json:"xaiApiKey"`
}

// GetSettings handles GET /api/admin/settings; the key is echoed masked.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	key, err := h.settings.APIKey(r.Context(), settingsProvider)
	if err != nil {
		h.error(w, http.StatusInternalServerError, "cannot load settings", err)
		return
	}

	h.respond(w, http.StatusOK, map[string]string{"xaiApiKey": maskKey(key)})
}

// SaveSettings handles POST /api/admin/settings.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.XAIAPIKey == "" {
		h.error(w, http.StatusBadRequest, "api key is required", nil)
		return
	}
	if !strings.HasPrefix(req.XAIAPIKey, "xai-") {
		h.error(w, http.StatusBadRequest, `xAI api keys start with "xai-"`, nil)
		return
	}

	if err := h.settings.SaveAPIKey(r.Context(), settingsProvider, req.XAIAPIKey); err != nil {
		h.error(w, http.StatusInternalServerError, "cannot save settings", err)
		return
	}

	h.respond(w, http.StatusOK, apiResponse{Success: true, Message: "api key saved"})
}

type articlePayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Category   string `json:"category"`
	Source     string `json:"source"`
	Difficulty int    `json:"difficultyLevel"`
	Views      int64  `json:"views"`
}

// GetArticle handles GET /api/articles/{id}: article data for sharing cards,
// bumping the view counter on the way out.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	article, err := h.articles.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrArticleNotFound) {
		h.error(w, http.StatusNotFound, "article not found", nil)
		return
	}
	if err != nil {
		h.error(w, http.StatusInternalServerError, "cannot load article", err)
		return
	}

	if err := h.articles.IncrementViews(r.Context(), id); err != nil {
		h.warn("view increment failed", "article", id, "error", err)
	}

	h.respond(w, http.StatusOK, articlePayload{
		ID:         article.ID,
		Title:      article.Title,
		Summary:    article.Summary,
		Category:   article.Category,
		Source:     article.Source,
		Difficulty: article.Difficulty,
		Views:      article.Views,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.warn("encode response", "error", err)
	}
}

func (h *Handler) error(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.warn(message, "error", err)
	}
	h.respond(w, status, apiResponse{Success: false, Error: message})
}

func (h *Handler) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
