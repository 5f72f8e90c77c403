package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipechat/internal/models"
	"recipechat/internal/service/recipe"
	"recipechat/internal/worker"
)

// Assistant answers chat and recipe requests. *recipe.Service implements it.
type Assistant interface {
	Chat(ctx context.Context, client, query string) (string, error)
	Suggest(ctx context.Context, client, ingredients string) (*models.Suggestion, error)
	Recipes() int
}

// Pinger reports reply cache health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to the recipe assistant.
type Handler struct {
	assistant Assistant
	cache     Pinger
	logger    *zap.Logger
}

// NewHandler constructs a Handler instance. cache may be nil when caching is disabled.
func NewHandler(assistant Assistant, cache Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{assistant: assistant, cache: cache, logger: logger}
}

// RegisterRoutes attaches all HTTP routes and middleware to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(RequestID(), AccessLog(h.logger), CORS())
	router.POST("/chat", h.chat)
	router.POST("/get_recipe", h.getRecipe)
	router.GET("/healthz", h.healthz)
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), c.ClientIP(), req.Query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Response: reply})
}

type recipeRequest struct {
	Ingredients string `json:"ingredients"`
}

func (h *Handler) getRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	suggestion, err := h.assistant.Suggest(c.Request.Context(), c.ClientIP(), req.Ingredients)
	switch {
	case errors.Is(err, recipe.ErrEmptyIngredients):
		c.JSON(http.StatusOK, gin.H{"error": "Please provide ingredients."})
	case errors.Is(err, recipe.ErrNoMatch):
		c.JSON(http.StatusOK, gin.H{"message": "No similar recipe found."})
	case err != nil:
		h.writeError(c, err)
	default:
		c.JSON(http.StatusOK, suggestion)
	}
}

func (h *Handler) healthz(c *gin.Context) {
	cache := "disabled"
	if h.cache != nil {
		cache = "ok"
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("reply cache unreachable", zap.Error(err))
			cache = "unavailable"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"recipes": h.assistant.Recipes(),
		"cache":   cache,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, worker.ErrDispatcherBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
	case errors.Is(err, worker.ErrDispatcherClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down"})
	default:
		h.logger.Error("request failed", zap.String("request_id", RequestIDFromContext(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
