package httpHandler

import (
	"errors"
	"net/http"

	"articles-server/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIHandler exposes read-only JSON views of the articles.
type APIHandler struct {
	useCase *usecases.ArticleUseCase
	log     *zap.Logger
}

func NewAPIHandler(useCase *usecases.ArticleUseCase, log *zap.Logger) *APIHandler {
	return &APIHandler{useCase: useCase, log: log}
}

// GetAllArticles handles GET /api/v1/articles
func (h *APIHandler) GetAllArticles(c *gin.Context) {
	articles, err := h.useCase.ListAll(c.Request.Context(), Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"count": len(articles),
	})
}

// GetMyArticles handles GET /api/v1/my_articles
func (h *APIHandler) GetMyArticles(c *gin.Context) {
	articles, err := h.useCase.ListOwned(c.Request.Context(), Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"count": len(articles),
	})
}

// GetArticle handles GET /api/v1/articles/:id
func (h *APIHandler) GetArticle(c *gin.Context) {
	article, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": article,
	})
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
	case errors.Is(err, usecases.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	default:
		h.log.Error("api request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve articles"})
	}
}
