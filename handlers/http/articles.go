package httpHandler

import (
	"errors"
	"net/http"

	"articles-server/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ArticleHandler struct {
	useCase *usecases.ArticleUseCase
	log     *zap.Logger
}

func NewArticleHandler(useCase *usecases.ArticleUseCase, log *zap.Logger) *ArticleHandler {
	return &ArticleHandler{useCase: useCase, log: log}
}

// Home handles GET /
func (h *ArticleHandler) Home(c *gin.Context) {
	articles, err := h.useCase.ListAll(c.Request.Context(), Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "home.html", gin.H{"title": "Home", "articles": articles})
}

// MyArticles handles GET /my_articles
func (h *ArticleHandler) MyArticles(c *gin.Context) {
	articles, err := h.useCase.ListOwned(c.Request.Context(), Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "my_articles.html", gin.H{"title": "My articles", "articles": articles})
}

// Show handles GET /my_articles/:id
func (h *ArticleHandler) Show(c *gin.Context) {
	article, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "article.html", gin.H{"title": article.Title, "article": article})
}

// NewPage handles GET /my_articles/new
func (h *ArticleHandler) NewPage(c *gin.Context) {
	render(c, http.StatusOK, "new.html", gin.H{
		"title":  "New article",
		"legend": "New article",
		"form":   ArticleForm{},
	})
}

// Create handles POST /my_articles/new
func (h *ArticleHandler) Create(c *gin.Context) {
	var form ArticleForm
	page := gin.H{"title": "New article", "legend": "New article"}
	if errs := bindForm(c, &form); errs != nil {
		h.invalid(c, page, form, errs)
		return
	}

	article, err := h.useCase.Create(c.Request.Context(), Identity(c), form.Title, form.Content)
	if err != nil {
		var verr *usecases.ValidationError
		if errors.As(err, &verr) {
			h.invalid(c, page, form, verr.Fields)
			return
		}
		h.fail(c, err)
		return
	}

	h.log.Info("article created", zap.String("article_id", article.ID), zap.String("user_id", article.UserID))
	addFlash(c, "success", "Your article has been created!")
	c.Redirect(http.StatusFound, "/my_articles")
}

// UpdatePage handles GET /my_articles/:id/update
func (h *ArticleHandler) UpdatePage(c *gin.Context) {
	article, err := h.useCase.Editable(c.Request.Context(), Identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "new.html", gin.H{
		"title":  "Update article",
		"legend": "Update article",
		"form":   ArticleForm{Title: article.Title, Content: article.Content},
	})
}

// Update handles POST /my_articles/:id/update
func (h *ArticleHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var form ArticleForm
	page := gin.H{"title": "Update article", "legend": "Update article"}
	if errs := bindForm(c, &form); errs != nil {
		// surface not-found and ownership before field errors
		if _, err := h.useCase.Editable(c.Request.Context(), Identity(c), id); err != nil {
			h.fail(c, err)
			return
		}
		h.invalid(c, page, form, errs)
		return
	}

	article, err := h.useCase.Update(c.Request.Context(), Identity(c), id, form.Title, form.Content)
	if err != nil {
		var verr *usecases.ValidationError
		if errors.As(err, &verr) {
			h.invalid(c, page, form, verr.Fields)
			return
		}
		h.fail(c, err)
		return
	}

	h.log.Info("article updated", zap.String("article_id", article.ID))
	addFlash(c, "success", "Your article has been updated!")
	c.Redirect(http.StatusFound, "/my_articles/"+article.ID)
}

// Delete handles POST /my_articles/:id/delete
func (h *ArticleHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.useCase.Delete(c.Request.Context(), Identity(c), id); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("article deleted", zap.String("article_id", id))
	addFlash(c, "success", "Your article has been deleted!")
	c.Redirect(http.StatusFound, "/")
}

func (h *ArticleHandler) invalid(c *gin.Context, page gin.H, form ArticleForm, errs map[string]string) {
	page["form"] = form
	page["errors"] = errs
	render(c, http.StatusUnprocessableEntity, "new.html", page)
}

// fail maps use-case errors onto responses at the router boundary.
func (h *ArticleHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		renderNotFound(c)
	case errors.Is(err, usecases.ErrForbidden):
		renderForbidden(c)
	case errors.Is(err, usecases.ErrUnauthenticated):
		RequireLogin(c)
	default:
		h.log.Error("article request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		renderServerError(c)
	}
}
