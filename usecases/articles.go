package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"articles-server/entities"
	"articles-server/repositories"

	"github.com/google/uuid"
)

const (
	EventArticleCreated = "article_created"
	EventArticleUpdated = "article_updated"
	EventArticleDeleted = "article_deleted"
)

// ArticleEvent describes a committed change to an article.
type ArticleEvent struct {
	Type      string `json:"type"`
	ArticleID string `json:"article_id"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

// Notifier receives article events after they are committed.
type Notifier interface {
	Publish(event ArticleEvent)
}

type ArticleUseCase struct {
	repo             repositories.ArticleRepository
	notifier         Notifier
	enforceOwnership bool
}

func NewArticleUseCase(repo repositories.ArticleRepository, notifier Notifier, enforceOwnership bool) *ArticleUseCase {
	return &ArticleUseCase{
		repo:             repo,
		notifier:         notifier,
		enforceOwnership: enforceOwnership,
	}
}

// ListAll returns every article, newest first.
func (uc *ArticleUseCase) ListAll(ctx context.Context, identity *entities.User) ([]entities.Article, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	articles, err := uc.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// ListOwned returns the identity's own articles, newest first.
func (uc *ArticleUseCase) ListOwned(ctx context.Context, identity *entities.User) ([]entities.Article, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	articles, err := uc.repo.GetByUserID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list articles for %s: %w", identity.ID, err)
	}
	return articles, nil
}

func (uc *ArticleUseCase) Create(ctx context.Context, identity *entities.User, title, content string) (*entities.Article, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	article := &entities.Article{
		Title:   title,
		Content: content,
		UserID:  identity.ID,
	}
	if err := uc.repo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	article.Author = *identity

	uc.publish(EventArticleCreated, article)
	return article, nil
}

// Get returns an article by id. Malformed ids are reported as not found.
func (uc *ArticleUseCase) Get(ctx context.Context, id string) (*entities.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	article, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return article, nil
}

// Editable returns the article if identity may modify it.
func (uc *ArticleUseCase) Editable(ctx context.Context, identity *entities.User, id string) (*entities.Article, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	article, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.enforceOwnership && !article.OwnedBy(identity.ID) {
		return nil, ErrForbidden
	}
	return article, nil
}

func (uc *ArticleUseCase) Update(ctx context.Context, identity *entities.User, id, title, content string) (*entities.Article, error) {
	article, err := uc.Editable(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	article.Title = title
	article.Content = content
	if err := uc.repo.Update(ctx, article); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update article %s: %w", id, err)
	}

	uc.publish(EventArticleUpdated, article)
	return article, nil
}

func (uc *ArticleUseCase) Delete(ctx context.Context, identity *entities.User, id string) error {
	article, err := uc.Editable(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, article.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete article %s: %w", id, err)
	}

	uc.publish(EventArticleDeleted, article)
	return nil
}

func (uc *ArticleUseCase) publish(kind string, article *entities.Article) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Publish(ArticleEvent{
		Type:      kind,
		ArticleID: article.ID,
		Title:     article.Title,
		Author:    article.Author.Username,
	})
}

func validateTitle(title string) error {
	verr := &ValidationError{}
	switch {
	case title == "":
		verr.add("title", "This field is required.")
	case utf8.RuneCountInString(title) > entities.MaxTitleLength:
		verr.add("title", fmt.Sprintf("Must be at most %d characters long.", entities.MaxTitleLength))
	}
	return verr.orNil()
}
