package repositories

import (
	"context"
	"time"

	"articles-server/db"
	"articles-server/entities"
)

type articlePgRepository struct {
	db db.Database
}

func NewArticlePgRepository(database db.Database) ArticleRepository {
	return &articlePgRepository{db: database}
}

func (r *articlePgRepository) Create(ctx context.Context, article *entities.Article) error {
	// Omit the association so gorm never upserts the author row.
	return translate(r.db.GetDB().WithContext(ctx).Omit("Author").Create(article).Error)
}

func (r *articlePgRepository) GetByID(ctx context.Context, id string) (*entities.Article, error) {
	var article entities.Article
	err := r.db.GetDB().WithContext(ctx).Preload("Author").Where("id = ?", id).First(&article).Error
	if err != nil {
		return nil, translate(err)
	}
	return &article, nil
}

func (r *articlePgRepository) GetAll(ctx context.Context) ([]entities.Article, error) {
	var articles []entities.Article
	err := r.db.GetDB().WithContext(ctx).Preload("Author").
		Order("created_at DESC").Order("id DESC").
		Find(&articles).Error
	return articles, translate(err)
}

func (r *articlePgRepository) GetByUserID(ctx context.Context, userID string) ([]entities.Article, error) {
	var articles []entities.Article
	err := r.db.GetDB().WithContext(ctx).Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&articles).Error
	return articles, translate(err)
}

// Update overwrites title and content. Last writer wins.
func (r *articlePgRepository) Update(ctx context.Context, article *entities.Article) error {
	article.UpdatedAt = time.Now().UTC()
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Article{}).
		Where("id = ?", article.ID).
		Updates(map[string]interface{}{
			"title":      article.Title,
			"content":    article.Content,
			"updated_at": article.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *articlePgRepository) Delete(ctx context.Context, id string) error {
	res := r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Article{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
