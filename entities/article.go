package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxTitleLength = 100

// Article belongs to exactly one User. Deletes are permanent.
type Article struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	return nil
}

// OwnedBy reports whether userID is the article's owner.
func (a *Article) OwnedBy(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}
