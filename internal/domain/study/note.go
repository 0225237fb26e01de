package study

import (
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Note struct {
	ID      uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	User    *user.User                  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title   string                      `gorm:"not null;column:title" json:"title"`
	Content string                      `gorm:"type:text;not null;column:content" json:"content"`
	Tags    datatypes.JSONSlice[string] `gorm:"type:jsonb;column:tags" json:"tags"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Note) TableName() string { return "note" }
