package study

import (
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudyFile is an uploaded document. Path is the public URL of the stored object.
type StudyFile struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	User        *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Path        string     `gorm:"not null;column:path" json:"path"`
	StorageKey  string     `gorm:"not null;column:storage_key" json:"-"`
	ContentType string     `gorm:"column:content_type" json:"contentType"`
	SizeBytes   int64      `gorm:"column:size_bytes" json:"sizeBytes"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StudyFile) TableName() string { return "study_file" }
