package study

import (
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Flashcard struct {
	ID         uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	User       *user.User                  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Question   string                      `gorm:"type:text;not null;column:question" json:"question"`
	Answer     string                      `gorm:"type:text;not null;column:answer" json:"answer"`
	Tags       datatypes.JSONSlice[string] `gorm:"type:jsonb;column:tags" json:"tags"`
	Difficulty string                      `gorm:"column:difficulty" json:"difficulty,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Flashcard) TableName() string { return "flashcard" }

// ValidDifficulty reports whether d is empty or a known level.
func ValidDifficulty(d string) bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
