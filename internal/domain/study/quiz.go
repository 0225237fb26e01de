package study

import (
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	User        *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description *string        `gorm:"column:description" json:"description"`
	Questions   []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	// Populated by list queries only.
	QuestionCount int64 `gorm:"->;-:migration;column:question_count" json:"questionCount"`
	AttemptCount  int64 `gorm:"->;-:migration;column:attempt_count" json:"attemptCount"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Quiz) TableName() string { return "quiz" }

type QuizQuestion struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID   uuid.UUID `gorm:"type:uuid;not null;index:idx_quiz_question_order,priority:1" json:"quizId"`
	Position int       `gorm:"not null;default:0;index:idx_quiz_question_order,priority:2" json:"position"`
	Question string    `gorm:"type:text;not null;column:question" json:"question"`
	Answer   string    `gorm:"type:text;not null;column:answer" json:"answer"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

type QuizAttempt struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"quizId"`
	Quiz    *Quiz          `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"-"`
	UserID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	User    *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Score   float64        `gorm:"not null;default:0;column:score" json:"score"`
	Answers datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }
