package db

import (
	"fmt"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []any {
	return []any{
		// Identity
		&types.User{},

		// Study content
		&types.Note{},
		&types.Flashcard{},
		&types.Quiz{},
		&types.QuizQuestion{},
		&types.QuizAttempt{},

		// Uploads
		&types.StudyFile{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return EnsureStudyIndexes(db)
}

func EnsureStudyIndexes(db *gorm.DB) error {
	// jsonb containment lookups for tag filters and note search
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_note_tags_gin ON note USING GIN (tags);`).Error; err != nil {
		return fmt.Errorf("create idx_note_tags_gin: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_flashcard_tags_gin ON flashcard USING GIN (tags);`).Error; err != nil {
		return fmt.Errorf("create idx_flashcard_tags_gin: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_note_user_created ON note(user_id, created_at DESC);`).Error; err != nil {
		return fmt.Errorf("create idx_note_user_created: %w", err)
	}
	return nil
}
