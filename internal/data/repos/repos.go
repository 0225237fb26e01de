package repos

import (
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/study"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/user"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type UserRepo = user.UserRepo

type NoteRepo = study.NoteRepo
type FlashcardRepo = study.FlashcardRepo
type QuizRepo = study.QuizRepo
type QuizQuestionRepo = study.QuizQuestionRepo
type QuizAttemptRepo = study.QuizAttemptRepo
type StudyFileRepo = study.StudyFileRepo

var ErrDuplicateEmail = user.ErrDuplicateEmail

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return study.NewNoteRepo(db, baseLog)
}

func NewFlashcardRepo(db *gorm.DB, baseLog *logger.Logger) FlashcardRepo {
	return study.NewFlashcardRepo(db, baseLog)
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return study.NewQuizRepo(db, baseLog)
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return study.NewQuizQuestionRepo(db, baseLog)
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return study.NewQuizAttemptRepo(db, baseLog)
}

func NewStudyFileRepo(db *gorm.DB, baseLog *logger.Logger) StudyFileRepo {
	return study.NewStudyFileRepo(db, baseLog)
}
