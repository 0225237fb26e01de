package app

import (
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Note         repos.NoteRepo
	Flashcard    repos.FlashcardRepo
	Quiz         repos.QuizRepo
	QuizQuestion repos.QuizQuestionRepo
	QuizAttempt  repos.QuizAttemptRepo
	StudyFile    repos.StudyFileRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Note:         repos.NewNoteRepo(db, log),
		Flashcard:    repos.NewFlashcardRepo(db, log),
		Quiz:         repos.NewQuizRepo(db, log),
		QuizQuestion: repos.NewQuizQuestionRepo(db, log),
		QuizAttempt:  repos.NewQuizAttemptRepo(db, log),
		StudyFile:    repos.NewStudyFileRepo(db, log),
	}
}
