package domain

import (
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/study"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain/user"
)

const (
	DifficultyEasy   = study.DifficultyEasy
	DifficultyMedium = study.DifficultyMedium
	DifficultyHard   = study.DifficultyHard
)

type User = user.User

type Note = study.Note
type Flashcard = study.Flashcard
type Quiz = study.Quiz
type QuizQuestion = study.QuizQuestion
type QuizAttempt = study.QuizAttempt
type StudyFile = study.StudyFile

var ValidDifficulty = study.ValidDifficulty
