package prompts

type PromptName string

const (
	PromptTutor         PromptName = "tutor"
	PromptSummarize     PromptName = "summarize"
	PromptSummarizeFile PromptName = "summarize_file"
	PromptFlashcards    PromptName = "flashcards"
	PromptNotesConcise  PromptName = "notes_concise"
	PromptNotesDetailed PromptName = "notes_detailed"
	PromptNotesOutline  PromptName = "notes_outline"
	PromptQuiz          PromptName = "quiz"
	PromptExplain       PromptName = "explain"
)

// NotesPrompt maps a note style to its prompt; unknown styles use concise.
func NotesPrompt(style string) PromptName {
	switch style {
	case "detailed":
		return PromptNotesDetailed
	case "outline":
		return PromptNotesOutline
	default:
		return PromptNotesConcise
	}
}

func AllNames() []PromptName {
	return []PromptName{
		PromptTutor,
		PromptSummarize,
		PromptSummarizeFile,
		PromptFlashcards,
		PromptNotesConcise,
		PromptNotesDetailed,
		PromptNotesOutline,
		PromptQuiz,
		PromptExplain,
	}
}
