package prompts

import (
	"fmt"
	"strings"
)

type Validator func(Input) error

func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("%s required", field)
		}
		return nil
	}
}

func RequirePositive(field string, get func(Input) int) Validator {
	return func(in Input) error {
		if get(in) <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
		return nil
	}
}

func sourceText(in Input) string { return in.SourceText }

// validators are attached in code so an override file cannot drop them.
var validators = map[PromptName][]Validator{
	PromptSummarize:     {RequireNonEmpty("SourceText", sourceText)},
	PromptFlashcards:    {RequireNonEmpty("SourceText", sourceText), RequirePositive("Count", func(in Input) int { return in.Count })},
	PromptNotesConcise:  {RequireNonEmpty("SourceText", sourceText)},
	PromptNotesDetailed: {RequireNonEmpty("SourceText", sourceText)},
	PromptNotesOutline:  {RequireNonEmpty("SourceText", sourceText)},
	PromptQuiz:          {RequireNonEmpty("SourceText", sourceText), RequirePositive("Count", func(in Input) int { return in.Count })},
	PromptExplain:       {RequireNonEmpty("SourceText", sourceText)},
}
