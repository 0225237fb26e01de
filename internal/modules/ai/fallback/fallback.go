// Package fallback produces deterministic study material straight from the
// source text. It is used when the model output cannot be parsed into
// anything usable.
package fallback

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/structured"
)

const (
	emptyAnswer  = "A core concept from the provided text."
	defaultTitle = "Generated Study Notes"
	noteSubject  = "AI Generated"
	quizPrompt   = "Which statement appears in the source material?"
	excerptWords = 60
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
	difficulties  = []string{"easy", "medium", "hard"}
)

// Sentences collapses whitespace and splits on sentence punctuation.
func Sentences(source string) []string {
	collapsed := strings.Join(strings.Fields(source), " ")
	var out []string
	for _, s := range sentenceSplit.Split(collapsed, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Flashcards builds count cards, one per sentence, wrapping around when the
// source has fewer sentences than requested.
func Flashcards(source, subject string, count int) []structured.Flashcard {
	sentences := Sentences(source)
	cards := make([]structured.Flashcard, 0, count)
	for i := 0; i < count; i++ {
		var base string
		if len(sentences) > 0 {
			base = sentences[i%len(sentences)]
		} else {
			base = Truncate(strings.TrimSpace(source), 140)
		}
		answer := base
		if answer == "" {
			answer = emptyAnswer
		}
		cards = append(cards, structured.Flashcard{
			Front:      `What is the key idea of: "` + Truncate(base, 100) + `"?`,
			Back:       answer,
			Subject:    subject,
			Difficulty: difficulties[i%len(difficulties)],
		})
	}
	return cards
}

func Note(source, subject, style string) structured.Note {
	if subject == "" {
		subject = noteSubject
	}
	if style == "" {
		style = "outline"
	}
	words := strings.Fields(source)
	if len(words) > excerptWords {
		words = words[:excerptWords]
	}
	excerpt := strings.Join(words, " ")
	title := Truncate(excerpt, 50)
	if title == "" {
		title = defaultTitle
	}
	return structured.Note{
		Title:   title,
		Content: fmt.Sprintf("Style: %s\nSubject: %s\n\nSource excerpt:\n%s", style, subject, excerpt),
		Subject: subject,
	}
}

// Quiz asks, per sentence, which statement really appears in the source.
// Distractors are other sentences rewritten as negations.
func Quiz(source, subject string, count int) structured.Quiz {
	quiz := structured.Quiz{Title: strings.TrimSpace(subject + " Quiz")}
	sentences := Sentences(source)
	if len(sentences) == 0 {
		if s := Truncate(strings.TrimSpace(source), 140); s != "" {
			sentences = []string{s}
		}
	}
	n := count
	if n > len(sentences) {
		n = len(sentences)
	}
	for i := 0; i < n; i++ {
		truth := sentences[i]
		seen := map[string]bool{truth: true}
		var distractors []string
		for j := 1; j < len(sentences) && len(distractors) < 3; j++ {
			d := Negate(sentences[(i+j)%len(sentences)])
			if !seen[d] {
				seen[d] = true
				distractors = append(distractors, d)
			}
		}
		if len(distractors) == 0 {
			distractors = append(distractors, Negate(truth))
		}
		answer := i % (len(distractors) + 1)
		options := make([]string, 0, len(distractors)+1)
		options = append(options, distractors[:answer]...)
		options = append(options, truth)
		options = append(options, distractors[answer:]...)
		quiz.Questions = append(quiz.Questions, structured.QuizQuestion{
			Question:    quizPrompt,
			Options:     options,
			AnswerIndex: answer,
			Answer:      truth,
			Explanation: "This statement is taken directly from the source material.",
		})
	}
	return quiz
}

// Negate rewrites a statement so it no longer matches the source.
func Negate(s string) string {
	for _, verb := range []string{" is ", " are ", " was ", " were ", " can ", " will "} {
		if i := strings.Index(s, verb); i >= 0 {
			return s[:i] + verb + "not " + s[i+len(verb):]
		}
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return "It is not true that " + s
	}
	return "It is not true that " + string(unicode.ToLower(r)) + s[size:]
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
