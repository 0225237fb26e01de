package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNoFlashcards = errors.New("model output contained no usable flashcards")
	ErrNoNote       = errors.New("model output contained no usable note")
	ErrNoQuestions  = errors.New("model output contained no usable quiz questions")
)

type Flashcard struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty"`
}

type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Subject string `json:"subject"`
}

type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

type Quiz struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

func decodeAny(text string) (any, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return v, nil
}

// listUnder returns v itself when it is an array, or the first array found
// under one of keys when v is an object.
func listUnder(v any, keys ...string) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range keys {
			if arr, ok := t[k].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// NormalizeDifficulty maps free-form levels onto easy|medium|hard, or "".
func NormalizeDifficulty(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy", "beginner", "basic", "simple", "low":
		return "easy"
	case "medium", "intermediate", "moderate", "normal", "mid":
		return "medium"
	case "hard", "difficult", "advanced", "challenging", "high":
		return "hard"
	default:
		return ""
	}
}

func DecodeFlashcards(text, defaultSubject string) ([]Flashcard, error) {
	v, err := decodeAny(text)
	if err != nil {
		return nil, err
	}
	var out []Flashcard
	for _, item := range listUnder(v, "flashcards", "cards", "items", "data") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		card := Flashcard{
			Front:      firstString(m, "front", "question", "term", "q"),
			Back:       firstString(m, "back", "answer", "definition", "a"),
			Subject:    firstString(m, "subject", "topic"),
			Difficulty: NormalizeDifficulty(firstString(m, "difficulty", "level")),
		}
		if card.Front == "" || card.Back == "" {
			continue
		}
		if card.Subject == "" {
			card.Subject = defaultSubject
		}
		out = append(out, card)
	}
	if len(out) == 0 {
		return nil, ErrNoFlashcards
	}
	return out, nil
}

func DecodeNote(text string) (Note, error) {
	v, err := decodeAny(text)
	if err != nil {
		return Note{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		if arr, isArr := v.([]any); isArr && len(arr) > 0 {
			m, ok = arr[0].(map[string]any)
		}
	}
	if !ok {
		return Note{}, ErrNoNote
	}
	if inner, nested := m["note"].(map[string]any); nested {
		m = inner
	}
	note := Note{
		Title:   firstString(m, "title", "heading"),
		Content: firstString(m, "content", "body", "markdown", "notes"),
		Subject: firstString(m, "subject", "topic"),
	}
	if note.Content == "" {
		if lines, isArr := m["content"].([]any); isArr {
			note.Content = joinStrings(lines, "\n")
		}
	}
	if note.Content == "" {
		return Note{}, ErrNoNote
	}
	return note, nil
}

func DecodeQuiz(text string) (Quiz, error) {
	v, err := decodeAny(text)
	if err != nil {
		return Quiz{}, err
	}
	var quiz Quiz
	if m, ok := v.(map[string]any); ok {
		quiz.Title = firstString(m, "title", "name")
		if inner, nested := m["quiz"].(map[string]any); nested {
			if quiz.Title == "" {
				quiz.Title = firstString(inner, "title", "name")
			}
			v = inner
		}
	}
	for _, item := range listUnder(v, "questions", "quiz", "items", "data") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if q, ok := decodeQuestion(m); ok {
			quiz.Questions = append(quiz.Questions, q)
		}
	}
	if len(quiz.Questions) == 0 {
		return Quiz{}, ErrNoQuestions
	}
	return quiz, nil
}

func decodeQuestion(m map[string]any) (QuizQuestion, bool) {
	q := QuizQuestion{
		Question:    firstString(m, "question", "prompt", "q"),
		Explanation: firstString(m, "explanation", "rationale", "reason"),
	}
	if q.Question == "" {
		return q, false
	}
	for _, key := range []string{"options", "choices"} {
		arr, ok := m[key].([]any)
		if !ok {
			continue
		}
		for _, o := range arr {
			switch t := o.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					q.Options = append(q.Options, s)
				}
			case map[string]any:
				if s := firstString(t, "text", "option", "label"); s != "" {
					q.Options = append(q.Options, s)
				}
			}
		}
		break
	}
	if len(q.Options) < 2 {
		return q, false
	}

	idx, ok := indexField(m, "answerIndex", "answer_index", "correctIndex", "correct_index", "correctAnswerIndex")
	if !ok {
		idx, ok = indexFromAnswer(firstString(m, "answer", "correctAnswer", "correct_answer", "correct"), q.Options)
	}
	if !ok || idx < 0 || idx >= len(q.Options) {
		return q, false
	}
	q.AnswerIndex = idx
	q.Answer = q.Options[idx]
	return q, true
}

func indexField(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v == math.Trunc(v) {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// indexFromAnswer matches answer text against the options, accepting a bare
// option letter ("B") as well.
func indexFromAnswer(answer string, options []string) (int, bool) {
	a := strings.TrimSpace(answer)
	if a == "" {
		return 0, false
	}
	for i, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), a) {
			return i, true
		}
	}
	if len(a) == 1 {
		c := strings.ToUpper(a)[0]
		if c >= 'A' && int(c-'A') < len(options) {
			return int(c - 'A'), true
		}
	}
	return 0, false
}

func joinStrings(items []any, sep string) string {
	var parts []string
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
