package structured

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var ErrNoJSON = errors.New("no JSON value found in model output")

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'",
)

// ExtractJSON pulls the first balanced JSON object or array out of LLM text
// and repairs the usual defects (fences, smart quotes, trailing commas, BOM
// and control characters). The result still needs decoding.
func ExtractJSON(text string) (string, error) {
	s := stripFences(text)
	s = strings.TrimPrefix(s, "\ufeff")

	// Smart quotes are only rewritten when the text is not valid as is, since
	// they may legitimately appear inside string values.
	first, err := extractBalanced(s)
	if err == nil && json.Valid([]byte(first)) {
		return first, nil
	}
	second, err2 := extractBalanced(smartQuotes.Replace(s))
	if err2 == nil && (err != nil || json.Valid([]byte(second))) {
		return second, nil
	}
	if err != nil {
		return "", err
	}
	return first, nil
}

func extractBalanced(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	end := balancedEnd(s, start)
	if end < 0 {
		return "", ErrNoJSON
	}
	return repair(s[start : end+1]), nil
}

// stripFences unwraps output that is itself one fenced block. Fences further
// in are left alone since they may sit inside string values; extractBalanced
// skips surrounding prose anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// drop the info string (```json)
		rest = rest[nl+1:]
	}
	if j := strings.LastIndex(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// balancedEnd returns the index of the bracket closing s[start], honoring
// strings and escapes, or -1.
func balancedEnd(s string, start int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// repair drops trailing commas and raw control characters outside strings,
// and escapes raw newlines and tabs inside strings.
func repair(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			case ch == '\n':
				b.WriteString(`\n`)
				continue
			case ch == '\r':
				continue
			case ch == '\t':
				b.WriteString(`\t`)
				continue
			case ch < 0x20:
				continue
			}
			b.WriteByte(ch)
			continue
		}
		switch {
		case ch == '"':
			inString = true
		case ch == ',':
			if next := nextSignificant(s, i+1); next == '}' || next == ']' {
				continue
			}
		case ch < 0x20 && !unicode.IsSpace(rune(ch)):
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func nextSignificant(s string, from int) byte {
	for i := from; i < len(s); i++ {
		if !unicode.IsSpace(rune(s[i])) {
			return s[i]
		}
	}
	return 0
}
