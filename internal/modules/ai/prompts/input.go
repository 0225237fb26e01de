package prompts

// Input carries every field a prompt template may reference.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	SourceText string
	Subject    string
	Count      int
	Style      string
	Question   string
}
