package passage

import (
	"strings"
	"unicode/utf8"
)

// Passage represents one exam reading-comprehension text within the domain layer.
type Passage struct {
	ID       int64
	Year     int
	ExamType ExamType
	Number   int
	Category Category
	Subject  string
	// Content is nil until the passage body has been ingested.
	Content *string
}

// HasContent reports whether a non-empty body is available.
func (p Passage) HasContent() bool {
	return p.Content != nil && strings.TrimSpace(*p.Content) != ""
}

// Body returns the passage content or an empty string when none has been ingested.
func (p Passage) Body() string {
	if p.Content == nil {
		return ""
	}
	return *p.Content
}

// Preview returns at most limit runes of the body, suffixed with "..." when truncated.
func (p Passage) Preview(limit int) string {
	body := p.Body()
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return body
	}

	runes := []rune(body)
	return string(runes[:limit]) + "..."
}

// Decoded returns a copy of the passage with its content entity-decoded.
func (p Passage) Decoded() Passage {
	if p.Content == nil {
		return p
	}

	decoded := Decode(*p.Content)
	p.Content = &decoded
	return p
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// Decode converts the escaped markup sequences &lt;, &gt; and &amp; into literal characters.
// No other entities are touched.
func Decode(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return entityReplacer.Replace(text)
}
