package passage

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"A &lt;B&gt; C &amp; D": "A <B> C & D",
		"plain":                 "plain",
		"&amp;lt;":              "&lt;",
		"&quot;kept&quot;":      "&quot;kept&quot;",
		"":                      "",
	}

	for input, want := range cases {
		if got := Decode(input); got != want {
			t.Errorf("Decode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPassagePreviewCountsRunes(t *testing.T) {
	t.Parallel()

	body := "가나다라마바사"
	p := Passage{Content: &body}

	if got := p.Preview(3); got != "가나다..." {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
	if got := p.Preview(150); got != body {
		t.Fatalf("expected untouched body, got %q", got)
	}
	if got := (Passage{}).Preview(10); got != "" {
		t.Fatalf("expected empty preview without content, got %q", got)
	}
}

func TestDecodedLeavesNilContent(t *testing.T) {
	t.Parallel()

	p := Passage{ID: 1}
	if p.Decoded().Content != nil {
		t.Fatalf("expected nil content to stay nil")
	}
	if p.HasContent() {
		t.Fatalf("expected HasContent false for nil content")
	}
}

func TestParseExamTypeRejectsUnknown(t *testing.T) {
	t.Parallel()

	for idx, exam := range ExamTypes {
		parsed, err := ParseExamType(string(exam))
		if err != nil {
			t.Fatalf("ParseExamType(%q) returned error: %v", exam, err)
		}
		if parsed.Rank() != idx {
			t.Fatalf("expected rank %d for %q, got %d", idx, exam, parsed.Rank())
		}
		if parsed.Label() == "" {
			t.Fatalf("expected label for %q", exam)
		}
	}

	if _, err := ParseExamType("MOCK_3"); !errors.Is(err, ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue, got %v", err)
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, category := range Categories {
		if _, err := ParseCategory(string(category)); err != nil {
			t.Fatalf("ParseCategory(%q) returned error: %v", category, err)
		}
	}

	if CategoryTheory.Label() != "독서론" {
		t.Fatalf("unexpected label %q", CategoryTheory.Label())
	}

	if _, err := ParseCategory("HISTORY"); !errors.Is(err, ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue, got %v", err)
	}
}
