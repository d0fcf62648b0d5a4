package passage

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ExamType identifies which exam sitting a passage belongs to.
type ExamType string

const (
	ExamMock6 ExamType = "MOCK_6"
	ExamMock9 ExamType = "MOCK_9"
	ExamCSAT  ExamType = "CSAT"
)

// ExamTypes lists every exam type in declared order. Search results sort by this order.
var ExamTypes = []ExamType{ExamMock6, ExamMock9, ExamCSAT}

var examTypeLabels = map[ExamType]string{
	ExamMock6: "6모",
	ExamMock9: "9모",
	ExamCSAT:  "수능",
}

// ParseExamType converts a stored value into an ExamType.
func ParseExamType(raw string) (ExamType, error) {
	value := ExamType(strings.TrimSpace(raw))
	if _, ok := examTypeLabels[value]; !ok {
		return "", eris.Wrapf(ErrUnknownEnumValue, "exam type %q", raw)
	}
	return value, nil
}

// Rank returns the position of the exam type in declared order, or -1 when unknown.
func (e ExamType) Rank() int {
	for idx, candidate := range ExamTypes {
		if candidate == e {
			return idx
		}
	}
	return -1
}

// Label returns the Korean display label.
func (e ExamType) Label() string {
	return examTypeLabels[e]
}

func (e ExamType) String() string {
	return string(e)
}

// Category is the subject area of a passage.
type Category string

const (
	CategoryTheory  Category = "THEORY"
	CategorySociety Category = "SOCIETY"
	CategoryScience Category = "SCIENCE"
	CategoryHuman   Category = "HUMAN"
	CategoryTech    Category = "TECH"
	CategoryArt     Category = "ART"
	CategoryGrammar Category = "GRAMMAR"
)

// Categories lists every category in declared order.
var Categories = []Category{
	CategoryTheory,
	CategorySociety,
	CategoryScience,
	CategoryHuman,
	CategoryTech,
	CategoryArt,
	CategoryGrammar,
}

var categoryLabels = map[Category]string{
	CategoryTheory:  "독서론",
	CategorySociety: "사회",
	CategoryScience: "과학",
	CategoryHuman:   "인문",
	CategoryTech:    "기술",
	CategoryArt:     "예술",
	CategoryGrammar: "문법",
}

// ParseCategory converts a stored value into a Category.
func ParseCategory(raw string) (Category, error) {
	value := Category(strings.TrimSpace(raw))
	if _, ok := categoryLabels[value]; !ok {
		return "", eris.Wrapf(ErrUnknownEnumValue, "category %q", raw)
	}
	return value, nil
}

// Label returns the Korean display label.
func (c Category) Label() string {
	return categoryLabels[c]
}

func (c Category) String() string {
	return string(c)
}
