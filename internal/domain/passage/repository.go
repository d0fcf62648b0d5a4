package passage

import "context"

// SearchCriteria describes a case-insensitive substring match over subject and decoded content.
// Results are ordered by year descending, exam type rank, number and finally id.
type SearchCriteria struct {
	Query string
}

// Repository defines persistence operations supported by the passage domain.
type Repository interface {
	Count(ctx context.Context) (int64, error)
	// GetByID returns nil without error when no passage has the identifier.
	GetByID(ctx context.Context, id int64) (*Passage, error)
	// First returns the passage with the lowest identifier, or nil when storage is empty.
	First(ctx context.Context) (*Passage, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]Passage, error)
	// UpdateContent overwrites the content of an existing passage and reports whether a row matched.
	UpdateContent(ctx context.Context, id int64, content string) (bool, error)
	// Upsert stores passage metadata, leaving any ingested content untouched.
	Upsert(ctx context.Context, passages []Passage) error
}
