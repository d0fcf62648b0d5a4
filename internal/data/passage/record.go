package passage

import (
	"time"

	"github.com/rotisserie/eris"

	domainpassage "guka/app/internal/domain/passage"
)

// PassageRecord represents a passage row persisted in the database.
type PassageRecord struct {
	ID        int64   `gorm:"primaryKey;autoIncrement:false"`
	Year      int     `gorm:"not null;index:idx_passages_order,priority:1"`
	ExamType  string  `gorm:"size:16;not null;index:idx_passages_order,priority:2"`
	Number    int     `gorm:"not null;index:idx_passages_order,priority:3"`
	Category  string  `gorm:"size:16;not null"`
	Subject   string  `gorm:"size:512;not null"`
	Content   *string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName defines the table name for the passage model.
func (PassageRecord) TableName() string {
	return "passages"
}

// revisionRowID is the single row of the catalog_revision table.
const revisionRowID = 1

// RevisionRecord counts committed catalog writes. Every write through Repository bumps it in the
// same transaction, so readers in other processes can tell their cached results are stale.
type RevisionRecord struct {
	ID       int   `gorm:"primaryKey;autoIncrement:false"`
	Revision int64 `gorm:"not null;default:0"`
}

// TableName defines the table name for the revision counter.
func (RevisionRecord) TableName() string {
	return "catalog_revision"
}

func toDomainPassage(record *PassageRecord) (*domainpassage.Passage, error) {
	if record == nil {
		return nil, nil
	}

	examType, err := domainpassage.ParseExamType(record.ExamType)
	if err != nil {
		return nil, eris.Wrapf(err, "passage %d", record.ID)
	}

	category, err := domainpassage.ParseCategory(record.Category)
	if err != nil {
		return nil, eris.Wrapf(err, "passage %d", record.ID)
	}

	var content *string
	if record.Content != nil {
		value := *record.Content
		content = &value
	}

	return &domainpassage.Passage{
		ID:       record.ID,
		Year:     record.Year,
		ExamType: examType,
		Number:   record.Number,
		Category: category,
		Subject:  record.Subject,
		Content:  content,
	}, nil
}

func fromDomainPassage(p domainpassage.Passage) PassageRecord {
	return PassageRecord{
		ID:       p.ID,
		Year:     p.Year,
		ExamType: string(p.ExamType),
		Number:   p.Number,
		Category: string(p.Category),
		Subject:  p.Subject,
		Content:  p.Content,
	}
}
