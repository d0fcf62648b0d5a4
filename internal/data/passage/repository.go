package passage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guka/app/internal/data/database"
	domainpassage "guka/app/internal/domain/passage"
)

// decodedContentSQL mirrors domainpassage.Decode so matching runs against the decoded body.
const decodedContentSQL = "REPLACE(REPLACE(REPLACE(content, '&lt;', '<'), '&gt;', '>'), '&amp;', '&')"

// searchPredicateSQL folds both columns with the Unicode-aware casefold function; the pattern is
// folded with database.FoldCase.
const searchPredicateSQL = database.CaseFoldFunc + `(subject) LIKE ? ESCAPE '\' OR (content IS NOT NULL AND ` +
	database.CaseFoldFunc + `(COALESCE(` + decodedContentSQL + `, '')) LIKE ? ESCAPE '\')`

var (
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	searchOrder = buildSearchOrder()
)

// Repository persists passages using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainpassage.Repository = (*Repository)(nil)

// Count returns the total number of stored passages.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&PassageRecord{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting passages")
		return 0, eris.Wrap(err, "counting passages")
	}

	return count, nil
}

// GetByID returns the passage with the identifier or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domainpassage.Passage, error) {
	var record PassageRecord

	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"passage_id": id}, err, "fetching passage by id")
		return nil, eris.Wrapf(err, "fetching passage by id: %d", id)
	}

	return toDomainPassage(&record)
}

// First returns the passage with the lowest identifier or nil when the table is empty.
func (r *Repository) First(ctx context.Context) (*domainpassage.Passage, error) {
	var record PassageRecord

	if err := r.db.WithContext(ctx).Order("id ASC").First(&record).Error; err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(nil, err, "fetching first passage")
		return nil, eris.Wrap(err, "fetching first passage")
	}

	return toDomainPassage(&record)
}

// Search returns every passage whose subject or decoded content contains the query,
// ignoring case, in catalog order.
func (r *Repository) Search(ctx context.Context, criteria domainpassage.SearchCriteria) ([]domainpassage.Passage, error) {
	query := strings.TrimSpace(criteria.Query)
	if query == "" {
		return []domainpassage.Passage{}, nil
	}

	pattern := "%" + likeEscaper.Replace(database.FoldCase(query)) + "%"

	var records []PassageRecord
	err := r.db.WithContext(ctx).
		Where(searchPredicateSQL, pattern, pattern).
		Order(searchOrder).
		Find(&records).Error
	if err != nil {
		r.logError(logrus.Fields{"query": query}, err, "searching passages")
		return nil, eris.Wrap(err, "searching passages")
	}

	passages := make([]domainpassage.Passage, 0, len(records))
	for idx := range records {
		p, convErr := toDomainPassage(&records[idx])
		if convErr != nil {
			r.logError(logrus.Fields{"passage_id": records[idx].ID}, convErr, "decoding passage row")
			return nil, convErr
		}
		passages = append(passages, *p)
	}

	return passages, nil
}

// UpdateContent overwrites the content column and reports whether a row matched.
func (r *Repository) UpdateContent(ctx context.Context, id int64, content string) (bool, error) {
	var updated bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&PassageRecord{}).
			Where("id = ?", id).
			Update("content", content)
		if result.Error != nil {
			return result.Error
		}

		updated = result.RowsAffected > 0
		if !updated {
			return nil
		}
		return bumpRevision(tx)
	})
	if err != nil {
		r.logError(logrus.Fields{"passage_id": id}, err, "updating passage content")
		return false, eris.Wrapf(err, "updating passage content: %d", id)
	}

	return updated, nil
}

// Upsert inserts passages or refreshes their metadata. Existing content is never overwritten.
func (r *Repository) Upsert(ctx context.Context, passages []domainpassage.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	records := make([]PassageRecord, 0, len(passages))
	for _, p := range passages {
		records = append(records, fromDomainPassage(p))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"year", "exam_type", "number", "category", "subject", "updated_at"}),
		}).CreateInBatches(records, 100).Error
		if err != nil {
			return err
		}
		return bumpRevision(tx)
	})
	if err != nil {
		r.logError(logrus.Fields{"count": len(records)}, err, "upserting passages")
		return eris.Wrap(err, "upserting passages")
	}

	return nil
}

// Revision returns the catalog write counter. It only ever grows, and zero means nothing has been
// written yet.
func (r *Repository) Revision(ctx context.Context) (int64, error) {
	var record RevisionRecord

	err := r.db.WithContext(ctx).Limit(1).Find(&record, "id = ?", revisionRowID).Error
	if err != nil {
		r.logError(nil, err, "reading catalog revision")
		return 0, eris.Wrap(err, "reading catalog revision")
	}

	return record.Revision, nil
}

func bumpRevision(tx *gorm.DB) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"revision": gorm.Expr("catalog_revision.revision + 1"),
		}),
	}).Create(&RevisionRecord{ID: revisionRowID, Revision: 1}).Error
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func buildSearchOrder() string {
	var rank strings.Builder
	rank.WriteString("CASE exam_type")
	for idx, exam := range domainpassage.ExamTypes {
		fmt.Fprintf(&rank, " WHEN '%s' THEN %d", exam, idx)
	}
	fmt.Fprintf(&rank, " ELSE %d END", len(domainpassage.ExamTypes))

	return "year DESC, " + rank.String() + " ASC, number ASC, id ASC"
}
