package passage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"guka/app/internal/data/database"
	domainpassage "guka/app/internal/domain/passage"
)

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetByIDReturnsNilForMissingPassage(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepository(t)

	p, err := repo.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil passage for missing id, got %#v", p)
	}
}

func TestUpsertKeepsIngestedContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)
	seed(t, repo)

	updated, err := repo.UpdateContent(ctx, 1, "본문")
	if err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if !updated {
		t.Fatalf("expected row to be updated")
	}

	if err := repo.Upsert(ctx, []domainpassage.Passage{
		{ID: 1, Year: 2022, ExamType: domainpassage.ExamCSAT, Number: 4, Category: domainpassage.CategorySociety, Subject: "브레턴우즈 체제와 환율"},
	}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	stored, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.Subject != "브레턴우즈 체제와 환율" {
		t.Fatalf("expected refreshed subject, got %q", stored.Subject)
	}
	if stored.Content == nil || *stored.Content != "본문" {
		t.Fatalf("expected content to survive upsert, got %v", stored.Content)
	}
}

func TestUpdateContentReportsMissingRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)
	seed(t, repo)

	updated, err := repo.UpdateContent(ctx, 404, "nothing")
	if err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if updated {
		t.Fatalf("expected no row to match id 404")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected update never to insert, got %d rows", count)
	}
}

func TestUpdateContentOverwritesOnRepeat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)
	seed(t, repo)

	for i := 0; i < 2; i++ {
		updated, err := repo.UpdateContent(ctx, 2, "same text")
		if err != nil {
			t.Fatalf("UpdateContent returned error: %v", err)
		}
		if !updated {
			t.Fatalf("expected run %d to report updated", i+1)
		}
	}
}

func TestSearchMatchesSubjectAndDecodedContentInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)
	seed(t, repo)

	if _, err := repo.UpdateContent(ctx, 3, "Keynes &amp; the <b>gold</b> standard"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if _, err := repo.UpdateContent(ctx, 4, "A &lt;B&gt; C &amp; D"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if _, err := repo.UpdateContent(ctx, 5, "GOLD reserves"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}

	cases := []struct {
		query string
		want  []int64
	}{
		{query: "gold", want: []int64{5, 3}},
		{query: "환율", want: []int64{1}},
		{query: "<b>", want: []int64{3, 4}},
		{query: "& d", want: []int64{4}},
		{query: "amp", want: nil},
		{query: "100%", want: nil},
		{query: "_", want: nil},
	}

	for _, tc := range cases {
		results, err := repo.Search(ctx, domainpassage.SearchCriteria{Query: tc.query})
		if err != nil {
			t.Fatalf("Search(%q) returned error: %v", tc.query, err)
		}

		got := make([]int64, 0, len(results))
		for _, p := range results {
			got = append(got, p.ID)
		}

		if len(got) != len(tc.want) {
			t.Fatalf("Search(%q): expected ids %v, got %v", tc.query, tc.want, got)
		}
		for idx := range got {
			if got[idx] != tc.want[idx] {
				t.Fatalf("Search(%q): expected ids %v, got %v", tc.query, tc.want, got)
			}
		}
	}
}

func TestSearchFoldsNonASCIICapitals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)

	err := repo.Upsert(ctx, []domainpassage.Passage{
		{ID: 1, Year: 2024, ExamType: domainpassage.ExamCSAT, Number: 1, Category: domainpassage.CategoryScience, Subject: "Ω 상수와 ÉCOLE"},
		{ID: 2, Year: 2023, ExamType: domainpassage.ExamMock6, Number: 2, Category: domainpassage.CategoryHuman, Subject: "칸트의 인식론"},
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if _, err := repo.UpdateContent(ctx, 2, "Die Ärger &amp; STRASSE"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}

	cases := []struct {
		query string
		want  int64
	}{
		{query: "ω", want: 1},
		{query: "Ω", want: 1},
		{query: "école", want: 1},
		{query: "ÉCOLE", want: 1},
		{query: "Écol", want: 1},
		{query: "ärger", want: 2},
		{query: "ÄRGER & strasse", want: 2},
	}

	for _, tc := range cases {
		results, err := repo.Search(ctx, domainpassage.SearchCriteria{Query: tc.query})
		if err != nil {
			t.Fatalf("Search(%q) returned error: %v", tc.query, err)
		}
		if len(results) != 1 || results[0].ID != tc.want {
			t.Fatalf("Search(%q): expected only passage %d, got %v", tc.query, tc.want, results)
		}
	}
}

func TestRevisionGrowsOnlyWithCommittedWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)

	revision, err := repo.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision returned error: %v", err)
	}
	if revision != 0 {
		t.Fatalf("expected revision 0 on empty catalog, got %d", revision)
	}

	seed(t, repo)
	if _, err := repo.UpdateContent(ctx, 1, "본문"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if _, err := repo.UpdateContent(ctx, 404, "no row"); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}

	revision, err = repo.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision returned error: %v", err)
	}
	if revision != 2 {
		t.Fatalf("expected revision 2 after upsert and one matched update, got %d", revision)
	}
}

func TestSearchOrdersByDeclaredExamTypeNotAlphabet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)

	err := repo.Upsert(ctx, []domainpassage.Passage{
		{ID: 1, Year: 2024, ExamType: domainpassage.ExamCSAT, Number: 1, Category: domainpassage.CategoryArt, Subject: "topic"},
		{ID: 2, Year: 2024, ExamType: domainpassage.ExamMock9, Number: 1, Category: domainpassage.CategoryArt, Subject: "topic"},
		{ID: 3, Year: 2024, ExamType: domainpassage.ExamMock6, Number: 2, Category: domainpassage.CategoryArt, Subject: "topic"},
		{ID: 4, Year: 2024, ExamType: domainpassage.ExamMock6, Number: 1, Category: domainpassage.CategoryArt, Subject: "topic"},
		{ID: 5, Year: 2025, ExamType: domainpassage.ExamCSAT, Number: 9, Category: domainpassage.CategoryArt, Subject: "TOPIC"},
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	results, err := repo.Search(ctx, domainpassage.SearchCriteria{Query: "Topic"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	want := []int64{5, 4, 3, 2, 1}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for idx, id := range want {
		if results[idx].ID != id {
			t.Fatalf("expected id %d at index %d, got %d", id, idx, results[idx].ID)
		}
	}
}

func TestSearchFailsLoudlyOnUnknownEnum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, db := setupRepository(t)
	seed(t, repo)

	if err := db.Exec("UPDATE passages SET exam_type = ? WHERE id = ?", "MOCK_11", 2).Error; err != nil {
		t.Fatalf("corrupting row failed: %v", err)
	}

	_, err := repo.Search(ctx, domainpassage.SearchCriteria{Query: "열역학"})
	if !errors.Is(err, domainpassage.ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue, got %v", err)
	}

	if _, err := repo.GetByID(ctx, 2); !errors.Is(err, domainpassage.ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue from GetByID, got %v", err)
	}
}

func TestRepositoryReportsClosedDatabase(t *testing.T) {
	t.Parallel()

	repo, db := setupRepository(t)
	seed(t, repo)

	sqlDB, err := database.SQLDB(db)
	if err != nil {
		t.Fatalf("SQLDB returned error: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("closing sql.DB failed: %v", err)
	}

	if _, err := repo.Search(context.Background(), domainpassage.SearchCriteria{Query: "gold"}); err == nil {
		t.Fatalf("expected error from closed database")
	}
}

func TestRepositoryHonoursContextDeadline(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepository(t)
	seed(t, repo)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := repo.Search(ctx, domainpassage.SearchCriteria{Query: "gold"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestFirstReturnsLowestID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _ := setupRepository(t)

	first, err := repo.First(ctx)
	if err != nil {
		t.Fatalf("First returned error: %v", err)
	}
	if first != nil {
		t.Fatalf("expected nil from empty table, got %#v", first)
	}

	seed(t, repo)

	first, err = repo.First(ctx)
	if err != nil {
		t.Fatalf("First returned error: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("expected id 1, got %d", first.ID)
	}
}

func seed(t *testing.T, repo *Repository) {
	t.Helper()

	passages := []domainpassage.Passage{
		{ID: 1, Year: 2022, ExamType: domainpassage.ExamCSAT, Number: 4, Category: domainpassage.CategorySociety, Subject: "브레턴우즈 체제와 환율"},
		{ID: 2, Year: 2023, ExamType: domainpassage.ExamMock6, Number: 1, Category: domainpassage.CategoryScience, Subject: "열역학"},
		{ID: 3, Year: 2023, ExamType: domainpassage.ExamMock9, Number: 2, Category: domainpassage.CategorySociety, Subject: "금본위제"},
		{ID: 4, Year: 2021, ExamType: domainpassage.ExamMock9, Number: 7, Category: domainpassage.CategoryTheory, Subject: "기호"},
		{ID: 5, Year: 2024, ExamType: domainpassage.ExamMock6, Number: 3, Category: domainpassage.CategoryHuman, Subject: "화폐의 역사"},
	}

	if err := repo.Upsert(context.Background(), passages); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
}

func setupRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	return openRepository(t, filepath.Join(t.TempDir(), "passages.db"))
}

// openRepository opens path with its own connection pool, as a separate process would.
func openRepository(t *testing.T, path string) (*Repository, *gorm.DB) {
	t.Helper()

	gormDB, err := database.Open(database.Options{Path: path})
	if err != nil {
		t.Fatalf("database.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(gormDB)
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if err := gormDB.AutoMigrate(&PassageRecord{}, &RevisionRecord{}); err != nil {
		t.Fatalf("AutoMigrate returned error: %v", err)
	}

	repo, err := NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo, gormDB
}
