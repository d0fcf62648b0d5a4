package passage

import (
	"context"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"

	"guka/app/internal/data/database"
	domainpassage "guka/app/internal/domain/passage"
)

const cacheKeyPrefix = "guka:v2:"

// RevisionedRepository is a Repository that can report the catalog write counter.
type RevisionedRepository interface {
	domainpassage.Repository
	Revision(ctx context.Context) (int64, error)
}

// CachedRepository caches search results in front of another repository. Entries are keyed by
// the catalog revision, so a write from any process (gukactl ingest, catalog import) makes the
// next search miss. Point lookups and counts go straight to the store. Failures are never cached.
type CachedRepository struct {
	next  RevisionedRepository
	cache *gocache.Cache
}

var _ domainpassage.Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps next with an in-memory search cache.
func NewCachedRepository(next RevisionedRepository, ttl time.Duration) (*CachedRepository, error) {
	if next == nil {
		return nil, eris.New("passage repository is required")
	}
	if ttl <= 0 {
		return nil, eris.New("cache ttl must be greater than zero")
	}

	return &CachedRepository{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}, nil
}

func (c *CachedRepository) Count(ctx context.Context) (int64, error) {
	return c.next.Count(ctx)
}

func (c *CachedRepository) GetByID(ctx context.Context, id int64) (*domainpassage.Passage, error) {
	return c.next.GetByID(ctx, id)
}

func (c *CachedRepository) First(ctx context.Context) (*domainpassage.Passage, error) {
	return c.next.First(ctx)
}

func (c *CachedRepository) Search(ctx context.Context, criteria domainpassage.SearchCriteria) ([]domainpassage.Passage, error) {
	revision, err := c.next.Revision(ctx)
	if err != nil {
		return c.next.Search(ctx, criteria)
	}

	key := searchKey(revision, criteria.Query)
	if value, ok := c.cache.Get(key); ok {
		return cloneAll(value.([]domainpassage.Passage)), nil
	}

	passages, err := c.next.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, cloneAll(passages))
	return passages, nil
}

func (c *CachedRepository) UpdateContent(ctx context.Context, id int64, content string) (bool, error) {
	return c.next.UpdateContent(ctx, id, content)
}

func (c *CachedRepository) Upsert(ctx context.Context, passages []domainpassage.Passage) error {
	return c.next.Upsert(ctx, passages)
}

func searchKey(revision int64, query string) string {
	return cacheKeyPrefix + "search:" + strconv.FormatInt(revision, 10) + ":" + database.FoldCase(strings.TrimSpace(query))
}

func cloneAll(passages []domainpassage.Passage) []domainpassage.Passage {
	out := make([]domainpassage.Passage, len(passages))
	for idx := range passages {
		out[idx] = clonePassage(passages[idx])
	}
	return out
}

func clonePassage(p domainpassage.Passage) domainpassage.Passage {
	if p.Content != nil {
		content := *p.Content
		p.Content = &content
	}
	return p
}
