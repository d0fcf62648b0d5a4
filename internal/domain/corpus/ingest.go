package corpus

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"guka/app/internal/domain/passage"
)

// TextSuffix marks the corpus files considered for ingestion.
const TextSuffix = ".txt"

// ContentUpdater overwrites the content of an existing passage.
type ContentUpdater interface {
	UpdateContent(ctx context.Context, id int64, content string) (bool, error)
}

// Skip records why a candidate file did not update a passage.
type Skip struct {
	File   string
	ID     int64
	Reason error
}

// Report tallies the outcome of an ingestion run.
type Report struct {
	Found   int
	Updated int
	Skipped int
	Skips   []Skip
}

// IngesterOptions configures an Ingester.
type IngesterOptions struct {
	Store   ContentUpdater
	Fs      afero.Fs
	Logger  *logrus.Logger
	Workers int
}

// Ingester copies numbered text files into the content of matching passages.
type Ingester struct {
	store   ContentUpdater
	fs      afero.Fs
	logger  *logrus.Logger
	workers int
}

// NewIngester validates the options and builds an Ingester. The OS filesystem is used when
// none is supplied.
func NewIngester(opts IngesterOptions) (*Ingester, error) {
	if opts.Store == nil {
		return nil, eris.New("content store is required")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Ingester{
		store:   opts.Store,
		fs:      fs,
		logger:  opts.Logger,
		workers: workers,
	}, nil
}

type outcome struct {
	file    string
	id      int64
	updated bool
	reason  error
}

// Ingest processes every .txt file directly inside dir. Individual file failures are counted
// as skipped and never abort the run; an unreadable dir is fatal. When ctx is cancelled the
// partial report is returned together with the context error.
func (i *Ingester) Ingest(ctx context.Context, dir string) (Report, error) {
	entries, err := afero.ReadDir(i.fs, dir)
	if err != nil {
		return Report{}, eris.Wrapf(err, "reading corpus directory %s", dir)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TextSuffix) {
			continue
		}
		candidates = append(candidates, entry.Name())
	}

	i.logInfo(logrus.Fields{"dir": dir, "files": len(candidates)}, "found corpus text files")

	pool, err := ants.NewPool(i.workers)
	if err != nil {
		return Report{}, eris.Wrap(err, "creating ingestion worker pool")
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = make([]outcome, 0, len(candidates))
		report   = Report{Found: len(candidates)}
	)

	for _, name := range candidates {
		if ctx.Err() != nil {
			break
		}

		name := name
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result := i.ingestOne(ctx, dir, name)
			mu.Lock()
			outcomes = append(outcomes, result)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			outcomes = append(outcomes, outcome{file: name, reason: eris.Wrap(submitErr, "scheduling file")})
			mu.Unlock()
		}
	}

	wg.Wait()

	for _, result := range outcomes {
		if result.updated {
			report.Updated++
			continue
		}
		report.Skipped++
		report.Skips = append(report.Skips, Skip{File: result.file, ID: result.id, Reason: result.reason})
	}

	i.logInfo(logrus.Fields{"updated": report.Updated, "skipped": report.Skipped}, "corpus ingestion finished")

	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "corpus ingestion interrupted")
	}

	return report, nil
}

// IngestFile applies the ingestion rules to a single file and reports whether a passage was updated.
func (i *Ingester) IngestFile(ctx context.Context, file string) (bool, error) {
	name := filepath.Base(file)
	if !strings.HasSuffix(name, TextSuffix) {
		return false, eris.Errorf("%s is not a %s file", name, TextSuffix)
	}

	result := i.ingestOne(ctx, filepath.Dir(file), name)
	if result.updated {
		return true, nil
	}
	return false, result.reason
}

func (i *Ingester) ingestOne(ctx context.Context, dir, name string) outcome {
	result := outcome{file: name}
	fields := logrus.Fields{"file": name}

	if err := ctx.Err(); err != nil {
		result.reason = err
		return result
	}

	id, err := passage.ParseID(strings.TrimSuffix(name, TextSuffix))
	if err != nil {
		result.reason = err
		i.logWarn(fields, err, "skipping invalid filename")
		return result
	}
	result.id = id
	fields["passage_id"] = id

	raw, err := afero.ReadFile(i.fs, filepath.Join(dir, name))
	if err != nil {
		result.reason = eris.Wrapf(err, "reading %s", name)
		i.logWarn(fields, result.reason, "skipping unreadable file")
		return result
	}

	updated, err := i.store.UpdateContent(ctx, id, strings.TrimSpace(string(raw)))
	if err != nil {
		result.reason = passage.NewStorageError("updating passage content", err)
		i.logWarn(fields, result.reason, "skipping file after storage failure")
		return result
	}

	if !updated {
		result.reason = eris.Wrapf(passage.ErrNoMatchingRecord, "passage %d", id)
		i.logWarn(fields, result.reason, "no passage row for id, skipping")
		return result
	}

	result.updated = true
	if i.logger != nil {
		i.logger.WithFields(fields).Debug("passage content updated")
	}
	return result
}

func (i *Ingester) logInfo(fields logrus.Fields, message string) {
	if i.logger == nil {
		return
	}
	i.logger.WithFields(fields).Info(message)
}

func (i *Ingester) logWarn(fields logrus.Fields, err error, message string) {
	if i.logger == nil {
		return
	}
	i.logger.WithFields(fields).WithField("error", err.Error()).Warn(message)
}
