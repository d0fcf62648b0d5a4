package corpus

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// DefaultProofreadRate is the default number of proofreading calls issued per second.
const DefaultProofreadRate = 3.0

// Proofreader returns a corrected version of a chunk of Korean text.
type Proofreader interface {
	Proofread(ctx context.Context, text string) (string, error)
}

// ProofreadSummary tallies a proofreading run.
type ProofreadSummary struct {
	Total   int
	Changed int
	Empty   int
}

// ProofreadOptions configures a ProofreadRunner.
type ProofreadOptions struct {
	Checker   Proofreader
	Fs        afero.Fs
	Logger    *logrus.Logger
	Limiter   *rate.Limiter
	ChunkSize int
}

// ProofreadRunner rewrites corpus files with proofread text.
type ProofreadRunner struct {
	checker   Proofreader
	fs        afero.Fs
	logger    *logrus.Logger
	limiter   *rate.Limiter
	chunkSize int
}

// NewProofreadRunner validates the options and builds a runner.
func NewProofreadRunner(opts ProofreadOptions) (*ProofreadRunner, error) {
	if opts.Checker == nil {
		return nil, eris.New("proofreader is required")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultProofreadRate), 1)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &ProofreadRunner{
		checker:   opts.Checker,
		fs:        fs,
		logger:    opts.Logger,
		limiter:   limiter,
		chunkSize: chunkSize,
	}, nil
}

// Run proofreads every .txt file in dir in name order. Files are written back only when the
// corrected text differs from the original.
func (r *ProofreadRunner) Run(ctx context.Context, dir string) (ProofreadSummary, error) {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return ProofreadSummary{}, eris.Wrapf(err, "reading corpus directory %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TextSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var summary ProofreadSummary
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "proofreading interrupted")
		}

		summary.Total++
		path := filepath.Join(dir, name)
		fields := logrus.Fields{"file": name}

		raw, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return summary, eris.Wrapf(err, "reading %s", name)
		}

		original := string(raw)
		if strings.TrimSpace(original) == "" {
			summary.Empty++
			r.log(fields, logrus.DebugLevel, "skipping empty file")
			continue
		}

		corrected := r.Correct(ctx, original)
		if strings.TrimSpace(corrected) == strings.TrimSpace(original) {
			r.log(fields, logrus.DebugLevel, "no corrections")
			continue
		}

		if err := afero.WriteFile(r.fs, path, []byte(corrected), 0o644); err != nil {
			return summary, eris.Wrapf(err, "writing %s", name)
		}
		summary.Changed++

		diff, diffErr := UnifiedDiff(original, corrected)
		if diffErr == nil {
			fields["diff"] = diff
		}
		r.log(fields, logrus.InfoLevel, "file corrected")
	}

	return summary, nil
}

// Correct proofreads text chunk by chunk. A chunk whose call fails is kept as it was.
func (r *ProofreadRunner) Correct(ctx context.Context, text string) string {
	chunks := SplitChunks(text, r.chunkSize)
	corrected := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			corrected = append(corrected, chunk)
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			corrected = append(corrected, chunk)
			continue
		}

		fixed, err := r.checker.Proofread(ctx, chunk)
		if err != nil || strings.TrimSpace(fixed) == "" {
			if err != nil && r.logger != nil {
				r.logger.WithField("error", err.Error()).Warn("proofreading chunk failed, keeping original")
			}
			corrected = append(corrected, chunk)
			continue
		}
		corrected = append(corrected, fixed)
	}

	return strings.TrimSpace(strings.Join(corrected, "\n")) + "\n"
}

// UnifiedDiff renders the changed lines between two versions of a text without context lines.
func UnifiedDiff(original, corrected string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        splitTrimmedLines(original),
		B:        splitTrimmedLines(corrected),
		FromFile: "original",
		ToFile:   "corrected",
		Context:  0,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", eris.Wrap(err, "rendering diff")
	}
	return text, nil
}

func splitTrimmedLines(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for idx := range lines {
		lines[idx] += "\n"
	}
	return lines
}

func (r *ProofreadRunner) log(fields logrus.Fields, level logrus.Level, message string) {
	if r.logger == nil {
		return
	}
	r.logger.WithFields(fields).Log(level, message)
}
