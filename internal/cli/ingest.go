package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"guka/app/internal/domain/corpus"
)

func (a *app) newIngestCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Copy numbered .txt files into passage content",
		Long: `Ingest reads every <id>.txt file in the corpus directory and stores its trimmed text as
the content of passage <id>. Files whose name is not a number, or whose id has no passage row,
are skipped and reported. Passage rows are never created by ingestion.

Example:
  gukactl ingest ./data/corpus
  gukactl ingest --workers 8 --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.CorpusDir
			if len(args) == 1 {
				dir = args[0]
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			ingester, err := corpus.NewIngester(corpus.IngesterOptions{
				Store:   store.Repository,
				Fs:      a.opts.Fs,
				Logger:  a.logger,
				Workers: a.cfg.IngestWorkers,
			})
			if err != nil {
				return eris.Wrap(err, "creating ingester")
			}

			report, err := ingester.Ingest(cmd.Context(), dir)
			printReport(cmd, report)
			if err != nil {
				return err
			}

			if !watch {
				return nil
			}

			watcher, err := corpus.NewWatcher(corpus.WatcherOptions{
				Ingester: ingester,
				Logger:   a.logger,
				OnIngest: func(file string, updated bool, err error) {
					if updated {
						cmd.Printf("updated %s\n", file)
						return
					}
					cmd.Printf("skipped %s: %v\n", file, err)
				},
			})
			if err != nil {
				return eris.Wrap(err, "creating watcher")
			}

			cmd.Printf("watching %s for changes (Ctrl+C to stop)\n", dir)
			return watcher.Watch(cmd.Context(), dir)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-ingest files as they change")
	cmd.Flags().Int("workers", 0, "number of files processed concurrently")
	_ = a.v.BindPFlag("ingest_workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func printReport(cmd *cobra.Command, report corpus.Report) {
	for _, skip := range report.Skips {
		cmd.Printf("skipped %s: %v\n", skip.File, skip.Reason)
	}
	cmd.Printf("found=%d updated=%d skipped=%d\n", report.Found, report.Updated, report.Skipped)
}
