package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"guka/app/internal/domain/corpus"
	"guka/app/internal/infrastructure/llm/openai"
)

func (a *app) newProofreadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proofread [dir]",
		Short: "Fix spelling and spacing in corpus files with an LLM",
		Long: `Proofread sends every .txt file in the corpus directory through a chat completion model in
sentence-aligned chunks and rewrites files whose text changed. Calls are paced by --rps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.CorpusDir
			if len(args) == 1 {
				dir = args[0]
			}

			checker, err := a.proofreader()
			if err != nil {
				return err
			}

			rps := a.cfg.ProofreadRPS
			if rps <= 0 {
				rps = corpus.DefaultProofreadRate
			}

			runner, err := corpus.NewProofreadRunner(corpus.ProofreadOptions{
				Checker: checker,
				Fs:      a.opts.Fs,
				Logger:  a.logger,
				Limiter: rate.NewLimiter(rate.Limit(rps), 1),
			})
			if err != nil {
				return eris.Wrap(err, "creating proofreader")
			}

			summary, err := runner.Run(cmd.Context(), dir)
			cmd.Printf("total=%d changed=%d empty=%d\n", summary.Total, summary.Changed, summary.Empty)
			return err
		},
	}

	cmd.Flags().Float64("rps", 0, "proofreading requests per second")
	cmd.Flags().String("model", "", "chat completion model")
	_ = a.v.BindPFlag("proofread_rps", cmd.Flags().Lookup("rps"))
	_ = a.v.BindPFlag("llm_model", cmd.Flags().Lookup("model"))

	return cmd
}

func (a *app) proofreader() (corpus.Proofreader, error) {
	if a.opts.Proofreader != nil {
		return a.opts.Proofreader, nil
	}

	client, err := openai.NewClient(openai.ClientOptions{
		APIKey:  a.cfg.LLMAPIKey,
		BaseURL: a.cfg.LLMEndpoint,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating llm client")
	}

	return openai.NewProofreader(openai.ProofreaderOptions{
		Client: client,
		Model:  a.cfg.LLMModel,
	})
}
