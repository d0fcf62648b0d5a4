package cli

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"guka/app/internal/domain/passage"
)

func (a *app) newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the passage count and the first stored passage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			service, err := passage.NewService(store.Repository, a.logger, a.sentryHub)
			if err != nil {
				return eris.Wrap(err, "creating passage service")
			}

			count, err := service.Count(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("passages: %d\n", count)

			sample, err := service.Sample(cmd.Context())
			if errors.Is(err, passage.ErrNotFound) {
				cmd.Println("no passages stored")
				return nil
			}
			if err != nil {
				return err
			}

			cmd.Printf("first: #%d %d %s %d번 [%s] %s (content: %t)\n",
				sample.ID, sample.Year, sample.ExamType.Label(), sample.Number,
				sample.Category.Label(), sample.Subject, sample.HasContent())
			return nil
		},
	}
}
