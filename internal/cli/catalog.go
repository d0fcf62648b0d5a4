package cli

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"guka/app/internal/domain/passage"
)

// catalogFile is the YAML layout accepted by "catalog import".
type catalogFile struct {
	Passages []catalogEntry `yaml:"passages"`
}

type catalogEntry struct {
	ID       int64  `yaml:"id"`
	Year     int    `yaml:"year"`
	ExamType string `yaml:"exam_type"`
	Number   int    `yaml:"number"`
	Category string `yaml:"category"`
	Subject  string `yaml:"subject"`
}

func (a *app) newCatalogCommand() *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Manage passage metadata",
	}

	catalog.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Create or update passage metadata from a YAML file",
		Long: `Import upserts passage rows from a YAML catalog. Existing content is left untouched.

Example file:
  passages:
    - id: 1
      year: 2024
      exam_type: CSAT
      number: 1
      category: SCIENCE
      subject: 양자 컴퓨터`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passages, err := loadCatalog(a.opts.Fs, args[0])
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			service, err := passage.NewService(store.Repository, a.logger, a.sentryHub)
			if err != nil {
				return eris.Wrap(err, "creating passage service")
			}

			if err := service.Import(cmd.Context(), passages); err != nil {
				return err
			}

			cmd.Printf("imported %d passages\n", len(passages))
			return nil
		},
	})

	return catalog
}

func loadCatalog(fs afero.Fs, path string) ([]passage.Passage, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading catalog %s", path)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "decoding catalog %s", path)
	}

	passages := make([]passage.Passage, 0, len(file.Passages))
	for idx, entry := range file.Passages {
		examType, err := passage.ParseExamType(entry.ExamType)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog entry %d", idx)
		}
		category, err := passage.ParseCategory(entry.Category)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog entry %d", idx)
		}

		passages = append(passages, passage.Passage{
			ID:       entry.ID,
			Year:     entry.Year,
			ExamType: examType,
			Number:   entry.Number,
			Category: category,
			Subject:  entry.Subject,
		})
	}

	return passages, nil
}
