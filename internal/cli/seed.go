package cli

import (
	"context"
	"fmt"
	"os"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/config"
	"quiz-competition-service/internal/logger"

	"github.com/spf13/cobra"
)

// NewSeedCmd loads a YAML question bank into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load departments and questions from a YAML question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if bankPath == "" {
				bankPath = cfg.Quiz.QuestionBank
			}
			if bankPath == "" {
				return fmt.Errorf("no question bank given (use --file or quiz.question_bank)")
			}

			// Seeding goes straight to Postgres; skip the in-memory fallback.
			cfg.Quiz.QuestionBank = ""
			repos, err := openRepositories(cmd.Context(), cfg, log, true)
			if err != nil {
				return err
			}
			defer repos.Close()

			report, err := seedFromFile(cmd.Context(), repos.catalog, bankPath)
			if err != nil {
				return err
			}
			log.Info().
				Str("file", bankPath).
				Int("departments", report.Departments).
				Int("questions", report.Questions).
				Msg("question bank loaded")
			return nil
		},
	}
	cmd.Flags().StringVarP(&bankPath, "file", "f", "", "question bank YAML (defaults to quiz.question_bank)")
	return cmd
}

func seedFromFile(ctx context.Context, catalog app.CatalogWriter, path string) (app.SeedReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return app.SeedReport{}, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()

	bank, err := app.LoadQuestionBank(f)
	if err != nil {
		return app.SeedReport{}, err
	}
	return app.NewSeeder(catalog).Seed(ctx, bank)
}
