package cli

import (
	"fmt"
	"os"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/config"
	"quiz-competition-service/internal/export"
	"quiz-competition-service/internal/logger"

	"github.com/spf13/cobra"
)

// NewExportCmd writes the leaderboard to an .xlsx workbook.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		field  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export-leaderboard",
		Short: "Export the leaderboard to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			repos, err := openRepositories(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			defer repos.Close()

			results := app.NewResultService(repos.departments, app.NewParticipantDirectory(repos.participants), repos.results)
			entries, err := results.Leaderboard(cmd.Context(), field)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteLeaderboard(f, entries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Info().Str("file", output).Int("rows", len(entries)).Msg("leaderboard exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", app.AllDepartments, "department name, or \"all\"")
	cmd.Flags().StringVarP(&output, "out", "o", "leaderboard.xlsx", "output file")
	return cmd
}
