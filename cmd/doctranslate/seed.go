package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-document-translator/internal/application"
	"ai-document-translator/internal/config"
	pg "ai-document-translator/internal/infra/db/postgres"
	"ai-document-translator/internal/usecase"
)

var seedCmd = &cobra.Command{
	Use:   "seed-languages [code...]",
	Short: "Upsert target languages into the database",
	Long:  "Upserts the given BCP 47 codes, or a default set, as active target languages. Requires --config with database.url.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = "config.yaml"
		}
		cfg, err := config.LoadConfig(path, false)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		pool, err := pg.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		codes := args
		if len(codes) == 0 {
			codes = usecase.DefaultLanguageCodes
		}
		facade := application.NewFacade(nil, usecase.NewLanguageUseCase(pg.NewPostgresLanguageRepo(pool), logger))
		msg, err := facade.SeedLanguages(cmd.Context(), codes)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}
