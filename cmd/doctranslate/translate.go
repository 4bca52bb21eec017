package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ai-document-translator/internal/application"
	"ai-document-translator/internal/config"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/usecase"
)

var (
	targetLang string
	modelName  string
	formatName string
	outputPath string
)

var translateCmd = &cobra.Command{
	Use:   "translate <file>",
	Short: "Translate one document and write the result next to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var format model.OutputFormat
		if formatName != "" {
			f, ok := model.ParseOutputFormat(formatName)
			if !ok {
				return fmt.Errorf("unknown format %q", formatName)
			}
			format = f
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		facade, err := localFacade(ctx)
		if err != nil {
			return err
		}

		res, err := facade.Translate(ctx, application.TranslateRequest{
			Path:   args[0],
			Target: targetLang,
			Model:  model.AIModel(modelName),
			Format: format,
		}, func(p int) {
			fmt.Fprintf(os.Stderr, "\r%3d%%", p)
		})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		out := outputPath
		if out == "" {
			out = filepath.Join(filepath.Dir(args[0]), res.FileName)
		}
		if err := os.WriteFile(out, res.FileData, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Print(application.Summary(res, out))
		return nil
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages <file>",
	Short: "Count the pages of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := localFacade(cmd.Context())
		if err != nil {
			return err
		}
		n, err := facade.CountPages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d pages\n", filepath.Base(args[0]), n)
		return nil
	},
}

func init() {
	translateCmd.Flags().StringVarP(&targetLang, "to", "t", "", "target language code or name (e.g. es, Spanish)")
	translateCmd.Flags().StringVarP(&modelName, "model", "m", string(model.ModelGemini25Pro), "AI model; \"basic\" skips model-based extraction")
	translateCmd.Flags().StringVarP(&formatName, "format", "f", "", "output format: markdown|html|text|srt|docx")
	translateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: <name>_translated.<ext> beside the input)")
	_ = translateCmd.MarkFlagRequired("to")
}

func newLogger(cfg *config.Config) *zerolog.Logger {
	lc := cfg.Log
	lc.Format = "console"
	lc.Level = "warn"
	if verbose {
		lc.Level = "debug"
	}
	return logging.New(lc, false)
}

// localFacade builds the pipeline without persistence.
func localFacade(ctx context.Context) (*application.Facade, error) {
	cfg, err := config.LoadLocal(strings.TrimSpace(configPath))
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	pipeline, err := application.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	tr := usecase.NewTranslationUseCase(usecase.TranslationDeps{
		Factory:  pipeline.Factory,
		AI:       pipeline.AI,
		Prompts:  pipeline.Prompts,
		Verifier: pipeline.Verifier,
		Logger:   logger,
	}, application.TranslationOptions(cfg.Translation))
	return application.NewFacade(tr, nil), nil
}
