// File: cmd/doctranslate/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "doctranslate",
	Short: "Translate documents with AI models",
	Long: `doctranslate runs the document translation pipeline locally.

Supported inputs: .txt .md .docx .pdf .srt
Provider keys are read from OPENAI_API_KEY / GEMINI_API_KEY or the config file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(translateCmd, pagesCmd, seedCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
