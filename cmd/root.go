package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrbatch/internal/config"
	"ocrbatch/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ocrbatch",
	Short: "ocrbatch - OCR text extraction from scanned PDFs into batch files",
	Long: `ocrbatch renders scanned PDF documents to images, runs OCR on every page,
cleans the recognized text and writes the documents of a folder into a
fixed number of batch files named batch_<index>_<characters>.txt.

OCR runs locally with Tesseract by default. Google Cloud Vision, Document AI
and OpenAI-compatible vision models are available as remote engines.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("ocrbatch executed without subcommand")

		_ = cmd.Help()
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration. An invalid environment is
// reported and replaced by the defaults so that flags can still fix it; the
// caller validates again after applying its flags.
func loadConfig(log zerolog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Could not load configuration from environment, using defaults")
		return config.Default()
	}
	return cfg
}
