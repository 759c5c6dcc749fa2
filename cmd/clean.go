package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ocrbatch/internal/logger"
	"ocrbatch/internal/text"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Normalize raw OCR text the way batch files store it",
	Long: `Remove "--- Page N ---" markers, replace "~" with "-", collapse every run of
whitespace into one space and trim the result. Reads stdin when no file is given.`,
	Example: `  ocrbatch clean raw.txt
  ocrbatch ocr scan.pdf | ocrbatch clean`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runClean(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("clean")
	outputPath, _ := cmd.Flags().GetString("output")

	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to read input")
		return fmt.Errorf("failed to read input: %w", err)
	}

	return writeOutput(outputPath, []byte(text.Clean(string(data))+"\n"), log)
}
