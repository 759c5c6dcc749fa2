package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ocrbatch/internal/logger"
	"ocrbatch/internal/text"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [file...]",
	Short: "Combine raw OCR texts into one page-separated document",
	Long: `Read raw OCR text files (as written by "ocrbatch ocr"), split each into its
pages on the "--- Page N ---" markers and join all documents with a
"---- Document Separator ----" line.

With --split-batch every input is a stored batch file instead; its documents
are recovered by splitting on ";".`,
	Example: `  # Combine two extracted documents
  ocrbatch assemble a.txt b.txt -o combined.txt

  # Lay out the documents of a batch file
  ocrbatch assemble data/batch_1_5234.txt --split-batch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssemble,
}

func init() {
	rootCmd.AddCommand(assembleCmd)

	assembleCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	assembleCmd.Flags().Bool("split-batch", false, "Treat inputs as batch files and split them on \";\"")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("assemble")

	outputPath, _ := cmd.Flags().GetString("output")
	splitBatch, _ := cmd.Flags().GetBool("split-batch")

	var documents []string
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to read input file")
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if splitBatch {
			docs := text.SplitBatch(string(data))
			log.Debug().Str("file", path).Int("documents", len(docs)).Msg("Split batch file")
			documents = append(documents, docs...)
			continue
		}
		documents = append(documents, string(data))
	}

	log.Info().
		Int("inputs", len(args)).
		Int("documents", len(documents)).
		Msg("Assembling documents")

	return writeOutput(outputPath, []byte(text.Assemble(documents)+"\n"), log)
}
