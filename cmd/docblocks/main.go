// Command docblocks segments documents into prose and table blocks from the
// command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/docblocks/internal/parser"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "docblocks",
		Short: "Split documents into prose and table blocks",
		Long: `docblocks reads a document, splits it into prose and table blocks,
and lets you inspect, edit and export it.

Examples:
  docblocks segment notes.md --output yaml
  docblocks show report.docx --width 100
  docblocks set-cell notes.md table-7 1 1 "42"
  docblocks export notes.md --format docx -o notes.docx`,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(
		newSegmentCmd(logger),
		newShowCmd(logger),
		newSetCellCmd(logger),
		newExportCmd(logger),
	)
	return root
}

type loggerFunc func(cmd *cobra.Command) *slog.Logger

// loadDocument imports path with the importer matching its extension.
func loadDocument(log *slog.Logger, path string) (string, error) {
	imp, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := imp.Import(f, path)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", path, err)
	}
	log.Debug("document loaded", "path", path, "importer", fmt.Sprintf("%T", imp), "bytes", len(doc))
	return doc, nil
}

func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
