package main

import (
	"fmt"

	"github.com/dgallion1/docblocks/internal/export"
	"github.com/dgallion1/docblocks/internal/parser"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/spf13/cobra"
)

func newExportCmd(logger loggerFunc) *cobra.Command {
	var (
		format      string
		out         string
		name        string
		frontMatter bool
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Reassemble a document and write it as md, html or docx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			exp, err := export.ForFormat(export.Format(format))
			if err != nil {
				return err
			}

			doc, err := loadDocument(log, args[0])
			if err != nil {
				return err
			}
			sess := session.New()
			sess.Load(doc)

			if name == "" {
				name = parser.Title(args[0])
			}
			meta := export.Metadata{
				Name:        name,
				Title:       name,
				Format:      export.Format(format),
				FrontMatter: frontMatter,
			}
			data, err := exp.Export(cmd.Context(), sess.Flatten(), meta)
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}

			if out == "" {
				out = export.Filename(meta, exp)
			}
			if err := writeOutput(cmd.OutOrStdout(), out, data); err != nil {
				return err
			}
			log.Info("exported", "format", format, "output", out, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format: md, html or docx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default derived from name, - for stdout)")
	cmd.Flags().StringVar(&name, "name", "", "Document name (default: input file name)")
	cmd.Flags().BoolVar(&frontMatter, "front-matter", false, "Prepend YAML front matter (md only)")
	return cmd
}
