package main

import (
	"fmt"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/dgallion1/docblocks/internal/render"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/spf13/cobra"
)

func newShowCmd(logger loggerFunc) *cobra.Command {
	var (
		width int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Render each block for the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			doc, err := loadDocument(log, args[0])
			if err != nil {
				return err
			}

			sess := session.New()
			sess.Load(doc)
			r := render.New()
			toText := func(md string) (string, error) { return r.Terminal(md, width) }
			if plain {
				toText = r.PlainText
			}
			out := cmd.OutOrStdout()

			for _, b := range sess.Snapshot() {
				marker := ""
				if sess.Editable(b.ID) {
					marker = " (editable)"
				}
				fmt.Fprintf(out, "[%s]%s\n", b.ID, marker)

				if b.Kind == block.KindTable {
					fmt.Fprintln(out, grid.Parse(b.Text).Markdown())
					continue
				}
				text, err := toText(b.Text)
				if err != nil {
					log.Warn("render failed, showing source", "block_id", b.ID, "error", err)
					text = b.Text
				}
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 80, "Word wrap width for prose")
	cmd.Flags().BoolVar(&plain, "plain", false, "Strip markup from prose instead of terminal styling")
	return cmd
}
