package main

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/dgallion1/docblocks/internal/grid"
	"github.com/dgallion1/docblocks/internal/session"
	"github.com/spf13/cobra"
)

func newSetCellCmd(logger loggerFunc) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "set-cell FILE BLOCK_ID ROW COL VALUE",
		Short: "Edit one table cell and print the reassembled document",
		Long: `Edit one cell of a table block. ROW 0 is the header row.
Block ids are the ones printed by "docblocks segment".`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			row, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid row %q: %w", args[2], err)
			}
			col, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid column %q: %w", args[3], err)
			}

			doc, err := loadDocument(log, args[0])
			if err != nil {
				return err
			}
			sess := session.New()
			sess.Load(doc)

			id := args[1]
			b, ok := sess.Block(id)
			if !ok {
				return fmt.Errorf("block %s not found", id)
			}
			if b.Kind != block.KindTable {
				return fmt.Errorf("block %s is %s, not a table", id, b.Kind)
			}

			g := grid.Parse(b.Text)
			if err := g.SetCell(row, col, args[4]); err != nil {
				return fmt.Errorf("set cell (%d,%d) of %dx%d table: %w", row, col, g.Height(), g.Width(), err)
			}
			sess.UpdateBlock(id, g.Markdown())
			log.Debug("cell updated", "block_id", id, "row", row, "col", col)

			return writeOutput(cmd.OutOrStdout(), out, []byte(sess.Flatten()))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Write the document to this file instead of stdout")
	return cmd
}
