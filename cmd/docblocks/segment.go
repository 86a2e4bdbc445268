package main

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/docblocks/internal/block"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSegmentCmd(logger loggerFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "segment FILE",
		Short: "Print the block sequence of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			doc, err := loadDocument(log, args[0])
			if err != nil {
				return err
			}
			blocks := block.Segment(doc)
			if blocks == nil {
				blocks = []block.Block{}
			}
			log.Debug("segmented", "blocks", len(blocks))

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(blocks)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(blocks)
			default:
				return fmt.Errorf("unknown output format %q (use json or yaml)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	return cmd
}
