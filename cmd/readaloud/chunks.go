package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/readaloud/internal/chunker"
)

func newChunksCmd() *cobra.Command {
	var (
		page      int
		maxLength int
	)
	cmd := &cobra.Command{
		Use:   "chunks FILE",
		Short: "Print the utterance chunks for a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openFile(args[0])
			if err != nil {
				return err
			}
			text, ok := doc.Page(page)
			if !ok {
				return fmt.Errorf("page %d out of range (1-%d)", page, doc.PageCount())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, describe(doc))
			chunks := chunker.Split(text, chunker.Config{MaxLength: maxLength, BreakRatio: cfg.ChunkBreakRatio})
			fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("page %d/%d, %d chunks", page, doc.PageCount(), len(chunks))))
			for _, c := range chunks {
				fmt.Fprintf(out, "\n%s\n%s\n",
					titleStyle.Render(fmt.Sprintf("#%d @%d (%d chars)", c.Index+1, c.Start, c.Len())),
					c.Text,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&maxLength, "max-length", cfg.ChunkMaxLength, "maximum chunk length in characters")
	return cmd
}
