package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/document"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/parser"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	wordStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("226")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)
)

var (
	cfg     config.Config
	verbose bool
	log     *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "readaloud",
		Short:         "Read documents aloud with word-level highlighting",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
				Level:           charmlog.WarnLevel,
				ReportTimestamp: true,
			})
			if verbose {
				handler.SetLevel(charmlog.DebugLevel)
			}
			log = slog.New(handler)
			return nil
		},
	}
)

func main() {
	cfg = config.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.AddCommand(newReadCmd(), newChunksCmd(), newInfoCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// openFile extracts a document from a local file.
func openFile(path string) (*document.Document, error) {
	if !parser.IsSupportedExtension(path) {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := parser.Parse(f, path, parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	doc.ID = "local"
	return doc, nil
}

func describe(doc *document.Document) string {
	sum := library.Summarize(doc)
	mins := "under a minute"
	if sum.ReadingMins > 0 {
		mins = fmt.Sprintf("~%d min", sum.ReadingMins)
	}
	return fmt.Sprintf("%s\n%s",
		titleStyle.Render(sum.Title),
		statusStyle.Render(fmt.Sprintf("%s · %s · %s words · %s",
			sum.Type,
			pluralize(sum.Pages, "page"),
			humanize.Comma(int64(sum.Words)),
			mins,
		)),
	)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Show a document summary and outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, describe(doc))
			if len(doc.Outline) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			for _, h := range doc.Outline {
				indent := strings.Repeat("  ", max(h.Level-1, 0))
				fmt.Fprintf(out, "%s%s %s\n", indent, h.Title, statusStyle.Render(fmt.Sprintf("(p. %d)", h.Page)))
			}
			return nil
		},
	}
}
