package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/highlight"
	"github.com/dgallion1/readaloud/internal/reader"
	"github.com/dgallion1/readaloud/internal/session"
	"github.com/dgallion1/readaloud/internal/speech"
	"github.com/dgallion1/readaloud/internal/speech/command"
	"github.com/dgallion1/readaloud/internal/speech/mock"
)

// contextRunes is how much text is shown either side of the spoken word.
const contextRunes = 36

var completeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#00FF00")).
	Bold(true)

func newReadCmd() *cobra.Command {
	var (
		page        int
		driverName  string
		binary      string
		wpm         int
		acrossPages bool
		plain       bool
	)
	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Read a document aloud, highlighting each word as it is spoken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openFile(args[0])
			if err != nil {
				return err
			}
			driver, err := newDriver(driverName, binary, wpm)
			if err != nil {
				return err
			}
			if !driver.Supported() {
				return fmt.Errorf("speech command %q not found in PATH", binary)
			}

			desk := session.New(driver, session.Options{
				Chunk: chunker.Config{
					MaxLength:  cfg.ChunkMaxLength,
					BreakRatio: cfg.ChunkBreakRatio,
				},
				ReadAcrossPages: acrossPages,
			}, log)

			// Hooks run under the reader lock; never block them.
			events := make(chan reader.Event, 1024)
			desk.AddHook(func(e reader.Event) {
				select {
				case events <- e:
				default:
				}
			})

			desk.Open(doc)
			if err := desk.GoToPage(page); err != nil {
				return fmt.Errorf("page %d: %w (document has %d)", page, err, doc.PageCount())
			}

			if err := desk.StartReading(); err != nil {
				return err
			}

			if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
				_, err := tea.NewProgram(newModel(desk, events), tea.WithAltScreen()).Run()
				desk.Close()
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, describe(doc))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return follow(ctx, desk, events, out)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to start reading from")
	cmd.Flags().StringVarP(&driverName, "driver", "d", config.DriverCommand, "speech driver (command or mock)")
	cmd.Flags().StringVar(&binary, "command", cfg.SpeechCommand, "speech command for the command driver")
	cmd.Flags().IntVar(&wpm, "wpm", cfg.SpeechWPM, "speaking rate used for word timing")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the spoken word line by line instead of the interactive view")
	cmd.Flags().BoolVarP(&acrossPages, "across-pages", "a", cfg.ReadAcrossPages, "continue onto the next page when a page finishes")
	return cmd
}

func newDriver(name, binary string, wpm int) (speech.Driver, error) {
	if wpm <= 0 {
		return nil, fmt.Errorf("--wpm must be positive (got %d)", wpm)
	}
	switch name {
	case config.DriverCommand:
		args := cfg.SpeechArgs
		if binary != cfg.SpeechCommand {
			args = nil
		}
		return command.New(command.Config{
			Binary:         binary,
			Args:           args,
			WordsPerMinute: wpm,
		}, log), nil
	case config.DriverMock:
		return mock.New(time.Minute / time.Duration(wpm)), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want %s or %s)", name, config.DriverCommand, config.DriverMock)
	}
}

// follow renders reader events until the reading is done or ctx is cancelled.
func follow(ctx context.Context, desk *session.Desk, events <-chan reader.Event, w io.Writer) error {
	var (
		text        string
		readingPage int
		idle        <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			desk.Close()
			fmt.Fprintln(w)
			return nil

		case <-idle:
			// The next page never started.
			fmt.Fprintln(w)
			return nil

		case e := <-events:
			switch e.Kind {
			case reader.EventSessionStart:
				idle = nil
				view, err := desk.Page()
				if err != nil {
					return err
				}
				text, readingPage = view.Text, view.Page
				fmt.Fprintf(w, "\n%s\n", statusStyle.Render(fmt.Sprintf("page %d/%d", view.Page, view.TotalPages)))

			case reader.EventHighlight:
				if e.Highlight == nil {
					continue
				}
				fmt.Fprint(w, "\r\033[K"+renderWindow(highlight.Split(text, *e.Highlight)))

			case reader.EventSessionEnd:
				switch e.Reason {
				case reader.ReasonCompleted:
				case reader.ReasonDriverError:
					fmt.Fprintln(w)
					return errors.New("speech engine failed")
				default:
					fmt.Fprintln(w)
					return nil
				}
				st := desk.Status()
				if !st.ReadAcrossPages || readingPage >= st.TotalPages {
					fmt.Fprintln(w, "\n"+completeStyle.Render("Reading complete!"))
					return nil
				}
				idle = time.After(2 * time.Second)
			}
		}
	}
}

// renderWindow shows the spoken word with a little context on one line.
func renderWindow(before, word, after string) string {
	return tail(flatten(before), contextRunes) + wordStyle.Render(word) + head(flatten(after), contextRunes)
}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ", "\f", " ")

func flatten(s string) string {
	return flattener.Replace(s)
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n:])
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
