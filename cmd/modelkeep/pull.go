package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/downloader"
)

var errCancelled = errors.New("download cancelled")

func pullCmd(o *overrides) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "pull <model-id>",
		Short: "Download a model and wait for it to finish",
		Long: "Download every file of a model in the foreground. Ctrl-C cancels the\n" +
			"download; a second Ctrl-C exits immediately.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := openApp(o, wireOpts{logOut: io.Discard})
			if err != nil {
				return err
			}
			defer a.Close()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-sig:
					signal.Stop(sig)
					fmt.Fprintln(cmd.ErrOrStderr(), "\ncancelling...")
					a.svc.CancelDownload(id)
				case <-done:
					signal.Stop(sig)
				}
			}()

			pr := &progressLine{w: cmd.OutOrStdout(), quiet: quiet}
			if err := a.svc.Pull(cmd.Context(), id, downloader.ReporterFunc(pr.report)); err != nil {
				return err
			}
			if pr.last.Status == data.StatusCancelled {
				return errCancelled
			}
			path, _, err := a.svc.Path(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the final path")
	return cmd
}

// progressLine renders events on a single terminal line, at most every
// renderEvery unless the event is terminal.
type progressLine struct {
	w     io.Writer
	quiet bool
	last  data.ProgressEvent
	drawn time.Time
}

const renderEvery = 200 * time.Millisecond

func (p *progressLine) report(e data.ProgressEvent) {
	p.last = e
	if p.quiet {
		return
	}
	terminal := e.Status.Terminal()
	if !terminal && time.Since(p.drawn) < renderEvery {
		return
	}
	p.drawn = time.Now()
	fmt.Fprintf(p.w, "\r\x1b[K%s", formatProgress(e))
	if terminal {
		fmt.Fprintln(p.w)
	}
}

func formatProgress(e data.ProgressEvent) string {
	size := humanize.IBytes(e.DownloadedBytes)
	if e.TotalBytes > 0 {
		size = fmt.Sprintf("%3d%%  %s / %s", e.Percentage, size, humanize.IBytes(e.TotalBytes))
	}
	return fmt.Sprintf("%s  %s  %.1f MiB/s  %s", e.ModelID, size, e.SpeedMBps, e.Status)
}
