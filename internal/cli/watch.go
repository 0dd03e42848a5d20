package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/remoteop"
)

var (
	onlineColor  = color.New(color.FgGreen, color.Bold)
	offlineColor = color.New(color.FgRed, color.Bold)
)

func newWatchCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream online/offline changes of the remote store",
		Long: `Connects to the configured backend and prints a line every time the
store goes offline or comes back. Reconnects run every --retry-interval while
offline. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			be, err := openBackend(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer be.close()

			tr, closeTracker, err := newTracker(ctx, a.cfg, be, a.log)
			if err != nil {
				return err
			}
			defer closeTracker()

			// verify the optimistic initial state before reporting
			if err := tr.ForceOnline(ctx); err != nil {
				a.log.Warn("initial connect failed", remoteop.Fields{"err": err})
			}
			out := cmd.OutOrStdout()
			tr.AddOfflineListener(func(offline bool) { printState(out, offline) })
			if once {
				return nil
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the current state and exit")
	return cmd
}

func printState(w io.Writer, offline bool) {
	ts := time.Now().Format(time.RFC3339)
	if offline {
		_, _ = offlineColor.Fprintf(w, "%s offline\n", ts)
		return
	}
	_, _ = onlineColor.Fprintf(w, "%s online\n", ts)
}
