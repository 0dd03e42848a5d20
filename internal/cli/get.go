package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/remoteop"
	"github.com/unkn0wn-root/remoteop/connectivity"
	asynchook "github.com/unkn0wn-root/remoteop/hooks/async"
	"github.com/unkn0wn-root/remoteop/sloghooks"
)

var errSomeFailed = errors.New("some reads failed")

// session is one executor plus everything it depends on.
type session struct {
	exec    remoteop.Executor[[]byte]
	be      *backend
	tracker *connectivity.Tracker
	close   func()
}

func (a *app) openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	be, err := openBackend(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	tr, closeTracker, err := newTracker(ctx, a.cfg, be, a.log)
	if err != nil {
		_ = be.close()
		return nil, err
	}
	opts, err := executorOptions(ctx, a.cfg, be, tr, a.log)
	if err != nil {
		closeTracker()
		_ = be.close()
		return nil, err
	}

	closeHooks := func() {}
	if a.cfg.TraceHooks {
		raw := sloghooks.New(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})), sloghooks.Options{})
		h := asynchook.New(raw, 1, 256)
		opts.Hooks, closeHooks = h, h.Close
	}

	exec, err := remoteop.New[[]byte](opts)
	if err != nil {
		closeHooks()
		closeTracker()
		_ = be.close()
		return nil, err
	}
	return &session{
		exec:    exec,
		be:      be,
		tracker: tr,
		close: func() {
			_ = exec.Close(context.Background())
			closeHooks()
			closeTracker()
			_ = be.close()
		},
	}, nil
}

func newGetCmd(a *app) *cobra.Command {
	var (
		ttl     time.Duration
		repeat  int
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "get KEY [KEY...]",
		Short: "Read documents through the executor",
		Long: `Reads each key from the remote store with retries, printing the key, the
time taken and the document. With --repeat and --ttl the later rounds show the
cache at work. --offline forces offline mode first, so nothing reaches the store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, keys []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if offline {
				if err := s.tracker.ForceOffline(ctx); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			warn := color.New(color.FgYellow).SprintFunc()
			failed := false
			for round := 0; round < max(repeat, 1); round++ {
				for _, key := range keys {
					start := time.Now()
					doc, err := s.exec.Execute(ctx, key, func(ctx context.Context) ([]byte, error) {
						return s.be.get(ctx, key)
					}, remoteop.WithTTL(ttl))
					elapsed := time.Since(start).Round(time.Microsecond)
					if err != nil {
						failed = true
						fmt.Fprintf(out, "%s\t%s\t%s\n", key, elapsed, warn(err.Error()))
						continue
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", key, elapsed, doc)
				}
			}
			if failed {
				return errSomeFailed
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "cache successful reads for this long (0 disables)")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "read every key this many times")
	cmd.Flags().BoolVar(&offline, "offline", false, "force offline mode: cut the network path and serve only cached reads")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [PATTERN]",
		Short: "Drop cached documents whose key contains PATTERN",
		Long: `Drops second-tier entries (and bumps their generations) for keys in the
namespace that contain PATTERN; no pattern drops the whole namespace. Only
meaningful with --cache redis, where the cache outlives the process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			s, err := a.openSession(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.exec.ClearCache(cmd.Context(), pattern); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %q in namespace %s\n", pattern, a.cfg.Namespace)
			return nil
		},
	}
}
