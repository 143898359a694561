package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/statekit-dev/statekit/pkg/inspect"
	"github.com/statekit-dev/statekit/pkg/instrument"
	"github.com/statekit-dev/statekit/pkg/store"
)

func inspectCmd() *cobra.Command {
	var (
		addr string
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run the store inspector server",
		Long: `Run the store inspector server.

The inspector streams one JSON record per store mutation to every
client connected to /ws, and serves engine metrics in Prometheus
format on /metrics.

With --demo, a set of demo stores mutates on a timer so the stream
has traffic to show.

Examples:
  statekit inspect
  statekit inspect --addr=0.0.0.0:9000 --demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(addr, demo)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8090", "Address to listen on")
	cmd.Flags().BoolVar(&demo, "demo", false, "Mutate a set of demo stores on a timer")

	return cmd
}

func runInspect(addr string, demo bool) error {
	logger := slog.Default().With("component", "cli")

	if _, err := instrument.RegisterMetrics(); err != nil {
		return err
	}

	cfg := inspect.DefaultConfig()
	cfg.Address = addr
	server := inspect.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if demo {
		stopDemo := startDemoStores(ctx, server)
		defer stopDemo()
	}

	logger.Info("starting inspector", "address", addr, "demo", demo)
	return server.Start(ctx)
}

// startDemoStores wires a small store graph and mutates it on a
// ticker: an atom counter, a map profile, a deep map document, and a
// computed summary over the first two.
func startDemoStores(ctx context.Context, server *inspect.Server) func() {
	counter := store.NewAtom(0)
	profile := store.NewMap(map[string]string{"name": "demo"})
	document := store.NewDeepMap(map[string]any{
		"items": []any{map[string]any{"label": "first", "done": false}},
	})
	summary := store.NewComputed([]store.Dependency{counter, profile}, func() string {
		return profile.Get()["name"] + "#" + strconv.Itoa(counter.Get())
	})

	unwatch := []func(){
		inspect.WatchAtom(server, "counter", counter),
		inspect.WatchMap(server, "profile", profile),
		inspect.WatchDeepMap(server, "document", document),
		inspect.WatchComputed(server, "summary", summary),
	}

	tick := store.Action(counter, "tick", func(s *store.Atom[int], _ struct{}) (int, error) {
		s.Set(s.Get() + 1)
		return s.Get(), nil
	})

	ticker := time.NewTicker(2 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := tick(struct{}{}); err != nil {
					return
				}
				n := counter.Get()
				profile.SetKey("last_tick", strconv.Itoa(n))
				document.SetKey("items[0].done", n%2 == 0)
			}
		}
	}()

	return func() {
		for _, u := range unwatch {
			u()
		}
		store.CleanStores(counter, profile, document, summary)
	}
}

