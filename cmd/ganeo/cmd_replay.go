package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ganeo/internal/config"
	"ganeo/internal/gtag"
	"ganeo/internal/logging"
	"ganeo/internal/script"
	"ganeo/internal/store"
	"ganeo/internal/transport"
	"ganeo/pkg/ga4"
)

var (
	replayJournal  string
	replayWatch    bool
	replayTestMode bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Replay a call script through the adapter",
	Long: `Runs every step of a YAML call script through a fresh adapter and
reports the gtag calls produced.

Trackers missing from the script are taken from tracking.measurement_ids
in the config. Client id lookups are answered locally.

Example:
  ganeo replay calls.yaml --journal data/ganeo.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := *cfg
		if replayJournal != "" {
			c.Transport.Kind = config.TransportJournal
			c.Transport.Journal = replayJournal
		}
		if replayTestMode {
			c.Tracking.TestMode = true
		}

		run := func(ctx context.Context) error {
			return replayScript(ctx, cmd.OutOrStdout(), &c, logs, args[0])
		}
		if replayWatch {
			return watchScript(ctx, args[0], run, logger)
		}
		return run(ctx)
	},
}

// sink is the transport stack for one replay.
type sink struct {
	transport gtag.Transport
	local     *transport.Local
	journal   *store.Journal
	calls     atomic.Int64
}

func (s *sink) Gtag(command gtag.Command, args ...any) {
	s.calls.Add(1)
	s.transport.Gtag(command, args...)
}

func (s *sink) wait() error {
	if s.local == nil {
		return nil
	}
	return s.local.Wait()
}

func (s *sink) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

func newSink(ctx context.Context, c *config.Config, l *logging.Logger) (*sink, error) {
	s := &sink{}
	var next gtag.Transport = transport.NewLogSink(l.Get(logging.CategoryTransport))

	if c.Transport.Kind == config.TransportJournal {
		j, err := store.OpenJournal(c.Transport.Journal, store.WithJournalLogger(l.Get(logging.CategoryJournal)))
		if err != nil {
			return nil, err
		}
		s.journal = j
		next = transport.Tee(next, j)
	}

	if c.Transport.Kind == config.TransportLog {
		s.transport = next
		return s, nil
	}

	s.local = transport.NewLocal(ctx, next,
		transport.WithLookupDelay(c.GetLookupDelay()),
		transport.WithLocalLogger(l.Get(logging.CategoryTransport)))
	s.transport = s.local
	return s, nil
}

// initialization merges the config's tracking section under the script's.
func initialization(s *script.Script, c *config.Config) ([]ga4.TrackerConfig, ga4.Options) {
	trackers := s.TrackerConfigs()
	if len(trackers) == 0 {
		trackers = ga4.Trackers(c.Tracking.MeasurementIDs...)
	}

	opts := s.AdapterOptions()
	opts.TestMode = opts.TestMode || c.Tracking.TestMode
	if opts.TitleCase == nil {
		opts.TitleCase = ga4.Bool(c.Tracking.TitleCase)
	}
	if opts.GAOptions == nil {
		opts.GAOptions = c.Tracking.GAOptions
	}
	if opts.GtagOptions == nil {
		opts.GtagOptions = c.Tracking.GtagOptions
	}
	return trackers, opts
}

func replayScript(ctx context.Context, out io.Writer, c *config.Config, l *logging.Logger, path string) error {
	s, err := script.Load(path)
	if err != nil {
		return err
	}

	snk, err := newSink(ctx, c, l)
	if err != nil {
		return err
	}
	defer snk.Close()

	g := ga4.New(snk, ga4.WithLogger(l.Get(logging.CategoryDispatch)))
	trackers, opts := initialization(s, c)
	if len(trackers) > 0 {
		g.Initialize(trackers, opts)
	}

	var (
		mu  sync.Mutex
		ids []script.ClientID
	)
	err = s.Run(ctx, g,
		script.SkipInitialize(),
		script.WithLogger(l.Get(logging.CategoryScript)),
		script.WithReporter(func(id script.ClientID) {
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}))
	if err != nil {
		return err
	}
	if err := snk.wait(); err != nil {
		return fmt.Errorf("client id lookups: %w", err)
	}

	fmt.Fprintf(out, "%s %s\n", styles.Title.Render("replayed"), path)
	fmt.Fprintf(out, "  steps:       %d\n", len(s.Steps))
	fmt.Fprintf(out, "  gtag calls:  %d\n", snk.calls.Load())
	mu.Lock()
	for _, id := range ids {
		label := id.Label
		if label == "" {
			label = fmt.Sprintf("step %d", id.Step)
		}
		fmt.Fprintf(out, "  client id:   %s %s (%s)\n", styles.Muted.Render(label), id.Tracker.ClientID(), id.Tracker.TrackingID())
	}
	mu.Unlock()
	if n := g.Pending(); n > 0 {
		l.Get(logging.CategoryCLI).Warn("calls still buffered behind an unanswered client id lookup", zap.Int("pending", n))
		fmt.Fprintf(out, "  %s\n", styles.Warning.Render(fmt.Sprintf("%d calls still buffered", n)))
	}
	if snk.journal != nil {
		fmt.Fprintf(out, "  journal:     %s\n", snk.journal.Path())
	}
	return nil
}
