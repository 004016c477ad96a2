package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

type quoteResolver interface {
	Resolve(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
}

type stateLoader interface {
	State(ctx context.Context) (domain.State, error)
}

var _ application.Worker = (*Warmer)(nil)

// Warmer periodically resolves the watchlist so the quote cache stays fresh
// for API requests. With a shared redis cache it can run as its own process.
type Warmer struct {
	Quotes    quoteResolver
	Watchlist stateLoader
	Schedule  string
	Timeout   time.Duration
	Log       *zap.Logger
}

// Start runs one pass immediately, then on Schedule until ctx is done.
func (w *Warmer) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Schedule == "" {
		w.Schedule = "@every 5m"
	}
	if w.Timeout <= 0 {
		w.Timeout = 2 * time.Minute
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.Schedule, func() { w.tick(ctx, log) }); err != nil {
		log.Error("warmer_bad_schedule", zap.String("schedule", w.Schedule), zap.Error(err))
		return
	}

	log.Info("warmer_started", zap.String("schedule", w.Schedule))
	w.tick(ctx, log)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("warmer_stopped")
}

func (w *Warmer) tick(ctx context.Context, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("warmer.panic", zap.Any("r", r))
		}
	}()
	if ctx.Err() != nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	st, err := w.Watchlist.State(c)
	if err != nil {
		log.Warn("warmer.state_failed", zap.Error(err))
		return
	}
	if len(st.Watchlist) == 0 {
		return
	}
	start := time.Now()
	quotes, err := w.Quotes.Resolve(c, st.Watchlist)
	if err != nil {
		log.Warn("warmer.resolve_failed", zap.Error(err))
		return
	}
	live := 0
	for _, q := range quotes {
		if q.Source == domain.SourceLive && !q.Stale {
			live++
		}
	}
	log.Info("warmer.pass_done",
		zap.Int("symbols", len(quotes)),
		zap.Int("live", live),
		zap.Duration("took", time.Since(start)))
}
