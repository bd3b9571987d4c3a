package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
)

var (
	tokenPrefix   = []byte("tokens")
	airdropPrefix = []byte("airdrop")

	errNotPermutation = errors.New("draws are not a permutation of the collection")
)

type metrics struct {
	draws       *prometheus.CounterVec
	remaining   *prometheus.GaugeVec
	storedSlots *prometheus.GaugeVec
	aborts      prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenk_sim",
			Name:      "draws",
			Help:      "number of identities drawn",
		}, []string{"pool"}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tenk_sim",
			Name:      "remaining",
			Help:      "identities left in the pool",
		}, []string{"pool"}),
		storedSlots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tenk_sim",
			Name:      "stored_entries",
			Help:      "entries persisted under the pool prefix",
		}, []string{"pool"}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenk_sim",
			Name:      "aborted_batches",
			Help:      "batches rolled back",
		}),
	}
	for _, c := range []prometheus.Collector{m.draws, m.remaining, m.storedSlots, m.aborts} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type simulator struct {
	log     *zap.Logger
	metrics *metrics
	src     raffle.Source
	tokens  database.Database
	airdrop database.Database
}

func newSimulator(log *zap.Logger, m *metrics, src raffle.Source, db database.Database) *simulator {
	return &simulator{
		log:     log,
		metrics: m,
		src:     src,
		tokens:  prefixdb.New(tokenPrefix, db),
		airdrop: prefixdb.New(airdropPrefix, db),
	}
}

type drawConfig struct {
	Size     uint64
	Count    uint64
	PerBatch uint64
	Abort    bool
}

type drawReport struct {
	Drawn     []uint64
	Remaining uint64
	Aborted   uint64
}

// runDraws mints in batches of PerBatch, committing each. With Abort set one
// extra batch is drawn and rolled back, and the pool must be unchanged.
func (s *simulator) runDraws(ctx context.Context, cfg drawConfig) (*drawReport, error) {
	if cfg.Count == 0 || cfg.Count > cfg.Size {
		cfg.Count = cfg.Size
	}
	if cfg.PerBatch == 0 {
		cfg.PerBatch = 1
	}
	setup := storage.NewBatch(s.tokens)
	if err := storage.PutTokenRaffle(ctx, setup, storage.NewTokenRaffle(cfg.Size)); err != nil {
		return nil, err
	}
	if err := setup.Commit(); err != nil {
		return nil, err
	}

	report := &drawReport{Drawn: make([]uint64, 0, cfg.Count)}
	for uint64(len(report.Drawn)) < cfg.Count {
		n := min(cfg.PerBatch, cfg.Count-uint64(len(report.Drawn)))
		ids, err := s.drawBatch(ctx, n, false)
		if err != nil {
			return nil, err
		}
		report.Drawn = append(report.Drawn, ids...)
	}

	if cfg.Abort {
		before, err := s.tokenRemaining(ctx)
		if err != nil {
			return nil, err
		}
		n := min(cfg.PerBatch, before+1)
		ids, err := s.drawBatch(ctx, n, true)
		if err != nil && !errors.Is(err, raffle.ErrEmptyPool) {
			return nil, err
		}
		after, err := s.tokenRemaining(ctx)
		if err != nil {
			return nil, err
		}
		if after != before {
			return nil, fmt.Errorf("rollback left %d remaining, want %d", after, before)
		}
		report.Aborted = uint64(len(ids))
		s.log.Info("rolled back batch",
			zap.Uint64s("discarded", ids),
			zap.Uint64("remaining", after),
			zap.Error(err),
		)
	}

	remaining, err := s.tokenRemaining(ctx)
	if err != nil {
		return nil, err
	}
	report.Remaining = remaining
	if remaining == 0 {
		if err := checkPermutation(report.Drawn, cfg.Size); err != nil {
			return nil, err
		}
	}
	s.metrics.storedSlots.WithLabelValues("tokens").Set(float64(countEntries(s.tokens)))
	return report, nil
}

func (s *simulator) drawBatch(ctx context.Context, n uint64, abort bool) ([]uint64, error) {
	batch := storage.NewBatch(s.tokens)
	pool, err := storage.GetTokenRaffle(ctx, batch)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := pool.Draw(ctx, storage.RaffleState(batch), s.src)
		if err != nil {
			batch.Abort()
			s.metrics.aborts.Inc()
			return ids, err
		}
		ids = append(ids, id)
	}
	if abort {
		batch.Abort()
		s.metrics.aborts.Inc()
		return ids, nil
	}
	if err := storage.PutTokenRaffle(ctx, batch, pool); err != nil {
		batch.Abort()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}
	s.metrics.draws.WithLabelValues("tokens").Add(float64(n))
	s.metrics.remaining.WithLabelValues("tokens").Set(float64(pool.Len()))
	s.log.Debug("committed batch",
		zap.Uint64s("ids", ids),
		zap.Uint64("remaining", pool.Len()),
	)
	return ids, nil
}

func (s *simulator) tokenRemaining(ctx context.Context) (uint64, error) {
	pool, err := storage.GetTokenRaffle(ctx, storage.NewDatabaseState(s.tokens))
	if err != nil {
		return 0, err
	}
	return pool.Len(), nil
}

type airdropConfig struct {
	Size       uint32
	MaxWinners uint32
	PageSize   uint32
}

// runAirdrop draws until the winner cap or the pool runs out and returns the
// winner log read back page by page.
func (s *simulator) runAirdrop(ctx context.Context, cfg airdropConfig) ([][]uint32, error) {
	if cfg.PageSize == 0 {
		cfg.PageSize = 10
	}
	batch := storage.NewBatch(s.airdrop)
	h := storage.NewAirdrop(cfg.Size, cfg.MaxWinners)
	for {
		if h.IsEmpty() {
			break
		}
		winner, ok, err := h.Draw(ctx, storage.RaffleState(batch), s.src)
		if err != nil {
			batch.Abort()
			return nil, err
		}
		if !ok {
			break
		}
		s.metrics.draws.WithLabelValues("airdrop").Inc()
		s.log.Debug("drew winner", zap.Uint32("winner", winner), zap.Uint32("position", h.NumWinners()-1))
	}
	if err := storage.PutAirdrop(ctx, batch, h); err != nil {
		batch.Abort()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}
	s.metrics.remaining.WithLabelValues("airdrop").Set(float64(h.Len()))
	s.metrics.storedSlots.WithLabelValues("airdrop").Set(float64(countEntries(s.airdrop)))

	view := storage.NewDatabaseState(s.airdrop)
	restored, err := storage.GetAirdrop(ctx, view)
	if err != nil {
		return nil, err
	}
	var pages [][]uint32
	for offset := uint32(0); offset < restored.NumWinners(); offset += cfg.PageSize {
		page, err := restored.History(ctx, storage.RaffleView(view), offset, cfg.PageSize)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func checkPermutation(drawn []uint64, size uint64) error {
	if uint64(len(drawn)) != size {
		return fmt.Errorf("%w: drew %d of %d", errNotPermutation, len(drawn), size)
	}
	seen := make([]bool, size)
	for _, id := range drawn {
		if id >= size || seen[id] {
			return fmt.Errorf("%w: id %d", errNotPermutation, id)
		}
		seen[id] = true
	}
	return nil
}

func countEntries(db database.Iteratee) int {
	it := db.NewIterator()
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n
}
