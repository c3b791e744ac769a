// internal/app/system/dirsync/engine.go
package dirsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/app/system/ingest"
	"github.com/dalemusser/cwcconnect/internal/app/system/metrics"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrStoreUnavailable fails a cycle before any source is read.
	ErrStoreUnavailable = errors.New("employee store unavailable")

	// ErrPersistFailed is returned when every upsert of a non-empty cycle failed.
	ErrPersistFailed = errors.New("no records could be persisted")
)

// DefaultConcurrency bounds parallel upserts within one cycle.
const DefaultConcurrency = 4

// Source yields the records for one cycle.
type Source interface {
	Select(ctx context.Context) (ingest.Batch, error)
}

// Writer persists one record keyed on its mobile number.
type Writer interface {
	Upsert(ctx context.Context, e models.Employee) (employeestore.Outcome, error)
}

// Result summarizes one cycle. It is kept in memory and logged, never stored.
type Result struct {
	RunID        string              `json:"runId"`
	Source       models.DataSource   `json:"source,omitempty"`
	TotalRecords int                 `json:"totalRecords"`
	NewCount     int                 `json:"newCount"`
	UpdatedCount int                 `json:"updatedCount"`
	Unchanged    int                 `json:"unchanged"`
	Failed       int                 `json:"failed"`
	NoMobile     int                 `json:"skippedNoMobile"`
	Duplicates   int                 `json:"duplicates"`
	Merge        *ingest.MergeReport `json:"merge,omitempty"`
	Fallback     string              `json:"fallback,omitempty"`
	StartedAt    time.Time           `json:"startedAt"`
	FinishedAt   time.Time           `json:"finishedAt"`
	Error        string              `json:"error,omitempty"`
}

// Engine runs sync cycles. Overlapping Run calls share one cycle.
type Engine struct {
	source      Source
	store       Writer
	avail       mongoconn.Availability
	metrics     *metrics.Metrics
	log         *zap.Logger
	concurrency int

	// Now stamps lastUpdated on every survivor. Tests may replace it.
	Now func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	last  *Result
}

// New builds an Engine. m may be nil.
func New(source Source, store Writer, avail mongoconn.Availability, m *metrics.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:      source,
		store:       store,
		avail:       avail,
		metrics:     m,
		log:         logger,
		concurrency: DefaultConcurrency,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetConcurrency changes the number of parallel upserts. Values below 1 are
// treated as 1.
func (e *Engine) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	e.concurrency = n
}

// LastRun returns the most recent cycle result, successful or not.
func (e *Engine) LastRun() (Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return Result{}, false
	}
	return *e.last, true
}

// Run executes one cycle. A call made while a cycle is in flight waits for
// and returns that cycle's result instead of starting another.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	v, err, shared := e.group.Do("sync", func() (any, error) {
		return e.run(ctx)
	})
	if shared {
		e.log.Debug("sync already in progress, joined running cycle")
	}
	res, _ := v.(Result)
	return res, err
}

func (e *Engine) run(parent context.Context) (Result, error) {
	ctx, cancel := timeouts.WithTimeout(parent, timeouts.Sync(), e.log, "employee sync")
	defer cancel()

	res := Result{RunID: uuid.NewString(), StartedAt: e.Now()}
	log := e.log.With(zap.String("run_id", res.RunID))

	fail := func(err error) (Result, error) {
		res.FinishedAt = e.Now()
		res.Error = err.Error()
		e.remember(res)
		e.metrics.SyncFailed(string(res.Source))
		log.Error("sync failed", zap.String("source", string(res.Source)), zap.Error(err))
		return res, err
	}

	if e.avail != nil && !e.avail.IsAvailable() {
		return fail(ErrStoreUnavailable)
	}

	batch, err := e.source.Select(ctx)
	if err != nil {
		return fail(err)
	}
	res.Source = batch.Source
	res.Merge = batch.Report
	res.Fallback = batch.Fallback

	records := batch.Employees
	if batch.Source == models.DataSourceAPI {
		records = make([]models.Employee, 0, len(batch.Raw))
		for _, r := range batch.Raw {
			records = append(records, ingest.NormalizeRecord(r))
		}
	}

	unique, noMobile, dupes := Dedupe(records, batch.Source, e.Now())
	res.NoMobile = noMobile
	res.Duplicates = dupes
	res.TotalRecords = len(unique)

	inserted, modified, unchanged, failed, firstErr := e.persist(ctx, log, unique)
	res.NewCount = inserted
	res.UpdatedCount = modified
	res.Unchanged = unchanged
	res.Failed = failed

	if len(unique) > 0 && failed == len(unique) {
		return fail(fmt.Errorf("%w: %d upserts failed: %v", ErrPersistFailed, failed, firstErr))
	}

	res.FinishedAt = e.Now()
	e.remember(res)
	e.metrics.SyncSucceeded(string(res.Source), inserted, modified, failed, res.FinishedAt.Sub(res.StartedAt))

	log.Info("sync complete",
		zap.String("source", string(res.Source)),
		zap.Int("total", res.TotalRecords),
		zap.Int("new", res.NewCount),
		zap.Int("updated", res.UpdatedCount),
		zap.Int("failed", res.Failed),
		zap.Int("skipped_no_mobile", res.NoMobile),
		zap.Int("duplicates", res.Duplicates),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

func (e *Engine) persist(ctx context.Context, log *zap.Logger, recs []models.Employee) (inserted, modified, unchanged, failed int, firstErr error) {
	var nIns, nMod, nSame, nFail atomic.Int64
	var errOnce sync.Once

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, rec := range recs {
		g.Go(func() error {
			out, err := e.store.Upsert(gctx, rec)
			if err != nil {
				nFail.Add(1)
				errOnce.Do(func() { firstErr = err })
				log.Warn("upsert failed", zap.String("name", rec.Name), zap.Error(err))
				return nil
			}
			switch out {
			case employeestore.OutcomeInserted:
				nIns.Add(1)
			case employeestore.OutcomeModified:
				nMod.Add(1)
			default:
				nSame.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(nIns.Load()), int(nMod.Load()), int(nSame.Load()), int(nFail.Load()), firstErr
}

func (e *Engine) remember(r Result) {
	e.mu.Lock()
	e.last = &r
	e.mu.Unlock()
}

// Dedupe drops records with a blank mobile and collapses records sharing a
// mobile. The last record for a key supplies the values; the key keeps the
// position where it was first seen. Survivors are stamped with now and src.
func Dedupe(recs []models.Employee, src models.DataSource, now time.Time) (out []models.Employee, noMobile, dupes int) {
	pos := make(map[string]int, len(recs))
	out = make([]models.Employee, 0, len(recs))
	for _, r := range recs {
		key := strings.TrimSpace(r.Mobile)
		if key == "" {
			noMobile++
			continue
		}
		r.Mobile = key
		r.LastUpdated = now
		r.DataSource = src
		if i, ok := pos[key]; ok {
			out[i] = r
			dupes++
			continue
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	return out, noMobile, dupes
}
