package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/typed"
)

// PersistResult is the outcome of one write-through.
type PersistResult struct {
	Seq      int64
	Action   string
	Mode     string // "merge" or "patch"
	Attempts int
	Duration time.Duration
	Err      error
}

// ack tells the session loop that a write has completed.
type ack struct {
	seq     int64
	version int64 // Store version observed after the write, 0 if unknown
	err     error
}

type writeJob struct {
	seq    int64
	action string
	merge  []byte
	ops    []typed.Op
}

func (j writeJob) mode() string {
	if j.ops != nil {
		return "patch"
	}
	return "merge"
}

// persister applies writes one at a time in the order they were enqueued.
// Enqueue never blocks: the queue is unbounded.
type persister struct {
	*worker.BaseWorker
	repo    *typed.Repository[core.Document]
	key     string
	cfg     *config
	logger  *slog.Logger
	report  func(error)
	acks    chan<- ack
	mu      sync.Mutex
	queue   []writeJob
	signal  chan struct{}
	settled chan struct{} // Closed and replaced each time a write finishes
	done    int64         // Highest finished seq, guarded by mu
	seq     atomic.Int64
	written atomic.Int64
	failed  atomic.Int64
	cancel  context.CancelFunc
}

func newPersister(repo *typed.Repository[core.Document], key string, cfg *config, logger *slog.Logger, report func(error), acks chan<- ack) *persister {
	return &persister{
		BaseWorker: worker.NewBaseWorker("persister"),
		repo:       repo,
		key:        key,
		cfg:        cfg,
		logger:     logger,
		report:     report,
		acks:       acks,
		signal:     make(chan struct{}, 1),
		settled:    make(chan struct{}),
	}
}

func (p *persister) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := p.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("persister already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.SetStatus(worker.StatusRunning)
	return p.StartFunc(runCtx, p.run)
}

func (p *persister) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.StopRequested = true
		p.cancel()
	}

	return p.BaseWorker.Stop(ctx)
}

func (p *persister) State() worker.State {
	return p.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// enqueue schedules a write and returns its sequence number.
func (p *persister) enqueue(job writeJob) int64 {
	job.seq = p.seq.Add(1)

	p.mu.Lock()
	p.queue = append(p.queue, job)
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
	return job.seq
}

// Pending returns the number of writes not yet completed.
func (p *persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// flush waits until every write enqueued so far has completed.
func (p *persister) flush(ctx context.Context) error {
	target := p.seq.Load()
	for {
		p.mu.Lock()
		if p.done >= target {
			p.mu.Unlock()
			return nil
		}
		settled := p.settled
		p.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return fmt.Errorf("flush interrupted with %d pending writes: %w", p.Pending(), ctx.Err())
		}
	}
}

// settle marks seq as finished and wakes every flush waiting on it.
func (p *persister) settle(seq int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq > p.done {
		p.done = seq
	}
	close(p.settled)
	p.settled = make(chan struct{})
}

func (p *persister) pop() (writeJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return writeJob{}, false
	}
	job := p.queue[0]
	p.queue = p.queue[1:]
	return job, true
}

func (p *persister) run(ctx context.Context) error {
	// Writes left behind on shutdown are reported as dropped so flush never hangs.
	defer func() {
		for {
			job, ok := p.pop()
			if !ok {
				return
			}
			p.finish(ctx, job, 0, 0, 0, fmt.Errorf("write dropped: %w", context.Canceled))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.signal:
		}
		for {
			job, ok := p.pop()
			if !ok {
				break
			}
			p.write(ctx, job)
		}
	}
}

func (p *persister) write(ctx context.Context, job writeJob) {
	start := time.Now()
	attempts := 0
	var err error
	for {
		attempts++
		if job.ops != nil {
			err = p.repo.Patch(ctx, p.key, job.ops...)
		} else {
			err = p.repo.Merge(ctx, p.key, job.merge)
		}
		if err == nil || attempts > p.cfg.retries || errors.Is(err, core.ErrConflict) {
			break
		}
		p.logger.Debug("retrying write", "seq", job.seq, "attempt", attempts, "error", err)
		select {
		case <-time.After(p.cfg.retryBackoff):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	var version int64
	if err == nil {
		// The version read back is at least the one our write produced.
		if snap, getErr := p.repo.Store().Get(ctx, p.key); getErr == nil {
			version = snap.Version
		} else {
			p.logger.Debug("failed to read version after write", "seq", job.seq, "error", getErr)
		}
	}
	p.finish(ctx, job, attempts, time.Since(start), version, err)
}

func (p *persister) finish(ctx context.Context, job writeJob, attempts int, d time.Duration, version int64, err error) {
	defer p.settle(job.seq)

	if err != nil {
		p.failed.Add(1)
		p.logger.Error("write failed", "seq", job.seq, "action", job.action, "mode", job.mode(), "error", err)
		p.report(fmt.Errorf("persist %s: %w", job.action, err))
	} else {
		p.written.Add(1)
		p.logger.Debug("write persisted", "seq", job.seq, "action", job.action, "mode", job.mode(), "version", version, "duration", d)
	}

	if p.cfg.onPersist != nil {
		p.cfg.onPersist(PersistResult{
			Seq:      job.seq,
			Action:   job.action,
			Mode:     job.mode(),
			Attempts: attempts,
			Duration: d,
			Err:      err,
		})
	}

	select {
	case p.acks <- ack{seq: job.seq, version: version, err: err}:
	case <-ctx.Done():
	}
}

// buildWrite turns the effect of an applied action into a write job.
// It runs on the session goroutine so the payload captures the cache as it
// was right after the mutation.
func buildWrite(st *planner.State, a planner.Action, change planner.Change, pathWrites bool) (writeJob, error) {
	job := writeJob{action: a.String()}

	if !pathWrites {
		var tombstones []string
		if change.Kind == planner.ChangeDayCleared {
			tombstones = append(tombstones, change.DateKey)
		}
		data, err := st.Doc.Encode(tombstones...)
		if err != nil {
			return job, fmt.Errorf("failed to encode document: %w", err)
		}
		job.merge = data
		return job, nil
	}

	switch change.Kind {
	case planner.ChangeDay:
		rec := st.Doc.Day(change.DateKey)
		data, err := encodeDayPatch(change.DateKey, &rec)
		if err != nil {
			return job, err
		}
		job.merge = data
	case planner.ChangeDayCleared:
		data, err := encodeDayPatch(change.DateKey, nil)
		if err != nil {
			return job, err
		}
		job.merge = data
	case planner.ChangeVisionAdded:
		job.ops = []typed.Op{{Op: "add", Path: "/vision/-", Value: change.Item}}
	case planner.ChangeVisionDeleted:
		// The test guard turns a shifted index into a conflict instead of
		// removing somebody else's item.
		path := fmt.Sprintf("/vision/%d", change.Index)
		job.ops = []typed.Op{
			{Op: "test", Path: path, Value: change.Item},
			{Op: "remove", Path: path},
		}
	default:
		return job, fmt.Errorf("nothing to persist for %s", a)
	}
	return job, nil
}

// encodeDayPatch builds a merge patch touching only calendar[key].
// A nil record removes the day.
func encodeDayPatch(key string, rec *core.DayRecord) ([]byte, error) {
	data, err := json.Marshal(map[string]any{
		"calendar": map[string]*core.DayRecord{key: rec},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode day %s: %w", key, err)
	}
	return data, nil
}
