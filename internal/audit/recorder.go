package audit

import (
	"context"
	"sync/atomic"

	"github.com/nerrad567/homesync-core/internal/infrastructure/logging"
)

// DefaultQueueSize bounds the number of entries waiting to be written.
const DefaultQueueSize = 256

// Recorder queues audit entries and writes them serially to a Repository.
// A nil *Recorder is valid and discards everything.
type Recorder struct {
	repo    Repository
	queue   chan *Entry
	logger  *logging.Logger
	dropped atomic.Uint64
	written atomic.Uint64
}

// NewRecorder returns a Recorder writing to repo. A queueSize <= 0 uses DefaultQueueSize.
func NewRecorder(repo Repository, queueSize int, logger *logging.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		repo:   repo,
		queue:  make(chan *Entry, queueSize),
		logger: logger,
	}
}

// Record enqueues entry without blocking. Entries are dropped when the queue is full.
func (r *Recorder) Record(entry Entry) {
	if r == nil {
		return
	}
	select {
	case r.queue <- &entry:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit queue full, dropping entry",
			"tenant", entry.Tenant,
			"action", entry.Action,
			"entity_type", entry.EntityType,
		)
	}
}

// Run writes queued entries until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *Entry) {
	// The request that produced the entry may already be gone.
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit write failed",
			"tenant", entry.Tenant,
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}

// Dropped returns how many entries were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Written returns how many entries reached the repository.
func (r *Recorder) Written() uint64 {
	if r == nil {
		return 0
	}
	return r.written.Load()
}
