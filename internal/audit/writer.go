// Package audit records security-relevant actions on a best-effort basis.
//
// Callers hand entries to a Recorder and move on. Entries are written by a
// background goroutine; a failed or dropped write is logged and counted but
// never reported back, so the caller's response cannot depend on it.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/metrics"
	"github.com/harentsoaR/dentaheal/internal/models"
)

// Recorder accepts audit entries without blocking the caller.
type Recorder interface {
	Record(entry models.AuditEntry)
}

// Store persists a single entry.
type Store interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
}

type Options struct {
	BufferSize   int
	WriteTimeout time.Duration
}

// Writer is a Recorder backed by a buffered channel and one writer goroutine.
type Writer struct {
	store   Store
	opts    Options
	log     zerolog.Logger
	entries chan models.AuditEntry
	now     func() time.Time

	// mu guards closed so that no entry is queued after run has drained.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewWriter(store Store, opts Options, log zerolog.Logger) *Writer {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	w := &Writer{
		store:   store,
		opts:    opts,
		log:     log.With().Str("component", "audit").Logger(),
		entries: make(chan models.AuditEntry, opts.BufferSize),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Record queues entry for writing. When the buffer is full, or the writer is
// closed, the entry is dropped with a warning.
func (w *Writer) Record(entry models.AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = w.now().UTC()
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.drop(entry, "writer closed")
		return
	}
	select {
	case w.entries <- entry:
	default:
		w.drop(entry, "buffer full")
	}
}

// Close stops accepting entries and waits until buffered ones are written.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}

func (w *Writer) run() {
	defer w.wg.Done()
	for {
		select {
		case entry := <-w.entries:
			w.write(entry)
		case <-w.done:
			for {
				select {
				case entry := <-w.entries:
					w.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *Writer) write(entry models.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.WriteTimeout)
	defer cancel()

	if err := w.store.Insert(ctx, &entry); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("failed").Inc()
		w.log.Error().Err(err).
			Str("action", entry.Action).
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Str("actor_id", entry.ActorUserID).
			Msg("audit write failed")
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
}

func (w *Writer) drop(entry models.AuditEntry, reason string) {
	metrics.AuditWritesTotal.WithLabelValues("dropped").Inc()
	w.log.Warn().
		Str("action", entry.Action).
		Str("entity_id", entry.EntityID).
		Str("reason", reason).
		Msg("audit entry dropped")
}

// Discard is a Recorder that ignores every entry.
type Discard struct{}

func (Discard) Record(models.AuditEntry) {}
