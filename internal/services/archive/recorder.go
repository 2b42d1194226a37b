package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bullsgame/internal/model"
	"github.com/mcoot/bullsgame/internal/storage"
)

const (
	// queueSize bounds the writes waiting for storage
	queueSize = 128

	// writeTimeout bounds a single storage write
	writeTimeout = 5 * time.Second
)

// job is one queued storage write. Exactly one field is set.
type job struct {
	save   *model.RoundSummary
	forget model.RoomName
	flush  chan struct{}
}

// Recorder writes round summaries to storage from its own goroutine so
// room actors never wait on storage I/O. Writes are applied in the order
// they were queued.
type Recorder struct {
	storage storage.Storage
	logger  *slog.Logger

	jobs      chan job
	closing   chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewRecorder creates a Recorder and starts its writer goroutine
func NewRecorder(store storage.Storage, logger *slog.Logger) *Recorder {
	r := &Recorder{
		storage: store,
		logger:  logger.With(slog.String("component", "archive")),
		jobs:    make(chan job, queueSize),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues a completed round. It never blocks; when the queue is
// full the round is dropped and logged.
func (r *Recorder) Record(summary model.RoundSummary) {
	if !r.enqueue(job{save: &summary}) {
		r.logger.Warn("round summary dropped",
			slog.String("room", string(summary.Room)),
			slog.Int("round", summary.Round))
	}
}

// Forget queues deletion of a destroyed room's archive
func (r *Recorder) Forget(room model.RoomName) {
	if !r.enqueue(job{forget: room}) {
		r.logger.Warn("archive deletion dropped", slog.String("room", string(room)))
	}
}

// Rounds reads a room's archive directly from storage
func (r *Recorder) Rounds(ctx context.Context, room model.RoomName, limit int) ([]model.RoundSummary, error) {
	return r.storage.ListRounds(ctx, room, limit)
}

// Flush waits until everything queued before the call has been written
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case r.jobs <- job{flush: done}:
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is queued and stops the writer goroutine
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.closing) })
	<-r.stopped
}

func (r *Recorder) enqueue(j job) bool {
	select {
	case <-r.closing:
		return false
	default:
	}

	select {
	case r.jobs <- j:
		return true
	default:
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.stopped)
	for {
		select {
		case j := <-r.jobs:
			r.process(j)
		case <-r.closing:
			for {
				select {
				case j := <-r.jobs:
					r.process(j)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) process(j job) {
	if j.flush != nil {
		close(j.flush)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch {
	case j.save != nil:
		if err := r.storage.SaveRound(ctx, *j.save); err != nil {
			r.logger.Error("failed to save round",
				slog.String("room", string(j.save.Room)),
				slog.Int("round", j.save.Round),
				slog.Any("error", err))
			return
		}
		r.logger.Debug("round saved",
			slog.String("room", string(j.save.Room)),
			slog.Int("round", j.save.Round))
	case j.forget != "":
		if err := r.storage.DeleteRounds(ctx, j.forget); err != nil {
			r.logger.Error("failed to delete rounds",
				slog.String("room", string(j.forget)),
				slog.Any("error", err))
		}
	}
}
