package hlsfeed

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// Op names the Feed operation an error came from.
type Op string

const (
	OpLoad Op = "load"
	OpLike Op = "like"
)

// Observer receives Feed state changes and operation failures.
//
// Callbacks run on the goroutine that made the change. They must be safe for
// concurrent use, must not block, and must not call mutating Feed methods.
// Reading a Snapshot from inside a callback is fine.
type Observer interface {
	OnStateChange(s State)
	OnError(op Op, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnStateChange(State) {}
func (NopObserver) OnError(Op, error) {}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithObserver registers the observer notified of state changes and errors.
func WithObserver(o Observer) FeedOption {
	return func(f *Feed) {
		if o != nil {
			f.observer = o
		}
	}
}

// WithFeedLogger sets the logger for load and like outcomes.
func WithFeedLogger(l logrus.FieldLogger) FeedOption {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// Feed owns the list of videos, the cursor and the loading flag of one
// viewer screen. All mutations are serialized by mu; network calls run
// outside of it.
type Feed struct {
	transport Transport
	observer  Observer
	logger    logrus.FieldLogger

	mu         sync.Mutex
	records    []Video
	cursor     int
	loading    bool
	generation uint64
	cancelLoad context.CancelFunc
	version    uint64

	// notifyMu keeps observer notifications in version order.
	notifyMu sync.Mutex
	notified uint64
}

// NewFeed creates an empty feed in the loading state.
func NewFeed(t Transport, opts ...FeedOption) *Feed {
	f := &Feed{
		transport: t,
		observer:  NopObserver{},
		logger:    logrus.StandardLogger(),
		loading:   true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load fetches the feed and blocks until the result has been applied.
func (f *Feed) Load(ctx context.Context) error {
	return <-f.LoadAsync(ctx)
}

// LoadAsync marks the feed as loading before it returns, then fetches in the
// background. Starting a new load cancels the previous one; a superseded
// load never touches state and reports ErrSuperseded.
func (f *Feed) LoadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	loadCtx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	f.generation++
	gen := f.generation
	if f.cancelLoad != nil {
		f.cancelLoad()
	}
	f.cancelLoad = cancel
	f.loading = true
	snap, v := f.commitLocked()
	f.mu.Unlock()
	f.notify(snap, v)

	go func() {
		defer cancel()
		done <- f.finishLoad(loadCtx, gen)
	}()
	return done
}

func (f *Feed) finishLoad(ctx context.Context, gen uint64) error {
	videos, err := f.transport.FetchFeed(ctx)
	log := f.logger.WithFields(logrus.Fields{"op": OpLoad, "generation": gen})

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		log.Debug("discarding superseded load")
		return ErrSuperseded
	}
	f.cancelLoad = nil
	f.loading = false
	if err == nil {
		f.records = videos
		f.cursor = 0
	}
	snap, v := f.commitLocked()
	f.mu.Unlock()
	f.notify(snap, v)

	if err != nil {
		log.WithError(err).Warn("load feed failed")
		f.observer.OnError(OpLoad, err)
		return err
	}
	log.WithField("count", len(videos)).Info("feed loaded")
	return nil
}

// Navigate moves the cursor one step and returns it. Moving past either end
// of the list, or navigating an empty list, changes nothing.
func (f *Feed) Navigate(dir Direction) int {
	f.mu.Lock()
	n := len(f.records)
	prev := f.cursor
	if n > 0 {
		switch dir {
		case Previous:
			f.cursor = max(0, f.cursor-1)
		case Next:
			f.cursor = min(n-1, f.cursor+1)
		}
	}
	cursor := f.cursor
	if cursor == prev {
		f.mu.Unlock()
		return cursor
	}
	snap, v := f.commitLocked()
	f.mu.Unlock()
	f.notify(snap, v)
	return cursor
}

// Like posts a like for id and, once the server confirms it, increments the
// record's count by one. Ids not in the feed are ignored.
func (f *Feed) Like(ctx context.Context, id int) error {
	log := f.logger.WithFields(logrus.Fields{"op": OpLike, "video_id": id})

	f.mu.Lock()
	known := indexOf(f.records, id) >= 0
	f.mu.Unlock()
	if !known {
		log.Debug("like for unknown video ignored")
		return nil
	}

	if err := f.transport.PostLike(ctx, id); err != nil {
		log.WithError(err).Warn("like failed")
		f.observer.OnError(OpLike, err)
		return err
	}

	f.mu.Lock()
	// A reload may have replaced the list while the request was in flight.
	i := indexOf(f.records, id)
	if i < 0 {
		f.mu.Unlock()
		log.Debug("liked video no longer in feed")
		return nil
	}
	f.records[i].Likes++
	likes := f.records[i].Likes
	snap, v := f.commitLocked()
	f.mu.Unlock()
	f.notify(snap, v)

	log.WithField("likes", likes).Debug("like confirmed")
	return nil
}

// LikeAsync runs Like in the background.
func (f *Feed) LikeAsync(ctx context.Context, id int) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- f.Like(ctx, id)
	}()
	return done
}

// Snapshot returns a consistent copy of the current state.
func (f *Feed) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Current returns the video under the cursor.
func (f *Feed) Current() (Video, bool) {
	return f.Snapshot().Current()
}

// Loading reports whether a load is in flight.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Close cancels any in-flight load. Its result is discarded and the feed is
// left idle.
func (f *Feed) Close() {
	f.mu.Lock()
	f.generation++
	if f.cancelLoad != nil {
		f.cancelLoad()
		f.cancelLoad = nil
	}
	if !f.loading {
		f.mu.Unlock()
		return
	}
	f.loading = false
	snap, v := f.commitLocked()
	f.mu.Unlock()
	f.notify(snap, v)
}

func (f *Feed) snapshotLocked() State {
	return State{
		Records: slices.Clone(f.records),
		Cursor:  f.cursor,
		Loading: f.loading,
	}
}

// commitLocked bumps the state version and returns the snapshot to publish.
func (f *Feed) commitLocked() (State, uint64) {
	f.version++
	return f.snapshotLocked(), f.version
}

// notify drops snapshots older than one already delivered.
func (f *Feed) notify(s State, v uint64) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	if v <= f.notified {
		return
	}
	f.notified = v
	f.observer.OnStateChange(s)
}

func indexOf(records []Video, id int) int {
	return slices.IndexFunc(records, func(v Video) bool { return v.ID == id })
}
