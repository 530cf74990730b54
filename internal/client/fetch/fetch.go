// Package fetch keeps the {data, loading, error} view of a single remote
// resource and refetches it whenever its URL changes.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/logger"
)

// Result is the observable state of a Fetcher. While a request is in flight
// Loading is true, Error is empty and Data keeps its previous value.
type Result[T any] struct {
	Data    T
	Loading bool
	Error   string
}

// Fetcher fetches one resource of type T. Each request is tagged with a
// generation number; a response is applied only if no newer request was
// started in the meantime.
type Fetcher[T any] struct {
	client *api.Client
	empty  T
	log    *zap.Logger

	// notifyMu orders result updates with their notifications.
	notifyMu sync.Mutex

	mu     sync.Mutex
	gen    uint64
	url    string
	result Result[T]

	subMu  sync.Mutex
	subs   map[int]func(Result[T])
	nextID int
}

// New returns a Fetcher whose Data starts as empty. empty is also used when a
// successful response has no data field.
func New[T any](client *api.Client, empty T, log *zap.Logger) *Fetcher[T] {
	return &Fetcher[T]{
		client: client,
		empty:  empty,
		log:    logger.OrNop(log),
		result: Result[T]{Data: empty},
		subs:   make(map[int]func(Result[T])),
	}
}

// Result returns the current state.
func (f *Fetcher[T]) Result() Result[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// URL returns the tracked URL.
func (f *Fetcher[T]) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// SetURL tracks url and, if it differs from the current one, issues a GET.
// The returned channel is closed once that request's outcome has been applied
// or discarded as stale; it is already closed when nothing was issued.
func (f *Fetcher[T]) SetURL(ctx context.Context, url string) <-chan struct{} {
	f.mu.Lock()
	if url == f.url && f.gen > 0 {
		f.mu.Unlock()
		return closed()
	}
	f.url = url
	f.mu.Unlock()

	return f.start(ctx, url)
}

// Refetch issues a new request for the tracked URL.
func (f *Fetcher[T]) Refetch(ctx context.Context) <-chan struct{} {
	url := f.URL()
	if url == "" {
		return closed()
	}
	return f.start(ctx, url)
}

// Subscribe registers fn to run on every state change. fn must not call
// SetURL or Refetch synchronously. The returned function unsubscribes.
func (f *Fetcher[T]) Subscribe(fn func(Result[T])) func() {
	f.subMu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.subMu.Unlock()

	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

func (f *Fetcher[T]) start(ctx context.Context, url string) <-chan struct{} {
	f.notifyMu.Lock()
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.result.Loading = true
	f.result.Error = ""
	snap := f.result
	f.mu.Unlock()
	f.notify(snap)
	f.notifyMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		data, err := f.fetch(ctx, url)
		f.apply(gen, url, data, err)
	}()
	return done
}

func (f *Fetcher[T]) apply(gen uint64, url string, data T, err error) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	if gen != f.gen {
		latest := f.gen
		f.mu.Unlock()
		f.log.Debug("discarding stale response",
			zap.String("url", url),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest),
		)
		return
	}
	if err != nil {
		f.result.Error = api.Message(err, api.FallbackMessage)
		f.log.Warn("fetch failed", zap.String("url", url), zap.Error(err))
	} else {
		f.result.Data = data
	}
	f.result.Loading = false
	snap := f.result
	f.mu.Unlock()

	f.notify(snap)
}

func (f *Fetcher[T]) fetch(ctx context.Context, url string) (T, error) {
	var zero T
	req, err := f.client.NewRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, err
	}
	env, err := f.client.Do(req)
	if err != nil {
		return zero, err
	}
	if !env.HasData() {
		return f.empty, nil
	}

	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return zero, fmt.Errorf("decode data: %w", err)
	}
	return v, nil
}

func (f *Fetcher[T]) notify(r Result[T]) {
	f.subMu.Lock()
	fns := make([]func(Result[T]), 0, len(f.subs))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	f.subMu.Unlock()

	for _, fn := range fns {
		fn(r)
	}
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
