// Package search implements search-as-you-type over the company, job type
// and job catalogs.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/model"
)

// ErrSuperseded is returned by Search when a newer call started before
// this one finished. Its result was discarded.
var ErrSuperseded = errors.New("search superseded by a newer query")

// Source provides the three catalogs. Implemented by *api.Client.
type Source interface {
	Companies(ctx context.Context) ([]model.Company, error)
	JobTypes(ctx context.Context) ([]model.JobType, error)
	Jobs(ctx context.Context) ([]model.Job, error)
}

// State is the observable outcome of the latest applied search.
type State struct {
	Query   string
	Result  model.SearchResult
	Loading bool
	Err     error
}

// Aggregator fetches the catalogs, joins and filters them. Only the most
// recently started call may change State.
type Aggregator struct {
	src    Source
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	seq      uint64
	state    State
	onChange func(State)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithBus publishes a search.results event for every applied result.
func WithBus(b *bus.Bus) Option {
	return func(a *Aggregator) { a.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// OnChange registers fn to be called, outside the lock, after every state
// change.
func OnChange(fn func(State)) Option {
	return func(a *Aggregator) { a.onChange = fn }
}

// NewAggregator returns an Aggregator reading from src.
func NewAggregator(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:    src,
		logger: zap.NewNop(),
		state:  State{Result: emptyResult()},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("search")
	return a
}

// State returns the current state.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Search runs query. Queries shorter than MinQueryLength clear the result
// without touching the source. A fetch failure yields an empty result and
// is recorded in State.Err rather than returned. The only error returned
// is ErrSuperseded.
func (a *Aggregator) Search(ctx context.Context, query string) (model.SearchResult, error) {
	q, ok := normalize(query)

	a.mu.Lock()
	a.seq++
	token := a.seq
	if !ok {
		a.state = State{Query: query, Result: emptyResult()}
	} else {
		a.state.Query = query
		a.state.Loading = true
	}
	st := a.state
	a.mu.Unlock()
	a.notify(st)

	if !ok {
		return emptyResult(), nil
	}

	res, err := a.fetch(ctx, q)
	if err != nil {
		a.logger.Warn("search fetch failed", zap.String("query", query), zap.Error(err))
		res = emptyResult()
	}

	a.mu.Lock()
	if token != a.seq {
		a.mu.Unlock()
		a.logger.Debug("discarding stale search result", zap.String("query", query))
		return res, ErrSuperseded
	}
	a.state = State{Query: query, Result: res, Err: err}
	st = a.state
	a.mu.Unlock()

	a.notify(st)
	if a.bus != nil {
		a.bus.Publish(bus.Event{Kind: bus.KindSearchResults, Payload: st})
	}
	return res, nil
}

// fetch loads the three catalogs concurrently. Any failure fails the whole
// search; no partial result is produced.
func (a *Aggregator) fetch(ctx context.Context, q string) (model.SearchResult, error) {
	var (
		companies []model.Company
		jobTypes  []model.JobType
		jobs      []model.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = a.src.Companies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		jobTypes, err = a.src.JobTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = a.src.Jobs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.SearchResult{}, err
	}
	return Filter(q, companies, Enrich(jobs, companies, jobTypes)), nil
}

func (a *Aggregator) notify(st State) {
	if a.onChange != nil {
		a.onChange(st)
	}
}

func emptyResult() model.SearchResult {
	return model.SearchResult{Companies: []model.Company{}, Jobs: []model.EnrichedJob{}}
}

// Summary renders a one-line description of a state, for status lines.
func Summary(st State) string {
	switch {
	case st.Loading:
		return "searching…"
	case st.Err != nil:
		return "search unavailable"
	case utf8.RuneCountInString(strings.TrimSpace(st.Query)) < MinQueryLength:
		return ""
	case !st.Result.HasResults():
		return "no matches"
	}
	return ""
}
