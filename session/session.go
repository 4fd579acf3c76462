// Package session is the top-level facade a CLI or embedding program talks
// to: it owns one store.Database plus its optional persist.Store, accepts
// DSL scripts, and returns a result envelope. Parsing follows transit.go's
// Parse/Format convenience wrapper (the same layering: a thin facade over
// the lower packages, not new logic). Submission runs one goroutine per
// query, each carrying its own context.CancelFunc so an in-flight query
// can be canceled independently of any other.
package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/transitdb/transit/ast"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/format"
	"github.com/transitdb/transit/logging"
	"github.com/transitdb/transit/parser"
	"github.com/transitdb/transit/persist"
	"github.com/transitdb/transit/query"
	"github.com/transitdb/transit/store"
)

// Session bundles parsed-script caching, a registry of in-flight
// cancelable queries, and a uniform result envelope around a Database.
// The Database's own keepers already lock at per-resource granularity, so
// Session does not additionally serialize whole scripts against each
// other — two Submit calls run concurrently, each on its own goroutine.
type Session struct {
	db  *store.Database
	dur *persist.Store // nil for a pure-memory session with no durable target
	log *zap.Logger

	cache *lru.Cache[string, *ast.Script]

	idMu   sync.Mutex
	nextID uint64

	regMu    sync.Mutex
	registry map[string]*QueryHandle
}

// Option customizes Open/New.
type Option func(*Session)

// WithLogger overrides the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New builds a Session over an already-constructed Database with no
// durable target (InMemory, nothing to restore). cacheSize <= 0 disables
// the parsed-script cache.
func New(db *store.Database, cacheSize int, opts ...Option) (*Session, error) {
	s := &Session{db: db, log: logging.Nop(), registry: make(map[string]*QueryHandle)}
	for _, opt := range opts {
		opt(s)
	}
	if cacheSize > 0 {
		c, err := lru.New[string, *ast.Script](cacheSize)
		if err != nil {
			return nil, errors.Wrap(errors.Config, err, "building script cache")
		}
		s.cache = c
	}
	return s, nil
}

// Open opens (or creates) a durable store at path (":memory:"/"" for a
// non-persistent in-memory store), restores any prior state, seeds the
// reserved roles, verifies the persisted hash chain, and returns a ready
// Session.
func Open(path string, cacheSize int, opts ...Option) (*Session, error) {
	dur, err := persist.Open(path)
	if err != nil {
		return nil, err
	}
	db := store.New(dur)
	if err := dur.Restore(db); err != nil {
		return nil, err
	}
	if err := db.SeedReservedRoles(); err != nil {
		return nil, err
	}
	report, err := dur.VerifyAndBackfillIntegrity()
	if err != nil {
		return nil, err
	}

	s, err := New(db, cacheSize, opts...)
	if err != nil {
		return nil, err
	}
	s.dur = dur
	if report.HasMismatch {
		s.log.Warn("hash chain integrity mismatch detected on restore",
			zap.Int64("mismatch_count", report.MismatchCount),
			zap.Uint64("first_mismatch_posit_id", report.FirstMismatchID))
	}
	s.log.Info("session opened",
		zap.String("db", path),
		zap.Int64("restored_posits", report.PositCount),
		zap.Int64("backfilled_links", report.BackfilledCount))
	return s, nil
}

// Close releases the durable store, if any.
func (s *Session) Close() error {
	if s.dur == nil {
		return nil
	}
	return s.dur.Close()
}

// Database exposes the underlying store, for callers that need direct
// access (tests, administrative tooling).
func (s *Session) Database() *store.Database { return s.db }

// CurrentSuperhash exposes the durable store's chain head as a diagnostic
//, or ("", 0) for a
// non-durable session.
func (s *Session) CurrentSuperhash() (hash string, count int64) {
	if s.dur == nil {
		return "", 0
	}
	return s.dur.CurrentSuperhash(), s.dur.Count()
}

// Envelope is the result of one query, matching the query
// response shape: an id, a status, elapsed wall time, and either the
// per-search result_sets or an error message.
type Envelope struct {
	ID         string
	Status     string // "ok", "error", or "cancelled"
	ElapsedMS  int64
	ResultSets []*query.Result
	Error      string
	ErrorKind  errors.Kind // zero value (Config) unless Status == "error"
}

// QueryHandle is the opaque handle returned by Submit: a caller can Wait
// for the result or Cancel the in-flight query.
type QueryHandle struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	env    *Envelope
}

// Cancel requests cancellation of the query. The query observes this at
// its next between-statement check (query.ExecuteScriptContext); a
// statement already executing runs to completion first.
func (h *QueryHandle) Cancel() { h.cancel() }

// Wait blocks until the query completes and returns its Envelope.
func (h *QueryHandle) Wait() *Envelope {
	<-h.done
	return h.env
}

// Submit parses and begins executing script on its own goroutine,
// returning immediately with a QueryHandle. ctx bounds the query in
// addition to the handle's own Cancel.
func (s *Session) Submit(ctx context.Context, script string) *QueryHandle {
	id := s.allocID()
	qctx, cancel := context.WithCancel(ctx)
	h := &QueryHandle{ID: id, cancel: cancel, done: make(chan struct{})}

	s.regMu.Lock()
	s.registry[id] = h
	s.regMu.Unlock()

	go func() {
		defer func() {
			s.regMu.Lock()
			delete(s.registry, id)
			s.regMu.Unlock()
			cancel()
			close(h.done)
		}()
		h.env = s.execute(qctx, id, script)
	}()

	return h
}

// Run submits script and blocks for its result — the common synchronous
// case (the CLI, most tests). Equivalent to Submit(ctx, script).Wait().
func (s *Session) Run(ctx context.Context, script string) *Envelope {
	return s.Submit(ctx, script).Wait()
}

// CancelQuery cancels the in-flight query with the given id, reporting
// whether one was found. A query that has already finished returns false.
func (s *Session) CancelQuery(id string) bool {
	s.regMu.Lock()
	h, ok := s.registry[id]
	s.regMu.Unlock()
	if !ok {
		return false
	}
	h.Cancel()
	return true
}

func (s *Session) allocID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.nextID
	s.nextID++
	return strconv.FormatUint(id, 10)
}

func (s *Session) execute(ctx context.Context, id, script string) *Envelope {
	start := time.Now()

	parsed, err := s.parse(script)
	if err != nil {
		return s.errorEnvelope(id, start, err)
	}

	results, err := query.ExecuteScriptContext(ctx, s.db, parsed)
	if err != nil {
		if ctx.Err() != nil {
			s.log.Debug("script cancelled", zap.String("query_id", id))
			return &Envelope{ID: id, Status: "cancelled", ElapsedMS: elapsedMS(start), Error: err.Error()}
		}
		return s.errorEnvelope(id, start, err)
	}

	s.log.Debug("script executed",
		zap.String("query_id", id),
		zap.Int("statements", len(parsed.Statements)),
		zap.Int("result_sets", len(results)))

	return &Envelope{
		ID:         id,
		Status:     "ok",
		ElapsedMS:  elapsedMS(start),
		ResultSets: results,
	}
}

func (s *Session) errorEnvelope(id string, start time.Time, err error) *Envelope {
	s.log.Error("script failed", zap.String("query_id", id), zap.Error(err))
	return &Envelope{
		ID:        id,
		Status:    "error",
		ElapsedMS: elapsedMS(start),
		Error:     err.Error(),
		ErrorKind: errors.KindOf(err),
	}
}

func elapsedMS(start time.Time) int64 { return time.Since(start).Milliseconds() }

// parse looks the raw script text up in the script cache before falling
// back to parser.Get. A freshly parsed script is cached under its raw text
// and under its format.String canonical text, so a later request hits only
// when it repeats the raw text byte for byte or is already in canonical
// form. A parser failure comes back as a Parse-kind *errors.Error.
func (s *Session) parse(script string) (*ast.Script, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(script); ok {
			return cached, nil
		}
	}
	p := parser.Get(script)
	defer parser.Put(p)
	parsed, err := p.ParseScript()
	if err != nil {
		if pe, ok := err.(parser.ParseError); ok {
			return nil, errors.AtPosition(pe.Message, pe.Pos.Line, pe.Pos.Column)
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(script, parsed)
		// Also key the cache entry under the canonical re-formatted text, so
		// a later request that happens to already be in canonical form is a
		// cache hit without a second parse.
		canonical := format.String(parsed)
		if canonical != script {
			s.cache.Add(canonical, parsed)
		}
	}
	return parsed, nil
}
