// internal/app/projection/engine.go
package projection

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/system/gateway"
	"github.com/chaosempire/chaospanel/internal/app/system/normalize"
	"github.com/chaosempire/chaospanel/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Gateway is the subset of the remote service the engine drives.
// *gateway.Client implements it.
type Gateway interface {
	ListAccounts(ctx context.Context, cred gateway.Credentials) (gateway.RawList, error)
	ListReports(ctx context.Context, cred gateway.Credentials) (gateway.RawList, error)
	ListReportsByAuthor(ctx context.Context, cred gateway.Credentials, accountID string) (gateway.RawList, error)
	CreateAccount(ctx context.Context, cred gateway.Credentials, email, password string) error
	UpdateAccountRole(ctx context.Context, cred gateway.Credentials, id, role string) error
	DeleteAccount(ctx context.Context, cred gateway.Credentials, id string) error
	CreateReport(ctx context.Context, cred gateway.Credentials, body gateway.ReportBody) (json.RawMessage, error)
	UpdateReport(ctx context.Context, cred gateway.Credentials, id string, body gateway.ReportBody) (json.RawMessage, error)
	DeleteReport(ctx context.Context, cred gateway.Credentials, id string) error
	RegisterSubordinate(ctx context.Context, cred gateway.Credentials, email, password string) error
	AssignAction(ctx context.Context, cred gateway.Credentials, accountID, action string) (string, error)
}

// Identity is the signed-in account the engine acts for.
type Identity interface {
	gateway.Credentials
	AccountID() string
	Role() models.Role
}

// Actor is a fixed Identity.
type Actor struct {
	Credential string
	ID         string
	Tier       models.Role
}

func (a Actor) Token() string     { return a.Credential }
func (a Actor) AccountID() string { return a.ID }
func (a Actor) Role() models.Role { return a.Tier }

// Snapshot is an immutable, fully joined copy of both collections. Callers
// must not modify the slices it returns.
type Snapshot struct {
	accounts   []models.Account
	reports    []models.Report
	index      Index
	loadedAt   time.Time
	generation uint64
}

func newSnapshot(accounts []models.Account, reports []models.Report, gen uint64, at time.Time) *Snapshot {
	return &Snapshot{
		accounts:   accounts,
		reports:    reports,
		index:      NewIndex(accounts),
		loadedAt:   at,
		generation: gen,
	}
}

func (s *Snapshot) Accounts() []models.Account { return s.accounts }
func (s *Snapshot) Reports() []models.Report   { return s.reports }
func (s *Snapshot) LoadedAt() time.Time        { return s.loadedAt }
func (s *Snapshot) Generation() uint64         { return s.generation }

// Account looks up an account by id.
func (s *Snapshot) Account(id string) (models.Account, bool) {
	a, ok := s.index[id]
	return a, ok
}

// Project evaluates p over the snapshot.
func (s *Snapshot) Project(p Predicate) View {
	return project(s.reports, s.index, p)
}

// Options configures an Engine.
type Options struct {
	Normalizer *normalize.Normalizer
	Logger     *zap.Logger
	Auditor    Auditor
	Now        func() time.Time
}

// Engine holds one session's view of the remote collections. Reads see the
// last fully loaded snapshot; reloads replace it in one step.
type Engine struct {
	gw    Gateway
	id    Identity
	norm  *normalize.Normalizer
	log   *zap.Logger
	audit Auditor
	now   func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
	gen  uint64 // last generation handed to a reload
}

// NewEngine returns an engine with no snapshot loaded.
func NewEngine(gw Gateway, id Identity, opts Options) *Engine {
	e := &Engine{
		gw:    gw,
		id:    id,
		norm:  opts.Normalizer,
		log:   opts.Logger,
		audit: opts.Auditor,
		now:   opts.Now,
	}
	if e.norm == nil {
		e.norm = normalize.New(time.UTC, opts.Logger)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Identity returns the account the engine acts for.
func (e *Engine) Identity() Identity { return e.id }

// Snapshot returns the current snapshot, or nil before the first load.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Loaded reports whether a snapshot is held.
func (e *Engine) Loaded() bool { return e.Snapshot() != nil }


// Reload fetches accounts and reports concurrently and, when both succeed,
// replaces the snapshot. A reload that finishes after a later one has been
// applied is discarded. On error the previous snapshot is kept.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	var rawAccounts, rawReports gateway.RawList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := e.gw.ListAccounts(gctx, e.id)
		rawAccounts = list
		return err
	})
	g.Go(func() error {
		list, err := e.gw.ListReports(gctx, e.id)
		rawReports = list
		return err
	})
	if err := g.Wait(); err != nil {
		e.log.Warn("reload failed",
			zap.String("account_id", e.id.AccountID()),
			zap.Uint64("generation", gen),
			zap.Error(err))
		return err
	}

	next := newSnapshot(e.norm.Accounts(rawAccounts), e.norm.Reports(rawReports), gen, e.now())

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap != nil && e.snap.generation > gen {
		e.log.Debug("discarding stale reload",
			zap.Uint64("generation", gen),
			zap.Uint64("current", e.snap.generation))
		return nil
	}
	e.snap = next
	e.log.Debug("snapshot replaced",
		zap.Uint64("generation", gen),
		zap.Int("accounts", len(next.accounts)),
		zap.Int("reports", len(next.reports)))
	return nil
}

// Ensure loads a snapshot if none is held.
func (e *Engine) Ensure(ctx context.Context) error {
	if e.Loaded() {
		return nil
	}
	return e.Reload(ctx)
}

// View projects p over the held snapshot. It is empty before the first load.
func (e *Engine) View(p Predicate) View {
	snap := e.Snapshot()
	if snap == nil {
		return View{Predicate: p}
	}
	return snap.Project(p)
}

// Accounts returns the held accounts matching p.
func (e *Engine) Accounts(p Predicate) []models.Account {
	snap := e.Snapshot()
	if snap == nil {
		return []models.Account{}
	}
	return FilterAccounts(snap.accounts, p)
}

// Stats computes statistics over the full held collections for the acting
// account.
func (e *Engine) Stats() Statistics {
	snap := e.Snapshot()
	if snap == nil {
		return Compute(nil, nil, e.id.AccountID())
	}
	return Compute(snap.reports, snap.accounts, e.id.AccountID())
}

// NarrowToAuthor fetches one account's reports from the service and joins
// them against the held accounts. The result is not stored.
func (e *Engine) NarrowToAuthor(ctx context.Context, accountID string) (View, error) {
	accountID = normalize.ID(accountID)
	if accountID == "" {
		return View{}, invalid("account", "Select an account.")
	}
	raw, err := e.gw.ListReportsByAuthor(ctx, e.id, accountID)
	if err != nil {
		return View{}, err
	}
	reports := e.norm.Reports(raw)

	ix := Index{}
	if snap := e.Snapshot(); snap != nil {
		ix = snap.index
	}
	return project(reports, ix, Predicate{}), nil
}
