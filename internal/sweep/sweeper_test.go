package sweep

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/karthicware/ultra-bms-sub010/internal/auth"
    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/queue"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// fakeSessionStore is a minimal in-memory auth.SessionStore for driving
// single sweep passes.
type fakeSessionStore struct {
    mu       sync.Mutex
    sessions map[string]auth.Session
}

func newFakeSessionStore() *fakeSessionStore {
    return &fakeSessionStore{sessions: make(map[string]auth.Session)}
}

func (f *fakeSessionStore) put(s auth.Session) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.sessions[s.ID] = s
}

func (f *fakeSessionStore) get(id string) (auth.Session, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    s, ok := f.sessions[id]
    return s, ok
}

func (f *fakeSessionStore) Insert(_ context.Context, s *auth.Session) error {
    f.put(*s)
    return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (auth.Session, error) {
    s, ok := f.get(id)
    if !ok {
        return auth.Session{}, auth.ErrSessionNotFound
    }
    return s, nil
}

func (f *fakeSessionStore) GetByRefreshHash(_ context.Context, hash string) (auth.Session, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, s := range f.sessions {
        if s.RefreshHash == hash {
            return s, nil
        }
    }
    return auth.Session{}, auth.ErrSessionNotFound
}

func (f *fakeSessionStore) ActiveByAccount(_ context.Context, accountID uint64) ([]auth.Session, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []auth.Session
    for _, s := range f.sessions {
        if s.Active && s.AccountID == accountID {
            out = append(out, s)
        }
    }
    return out, nil
}

func (f *fakeSessionStore) StaleActive(_ context.Context, idleBefore, createdBefore time.Time) ([]auth.Session, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []auth.Session
    for _, s := range f.sessions {
        if s.Active && (s.LastActivity.Before(idleBefore) || s.CreatedAt.Before(createdBefore)) {
            out = append(out, s)
        }
    }
    return out, nil
}

func (f *fakeSessionStore) Touch(_ context.Context, id string, at time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s := f.sessions[id]
    s.LastActivity = at
    f.sessions[id] = s
    return nil
}

func (f *fakeSessionStore) UpdateTokens(_ context.Context, id, accessHash string, accessExp time.Time, refreshHash string, refreshExp time.Time, at time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s := f.sessions[id]
    s.AccessHash, s.AccessExp = accessHash, accessExp
    s.RefreshHash, s.RefreshExp = refreshHash, refreshExp
    s.LastActivity = at
    f.sessions[id] = s
    return nil
}

func (f *fakeSessionStore) Deactivate(_ context.Context, id string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    s := f.sessions[id]
    s.Active = false
    f.sessions[id] = s
    return nil
}

func (f *fakeSessionStore) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var n int64
    for id, s := range f.sessions {
        if !s.Active && s.LastActivity.Before(cutoff) {
            delete(f.sessions, id)
            n++
        }
    }
    return n, nil
}

func TestTokenSweepConverges(t *testing.T) {
    start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
    clock := func() time.Time { return start }

    store := newFakeSessionStore()
    revoked := auth.NewMemoryRevocationStore()
    registry := auth.NewRegistry(store, revoked, 3, 30*time.Minute, 12*time.Hour).WithClock(clock)

    cfg := config.SweepConfig{Enabled: true, TokenInterval: 5 * time.Minute, BusinessInterval: time.Hour}
    sweeper := New(cfg, registry, store, revoked, nil, nil, nil, nil, nil).WithClock(clock)

    ctx := context.Background()

    // A revocation entry whose token already expired, and one still live.
    require.NoError(t, revoked.Revoke(ctx, "hash-expired", auth.KindAccess, start.Add(-time.Minute), auth.ReasonLogout))
    require.NoError(t, revoked.Revoke(ctx, "hash-live", auth.KindAccess, start.Add(time.Hour), auth.ReasonLogout))

    // s1 idled out 31 minutes ago, s2 is fresh, s3 was deactivated long
    // enough ago that its row is past retention.
    store.put(auth.Session{
        ID: "s1", AccountID: 1, Active: true,
        AccessHash: "a1", AccessExp: start.Add(time.Hour),
        RefreshHash: "r1", RefreshExp: start.Add(24 * time.Hour),
        CreatedAt: start.Add(-2 * time.Hour), LastActivity: start.Add(-31 * time.Minute),
    })
    store.put(auth.Session{
        ID: "s2", AccountID: 1, Active: true,
        AccessHash: "a2", AccessExp: start.Add(time.Hour),
        RefreshHash: "r2", RefreshExp: start.Add(24 * time.Hour),
        CreatedAt: start.Add(-time.Hour), LastActivity: start.Add(-time.Minute),
    })
    store.put(auth.Session{
        ID: "s3", AccountID: 2, Active: false,
        CreatedAt: start.Add(-60 * 24 * time.Hour), LastActivity: start.Add(-45 * 24 * time.Hour),
    })

    require.NoError(t, sweeper.TokenSweep(ctx))

    // Expired revocation entry reclaimed, live one kept.
    assert.False(t, revoked.IsRevokedAt("hash-expired", start))
    assert.True(t, revoked.IsRevokedAt("hash-live", start))

    // The idle session was revoked through the normal path: both hashes
    // blacklisted, row deactivated.
    s1, ok := store.get("s1")
    require.True(t, ok)
    assert.False(t, s1.Active)
    assert.True(t, revoked.IsRevokedAt("a1", start))
    assert.True(t, revoked.IsRevokedAt("r1", start))
    assert.Equal(t, auth.ReasonIdleTimeout, revoked.Reason("a1"))

    // The fresh session is untouched and the ancient inactive row is gone.
    s2, ok := store.get("s2")
    require.True(t, ok)
    assert.True(t, s2.Active)
    _, ok = store.get("s3")
    assert.False(t, ok)

    // Second pass changes nothing.
    entriesBefore := revoked.Len()
    require.NoError(t, sweeper.TokenSweep(ctx))
    assert.Equal(t, entriesBefore, revoked.Len())
    s1Again, _ := store.get("s1")
    assert.Equal(t, s1, s1Again)
    s2Again, _ := store.get("s2")
    assert.Equal(t, s2, s2Again)
}

// In-memory business stores.  Each mirrors its repository's guarded-update
// predicate so the tests exercise the same state transitions the SQL runs.

type fakeInvoiceStore struct {
    invoices []*repository.Invoice
}

func (f *fakeInvoiceStore) agingCandidate(inv *repository.Invoice, asOf time.Time) bool {
    return inv.Status == repository.InvoiceIssued && inv.DueDate.Before(asOf) && !inv.LateFeeApplied
}

func (f *fakeInvoiceStore) OverdueCandidates(_ context.Context, asOf time.Time) ([]*repository.Invoice, error) {
    var out []*repository.Invoice
    for _, inv := range f.invoices {
        if f.agingCandidate(inv, asOf) {
            c := *inv
            out = append(out, &c)
        }
    }
    return out, nil
}

func (f *fakeInvoiceStore) AgeOverdue(_ context.Context, asOf time.Time, lateFeeCents int64) (int64, error) {
    var n int64
    for _, inv := range f.invoices {
        if f.agingCandidate(inv, asOf) {
            inv.Status = repository.InvoiceOverdue
            inv.LateFeeCents = lateFeeCents
            inv.LateFeeApplied = true
            n++
        }
    }
    return n, nil
}

type fakeChequeStore struct {
    cheques []*repository.PostDatedCheque
}

func (f *fakeChequeStore) MatureDue(_ context.Context, asOf time.Time) (int64, error) {
    var n int64
    for _, c := range f.cheques {
        if c.Status == repository.ChequePending && !c.DueDate.After(asOf) {
            c.Status = repository.ChequeDue
            n++
        }
    }
    return n, nil
}

type fakeComplianceStore struct {
    schedules []*repository.ComplianceSchedule
}

func (f *fakeComplianceStore) Due(_ context.Context, asOf time.Time) ([]*repository.ComplianceSchedule, error) {
    var out []*repository.ComplianceSchedule
    for _, s := range f.schedules {
        if !s.NextDue.After(asOf) {
            c := *s
            out = append(out, &c)
        }
    }
    return out, nil
}

func (f *fakeComplianceStore) Advance(_ context.Context, id uint64, dueOn, generatedAt time.Time) (bool, error) {
    for _, s := range f.schedules {
        if s.ID == id && !s.NextDue.After(dueOn) {
            s.NextDue = s.NextDue.AddDate(0, 0, s.FrequencyDays)
            g := generatedAt
            s.LastGenerated = &g
            return true, nil
        }
    }
    return false, nil
}

type fakePlanStore struct {
    plans []*repository.MaintenancePlan
}

func (f *fakePlanStore) Due(_ context.Context, asOf time.Time) ([]*repository.MaintenancePlan, error) {
    var out []*repository.MaintenancePlan
    for _, p := range f.plans {
        if !p.NextDue.After(asOf) {
            c := *p
            out = append(out, &c)
        }
    }
    return out, nil
}

func (f *fakePlanStore) Advance(_ context.Context, id uint64, dueOn time.Time) (bool, error) {
    for _, p := range f.plans {
        if p.ID == id && !p.NextDue.After(dueOn) {
            p.NextDue = p.NextDue.AddDate(0, 0, p.IntervalDays)
            return true, nil
        }
    }
    return false, nil
}

type fakeWorkOrderStore struct {
    created []*repository.WorkOrder
}

func (f *fakeWorkOrderStore) Create(_ context.Context, w *repository.WorkOrder) error {
    w.ID = uint64(len(f.created) + 1)
    f.created = append(f.created, w)
    return nil
}

type eventRecorder struct {
    events []queue.NotificationEvent
}

func (r *eventRecorder) record(_ context.Context, ev queue.NotificationEvent) error {
    r.events = append(r.events, ev)
    return nil
}

type businessFixture struct {
    sweeper  *Sweeper
    invoices *fakeInvoiceStore
    cheques  *fakeChequeStore
    comp     *fakeComplianceStore
    plans    *fakePlanStore
    orders   *fakeWorkOrderStore
    events   *eventRecorder
}

func newBusinessFixture(clock func() time.Time) *businessFixture {
    f := &businessFixture{
        invoices: &fakeInvoiceStore{},
        cheques:  &fakeChequeStore{},
        comp:     &fakeComplianceStore{},
        plans:    &fakePlanStore{},
        orders:   &fakeWorkOrderStore{},
        events:   &eventRecorder{},
    }
    cfg := config.SweepConfig{Enabled: true, TokenInterval: 5 * time.Minute, BusinessInterval: time.Hour, LateFeeCents: 2500}
    f.sweeper = New(cfg, nil, nil, nil, f.invoices, f.cheques, f.comp, f.plans, f.orders).WithClock(clock)
    f.sweeper.publish = f.events.record
    return f
}

func TestBusinessSweepChargesLateFeeOnce(t *testing.T) {
    now := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
    f := newBusinessFixture(func() time.Time { return now })

    overdue := &repository.Invoice{ID: 1, OrgID: 7, LeaseID: 3, AmountCents: 100000,
        DueDate: now.AddDate(0, 0, -5), Status: repository.InvoiceIssued}
    current := &repository.Invoice{ID: 2, OrgID: 7, LeaseID: 3, AmountCents: 100000,
        DueDate: now.AddDate(0, 0, 5), Status: repository.InvoiceIssued}
    f.invoices.invoices = []*repository.Invoice{overdue, current}

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))

    assert.Equal(t, repository.InvoiceOverdue, overdue.Status)
    assert.Equal(t, int64(2500), overdue.LateFeeCents)
    assert.True(t, overdue.LateFeeApplied)
    assert.Equal(t, repository.InvoiceIssued, current.Status)

    require.Len(t, f.events.events, 1)
    ev := f.events.events[0]
    assert.Equal(t, queue.KindInvoiceOverdue, ev.Kind)
    assert.Equal(t, uint64(1), ev.InvoiceID)
    assert.Equal(t, int64(102500), ev.AmountCents)

    // Rerun: no second charge, no second notification.
    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Equal(t, int64(2500), overdue.LateFeeCents)
    assert.Len(t, f.events.events, 1)
}

func TestBusinessSweepMaturesChequesOnce(t *testing.T) {
    now := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
    f := newBusinessFixture(func() time.Time { return now })

    due := &repository.PostDatedCheque{ID: 1, Status: repository.ChequePending, DueDate: now.AddDate(0, 0, -1)}
    future := &repository.PostDatedCheque{ID: 2, Status: repository.ChequePending, DueDate: now.AddDate(0, 0, 10)}
    deposited := &repository.PostDatedCheque{ID: 3, Status: repository.ChequeDeposited, DueDate: now.AddDate(0, 0, -20)}
    f.cheques.cheques = []*repository.PostDatedCheque{due, future, deposited}

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Equal(t, repository.ChequeDue, due.Status)
    assert.Equal(t, repository.ChequePending, future.Status)
    assert.Equal(t, repository.ChequeDeposited, deposited.Status)

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Equal(t, repository.ChequeDue, due.Status)
}

func TestComplianceBacklogCatchesUp(t *testing.T) {
    now := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
    f := newBusinessFixture(func() time.Time { return now })

    // Two frequencies behind, as after a long sweep outage.  Each pass must
    // generate exactly one work order and advance one frequency until the
    // schedule is ahead of now again.
    sched := &repository.ComplianceSchedule{ID: 1, OrgID: 7, PropertyID: 4, Name: "Fire inspection",
        FrequencyDays: 30, NextDue: now.AddDate(0, 0, -60)}
    f.comp.schedules = []*repository.ComplianceSchedule{sched}

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Len(t, f.orders.created, 1)
    assert.Equal(t, now.AddDate(0, 0, -30), sched.NextDue)

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Len(t, f.orders.created, 2)
    assert.Equal(t, now, sched.NextDue)

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Len(t, f.orders.created, 3)
    assert.Equal(t, now.AddDate(0, 0, 30), sched.NextDue)
    require.NotNil(t, sched.LastGenerated)

    // Caught up: further passes are no-ops.
    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Len(t, f.orders.created, 3)

    for _, w := range f.orders.created {
        assert.Equal(t, repository.PriorityHigh, w.Priority)
        assert.Equal(t, repository.SourceCompliance, w.Source)
        assert.Equal(t, uint64(4), w.PropertyID)
    }
    assert.Len(t, f.events.events, 3)
    for _, ev := range f.events.events {
        assert.Equal(t, queue.KindWorkOrderCreated, ev.Kind)
    }
}

func TestMaintenancePlanGeneratesOncePerDue(t *testing.T) {
    now := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
    f := newBusinessFixture(func() time.Time { return now })

    unitID := uint64(9)
    plan := &repository.MaintenancePlan{ID: 1, OrgID: 7, PropertyID: 4, UnitID: &unitID,
        Title: "HVAC service", IntervalDays: 90, NextDue: now}
    f.plans.plans = []*repository.MaintenancePlan{plan}

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    require.Len(t, f.orders.created, 1)
    w := f.orders.created[0]
    assert.Equal(t, repository.PriorityMedium, w.Priority)
    assert.Equal(t, repository.SourceMaintenance, w.Source)
    assert.Equal(t, &unitID, w.UnitID)
    assert.Equal(t, now.AddDate(0, 0, 90), plan.NextDue)

    require.NoError(t, f.sweeper.BusinessSweep(context.Background()))
    assert.Len(t, f.orders.created, 1)
    assert.Len(t, f.events.events, 1)
}
