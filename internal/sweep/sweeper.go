// Package sweep runs the idempotent background maintenance jobs: revoked
// token garbage collection, stale session expiry, invoice aging, cheque
// maturation and recurring work order generation.  Every job is written so
// that running it twice in a row changes nothing the second time; the
// sweeper can therefore crash and rerun, or run on several instances,
// without double-applying anything.
package sweep

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/getsentry/sentry-go"

    "github.com/karthicware/ultra-bms-sub010/internal/auth"
    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/notify"
    "github.com/karthicware/ultra-bms-sub010/internal/queue"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// Inactive session rows are kept this long after deactivation for audit
// queries before the token sweep reclaims them.
const sessionRetention = 30 * 24 * time.Hour

// The business sweeps see their repositories through these narrow store
// interfaces, the same way the auth package sees its persistence.  The
// MySQL repositories satisfy them; tests drive single passes against fakes.

// InvoiceStore is the slice of the invoice repository the aging job needs.
type InvoiceStore interface {
    OverdueCandidates(ctx context.Context, asOf time.Time) ([]*repository.Invoice, error)
    AgeOverdue(ctx context.Context, asOf time.Time, lateFeeCents int64) (int64, error)
}

// ChequeStore matures post-dated cheques.
type ChequeStore interface {
    MatureDue(ctx context.Context, asOf time.Time) (int64, error)
}

// ComplianceStore lists due schedules and advances them one frequency.
type ComplianceStore interface {
    Due(ctx context.Context, asOf time.Time) ([]*repository.ComplianceSchedule, error)
    Advance(ctx context.Context, id uint64, dueOn, generatedAt time.Time) (bool, error)
}

// MaintenancePlanStore lists due plans and advances them one interval.
type MaintenancePlanStore interface {
    Due(ctx context.Context, asOf time.Time) ([]*repository.MaintenancePlan, error)
    Advance(ctx context.Context, id uint64, dueOn time.Time) (bool, error)
}

// WorkOrderStore creates the generated work orders.
type WorkOrderStore interface {
    Create(ctx context.Context, w *repository.WorkOrder) error
}

// Sweeper owns the background tickers.  All stores are injected so tests
// can drive single sweep passes against fakes.
type Sweeper struct {
    cfg config.SweepConfig

    registry *auth.Registry
    sessions auth.SessionStore
    revoked  auth.RevocationStore

    invoices   InvoiceStore
    cheques    ChequeStore
    schedules  ComplianceStore
    plans      MaintenancePlanStore
    workOrders WorkOrderStore

    now     func() time.Time
    publish func(ctx context.Context, ev queue.NotificationEvent) error
}

// New wires a sweeper.
func New(cfg config.SweepConfig, registry *auth.Registry, sessions auth.SessionStore, revoked auth.RevocationStore,
    invoices InvoiceStore, cheques ChequeStore, schedules ComplianceStore,
    plans MaintenancePlanStore, workOrders WorkOrderStore) *Sweeper {
    return &Sweeper{
        cfg:        cfg,
        registry:   registry,
        sessions:   sessions,
        revoked:    revoked,
        invoices:   invoices,
        cheques:    cheques,
        schedules:  schedules,
        plans:      plans,
        workOrders: workOrders,
        now:        time.Now,
        publish:    notify.Publish,
    }
}

// WithClock overrides the sweeper's time source for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
    s.now = now
    return s
}

// Run blocks, firing the token sweep and the business sweep on their
// configured intervals until the context is cancelled.  A failing pass is
// logged and reported but never stops the loop.
func (s *Sweeper) Run(ctx context.Context) {
    if !s.cfg.Enabled {
        log.Println("sweep: disabled")
        return
    }
    tokenTick := time.NewTicker(s.cfg.TokenInterval)
    businessTick := time.NewTicker(s.cfg.BusinessInterval)
    defer tokenTick.Stop()
    defer businessTick.Stop()

    log.Printf("sweep: started (token every %s, business every %s)", s.cfg.TokenInterval, s.cfg.BusinessInterval)
    for {
        select {
        case <-ctx.Done():
            log.Println("sweep: stopped")
            return
        case <-tokenTick.C:
            s.runPass(ctx, "token", s.TokenSweep)
        case <-businessTick.C:
            s.runPass(ctx, "business", s.BusinessSweep)
        }
    }
}

// runPass executes one sweep with panic recovery.  A panic inside a job
// must not take down the API process that hosts the sweeper.
func (s *Sweeper) runPass(ctx context.Context, name string, fn func(context.Context) error) {
    defer func() {
        if r := recover(); r != nil {
            err := fmt.Errorf("sweep %s: panic: %v", name, r)
            log.Print(err)
            sentry.CaptureException(err)
        }
    }()
    if err := fn(ctx); err != nil {
        log.Printf("sweep %s: %v", name, err)
        sentry.CaptureException(err)
    }
}

// TokenSweep reclaims expired revocation entries, revokes sessions past
// their idle or absolute timeout and drops long-inactive session rows.
func (s *Sweeper) TokenSweep(ctx context.Context) error {
    now := s.now().UTC()

    purged, err := s.revoked.DeleteExpired(ctx, now)
    if err != nil {
        return fmt.Errorf("purge revoked tokens: %w", err)
    }
    expired, err := s.registry.ExpireStale(ctx)
    if err != nil {
        return fmt.Errorf("expire stale sessions: %w", err)
    }
    dropped, err := s.sessions.DeleteInactiveBefore(ctx, now.Add(-sessionRetention))
    if err != nil {
        return fmt.Errorf("drop inactive sessions: %w", err)
    }
    if purged > 0 || expired > 0 || dropped > 0 {
        log.Printf("sweep token: purged=%d expired=%d dropped=%d", purged, expired, dropped)
    }
    return nil
}

// BusinessSweep ages overdue invoices, matures post-dated cheques and
// generates work orders from due compliance schedules and maintenance
// plans.  Each step is independently guarded, so a failure mid-pass leaves
// the earlier steps applied and the rerun picks up the rest.
func (s *Sweeper) BusinessSweep(ctx context.Context) error {
    now := s.now().UTC()

    if err := s.ageInvoices(ctx, now); err != nil {
        return err
    }
    matured, err := s.cheques.MatureDue(ctx, now)
    if err != nil {
        return fmt.Errorf("mature cheques: %w", err)
    }
    if matured > 0 {
        log.Printf("sweep business: %d cheques matured to DUE", matured)
    }
    if err := s.generateCompliance(ctx, now); err != nil {
        return err
    }
    return s.generateMaintenance(ctx, now)
}

// ageInvoices reads the aging candidates first so one notification per
// invoice can be emitted, then applies the guarded update.  On a rerun the
// candidate set is empty and nothing is emitted or charged again.
func (s *Sweeper) ageInvoices(ctx context.Context, now time.Time) error {
    candidates, err := s.invoices.OverdueCandidates(ctx, now)
    if err != nil {
        return fmt.Errorf("overdue candidates: %w", err)
    }
    if len(candidates) == 0 {
        return nil
    }
    aged, err := s.invoices.AgeOverdue(ctx, now, s.cfg.LateFeeCents)
    if err != nil {
        return fmt.Errorf("age invoices: %w", err)
    }
    log.Printf("sweep business: %d invoices aged to OVERDUE", aged)
    for _, inv := range candidates {
        _ = s.publish(ctx, queue.NotificationEvent{
            Kind:        queue.KindInvoiceOverdue,
            OrgID:       inv.OrgID,
            InvoiceID:   inv.ID,
            LeaseID:     inv.LeaseID,
            AmountCents: inv.AmountCents + s.cfg.LateFeeCents,
            OccurredAt:  now.Format(time.RFC3339),
        })
    }
    return nil
}

// generateCompliance turns due compliance schedules into HIGH-priority work
// orders.  Advance runs first: only the pass that actually advanced the
// schedule creates the order, so a rerun cannot duplicate it.
func (s *Sweeper) generateCompliance(ctx context.Context, now time.Time) error {
    due, err := s.schedules.Due(ctx, now)
    if err != nil {
        return fmt.Errorf("due schedules: %w", err)
    }
    for _, sched := range due {
        advanced, err := s.schedules.Advance(ctx, sched.ID, now, now)
        if err != nil {
            return fmt.Errorf("advance schedule %d: %w", sched.ID, err)
        }
        if !advanced {
            continue
        }
        w := repository.WorkOrder{
            OrgID:       sched.OrgID,
            PropertyID:  sched.PropertyID,
            Title:       sched.Name,
            Description: fmt.Sprintf("Compliance item due %s", sched.NextDue.Format("2006-01-02")),
            Priority:    repository.PriorityHigh,
            Source:      repository.SourceCompliance,
        }
        if err := s.workOrders.Create(ctx, &w); err != nil {
            return fmt.Errorf("create compliance work order: %w", err)
        }
        _ = s.publish(ctx, queue.NotificationEvent{
            Kind:        queue.KindWorkOrderCreated,
            OrgID:       w.OrgID,
            PropertyID:  w.PropertyID,
            WorkOrderID: w.ID,
            Title:       w.Title,
            Priority:    w.Priority,
            OccurredAt:  now.Format(time.RFC3339),
        })
    }
    return nil
}

// generateMaintenance does the same for preventive maintenance plans at
// MEDIUM priority.
func (s *Sweeper) generateMaintenance(ctx context.Context, now time.Time) error {
    due, err := s.plans.Due(ctx, now)
    if err != nil {
        return fmt.Errorf("due plans: %w", err)
    }
    for _, plan := range due {
        advanced, err := s.plans.Advance(ctx, plan.ID, now)
        if err != nil {
            return fmt.Errorf("advance plan %d: %w", plan.ID, err)
        }
        if !advanced {
            continue
        }
        w := repository.WorkOrder{
            OrgID:      plan.OrgID,
            PropertyID: plan.PropertyID,
            UnitID:     plan.UnitID,
            Title:      plan.Title,
            Priority:   repository.PriorityMedium,
            Source:     repository.SourceMaintenance,
        }
        if err := s.workOrders.Create(ctx, &w); err != nil {
            return fmt.Errorf("create maintenance work order: %w", err)
        }
        _ = s.publish(ctx, queue.NotificationEvent{
            Kind:        queue.KindWorkOrderCreated,
            OrgID:       w.OrgID,
            PropertyID:  w.PropertyID,
            WorkOrderID: w.ID,
            Title:       w.Title,
            Priority:    w.Priority,
            OccurredAt:  now.Format(time.RFC3339),
        })
    }
    return nil
}
