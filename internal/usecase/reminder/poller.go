// Package reminder periodically reconciles open loans and texts borrowers
// about installments that are coming due or already late.
package reminder

import (
	"context"
	"fmt"
	"time"

	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/uow"
	"microlend-backend/internal/infrastructure/metrics"
	loanuc "microlend-backend/internal/usecase/loan"
	"microlend-backend/internal/usecase/support"
	"microlend-backend/pkg/money"

	"go.uber.org/zap"
)

const (
	batchSize = 500
	markerTTL = 36 * time.Hour
)

type Reconciler interface {
	ReconcileByID(ctx context.Context, loanID, source string) (*loanuc.Reconciled, error)
}

// Deduper is satisfied by cache.Marker.
type Deduper interface {
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Poller struct {
	repos    uow.Repos
	rec      Reconciler
	dedup    Deduper
	fx       *support.Effects
	log      *zap.Logger
	interval time.Duration
	lead     int
	now      func() time.Time
}

func NewPoller(repos uow.Repos, rec Reconciler, dedup Deduper, fx *support.Effects, log *zap.Logger, interval time.Duration, leadDays int) *Poller {
	if fx == nil {
		fx = support.NopEffects()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{repos: repos, rec: rec, dedup: dedup, fx: fx, log: log, interval: interval, lead: leadDays, now: support.Clock}
}

func (p *Poller) WithClock(now func() time.Time) *Poller {
	p.now = now
	return p
}

type Summary struct {
	Loans      int
	Reconciled int
	Reminded   int
}

// Run ticks until ctx is done. A zero interval disables the poller.
func (p *Poller) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.log.Info("reminder poller disabled")
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if s, err := p.Tick(ctx); err != nil {
			p.log.Warn("reminder tick", zap.Error(err))
		} else {
			p.log.Info("reminder tick",
				zap.Int("loans", s.Loans), zap.Int("reconciled", s.Reconciled), zap.Int("reminded", s.Reminded))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick runs one scan over open loans.
func (p *Poller) Tick(ctx context.Context) (Summary, error) {
	var s Summary
	loans, err := p.repos.Loans.ListOpen(ctx, batchSize)
	if err != nil {
		return s, err
	}
	s.Loans = len(loans)

	for i := range loans {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		res, err := p.rec.ReconcileByID(ctx, loans[i].LoanID, "reminder")
		if err != nil {
			p.log.Warn("reminder reconcile", zap.String("loan_id", loans[i].LoanID), zap.Error(err))
			metrics.Reminders.WithLabelValues("error").Inc()
			continue
		}
		if res.Changed {
			s.Reconciled++
		}
		if !res.Loan.IsOpen() {
			continue
		}
		s.Reminded += p.remind(ctx, res.Loan, res.Terms)
	}
	return s, nil
}

func (p *Poller) remind(ctx context.Context, l *loan.Loan, terms []loan.Term) int {
	now := p.now()
	var due []loan.Term
	for _, t := range terms {
		if !t.IsPaid() && loan.DaysUntil(now, t.DueDate) <= p.lead {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return 0
	}

	borrower, err := p.repos.Users.GetByUserID(ctx, l.BorrowerID)
	if err != nil {
		p.log.Warn("reminder borrower lookup", zap.String("loan_id", l.LoanID), zap.Error(err))
		metrics.Reminders.WithLabelValues("error").Inc()
		return 0
	}

	sent := 0
	day := now.UTC().Format("2006-01-02")
	for _, t := range due {
		first, err := p.dedup.Once(ctx, t.TermID+":"+day, markerTTL)
		if err != nil {
			p.log.Warn("reminder marker", zap.String("term_id", t.TermID), zap.Error(err))
			metrics.Reminders.WithLabelValues("error").Inc()
			continue
		}
		if !first {
			metrics.Reminders.WithLabelValues("skipped").Inc()
			continue
		}
		p.fx.SMS(ctx, borrower.Phone, message(now, t), borrower.UserID)
		metrics.Reminders.WithLabelValues("sent").Inc()
		sent++
	}
	return sent
}

func message(now time.Time, t loan.Term) string {
	owed := money.Format(t.AmountDue(t.PenaltyAmount))
	switch n := loan.DaysUntil(now, t.DueDate); {
	case n < 0:
		return fmt.Sprintf("Installment %d of %s was due on %s and is %d day(s) late. Please pay as soon as possible.",
			t.TermNumber, owed, t.DueDate.Format("2006-01-02"), -n)
	case n == 0:
		return fmt.Sprintf("Installment %d of %s is due today.", t.TermNumber, owed)
	default:
		return fmt.Sprintf("Reminder: installment %d of %s is due on %s.", t.TermNumber, owed, t.DueDate.Format("2006-01-02"))
	}
}
