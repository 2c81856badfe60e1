package jobs

import (
	"context"

	"truvamate/internal/metrics"
	"truvamate/internal/models"

	"go.uber.org/zap"
)

// LedgerReader is what the reconciler reads.
type LedgerReader interface {
	ListCodes(ctx context.Context) ([]models.ReferralCode, error)
	ReferralTotals(ctx context.Context) (map[string]models.CodeTotals, error)
}

// Drift is a referral code whose stored counters disagree with its referrals.
type Drift struct {
	Code     string
	Stored   models.CodeTotals
	Computed models.CodeTotals
}

// Reconciler compares referral code counters with the referrals table.
// It only reports; counters are never rewritten.
type Reconciler struct {
	store   LedgerReader
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewReconciler(store LedgerReader, m *metrics.Metrics, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, metrics: m, log: log.Named("reconcile")}
}

func (r *Reconciler) Run(ctx context.Context) ([]Drift, error) {
	codes, err := r.store.ListCodes(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := r.store.ReferralTotals(ctx)
	if err != nil {
		return nil, err
	}

	var drift []Drift
	for _, c := range codes {
		stored := models.CodeTotals{Referrals: c.TotalReferrals, EarningsCents: c.TotalEarningsCents}
		computed := totals[c.Code]
		if stored != computed {
			drift = append(drift, Drift{Code: c.Code, Stored: stored, Computed: computed})
			r.log.Warn("referral code counters drifted",
				zap.String("code", c.Code),
				zap.Int64("stored_referrals", stored.Referrals),
				zap.Int64("computed_referrals", computed.Referrals),
				zap.Int64("stored_earnings_cents", stored.EarningsCents),
				zap.Int64("computed_earnings_cents", computed.EarningsCents))
		}
	}
	r.metrics.ReconcileDrift(len(drift))
	r.log.Info("reconcile finished", zap.Int("codes", len(codes)), zap.Int("drifted", len(drift)))
	return drift, nil
}
