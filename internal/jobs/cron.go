package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reconcileTimeout = 10 * time.Minute

// CronManager runs the ledger's scheduled jobs.
type CronManager struct {
	cron       *cron.Cron
	reconciler *Reconciler
	log        *zap.Logger
}

func NewCronManager(reconciler *Reconciler, log *zap.Logger) *CronManager {
	return &CronManager{
		cron:       cron.New(),
		reconciler: reconciler,
		log:        log.Named("cron"),
	}
}

// SetupJobs schedules the counter reconciliation on spec. An empty spec
// disables it.
func (cm *CronManager) SetupJobs(spec string) error {
	if spec == "" {
		cm.log.Info("reconcile job disabled")
		return nil
	}
	_, err := cm.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		if _, err := cm.reconciler.Run(ctx); err != nil {
			cm.log.Error("reconcile failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	cm.log.Info("reconcile job scheduled", zap.String("spec", spec))
	return nil
}

func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop halts scheduling and waits for a running job to return.
func (cm *CronManager) Stop() {
	<-cm.cron.Stop().Done()
}
