package health

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/rdtrack/internal/alert"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler records snapshots for all assets on a cron schedule and alerts
// on assets scoring below a threshold.
type Scheduler struct {
	svc       *Service
	schedule  cron.Schedule
	spec      string
	threshold float64
	notifier  alert.Notifier
}

// RunResult summarizes one scheduled run.
type RunResult struct {
	Recorded int
	Alerted  int
}

// NewScheduler validates spec and returns a Scheduler. notifier may be nil.
func NewScheduler(svc *Service, spec string, threshold float64, notifier alert.Notifier) (*Scheduler, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("health: schedule %q: %w", spec, err)
	}
	return &Scheduler{svc: svc, schedule: sched, spec: spec, threshold: threshold, notifier: notifier}, nil
}

// RunOnce records every asset and sends alerts for those below threshold.
// Alert delivery failures are logged, not returned.
func (s *Scheduler) RunOnce(ctx context.Context) (RunResult, error) {
	results, err := s.svc.RecordAll(ctx)
	res := RunResult{Recorded: len(results)}
	now := s.svc.now()
	for _, ah := range results {
		if ah.Metrics.HealthScore >= s.threshold || s.notifier == nil {
			continue
		}
		a := alert.Alert{
			AssetID:   ah.ID,
			AssetName: ah.Name,
			Score:     ah.Metrics.HealthScore,
			Threshold: s.threshold,
			At:        now,
		}
		if nerr := s.notifier.Notify(ctx, a); nerr != nil {
			log.Printf("health: alert for %s: %v", ah.ID, nerr)
			continue
		}
		res.Alerted++
	}
	return res, err
}

// Run blocks, executing RunOnce at each scheduled time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		res, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("health: scheduled snapshot: %v", err)
		}
		log.Printf("health: scheduled snapshot recorded %d assets, %d alerts", res.Recorded, res.Alerted)
	}))
	c.Start()
	log.Printf("health: snapshot schedule %q started", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
