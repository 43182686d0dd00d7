// Package scheduler runs the daily maintenance scan in-process. The scan
// can also be triggered over HTTP by an admin; both paths call the same
// function.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ScanFunc runs one maintenance scan and returns how many notifications
// it created.
type ScanFunc func(ctx context.Context) (int, error)

type Scheduler struct {
	cron *cron.Cron
	scan ScanFunc
}

// New builds a scheduler that fires scan on the given cron spec
// (standard 5-field syntax, e.g. "0 7 * * *").
func New(spec string, scan ScanFunc) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		scan: scan,
	}

	_, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	created, err := s.scan(ctx)
	if err != nil {
		log.Printf("scheduled maintenance scan failed after %v: %v", time.Since(start), err)
		return
	}
	log.Printf("scheduled maintenance scan done in %v, %d notifications", time.Since(start), created)
}

// Start begins firing jobs. Returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
