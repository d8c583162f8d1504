package outbox

import (
	"context"
	"log"
	"time"
)

// Job is one periodic unit of work; it returns how many items it handled.
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
}

func NewScheduler(d *Dispatcher, intervalSec int) *Scheduler {
	return NewJobScheduler("Outbox dispatch", d.DispatchOnce, intervalSec)
}

// NewJobScheduler runs job every intervalSec seconds until the context ends.
func NewJobScheduler(name string, job Job, intervalSec int) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: time.Duration(intervalSec) * time.Second,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("%s scheduler stopped", s.name)
				return
			case <-ticker.C:
				n, err := s.job(ctx)
				if err != nil {
					log.Printf("%s error: %v", s.name, err)
				} else if n > 0 {
					log.Printf("%s processed %d items", s.name, n)
				}
			}
		}
	}()
}
