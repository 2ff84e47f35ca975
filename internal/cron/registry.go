package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is a task the cron worker runs once per cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds a job; nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

// validate rejects blank and repeated names; both would make the job
// metrics and logs ambiguous.
func (r *Registry) validate() error {
	seen := make(map[string]bool, len(r.jobs))
	for _, job := range r.jobs {
		name := job.Name()
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("cron job %T has no name", job)
		}
		if seen[name] {
			return fmt.Errorf("cron job %q registered twice", name)
		}
		seen[name] = true
	}
	return nil
}
