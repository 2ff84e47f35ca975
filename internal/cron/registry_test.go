package cron

import (
	"strings"
	"testing"
)

func TestRegistryValidateNames(t *testing.T) {
	cases := []struct {
		name    string
		jobs    []Job
		wantErr string
	}{
		{name: "empty registry", jobs: nil},
		{name: "distinct names", jobs: []Job{&countingJob{name: "pending-order-expiry"}, &countingJob{name: "cart-prune"}}},
		{name: "blank name", jobs: []Job{&countingJob{name: "pending-order-expiry"}, &countingJob{name: "  "}}, wantErr: "has no name"},
		{name: "repeated name", jobs: []Job{&countingJob{name: "pending-order-expiry"}, &countingJob{name: "pending-order-expiry"}}, wantErr: `"pending-order-expiry" registered twice`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewRegistry(tc.jobs...).validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegistryDropsNilJobs(t *testing.T) {
	expire := &countingJob{name: "pending-order-expiry"}
	registry := NewRegistry(nil, expire)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 1 || jobs[0] != expire {
		t.Fatalf("expected only the expiry job, got %v", jobs)
	}
	if err := registry.validate(); err != nil {
		t.Fatalf("nil jobs must not reach validation: %v", err)
	}
}
