package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cre-mailflow/api/internal/domain"
)

func TestDependencyHealthRepositoryCollectSuccess(t *testing.T) {
	checks := []DependencyCheck{
		{Name: "store", Check: func(context.Context) error { return nil }},
		{Name: "stripe", Check: func(context.Context) error { return nil }},
	}

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo, err := NewDependencyHealthRepository(checks, WithDependencyClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusOK || len(report.Checks) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	for name, check := range report.Checks {
		if check.Status != domain.HealthStatusOK || !check.CheckedAt.Equal(now) {
			t.Fatalf("unexpected check %s: %+v", name, check)
		}
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("expected generatedAt %s, got %s", now, report.GeneratedAt)
	}
}

func TestDependencyHealthRepositoryStatuses(t *testing.T) {
	tests := []struct {
		name       string
		check      DependencyCheck
		wantStatus string
		wantDetail string
	}{
		{
			name:       "failure degrades",
			check:      DependencyCheck{Name: "store", Check: func(context.Context) error { return errors.New("boom") }},
			wantStatus: domain.HealthStatusDegraded,
			wantDetail: "boom",
		},
		{
			name: "timeout errors",
			check: DependencyCheck{Name: "store", Timeout: 5 * time.Millisecond, Check: func(ctx context.Context) error {
				select {
				case <-time.After(200 * time.Millisecond):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}},
			wantStatus: domain.HealthStatusError,
			wantDetail: "timeout",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, err := NewDependencyHealthRepository([]DependencyCheck{tc.check})
			if err != nil {
				t.Fatalf("NewDependencyHealthRepository: %v", err)
			}
			report, err := repo.Collect(context.Background())
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			check := report.Checks["store"]
			if report.Status != tc.wantStatus || check.Status != tc.wantStatus || check.Detail != tc.wantDetail {
				t.Fatalf("unexpected report %+v", report)
			}
		})
	}
}

func TestDependencyHealthRepositoryEmptyIsOK(t *testing.T) {
	repo, err := NewDependencyHealthRepository(nil)
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}
	report, err := repo.Collect(context.Background())
	if err != nil || report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok report, got %+v (%v)", report, err)
	}
}

func TestNewDependencyHealthRepositoryRejectsInvalidChecks(t *testing.T) {
	if _, err := NewDependencyHealthRepository([]DependencyCheck{{Name: " ", Check: func(context.Context) error { return nil }}}); err == nil {
		t.Fatal("expected error for unnamed check")
	}
	if _, err := NewDependencyHealthRepository([]DependencyCheck{{Name: "store"}}); err == nil {
		t.Fatal("expected error for missing check func")
	}
}
