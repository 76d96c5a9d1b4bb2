package dashboards

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"codm-backend/internal/docstore"
	"codm-backend/internal/shared/telemetry"
)

// ReconcileReport summarizes a scan of both collections.
type ReconcileReport struct {
	OwnedScanned  int `json:"ownedScanned"`
	SharedScanned int `json:"sharedScanned"`
	// MissingShared lists ids saved for an owner that no share link resolves
	// from the shared collection.
	MissingShared []string `json:"missingShared"`
	// SharedOnly counts owned shared records without a per-owner copy. These
	// also come from CreateShare with an identity, so they are reported only.
	SharedOnly int `json:"sharedOnly"`
	Repaired   int `json:"repaired"`
}

// Reconcile scans both collections for ids saved by SaveAnalysis that are
// present in only one of them. With repair set, per-owner records missing from
// the shared collection are copied back.
func (s *Service) Reconcile(ctx context.Context, repair bool) (ReconcileReport, error) {
	var (
		report ReconcileReport
		owned  = make(map[string]docstore.Record)
		shared = make(map[string]bool)
		mu     sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Owned.Each(gctx, func(rec docstore.Record) error {
			mu.Lock()
			owned[rec.ID] = rec
			mu.Unlock()
			return nil
		})
	})
	g.Go(func() error {
		return s.Shared.Each(gctx, func(rec docstore.Record) error {
			mu.Lock()
			shared[rec.ID] = rec.UserID != nil
			mu.Unlock()
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return ReconcileReport{}, storageErr("scan", err)
	}

	report.OwnedScanned = len(owned)
	report.SharedScanned = len(shared)

	for id := range owned {
		if _, ok := shared[id]; !ok {
			report.MissingShared = append(report.MissingShared, id)
		}
	}
	for id, hasOwner := range shared {
		if _, ok := owned[id]; !ok && hasOwner {
			report.SharedOnly++
		}
	}
	sort.Strings(report.MissingShared)

	if !repair {
		return report, nil
	}
	for _, id := range report.MissingShared {
		if err := s.Shared.Set(ctx, owned[id]); err != nil {
			return report, storageErr("repair "+id, err)
		}
		report.Repaired++
		telemetry.Info("dashboard.reconciled", map[string]any{"dashboard_id": id})
	}
	return report, nil
}
