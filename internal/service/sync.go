package service

import (
	"context"
	"fmt"
	"time"

	"ubmqi/backend/internal/cloudsync"
	"ubmqi/backend/internal/domain"
)

// SetSyncClient wires the optional cloud snapshot exchange. When unset,
// the sync endpoints report that the feature is not configured.
func (s *Service) SetSyncClient(client *cloudsync.Client) {
	s.sync = client
}

// PushSnapshot exports the full state and uploads it. With an empty
// syncID a new remote document is created and its id returned; the
// caller keeps the id for later pushes and pulls.
func (s *Service) PushSnapshot(ctx context.Context, syncID string) (domain.SyncPushResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.SyncPushResponse{}, err
	}
	if s.sync == nil {
		return domain.SyncPushResponse{}, fmt.Errorf("cloud sync not configured")
	}

	snap, err := s.repo.ExportSnapshot(ctx)
	if err != nil {
		return domain.SyncPushResponse{}, err
	}
	snap.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	if syncID == "" {
		id, err := s.sync.Create(ctx, *snap)
		if err != nil {
			return domain.SyncPushResponse{}, err
		}
		syncID = id
	} else if err := s.sync.Update(ctx, syncID, *snap); err != nil {
		return domain.SyncPushResponse{}, err
	}

	s.logAudit(ctx, "sync_push", syncID, fmt.Sprintf("transactions=%d", len(snap.Transactions)))
	return domain.SyncPushResponse{SyncID: syncID, LastUpdated: snap.LastUpdated}, nil
}

// PullSnapshot fetches a remote document and replaces the local state
// with it wholesale.
func (s *Service) PullSnapshot(ctx context.Context, syncID string) (domain.SyncPullResponse, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.SyncPullResponse{}, err
	}
	if s.sync == nil {
		return domain.SyncPullResponse{}, fmt.Errorf("cloud sync not configured")
	}
	if syncID == "" {
		return domain.SyncPullResponse{}, fmt.Errorf("sync id required")
	}

	snap, err := s.sync.Fetch(ctx, syncID)
	if err != nil {
		return domain.SyncPullResponse{}, err
	}
	if err := s.repo.ImportSnapshot(ctx, *snap); err != nil {
		return domain.SyncPullResponse{}, err
	}

	s.logAudit(ctx, "sync_pull", syncID, fmt.Sprintf("transactions=%d", len(snap.Transactions)))
	s.invalidateReport(ctx)
	return domain.SyncPullResponse{
		SyncID:       syncID,
		Members:      len(snap.Members),
		Products:     len(snap.Products),
		Transactions: len(snap.Transactions),
		Sales:        len(snap.Sales),
	}, nil
}
