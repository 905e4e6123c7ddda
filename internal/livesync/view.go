package livesync

import (
	"sync"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

// View is the subscriber-side state a display renders from. Snapshots apply
// in non-decreasing revision order per campaign: a stale or redelivered
// snapshot is discarded, so displayed totals never regress no matter what
// order the transport delivers in. Applying a snapshot twice is a no-op
// because it is a full-state replace keyed by revision.
type View struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]domain.FundingSnapshot
}

func NewView() *View {
	return &View{snapshots: make(map[uuid.UUID]domain.FundingSnapshot)}
}

// Apply installs the snapshot if it is newer than what the view already
// holds. It reports whether the view changed.
func (v *View) Apply(snap domain.FundingSnapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	current, ok := v.snapshots[snap.CampaignID]
	if ok && snap.Revision <= current.Revision {
		return false
	}
	v.snapshots[snap.CampaignID] = snap
	return true
}

// Get returns the last applied snapshot for the campaign.
func (v *View) Get(campaignID uuid.UUID) (domain.FundingSnapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap, ok := v.snapshots[campaignID]
	return snap, ok
}

// Forget drops a campaign from the view, for when the viewed set changes.
func (v *View) Forget(campaignID uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.snapshots, campaignID)
}
