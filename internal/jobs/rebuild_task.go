package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/odclabs/kiosk/internal/service"
	"github.com/odclabs/kiosk/internal/telemetry"
)

// CorpusSyncer mirrors the published corpus snapshot to local disk.
type CorpusSyncer interface {
	SyncCorpus(ctx context.Context, destDir string) error
}

// IndexRebuilder runs one corpus-to-index cycle.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (*service.RebuildResult, error)
}

// RebuildTask refreshes the kiosk's index from the latest corpus. The
// center's event listings update weekly, so the worker interval is
// usually days, not minutes.
type RebuildTask struct {
	syncer    CorpusSyncer
	rebuilder IndexRebuilder
	corpusDir string
}

// NewRebuildTask creates a RebuildTask. syncer may be nil when the
// corpus is maintained locally rather than published to a bucket.
func NewRebuildTask(syncer CorpusSyncer, rebuilder IndexRebuilder, corpusDir string) *RebuildTask {
	return &RebuildTask{
		syncer:    syncer,
		rebuilder: rebuilder,
		corpusDir: corpusDir,
	}
}

// Run implements the Task interface. A failed rebuild is reported but
// leaves the serving index untouched.
func (t *RebuildTask) Run(ctx context.Context) error {
	if t.syncer != nil {
		if err := t.syncer.SyncCorpus(ctx, t.corpusDir); err != nil {
			// Rebuild from whatever is on disk rather than skipping the
			// cycle entirely.
			log.Printf("rebuild task: corpus sync failed, using local copy: %v", err)
			telemetry.CaptureError(ctx, err)
		}
	}

	result, err := t.rebuilder.Rebuild(ctx)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return fmt.Errorf("scheduled rebuild failed: %w", err)
	}

	log.Printf("rebuild task: refreshed index with %d passages from %d documents in %s",
		result.Passages, result.Documents, result.Duration.Round(time.Millisecond))
	return nil
}

// SessionEvictor drops sessions idle past their TTL.
type SessionEvictor interface {
	EvictIdle() int
}

// EvictionTask periodically sweeps abandoned kiosk sessions.
type EvictionTask struct {
	sessions SessionEvictor
}

func NewEvictionTask(sessions SessionEvictor) *EvictionTask {
	return &EvictionTask{sessions: sessions}
}

// Run implements the Task interface.
func (t *EvictionTask) Run(ctx context.Context) error {
	t.sessions.EvictIdle()
	return nil
}
