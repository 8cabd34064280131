// Package dedup eliminates duplicate report files in two passes: a cheap
// pre-parse pass on storage metadata and an authoritative post-parse pass on
// extracted content identity.
package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wrh/nightaudit/internal/blobstore"
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/retry"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// Archiver moves phase-1 duplicates aside for audit instead of deleting
// them: copy to the duplicates namespace with original-key metadata, then
// tombstone the original.
type Archiver struct {
	store           blobstore.Store
	duplicatePrefix string
	policy          retry.Policy
	now             func() time.Time
}

// NewArchiver builds an Archiver writing under duplicatePrefix.
func NewArchiver(store blobstore.Store, duplicatePrefix string, policy retry.Policy) *Archiver {
	return &Archiver{
		store:           store,
		duplicatePrefix: duplicatePrefix,
		policy:          policy,
		now:             time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (a *Archiver) SetClock(now func() time.Time) {
	a.now = now
}

// phase1Key groups files that look identical before parsing. Filenames are
// frequently constant across properties, so this grouping is heuristic; the
// authoritative pass runs after parsing.
type phase1Key struct {
	propertyID string
	filename   string
	sizeBytes  int64
}

// Phase1 keeps, per (propertyIdFromPath, filename, sizeBytes) group, the
// entry with the latest modification time and archives the rest. Archive
// failures are logged and do not abort the run; the duplicate stays in place
// and is excluded from this run regardless.
func (a *Archiver) Phase1(ctx context.Context, files []models.FileIdentity) []models.FileIdentity {
	groups := make(map[phase1Key][]models.FileIdentity)
	var order []phase1Key
	for _, f := range files {
		k := phase1Key{propertyID: f.PropertyIDFromPath, filename: f.Filename, sizeBytes: f.SizeBytes}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	var kept []models.FileIdentity
	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].LastModifiedAt.After(group[j].LastModifiedAt)
		})
		kept = append(kept, group[0])

		for _, dup := range group[1:] {
			log.Info("Pre-parse duplicate detected",
				logging.Field{Key: logging.FieldKeptKey, Value: group[0].StorageKey},
				logging.Field{Key: logging.FieldSkippedKey, Value: dup.StorageKey})
			if err := a.archive(ctx, dup); err != nil {
				log.WithError(err).Warn("Failed to archive duplicate, leaving in place",
					logging.Field{Key: logging.FieldStorageKey, Value: dup.StorageKey})
			}
		}
	}
	return kept
}

func (a *Archiver) archive(ctx context.Context, dup models.FileIdentity) error {
	archiveKey := fmt.Sprintf("%s%s/%s/%s_%s",
		a.duplicatePrefix,
		dup.PropertyIDFromPath,
		dup.DateFolder,
		a.now().UTC().Format("20060102T150405Z"),
		dup.Filename)

	metadata := map[string]string{blobstore.MetadataOriginalKey: dup.StorageKey}

	if err := retry.Do(ctx, a.policy, "archive duplicate", func() error {
		return a.store.Copy(ctx, dup.StorageKey, archiveKey, metadata)
	}); err != nil {
		return err
	}

	return retry.Do(ctx, a.policy, "tombstone duplicate", func() error {
		return a.store.Delete(ctx, dup.StorageKey)
	})
}
