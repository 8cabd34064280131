// Package discovery lists eligible incoming report files and derives their
// FileIdentity from the fixed storage-key convention
// daily-files/{propertyId}/{date}/{filename}.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wrh/nightaudit/internal/blobstore"
	"wrh/nightaudit/internal/dateutils"
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

// ParseKey splits a storage key of the shape
// {prefix}{propertyId}/{date}/{filename} into a FileIdentity. The filename
// portion may itself contain slashes. Keys not matching the shape return
// ok=false and are excluded from processing, not treated as errors.
func ParseKey(key, prefix string) (models.FileIdentity, bool) {
	if !strings.HasPrefix(key, prefix) {
		return models.FileIdentity{}, false
	}
	rest := strings.TrimPrefix(key, prefix)

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return models.FileIdentity{}, false
	}
	propertyID, dateFolder, filename := parts[0], parts[1], parts[2]
	if propertyID == "" || filename == "" {
		return models.FileIdentity{}, false
	}
	if _, err := time.Parse(dateutils.DateLayoutISO, dateFolder); err != nil {
		return models.FileIdentity{}, false
	}

	return models.FileIdentity{
		StorageKey:         key,
		PropertyIDFromPath: propertyID,
		DateFolder:         dateFolder,
		Filename:           filename,
	}, true
}

// BuildKey reassembles a storage key from identity components. Inverse of
// ParseKey for valid identities.
func BuildKey(prefix, propertyID, dateFolder, filename string) string {
	return fmt.Sprintf("%s%s/%s/%s", prefix, propertyID, dateFolder, filename)
}

// Finder lists files from the incoming store.
type Finder struct {
	store  blobstore.Store
	prefix string
	policy retry.Policy
}

// NewFinder builds a Finder over the given store and key prefix.
func NewFinder(store blobstore.Store, prefix string, policy retry.Policy) *Finder {
	return &Finder{store: store, prefix: prefix, policy: policy}
}

func (f *Finder) list(ctx context.Context) ([]blobstore.ObjectInfo, error) {
	var infos []blobstore.ObjectInfo
	err := retry.Do(ctx, f.policy, "list incoming files", func() error {
		var listErr error
		infos, listErr = f.store.List(ctx, f.prefix)
		return listErr
	})
	return infos, err
}

func (f *Finder) identities(infos []blobstore.ObjectInfo) []models.FileIdentity {
	var ids []models.FileIdentity
	for _, info := range infos {
		id, ok := ParseKey(info.Key, f.prefix)
		if !ok {
			log.Debug("Skipping malformed storage key",
				logging.Field{Key: logging.FieldStorageKey, Value: info.Key})
			continue
		}
		id.LastModifiedAt = info.LastModified
		id.SizeBytes = info.SizeBytes
		ids = append(ids, id)
	}
	return ids
}

// FindWindow returns all valid files modified within the window ending at
// now. The normal daily run uses a 24 hour window.
func (f *Finder) FindWindow(ctx context.Context, now time.Time, window time.Duration) ([]models.FileIdentity, error) {
	infos, err := f.list(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-window)

	var out []models.FileIdentity
	for _, id := range f.identities(infos) {
		if id.LastModifiedAt.Before(cutoff) || id.LastModifiedAt.After(now) {
			continue
		}
		out = append(out, id)
	}
	log.Info("Discovered files in window",
		logging.Field{Key: logging.FieldCount, Value: len(out)})
	return out, nil
}

// FindFolderDate returns all valid files under the given folder date,
// regardless of modification time. Used for explicit reprocessing.
func (f *Finder) FindFolderDate(ctx context.Context, folderDate time.Time) ([]models.FileIdentity, error) {
	infos, err := f.list(ctx)
	if err != nil {
		return nil, err
	}
	target := dateutils.ToISODate(folderDate)

	var out []models.FileIdentity
	for _, id := range f.identities(infos) {
		if id.DateFolder == target {
			out = append(out, id)
		}
	}
	log.Info("Discovered files for folder date",
		logging.Field{Key: logging.FieldBusinessDate, Value: target},
		logging.Field{Key: logging.FieldCount, Value: len(out)})
	return out, nil
}

// FindBusinessDate returns candidate files for a business date. Same-day and
// next-day senders both exist, so the business date's folder and the
// following day's folder are both queried; content parsing later confirms
// the actual business date.
func (f *Finder) FindBusinessDate(ctx context.Context, businessDate time.Time) ([]models.FileIdentity, error) {
	infos, err := f.list(ctx)
	if err != nil {
		return nil, err
	}
	sameDay := dateutils.ToISODate(businessDate)
	nextDay := dateutils.ToISODate(businessDate.AddDate(0, 0, 1))

	var out []models.FileIdentity
	for _, id := range f.identities(infos) {
		if id.DateFolder == sameDay || id.DateFolder == nextDay {
			out = append(out, id)
		}
	}
	log.Info("Discovered candidate files for business date",
		logging.Field{Key: logging.FieldBusinessDate, Value: sameDay},
		logging.Field{Key: logging.FieldCount, Value: len(out)})
	return out, nil
}
