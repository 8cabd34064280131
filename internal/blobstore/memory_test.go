package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "daily-files/BARD01/2025-07-14/audit.txt", []byte("report body"), nil))

	content, err := s.Get(ctx, "daily-files/BARD01/2025-07-14/audit.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("report body"), content)

	exists, err := s.Exists(ctx, "daily-files/BARD01/2025-07-14/audit.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	s.Seed("daily-files/BARD01/2025-07-14/a.txt", []byte("aa"), now)
	s.Seed("daily-files/ASH02/2025-07-14/b.txt", []byte("bbb"), now)
	s.Seed("reports/2025-07-15/x.csv", []byte("c"), now)

	infos, err := s.List(ctx, "daily-files/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	// Sorted by key.
	assert.Equal(t, "daily-files/ASH02/2025-07-14/b.txt", infos[0].Key)
	assert.Equal(t, int64(3), infos[0].SizeBytes)
	assert.Equal(t, now, infos[0].LastModified)
}

func TestMemoryStoreCopyCarriesMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed("src", []byte("x"), time.Now())

	meta := map[string]string{MetadataOriginalKey: "src"}
	require.NoError(t, s.Copy(ctx, "src", "dst", meta))

	assert.Equal(t, "src", s.Metadata("dst")[MetadataOriginalKey])

	require.NoError(t, s.Delete(ctx, "src"))
	assert.Error(t, s.Delete(ctx, "src"))
}

func TestMemoryStoreFaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.FailOps = map[string]error{"put": assert.AnError}

	assert.Error(t, s.Put(ctx, "k", []byte("v"), nil))

	s.FailOps = nil
	assert.NoError(t, s.Put(ctx, "k", []byte("v"), nil))
}
