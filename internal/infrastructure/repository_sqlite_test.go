package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

func setupTestRepo(t *testing.T) (*SQLiteHistoryRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewSQLiteHistoryRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func newTestRecord(url string, mode domain.Mode) *domain.DownloadRecord {
	return domain.NewDownloadRecord(domain.DownloadRequest{
		URL:         url,
		Mode:        mode,
		Quality:     "720p",
		Destination: "/music",
	})
}

func TestHistory_CreateAndFind(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec := newTestRecord("https://example.com/watch?v=1", domain.ModeVideo)
	require.NoError(t, repo.Create(rec))

	found, err := repo.FindByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rec.URL, found.URL)
	assert.Equal(t, domain.ModeVideo, found.Mode)
	assert.Equal(t, domain.RecordRunning, found.Status)
}

func TestHistory_FindByIDMissing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	found, err := repo.FindByID("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestHistory_UpdatePersistsOutcome(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	rec := newTestRecord("https://example.com/watch?v=2", domain.ModeAudio)
	require.NoError(t, repo.Create(rec))

	rec.MarkFailed(domain.ClassifiedError{Category: domain.ErrorPrivate, DisplayText: "Video is private"})
	require.NoError(t, repo.Update(rec))

	found, err := repo.FindByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordFailed, found.Status)
	assert.Equal(t, domain.ErrorPrivate, found.ErrorCategory)
	assert.Equal(t, "Video is private", found.ErrorMessage)
	assert.NotNil(t, found.CompletedAt)
}

func TestHistory_FindRecentNewestFirst(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		rec := newTestRecord("https://example.com/"+string(rune('a'+i)), domain.ModeAudio)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(rec))
		ids = append(ids, rec.ID)
	}

	records, err := repo.FindRecent(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[1], records[1].ID)

	all, err := repo.FindRecent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_GetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	done := newTestRecord("https://example.com/1", domain.ModeAudio)
	done.MarkCompleted("/music/a.mp3")
	cancelled := newTestRecord("https://example.com/2", domain.ModeAudio)
	cancelled.MarkCancelled()
	running := newTestRecord("https://example.com/3", domain.ModeVideo)

	for _, rec := range []*domain.DownloadRecord{done, cancelled, running} {
		require.NoError(t, repo.Create(rec))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Equal(t, int64(1), stats.Running)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestHistory_FailInterrupted(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	stale := newTestRecord("https://example.com/stale", domain.ModeVideo)
	require.NoError(t, repo.Create(stale))
	done := newTestRecord("https://example.com/done", domain.ModeAudio)
	done.MarkCompleted("/music/done.mp3")
	require.NoError(t, repo.Create(done))

	n, err := repo.FailInterrupted()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := repo.FindByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordFailed, found.Status)
	assert.Equal(t, "Interrupted", found.ErrorMessage)

	found, err = repo.FindByID(done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordCompleted, found.Status)
}
