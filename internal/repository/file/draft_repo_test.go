package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketwizard/internal/domain"
)

func TestDraftRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "drafts")
	repo, err := NewDraftRepository(dir)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "eventFormProgress:u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Put(ctx, "eventFormProgress:u1", []byte(`{"v":1}`)))
	require.NoError(t, repo.Put(ctx, "eventFormProgress:u1", []byte(`{"v":2}`)))
	got, err := repo.Get(ctx, "eventFormProgress:u1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "one slot per key and no temp files left behind")

	require.NoError(t, repo.Delete(ctx, "eventFormProgress:u1"))
	_, err = repo.Get(ctx, "eventFormProgress:u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, "eventFormProgress:u1"), "deleting a missing slot is fine")
}

func TestDraftRepository_KeysStayInDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewDraftRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Put(ctx, "../../etc/passwd", []byte("x")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
}
