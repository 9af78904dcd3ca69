package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	return path
}

func TestNewCreatesRenditionDirs(t *testing.T) {
	dataDir := t.TempDir()
	_, err := New(dataDir, "https://animeloop.local", "")
	require.NoError(t, err)

	for _, rendition := range Renditions {
		info, statErr := os.Stat(filepath.Join(dataDir, rendition.Name))
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}

func TestSaveAndDelete(t *testing.T) {
	dataDir := t.TempDir()
	store, err := New(dataDir, "https://animeloop.local", "")
	require.NoError(t, err)

	srcDir := t.TempDir()
	id := "5a41a07ef64e7bd7105ab2b3"
	err = store.Save(id, []Artifact{
		{Rendition: "mp4_1080p", SourcePath: writeArtifact(t, srcDir, "loop.mp4")},
		{Rendition: "gif_360p", SourcePath: writeArtifact(t, srcDir, "loop.gif")},
	})
	require.NoError(t, err)

	mp4 := store.LocalPath(id, "mp4_1080p")
	assert.Equal(t, filepath.Join(dataDir, "mp4_1080p", id+".mp4"), mp4)
	assert.FileExists(t, mp4)
	assert.FileExists(t, store.LocalPath(id, "gif_360p"))
	// The source artifacts were moved, not copied.
	assert.NoFileExists(t, filepath.Join(srcDir, "loop.mp4"))

	require.NoError(t, store.Delete(id))
	assert.NoFileExists(t, mp4)

	// A second delete is a no-op.
	assert.NoError(t, store.Delete(id))
}

func TestSaveRejectsUnknownRendition(t *testing.T) {
	store, err := New(t.TempDir(), "https://animeloop.local", "")
	require.NoError(t, err)

	err = store.Save("abc", []Artifact{{Rendition: "avi_480p", SourcePath: "/nowhere"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avi_480p")
}

func TestPublicURLs(t *testing.T) {
	store, err := New(t.TempDir(), "https://animeloop.local", "https://cdn.animeloop.local")
	require.NoError(t, err)

	id := "5a41a07ef64e7bd7105ab2b3"
	urls := store.PublicURLs(id, false)
	require.Len(t, urls, len(Renditions))
	assert.Equal(t, "https://animeloop.local/files/mp4_1080p/"+id+".mp4", urls["mp4_1080p"])
	assert.Equal(t, "https://animeloop.local/files/webm_1080p/"+id+".webm", urls["webm_1080p"])
	assert.Equal(t, "https://animeloop.local/files/jpg_720p/"+id+".jpg", urls["jpg_720p"])

	cdnURLs := store.PublicURLs(id, true)
	assert.Equal(t, "https://cdn.animeloop.local/files/gif_360p/"+id+".gif", cdnURLs["gif_360p"])
}

func TestPublicURLsWithoutCDNFallsBack(t *testing.T) {
	store, err := New(t.TempDir(), "https://animeloop.local", "")
	require.NoError(t, err)

	urls := store.PublicURLs("abc", true)
	assert.Equal(t, "https://animeloop.local/files/mp4_1080p/abc.mp4", urls["mp4_1080p"])
}
