package corpus

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fuzzrun/internal/types"
)

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestFetcher(t *testing.T, storageBase string) *httpFetcher {
	t.Helper()
	return &httpFetcher{
		logger:      zaptest.NewLogger(t),
		client:      &http.Client{Timeout: 10 * time.Second},
		storageBase: storageBase,
	}
}

func newTestTarget(t *testing.T, project string) *types.FuzzTarget {
	t.Helper()
	target, err := types.NewFuzzTarget("/build/out/fuzz_parser", time.Minute, t.TempDir(), project)
	require.NoError(t, err)
	return target
}

func TestArchiveURL(t *testing.T) {
	f := newTestFetcher(t, "https://storage.googleapis.com")
	url := f.archiveURL("zlib", "fuzz_parser")
	assert.Equal(t,
		"https://storage.googleapis.com/zlib-backup.clusterfuzz-external.appspot.com/corpus/libFuzzer/zlib_fuzz_parser/public.zip",
		url)
}

func TestDownloadStagesSeeds(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"seed-1": "aaaa",
		"seed-2": "bbbb",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zlib-backup.clusterfuzz-external.appspot.com/corpus/libFuzzer/zlib_fuzz_parser/public.zip", r.URL.Path)
		w.Write(archive)
	}))
	defer srv.Close()

	target := newTestTarget(t, "zlib")
	corpusDir, err := newTestFetcher(t, srv.URL).Download(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target.OutDir, "corpus", target.Name), corpusDir)

	seeds, err := os.ReadDir(corpusDir)
	require.NoError(t, err)
	assert.Len(t, seeds, 2)
}

func TestDownloadSkippedWithoutProject(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	target := newTestTarget(t, "")
	_, err := newTestFetcher(t, srv.URL).Download(context.Background(), target)
	assert.ErrorIs(t, err, ErrNoCorpus)
	assert.Zero(t, requests, "no network call should be attempted without a project id")
}

func TestDownloadNotFoundIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	target := newTestTarget(t, "zlib")
	_, err := newTestFetcher(t, srv.URL).Download(context.Background(), target)
	assert.ErrorIs(t, err, ErrNoCorpus)

	// nothing staged on failure
	corpusDir := filepath.Join(target.OutDir, "corpus", target.Name)
	entries, readErr := os.ReadDir(corpusDir)
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestDownloadOverwritesPriorCorpus(t *testing.T) {
	archives := [][]byte{
		zipArchive(t, map[string]string{"old-seed": "aaaa", "shared": "old"}),
		zipArchive(t, map[string]string{"new-seed": "bbbb"}),
	}
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archives[fetches])
		fetches++
	}))
	defer srv.Close()

	target := newTestTarget(t, "zlib")
	fetcher := newTestFetcher(t, srv.URL)

	_, err := fetcher.Download(context.Background(), target)
	require.NoError(t, err)
	corpusDir, err := fetcher.Download(context.Background(), target)
	require.NoError(t, err)

	entries, err := os.ReadDir(corpusDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "second fetch must replace, not merge")
	assert.Equal(t, "new-seed", entries[0].Name())
}
