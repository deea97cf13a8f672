// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downloadMeta = `{
	"metadata": {"identifier": "nasa", "title": "NASA Images"},
	"server": "ia902606.us.archive.org",
	"dir": "/7/items/nasa",
	"files": [
		{"name": "nasa_meta.xml", "source": "original", "format": "Metadata", "size": "12", "md5": "9473fdd0d880a43c21b7778d34872157"},
		{"name": "globe_west_540.jpg", "source": "original", "format": "JPEG", "size": "13", "md5": "ffffffffffffffffffffffffffffffff"}
	]
}`

func downloadServer(t *testing.T, meta string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/nasa", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, meta)
	})
	mux.HandleFunc("/download/nasa/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/download/nasa/") {
		case "nasa_meta.xml":
			fmt.Fprint(w, testBody)
		case "globe_west_540.jpg":
			fmt.Fprint(w, "not a real jpeg")
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		Files:      []string{"nasa_meta.xml"},
		DestDir:    dest,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, infos, 1)

	// Files land under an identifier directory by default.
	want := filepath.Join(dest, "nasa", "nasa_meta.xml")
	assert.Equal(t, want, infos[0].Path)
	assert.Equal(t, int64(len(testBody)), infos[0].Size)
	b, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, testBody, string(b))

	// No staging leftovers.
	entries, err := os.ReadDir(filepath.Join(dest, "nasa"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nasa_meta.xml", entries[0].Name())
}

func TestDownloadNoDirectory(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier:  "nasa",
		Files:       []string{"nasa_meta.xml"},
		DestDir:     dest,
		NoDirectory: true,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, infos, 1)
	assert.Equal(t, filepath.Join(dest, "nasa_meta.xml"), infos[0].Path)
}

func TestDownloadAllFiles(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    dest,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Len(t, infos, 2)
}

func TestDownloadGlob(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, _, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		Glob:       "*.jpg",
		DestDir:    dest,
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "globe_west_540.jpg", infos[0].Name)
}

func TestDownloadIgnoreExisting(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	existing := writeFile(t, dest, filepath.Join("nasa", "nasa_meta.xml"), "stale local copy")
	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier:     "nasa",
		Files:          []string{"nasa_meta.xml"},
		DestDir:        dest,
		IgnoreExisting: true,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Empty(t, infos)

	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "stale local copy", string(b))
}

func TestDownloadChecksumSkipAndRefetch(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	// Matching local copy is skipped, mismatching one is re-fetched.
	writeFile(t, dest, filepath.Join("nasa", "nasa_meta.xml"), testBody)
	stale := writeFile(t, dest, filepath.Join("nasa", "globe_west_540.jpg"), "corrupted")

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    dest,
		Checksum:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, infos, 1)
	assert.Equal(t, "globe_west_540.jpg", infos[0].Name)

	b, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "not a real jpeg", string(b))
}

func TestDownloadDryRun(t *testing.T) {
	srv := downloadServer(t, downloadMeta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    dest,
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Empty(t, infos)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not touch the destination")
}

func TestDownloadDarkItemSkipped(t *testing.T) {
	srv := downloadServer(t, `{"metadata": {"identifier": "nasa"}, "is_dark": true}`)
	svc, _ := newTestService(t, srv.URL)

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Empty(t, infos)
	assert.Empty(t, failed)
}

func TestDownloadNonexistentItemSkipped(t *testing.T) {
	srv := downloadServer(t, `{}`)
	svc, _ := newTestService(t, srv.URL)

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Empty(t, infos)
	assert.Empty(t, failed)
}

func TestDownloadPartialFailure(t *testing.T) {
	meta := strings.ReplaceAll(downloadMeta, "globe_west_540.jpg", "gone.jpg")
	srv := downloadServer(t, meta)
	svc, _ := newTestService(t, srv.URL)
	dest := t.TempDir()

	infos, failed, err := svc.Download(context.Background(), DownloadRequest{
		Identifier: "nasa",
		DestDir:    dest,
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "nasa_meta.xml", infos[0].Name)
	assert.Equal(t, []string{"gone.jpg"}, failed)
}
