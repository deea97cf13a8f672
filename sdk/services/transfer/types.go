// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"io"
	"time"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
)

// FileSource is one thing to upload. Either LocalPath points at a file or
// directory on disk, or Body carries the content directly. Body sources
// must name their Key and Size up front; directory sources expand to one
// upload per regular file, keys prefixed with the directory path (or Key
// when set).
type FileSource struct {
	Key       string
	LocalPath string
	Body      io.ReadSeeker
	Size      int64
}

// UploadRequest drives one upload batch into a single item. The bucket is
// auto-created on first write. RetriesSleep defaults to 30s when zero.
type UploadRequest struct {
	Identifier string
	Files      []FileSource

	// Metadata is rendered into x-archive-meta headers on every request
	// of the batch. A missing scanner entry gets the client's own tag.
	Metadata map[string]any

	// Headers are caller extras, applied last.
	Headers map[string]string

	NoDerive     bool
	Checksum     bool
	Delete       bool
	Retries      int
	RetriesSleep time.Duration
	SizeHint     int64
	Debug        bool
	Verbose      bool
}

// UploadResponse records the outcome for one file of the batch.
type UploadResponse struct {
	Key string
	URL string

	// Headers is the exact header set the request carried (or would have
	// carried, in debug mode).
	Headers map[string]string

	// Response is nil for skipped and debug outcomes.
	Response *config.Response

	// Skipped means the remote copy already matched the local checksum
	// and nothing was sent. Counts as success.
	Skipped bool

	// Debug means the request was described, not sent.
	Debug bool
}

// OK reports whether this file ended in a success state.
func (r *UploadResponse) OK() bool {
	if r.Skipped || r.Debug {
		return true
	}
	return r.Response != nil && r.Response.OK()
}

// DownloadRequest selects files of one item to fetch. An empty selection
// (no Files/Sources/Formats/Glob) downloads everything.
type DownloadRequest struct {
	Identifier string
	Files      []string
	Sources    []string
	Formats    []string
	Glob       string

	// DestDir is the local root; files land under <DestDir>/<identifier>/
	// unless NoDirectory flattens them into DestDir itself.
	DestDir     string
	NoDirectory bool

	// IgnoreExisting skips any file already present locally, regardless
	// of content. Checksum skips only when the local MD5 matches.
	IgnoreExisting bool
	Checksum       bool

	// DryRun prints the source URLs and transfers nothing.
	DryRun  bool
	Verbose bool
}

// DownloadInfo describes one file that was written to disk.
type DownloadInfo struct {
	Name string
	Size int64
	Path string
}

// DeleteRequest removes files from an item. All targets every file whose
// source is "original"; Cascade also removes the derivatives of each
// deleted file.
type DeleteRequest struct {
	Identifier string
	Files      []string
	All        bool
	Cascade    bool
}
