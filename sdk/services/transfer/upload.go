// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

const defaultRetriesSleep = 30 * time.Second

// ErrRemoteNameRequired marks a stream source that did not name its key.
var ErrRemoteNameRequired = errors.New("remote name is required for stream sources")

// Upload sends every source of the batch to the item's bucket, one PUT per
// file, in order. Local precondition failures (missing files, unnamed
// streams) abort before any bytes move. Once transfers start, a terminal
// HTTP failure is recorded in its UploadResponse and the batch continues;
// only transport errors stop it. In debug mode every request is described
// and nothing is sent.
func (s *Service) Upload(ctx context.Context, req UploadRequest) ([]*UploadResponse, error) {
	if err := utils.ValidateIdentifier(req.Identifier); err != nil {
		return nil, err
	}
	sources, err := expandSources(req.Files)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New("nothing to upload")
	}

	// Delete-after-verify only makes sense with checksum comparison.
	checksum := req.Checksum || req.Delete

	var remote map[string]string
	if checksum && !req.Debug {
		remote = s.remoteChecksums(ctx, req.Identifier)
	}

	metadata := map[string]any{}
	maps.Copy(metadata, req.Metadata)
	if _, ok := metadata["scanner"]; !ok {
		metadata["scanner"] = "archive-cli-sdk/" + config.Version
	}

	out := make([]*UploadResponse, 0, len(sources))
	for _, src := range sources {
		resp, err := s.uploadOne(ctx, req, src, metadata, remote, checksum)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// remoteChecksums maps file name to MD5 for the item's current files. A
// fetch failure just disables skipping; the upload itself will surface any
// real problem.
func (s *Service) remoteChecksums(ctx context.Context, identifier string) map[string]string {
	it, err := s.items.Get(ctx, identifier)
	if err != nil || !it.Exists {
		return nil
	}
	sums := make(map[string]string, len(it.Files))
	for _, f := range it.Files {
		sums[f.Name] = f.MD5
	}
	return sums
}

func (s *Service) uploadOne(ctx context.Context, req UploadRequest, src FileSource, metadata map[string]any, remote map[string]string, checksum bool) (*UploadResponse, error) {
	var body io.ReadSeeker
	size := src.Size

	if src.LocalPath != "" {
		f, err := os.Open(src.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", src.LocalPath, err)
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("cannot stat %s: %w", src.LocalPath, err)
		}
		body = f
		size = st.Size()
	} else {
		if end, err := src.Body.Seek(0, io.SeekEnd); err == nil && end > 0 {
			size = end
		}
		body = src.Body
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("cannot rewind %s: %w", src.Key, err)
	}
	md5sum, err := utils.MD5Reader(body)
	if err != nil {
		return nil, fmt.Errorf("cannot checksum %s: %w", src.Key, err)
	}

	target := s.http.BuildURL(s.cfg.S3Endpoint, req.Identifier+"/"+strings.TrimPrefix(src.Key, "/"), nil)
	headers := buildHeaders(req, size, md5sum, metadata)
	result := &UploadResponse{Key: src.Key, URL: target, Headers: headers}

	if checksum && remote[src.Key] == md5sum && remote[src.Key] != "" {
		result.Skipped = true
		if req.Verbose {
			utils.Infof("%s already exists with matching checksum, skipping", src.Key)
		}
		if req.Delete && src.LocalPath != "" {
			if err := os.Remove(src.LocalPath); err != nil {
				utils.Warnf("uploaded but could not remove %s: %v", src.LocalPath, err)
			}
		}
		return result, nil
	}

	if req.Debug {
		result.Debug = true
		return result, nil
	}

	retries := req.Retries
	sleep := req.RetriesSleep
	if sleep <= 0 {
		sleep = defaultRetriesSleep
	}
	var resp *config.Response
	for {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("cannot rewind %s: %w", src.Key, err)
		}
		resp, err = s.http.Do(ctx, http.MethodPut, target, headers, body)
		if err != nil {
			return nil, err
		}
		if !resp.IsSlowDown() || retries <= 0 {
			break
		}
		retries--
		if req.Verbose {
			utils.Warnf("storage endpoint is overloaded, retrying %s in %s (%d retries left)", src.Key, sleep, retries)
		}
		s.sleep(sleep)
	}
	result.Response = resp

	if !resp.OK() {
		utils.Warnf("upload of %s failed: %s", src.Key, resp.ErrorMessage())
		return result, nil
	}
	if req.Delete && src.LocalPath != "" {
		if err := os.Remove(src.LocalPath); err != nil {
			utils.Warnf("uploaded but could not remove %s: %v", src.LocalPath, err)
		}
	}
	return result, nil
}

// buildHeaders assembles the exact header set for one PUT. Metadata headers
// come first, then size/derive/checksum controls, then caller extras.
func buildHeaders(req UploadRequest, size int64, md5sum string, metadata map[string]any) map[string]string {
	h := metaHeaders(metadata)

	h["Content-Length"] = strconv.FormatInt(size, 10)
	h["Content-MD5"] = md5sum
	h["x-archive-auto-make-bucket"] = "1"
	if req.NoDerive {
		h["x-archive-queue-derive"] = "0"
	} else {
		h["x-archive-queue-derive"] = "1"
	}
	sizeHint := req.SizeHint
	if sizeHint <= 0 {
		sizeHint = size
	}
	h["x-archive-size-hint"] = strconv.FormatInt(sizeHint, 10)

	maps.Copy(h, req.Headers)
	return h
}

// metaHeaders renders item metadata as indexed x-archive-meta headers.
// Every value, single or multi, carries a zero-padded index so the service
// reassembles lists in order. Values outside the restricted header charset
// are shipped uri()-encoded.
func metaHeaders(metadata map[string]any) map[string]string {
	h := map[string]string{}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := strings.ToLower(strings.ReplaceAll(k, " ", "--"))
		var values []string
		switch v := metadata[k].(type) {
		case []string:
			values = v
		case []any:
			for _, e := range v {
				values = append(values, fmt.Sprint(e))
			}
		case nil:
			continue
		default:
			values = []string{fmt.Sprint(v)}
		}
		for i, v := range values {
			if v == "" {
				continue
			}
			h[fmt.Sprintf("x-archive-meta%02d-%s", i, name)] = utils.MetaHeaderValue(v)
		}
	}
	return h
}

// expandSources validates the batch up front and flattens directories into
// per-file sources. Keys default to the base name for plain files and to
// directory-relative paths (prefixed by the directory path or Key) for
// directory sources.
func expandSources(files []FileSource) ([]FileSource, error) {
	var out []FileSource
	for _, src := range files {
		if src.Body != nil {
			if src.Key == "" {
				return nil, ErrRemoteNameRequired
			}
			out = append(out, src)
			continue
		}
		if src.LocalPath == "" {
			return nil, errors.New("file source has neither a local path nor a body")
		}
		st, err := os.Stat(src.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("local file %s: %w", src.LocalPath, err)
		}
		if !st.IsDir() {
			if src.Key == "" {
				src.Key = filepath.Base(src.LocalPath)
			}
			out = append(out, src)
			continue
		}

		prefix := src.Key
		if prefix == "" && !strings.HasSuffix(src.LocalPath, "/") {
			prefix = path.Clean(filepath.ToSlash(src.LocalPath))
		}
		err = filepath.WalkDir(src.LocalPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.Type().IsRegular() {
				return err
			}
			rel, err := filepath.Rel(src.LocalPath, p)
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)
			if prefix != "" {
				key = path.Join(prefix, key)
			}
			out = append(out, FileSource{Key: key, LocalPath: p})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", src.LocalPath, err)
		}
	}
	return out, nil
}
