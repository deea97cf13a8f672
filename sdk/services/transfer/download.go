// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

// Download fetches the selected files of one item to disk. Dark and
// nonexistent items are skipped with a warning, not an error. Per-file
// failures are collected by name and the rest of the batch proceeds.
func (s *Service) Download(ctx context.Context, req DownloadRequest) ([]DownloadInfo, []string, error) {
	if err := utils.ValidateIdentifier(req.Identifier); err != nil {
		return nil, nil, err
	}
	it, err := s.items.Get(ctx, req.Identifier)
	if err != nil {
		return nil, nil, err
	}
	if it.IsDark {
		utils.Warnf("skipping %s, item is dark", req.Identifier)
		return nil, nil, nil
	}
	if !it.Exists {
		utils.Warnf("skipping %s, item does not exist", req.Identifier)
		return nil, nil, nil
	}

	files := it.FilterFiles(item.FileFilter{
		Names:   req.Files,
		Sources: req.Sources,
		Formats: req.Formats,
		Glob:    req.Glob,
	})
	if len(files) == 0 {
		utils.Infof("no files matched the selection for %s", req.Identifier)
		return nil, nil, nil
	}

	var infos []DownloadInfo
	var failed []string
	for _, f := range files {
		src := s.http.BuildURL(s.cfg.BaseURL, "download/"+req.Identifier+"/"+f.Name, nil)
		if req.DryRun {
			fmt.Println(src)
			continue
		}

		target := f.Name
		if !req.NoDirectory {
			target = filepath.Join(req.Identifier, filepath.FromSlash(f.Name))
		}
		if req.DestDir != "" {
			target = filepath.Join(req.DestDir, target)
		}

		if skip, reason := skipExisting(req, f, target); skip {
			if req.Verbose {
				utils.Infof("skipping %s, %s", f.Name, reason)
			}
			continue
		}

		if err := s.downloadFile(ctx, src, target); err != nil {
			utils.Warnf("download of %s failed: %v", f.Name, err)
			failed = append(failed, f.Name)
			continue
		}
		st, err := os.Stat(target)
		if err != nil {
			failed = append(failed, f.Name)
			continue
		}
		if req.Verbose {
			utils.Infof("downloaded %s (%d bytes)", f.Name, st.Size())
		}
		infos = append(infos, DownloadInfo{Name: f.Name, Size: st.Size(), Path: target})
	}
	return infos, failed, nil
}

func skipExisting(req DownloadRequest, f item.File, target string) (bool, string) {
	if !req.IgnoreExisting && !req.Checksum {
		return false, ""
	}
	if _, err := os.Stat(target); err != nil {
		return false, ""
	}
	if req.IgnoreExisting {
		return true, "file already exists"
	}
	local, err := utils.MD5File(target)
	if err == nil && f.MD5 != "" && local == f.MD5 {
		return true, "local copy matches checksum"
	}
	return false, ""
}

// downloadFile streams one file to a staging path next to the target and
// renames it into place only after the full body arrived, so an interrupted
// transfer never leaves a truncated file under the final name.
func (s *Service) downloadFile(ctx context.Context, rawURL, target string) error {
	resp, err := s.http.Open(ctx, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	staging := target + ".part-" + uuid.NewString()
	out, err := os.Create(staging)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(staging)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(staging)
		return err
	}
	return os.Rename(staging, target)
}
