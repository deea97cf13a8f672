// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/openarchive/archive-cli-sdk/sdk/services/transfer"
)

func cmdDownload(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("download")
	sources := fs.StringArray("source", nil, "only files with this source tag, repeatable")
	formats := fs.StringArrayP("format", "f", nil, "only files with this format, repeatable")
	glob := fs.StringP("glob", "g", "", "only files matching the glob pattern (| separates alternatives)")
	destDir := fs.String("destdir", "", "destination directory")
	noDirectories := fs.Bool("no-directories", false, "download into the destination directly, without an item directory")
	ignoreExisting := fs.BoolP("ignore-existing", "i", false, "skip files that already exist locally")
	checksum := fs.BoolP("checksum", "C", false, "skip files whose local checksum already matches")
	dryRun := fs.Bool("dry-run", false, "print the download URLs and exit")
	quiet := fs.BoolP("quiet", "q", false, "suppress per-file progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("usage: ia download <identifier> [file ...]")
	}

	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := transfer.NewService(conf)
	if err != nil {
		return err
	}

	infos, failed, err := svc.Download(ctx, transfer.DownloadRequest{
		Identifier:     rest[0],
		Files:          rest[1:],
		Sources:        *sources,
		Formats:        *formats,
		Glob:           *glob,
		DestDir:        *destDir,
		NoDirectory:    *noDirectories,
		IgnoreExisting: *ignoreExisting,
		Checksum:       *checksum,
		DryRun:         *dryRun,
		Verbose:        !*quiet,
	})
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(failed), len(failed)+len(infos))
	}
	return nil
}
