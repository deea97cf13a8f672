// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/openarchive/archive-cli-sdk/sdk/services/transfer"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

func cmdUpload(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("upload")
	metadata := fs.StringArrayP("metadata", "m", nil, "metadata key:value, repeatable")
	headers := fs.StringArrayP("header", "H", nil, "extra request header key:value, repeatable")
	remoteName := fs.String("remote-name", "", "remote filename, required when uploading from stdin")
	spreadsheet := fs.String("spreadsheet", "", "bulk upload from a CSV of items")
	noDerive := fs.Bool("no-derive", false, "do not queue derivation after upload")
	checksum := fs.Bool("checksum", false, "skip files whose remote checksum already matches")
	deleteLocal := fs.Bool("delete", false, "delete local files after the service confirmed them")
	retries := fs.IntP("retries", "r", 0, "retries on a SlowDown response")
	sleep := fs.Int("sleep", 30, "seconds to wait between retries")
	sizeHint := fs.Int64("size-hint", 0, "expected total item size in bytes")
	debug := fs.BoolP("debug", "d", false, "describe the requests without sending them")
	statusCheck := fs.Bool("status-check", false, "only check whether the endpoint accepts uploads")
	quiet := fs.BoolP("quiet", "q", false, "suppress per-file progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := transfer.NewService(conf)
	if err != nil {
		return err
	}
	if *statusCheck {
		ok, err := svc.StatusCheck(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("the storage endpoint is over its rate limit for these keys, expect SlowDown responses")
		}
		fmt.Println("the storage endpoint is accepting requests")
		return nil
	}

	meta, err := utils.ParseKVArgs(*metadata)
	if err != nil {
		return err
	}
	extra, err := parseHeaderArgs(*headers)
	if err != nil {
		return err
	}

	base := transfer.UploadRequest{
		Metadata:     meta,
		Headers:      extra,
		NoDerive:     *noDerive,
		Checksum:     *checksum,
		Delete:       *deleteLocal,
		Retries:      *retries,
		RetriesSleep: time.Duration(*sleep) * time.Second,
		SizeHint:     *sizeHint,
		Debug:        *debug,
		Verbose:      !*quiet,
	}

	if *spreadsheet != "" {
		return uploadSpreadsheet(ctx, svc, base, *spreadsheet)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: ia upload <identifier> <file|-> [file ...]")
	}
	req := base
	req.Identifier = rest[0]
	for _, f := range rest[1:] {
		if f == "-" {
			if *remoteName == "" {
				return fmt.Errorf("--remote-name is required when uploading from stdin")
			}
			body, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			req.Files = append(req.Files, transfer.FileSource{
				Key:  *remoteName,
				Body: bytes.NewReader(body),
				Size: int64(len(body)),
			})
			continue
		}
		req.Files = append(req.Files, transfer.FileSource{LocalPath: f, Key: singleFileKey(rest[1:], *remoteName)})
	}

	resps, err := svc.Upload(ctx, req)
	if err != nil {
		return err
	}
	return reportUploads(resps)
}

// singleFileKey lets --remote-name rename a lone file argument; with
// several files the flag only applies to stdin.
func singleFileKey(files []string, remoteName string) string {
	if len(files) == 1 && remoteName != "" {
		return remoteName
	}
	return ""
}

func reportUploads(resps []*transfer.UploadResponse) error {
	failed := 0
	for _, r := range resps {
		switch {
		case r.Debug:
			fmt.Printf("PUT %s\n", r.URL)
			keys := make([]string, 0, len(r.Headers))
			for k := range r.Headers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %s\n", k, r.Headers[k])
			}
		case r.Skipped:
			fmt.Printf("skipped %s\n", r.Key)
		case r.OK():
			fmt.Printf("uploaded %s\n", r.Key)
		default:
			failed++
			fmt.Printf("failed %s: %s\n", r.Key, r.Response.ErrorMessage())
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(resps))
	}
	return nil
}

// uploadSpreadsheet runs one upload per CSV row. The "file" column is the
// local path, "identifier" names the target item and is inherited from the
// previous row when blank, every other column is item metadata.
func uploadSpreadsheet(ctx context.Context, svc *transfer.Service, base transfer.UploadRequest, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	fileCol, idCol := -1, -1
	for i, name := range header {
		switch name {
		case "file":
			fileCol = i
		case "identifier":
			idCol = i
		}
	}
	if fileCol < 0 || idCol < 0 {
		return fmt.Errorf("%s needs both a \"file\" and an \"identifier\" column", path)
	}

	failed, total := 0, 0
	identifier := ""
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if row[idCol] != "" {
			identifier = row[idCol]
		}
		if identifier == "" {
			return fmt.Errorf("%s: first row has no identifier", path)
		}

		req := base
		req.Identifier = identifier
		req.Files = []transfer.FileSource{{LocalPath: row[fileCol]}}
		req.Metadata = map[string]any{}
		for k, v := range base.Metadata {
			req.Metadata[k] = v
		}
		for i, col := range header {
			if i == fileCol || i == idCol || row[i] == "" {
				continue
			}
			req.Metadata[col] = row[i]
		}

		resps, err := svc.Upload(ctx, req)
		if err != nil {
			return err
		}
		total += len(resps)
		for _, resp := range resps {
			if !resp.OK() {
				failed++
				fmt.Printf("failed %s/%s: %s\n", identifier, resp.Key, resp.Response.ErrorMessage())
			} else if !resp.Debug {
				fmt.Printf("uploaded %s/%s\n", identifier, resp.Key)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, total)
	}
	return nil
}

func cmdStatusCheck(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("status-check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := transfer.NewService(conf)
	if err != nil {
		return err
	}
	ok, err := svc.StatusCheck(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("the storage endpoint is over its rate limit for these keys, expect SlowDown responses")
	}
	fmt.Println("the storage endpoint is accepting requests")
	return nil
}
