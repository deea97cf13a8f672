// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
)

func cmdList(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("list")
	sources := fs.StringArray("source", nil, "only files with this source tag, repeatable")
	formats := fs.StringArrayP("format", "f", nil, "only files with this format, repeatable")
	glob := fs.StringP("glob", "g", "", "only files matching the glob pattern (| separates alternatives)")
	verbose := fs.BoolP("verbose", "v", false, "include size, format and checksum columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: ia list <identifier>")
	}

	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := item.NewService(conf)
	if err != nil {
		return err
	}
	it, err := svc.Get(ctx, rest[0])
	if err != nil {
		return err
	}
	if !it.Exists {
		return fmt.Errorf("item %s does not exist", rest[0])
	}

	files := it.FilterFiles(item.FileFilter{
		Sources: *sources,
		Formats: *formats,
		Glob:    *glob,
	})
	if !*verbose {
		for _, f := range files {
			fmt.Println(f.Name)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "name\tsize\tsource\tformat\tmd5")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", f.Name, f.Size, f.Source, f.Format, f.MD5)
	}
	return w.Flush()
}
