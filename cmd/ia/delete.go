// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/openarchive/archive-cli-sdk/sdk/services/transfer"
)

func cmdDelete(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("delete")
	all := fs.Bool("all", false, "delete every original file of the item")
	cascade := fs.Bool("cascade", false, "also delete the derivatives of each deleted file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("usage: ia delete <identifier> [file ...]")
	}
	if len(rest) == 1 && !*all {
		return fmt.Errorf("name the files to delete, or pass --all")
	}

	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := transfer.NewService(conf)
	if err != nil {
		return err
	}

	resps, failed, err := svc.Delete(ctx, transfer.DeleteRequest{
		Identifier: rest[0],
		Files:      rest[1:],
		All:        *all,
		Cascade:    *cascade,
	})
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d deletes failed", len(failed), len(resps))
	}
	return nil
}
