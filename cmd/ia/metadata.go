// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

func cmdMetadata(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("metadata")
	modify := fs.StringArrayP("modify", "m", nil, "change a metadata field, key:value (empty value removes the key)")
	appendValues := fs.BoolP("append", "a", false, "append to existing values instead of replacing them")
	target := fs.StringP("target", "t", "", "metadata section to edit (default metadata)")
	priority := fs.Int("priority", 0, "task priority for the write")
	format := fs.String("format", "json", "output format, json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: ia metadata <identifier>")
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

	if len(*modify) == 0 {
		if !it.Exists {
			return fmt.Errorf("item %s does not exist", rest[0])
		}
		return printFormatted(it.Raw(), *format)
	}

	changes, err := parseModifyArgs(*modify)
	if err != nil {
		return err
	}
	resp, err := svc.Modify(ctx, it, changes, item.ModifyOptions{
		Target:   *target,
		Append:   *appendValues,
		Priority: *priority,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("metadata write failed: %s", resp.ErrorMessage())
	}
	fmt.Println(utils.PrettyJSON(resp.Body))
	return nil
}

// parseModifyArgs maps "key:value" edits onto the patch input shape: an
// empty value requests removal of the key.
func parseModifyArgs(args []string) (map[string]any, error) {
	kv, err := utils.ParseKVArgs(args)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		if s, ok := v.(string); ok && s == "" {
			kv[k] = nil
		}
	}
	return kv, nil
}
