// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/openarchive/archive-cli-sdk/sdk/services/search"
)

func cmdSearch(ctx context.Context, args []string) error {
	fs, configFile := newFlagSet("search")
	fields := fs.StringArrayP("field", "f", nil, "field to return for each hit, repeatable")
	sorts := fs.StringArray("sort", nil, "sort order, e.g. 'date desc', repeatable")
	params := fs.StringArrayP("parameters", "p", nil, "extra query parameter key=value, repeatable")
	numFound := fs.BoolP("num-found", "n", false, "print only the total hit count")
	itemList := fs.BoolP("itemlist", "i", false, "print bare identifiers instead of JSON rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: ia search <query>")
	}

	extra := url.Values{}
	for _, p := range *params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid parameter %q, expected key=value", p)
		}
		extra.Add(k, v)
	}

	conf, err := loadConfig(ctx, *configFile)
	if err != nil {
		return err
	}
	svc, err := search.NewService(conf)
	if err != nil {
		return err
	}
	r, err := svc.Search(ctx, rest[0], search.Options{
		Fields: *fields,
		Sorts:  *sorts,
		Params: extra,
	})
	if err != nil {
		return err
	}

	if *numFound {
		fmt.Println(r.NumFound())
		return nil
	}
	return r.Walk(ctx, func(d search.Doc) error {
		if *itemList {
			fmt.Println(d.Identifier())
			return nil
		}
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	})
}
