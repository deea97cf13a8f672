// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"net/url"

	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
)

// Result is a lazy, restartable view over one query's hits. Each full Walk
// issues a fresh request sequence; only the total count from the first page
// is kept in memory. Documents already handed to the callback stay valid if
// a later page fails.
type Result struct {
	svc        *Service
	params     url.Values
	rows       int
	startPage  int
	singlePage bool
	numFound   int
}

// NumFound is the total hit count reported by the first page, available
// without iterating.
func (r *Result) NumFound() int {
	return r.numFound
}

// Walk pulls pages one at a time and hands each document to fn in order.
// With explicit page/rows params the walk is bounded to that single page.
// A fn error stops the walk and is returned as-is.
func (r *Result) Walk(ctx context.Context, fn func(Doc) error) error {
	page := r.startPage
	total := -1
	yielded := 0

	for {
		env, err := r.fetchPage(ctx, page)
		if err != nil {
			return err
		}
		if total < 0 {
			total = env.Response.NumFound
		}
		for _, doc := range env.Response.Docs {
			if err := fn(doc); err != nil {
				return err
			}
			yielded++
		}
		if r.singlePage || yielded >= total || len(env.Response.Docs) == 0 {
			return nil
		}
		page++
	}
}

// All accumulates the full walk. Convenience for small result sets.
func (r *Result) All(ctx context.Context) ([]Doc, error) {
	var out []Doc
	err := r.Walk(ctx, func(d Doc) error {
		out = append(out, d)
		return nil
	})
	return out, err
}

// WalkItems resolves each hit's identifier into a full Item handle,
// fetching metadata lazily as documents are consumed.
func (r *Result) WalkItems(ctx context.Context, items *item.Service, fn func(*item.Item) error) error {
	return r.Walk(ctx, func(d Doc) error {
		it, err := items.Get(ctx, d.Identifier())
		if err != nil {
			return err
		}
		return fn(it)
	})
}
