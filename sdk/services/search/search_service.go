// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
)

// DefaultRows is the page size used when the caller does not override it.
const DefaultRows = 50

// Service runs queries against the advanced-search endpoint.
type Service struct {
	http config.ArchiveHTTP
	cfg  *config.Config
}

func NewService(conf *config.Config) (*Service, error) {
	if conf == nil || conf.BaseURL == "" {
		return nil, errors.New("invalid config: base URL is required")
	}
	return &Service{
		http: config.NewSession(nil, *conf),
		cfg:  conf,
	}, nil
}

// Options shape one query. Fields defaults to just "identifier". Params are
// passed through to the endpoint; "rows" overrides the page size, and an
// explicit "page" pins the result to that single page instead of
// auto-pagination.
type Options struct {
	Fields []string
	Sorts  []string
	Params url.Values
}

// Doc is one search result row, restricted to the requested fields.
type Doc map[string]any

func (d Doc) Identifier() string {
	s, _ := d["identifier"].(string)
	return s
}

type pageEnvelope struct {
	ResponseHeader struct {
		Status int `json:"status"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int   `json:"numFound"`
		Start    int   `json:"start"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
}

// Search records the query and fetches the first page to learn the total
// hit count. Only the count is cached; documents are re-fetched on each
// iteration of the Result.
func (s *Service) Search(ctx context.Context, query string, opts Options) (*Result, error) {
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	params := url.Values{}
	for k, vs := range opts.Params {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("q", query)
	params.Set("output", "json")

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{"identifier"}
	}
	params.Del("fl[]")
	for _, f := range fields {
		params.Add("fl[]", f)
	}
	for _, so := range opts.Sorts {
		params.Add("sort[]", so)
	}

	// rows alone overrides the page size; an explicit page pins the
	// result to that one page.
	rows := DefaultRows
	singlePage := false
	if v := params.Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid rows parameter %q", v)
		}
		rows = n
	}
	startPage := 1
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid page parameter %q", v)
		}
		startPage = n
		singlePage = true
	}
	params.Del("rows")
	params.Del("page")

	r := &Result{
		svc:        s,
		params:     params,
		rows:       rows,
		startPage:  startPage,
		singlePage: singlePage,
	}

	first, err := r.fetchPage(ctx, startPage)
	if err != nil {
		return nil, err
	}
	r.numFound = first.Response.NumFound
	return r, nil
}

func (r *Result) fetchPage(ctx context.Context, page int) (*pageEnvelope, error) {
	params := url.Values{}
	for k, vs := range r.params {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("rows", strconv.Itoa(r.rows))
	params.Set("page", strconv.Itoa(page))

	endpoint := r.svc.http.BuildURL(r.svc.cfg.BaseURL, "advancedsearch.php", params)
	resp, err := r.svc.http.Do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("search request failed: %s", resp.ErrorMessage())
	}

	var env pageEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &env, nil
}
