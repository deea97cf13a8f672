// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package search_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
	"github.com/openarchive/archive-cli-sdk/sdk/services/search"
)

// pagedServer serves numFound identifiers (doc-0 ... doc-N) sliced into
// pages according to the rows/page query parameters, counting requests.
func pagedServer(t *testing.T, numFound int, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/advancedsearch.php", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("output"))
		requests.Add(1)

		rows, err := strconv.Atoi(r.URL.Query().Get("rows"))
		require.NoError(t, err)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)

		start := (page - 1) * rows
		docs := []map[string]any{}
		for i := start; i < start+rows && i < numFound; i++ {
			docs = append(docs, map[string]any{"identifier": fmt.Sprintf("doc-%d", i)})
		}
		resp := map[string]any{
			"responseHeader": map[string]any{"status": 0},
			"response": map[string]any{
				"numFound": numFound,
				"start":    start,
				"docs":     docs,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, baseURL string) *search.Service {
	t.Helper()
	svc, err := search.NewService(&config.Config{BaseURL: baseURL})
	require.NoError(t, err)
	return svc
}

func TestSearchSingleResult(t *testing.T) {
	var requests atomic.Int64
	srv := pagedServer(t, 1, &requests)
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "identifier:doc-0", search.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumFound())

	docs, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Doc{{"identifier": "doc-0"}}, docs)
}

func TestSearchNumFoundWithoutIteration(t *testing.T) {
	var requests atomic.Int64
	srv := pagedServer(t, 120, &requests)
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "collection:nasa", search.Options{})
	require.NoError(t, err)
	assert.Equal(t, 120, r.NumFound())

	// Only the first page was fetched to learn the count.
	assert.Equal(t, int64(1), requests.Load())
}

func TestSearchPagination(t *testing.T) {
	const numFound = 5
	var requests atomic.Int64
	srv := pagedServer(t, numFound, &requests)
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "collection:nasa", search.Options{
		Params: url.Values{"rows": {"2"}, "page": {""}},
	})
	require.NoError(t, err)

	// rows=2 without an explicit page paginates with that page size.
	requests.Store(0)
	seen := map[string]bool{}
	var order []string
	err = r.Walk(context.Background(), func(d search.Doc) error {
		id := d.Identifier()
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
		order = append(order, id)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, order, numFound)
	// ceil(5/2) page fetches.
	assert.Equal(t, int64(3), requests.Load())
}

func TestSearchRestartable(t *testing.T) {
	var requests atomic.Int64
	srv := pagedServer(t, 4, &requests)
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "collection:nasa", search.Options{
		Params: url.Values{"rows": {"3"}},
	})
	require.NoError(t, err)

	first, err := r.All(context.Background())
	require.NoError(t, err)
	second, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchSinglePageMode(t *testing.T) {
	var requests atomic.Int64
	srv := pagedServer(t, 10, &requests)
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "collection:nasa", search.Options{
		Params: url.Values{"page": {"2"}, "rows": {"3"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, r.NumFound())

	docs, err := r.All(context.Background())
	require.NoError(t, err)
	// Exactly the documents of page 2, nothing more.
	assert.Equal(t, []search.Doc{
		{"identifier": "doc-3"},
		{"identifier": "doc-4"},
		{"identifier": "doc-5"},
	}, docs)
}

func TestSearchFieldsForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"identifier", "title"}, r.URL.Query()["fl[]"])
		fmt.Fprint(w, `{"responseHeader":{"status":0},`+
			`"response":{"numFound":1,"start":0,"docs":[{"identifier":"nasa","title":"NASA Images"}]}}`)
	}))
	defer srv.Close()
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "identifier:nasa", search.Options{
		Fields: []string{"identifier", "title"},
	})
	require.NoError(t, err)

	docs, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Doc{{"identifier": "nasa", "title": "NASA Images"}}, docs)
}

func TestSearchPageFailureIsTerminal(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requests.Add(1)
		if page != "1" {
			http.Error(w, `{"error": "search backend unavailable"}`, http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"responseHeader":{"status":0},`+
			`"response":{"numFound":4,"start":0,"docs":[{"identifier":"a"},{"identifier":"b"}]}}`)
	}))
	defer srv.Close()
	svc := newService(t, srv.URL)

	r, err := svc.Search(context.Background(), "collection:nasa", search.Options{
		Params: url.Values{"rows": {""}},
	})
	require.NoError(t, err)

	var yielded []string
	err = r.Walk(context.Background(), func(d search.Doc) error {
		yielded = append(yielded, d.Identifier())
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search backend unavailable")
	// Documents from the good page were already delivered and stay valid.
	assert.Equal(t, []string{"a", "b"}, yielded)
}

func TestWalkItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/advancedsearch.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"responseHeader":{"status":0},`+
			`"response":{"numFound":1,"start":0,"docs":[{"identifier":"nasa"}]}}`)
	})
	mux.HandleFunc("/metadata/nasa", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata":{"identifier":"nasa","title":"NASA Images"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := &config.Config{BaseURL: srv.URL}
	svc := newService(t, srv.URL)
	items, err := item.NewService(cfg)
	require.NoError(t, err)

	r, err := svc.Search(context.Background(), "identifier:nasa", search.Options{})
	require.NoError(t, err)

	var ids []string
	err = r.WalkItems(context.Background(), items, func(it *item.Item) error {
		ids = append(ids, it.Identifier)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nasa"}, ids)
}
