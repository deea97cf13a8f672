// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package item

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
)

func TestBuildPatch(t *testing.T) {
	source := map[string]any{
		"title":   "Old Title",
		"creator": "NASA",
		"stale":   "drop me",
	}
	changes := map[string]any{
		"title":   "New Title", // replace
		"creator": "NASA",      // unchanged, no op
		"subject": "space",     // add
		"stale":   nil,         // remove
	}

	patch := buildPatch(source, changes, false)
	assert.Equal(t, []map[string]any{
		{"remove": "/stale"},
		{"add": "/subject", "value": "space"},
		{"replace": "/title", "value": "New Title"},
	}, patch)
}

func TestBuildPatchAppend(t *testing.T) {
	source := map[string]any{"description": "first"}
	patch := buildPatch(source, map[string]any{"description": "second"}, true)
	assert.Equal(t, []map[string]any{
		{"replace": "/description", "value": "first second"},
	}, patch)
}

func TestModify(t *testing.T) {
	itemBody := `{"metadata": {"identifier": "nasa", "title": "Old Title"}}`
	var gotForm map[string][]string
	var posted bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/metadata/nasa", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(itemBody))
		case http.MethodPost:
			posted = true
			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm
			// The service responds with the write task reference.
			w.Write([]byte(`{"success": true, "task_id": 423444944}`))
		}
	}))
	defer srv.Close()

	svc, err := NewService(&config.Config{
		BaseURL:   srv.URL,
		AccessKey: "test_access",
		SecretKey: "test_secret",
	})
	require.NoError(t, err)

	it, err := svc.Get(context.Background(), "nasa")
	require.NoError(t, err)

	resp, err := svc.Modify(context.Background(), it, map[string]any{"title": "New Title"}, ModifyOptions{})
	require.NoError(t, err)
	require.True(t, posted)
	assert.True(t, resp.OK())

	assert.Equal(t, "metadata", gotForm["-target"][0])
	assert.Equal(t, "test_access", gotForm["access"][0])
	assert.Equal(t, "test_secret", gotForm["secret"][0])

	var patch []map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotForm["-patch"][0]), &patch))
	assert.Equal(t, []map[string]any{
		{"replace": "/title", "value": "New Title"},
	}, patch)
}
