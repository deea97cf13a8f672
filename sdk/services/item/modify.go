// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package item

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
)

// ModifyOptions tune a metadata write. Target defaults to "metadata";
// other top-level sections of the document can be addressed the same way.
type ModifyOptions struct {
	Target   string
	Append   bool
	Priority int
}

// Modify posts a patch document against the item's metadata. The write API
// speaks json-patch draft-02, so the patch is computed here by diffing the
// requested changes against the item's current target section. On success
// the item is refreshed in place.
func (s *Service) Modify(ctx context.Context, it *Item, metadata map[string]any, opts ModifyOptions) (*config.Response, error) {
	target := opts.Target
	if target == "" {
		target = "metadata"
	}

	source := map[string]any{}
	sourceKey, _, _ := strings.Cut(target, "/")
	if raw, ok := it.raw[sourceKey]; ok {
		_ = json.Unmarshal(raw, &source)
	}

	patch := buildPatch(source, metadata, opts.Append)
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	form := url.Values{
		"-patch":  {string(patchJSON)},
		"-target": {target},
		"access":  {s.cfg.AccessKey},
		"secret":  {s.cfg.SecretKey},
	}
	if opts.Priority != 0 {
		form.Set("priority", strconv.Itoa(opts.Priority))
	}

	endpoint := s.http.BuildURL(s.cfg.BaseURL, "metadata/"+it.Identifier, nil)
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	resp, err := s.http.Do(ctx, http.MethodPost, endpoint, headers, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		if err := s.Refresh(ctx, it); err != nil {
			return resp, fmt.Errorf("metadata written but refresh failed: %w", err)
		}
	}
	return resp, nil
}

// buildPatch diffs changes against source into draft-02 patch operations:
// {"add": "/k", "value": v}, {"replace": ...}, {"remove": "/k"}. A nil
// change value removes the key. In append mode string values are
// space-joined onto the existing value.
func buildPatch(source, changes map[string]any, appendMode bool) []map[string]any {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	patch := []map[string]any{}
	for _, k := range keys {
		v := changes[k]
		cur, exists := source[k]

		if v == nil {
			if exists {
				patch = append(patch, map[string]any{"remove": "/" + k})
			}
			continue
		}
		if !exists {
			patch = append(patch, map[string]any{"add": "/" + k, "value": v})
			continue
		}
		if appendMode {
			v = fmt.Sprintf("%v %v", cur, v)
		}
		if jsonEqual(cur, v) {
			continue
		}
		patch = append(patch, map[string]any{"replace": "/" + k, "value": v})
	}
	return patch
}

func jsonEqual(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	return aerr == nil && berr == nil && bytes.Equal(ab, bb)
}
