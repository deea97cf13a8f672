// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

// Delete removes files from an item's bucket, one DELETE per file. Names
// of files the service refused to remove come back in failed; the batch
// always runs to the end.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) ([]*config.Response, []string, error) {
	if err := utils.ValidateIdentifier(req.Identifier); err != nil {
		return nil, nil, err
	}

	names := req.Files
	if req.All {
		it, err := s.items.Get(ctx, req.Identifier)
		if err != nil {
			return nil, nil, err
		}
		if !it.Exists {
			return nil, nil, fmt.Errorf("item %s does not exist", req.Identifier)
		}
		names = names[:0]
		for _, f := range it.Files {
			if f.Source == "original" {
				names = append(names, f.Name)
			}
		}
	}
	if len(names) == 0 {
		return nil, nil, errors.New("no files to delete")
	}

	var headers map[string]string
	if req.Cascade {
		headers = map[string]string{"x-archive-cascade-delete": "1"}
	}

	var responses []*config.Response
	var failed []string
	for _, name := range names {
		target := s.http.BuildURL(s.cfg.S3Endpoint, req.Identifier+"/"+strings.TrimPrefix(name, "/"), nil)
		resp, err := s.http.Do(ctx, http.MethodDelete, target, headers, nil)
		if err != nil {
			return responses, failed, err
		}
		responses = append(responses, resp)
		if !resp.OK() && resp.StatusCode != http.StatusNoContent {
			utils.Warnf("delete of %s failed: %s", name, resp.ErrorMessage())
			failed = append(failed, name)
		}
	}
	return responses, failed, nil
}
