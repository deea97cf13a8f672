// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
	"github.com/openarchive/archive-cli-sdk/sdk/services/item"
)

// Service moves file content between local disk and the archive: uploads
// through the S3-compatible storage proxy, downloads through the REST
// download endpoint. One Service wraps one session; it is not safe for
// concurrent use.
type Service struct {
	http  config.ArchiveHTTP
	cfg   *config.Config
	items *item.Service

	sleep func(time.Duration)
}

func NewService(conf *config.Config) (*Service, error) {
	if conf == nil || conf.BaseURL == "" || conf.S3Endpoint == "" {
		return nil, fmt.Errorf("invalid config: base URL and S3 endpoint are required")
	}
	items, err := item.NewService(conf)
	if err != nil {
		return nil, err
	}
	return &Service{
		http:  config.NewSession(nil, *conf),
		cfg:   conf,
		items: items,
		sleep: time.Sleep,
	}, nil
}

// StatusCheck asks the storage proxy whether this key pair is currently
// accepting requests. false means SlowDown responses are to be expected.
func (s *Service) StatusCheck(ctx context.Context) (bool, error) {
	params := url.Values{"check_limit": {"1"}}
	if s.cfg.AccessKey != "" {
		params.Set("accesskey", s.cfg.AccessKey)
	}

	endpoint := s.http.BuildURL(s.cfg.S3Endpoint, "", params)
	resp, err := s.http.Do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return false, err
	}
	if !resp.OK() {
		return false, fmt.Errorf("status check failed: %s", resp.ErrorMessage())
	}

	var status struct {
		OverLimit int `json:"over_limit"`
	}
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return false, fmt.Errorf("failed to parse status check response: %w", err)
	}
	return status.OverLimit == 0, nil
}
