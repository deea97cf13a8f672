// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package item

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openarchive/archive-cli-sdk/sdk/config"
	"github.com/openarchive/archive-cli-sdk/sdk/utils"
)

// Service fetches and edits item metadata over one session.
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

// Get fetches the metadata document for an identifier and wraps it in an
// Item handle. An identifier nothing lives under yields an Item with
// Exists=false, not an error.
func (s *Service) Get(ctx context.Context, identifier string) (*Item, error) {
	if err := utils.ValidateIdentifier(identifier); err != nil {
		return nil, err
	}

	url := s.http.BuildURL(s.cfg.BaseURL, "metadata/"+identifier, nil)
	resp, err := s.http.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("metadata fetch for %s failed: %s", identifier, resp.ErrorMessage())
	}
	return parseItem(identifier, resp.Body)
}

// Refresh re-fetches the item's metadata document in place.
func (s *Service) Refresh(ctx context.Context, it *Item) error {
	fresh, err := s.Get(ctx, it.Identifier)
	if err != nil {
		return err
	}
	*it = *fresh
	return nil
}
