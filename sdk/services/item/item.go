// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package item

import (
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
)

// File is a read-only view of one file record inside an item's metadata
// document. Sizes and checksums are whatever the service last recorded.
type File struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Format string `json:"format"`
	Mtime  string `json:"mtime"`
	Size   int64  `json:"size,string"`
	MD5    string `json:"md5"`
	CRC32  string `json:"crc32"`
	SHA1   string `json:"sha1"`
}

// Item is one archive item: an identifier plus the metadata document
// fetched from the metadata endpoint. Items are not cached across process
// runs; Refresh re-fetches.
type Item struct {
	Identifier string
	Metadata   map[string]any
	Files      []File
	Server     string
	D1         string
	D2         string
	Dir        string
	Created    int64
	Updated    int64
	Uniq       int64
	ItemSize   int64
	FilesCount int
	IsDark     bool

	// Exists is false when the metadata endpoint returned an empty
	// document, i.e. no item lives under this identifier yet.
	Exists bool

	raw map[string]json.RawMessage
}

type envelope struct {
	Metadata   map[string]any `json:"metadata"`
	Files      []File         `json:"files"`
	Server     string         `json:"server"`
	D1         string         `json:"d1"`
	D2         string         `json:"d2"`
	Dir        string         `json:"dir"`
	Created    int64          `json:"created"`
	Updated    int64          `json:"updated"`
	Uniq       int64          `json:"uniq"`
	ItemSize   int64          `json:"item_size"`
	FilesCount int            `json:"files_count"`
	IsDark     bool           `json:"is_dark"`
}

func parseItem(identifier string, body []byte) (*Item, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", identifier, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", identifier, err)
	}

	it := &Item{
		Identifier: identifier,
		Metadata:   env.Metadata,
		Files:      env.Files,
		Server:     env.Server,
		D1:         env.D1,
		D2:         env.D2,
		Dir:        env.Dir,
		Created:    env.Created,
		Updated:    env.Updated,
		Uniq:       env.Uniq,
		ItemSize:   env.ItemSize,
		FilesCount: env.FilesCount,
		IsDark:     env.IsDark,
		Exists:     len(raw) > 0,
		raw:        raw,
	}
	if it.Metadata == nil {
		it.Metadata = map[string]any{}
	}
	if it.Identifier == "" {
		if id, ok := it.Metadata["identifier"].(string); ok {
			it.Identifier = id
		}
	}
	return it, nil
}

// Raw exposes the undecoded metadata document, keyed by top-level
// section. Callers get the same bytes the service sent.
func (it *Item) Raw() map[string]json.RawMessage {
	return it.raw
}

// File returns the record for the named file, if the item has one.
func (it *Item) File(name string) (File, bool) {
	for _, f := range it.Files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// FileFilter selects files by name, source tag, format, or glob pattern.
// An empty filter selects everything. A file matching any populated
// criterion is included. Glob accepts |-separated patterns with
// path.Match semantics.
type FileFilter struct {
	Names   []string
	Sources []string
	Formats []string
	Glob    string
}

func (f FileFilter) empty() bool {
	return len(f.Names) == 0 && len(f.Sources) == 0 && len(f.Formats) == 0 && f.Glob == ""
}

func (f FileFilter) matches(file File) bool {
	if slices.Contains(f.Names, file.Name) {
		return true
	}
	if slices.Contains(f.Sources, file.Source) {
		return true
	}
	if slices.Contains(f.Formats, file.Format) {
		return true
	}
	for _, pattern := range strings.Split(f.Glob, "|") {
		if pattern == "" {
			continue
		}
		if ok, err := path.Match(pattern, file.Name); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterFiles returns the files selected by the filter, in metadata order.
func (it *Item) FilterFiles(filter FileFilter) []File {
	if filter.empty() {
		return slices.Clone(it.Files)
	}
	var out []File
	for _, f := range it.Files {
		if filter.matches(f) {
			out = append(out, f)
		}
	}
	return out
}

// Collections lists the collections this item belongs to.
func (it *Item) Collections() []string {
	switch v := it.Metadata["collection"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, c := range v {
			if s, ok := c.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
