// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ArchiveHTTP is the one HTTP surface the services depend on. A session
// attaches the credential pair to every request; it is not safe for
// concurrent request construction, callers wanting parallelism build one
// session each.
type ArchiveHTTP interface {
	BuildURL(base, path string, params url.Values) string
	Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error)
	// Open issues a GET and hands back the raw response for streaming
	// bodies (downloads). The caller closes resp.Body.
	Open(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error)
}

// Response is the parsed result of a non-streaming call. HTTP-level
// failures are Responses, not errors; callers match on the status.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// S3Error is the XML error envelope returned by the storage endpoint.
type S3Error struct {
	XMLName  xml.Name `xml:"Error"`
	Code     string   `xml:"Code"`
	Message  string   `xml:"Message"`
	Resource string   `xml:"Resource"`
}

func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// S3Error parses the body as a storage error envelope, or nil.
func (r *Response) S3Error() *S3Error {
	var e S3Error
	if xml.Unmarshal(r.Body, &e) != nil || e.Code == "" {
		return nil
	}
	return &e
}

// IsSlowDown reports the transient-overload signal: a 503 carrying the
// SlowDown code, or a bare 503 (the service is not consistent about the
// envelope). Anything else, timeouts included, is terminal.
func (r *Response) IsSlowDown() bool {
	if r.StatusCode != http.StatusServiceUnavailable {
		return false
	}
	if e := r.S3Error(); e != nil {
		return e.Code == "SlowDown"
	}
	return true
}

// ErrorMessage surfaces the remote service's own error payload: the XML
// message from the storage endpoint, the JSON "error" field from the
// metadata API, or the bare HTTP status.
func (r *Response) ErrorMessage() string {
	if e := r.S3Error(); e != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	var m map[string]any
	if json.Unmarshal(r.Body, &m) == nil {
		if msg, ok := m["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return r.Status
}

type session struct {
	httpClient *http.Client
	cfg        Config
}

// NewSession wraps an HTTP client with credential attachment. A nil client
// gets a fresh one honoring cfg.Timeout.
func NewSession(httpClient *http.Client, cfg Config) ArchiveHTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &session{httpClient: httpClient, cfg: cfg}
}

func (s *session) BuildURL(base, path string, params url.Values) string {
	u := strings.TrimSuffix(base, "/")
	if path != "" {
		u += "/" + strings.TrimPrefix(path, "/")
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (s *session) newRequest(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		// Content-Length is a request property, not a plain header.
		if strings.EqualFold(k, "Content-Length") {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				req.ContentLength = n
			}
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", "archive-cli-sdk/"+Version)
	if s.cfg.Authenticated() {
		req.Header.Set("Authorization", "LOW "+s.cfg.AccessKey+":"+s.cfg.SecretKey)
	}
	return req, nil
}

func (s *session) Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*Response, error) {
	req, err := s.newRequest(ctx, method, rawURL, headers, body)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response from %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

func (s *session) Open(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL, headers, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	return resp, nil
}
