// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mediasrc turns the byte sources accepted by the composer (a URL, a
// stream or in-memory bytes) into a materialized payload with a file name
// and MIME type.
package mediasrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ManuGH/wabridge/internal/platform/httpx"
)

var (
	// ErrNoSource is returned when a Source carries no bytes, reader or URL.
	ErrNoSource = errors.New("mediasrc: no byte source")
	// ErrTooLarge is returned when a source exceeds the resolver's limit.
	ErrTooLarge = errors.New("mediasrc: payload exceeds size limit")
)

const (
	DefaultMaxBytes     = 64 << 20
	defaultFetchTimeout = 60 * time.Second
)

// Source describes where media bytes come from. The first non-empty of Data,
// Reader and URL wins.
type Source struct {
	Data   []byte
	Reader io.Reader
	URL    string

	// FileName may arrive URL-encoded; it is decoded on resolution.
	FileName string
	// MimeType is the caller's hint and takes precedence over detection.
	MimeType string
}

// Resolved is a materialized source.
type Resolved struct {
	Data     []byte
	FileName string
	// MimeType is the caller's hint, empty when none was given.
	MimeType string
	// ContentType is the media type reported by the remote server, if any.
	ContentType string
}

// Resolver materializes sources. The zero value is not usable; use
// NewResolver.
type Resolver struct {
	client   *http.Client
	maxBytes int64
}

// NewResolver returns a resolver fetching URLs with client. A nil client
// selects the hardened default, a non-positive maxBytes DefaultMaxBytes.
func NewResolver(client *http.Client, maxBytes int64) *Resolver {
	if client == nil {
		client = httpx.NewClient(defaultFetchTimeout)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Resolver{client: client, maxBytes: maxBytes}
}

// Resolve reads src fully.
func (r *Resolver) Resolve(ctx context.Context, src Source) (*Resolved, error) {
	res := &Resolved{
		FileName: DecodeFileName(src.FileName),
		MimeType: normalizeMIME(src.MimeType),
	}

	switch {
	case len(src.Data) > 0:
		if int64(len(src.Data)) > r.maxBytes {
			return nil, ErrTooLarge
		}
		res.Data = src.Data
	case src.Reader != nil:
		data, err := r.readAll(src.Reader)
		if err != nil {
			return nil, fmt.Errorf("drain stream: %w", err)
		}
		res.Data = data
	case src.URL != "":
		data, ctype, err := r.fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		res.Data = data
		res.ContentType = ctype
		if res.FileName == "" {
			res.FileName = fileNameFromURL(src.URL)
		}
	default:
		return nil, ErrNoSource
	}
	return res, nil
}

func (r *Resolver) readAll(rd io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rd, r.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if n > r.maxBytes {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("fetch media: unsupported url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, "", ErrTooLarge
	}
	data, err := r.readAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	return data, normalizeMIME(resp.Header.Get("Content-Type")), nil
}

// DecodeFileName undoes URL encoding of a file name. Names that do not
// decode cleanly are returned as given.
func DecodeFileName(name string) string {
	if !strings.Contains(name, "%") {
		return name
	}
	if dec, err := url.PathUnescape(name); err == nil {
		return dec
	}
	return name
}

func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return DecodeFileName(base)
}

// normalizeMIME strips parameters and lowercases a media type.
func normalizeMIME(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(v)
	}
	return mt
}
