// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package qr renders pairing QR payloads. Rendering is best-effort: callers
// log failures and carry on.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
)

// ErrEmptyPayload is returned for an empty QR payload.
var ErrEmptyPayload = errors.New("qr: empty payload")

const pngSize = 256

// Terminal writes a half-block rendering of payload to w.
func Terminal(w io.Writer, payload string) (err error) {
	if strings.TrimSpace(payload) == "" {
		return ErrEmptyPayload
	}
	if w == nil {
		return errors.New("qr: nil writer")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("qr: terminal render: %v", r)
		}
	}()
	qrterminal.GenerateHalfBlock(payload, qrterminal.L, w)
	return nil
}

// PNG encodes payload as a PNG image.
func PNG(payload string) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, pngSize)
	if err != nil {
		return nil, fmt.Errorf("qr: encode png: %w", err)
	}
	return png, nil
}

// DataURL returns payload as an inline "data:image/png;base64," URL.
func DataURL(payload string) (string, error) {
	png, err := PNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
