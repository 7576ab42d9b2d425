// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package qr

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "2@abcDEF123,ghiJKL456,mnoPQR789,1"

func TestTerminalRenders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, payload))
	assert.Greater(t, strings.Count(buf.String(), "\n"), 10)
}

func TestTerminalRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, Terminal(&bytes.Buffer{}, " "), ErrEmptyPayload)
	assert.Error(t, Terminal(nil, payload))
}

func TestDataURL(t *testing.T) {
	url, err := DataURL(payload)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = DataURL("")
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
