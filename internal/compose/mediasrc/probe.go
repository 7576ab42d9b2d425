// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mediasrc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// ErrNoDuration is returned when a probe finds no usable duration.
var ErrNoDuration = errors.New("mediasrc: duration unavailable")

// Prober reports the playback length of an audio payload in whole seconds.
type Prober interface {
	Duration(ctx context.Context, data []byte) (int, error)
}

// FFProbe runs ffprobe over the payload on stdin.
type FFProbe struct {
	// Binary defaults to "ffprobe" on PATH.
	Binary  string
	Timeout time.Duration
}

const defaultProbeTimeout = 10 * time.Second

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

func (p FFProbe) Duration(ctx context.Context, data []byte) (int, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - binary comes from configuration; the payload is passed on stdin
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		errStr := stderr.String()
		if len(errStr) > 1024 {
			errStr = errStr[:1024] + "..."
		}
		return 0, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, errStr)
	}
	return parseProbeDuration(out)
}

// parseProbeDuration prefers the container duration and falls back to the
// first audio stream. Fractions round up so short clips never report zero.
func parseProbeDuration(out []byte) (int, error) {
	var data probeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, fmt.Errorf("json decode: %w", err)
	}

	candidates := []string{data.Format.Duration}
	for _, s := range data.Streams {
		if s.CodecType == "audio" {
			candidates = append(candidates, s.Duration)
		}
	}
	for _, c := range candidates {
		if c == "" || c == "N/A" {
			continue
		}
		d, err := strconv.ParseFloat(c, 64)
		if err != nil || d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
			continue
		}
		return int(math.Ceil(d)), nil
	}
	return 0, ErrNoDuration
}
