// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import (
	"time"

	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// Button is one call-to-action. When several targets are set the first of
// URL, Copy, Phone, Email and Reminder wins; a button with none is dropped.
type Button struct {
	// Text is the label; it defaults to the target value.
	Text string

	URL         string
	MerchantURL string
	Copy        string
	Phone       string
	Email       string
	Reminder    *Reminder
}

// Reminder schedules a follow-up either relative to delivery (Offset) or at
// an absolute time (At). Offset wins when both are set.
type Reminder struct {
	Name   string
	Offset time.Duration
	At     time.Time
}

// CtaButtons is a call-to-action message.
type CtaButtons struct {
	Title    string
	Subtitle string
	Buttons  []Button
}

// ReplyOption is one quick-reply button. Options without ID get btn_<n>,
// numbered over the non-empty options.
type ReplyOption struct {
	ID    string
	Label string
}

// Options builds label-only reply options.
func Options(labels ...string) []ReplyOption {
	out := make([]ReplyOption, len(labels))
	for i, l := range labels {
		out[i] = ReplyOption{Label: l}
	}
	return out
}

// ReplyButtons is a quick-reply message.
type ReplyButtons struct {
	Title    string
	Subtitle string
	Options  []ReplyOption
}

// Row is one selectable list entry.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Section groups list rows under a heading.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// List is a single-select list message.
type List struct {
	Title       string
	Subtitle    string
	ButtonLabel string
	Sections    []Section
}

// Media is a media message of a known or detected kind.
type Media struct {
	// Kind is detected from the MIME type when empty.
	Kind    ports.MediaKind
	Source  mediasrc.Source
	Caption string
	// PTT sends audio as a voice note.
	PTT bool
	// Seconds is the audio duration hint; zero probes the payload.
	Seconds int
}

// File is a media message classified from its name.
type File struct {
	Source  mediasrc.Source
	Caption string
}
