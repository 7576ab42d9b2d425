// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/wabridge/internal/session/ports"
)

// Native flow button names.
const (
	FlowURL          = "cta_url"
	FlowCopy         = "cta_copy"
	FlowCall         = "cta_call"
	FlowEmail        = "cta_email"
	FlowReminder     = "cta_reminder"
	FlowQuickReply   = "quick_reply"
	FlowSingleSelect = "single_select"
)

type ctaURLParams struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
	MerchantURL string `json:"merchant_url"`
}

type ctaCopyParams struct {
	DisplayText string `json:"display_text"`
	CopyCode    string `json:"copy_code"`
}

type ctaCallParams struct {
	DisplayText string `json:"display_text"`
	PhoneNumber string `json:"phone_number"`
}

type ctaEmailParams struct {
	DisplayText string `json:"display_text"`
	Email       string `json:"email"`
}

type ctaReminderParams struct {
	DisplayText    string `json:"display_text"`
	ReminderName   string `json:"reminder_name"`
	ReminderOffset *int64 `json:"reminder_offset,omitempty"`
	ReminderTime   *int64 `json:"reminder_time,omitempty"`
}

// NativeButton is one entry of a native flow message.
type NativeButton struct {
	Name   string `json:"name"`
	Params string `json:"buttonParamsJson"`
}

func nativeButton(name string, params any) NativeButton {
	// params are flat structs of strings and numbers; Marshal cannot fail
	b, _ := json.Marshal(params)
	return NativeButton{Name: name, Params: string(b)}
}

func labelOr(text, fallback string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return fallback
}

// normalizeURL adds https:// to schemeless URLs. "host:port" is treated as
// schemeless even though it parses with the host as scheme.
func normalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if p, err := url.Parse(u); err == nil && p.Scheme != "" && !strings.Contains(p.Scheme, ".") && !isPort(p.Opaque) {
		return u
	}
	return "https://" + strings.TrimLeft(u, "/")
}

func isPort(opaque string) bool {
	port, _, _ := strings.Cut(opaque, "/")
	if port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ctaButton converts one Button; ok is false for a button with no target.
func ctaButton(b Button) (NativeButton, bool) {
	switch {
	case strings.TrimSpace(b.URL) != "":
		u := normalizeURL(b.URL)
		merchant := u
		if b.MerchantURL != "" {
			merchant = normalizeURL(b.MerchantURL)
		}
		return nativeButton(FlowURL, ctaURLParams{DisplayText: labelOr(b.Text, u), URL: u, MerchantURL: merchant}), true
	case b.Copy != "":
		return nativeButton(FlowCopy, ctaCopyParams{DisplayText: labelOr(b.Text, b.Copy), CopyCode: b.Copy}), true
	case strings.TrimSpace(b.Phone) != "":
		return nativeButton(FlowCall, ctaCallParams{DisplayText: labelOr(b.Text, b.Phone), PhoneNumber: b.Phone}), true
	case strings.TrimSpace(b.Email) != "":
		return nativeButton(FlowEmail, ctaEmailParams{DisplayText: labelOr(b.Text, b.Email), Email: b.Email}), true
	case b.Reminder != nil && b.Reminder.Name != "":
		p := ctaReminderParams{DisplayText: labelOr(b.Text, b.Reminder.Name), ReminderName: b.Reminder.Name}
		switch {
		case b.Reminder.Offset > 0:
			secs := int64(b.Reminder.Offset.Seconds())
			p.ReminderOffset = &secs
		case !b.Reminder.At.IsZero():
			at := b.Reminder.At.Unix()
			p.ReminderTime = &at
		default:
			return NativeButton{}, false
		}
		return nativeButton(FlowReminder, p), true
	default:
		return NativeButton{}, false
	}
}

// interactive wraps a native flow in the interactive envelope and the
// view-once wrapper the transport expects for interactive content.
func interactive(title, subtitle string, buttons []NativeButton, messageParams string) ports.Payload {
	msg := map[string]any{
		"body": map[string]any{"text": title},
		"nativeFlowMessage": map[string]any{
			"buttons":           buttons,
			"messageParamsJson": messageParams,
		},
	}
	if subtitle != "" {
		msg["footer"] = map[string]any{"text": subtitle}
	}
	return ports.Payload{
		"viewOnceMessage": map[string]any{
			"message": map[string]any{
				"messageContextInfo": map[string]any{
					"deviceListMetadata":        map[string]any{},
					"deviceListMetadataVersion": 2,
				},
				"interactiveMessage": msg,
			},
		},
	}
}

// BuildCtaButtons validates msg and returns the relay payload.
func BuildCtaButtons(msg CtaButtons) (ports.Payload, error) {
	if strings.TrimSpace(msg.Title) == "" {
		return nil, fmt.Errorf("%w: cta buttons need a title", ErrInvalidMessage)
	}
	if len(msg.Buttons) == 0 {
		return nil, fmt.Errorf("%w: cta buttons need at least one button", ErrInvalidMessage)
	}
	buttons := make([]NativeButton, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		if nb, ok := ctaButton(b); ok {
			buttons = append(buttons, nb)
		}
	}
	if len(buttons) == 0 {
		return nil, fmt.Errorf("%w: no button has a url, copy, phone, email or reminder", ErrInvalidMessage)
	}
	return interactive(msg.Title, msg.Subtitle, buttons, ""), nil
}

type quickReplyParams struct {
	DisplayText string `json:"display_text"`
	ID          string `json:"id"`
}

// replyPairs drops empty options and assigns btn_<n> ids densely.
func replyPairs(options []ReplyOption) []ReplyOption {
	out := make([]ReplyOption, 0, len(options))
	for _, o := range options {
		if strings.TrimSpace(o.Label) == "" && o.ID == "" {
			continue
		}
		if o.ID == "" {
			o.ID = "btn_" + strconv.Itoa(len(out)+1)
		}
		if strings.TrimSpace(o.Label) == "" {
			o.Label = o.ID
		}
		out = append(out, o)
	}
	return out
}

// BuildReplyButtons validates msg and returns the relay payload.
func BuildReplyButtons(msg ReplyButtons) (ports.Payload, error) {
	if strings.TrimSpace(msg.Title) == "" {
		return nil, fmt.Errorf("%w: reply buttons need a title", ErrInvalidMessage)
	}
	pairs := replyPairs(msg.Options)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: reply buttons need at least one option", ErrInvalidMessage)
	}
	buttons := make([]NativeButton, len(pairs))
	for i, p := range pairs {
		buttons[i] = nativeButton(FlowQuickReply, quickReplyParams{DisplayText: p.Label, ID: p.ID})
	}
	return interactive(msg.Title, msg.Subtitle, buttons, ""), nil
}

type singleSelectParams struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// BuildList validates msg and returns the relay payload.
func BuildList(msg List) (ports.Payload, error) {
	switch {
	case strings.TrimSpace(msg.Title) == "":
		return nil, fmt.Errorf("%w: list needs a title", ErrInvalidMessage)
	case strings.TrimSpace(msg.ButtonLabel) == "":
		return nil, fmt.Errorf("%w: list needs a button label", ErrInvalidMessage)
	case len(msg.Sections) == 0:
		return nil, fmt.Errorf("%w: list needs at least one section", ErrInvalidMessage)
	}
	for si, s := range msg.Sections {
		for ri, r := range s.Rows {
			if r.ID == "" || r.Title == "" {
				return nil, fmt.Errorf("%w: section %d row %d needs an id and a title", ErrInvalidMessage, si, ri)
			}
		}
	}
	button := nativeButton(FlowSingleSelect, singleSelectParams{Title: msg.ButtonLabel, Sections: msg.Sections})
	return interactive(msg.Title, msg.Subtitle, []NativeButton{button}, ""), nil
}
