// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package group wraps the transport's group primitives. Every operation
// connects on demand, canonicalizes its ids and logs intent at debug level.
package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/wabridge/internal/jid"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/metrics"
	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/telemetry"
)

var (
	// ErrNotConnected is returned when no live transport could be obtained.
	ErrNotConnected = errors.New("group: session not connected")
	// ErrInvalidGroup is returned for a group id that does not canonicalize.
	ErrInvalidGroup = errors.New("group: invalid group id")
	// ErrEmptyInvite is returned for an empty invite code.
	ErrEmptyInvite = errors.New("group: empty invite code")
)

const inviteLinkPrefix = "https://chat.whatsapp.com/"

// Connector yields a live transport, connecting on demand.
type Connector interface {
	EnsureConnected(ctx context.Context) ports.Transport
}

// Config configures Operations.
type Config struct {
	CountryCode string
	Logger      *zerolog.Logger
	Tracer      trace.Tracer
}

// Operations exposes group management for one session.
type Operations struct {
	conn        Connector
	countryCode string
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// New returns group operations over conn.
func New(conn Connector, cfg Config) *Operations {
	o := &Operations{conn: conn, countryCode: cfg.CountryCode, tracer: cfg.Tracer}
	if o.countryCode == "" {
		o.countryCode = jid.DefaultCountryCode
	}
	if cfg.Logger != nil {
		o.logger = *cfg.Logger
	} else {
		o.logger = wlog.WithComponent("group")
	}
	if o.tracer == nil {
		o.tracer = telemetry.Tracer("wabridge/group")
	}
	return o
}

// do runs one operation against the live transport.
func (o *Operations) do(ctx context.Context, op, group string, fn func(ctx context.Context, t ports.Transport) error) error {
	ctx, span := o.tracer.Start(ctx, "group."+op, trace.WithAttributes(telemetry.GroupAttributes(op, group)...))
	defer span.End()

	ev := o.logger.Debug().Str(wlog.FieldOperation, op)
	if group != "" {
		ev = ev.Str(wlog.FieldJID, group)
	}
	ev.Msg("group operation")

	err := o.run(ctx, fn)
	metrics.GroupOpsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (o *Operations) run(ctx context.Context, fn func(ctx context.Context, t ports.Transport) error) error {
	t := o.conn.EnsureConnected(ctx)
	if t == nil {
		return ErrNotConnected
	}
	return fn(ctx, t)
}

func canonicalGroup(raw string) (string, error) {
	g := jid.FormatGroup(raw)
	if g == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidGroup, raw)
	}
	return g, nil
}

// participants canonicalizes phone numbers, dropping empty entries and
// duplicates while keeping first-seen order.
func (o *Operations) participants(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		id := jid.FormatContact(r, o.countryCode)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// bareUser strips the server and any device suffix ("user:device@server").
func bareUser(id string) string {
	user := jid.User(id)
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	return user
}

// InviteCode extracts the code from a bare code or an invite link.
func InviteCode(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, inviteLinkPrefix)
	if i := strings.IndexAny(raw, "?#/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// CreateGroup creates a group. With no participants the session's own
// account is added, since a group cannot be created empty.
func (o *Operations) CreateGroup(ctx context.Context, subject string, participants []string) (ports.GroupMetadata, error) {
	var md ports.GroupMetadata
	err := o.do(ctx, "create", "", func(ctx context.Context, t ports.Transport) error {
		members := o.participants(participants)
		if len(members) == 0 {
			u := t.User()
			if u == nil {
				return ErrNotConnected
			}
			members = []string{bareUser(u.ID) + jid.ContactSuffix}
		}
		var err error
		md, err = t.GroupCreate(ctx, subject, members)
		return err
	})
	return md, err
}

// UpdateGroupName changes the group subject.
func (o *Operations) UpdateGroupName(ctx context.Context, group, name string) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	return o.do(ctx, "update_subject", g, func(ctx context.Context, t ports.Transport) error {
		return t.GroupUpdateSubject(ctx, g, name)
	})
}

// UpdateGroupDescription changes the group description.
func (o *Operations) UpdateGroupDescription(ctx context.Context, group, description string) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	return o.do(ctx, "update_description", g, func(ctx context.Context, t ports.Transport) error {
		return t.GroupUpdateDescription(ctx, g, description)
	})
}

// UpdateGroupSettings applies one group setting.
func (o *Operations) UpdateGroupSettings(ctx context.Context, group string, setting ports.GroupSetting) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	return o.do(ctx, "update_settings", g, func(ctx context.Context, t ports.Transport) error {
		return t.GroupSettingUpdate(ctx, g, setting)
	})
}

// updateParticipants is shared by the four membership operations. An empty
// list after canonicalization is a no-op.
func (o *Operations) updateParticipants(ctx context.Context, group string, phones []string, action ports.ParticipantAction) ([]ports.ParticipantResult, error) {
	g, err := canonicalGroup(group)
	if err != nil {
		return nil, err
	}
	members := o.participants(phones)
	if len(members) == 0 {
		return nil, nil
	}
	var res []ports.ParticipantResult
	err = o.do(ctx, "participants_"+string(action), g, func(ctx context.Context, t ports.Transport) error {
		var err error
		res, err = t.GroupParticipantsUpdate(ctx, g, members, action)
		return err
	})
	return res, err
}

func (o *Operations) AddParticipants(ctx context.Context, group string, phones []string) ([]ports.ParticipantResult, error) {
	return o.updateParticipants(ctx, group, phones, ports.ParticipantAdd)
}

func (o *Operations) RemoveParticipants(ctx context.Context, group string, phones []string) ([]ports.ParticipantResult, error) {
	return o.updateParticipants(ctx, group, phones, ports.ParticipantRemove)
}

func (o *Operations) PromoteParticipants(ctx context.Context, group string, phones []string) ([]ports.ParticipantResult, error) {
	return o.updateParticipants(ctx, group, phones, ports.ParticipantPromote)
}

func (o *Operations) DemoteParticipants(ctx context.Context, group string, phones []string) ([]ports.ParticipantResult, error) {
	return o.updateParticipants(ctx, group, phones, ports.ParticipantDemote)
}

// LeaveGroup leaves the group.
func (o *Operations) LeaveGroup(ctx context.Context, group string) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	return o.do(ctx, "leave", g, func(ctx context.Context, t ports.Transport) error {
		return t.GroupLeave(ctx, g)
	})
}

// GetGroupMetadata fetches one group.
func (o *Operations) GetGroupMetadata(ctx context.Context, group string) (ports.GroupMetadata, error) {
	g, err := canonicalGroup(group)
	if err != nil {
		return ports.GroupMetadata{}, err
	}
	var md ports.GroupMetadata
	err = o.do(ctx, "metadata", g, func(ctx context.Context, t ports.Transport) error {
		var err error
		md, err = t.GroupMetadata(ctx, g)
		return err
	})
	return md, err
}

// GetAllGroups fetches every group the session participates in.
func (o *Operations) GetAllGroups(ctx context.Context) (map[string]ports.GroupMetadata, error) {
	var all map[string]ports.GroupMetadata
	err := o.do(ctx, "fetch_all", "", func(ctx context.Context, t ports.Transport) error {
		var err error
		all, err = t.GroupFetchAllParticipating(ctx)
		return err
	})
	return all, err
}

// GetInviteCode returns the current invite code.
func (o *Operations) GetInviteCode(ctx context.Context, group string) (string, error) {
	g, err := canonicalGroup(group)
	if err != nil {
		return "", err
	}
	var code string
	err = o.do(ctx, "invite_code", g, func(ctx context.Context, t ports.Transport) error {
		var err error
		code, err = t.GroupInviteCode(ctx, g)
		return err
	})
	return code, err
}

// RevokeInviteCode invalidates the invite code and returns the new one.
func (o *Operations) RevokeInviteCode(ctx context.Context, group string) (string, error) {
	g, err := canonicalGroup(group)
	if err != nil {
		return "", err
	}
	var code string
	err = o.do(ctx, "revoke_invite", g, func(ctx context.Context, t ports.Transport) error {
		var err error
		code, err = t.GroupRevokeInvite(ctx, g)
		return err
	})
	return code, err
}

// AcceptInvite joins the group behind code, which may be an invite link,
// and returns its id.
func (o *Operations) AcceptInvite(ctx context.Context, code string) (string, error) {
	code = InviteCode(code)
	if code == "" {
		return "", ErrEmptyInvite
	}
	var g string
	err := o.do(ctx, "accept_invite", "", func(ctx context.Context, t ports.Transport) error {
		var err error
		g, err = t.GroupAcceptInvite(ctx, code)
		return err
	})
	if err != nil {
		return "", err
	}
	return jid.FormatGroup(g), nil
}

// GetInviteInfo resolves an invite code without joining.
func (o *Operations) GetInviteInfo(ctx context.Context, code string) (ports.GroupMetadata, error) {
	code = InviteCode(code)
	if code == "" {
		return ports.GroupMetadata{}, ErrEmptyInvite
	}
	var md ports.GroupMetadata
	err := o.do(ctx, "invite_info", "", func(ctx context.Context, t ports.Transport) error {
		var err error
		md, err = t.GroupGetInviteInfo(ctx, code)
		return err
	})
	return md, err
}

// GetProfilePicture returns the group picture URL.
func (o *Operations) GetProfilePicture(ctx context.Context, group string) (string, error) {
	g, err := canonicalGroup(group)
	if err != nil {
		return "", err
	}
	var url string
	err = o.do(ctx, "picture_url", g, func(ctx context.Context, t ports.Transport) error {
		var err error
		url, err = t.ProfilePictureURL(ctx, g)
		return err
	})
	return url, err
}

// SetProfilePicture replaces the group picture.
func (o *Operations) SetProfilePicture(ctx context.Context, group string, image []byte) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return fmt.Errorf("set picture: empty image")
	}
	return o.do(ctx, "set_picture", g, func(ctx context.Context, t ports.Transport) error {
		return t.UpdateProfilePicture(ctx, g, image)
	})
}

// RemoveProfilePicture clears the group picture.
func (o *Operations) RemoveProfilePicture(ctx context.Context, group string) error {
	g, err := canonicalGroup(group)
	if err != nil {
		return err
	}
	return o.do(ctx, "remove_picture", g, func(ctx context.Context, t ports.Transport) error {
		return t.RemoveProfilePicture(ctx, g)
	})
}
