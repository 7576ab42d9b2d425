// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package group

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/transport/fake"
)

type staticConn struct{ t ports.Transport }

func (s staticConn) EnsureConnected(context.Context) ports.Transport { return s.t }

const self = "972500000001@s.whatsapp.net"

func newOps(t *testing.T) (*Operations, *fake.Transport, *bytes.Buffer) {
	t.Helper()
	tr := fake.New(nil, ports.DialOptions{})
	tr.Open(ports.User{ID: "972500000001:3@s.whatsapp.net", Name: "bot"})
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	return New(staticConn{t: tr}, Config{Logger: &logger}), tr, &buf
}

func TestCreateGroupCanonicalizesAndDedupes(t *testing.T) {
	ops, tr, _ := newOps(t)

	md, err := ops.CreateGroup(context.Background(), "Team", []string{"050-123-4567", "", "972501234567", "0527654321"})
	require.NoError(t, err)
	assert.Equal(t, "Team", md.Subject)

	call, ok := tr.LastCall("GroupCreate")
	require.True(t, ok)
	assert.Equal(t, []string{"972501234567@s.whatsapp.net", "972527654321@s.whatsapp.net"}, call.Args[1])
}

func TestCreateGroupWithoutParticipantsAddsSelf(t *testing.T) {
	ops, tr, _ := newOps(t)

	_, err := ops.CreateGroup(context.Background(), "Solo", nil)
	require.NoError(t, err)
	call, _ := tr.LastCall("GroupCreate")
	assert.Equal(t, []string{self}, call.Args[1])
}

func TestCreateGroupKeepsOwnAddressForForeignAccount(t *testing.T) {
	tr := fake.New(nil, ports.DialOptions{})
	tr.Open(ports.User{ID: "15551234567:3@s.whatsapp.net", Name: "us-bot"})
	ops := New(staticConn{t: tr}, Config{})

	_, err := ops.CreateGroup(context.Background(), "Solo", nil)
	require.NoError(t, err)
	call, _ := tr.LastCall("GroupCreate")
	assert.Equal(t, []string{"15551234567@s.whatsapp.net"}, call.Args[1])
}

func TestParticipantActionsShareOnePrimitive(t *testing.T) {
	ops, tr, _ := newOps(t)
	ctx := context.Background()
	md, err := ops.CreateGroup(ctx, "Team", nil)
	require.NoError(t, err)
	raw := md.ID[:len(md.ID)-len("@g.us")]

	res, err := ops.AddParticipants(ctx, raw, []string{"0501234567", "0501234567"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "972501234567@s.whatsapp.net", res[0].ID)

	_, err = ops.PromoteParticipants(ctx, md.ID, []string{"0501234567"})
	require.NoError(t, err)
	got, err := ops.GetGroupMetadata(ctx, raw)
	require.NoError(t, err)
	assert.Contains(t, got.Participants, ports.Participant{ID: "972501234567@s.whatsapp.net", Admin: "admin"})

	_, err = ops.DemoteParticipants(ctx, md.ID, []string{"0501234567"})
	require.NoError(t, err)
	_, err = ops.RemoveParticipants(ctx, md.ID, []string{"0501234567"})
	require.NoError(t, err)

	var actions []ports.ParticipantAction
	for _, c := range tr.Calls() {
		if c.Method == "GroupParticipantsUpdate" {
			assert.Equal(t, md.ID, c.Args[0])
			actions = append(actions, c.Args[2].(ports.ParticipantAction))
		}
	}
	assert.Equal(t, []ports.ParticipantAction{
		ports.ParticipantAdd, ports.ParticipantPromote, ports.ParticipantDemote, ports.ParticipantRemove,
	}, actions)
}

func TestEmptyParticipantListIsNoop(t *testing.T) {
	ops, tr, _ := newOps(t)
	res, err := ops.AddParticipants(context.Background(), "123", []string{"", "  "})
	require.NoError(t, err)
	assert.Nil(t, res)
	_, called := tr.LastCall("GroupParticipantsUpdate")
	assert.False(t, called)
}

func TestGroupSettingsAndInfo(t *testing.T) {
	ops, tr, _ := newOps(t)
	ctx := context.Background()
	md, err := ops.CreateGroup(ctx, "Team", nil)
	require.NoError(t, err)

	require.NoError(t, ops.UpdateGroupName(ctx, md.ID, "Renamed"))
	require.NoError(t, ops.UpdateGroupDescription(ctx, md.ID, "about"))
	require.NoError(t, ops.UpdateGroupSettings(ctx, md.ID, ports.SettingAnnouncement))

	got, err := ops.GetGroupMetadata(ctx, md.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Subject)
	assert.Equal(t, "about", got.Description)
	assert.True(t, got.Announce)

	all, err := ops.GetAllGroups(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, md.ID)

	require.NoError(t, ops.LeaveGroup(ctx, md.ID))
	assert.NotContains(t, tr.Groups, md.ID)
}

func TestInviteCodes(t *testing.T) {
	ops, _, _ := newOps(t)
	ctx := context.Background()
	md, err := ops.CreateGroup(ctx, "Team", nil)
	require.NoError(t, err)

	code, err := ops.GetInviteCode(ctx, md.ID)
	require.NoError(t, err)
	revoked, err := ops.RevokeInviteCode(ctx, md.ID)
	require.NoError(t, err)
	assert.NotEqual(t, code, revoked)

	joined, err := ops.AcceptInvite(ctx, "https://chat.whatsapp.com/"+code+"?src=qr")
	require.NoError(t, err)
	assert.Equal(t, md.ID, joined)

	info, err := ops.GetInviteInfo(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "Team", info.Subject)

	_, err = ops.AcceptInvite(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyInvite)
}

func TestProfilePicture(t *testing.T) {
	ops, tr, _ := newOps(t)
	ctx := context.Background()

	url, err := ops.GetProfilePicture(ctx, "120363001")
	require.NoError(t, err)
	assert.Equal(t, "https://pps.example.invalid/120363001@g.us.jpg", url)

	require.NoError(t, ops.SetProfilePicture(ctx, "120363001", []byte{1, 2, 3}))
	call, _ := tr.LastCall("UpdateProfilePicture")
	assert.Equal(t, []any{"120363001@g.us", 3}, call.Args)
	assert.Error(t, ops.SetProfilePicture(ctx, "120363001", nil))

	require.NoError(t, ops.RemoveProfilePicture(ctx, "120363001@s.whatsapp.net"))
	call, _ = tr.LastCall("RemoveProfilePicture")
	assert.Equal(t, []any{"120363001@g.us"}, call.Args)
}

func TestInvalidGroupAndDisconnected(t *testing.T) {
	ops, _, _ := newOps(t)
	assert.ErrorIs(t, ops.LeaveGroup(context.Background(), " "), ErrInvalidGroup)

	offline := New(staticConn{}, Config{})
	_, err := offline.GetGroupMetadata(context.Background(), "123")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestOperationsLogIntent(t *testing.T) {
	ctx := context.Background()
	ops, _, buf := newOps(t)
	md, err := ops.CreateGroup(ctx, "Team", nil)
	require.NoError(t, err)

	require.NoError(t, ops.UpdateGroupName(ctx, md.ID, "x"))
	assert.Contains(t, buf.String(), `"op":"update_subject"`)
	assert.Contains(t, buf.String(), `"jid":"`+md.ID+`"`)
}

func TestInviteCode(t *testing.T) {
	assert.Equal(t, "AbC123", InviteCode("AbC123"))
	assert.Equal(t, "AbC123", InviteCode(" https://chat.whatsapp.com/AbC123 "))
	assert.Equal(t, "AbC123", InviteCode("https://chat.whatsapp.com/AbC123/extra"))
}
