// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "context"

// ParticipantAction is the single participant update primitive.
type ParticipantAction string

const (
	ParticipantAdd     ParticipantAction = "add"
	ParticipantRemove  ParticipantAction = "remove"
	ParticipantPromote ParticipantAction = "promote"
	ParticipantDemote  ParticipantAction = "demote"
)

// GroupSetting toggles who may send or edit group info.
type GroupSetting string

const (
	SettingAnnouncement    GroupSetting = "announcement"
	SettingNotAnnouncement GroupSetting = "not_announcement"
	SettingLocked          GroupSetting = "locked"
	SettingUnlocked        GroupSetting = "unlocked"
)

// Participant is a group member.
type Participant struct {
	ID    string
	Admin string // "", "admin" or "superadmin"
}

// ParticipantResult reports the outcome for one participant.
type ParticipantResult struct {
	ID     string
	Status string
}

// GroupMetadata describes a group.
type GroupMetadata struct {
	ID           string
	Subject      string
	Owner        string
	Description  string
	Creation     int64
	Announce     bool
	Restrict     bool
	Participants []Participant
}

// GroupTransport holds the group primitives of a transport.
type GroupTransport interface {
	GroupCreate(ctx context.Context, subject string, participants []string) (GroupMetadata, error)
	GroupUpdateSubject(ctx context.Context, group, subject string) error
	GroupUpdateDescription(ctx context.Context, group, description string) error
	GroupSettingUpdate(ctx context.Context, group string, setting GroupSetting) error
	GroupParticipantsUpdate(ctx context.Context, group string, participants []string, action ParticipantAction) ([]ParticipantResult, error)
	GroupLeave(ctx context.Context, group string) error
	GroupMetadata(ctx context.Context, group string) (GroupMetadata, error)
	GroupFetchAllParticipating(ctx context.Context) (map[string]GroupMetadata, error)
	GroupInviteCode(ctx context.Context, group string) (string, error)
	GroupRevokeInvite(ctx context.Context, group string) (string, error)
	GroupAcceptInvite(ctx context.Context, code string) (string, error)
	GroupGetInviteInfo(ctx context.Context, code string) (GroupMetadata, error)
	ProfilePictureURL(ctx context.Context, id string) (string, error)
	UpdateProfilePicture(ctx context.Context, id string, image []byte) error
	RemoveProfilePicture(ctx context.Context, id string) error
}
