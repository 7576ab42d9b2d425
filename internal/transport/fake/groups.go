// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fake

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/ManuGH/wabridge/internal/session/ports"
)

func (t *Transport) GroupCreate(_ context.Context, subject string, participants []string) (ports.GroupMetadata, error) {
	if err := t.check("GroupCreate", subject, participants); err != nil {
		return ports.GroupMetadata{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	md := ports.GroupMetadata{ID: fmt.Sprintf("1203630%04d@g.us", t.seq), Subject: subject}
	if t.user != nil {
		md.Owner = t.user.ID
	}
	for _, p := range participants {
		md.Participants = append(md.Participants, ports.Participant{ID: p})
	}
	t.Groups[md.ID] = md
	return md, nil
}

func (t *Transport) updateGroup(group string, fn func(*ports.GroupMetadata)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	md, ok := t.Groups[group]
	if !ok {
		return fmt.Errorf("fake: group %s not found", group)
	}
	fn(&md)
	t.Groups[group] = md
	return nil
}

func (t *Transport) GroupUpdateSubject(_ context.Context, group, subject string) error {
	if err := t.check("GroupUpdateSubject", group, subject); err != nil {
		return err
	}
	return t.updateGroup(group, func(md *ports.GroupMetadata) { md.Subject = subject })
}

func (t *Transport) GroupUpdateDescription(_ context.Context, group, description string) error {
	if err := t.check("GroupUpdateDescription", group, description); err != nil {
		return err
	}
	return t.updateGroup(group, func(md *ports.GroupMetadata) { md.Description = description })
}

func (t *Transport) GroupSettingUpdate(_ context.Context, group string, setting ports.GroupSetting) error {
	if err := t.check("GroupSettingUpdate", group, setting); err != nil {
		return err
	}
	return t.updateGroup(group, func(md *ports.GroupMetadata) {
		switch setting {
		case ports.SettingAnnouncement:
			md.Announce = true
		case ports.SettingNotAnnouncement:
			md.Announce = false
		case ports.SettingLocked:
			md.Restrict = true
		case ports.SettingUnlocked:
			md.Restrict = false
		}
	})
}

func (t *Transport) GroupParticipantsUpdate(_ context.Context, group string, participants []string, action ports.ParticipantAction) ([]ports.ParticipantResult, error) {
	if err := t.check("GroupParticipantsUpdate", group, participants, action); err != nil {
		return nil, err
	}
	out := make([]ports.ParticipantResult, 0, len(participants))
	err := t.updateGroup(group, func(md *ports.GroupMetadata) {
		for _, p := range participants {
			out = append(out, ports.ParticipantResult{ID: p, Status: "200"})
			switch action {
			case ports.ParticipantAdd:
				md.Participants = append(md.Participants, ports.Participant{ID: p})
			case ports.ParticipantRemove:
				kept := md.Participants[:0]
				for _, m := range md.Participants {
					if m.ID != p {
						kept = append(kept, m)
					}
				}
				md.Participants = kept
			case ports.ParticipantPromote, ports.ParticipantDemote:
				for i := range md.Participants {
					if md.Participants[i].ID == p {
						md.Participants[i].Admin = ""
						if action == ports.ParticipantPromote {
							md.Participants[i].Admin = "admin"
						}
					}
				}
			}
		}
	})
	return out, err
}

func (t *Transport) GroupLeave(_ context.Context, group string) error {
	if err := t.check("GroupLeave", group); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.Groups, group)
	return nil
}

func (t *Transport) GroupMetadata(_ context.Context, group string) (ports.GroupMetadata, error) {
	if err := t.check("GroupMetadata", group); err != nil {
		return ports.GroupMetadata{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	md, ok := t.Groups[group]
	if !ok {
		return ports.GroupMetadata{}, fmt.Errorf("fake: group %s not found", group)
	}
	return md, nil
}

func (t *Transport) GroupFetchAllParticipating(context.Context) (map[string]ports.GroupMetadata, error) {
	if err := t.check("GroupFetchAllParticipating"); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.Groups), nil
}

func inviteCode(group string) string {
	return "INV" + strings.TrimSuffix(group, "@g.us")
}

func (t *Transport) GroupInviteCode(_ context.Context, group string) (string, error) {
	if err := t.check("GroupInviteCode", group); err != nil {
		return "", err
	}
	return inviteCode(group), nil
}

func (t *Transport) GroupRevokeInvite(_ context.Context, group string) (string, error) {
	if err := t.check("GroupRevokeInvite", group); err != nil {
		return "", err
	}
	return inviteCode(group) + "R", nil
}

func (t *Transport) GroupAcceptInvite(_ context.Context, code string) (string, error) {
	if err := t.check("GroupAcceptInvite", code); err != nil {
		return "", err
	}
	return strings.TrimPrefix(code, "INV") + "@g.us", nil
}

func (t *Transport) GroupGetInviteInfo(_ context.Context, code string) (ports.GroupMetadata, error) {
	if err := t.check("GroupGetInviteInfo", code); err != nil {
		return ports.GroupMetadata{}, err
	}
	id := strings.TrimPrefix(code, "INV") + "@g.us"
	t.mu.Lock()
	defer t.mu.Unlock()
	if md, ok := t.Groups[id]; ok {
		return md, nil
	}
	return ports.GroupMetadata{ID: id}, nil
}

func (t *Transport) ProfilePictureURL(_ context.Context, id string) (string, error) {
	if err := t.check("ProfilePictureURL", id); err != nil {
		return "", err
	}
	return "https://pps.example.invalid/" + id + ".jpg", nil
}

func (t *Transport) UpdateProfilePicture(_ context.Context, id string, image []byte) error {
	return t.check("UpdateProfilePicture", id, len(image))
}

func (t *Transport) RemoveProfilePicture(_ context.Context, id string) error {
	return t.check("RemoveProfilePicture", id)
}
