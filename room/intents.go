package room

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/aliasgame/network"
)

// Inbound payloads. Room is optional everywhere; the server falls back to the
// session's current room when it is empty.
type (
	JoinIntent struct {
		Room      string `json:"room"`
		Name      string `json:"name"`
		TeamIndex int    `json:"teamIndex"`
	}

	NextWordIntent struct {
		Outcome Outcome `json:"outcome"`
	}

	ToggleWordIntent struct {
		Index int `json:"index"`
	}

	TargetIntent struct {
		TargetID string `json:"targetId"`
	}

	SettingsIntent struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
)

func decode(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	return nil
}

// HandleIntent decodes one inbound packet and applies it. Rejections that the
// requester should see are sent back as an Error notice.
func (r *Room) HandleIntent(sessionID string, msgID uint16, data []byte) error {
	err := r.dispatch(sessionID, msgID, data)
	if code, message, ok := NoticeFor(err); ok {
		r.sendTo(sessionID, network.MsgTypeError, Notice{Code: code, Message: message})
	}
	return err
}

func (r *Room) dispatch(sessionID string, msgID uint16, data []byte) error {
	switch msgID {
	case network.MsgTypeJoinRoom:
		var in JoinIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.JoinRoom(sessionID, in.Name)
	case network.MsgTypeJoinTeam:
		var in JoinIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.JoinTeam(sessionID, in.TeamIndex, in.Name)
	case network.MsgTypeJoinSpectators:
		var in JoinIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.JoinSpectators(sessionID, in.Name)
	case network.MsgTypeRequestStart:
		return r.RequestStart(sessionID)
	case network.MsgTypeNextWord:
		var in NextWordIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.NextWord(sessionID, in.Outcome)
	case network.MsgTypeToggleWordStatus:
		var in ToggleWordIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.ToggleWordStatus(sessionID, in.Index)
	case network.MsgTypeConfirmResults:
		return r.ConfirmResults(sessionID)
	case network.MsgTypeRestartGame:
		return r.RestartGame(sessionID)
	case network.MsgTypeToggleLock:
		return r.ToggleLock(sessionID)
	case network.MsgTypeShuffleTeams:
		return r.ShuffleTeams(sessionID)
	case network.MsgTypeTogglePause:
		return r.TogglePause(sessionID)
	case network.MsgTypeKickPlayer:
		var in TargetIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.KickPlayer(sessionID, in.TargetID)
	case network.MsgTypeTransferHost:
		var in TargetIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.TransferHost(sessionID, in.TargetID)
	case network.MsgTypeSetExplainer:
		var in TargetIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.SetExplainer(sessionID, in.TargetID)
	case network.MsgTypeUpdateSettings:
		var in SettingsIntent
		if err := decode(data, &in); err != nil {
			return err
		}
		return r.UpdateSettings(sessionID, in.Key, in.Value)
	}
	return fmt.Errorf("%w: unknown message %d", ErrInvalidIntent, msgID)
}
