package room

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/state"
	"github.com/wfunc/aliasgame/words"
)

// Setting keys accepted by UpdateSettings.
const (
	SettingRoundDuration = "roundDuration"
	SettingWinningScore  = "winningScore"
	SettingDifficulty    = "difficulty"
	SettingTeamCount     = "teamCount"
)

func (r *Room) ToggleLock(sessionID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	r.isLocked = !r.isLocked
	r.broadcastSnapshot()
	return nil
}

// ShuffleTeams pools every team member and deals them back out round-robin.
func (r *Room) ShuffleTeams(sessionID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	if r.isLocked {
		return ErrLocked
	}
	if !r.machine.Is(state.Lobby) {
		return ErrInvalidState
	}

	var pool []*Participant
	for _, t := range r.teams {
		pool = append(pool, t.Roster...)
		t.Roster = []*Participant{}
		t.NextExplainerIndex = 0
	}
	words.Shuffle(pool, r.intn)
	for i, p := range pool {
		t := r.teams[i%len(r.teams)]
		t.Roster = append(t.Roster, p)
	}
	r.activeExplainerID = ""

	r.broadcastSnapshot()
	return nil
}

// KickPlayer removes a participant and tells their connection. Kicking the
// explainer mid-round freezes the round without an explainer.
func (r *Room) KickPlayer(sessionID, targetID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	if targetID == "" || targetID == r.hostID {
		return ErrInvalidIntent
	}

	found := false
	if ti, pi, ok := r.findByID(targetID); ok {
		r.teams[ti].removeAt(pi)
		found = true
	}
	if si := r.spectatorByID(targetID); si >= 0 {
		r.removeSpectatorAt(si)
		found = true
	}
	if !found {
		return ErrInvalidIntent
	}

	r.sendTo(targetID, network.MsgTypeKicked, Kicked{Reason: "removed by host"})
	if r.broadcaster != nil {
		r.broadcaster.LeaveGroup(r.Code, targetID)
	}
	if r.activeExplainerID == targetID {
		r.dropExplainer()
	}
	logger.Log.Infof("room %s: %s kicked by host", r.Code, targetID)

	r.updateOccupancy()
	r.broadcastSnapshot()
	return nil
}

// TransferHost hands administrative rights to targetID. The target is not
// checked for presence.
func (r *Room) TransferHost(sessionID, targetID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	if targetID == "" {
		return ErrInvalidIntent
	}
	r.hostID = targetID
	r.broadcastSnapshot()
	return nil
}

// SetExplainer makes targetID's team current with targetID next to explain. In
// a running round it swaps the explainer immediately.
func (r *Room) SetExplainer(sessionID, targetID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	if r.machine.Is(state.Review, state.Victory) {
		return ErrInvalidState
	}
	ti, pi, ok := r.findByID(targetID)
	if !ok {
		return ErrInvalidIntent
	}

	r.currentTeamIndex = ti
	r.teams[ti].NextExplainerIndex = pi

	if r.roundInProgress() {
		r.activeExplainerID = targetID
		r.deliverWord(targetID)
		if r.machine.Is(state.Active) && !r.ticking() {
			r.startTick()
		}
	}

	r.broadcastSnapshot()
	r.broadcastScores()
	return nil
}

// UpdateSettings changes one room setting. Team count may only change in the lobby.
func (r *Room) UpdateSettings(sessionID, key string, value json.RawMessage) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}

	switch key {
	case SettingRoundDuration:
		n, err := intSetting(value, MinRoundDuration, MaxRoundDuration)
		if err != nil {
			return err
		}
		r.settings.RoundDuration = n
		if r.machine.Is(state.Lobby) {
			r.remainingSeconds = n
		}
	case SettingWinningScore:
		n, err := intSetting(value, MinWinningScore, MaxWinningScore)
		if err != nil {
			return err
		}
		r.settings.WinningScore = n
	case SettingDifficulty:
		var d words.Difficulty
		if err := json.Unmarshal(value, &d); err != nil || !d.Valid() {
			return fmt.Errorf("%w: difficulty %s", ErrInvalidSetting, value)
		}
		if d != r.settings.Difficulty {
			r.settings.Difficulty = d
			// a live round keeps drawing from its deck; the next start redeals
			if r.machine.Is(state.Lobby) || r.machine.Is(state.Victory) {
				r.deck = nil
			} else {
				r.deckStale = true
			}
		}
	case SettingTeamCount:
		if !r.machine.Is(state.Lobby) {
			return ErrInvalidState
		}
		n, err := intSetting(value, MinTeamCount, MaxTeamCount)
		if err != nil {
			return err
		}
		r.resizeTeams(n)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}

	r.broadcastSnapshot()
	return nil
}

func intSetting(value json.RawMessage, lo, hi int) (int, error) {
	var n int
	if err := json.Unmarshal(value, &n); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSetting, value)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidSetting, n, lo, hi)
	}
	return n, nil
}

// resizeTeams adds palette teams or folds removed teams' members into spectators.
func (r *Room) resizeTeams(n int) {
	for len(r.teams) < n {
		r.teams = append(r.teams, newTeam(len(r.teams)))
	}
	if len(r.teams) > n {
		for _, t := range r.teams[n:] {
			for _, p := range t.Roster {
				r.upsertSpectator(p.ID, p.Name)
			}
		}
		r.teams = r.teams[:n]
		for i := range r.playedThisCycle {
			if i >= n {
				delete(r.playedThisCycle, i)
			}
		}
	}
	if r.currentTeamIndex >= n {
		r.currentTeamIndex = n - 1
	}
	r.settings.TeamCount = n
}
