package room

import (
	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/state"
)

// Display names are the reconnection key, so two different people who pick the
// same name in one room are treated as one participant.

// findByName returns the team index and roster position holding name.
func (r *Room) findByName(name string) (team int, pos int, ok bool) {
	for ti, t := range r.teams {
		if pi := t.indexOfName(name); pi >= 0 {
			return ti, pi, true
		}
	}
	return -1, -1, false
}

// findByID returns the team index and roster position of a connection id.
func (r *Room) findByID(id string) (team int, pos int, ok bool) {
	if id == "" {
		return -1, -1, false
	}
	for ti, t := range r.teams {
		if pi := t.indexOfID(id); pi >= 0 {
			return ti, pi, true
		}
	}
	return -1, -1, false
}

func (r *Room) spectatorByName(name string) int {
	for i, p := range r.spectators {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (r *Room) spectatorByID(id string) int {
	for i, p := range r.spectators {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) removeSpectatorAt(i int) *Participant {
	p := r.spectators[i]
	r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
	return p
}

// upsertSpectator inserts name as a spectator or refreshes its connection id.
func (r *Room) upsertSpectator(id, name string) {
	if i := r.spectatorByName(name); i >= 0 {
		r.retarget(r.spectators[i].ID, id)
		r.spectators[i].ID = id
		return
	}
	r.spectators = append(r.spectators, &Participant{ID: id, Name: name})
}

// retarget moves host and explainer roles from oldID to newID.
func (r *Room) retarget(oldID, newID string) {
	if oldID == "" || oldID == newID {
		return
	}
	if r.hostID == oldID {
		r.hostID = newID
	}
	if r.activeExplainerID == oldID {
		r.activeExplainerID = newID
	}
}

// transplant gives p a new connection id, carrying every role with it. An
// explainer reconnecting mid-round gets the current word again, since the
// broadcast snapshot never carries it.
func (r *Room) transplant(p *Participant, newID string) {
	oldID := p.ID
	p.ID = newID
	r.retarget(oldID, newID)

	if r.activeExplainerID == newID && r.roundInProgress() {
		r.deliverWord(newID)
	}
	if oldID != newID {
		logger.Log.Infof("room %s: %q reconnected as %s (was %s)", r.Code, p.Name, newID, oldID)
	}
}

// succeedHost hands host to the first team member, then the first spectator.
func (r *Room) succeedHost() {
	r.hostID = ""
	for _, t := range r.teams {
		if len(t.Roster) > 0 {
			r.hostID = t.Roster[0].ID
			return
		}
	}
	if len(r.spectators) > 0 {
		r.hostID = r.spectators[0].ID
	}
}

// dropExplainer clears the explainer and freezes the countdown. Status is left
// alone: an active round stays active until SetExplainer or RequestStart.
func (r *Room) dropExplainer() {
	r.activeExplainerID = ""
	r.stopTick()
}

func (r *Room) claimHost(sessionID string) {
	if r.hostID == "" {
		r.hostID = sessionID
	}
}

// sendContext privately brings a (re)joining connection up to date with the
// parts of the round that snapshots do not carry.
func (r *Room) sendContext(sessionID string) {
	r.sendTo(sessionID, network.MsgTypeScoreUpdate, ScoreUpdate{Scores: r.liveScores()})

	switch r.machine.Current() {
	case state.Active, state.Paused:
		r.sendTo(sessionID, network.MsgTypeTimerUpdate, TimerUpdate{RemainingSeconds: r.remainingSeconds})
	case state.Review:
		r.sendTo(sessionID, network.MsgTypeLedgerUpdate, LedgerUpdate{
			Ledger:    append([]LedgerEntry{}, r.ledger...),
			LiveScore: r.liveScore(),
		})
	}
}

// JoinRoom enters the room under name. A name already on a team is a
// reconnection; anyone else becomes (or stays) a spectator.
func (r *Room) JoinRoom(sessionID, name string) error {
	name = NormalizeName(name)
	if name == "" {
		name = AnonymousName
	}
	r.lifecycle.CancelDeletion(r.Code)

	if ti, pi, ok := r.findByName(name); ok {
		r.transplant(r.teams[ti].Roster[pi], sessionID)
	} else {
		r.upsertSpectator(sessionID, name)
	}
	r.claimHost(sessionID)

	r.updateOccupancy()
	r.broadcastSnapshot()
	r.sendContext(sessionID)
	return nil
}

// JoinTeam puts name on team teamIndex, moving it from wherever it was.
func (r *Room) JoinTeam(sessionID string, teamIndex int, name string) error {
	name = NormalizeName(name)
	if name == "" {
		return ErrInvalidName
	}
	if teamIndex < 0 || teamIndex >= len(r.teams) {
		return ErrInvalidIntent
	}

	ti, pi, onTeam := r.findByName(name)
	if r.isLocked && !onTeam {
		return ErrLocked
	}
	r.lifecycle.CancelDeletion(r.Code)

	switch {
	case onTeam && ti == teamIndex:
		r.transplant(r.teams[ti].Roster[pi], sessionID)
		if si := r.spectatorByName(name); si >= 0 {
			r.removeSpectatorAt(si)
		}
	default:
		var oldID string
		if onTeam {
			p := r.teams[ti].Roster[pi]
			if p.ID == r.activeExplainerID && r.machine.Is(state.Active, state.Paused, state.Review) {
				return ErrInvalidState
			}
			oldID = p.ID
			r.teams[ti].removeAt(pi)
		}
		if si := r.spectatorByName(name); si >= 0 {
			oldID = r.removeSpectatorAt(si).ID
		}
		r.retarget(oldID, sessionID)
		r.teams[teamIndex].Roster = append(r.teams[teamIndex].Roster, &Participant{ID: sessionID, Name: name})
	}
	r.claimHost(sessionID)

	r.updateOccupancy()
	r.broadcastSnapshot()
	return nil
}

// JoinSpectators moves name off every team into the spectator pool.
func (r *Room) JoinSpectators(sessionID, name string) error {
	name = NormalizeName(name)
	if name == "" {
		return ErrInvalidName
	}
	r.lifecycle.CancelDeletion(r.Code)

	wasHost := false
	if ti, pi, ok := r.findByName(name); ok {
		p := r.teams[ti].removeAt(pi)
		if p.ID == r.activeExplainerID {
			r.dropExplainer()
		}
		wasHost = p.ID == r.hostID
	}
	r.upsertSpectator(sessionID, name)
	// a host who steps off the teams passes host to a remaining player
	if wasHost {
		r.succeedHost()
	}
	r.claimHost(sessionID)

	r.updateOccupancy()
	r.broadcastSnapshot()
	return nil
}

// Leave removes whoever currently holds sessionID. It runs after the disconnect
// grace period, so a participant who reloaded and rejoined already holds a new
// id and is left untouched.
func (r *Room) Leave(sessionID string) {
	removed := false
	if ti, pi, ok := r.findByID(sessionID); ok {
		r.teams[ti].removeAt(pi)
		removed = true
	}
	if si := r.spectatorByID(sessionID); si >= 0 {
		r.removeSpectatorAt(si)
		removed = true
	}
	if !removed {
		return
	}

	if r.activeExplainerID == sessionID {
		r.dropExplainer()
	}
	if r.hostID == sessionID {
		r.succeedHost()
	}
	logger.Log.Infof("room %s: session %s left", r.Code, sessionID)

	r.updateOccupancy()
	r.broadcastSnapshot()
}
