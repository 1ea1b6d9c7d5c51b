package room

import (
	"time"

	"github.com/wfunc/aliasgame/state"
)

// SnapshotVersion is bumped whenever the Snapshot shape changes incompatibly.
const SnapshotVersion = 1

// Snapshot is the public view of a room broadcast after every state change.
// It never carries the deck, the current word, or timer handles.
type Snapshot struct {
	Version           int           `json:"version"`
	Code              string        `json:"code"`
	Status            state.Status  `json:"status"`
	Teams             []TeamView    `json:"teams"`
	Spectators        []Participant `json:"spectators"`
	HostID            string        `json:"hostId"`
	IsLocked          bool          `json:"isLocked"`
	Settings          Settings      `json:"settings"`
	CurrentTeamIndex  int           `json:"currentTeamIndex"`
	ActiveExplainerID string        `json:"activeExplainerId,omitempty"`
	NextExplainerID   string        `json:"nextExplainerId,omitempty"`
	RemainingSeconds  int           `json:"remainingSeconds"`
	Ledger            []LedgerEntry `json:"ledger,omitempty"`
	WinningTeamIndex  *int          `json:"winningTeamIndex,omitempty"`
	IsDraw            bool          `json:"isDraw"`
}

type TeamView struct {
	Name               string        `json:"name"`
	Color              string        `json:"color"`
	Score              int           `json:"score"`
	Members            []Participant `json:"members"`
	NextExplainerIndex int           `json:"nextExplainerIndex"`
}

// Outbound payloads.
type (
	RoomCreated struct {
		Code string `json:"code"`
	}

	WordDelivery struct {
		Word        string `json:"word"`
		ExplainerID string `json:"explainerId"`
	}

	LedgerUpdate struct {
		Ledger    []LedgerEntry `json:"ledger"`
		LiveScore int           `json:"liveScore"`
	}

	TimerUpdate struct {
		RemainingSeconds int `json:"remainingSeconds"`
	}

	ScoreUpdate struct {
		Scores []int `json:"scores"`
	}

	Kicked struct {
		Reason string `json:"reason"`
	}

	Notice struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
)

// Result describes a finished game for the archive.
type Result struct {
	Code             string
	Teams            []TeamView
	WinningTeamIndex int
	Draw             bool
	WinningScore     int
	FinishedAt       time.Time
}

func (r *Room) teamViews() []TeamView {
	views := make([]TeamView, len(r.teams))
	for i, t := range r.teams {
		members := make([]Participant, len(t.Roster))
		for j, p := range t.Roster {
			members[j] = *p
		}
		views[i] = TeamView{
			Name:               t.Name,
			Color:              t.Color,
			Score:              t.Score,
			Members:            members,
			NextExplainerIndex: t.NextExplainerIndex,
		}
	}
	return views
}

func (r *Room) snapshot() Snapshot {
	spectators := make([]Participant, len(r.spectators))
	for i, p := range r.spectators {
		spectators[i] = *p
	}

	status := r.machine.Current()
	snap := Snapshot{
		Version:           SnapshotVersion,
		Code:              r.Code,
		Status:            status,
		Teams:             r.teamViews(),
		Spectators:        spectators,
		HostID:            r.hostID,
		IsLocked:          r.isLocked,
		Settings:          r.settings,
		CurrentTeamIndex:  r.currentTeamIndex,
		ActiveExplainerID: r.activeExplainerID,
		NextExplainerID:   r.nextExplainerID(),
		RemainingSeconds:  r.remainingSeconds,
		IsDraw:            r.isDraw,
	}
	if status == state.Review {
		snap.Ledger = append([]LedgerEntry{}, r.ledger...)
	}
	if status == state.Victory {
		winner := r.winningTeamIndex
		snap.WinningTeamIndex = &winner
	}
	return snap
}
