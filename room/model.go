package room

import (
	"strings"
	"unicode/utf8"

	"github.com/wfunc/aliasgame/words"
)

const (
	MaxNameLength = 24
	AnonymousName = "Anonymous"

	MinRoundDuration = 10
	MaxRoundDuration = 180
	MinWinningScore  = 10
	MaxWinningScore  = 100
	MinTeamCount     = 1
	MaxTeamCount     = 4
)

// Participant is one person in a room. ID is the connection identifier and changes
// on reconnection; Name is the stable key used to recognise the same person.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Team struct {
	Name               string
	Color              string
	Score              int
	Roster             []*Participant
	NextExplainerIndex int
}

// nextExplainer returns who explains next for this team, or nil for an empty roster.
func (t *Team) nextExplainer() *Participant {
	if len(t.Roster) == 0 {
		return nil
	}
	return t.Roster[t.NextExplainerIndex%len(t.Roster)]
}

func (t *Team) indexOfName(name string) int {
	for i, p := range t.Roster {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (t *Team) indexOfID(id string) int {
	for i, p := range t.Roster {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// removeAt drops roster[i] and resets the cursor if it fell out of range.
func (t *Team) removeAt(i int) *Participant {
	p := t.Roster[i]
	t.Roster = append(t.Roster[:i], t.Roster[i+1:]...)
	if t.NextExplainerIndex >= len(t.Roster) {
		t.NextExplainerIndex = 0
	}
	return p
}

type teamIdentity struct {
	name  string
	color string
}

var palette = [MaxTeamCount]teamIdentity{
	{"Red Foxes", "#e74c3c"},
	{"Blue Whales", "#3498db"},
	{"Green Frogs", "#2ecc71"},
	{"Yellow Bees", "#f1c40f"},
}

func newTeam(i int) *Team {
	id := palette[i]
	return &Team{Name: id.name, Color: id.color, Roster: []*Participant{}}
}

type Settings struct {
	RoundDuration int              `json:"roundDuration"`
	WinningScore  int              `json:"winningScore"`
	Difficulty    words.Difficulty `json:"difficulty"`
	TeamCount     int              `json:"teamCount"`
}

func DefaultSettings() Settings {
	return Settings{
		RoundDuration: 60,
		WinningScore:  30,
		Difficulty:    words.Medium,
		TeamCount:     2,
	}
}

// Normalize clamps out-of-range values back to defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.RoundDuration < MinRoundDuration || s.RoundDuration > MaxRoundDuration {
		s.RoundDuration = d.RoundDuration
	}
	if s.WinningScore < MinWinningScore || s.WinningScore > MaxWinningScore {
		s.WinningScore = d.WinningScore
	}
	if !s.Difficulty.Valid() {
		s.Difficulty = d.Difficulty
	}
	if s.TeamCount < MinTeamCount || s.TeamCount > MaxTeamCount {
		s.TeamCount = d.TeamCount
	}
	return s
}

type Outcome string

const (
	Undecided Outcome = "undecided"
	Confirmed Outcome = "confirmed"
	Rejected  Outcome = "rejected"
)

// next cycles confirmed -> rejected -> undecided -> confirmed.
func (o Outcome) next() Outcome {
	switch o {
	case Confirmed:
		return Rejected
	case Rejected:
		return Undecided
	default:
		return Confirmed
	}
}

func (o Outcome) points() int {
	switch o {
	case Confirmed:
		return 1
	case Rejected:
		return -1
	}
	return 0
}

type LedgerEntry struct {
	Word    string  `json:"word"`
	Outcome Outcome `json:"outcome"`
}

func ledgerDelta(ledger []LedgerEntry) int {
	delta := 0
	for _, e := range ledger {
		delta += e.Outcome.points()
	}
	return delta
}

// NormalizeName trims and truncates a display name. Matching is case-sensitive.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name
}
