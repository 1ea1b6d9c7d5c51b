package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGameRecord_Winner(t *testing.T) {
	r := &GameRecord{
		Teams:       []TeamResult{{Name: "Red Foxes"}, {Name: "Blue Whales"}},
		WinningTeam: 1,
	}
	assert.Equal(t, "Blue Whales", r.Winner())

	r.Draw, r.WinningTeam = true, -1
	assert.Equal(t, "", r.Winner())
}

func TestGormGameRecord_Conversion(t *testing.T) {
	finished := time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)
	r := &GameRecord{
		RoomCode:     "AB12",
		Teams:        []TeamResult{{Name: "Red Foxes", Score: 31, Members: []string{"Alice"}}},
		WinningTeam:  0,
		WinningScore: 30,
		FinishedAt:   finished,
	}

	g := NewGormGameRecord(r)
	assert.Equal(t, "Red Foxes", g.WinnerName)

	g.ID = 7
	back := g.ToGameRecord()
	assert.Equal(t, uint(7), back.ID)
	assert.Equal(t, r.Teams, back.Teams)
	assert.Equal(t, finished, back.FinishedAt)
}
