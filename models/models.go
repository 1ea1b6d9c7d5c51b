// models/models.go
package models

import (
	"time"
)

// GameRecord 游戏记录模型. One finished game, as archived.
type GameRecord struct {
	ID           uint         `json:"id"`
	RoomCode     string       `json:"room_code"`
	Teams        []TeamResult `json:"teams"`
	WinningTeam  int          `json:"winning_team"` // -1 on a draw
	Draw         bool         `json:"draw"`
	WinningScore int          `json:"winning_score"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// TeamResult is one team's final standing.
type TeamResult struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Score   int      `json:"score"`
	Members []string `json:"members"`
}

// Winner returns the winning team's name, or "" for a draw.
func (r *GameRecord) Winner() string {
	if r.Draw || r.WinningTeam < 0 || r.WinningTeam >= len(r.Teams) {
		return ""
	}
	return r.Teams[r.WinningTeam].Name
}
