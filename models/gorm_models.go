// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomCode     string       `gorm:"index;size:8;not null"`
	Teams        []TeamResult `gorm:"type:jsonb;serializer:json;not null"`
	WinningTeam  int          `gorm:"not null"`
	WinnerName   string       `gorm:"size:64"`
	Draw         bool         `gorm:"default:false"`
	WinningScore int          `gorm:"not null"`
	FinishedAt   time.Time    `gorm:"index;not null"`
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RoomCode:     r.RoomCode,
		Teams:        r.Teams,
		WinningTeam:  r.WinningTeam,
		WinnerName:   r.Winner(),
		Draw:         r.Draw,
		WinningScore: r.WinningScore,
		FinishedAt:   r.FinishedAt,
	}
}

func (g *GormGameRecord) ToGameRecord() GameRecord {
	return GameRecord{
		ID:           g.ID,
		RoomCode:     g.RoomCode,
		Teams:        g.Teams,
		WinningTeam:  g.WinningTeam,
		Draw:         g.Draw,
		WinningScore: g.WinningScore,
		FinishedAt:   g.FinishedAt,
	}
}
