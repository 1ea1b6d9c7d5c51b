// services/game_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/models"
	"github.com/wfunc/aliasgame/persistence"
	"github.com/wfunc/aliasgame/room"
)

const defaultSaveTimeout = 5 * time.Second

// GameService archives finished games and reads the archive back for admins.
type GameService struct {
	db      persistence.Database
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewGameService(db persistence.Database) *GameService {
	return &GameService{db: db, timeout: defaultSaveTimeout}
}

// RecordResult saves result in the background so a room's actor never waits
// on the database.
func (s *GameService) RecordResult(result room.Result) {
	record := ToGameRecord(result)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.db.SaveGameRecord(ctx, record); err != nil {
			logger.Log.Errorf("archive game for room %s: %v", record.RoomCode, err)
			return
		}
		logger.Log.Debugf("archived game %d for room %s", record.ID, record.RoomCode)
	}()
}

// Wait blocks until every pending save has finished.
func (s *GameService) Wait() {
	s.wg.Wait()
}

func (s *GameService) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	return s.db.RecentGameRecords(ctx, limit)
}

func (s *GameService) LastGame(ctx context.Context, roomCode string) (*models.GameRecord, error) {
	return s.db.LastGameRecord(ctx, roomCode)
}

// ToGameRecord flattens a room result into the archive model.
func ToGameRecord(result room.Result) *models.GameRecord {
	teams := make([]models.TeamResult, len(result.Teams))
	for i, t := range result.Teams {
		members := make([]string, len(t.Members))
		for j, p := range t.Members {
			members[j] = p.Name
		}
		teams[i] = models.TeamResult{
			Name:    t.Name,
			Color:   t.Color,
			Score:   t.Score,
			Members: members,
		}
	}
	return &models.GameRecord{
		RoomCode:     result.Code,
		Teams:        teams,
		WinningTeam:  result.WinningTeamIndex,
		Draw:         result.Draw,
		WinningScore: result.WinningScore,
		FinishedAt:   result.FinishedAt,
	}
}
