// persistence/interface.go
package persistence

import (
	"context"
	"errors"

	"github.com/wfunc/aliasgame/models"
)

// Database 数据库接口. It only ever archives finished games; live rooms are
// never restored from it.
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error)
	LastGameRecord(ctx context.Context, roomCode string) (*models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)

// NopDatabase drops every record. It stands in when the database is disabled.
type NopDatabase struct{}

func (NopDatabase) SaveGameRecord(context.Context, *models.GameRecord) error { return nil }

func (NopDatabase) RecentGameRecords(context.Context, int) ([]models.GameRecord, error) {
	return []models.GameRecord{}, nil
}

func (NopDatabase) LastGameRecord(context.Context, string) (*models.GameRecord, error) {
	return nil, ErrRecordNotFound
}

func (NopDatabase) Close() error { return nil }
