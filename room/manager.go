package room

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/words"
)

const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a random 4-character room code.
func GenerateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

type ManagerConfig struct {
	MaxRooms      int
	DeleteGrace   time.Duration
	SweepSchedule string
	Defaults      Settings
}

// ManagerDeps are shared by every room the manager creates.
type ManagerDeps struct {
	Broadcaster Broadcaster
	Scheduler   Scheduler
	Recorder    Recorder
	Observer    Observer
	Intn        words.Intn
	// CodeGen overrides GenerateCode, for tests.
	CodeGen func() string
	// OnCountChange is called with the live room count after every create/delete.
	OnCountChange func(int)
}

// Manager is the room registry: the only structure shared across rooms.
type Manager struct {
	ctx       context.Context
	cfg       ManagerConfig
	deps      ManagerDeps
	rooms     map[string]*Room
	deletions map[string]int64
	cron      *cron.Cron
	mutex     sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器. Rooms run until ctx is cancelled.
func NewRoomManager(ctx context.Context, cfg ManagerConfig, deps ManagerDeps) *Manager {
	if deps.CodeGen == nil {
		deps.CodeGen = GenerateCode
	}
	return &Manager{
		ctx:       ctx,
		cfg:       cfg,
		deps:      deps,
		rooms:     make(map[string]*Room),
		deletions: make(map[string]int64),
	}
}

// CreateRoom registers and starts a new empty room and returns its code.
func (m *Manager) CreateRoom() (string, error) {
	m.mutex.Lock()
	if m.cfg.MaxRooms > 0 && len(m.rooms) >= m.cfg.MaxRooms {
		m.mutex.Unlock()
		return "", ErrCapacityExceeded
	}

	code := m.deps.CodeGen()
	for _, taken := m.rooms[code]; taken; _, taken = m.rooms[code] {
		code = m.deps.CodeGen()
	}

	room := NewRoom(code, Options{
		Broadcaster: m.deps.Broadcaster,
		Scheduler:   m.deps.Scheduler,
		Lifecycle:   m,
		Recorder:    m.deps.Recorder,
		Observer:    m.deps.Observer,
		Settings:    m.cfg.Defaults,
		Intn:        m.deps.Intn,
	})
	m.rooms[code] = room
	// a room nobody ever joins is reclaimed like an emptied one
	m.scheduleDeletionLocked(code)
	count := len(m.rooms)
	m.mutex.Unlock()

	go room.Run(m.ctx)
	logger.Log.Infof("room %s created (%d live)", code, count)
	m.countChanged(count)
	return code, nil
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(code string) (*Room, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[code]
	if !exists {
		return nil, ErrNotFound
	}
	return room, nil
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	removed := m.removeLocked(code)
	count := len(m.rooms)
	m.mutex.Unlock()

	if removed {
		m.countChanged(count)
	}
}

func (m *Manager) removeLocked(code string) bool {
	room, exists := m.rooms[code]
	if !exists {
		return false
	}
	if id, pending := m.deletions[code]; pending {
		m.deps.Scheduler.RemoveTimer(id)
		delete(m.deletions, code)
	}
	room.Close()
	delete(m.rooms, code)
	logger.Log.Infof("room %s deleted", code)
	return true
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Occupancy returns the number of participants across all rooms.
func (m *Manager) Occupancy() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := 0
	for _, room := range m.rooms {
		total += room.Occupancy()
	}
	return total
}

// ScheduleDeletion arms a deferred delete for code unless one is already pending.
func (m *Manager) ScheduleDeletion(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.rooms[code]; exists {
		m.scheduleDeletionLocked(code)
	}
}

func (m *Manager) scheduleDeletionLocked(code string) {
	if _, pending := m.deletions[code]; pending || m.deps.Scheduler == nil {
		return
	}
	m.deletions[code] = m.deps.Scheduler.AddTimer(m.cfg.DeleteGrace, 0, func() {
		m.expire(code)
	})
}

// CancelDeletion disarms a pending delete; joins call it.
func (m *Manager) CancelDeletion(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if id, pending := m.deletions[code]; pending {
		m.deps.Scheduler.RemoveTimer(id)
		delete(m.deletions, code)
	}
}

// expire runs when a deletion grace period ends. The room survives if someone
// joined in the meantime.
func (m *Manager) expire(code string) {
	m.mutex.Lock()
	delete(m.deletions, code)
	room, exists := m.rooms[code]
	removed := false
	if exists && room.Occupancy() == 0 {
		removed = m.removeLocked(code)
	}
	count := len(m.rooms)
	m.mutex.Unlock()

	if removed {
		m.countChanged(count)
	}
}

// Sweep deletes every room that has been empty for at least the grace period.
// It backs up the per-room deletion timers.
func (m *Manager) Sweep() int {
	m.mutex.Lock()
	removed := 0
	for code, room := range m.rooms {
		if room.Occupancy() == 0 && time.Since(room.EmptySince()) >= m.cfg.DeleteGrace {
			if m.removeLocked(code) {
				removed++
			}
		}
	}
	count := len(m.rooms)
	m.mutex.Unlock()

	if removed > 0 {
		logger.Log.Infof("sweep reclaimed %d empty rooms", removed)
		m.countChanged(count)
	}
	return removed
}

// StartSweeper runs Sweep on the configured cron schedule.
func (m *Manager) StartSweeper() error {
	c := cron.New()
	if _, err := c.AddFunc(m.cfg.SweepSchedule, func() { m.Sweep() }); err != nil {
		return err
	}
	c.Start()

	m.mutex.Lock()
	m.cron = c
	m.mutex.Unlock()
	return nil
}

// Stop halts the sweeper and closes every room.
func (m *Manager) Stop() {
	m.mutex.Lock()
	c := m.cron
	m.cron = nil
	for code := range m.rooms {
		m.removeLocked(code)
	}
	m.mutex.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	m.countChanged(0)
}

func (m *Manager) countChanged(count int) {
	if m.deps.OnCountChange != nil {
		m.deps.OnCountChange(count)
	}
}
