package room

import "time"

// Broadcaster delivers packets to a room's membership group or to one connection.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToSession(sessionID string, msgID uint16, data []byte) error
	LeaveGroup(roomID, sessionID string)
}

// Scheduler runs callbacks later; timer.TimerManager satisfies it.
type Scheduler interface {
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	RemoveTimer(timerId int64)
}

// Lifecycle is how a room tells its registry that it became empty or occupied.
type Lifecycle interface {
	ScheduleDeletion(code string)
	CancelDeletion(code string)
}

// Recorder archives finished games.
type Recorder interface {
	RecordResult(result Result)
}

// Observer is notified of gameplay milestones, for metrics.
type Observer interface {
	RoundStarted()
	GameFinished(draw bool)
}

type nopLifecycle struct{}

func (nopLifecycle) ScheduleDeletion(string) {}
func (nopLifecycle) CancelDeletion(string)   {}

type nopRecorder struct{}

func (nopRecorder) RecordResult(Result) {}

type nopObserver struct{}

func (nopObserver) RoundStarted()     {}
func (nopObserver) GameFinished(bool) {}
