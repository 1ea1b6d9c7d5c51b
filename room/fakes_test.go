package room

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sent struct {
	roomID    string
	sessionID string
	msgID     uint16
	data      []byte
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []sent
	left []string
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sent{roomID: roomID, msgID: msgID, data: data})
	return nil
}

func (b *fakeBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sent{sessionID: sessionID, msgID: msgID, data: data})
	return nil
}

func (b *fakeBroadcaster) LeaveGroup(roomID, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.left = append(b.left, sessionID)
}

// lastTo decodes the most recent private message msgID sent to sessionID.
func (b *fakeBroadcaster) lastTo(t *testing.T, sessionID string, msgID uint16, v any) bool {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		s := b.sent[i]
		if s.sessionID == sessionID && s.msgID == msgID {
			require.NoError(t, json.Unmarshal(s.data, v))
			return true
		}
	}
	return false
}

func (b *fakeBroadcaster) lastBroadcast(t *testing.T, msgID uint16, v any) bool {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		s := b.sent[i]
		if s.roomID != "" && s.msgID == msgID {
			require.NoError(t, json.Unmarshal(s.data, v))
			return true
		}
	}
	return false
}

func (b *fakeBroadcaster) count(msgID uint16) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.sent {
		if s.msgID == msgID {
			n++
		}
	}
	return n
}

// fakeScheduler never fires on its own; tests call fire.
type fakeScheduler struct {
	mu     sync.Mutex
	nextID int64
	timers map[int64]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: make(map[int64]func())}
}

func (s *fakeScheduler) AddTimer(delay, interval time.Duration, callback func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.timers[s.nextID] = callback
	return s.nextID
}

func (s *fakeScheduler) RemoveTimer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fireAll runs every pending callback once.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	callbacks := make([]func(), 0, len(s.timers))
	for _, cb := range s.timers {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (f *fakeRecorder) RecordResult(result Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

type fakeObserver struct {
	rounds int
	games  int
	draws  int
}

func (f *fakeObserver) RoundStarted() { f.rounds++ }

func (f *fakeObserver) GameFinished(draw bool) {
	f.games++
	if draw {
		f.draws++
	}
}

type fakeLifecycle struct {
	mu        sync.Mutex
	scheduled int
	cancelled int
}

func (f *fakeLifecycle) ScheduleDeletion(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled++
}

func (f *fakeLifecycle) CancelDeletion(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeLifecycle) scheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduled
}

type fixture struct {
	room      *Room
	bc        *fakeBroadcaster
	sched     *fakeScheduler
	recorder  *fakeRecorder
	observer  *fakeObserver
	lifecycle *fakeLifecycle
}

func firstIndex(int) int { return 0 }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bc:        &fakeBroadcaster{},
		sched:     newFakeScheduler(),
		recorder:  &fakeRecorder{},
		observer:  &fakeObserver{},
		lifecycle: &fakeLifecycle{},
	}
	f.room = NewRoom("AB12", Options{
		Broadcaster: f.bc,
		Scheduler:   f.sched,
		Lifecycle:   f.lifecycle,
		Recorder:    f.recorder,
		Observer:    f.observer,
		Settings:    DefaultSettings(),
		Intn:        firstIndex,
	})
	return f
}

// seat joins the room under name and sits on team.
func (f *fixture) seat(t *testing.T, id, name string, team int) {
	t.Helper()
	require.NoError(t, f.room.JoinRoom(id, name))
	require.NoError(t, f.room.JoinTeam(id, team, name))
}

// expire runs the countdown down to zero.
func (f *fixture) expire(t *testing.T) {
	t.Helper()
	require.True(t, f.room.ticking(), "countdown should be running")
	f.room.remainingSeconds = 1
	f.room.handleTick(f.room.tickGen)
}

// playRound starts a round, confirms n words, lets the timer run out and
// commits the result as host.
func (f *fixture) playRound(t *testing.T, host, explainer string, n int) {
	t.Helper()
	require.NoError(t, f.room.RequestStart(host))
	require.Equal(t, explainer, f.room.activeExplainerID)
	for i := 0; i < n; i++ {
		require.NoError(t, f.room.NextWord(explainer, Confirmed))
	}
	f.expire(t)
	require.NoError(t, f.room.ConfirmResults(host))
}
