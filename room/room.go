// room/room.go
package room

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/state"
	"github.com/wfunc/aliasgame/words"
)

const (
	tickInterval = time.Second
	inboxSize    = 1024
)

type envelope struct {
	sessionID string
	msgID     uint16
	data      []byte
}

// Options carries a room's collaborators. Nil Lifecycle, Recorder and Observer
// are replaced with no-ops.
type Options struct {
	Broadcaster Broadcaster
	Scheduler   Scheduler
	Lifecycle   Lifecycle
	Recorder    Recorder
	Observer    Observer
	Settings    Settings
	Intn        words.Intn
}

// Room owns one game session. All state below the collaborators is touched only
// by the goroutine running Run (or directly by tests that never start Run).
type Room struct {
	Code      string
	CreatedAt time.Time

	broadcaster Broadcaster
	scheduler   Scheduler
	lifecycle   Lifecycle
	recorder    Recorder
	observer    Observer
	intn        words.Intn

	machine           *state.Machine
	settings          Settings
	teams             []*Team
	spectators        []*Participant
	hostID            string
	isLocked          bool
	currentTeamIndex  int
	activeExplainerID string
	deck              []string
	deckStale         bool
	currentWord       string
	ledger            []LedgerEntry
	remainingSeconds  int
	winningTeamIndex  int
	isDraw            bool
	playedThisCycle   map[int]bool

	tickTimer int64
	tickGen   int64

	occupancy  atomic.Int64
	emptySince atomic.Int64

	inbox     chan envelope
	ticks     chan int64
	leaves    chan string
	queries   chan func()
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewRoom 创建一个新房间
func NewRoom(code string, opts Options) *Room {
	settings := opts.Settings.Normalize()
	r := &Room{
		Code:             code,
		CreatedAt:        time.Now(),
		broadcaster:      opts.Broadcaster,
		scheduler:        opts.Scheduler,
		lifecycle:        opts.Lifecycle,
		recorder:         opts.Recorder,
		observer:         opts.Observer,
		intn:             opts.Intn,
		settings:         settings,
		spectators:       []*Participant{},
		remainingSeconds: settings.RoundDuration,
		winningTeamIndex: -1,
		playedThisCycle:  make(map[int]bool),
		inbox:            make(chan envelope, inboxSize),
		ticks:            make(chan int64, 8),
		leaves:           make(chan string, 64),
		queries:          make(chan func()),
		closeChan:        make(chan struct{}),
	}
	if r.lifecycle == nil {
		r.lifecycle = nopLifecycle{}
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	for i := 0; i < settings.TeamCount; i++ {
		r.teams = append(r.teams, newTeam(i))
	}
	r.emptySince.Store(r.CreatedAt.UnixNano())
	r.machine = r.newMachine()
	return r
}

func (r *Room) newMachine() *state.Machine {
	sm := state.NewMachine(state.Lobby)

	sm.AddTransition(state.Lobby, state.Active, nil)
	sm.AddTransition(state.Active, state.Paused, nil)
	sm.AddTransition(state.Paused, state.Active, nil)
	sm.AddTransition(state.Active, state.Review, nil)
	sm.AddTransition(state.Review, state.Lobby, nil)
	sm.AddTransition(state.Review, state.Victory, nil)
	// restart
	sm.AddTransition(state.Active, state.Lobby, nil)
	sm.AddTransition(state.Paused, state.Lobby, nil)
	sm.AddTransition(state.Victory, state.Lobby, nil)

	// the countdown only ever runs while active
	sm.OnEnter(state.Active, func() {
		if r.activeExplainerID != "" {
			r.startTick()
		}
	})
	sm.OnExit(state.Active, r.stopTick)
	return sm
}

// --- actor ---

// Run serialises every intent, tick and departure for this room until ctx is
// cancelled or the room is closed.
func (r *Room) Run(ctx context.Context) {
	defer r.stopTick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.closeChan:
			return
		case env := <-r.inbox:
			if err := r.HandleIntent(env.sessionID, env.msgID, env.data); err != nil {
				logger.Log.Debugf("room %s: intent %d from %s rejected: %v", r.Code, env.msgID, env.sessionID, err)
			}
		case gen := <-r.ticks:
			r.handleTick(gen)
		case sessionID := <-r.leaves:
			r.Leave(sessionID)
		case fn := <-r.queries:
			fn()
		}
	}
}

// Submit queues an intent for the actor. It returns false if the room is closed.
func (r *Room) Submit(sessionID string, msgID uint16, data []byte) bool {
	if r.Closed() {
		return false
	}
	select {
	case r.inbox <- envelope{sessionID: sessionID, msgID: msgID, data: data}:
		return true
	case <-r.closeChan:
		return false
	}
}

// Disconnect queues removal of whoever still holds sessionID.
func (r *Room) Disconnect(sessionID string) bool {
	if r.Closed() {
		return false
	}
	select {
	case r.leaves <- sessionID:
		return true
	case <-r.closeChan:
		return false
	}
}

// Snapshot asks the actor for the current public view.
func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	result := make(chan Snapshot, 1)
	query := func() { result <- r.snapshot() }

	if r.Closed() {
		return Snapshot{}, ErrRoomClosed
	}
	select {
	case r.queries <- query:
	case <-r.closeChan:
		return Snapshot{}, ErrRoomClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-result:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close stops the actor. Safe to call more than once.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

func (r *Room) Closed() bool {
	select {
	case <-r.closeChan:
		return true
	default:
		return false
	}
}

// Occupancy is the number of participants on teams and spectating.
func (r *Room) Occupancy() int {
	return int(r.occupancy.Load())
}

// EmptySince is when occupancy last dropped to zero (creation time for a fresh room).
func (r *Room) EmptySince() time.Time {
	return time.Unix(0, r.emptySince.Load())
}

func (r *Room) Status() state.Status {
	return r.machine.Current()
}

// --- countdown ---

func (r *Room) startTick() {
	r.stopTick()
	if r.scheduler == nil {
		return
	}
	gen := r.tickGen
	r.tickTimer = r.scheduler.AddTimer(tickInterval, tickInterval, func() {
		select {
		case r.ticks <- gen:
		case <-r.closeChan:
		}
	})
}

// stopTick cancels the countdown; ticks already in flight carry an old
// generation and are ignored.
func (r *Room) stopTick() {
	if r.tickTimer != 0 && r.scheduler != nil {
		r.scheduler.RemoveTimer(r.tickTimer)
	}
	r.tickTimer = 0
	r.tickGen++
}

func (r *Room) ticking() bool {
	return r.tickTimer != 0
}

// --- delivery ---

func (r *Room) broadcast(msgID uint16, v any) {
	if r.broadcaster == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("room %s: marshal %d: %v", r.Code, msgID, err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.Code, msgID, data); err != nil {
		logger.Log.Debugf("room %s: broadcast %d: %v", r.Code, msgID, err)
	}
}

func (r *Room) sendTo(sessionID string, msgID uint16, v any) {
	if r.broadcaster == nil || sessionID == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("room %s: marshal %d: %v", r.Code, msgID, err)
		return
	}
	if err := r.broadcaster.SendToSession(sessionID, msgID, data); err != nil {
		logger.Log.Debugf("room %s: send %d to %s: %v", r.Code, msgID, sessionID, err)
	}
}

func (r *Room) broadcastSnapshot() {
	r.broadcast(network.MsgTypeRoomSnapshot, r.snapshot())
}

func (r *Room) broadcastScores() {
	r.broadcast(network.MsgTypeScoreUpdate, ScoreUpdate{Scores: r.liveScores()})
}

func (r *Room) broadcastLedger() {
	r.broadcast(network.MsgTypeLedgerUpdate, LedgerUpdate{
		Ledger:    append([]LedgerEntry{}, r.ledger...),
		LiveScore: r.liveScore(),
	})
}

func (r *Room) deliverWord(sessionID string) {
	if r.currentWord == "" {
		return
	}
	r.sendTo(sessionID, network.MsgTypeWordDelivery, WordDelivery{
		Word:        r.currentWord,
		ExplainerID: r.activeExplainerID,
	})
}

// --- derived values ---

func (r *Room) roundInProgress() bool {
	return r.machine.Is(state.Active, state.Paused)
}

func (r *Room) currentTeam() *Team {
	return r.teams[r.currentTeamIndex]
}

func (r *Room) nextExplainerID() string {
	if p := r.currentTeam().nextExplainer(); p != nil {
		return p.ID
	}
	return ""
}

// liveScore is the current team's committed score plus the tentative round delta.
func (r *Room) liveScore() int {
	return r.currentTeam().Score + ledgerDelta(r.ledger)
}

func (r *Room) liveScores() []int {
	scores := make([]int, len(r.teams))
	for i, t := range r.teams {
		scores[i] = t.Score
	}
	if r.machine.Is(state.Active, state.Paused, state.Review) {
		scores[r.currentTeamIndex] += ledgerDelta(r.ledger)
	}
	return scores
}

func (r *Room) isHost(sessionID string) bool {
	return sessionID != "" && sessionID == r.hostID
}

func (r *Room) updateOccupancy() {
	total := len(r.spectators)
	for _, t := range r.teams {
		total += len(t.Roster)
	}
	prev := r.occupancy.Swap(int64(total))
	if total == 0 && prev > 0 {
		r.emptySince.Store(time.Now().UnixNano())
		logger.Log.Infof("room %s is empty, scheduling deletion", r.Code)
		r.lifecycle.ScheduleDeletion(r.Code)
	}
}
