package room

import (
	"time"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/state"
	"github.com/wfunc/aliasgame/words"
)

// RequestStart begins a round for the current team. The host or whoever is next
// to explain may start it. It is also the recovery path for an active round
// whose explainer was removed.
func (r *Room) RequestStart(sessionID string) error {
	if !r.isHost(sessionID) && sessionID != r.nextExplainerID() {
		return ErrUnauthorized
	}
	recovering := r.machine.Is(state.Active) && r.activeExplainerID == ""
	if !r.machine.Is(state.Lobby) && !recovering {
		return ErrInvalidState
	}

	team := r.currentTeam()
	if len(team.Roster) == 0 {
		return ErrInvalidState
	}
	if team.NextExplainerIndex >= len(team.Roster) {
		team.NextExplainerIndex = 0
	}
	if len(r.deck) == 0 || r.deckStale {
		deck, err := words.NewDeck(r.settings.Difficulty, r.intn)
		if err != nil {
			return err
		}
		r.deck = deck
		r.deckStale = false
	}

	r.activeExplainerID = team.Roster[team.NextExplainerIndex].ID
	r.ledger = nil
	r.currentWord = r.popWord()
	r.remainingSeconds = r.settings.RoundDuration
	r.isLocked = true

	if recovering {
		r.startTick()
	} else if err := r.machine.ChangeState(state.Active); err != nil {
		return err
	}
	r.observer.RoundStarted()
	logger.Log.Infof("room %s: round started for team %q, explainer %s", r.Code, team.Name, r.activeExplainerID)

	r.broadcastSnapshot()
	r.broadcast(network.MsgTypeTimerUpdate, TimerUpdate{RemainingSeconds: r.remainingSeconds})
	r.broadcastScores()
	r.deliverWord(r.activeExplainerID)
	return nil
}

func (r *Room) popWord() string {
	n := len(r.deck)
	if n == 0 {
		return ""
	}
	w := r.deck[n-1]
	r.deck = r.deck[:n-1]
	return w
}

// handleTick advances the countdown by one second. Ticks from a cancelled
// countdown carry a stale generation and are dropped.
func (r *Room) handleTick(gen int64) {
	if gen != r.tickGen || !r.ticking() || !r.machine.Is(state.Active) {
		return
	}

	r.remainingSeconds--
	if r.remainingSeconds < 0 {
		r.remainingSeconds = 0
	}
	r.broadcast(network.MsgTypeTimerUpdate, TimerUpdate{RemainingSeconds: r.remainingSeconds})

	if r.remainingSeconds == 0 {
		if r.currentWord != "" {
			r.ledger = append(r.ledger, LedgerEntry{Word: r.currentWord, Outcome: Undecided})
		}
		r.enterReview()
	}
}

func (r *Room) enterReview() {
	r.currentWord = ""
	if err := r.machine.ChangeState(state.Review); err != nil {
		logger.Log.Errorf("room %s: enter review: %v", r.Code, err)
		return
	}
	r.broadcastSnapshot()
	r.broadcastLedger()
}

// NextWord records the explainer's verdict on the current word and moves on.
// Running out of words ends the round early.
func (r *Room) NextWord(sessionID string, outcome Outcome) error {
	if !r.machine.Is(state.Active) {
		return ErrInvalidState
	}
	if r.activeExplainerID == "" || sessionID != r.activeExplainerID {
		return ErrUnauthorized
	}
	if outcome != Confirmed && outcome != Rejected {
		return ErrInvalidIntent
	}

	r.ledger = append(r.ledger, LedgerEntry{Word: r.currentWord, Outcome: outcome})
	r.broadcastScores()

	if len(r.deck) == 0 {
		r.enterReview()
		return nil
	}
	r.currentWord = r.popWord()
	r.deliverWord(r.activeExplainerID)
	return nil
}

// TogglePause freezes or resumes the countdown without touching the round.
func (r *Room) TogglePause(sessionID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}

	var err error
	switch r.machine.Current() {
	case state.Active:
		err = r.machine.ChangeState(state.Paused)
	case state.Paused:
		err = r.machine.ChangeState(state.Active)
	default:
		return ErrInvalidState
	}
	if err != nil {
		return err
	}

	r.broadcastSnapshot()
	r.broadcast(network.MsgTypeTimerUpdate, TimerUpdate{RemainingSeconds: r.remainingSeconds})
	return nil
}

// ToggleWordStatus lets anyone in the room correct a ledger entry during review.
func (r *Room) ToggleWordStatus(sessionID string, index int) error {
	if !r.machine.Is(state.Review) {
		return ErrInvalidState
	}
	if index < 0 || index >= len(r.ledger) {
		return ErrInvalidIntent
	}
	if _, _, ok := r.findByID(sessionID); !ok && r.spectatorByID(sessionID) < 0 {
		return ErrUnauthorized
	}

	r.ledger[index].Outcome = r.ledger[index].Outcome.next()

	r.broadcastLedger()
	r.broadcastScores()
	return nil
}

// ConfirmResults commits the reviewed ledger and passes the turn.
func (r *Room) ConfirmResults(sessionID string) error {
	if !r.machine.Is(state.Review) {
		return ErrInvalidState
	}
	if !r.isHost(sessionID) && (r.activeExplainerID == "" || sessionID != r.activeExplainerID) {
		return ErrUnauthorized
	}

	played := r.currentTeamIndex
	team := r.currentTeam()
	team.Score += ledgerDelta(r.ledger)
	if len(team.Roster) > 0 {
		team.NextExplainerIndex = (team.NextExplainerIndex + 1) % len(team.Roster)
	} else {
		team.NextExplainerIndex = 0
	}
	r.playedThisCycle[played] = true

	closed := r.cycleClosed()
	r.currentTeamIndex = r.nextNonEmptyTeam(played)
	r.activeExplainerID = ""
	r.ledger = nil
	r.currentWord = ""
	r.remainingSeconds = r.settings.RoundDuration

	next := state.Lobby
	if closed {
		r.playedThisCycle = make(map[int]bool)
		if winner, draw, ok := r.evaluateVictory(); ok {
			r.winningTeamIndex = winner
			r.isDraw = draw
			next = state.Victory
		}
	}
	if err := r.machine.ChangeState(next); err != nil {
		return err
	}

	if next == state.Victory {
		r.finishGame()
	}
	r.broadcastSnapshot()
	r.broadcastScores()
	return nil
}

// cycleClosed reports whether every team that has members has taken its turn
// since the last closure.
func (r *Room) cycleClosed() bool {
	for i, t := range r.teams {
		if len(t.Roster) > 0 && !r.playedThisCycle[i] {
			return false
		}
	}
	return true
}

// nextNonEmptyTeam scans forward from after, wrapping, for a team with members.
// If every team is empty the turn stays where it is.
func (r *Room) nextNonEmptyTeam(after int) int {
	n := len(r.teams)
	for step := 1; step <= n; step++ {
		i := (after + step) % n
		if len(r.teams[i].Roster) > 0 {
			return i
		}
	}
	return after
}

// evaluateVictory picks the highest-scoring team once someone reaches the
// winning score. Several teams sharing the top score is a draw.
func (r *Room) evaluateVictory() (winner int, draw bool, ok bool) {
	best := r.teams[0].Score
	for _, t := range r.teams[1:] {
		if t.Score > best {
			best = t.Score
		}
	}
	if best < r.settings.WinningScore {
		return -1, false, false
	}

	winner = -1
	for i, t := range r.teams {
		if t.Score != best {
			continue
		}
		if winner >= 0 {
			return -1, true, true
		}
		winner = i
	}
	return winner, false, true
}

func (r *Room) finishGame() {
	if r.isDraw {
		logger.Log.Infof("room %s: game over, draw", r.Code)
	} else {
		logger.Log.Infof("room %s: game over, %q wins", r.Code, r.teams[r.winningTeamIndex].Name)
	}
	r.observer.GameFinished(r.isDraw)
	r.recorder.RecordResult(Result{
		Code:             r.Code,
		Teams:            r.teamViews(),
		WinningTeamIndex: r.winningTeamIndex,
		Draw:             r.isDraw,
		WinningScore:     r.settings.WinningScore,
		FinishedAt:       time.Now(),
	})
}

// RestartGame zeroes the scoreboard and returns to the lobby. The remaining
// deck is kept so words do not repeat across games.
func (r *Room) RestartGame(sessionID string) error {
	if !r.isHost(sessionID) {
		return ErrUnauthorized
	}
	if !r.machine.Is(state.Lobby) {
		if err := r.machine.ChangeState(state.Lobby); err != nil {
			return err
		}
	}
	r.stopTick()

	for _, t := range r.teams {
		t.Score = 0
		t.NextExplainerIndex = 0
	}
	r.currentTeamIndex = 0
	r.activeExplainerID = ""
	r.currentWord = ""
	r.ledger = nil
	r.winningTeamIndex = -1
	r.isDraw = false
	r.isLocked = false
	r.playedThisCycle = make(map[int]bool)
	r.remainingSeconds = r.settings.RoundDuration

	r.broadcastSnapshot()
	r.broadcastScores()
	return nil
}
