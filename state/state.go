package state

import (
	"errors"
	"fmt"
	"sync"
)

// Status is a room's lifecycle phase.
type Status string

const (
	Lobby   Status = "lobby"
	Active  Status = "active"
	Paused  Status = "paused"
	Review  Status = "review"
	Victory Status = "victory"
)

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine is a small table-driven state machine. Only registered transitions are
// permitted; a transition's condition, when present, must also hold. OnExit hooks
// of the old status run before OnEnter hooks of the new one.
type Machine struct {
	current     Status
	transitions map[Status]map[Status]func() bool
	onEnter     map[Status][]func()
	onExit      map[Status][]func()
	mutex       sync.RWMutex
}

func NewMachine(initial Status) *Machine {
	return &Machine{
		current:     initial,
		transitions: make(map[Status]map[Status]func() bool),
		onEnter:     make(map[Status][]func()),
		onExit:      make(map[Status][]func()),
	}
}

// AddTransition permits from -> to, guarded by condition when it is non-nil.
func (sm *Machine) AddTransition(from, to Status, condition func() bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Status]func() bool)
	}
	sm.transitions[from][to] = condition
}

func (sm *Machine) OnEnter(s Status, fn func()) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onEnter[s] = append(sm.onEnter[s], fn)
}

func (sm *Machine) OnExit(s Status, fn func()) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.onExit[s] = append(sm.onExit[s], fn)
}

func (sm *Machine) CanTransition(to Status) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.allowed(to)
}

func (sm *Machine) allowed(to Status) bool {
	conditions, exists := sm.transitions[sm.current]
	if !exists {
		return false
	}
	condition, exists := conditions[to]
	if !exists {
		return false
	}
	return condition == nil || condition()
}

// ChangeState moves to the new status and runs hooks. Hooks run without the
// machine lock held, so they may call Current.
func (sm *Machine) ChangeState(to Status) error {
	sm.mutex.Lock()
	from := sm.current
	if !sm.allowed(to) {
		sm.mutex.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	exit := sm.onExit[from]
	enter := sm.onEnter[to]
	sm.current = to
	sm.mutex.Unlock()

	for _, fn := range exit {
		fn()
	}
	for _, fn := range enter {
		fn()
	}
	return nil
}

func (sm *Machine) Current() Status {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.current
}

// Is reports whether the current status is any of the given ones.
func (sm *Machine) Is(statuses ...Status) bool {
	current := sm.Current()
	for _, s := range statuses {
		if s == current {
			return true
		}
	}
	return false
}
