// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// RoomBroadcaster delivers packets to a room's membership group: every live session
// whose current room is the target code. Delivery is fire-and-forget.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.InRoom(roomID) {
		if err := s.Send(msgID, data); err != nil {
			// the next snapshot or a reconnect resynchronises this client
			logger.Log.Debugf("broadcast to session %s in room %s failed: %v", s.GetID(), roomID, err)
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	s, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(msgID, data)
}

// LeaveGroup stops room broadcasts from reaching sessionID.
func (b *RoomBroadcaster) LeaveGroup(roomID, sessionID string) {
	if s, exists := b.sessionManager.Get(sessionID); exists {
		s.ClearRoomID(roomID)
	}
}
