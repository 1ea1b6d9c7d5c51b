package room

import "errors"

var (
	ErrCapacityExceeded = errors.New("room capacity exceeded")
	ErrNotFound         = errors.New("room not found")
	ErrLocked           = errors.New("teams are locked")
	ErrUnauthorized     = errors.New("not allowed for this participant")
	ErrInvalidState     = errors.New("not allowed in the current room status")
	ErrInvalidName      = errors.New("display name is empty")
	ErrInvalidSetting   = errors.New("invalid setting")
	ErrInvalidIntent    = errors.New("malformed intent")
	ErrRoomClosed       = errors.New("room closed")
)

// NoticeFor returns the user-visible text for errors that are reported back to the
// requester. Every other rejection is silent.
func NoticeFor(err error) (code string, message string, ok bool) {
	switch {
	case errors.Is(err, ErrLocked):
		return "locked", "Teams are locked by the host.", true
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity", "The server is full, try again later.", true
	}
	return "", "", false
}
