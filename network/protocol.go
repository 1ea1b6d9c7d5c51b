package network

// Inbound intents.
const (
	MsgTypeHeartbeat        = 1
	MsgTypeJoinRoom         = 101
	MsgTypeCreateRoom       = 103
	MsgTypeJoinTeam         = 104
	MsgTypeJoinSpectators   = 105
	MsgTypeRequestStart     = 201
	MsgTypeNextWord         = 202
	MsgTypeToggleWordStatus = 203
	MsgTypeConfirmResults   = 204
	MsgTypeRestartGame      = 205
	MsgTypeToggleLock       = 210
	MsgTypeShuffleTeams     = 211
	MsgTypeTogglePause      = 212
	MsgTypeKickPlayer       = 213
	MsgTypeTransferHost     = 214
	MsgTypeSetExplainer     = 215
	MsgTypeUpdateSettings   = 216
)

// Outbound notifications.
const (
	MsgTypeRoomCreated  = 301
	MsgTypeRoomSnapshot = 302
	MsgTypeWordDelivery = 303
	MsgTypeLedgerUpdate = 304
	MsgTypeTimerUpdate  = 305
	MsgTypeScoreUpdate  = 306
	MsgTypeKicked       = 307
	MsgTypeError        = 308
)

// IsRoomIntent reports whether msgID is a client intent addressed to an existing room.
func IsRoomIntent(msgID uint16) bool {
	switch msgID {
	case MsgTypeJoinRoom, MsgTypeJoinTeam, MsgTypeJoinSpectators,
		MsgTypeRequestStart, MsgTypeNextWord, MsgTypeToggleWordStatus,
		MsgTypeConfirmResults, MsgTypeRestartGame, MsgTypeToggleLock,
		MsgTypeShuffleTeams, MsgTypeTogglePause, MsgTypeKickPlayer,
		MsgTypeTransferHost, MsgTypeSetExplainer, MsgTypeUpdateSettings:
		return true
	}
	return false
}

// IsJoinIntent reports whether msgID makes the sender a member of the room's broadcast group.
func IsJoinIntent(msgID uint16) bool {
	return msgID == MsgTypeJoinRoom || msgID == MsgTypeJoinTeam || msgID == MsgTypeJoinSpectators
}
