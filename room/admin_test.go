package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/words"
)

func TestToggleLock_HostOnly(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)

	assert.ErrorIs(t, f.room.ToggleLock("b1"), ErrUnauthorized)
	require.NoError(t, f.room.ToggleLock("a1"))
	assert.True(t, f.room.isLocked)
	require.NoError(t, f.room.ToggleLock("a1"))
	assert.False(t, f.room.isLocked)
}

func TestShuffleTeams_DealsEvenly(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave", "Eve"} {
		f.seat(t, name, name, 0)
	}
	f.room.teams[0].NextExplainerIndex = 3

	require.NoError(t, f.room.ShuffleTeams("Alice"))

	assert.Len(t, f.room.teams[0].Roster, 3)
	assert.Len(t, f.room.teams[1].Roster, 2)
	assert.Equal(t, 0, f.room.teams[0].NextExplainerIndex)
	assert.Equal(t, 5, f.room.Occupancy())
}

func TestShuffleTeams_Rejections(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)

	assert.ErrorIs(t, f.room.ShuffleTeams("b1"), ErrUnauthorized)

	require.NoError(t, f.room.ToggleLock("a1"))
	err := f.room.HandleIntent("a1", network.MsgTypeShuffleTeams, nil)
	assert.ErrorIs(t, err, ErrLocked)
	var notice Notice
	assert.True(t, f.bc.lastTo(t, "a1", network.MsgTypeError, &notice))
}

func TestKickPlayer_Rules(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	require.NoError(t, f.room.JoinRoom("s1", "Sam"))

	assert.ErrorIs(t, f.room.KickPlayer("s1", "a1"), ErrUnauthorized)
	assert.ErrorIs(t, f.room.KickPlayer("a1", "a1"), ErrInvalidIntent)
	assert.ErrorIs(t, f.room.KickPlayer("a1", "nobody"), ErrInvalidIntent)

	require.NoError(t, f.room.KickPlayer("a1", "s1"))
	assert.Empty(t, f.room.spectators)
	assert.Equal(t, 1, f.room.Occupancy())
	assert.Equal(t, 1, f.bc.count(network.MsgTypeKicked))
}

func TestTransferHost(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)

	require.NoError(t, f.room.TransferHost("a1", "b1"))
	assert.Equal(t, "b1", f.room.hostID)
	assert.ErrorIs(t, f.room.TransferHost("a1", "b1"), ErrUnauthorized)
	assert.ErrorIs(t, f.room.TransferHost("b1", ""), ErrInvalidIntent)
}

func TestSetExplainer_InLobbyPicksTeamAndCursor(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)
	f.seat(t, "c1", "Carol", 1)

	require.NoError(t, f.room.SetExplainer("a1", "c1"))

	assert.Equal(t, 1, f.room.currentTeamIndex)
	assert.Equal(t, 1, f.room.teams[1].NextExplainerIndex)
	assert.Equal(t, "c1", f.room.nextExplainerID())
	assert.Equal(t, "", f.room.activeExplainerID)
	assert.ErrorIs(t, f.room.SetExplainer("a1", "ghost"), ErrInvalidIntent)
}

func TestSetExplainer_RejectedInReview(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 0)
	require.NoError(t, f.room.RequestStart("a1"))
	f.expire(t)

	assert.ErrorIs(t, f.room.SetExplainer("a1", "b1"), ErrInvalidState)
}

func TestUpdateSettings_Values(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)

	require.NoError(t, f.room.UpdateSettings("a1", SettingRoundDuration, json.RawMessage(`90`)))
	assert.Equal(t, 90, f.room.settings.RoundDuration)
	assert.Equal(t, 90, f.room.remainingSeconds)

	assert.ErrorIs(t, f.room.UpdateSettings("a1", SettingRoundDuration, json.RawMessage(`5`)), ErrInvalidSetting)
	assert.ErrorIs(t, f.room.UpdateSettings("a1", SettingWinningScore, json.RawMessage(`"ten"`)), ErrInvalidSetting)
	assert.ErrorIs(t, f.room.UpdateSettings("a1", SettingDifficulty, json.RawMessage(`"brutal"`)), ErrInvalidSetting)
	assert.ErrorIs(t, f.room.UpdateSettings("a1", "colour", json.RawMessage(`1`)), ErrInvalidSetting)

	f.room.deck = []string{"left", "over"}
	require.NoError(t, f.room.UpdateSettings("a1", SettingDifficulty, json.RawMessage(`"hard"`)))
	assert.Equal(t, words.Hard, f.room.settings.Difficulty)
	assert.Nil(t, f.room.deck)

	var snap Snapshot
	require.True(t, f.bc.lastBroadcast(t, network.MsgTypeRoomSnapshot, &snap))
	assert.Equal(t, words.Hard, snap.Settings.Difficulty)
}

func TestUpdateSettings_HostOnly(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)

	assert.ErrorIs(t, f.room.UpdateSettings("b1", SettingWinningScore, json.RawMessage(`50`)), ErrUnauthorized)
	assert.Equal(t, 30, f.room.settings.WinningScore)
}

func TestUpdateSettings_TeamCount(t *testing.T) {
	f := newFixture(t)
	f.seat(t, "a1", "Alice", 0)
	f.seat(t, "b1", "Bob", 1)

	require.NoError(t, f.room.UpdateSettings("a1", SettingTeamCount, json.RawMessage(`4`)))
	require.Len(t, f.room.teams, 4)
	assert.Equal(t, "Yellow Bees", f.room.teams[3].Name)

	f.room.currentTeamIndex = 3
	require.NoError(t, f.room.UpdateSettings("a1", SettingTeamCount, json.RawMessage(`1`)))
	require.Len(t, f.room.teams, 1)
	assert.Equal(t, 0, f.room.currentTeamIndex)
	require.Len(t, f.room.spectators, 1)
	assert.Equal(t, "Bob", f.room.spectators[0].Name)
	assert.Equal(t, 2, f.room.Occupancy())

	assert.ErrorIs(t, f.room.UpdateSettings("a1", SettingTeamCount, json.RawMessage(`0`)), ErrInvalidSetting)

	require.NoError(t, f.room.RequestStart("a1"))
	assert.ErrorIs(t, f.room.UpdateSettings("a1", SettingTeamCount, json.RawMessage(`2`)), ErrInvalidState)
}

func TestHandleIntent_UnknownAndMalformed(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.room.HandleIntent("a1", 9999, nil), ErrInvalidIntent)
	assert.ErrorIs(t, f.room.HandleIntent("a1", network.MsgTypeJoinTeam, []byte(`{`)), ErrInvalidIntent)
	assert.Equal(t, 0, f.bc.count(network.MsgTypeError))

	require.NoError(t, f.room.HandleIntent("a1", network.MsgTypeJoinRoom, []byte(`{"room":"AB12","name":"Alice"}`)))
	assert.Equal(t, "a1", f.room.hostID)
}
