package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/aliasgame/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent   []uint16
	closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) Close() error {
	m.closed = true
	return nil
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("test_session_1", &MockConnection{})

	manager.Add(sess)
	assert.Equal(t, 1, manager.Count())

	got, exists := manager.Get("test_session_1")
	require.True(t, exists)
	assert.Same(t, sess, got)

	manager.Remove("test_session_1")
	assert.Equal(t, 0, manager.Count())
	_, exists = manager.Get("test_session_1")
	assert.False(t, exists)
}

func TestManager_InRoom(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.SetRoomID("AB12")
	sess2 := NewSession("session2", &MockConnection{})
	sess2.SetRoomID("ZZ99")
	sess3 := NewSession("session3", &MockConnection{})
	sess3.SetRoomID("AB12")

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	assert.Len(t, manager.InRoom("AB12"), 2)
	assert.Len(t, manager.InRoom("ZZ99"), 1)
	assert.Empty(t, manager.InRoom("NONE"))
}

func TestSession_ClearRoomID(t *testing.T) {
	sess := NewSession("s", &MockConnection{})
	sess.SetRoomID("AB12")

	sess.ClearRoomID("OTHER")
	assert.Equal(t, "AB12", sess.RoomID())

	sess.ClearRoomID("AB12")
	assert.Equal(t, "", sess.RoomID())
}

func TestSession_RateLimit(t *testing.T) {
	sess := NewSession("s", &MockConnection{})
	assert.True(t, sess.Allow(), "unlimited session should always pass")

	sess.SetRateLimit(0.001, 2)
	assert.True(t, sess.Allow())
	assert.True(t, sess.Allow())
	assert.False(t, sess.Allow(), "burst exhausted")
}

func TestSession_SendTouches(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn)
	before := sess.LastActive()

	time.Sleep(time.Millisecond)
	require.NoError(t, sess.Send(network.MsgTypeTimerUpdate, []byte("1")))

	assert.Equal(t, []uint16{network.MsgTypeTimerUpdate}, conn.sent)
	assert.True(t, sess.LastActive().After(before))
}

func TestManager_CloseAll(t *testing.T) {
	manager := NewManager()
	a, b := &MockConnection{}, &MockConnection{}
	manager.Add(NewSession("a", a))
	manager.Add(NewSession("b", b))

	manager.CloseAll()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
