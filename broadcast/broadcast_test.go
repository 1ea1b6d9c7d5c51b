package broadcast

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/session"
)

type recordingConnection struct {
	sent []uint16
}

func (c *recordingConnection) Send(msgID uint16, data []byte) error {
	c.sent = append(c.sent, msgID)
	return nil
}
func (c *recordingConnection) Close() error                         { return nil }
func (c *recordingConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConnection) SetHeartbeat(interval time.Duration)  {}
func (c *recordingConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func newMember(m *session.Manager, id, room string) *recordingConnection {
	conn := &recordingConnection{}
	s := session.NewSession(id, conn)
	s.SetRoomID(room)
	m.Add(s)
	return conn
}

func TestBroadcastToRoom_OnlyReachesGroup(t *testing.T) {
	manager := session.NewManager()
	a := newMember(manager, "a", "AB12")
	b := newMember(manager, "b", "AB12")
	other := newMember(manager, "c", "ZZ99")

	bc := NewRoomBroadcaster(manager)
	assert.NoError(t, bc.BroadcastToRoom("AB12", network.MsgTypeTimerUpdate, []byte("5")))

	assert.Equal(t, []uint16{network.MsgTypeTimerUpdate}, a.sent)
	assert.Equal(t, []uint16{network.MsgTypeTimerUpdate}, b.sent)
	assert.Empty(t, other.sent)
}

func TestSendToSession(t *testing.T) {
	manager := session.NewManager()
	a := newMember(manager, "a", "AB12")
	bc := NewRoomBroadcaster(manager)

	assert.NoError(t, bc.SendToSession("a", network.MsgTypeWordDelivery, []byte("{}")))
	assert.Equal(t, []uint16{network.MsgTypeWordDelivery}, a.sent)

	assert.ErrorIs(t, bc.SendToSession("missing", network.MsgTypeKicked, nil), ErrSessionNotFound)
}

func TestLeaveGroup(t *testing.T) {
	manager := session.NewManager()
	a := newMember(manager, "a", "AB12")
	bc := NewRoomBroadcaster(manager)

	bc.LeaveGroup("AB12", "a")
	assert.NoError(t, bc.BroadcastToRoom("AB12", network.MsgTypeRoomSnapshot, []byte("{}")))
	assert.Empty(t, a.sent)
}
