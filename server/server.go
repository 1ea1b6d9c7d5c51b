package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/monitor"
	"github.com/wfunc/aliasgame/network"
	"github.com/wfunc/aliasgame/room"
	"github.com/wfunc/aliasgame/rpc"
	"github.com/wfunc/aliasgame/session"
)

const snapshotTimeout = 2 * time.Second

type Options struct {
	HTTPAddress     string
	RateLimit       float64
	RateBurst       int
	Heartbeat       time.Duration
	DisconnectGrace time.Duration
}

// Deps are built in main and shared with the rest of the process.
type Deps struct {
	Rooms     *room.Manager
	Sessions  *session.Manager
	Scheduler room.Scheduler
	Monitor   *monitor.Monitor
	RPC       *rpc.Server
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	scheduler      room.Scheduler
	monitor        *monitor.Monitor
	rpcServer      *rpc.Server
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(opts Options, deps Deps) *GameServer {
	return &GameServer{
		opts:           opts,
		roomManager:    deps.Rooms,
		sessionManager: deps.Sessions,
		scheduler:      deps.Scheduler,
		monitor:        deps.Monitor,
		rpcServer:      deps.RPC,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
}

// Router wires every HTTP endpoint.
func (s *GameServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.handleRoom).Methods(http.MethodGet)
	r.Handle("/metrics", s.monitor.Handler()).Methods(http.MethodGet)
	return r
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{
		Addr:              s.opts.HTTPAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting work and closes every open connection.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	s.sessionManager.CloseAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Debugf("write response: %v", err)
	}
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"rooms":        s.roomManager.Count(),
		"participants": s.roomManager.Occupancy(),
		"connections":  s.sessionManager.Count(),
	})
}

func (s *GameServer) handleRoom(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(mux.Vars(r)["code"])
	rm, err := s.roomManager.GetRoom(code)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()
	snap, err := rm.Snapshot(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.opts.Heartbeat > 0 {
		wsConn.SetHeartbeat(s.opts.Heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	if s.opts.RateLimit > 0 {
		sess.SetRateLimit(s.opts.RateLimit, s.opts.RateBurst)
	}
	s.sessionManager.Add(sess)
	s.monitor.IncConnections()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecConnections()
		s.scheduleLeave(sess.GetID(), sess.RoomID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// scheduleLeave removes the closed connection's participant once the grace
// period passes. A reload that rejoins in time holds a new id by then.
func (s *GameServer) scheduleLeave(sessionID, code string) {
	if code == "" {
		return
	}
	leave := func() {
		if rm, err := s.roomManager.GetRoom(code); err == nil {
			rm.Disconnect(sessionID)
		}
	}
	if s.opts.DisconnectGrace <= 0 || s.scheduler == nil {
		leave()
		return
	}
	s.scheduler.AddTimer(s.opts.DisconnectGrace, 0, leave)
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()
	s.monitor.IncMessagesReceived()
	sess.Touch()

	if packet.MsgID == network.MsgTypeHeartbeat {
		return
	}
	if !sess.Allow() {
		s.monitor.IncMessagesDropped("rate_limited")
		logger.Log.Debugf("session %s rate limited, dropping %d", sess.GetID(), packet.MsgID)
		return
	}

	switch {
	case packet.MsgID == network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess)
	case network.IsRoomIntent(packet.MsgID):
		s.routeIntent(sess, packet)
	default:
		s.monitor.IncMessagesDropped("unknown")
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session) {
	code, err := s.roomManager.CreateRoom()
	if err != nil {
		logger.Log.Warnf("Session %s could not create a room: %v", sess.GetID(), err)
		if noticeCode, message, ok := room.NoticeFor(err); ok {
			s.send(sess, network.MsgTypeError, room.Notice{Code: noticeCode, Message: message})
		}
		return
	}

	logger.Log.Infof("Session %s created room %s", sess.GetID(), code)
	s.send(sess, network.MsgTypeRoomCreated, room.RoomCreated{Code: code})
}

// routeIntent hands a packet to its room. The room comes from the payload's
// "room" field, else the session's current room; unknown rooms are ignored.
func (s *GameServer) routeIntent(sess *session.Session, packet *network.Packet) {
	var target struct {
		Room string `json:"room"`
	}
	// a malformed payload is still routed; the room rejects it
	_ = json.Unmarshal(packet.Data, &target)

	code := normalizeCode(target.Room)
	if code == "" {
		code = sess.RoomID()
	}
	rm, err := s.roomManager.GetRoom(code)
	if err != nil {
		s.monitor.IncMessagesDropped("no_room")
		logger.Log.Debugf("session %s: intent %d for unknown room %q", sess.GetID(), packet.MsgID, code)
		return
	}

	if network.IsJoinIntent(packet.MsgID) {
		if prev := sess.RoomID(); prev != "" && prev != code {
			if old, err := s.roomManager.GetRoom(prev); err == nil {
				old.Disconnect(sess.GetID())
			}
		}
		// join the broadcast group first so the join's own snapshot arrives
		sess.SetRoomID(code)
	}

	if !rm.Submit(sess.GetID(), packet.MsgID, packet.Data) {
		s.monitor.IncMessagesDropped("room_closed")
	}
}

func (s *GameServer) send(sess *session.Session, msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("marshal %d: %v", msgID, err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Debugf("send %d to %s: %v", msgID, sess.GetID(), err)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
