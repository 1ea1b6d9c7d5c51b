package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/models"
)

const archiveTimeout = 3 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server listening on addr.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes rcvr's methods under name.
func (s *Server) Register(name string, rcvr any) error {
	return s.rpc.RegisterName(name, rcvr)
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomStats is satisfied by room.Manager.
type RoomStats interface {
	Count() int
	Occupancy() int
}

// ConnectionStats is satisfied by session.Manager.
type ConnectionStats interface {
	Count() int
}

// Archive is satisfied by services.GameService.
type Archive interface {
	RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error)
	LastGame(ctx context.Context, roomCode string) (*models.GameRecord, error)
}

// Admin is the struct that exposes RPC methods. Every method follows the
// net/rpc signature: exported args, pointer reply, error result.
type Admin struct {
	rooms       RoomStats
	connections ConnectionStats
	archive     Archive
	startTime   time.Time
}

func NewAdmin(rooms RoomStats, connections ConnectionStats, archive Archive) *Admin {
	return &Admin{
		rooms:       rooms,
		connections: connections,
		archive:     archive,
		startTime:   time.Now(),
	}
}

// StatsArgs names the caller for the log; gob cannot encode an empty struct.
type StatsArgs struct {
	Caller string
}

type StatsReply struct {
	Rooms         int
	Participants  int
	Connections   int
	UptimeSeconds int64
}

func (a *Admin) Stats(args *StatsArgs, reply *StatsReply) error {
	logger.Log.Debugf("admin stats requested by %q", args.Caller)
	reply.Rooms = a.rooms.Count()
	reply.Participants = a.rooms.Occupancy()
	reply.Connections = a.connections.Count()
	reply.UptimeSeconds = int64(time.Since(a.startTime).Seconds())
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

func (a *Admin) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	games, err := a.archive.RecentGames(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}

type LastGameArgs struct {
	RoomCode string
}

type LastGameReply struct {
	Game models.GameRecord
}

func (a *Admin) LastGame(args *LastGameArgs, reply *LastGameReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	game, err := a.archive.LastGame(ctx, args.RoomCode)
	if err != nil {
		return err
	}
	reply.Game = *game
	return nil
}
