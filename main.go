package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/aliasgame/broadcast"
	"github.com/wfunc/aliasgame/config"
	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/monitor"
	"github.com/wfunc/aliasgame/persistence"
	"github.com/wfunc/aliasgame/room"
	"github.com/wfunc/aliasgame/rpc"
	"github.com/wfunc/aliasgame/server"
	"github.com/wfunc/aliasgame/services"
	"github.com/wfunc/aliasgame/session"
	"github.com/wfunc/aliasgame/timer"
	"github.com/wfunc/aliasgame/words"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level)
	defer logger.Log.Sync()

	// Initialize Database
	var db persistence.Database = persistence.NopDatabase{}
	if cfg.Database.Enabled {
		pg, err := persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Database connection successful.")
		db = pg
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.NewMonitor("alias")
	games := services.NewGameService(db)
	sessions := session.NewManager()
	scheduler := timer.NewTimerManager(timer.DefaultResolution)
	defer scheduler.Stop()

	rooms := room.NewRoomManager(ctx, room.ManagerConfig{
		MaxRooms:      cfg.Game.MaxRooms,
		DeleteGrace:   cfg.Game.RoomDeleteGrace,
		SweepSchedule: cfg.Game.SweepSchedule,
		Defaults: room.Settings{
			RoundDuration: cfg.Game.RoundDuration,
			WinningScore:  cfg.Game.WinningScore,
			Difficulty:    words.Difficulty(cfg.Game.Difficulty),
			TeamCount:     cfg.Game.TeamCount,
		}.Normalize(),
	}, room.ManagerDeps{
		Broadcaster:   broadcast.NewRoomBroadcaster(sessions),
		Scheduler:     scheduler,
		Recorder:      games,
		Observer:      mon,
		OnCountChange: mon.SetActiveRooms,
	})
	if err := rooms.StartSweeper(); err != nil {
		logger.Log.Fatalf("Invalid sweep schedule %q: %v", cfg.Game.SweepSchedule, err)
	}

	// 初始化RPC服务器
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpcServer.Register("Admin", rpc.NewAdmin(rooms, sessions, games)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(server.Options{
		HTTPAddress:     cfg.Server.HTTPAddress,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		Heartbeat:       cfg.Server.Heartbeat,
		DisconnectGrace: cfg.Game.DisconnectGrace,
	}, server.Deps{
		Rooms:     rooms,
		Sessions:  sessions,
		Scheduler: scheduler,
		Monitor:   mon,
		RPC:       rpcServer,
	})

	errs := make(chan error, 1)
	go func() { errs <- gameServer.Start() }()

	select {
	case err := <-errs:
		if err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		logger.Log.Info("Shutting down.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("HTTP shutdown: %v", err)
	}
	rooms.Stop()
	games.Wait()
}
