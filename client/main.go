// Command client is a console client for poking at a running server.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/aliasgame/logger"
	"github.com/wfunc/aliasgame/network"
)

const heartbeatInterval = 10 * time.Second

var errUsage = errors.New("usage")

var msgNames = map[uint16]string{
	network.MsgTypeRoomCreated:  "room-created",
	network.MsgTypeRoomSnapshot: "snapshot",
	network.MsgTypeWordDelivery: "word",
	network.MsgTypeLedgerUpdate: "ledger",
	network.MsgTypeTimerUpdate:  "timer",
	network.MsgTypeScoreUpdate:  "scores",
	network.MsgTypeKicked:       "kicked",
	network.MsgTypeError:        "error",
}

const help = `commands:
  create                  create a room
  join CODE NAME          join a room as spectator (or reconnect)
  team N                  join team N
  spectate                move to spectators
  start | confirm | restart | lock | shuffle | pause
  next c|r                confirm or reject the current word
  toggle I                cycle ledger entry I
  kick ID | host ID | explainer ID
  set KEY VALUE           e.g. set roundDuration 90
  quit`

// console remembers the display name so later commands can reuse it.
type console struct {
	name string
}

// parse turns one input line into a packet.
func (c *console) parse(line string) (uint16, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errUsage
	}
	args := fields[1:]

	switch fields[0] {
	case "create":
		return network.MsgTypeCreateRoom, []byte("{}"), nil
	case "join":
		if len(args) < 2 {
			return 0, nil, errUsage
		}
		c.name = strings.Join(args[1:], " ")
		return encode(network.MsgTypeJoinRoom, map[string]any{"room": args[0], "name": c.name})
	case "team":
		if len(args) != 1 {
			return 0, nil, errUsage
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, nil, errUsage
		}
		return encode(network.MsgTypeJoinTeam, map[string]any{"name": c.name, "teamIndex": n})
	case "spectate":
		return encode(network.MsgTypeJoinSpectators, map[string]any{"name": c.name})
	case "start":
		return network.MsgTypeRequestStart, []byte("{}"), nil
	case "next":
		if len(args) != 1 {
			return 0, nil, errUsage
		}
		outcome := map[string]string{"c": "confirmed", "r": "rejected"}[args[0]]
		if outcome == "" {
			return 0, nil, errUsage
		}
		return encode(network.MsgTypeNextWord, map[string]any{"outcome": outcome})
	case "toggle":
		if len(args) != 1 {
			return 0, nil, errUsage
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, nil, errUsage
		}
		return encode(network.MsgTypeToggleWordStatus, map[string]any{"index": i})
	case "confirm":
		return network.MsgTypeConfirmResults, []byte("{}"), nil
	case "restart":
		return network.MsgTypeRestartGame, []byte("{}"), nil
	case "lock":
		return network.MsgTypeToggleLock, []byte("{}"), nil
	case "shuffle":
		return network.MsgTypeShuffleTeams, []byte("{}"), nil
	case "pause":
		return network.MsgTypeTogglePause, []byte("{}"), nil
	case "kick", "host", "explainer":
		if len(args) != 1 {
			return 0, nil, errUsage
		}
		msgID := map[string]uint16{
			"kick":      network.MsgTypeKickPlayer,
			"host":      network.MsgTypeTransferHost,
			"explainer": network.MsgTypeSetExplainer,
		}[fields[0]]
		return encode(msgID, map[string]any{"targetId": args[0]})
	case "set":
		if len(args) != 2 {
			return 0, nil, errUsage
		}
		value := json.RawMessage(args[1])
		if !json.Valid(value) {
			value, _ = json.Marshal(args[1])
		}
		return encode(network.MsgTypeUpdateSettings, map[string]any{"key": args[0], "value": value})
	}
	return 0, nil, errUsage
}

func encode(msgID uint16, v any) (uint16, []byte, error) {
	data, err := json.Marshal(v)
	return msgID, data, err
}

func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	flag.Parse()
	logger.Init("info")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			packet, err := network.Decode(message)
			if err != nil {
				logger.Log.Warnf("Received invalid packet of size %d", len(message))
				continue
			}
			name, ok := msgNames[packet.MsgID]
			if !ok {
				name = strconv.Itoa(int(packet.MsgID))
			}
			fmt.Printf("<- %s %s\n", name, packet.Data)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	fmt.Println(help)
	con := &console{}
	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				logger.Log.Infof("Write error: %v", err)
				return
			}
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				closeConn(c, done)
				return
			}
			msgID, data, err := con.parse(line)
			if err != nil {
				fmt.Println(help)
				continue
			}
			if err := send(c, msgID, data); err != nil {
				logger.Log.Infof("Write error: %v", err)
				return
			}
		case <-interrupt:
			logger.Log.Info("Interrupt received, closing connection.")
			closeConn(c, done)
			return
		}
	}
}

func closeConn(c *websocket.Conn, done chan struct{}) {
	err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		logger.Log.Infof("Write close error: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
