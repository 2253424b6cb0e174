package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/scorekeeper/network"
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// parse turns one input line into a request.
func parse(line string) (uint16, any, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, false
	}
	args := fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch fields[0] {
	case "presets":
		return network.MsgTypeListPresets, nil, true
	case "sessions":
		return network.MsgTypeListSessions, nil, true
	case "create":
		return network.MsgTypeCreateSession, network.CreateSessionRequest{PresetID: arg(0), Names: args[min(1, len(args)):]}, true
	case "delete":
		return network.MsgTypeDeleteSession, network.DeleteSessionsRequest{SessionIDs: args}, true
	case "clear":
		return network.MsgTypeClearSessions, nil, true
	case "watch":
		return network.MsgTypeWatchSession, network.SessionRequest{SessionID: arg(0)}, true
	case "unwatch":
		return network.MsgTypeUnwatch, network.SessionRequest{SessionID: arg(0)}, true
	case "next":
		return network.MsgTypeNextRound, network.SessionRequest{SessionID: arg(0)}, true
	case "prev":
		return network.MsgTypePrevRound, network.SessionRequest{SessionID: arg(0)}, true
	case "reset":
		return network.MsgTypeResetScores, network.SessionRequest{SessionID: arg(0)}, true
	case "score":
		option, _ := strconv.Atoi(arg(2))
		return network.MsgTypeApplyScore, network.ApplyScoreRequest{SessionID: arg(0), PlayerID: arg(1), OptionIndex: option}, true
	case "add":
		return network.MsgTypeAddPlayer, network.SessionRequest{SessionID: arg(0)}, true
	case "remove":
		return network.MsgTypeRemovePlayer, network.PlayerRequest{SessionID: arg(0), PlayerID: arg(1)}, true
	case "rename":
		return network.MsgTypeRenamePlayer, network.PlayerRequest{SessionID: arg(0), PlayerID: arg(1), Name: strings.Join(args[min(2, len(args)):], " ")}, true
	case "settings":
		return network.MsgTypeGetSettings, nil, true
	case "sound", "vibration":
		on := arg(0) == "on"
		return network.MsgTypeUpdateSettings, map[string]bool{fields[0] + "_enabled": on}, true
	case "stats":
		return network.MsgTypeGetStatistics, nil, true
	case "reset-stats":
		return network.MsgTypeResetStatistics, nil, true
	}
	return 0, nil, false
}

func main() {
	addr := flag.String("addr", "localhost:8080", "score server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- RECV (ID: %d): %s", packet.MsgID, string(packet.Data))
		}
	}()

	// Keep the connection alive
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
					return
				}
			}
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

	log.Println("Client started. Try 'presets', 'create chess Alice Bob', 'score <session> <player> <option>'.")

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgID, req, ok := parse(line)
			if !ok {
				log.Printf("Unknown command %q", strings.TrimSpace(line))
				continue
			}
			if err := send(c, msgID, req); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT (ID: %d)", msgID)
		}
	}
}
