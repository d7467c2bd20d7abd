package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

// matchResponseWindow is how long a proposed match waits for an answer
// before the session layer files an implicit reject.
const matchResponseWindow = 30 * time.Second

// NetworkSession is the raw transport under a session. The websocket
// implementation lives in handlers.go; tests substitute their own.
type NetworkSession interface {
	Write(data []byte) error
	Ping() error
	Read() ([]byte, error)
	Close(reason string)
}

// ClientMessage is the envelope every inbound frame must carry.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wsSession struct {
	id      string
	conn    NetworkSession
	hub     *Hub
	outbox  chan []byte
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

// ServeSession registers a new session on the hub and runs its pumps. It
// returns when the connection dies.
func ServeSession(hub *Hub, conn NetworkSession) {
	s := &wsSession{
		id:      uuid.NewString(),
		conn:    conn,
		hub:     hub,
		outbox:  make(chan []byte, 256),
		limiter: rate.NewLimiter(10, 20),
		done:    make(chan struct{}),
	}
	hub.Connect(s)
	go s.writePump()
	s.readPump()
}

func (s *wsSession) ID() string {
	return s.id
}

// Send serializes and queues one packet. It never blocks the hub loop: a
// full outbox drops the packet and kills the connection instead.
func (s *wsSession) Send(p Packet) {
	data, err := json.Marshal(p)
	if err != nil {
		logger.Criticalf("Failed to encode packet %s: %v", p.Type, err)
		return
	}

	if p.Type == PacketMatchProposed {
		if proposed, ok := p.Data.(MatchProposedData); ok {
			matchID := proposed.MatchID
			time.AfterFunc(matchResponseWindow, func() {
				s.hub.ExpireMatch(matchID, s.id)
			})
		}
	}

	select {
	case s.outbox <- data:
	default:
		logger.Warningf("Session %s outbox full, closing", s.id)
		s.close()
	}
}

func (s *wsSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *wsSession) writePump() {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	defer s.conn.Close("")

	for {
		select {
		case <-s.done:
			return
		case data := <-s.outbox:
			if err := s.conn.Write(data); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		}
	}
}

func (s *wsSession) readPump() {
	defer func() {
		s.close()
		s.hub.Disconnect(s.id)
	}()

	for {
		data, err := s.conn.Read()
		if err != nil {
			return
		}
		if !s.limiter.Allow() {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debugf("Session %s sent an unreadable frame: %v", s.id, err)
			continue
		}
		s.dispatch(msg)
	}
}

// dispatch routes one client message onto the hub. Unknown types and
// malformed payloads are dropped.
func (s *wsSession) dispatch(msg ClientMessage) {
	switch msg.Type {
	case "register":
		var d struct {
			Name   string `json:"name"`
			Avatar string `json:"avatar"`
			XP     int    `json:"xp"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.Register(s.id, d.Name, d.Avatar, d.XP)
		}

	case "set_player_serial":
		var d struct {
			Serial string `json:"serial"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.BindSerial(s.id, d.Serial)
		}

	case "update_profile":
		var d struct {
			Name   string `json:"name"`
			Avatar string `json:"avatar"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.UpdateProfile(s.id, d.Name, d.Avatar)
		}

	case "delete_account":
		s.hub.DeleteAccount(s.id)

	case "get_top_players":
		s.hub.GetTopPlayers(s.id)

	case "get_player_data":
		var d struct {
			Serial string `json:"serial"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.GetPlayerData(s.id, d.Serial)
		}

	case "find_random_match":
		var d struct {
			Age    int `json:"age"`
			Streak int `json:"streak"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.FindMatch(s.id, d.Age, d.Streak)
		}

	case "cancel_random_match":
		s.hub.CancelMatch(s.id)

	case "respond_to_match":
		var d struct {
			MatchID  string `json:"matchId"`
			Response string `json:"response"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.RespondToMatch(s.id, d.MatchID, d.Response)
		}

	case "join_room":
		var d struct {
			RoomID string `json:"roomId"`
			Age    int    `json:"age"`
			Streak int    `json:"streak"`
		}
		if json.Unmarshal(msg.Data, &d) == nil && d.RoomID != "" {
			s.hub.JoinRoom(s.id, d.RoomID, d.Age, d.Streak)
		}

	case "leave_room":
		var d struct {
			RoomID string `json:"roomId"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.LeaveRoom(s.id, d.RoomID)
		}

	case "select_category":
		var d struct {
			RoomID   string `json:"roomId"`
			Category string `json:"category"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.SelectCategory(s.id, d.RoomID, d.Category)
		}

	case "start_game":
		var d struct {
			RoomID string `json:"roomId"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.StartGame(s.id, d.RoomID)
		}

	case "submit_guess":
		var d struct {
			RoomID string `json:"roomId"`
			Guess  string `json:"guess"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.SubmitGuess(s.id, d.RoomID, d.Guess)
		}

	case "use_card":
		var d struct {
			RoomID   string `json:"roomId"`
			CardType string `json:"cardType"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.UseAbility(s.id, d.RoomID, d.CardType)
		}

	case "submit_quick_guess":
		var d struct {
			RoomID string `json:"roomId"`
			Guess  string `json:"guess"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.SubmitQuickGuess(s.id, d.RoomID, d.Guess)
		}

	case "cancel_quick_guess":
		var d struct {
			RoomID string `json:"roomId"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.CancelQuickGuess(s.id, d.RoomID)
		}

	case "play_again":
		var d struct {
			RoomID string `json:"roomId"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.PlayAgain(s.id, d.RoomID)
		}

	case "chat_message":
		var d struct {
			RoomID string `json:"roomId"`
			Text   string `json:"text"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.Chat(s.id, d.RoomID, d.Text)
		}

	case "send_emote":
		var d struct {
			RoomID string `json:"roomId"`
			Emote  string `json:"emote"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.Emote(s.id, d.RoomID, d.Emote)
		}

	case "toggle_mute":
		var d struct {
			RoomID  string `json:"roomId"`
			IsMuted bool   `json:"isMuted"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.ToggleMute(s.id, d.RoomID, d.IsMuted)
		}

	case "report_player":
		var d struct {
			RoomID           string `json:"roomId"`
			ReportedPlayerID string `json:"reportedPlayerId"`
			Reason           string `json:"reason"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.ReportPlayer(s.id, d.RoomID, d.ReportedPlayerID, d.Reason)
		}

	case "admin_get_players":
		s.hub.AdminGetPlayers(s.id)

	case "admin_get_reports":
		s.hub.AdminGetReports(s.id)

	case "admin_delete_player":
		var d struct {
			Serial string `json:"serial"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.AdminDeletePlayer(s.id, d.Serial)
		}

	case "admin_update_player":
		var d struct {
			Serial string `json:"serial"`
			Name   string `json:"name"`
			Avatar string `json:"avatar"`
			XP     *int   `json:"xp"`
			Wins   *int   `json:"wins"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			xp, wins := -1, -1
			if d.XP != nil {
				xp = *d.XP
			}
			if d.Wins != nil {
				wins = *d.Wins
			}
			s.hub.AdminUpdatePlayer(s.id, d.Serial, d.Name, d.Avatar, xp, wins)
		}

	case "admin_set_admin":
		var d struct {
			Serial  string `json:"serial"`
			IsAdmin bool   `json:"isAdmin"`
		}
		if json.Unmarshal(msg.Data, &d) == nil {
			s.hub.AdminSetAdmin(s.id, d.Serial, d.IsAdmin)
		}

	default:
		logger.Debugf("Session %s sent unknown message type %q", s.id, msg.Type)
	}
}
