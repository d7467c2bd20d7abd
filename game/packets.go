package game

import "github.com/adhamsabryco-maker/khamin-Takhmina/domain"

// Packet is one outbound notification. The transport layer is only trusted
// to deliver packets to a session id; everything else stays in the core.
type Packet struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Session is an addressable connected client. Implementations must not
// block in Send; the core calls it from its event loop.
type Session interface {
	ID() string
	Send(p Packet)
}

const (
	PacketOnlineCount       = "online_count"
	PacketTopPlayersUpdate  = "top_players_update"
	PacketTopPlayers        = "top_players"
	PacketPlayerData        = "player_data"
	PacketPlayerDataUpdate  = "player_data_update"
	PacketRegistered        = "registered"
	PacketProfileUpdated    = "profile_updated"
	PacketAccountDeleted    = "account_deleted"
	PacketRoomUpdate        = "room_update"
	PacketTimerUpdate       = "timer_update"
	PacketQuickGuessTimer   = "quick_guess_timer_update"
	PacketQuickGuessStarted = "quick_guess_started"
	PacketFreezeStarted     = "freeze_started"
	PacketFreezeTimer       = "freeze_timer_update"
	PacketFreezeEnded       = "freeze_ended"
	PacketGuessResult       = "guess_result"
	PacketHintReceived      = "hint_received"
	PacketWordLengthResult  = "word_length_result"
	PacketSpyLensActive     = "spy_lens_active"
	PacketWaitingForMatch   = "waiting_for_match"
	PacketMatchProposed     = "match_proposed"
	PacketMatchRejected     = "match_rejected"
	PacketRandomMatchFound  = "random_match_found"
	PacketBannedStatus      = "banned_status"
	PacketAuthError         = "auth_error"
	PacketGameStarted       = "game_started"
	PacketGameStopped       = "game_stopped"
	PacketGameFinished      = "game_finished"
	PacketOpponentLeft      = "opponent_left_lobby"
	PacketChatBubble        = "chat_bubble"
	PacketEmoteReceived     = "emote_received"
	PacketOpponentMutedYou  = "opponent_muted_you"
	PacketReportResult      = "report_result"
	PacketAdminPlayers      = "admin_players"
	PacketAdminReports      = "admin_reports"
	PacketAdminResult       = "admin_result"
	PacketError             = "error"
)

// OpponentPreview is the public profile shown in a match proposal.
type OpponentPreview struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Age    int    `json:"age"`
	Level  int    `json:"level"`
}

type MatchProposedData struct {
	MatchID  string          `json:"matchId"`
	Opponent OpponentPreview `json:"opponent"`
}

type BannedStatusData struct {
	BanUntil    int64 `json:"banUntil,omitempty"`
	IsPermanent bool  `json:"isPermanent"`
}

type GuessResultData struct {
	PlayerID string `json:"playerId"`
	Correct  bool   `json:"correct"`
}

type HintData struct {
	Hint  string `json:"hint"`
	Count int    `json:"count"`
}

type GameStoppedData struct {
	Reason string `json:"reason"`
}

type ChatBubbleData struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

type EmoteData struct {
	SenderID string `json:"senderId"`
	Emote    string `json:"emote"`
}

// ResultDelta is the per-player outcome reported on game end.
type ResultDelta struct {
	XP     int  `json:"xp"`
	Streak int  `json:"streak"`
	Wins   int  `json:"wins"`
	Won    bool `json:"won"`
}

type GameFinishedData struct {
	Room     *Room                  `json:"room"`
	WinnerID string                 `json:"winnerId,omitempty"`
	Updates  map[string]ResultDelta `json:"updates"`
}

type ReportResultData struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RankedPlayer is a directory record with its leaderboard position.
type RankedPlayer struct {
	domain.Player
	Rank int `json:"rank"`
}
