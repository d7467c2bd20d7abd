package game

import (
	"fmt"
	"math/rand"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

const (
	StateWaiting    = "waiting"
	StateDiscussion = "discussion"
	StateGuessing   = "guessing"
	StateFinished   = "finished"
)

const (
	lobbyDuration      = 60  // seconds to agree on a category
	discussionDuration = 300 // seconds of open discussion
	guessingDuration   = 30  // seconds of the final guessing window
	quickGuessWindow   = 60  // private answer window while the room is paused
	freezeDuration     = 60  // ticks the main timer stands still
	maxHints           = 2
	initialScore       = 1000
	correctGuessScore  = 500
	winnerBaseXP       = 100
	winnerStreakXP     = 10
	loserXP            = 20
)

// RoomPlayer is the in-room copy of a player, created at join time and
// resynced from the directory record, which stays the source of truth for
// xp/wins/reports.
type RoomPlayer struct {
	ID               string              `json:"id"`
	Serial           string              `json:"serial"`
	Name             string              `json:"name"`
	Age              int                 `json:"age"`
	Avatar           string              `json:"avatar"`
	Score            int                 `json:"score"`
	TargetImage      *CategoryItem       `json:"targetImage"`
	IsMuted          bool                `json:"isMuted"`
	HasGuessed       bool                `json:"hasGuessed"`
	SelectedCategory string              `json:"selectedCategory,omitempty"`
	HintCount        int                 `json:"hintCount"`
	QuickGuessUsed   bool                `json:"quickGuessUsed"`
	WordLengthUsed   bool                `json:"wordLengthUsed"`
	TimeFreezeUsed   bool                `json:"timeFreezeUsed"`
	SpyLensUsed      bool                `json:"spyLensUsed"`
	Reported         bool                `json:"reported"`
	XP               int                 `json:"xp"`
	Streak           int                 `json:"streak"`
	Wins             int                 `json:"wins"`
	Reports          int                 `json:"reports"`
	ReportedBy       []domain.ReportMark `json:"reportedBy"`

	session Session
}

// Room is one two-player match. A room owns at most one live countdown;
// (re)arming it replaces the previous one, and the hub's single ticker is
// the only thing that ever advances it.
type Room struct {
	ID              string        `json:"id"`
	Players         []*RoomPlayer `json:"players"`
	GameState       string        `json:"gameState"`
	Timer           int           `json:"timer"`
	Category        string        `json:"category"`
	IsPaused        bool          `json:"isPaused"`
	PausingPlayerID string        `json:"pausingPlayerId,omitempty"`
	QuickGuessTimer int           `json:"quickGuessTimer"`
	IsFrozen        bool          `json:"isFrozen"`
	FreezeTimer     int           `json:"freezeTimer"`
	WinnerID        string        `json:"winnerId,omitempty"`

	hub     *Hub
	timerOn bool
}

func newRoom(id string, hub *Hub) *Room {
	return &Room{
		ID:        id,
		GameState: StateWaiting,
		Timer:     lobbyDuration,
		Category:  "people",
		hub:       hub,
	}
}

func (r *Room) broadcast(p Packet) {
	for _, player := range r.Players {
		if player.session != nil {
			player.session.Send(p)
		}
	}
}

func (r *Room) playerByID(id string) *RoomPlayer {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) opponentOf(id string) *RoomPlayer {
	for _, p := range r.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// startLobbyTimer arms the category-agreement countdown.
func (r *Room) startLobbyTimer() {
	r.Timer = lobbyDuration
	r.timerOn = true
}

func (r *Room) selectCategory(sessionID, category string) {
	if r.GameState != StateWaiting {
		return
	}
	player := r.playerByID(sessionID)
	if player == nil {
		return
	}
	player.SelectedCategory = category

	if len(r.Players) == 2 {
		agreed := true
		for _, p := range r.Players {
			if p.SelectedCategory != category {
				agreed = false
				break
			}
		}
		if agreed {
			r.Category = category
		}
	}
	r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
}

func (r *Room) requestStart() {
	if r.GameState != StateWaiting || len(r.Players) != 2 {
		return
	}
	p1, p2 := r.Players[0], r.Players[1]
	if p1.SelectedCategory == "" || p1.SelectedCategory != p2.SelectedCategory {
		return
	}
	r.startGame()
}

// startGame assigns each player an opponent-visible target from the agreed
// category and enters the discussion phase. With a pool smaller than two
// the second target may repeat; that edge is accepted.
func (r *Room) startGame() {
	pool, ok := categories[r.Category]
	if !ok || len(pool) == 0 {
		logger.Criticalf("[Room %s] Category %q has no item pool", r.ID, r.Category)
		return
	}

	shuffled := make([]CategoryItem, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, player := range r.Players {
		target := shuffled[i%len(shuffled)]
		player.TargetImage = &target
		player.HasGuessed = false
		player.HintCount = 0
		player.QuickGuessUsed = false
		player.WordLengthUsed = false
		player.TimeFreezeUsed = false
		player.SpyLensUsed = false
	}

	r.GameState = StateDiscussion
	r.Timer = discussionDuration
	r.IsPaused = false
	r.PausingPlayerID = ""
	r.QuickGuessTimer = 0
	r.timerOn = true

	logger.Infof("[Room %s] Game started, category %s", r.ID, r.Category)
	r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
	r.broadcast(Packet{Type: PacketGameStarted})
}

// tick advances the room's countdown by one second. Priority: a quick-guess
// pause stalls everything, a freeze stalls only the phase timer.
func (r *Room) tick() {
	if !r.timerOn {
		return
	}

	if r.GameState == StateWaiting {
		if r.Timer > 0 {
			r.Timer--
			r.broadcast(Packet{Type: PacketTimerUpdate, Data: r.Timer})
			return
		}
		r.timerOn = false
		r.broadcast(Packet{Type: PacketGameStopped, Data: GameStoppedData{Reason: "انتهى الوقت! لم يتم الاتفاق على فئة."}})
		r.hub.removeRoom(r.ID)
		return
	}

	if r.GameState == StateFinished {
		r.timerOn = false
		return
	}

	if r.IsPaused {
		if r.QuickGuessTimer > 0 {
			r.QuickGuessTimer--
		}
		if r.QuickGuessTimer <= 0 {
			// The private window lapsed; the pausing player loses.
			r.IsPaused = false
			pausingID := r.PausingPlayerID
			r.PausingPlayerID = ""
			r.endGame(r.opponentOf(pausingID))
			return
		}
		r.broadcast(Packet{Type: PacketQuickGuessTimer, Data: r.QuickGuessTimer})
		return
	}

	if r.IsFrozen {
		if r.FreezeTimer > 0 {
			r.FreezeTimer--
			r.broadcast(Packet{Type: PacketFreezeTimer, Data: r.FreezeTimer})
		} else {
			r.IsFrozen = false
			r.FreezeTimer = 0
			r.broadcast(Packet{Type: PacketFreezeEnded})
		}
		return
	}

	if r.Timer > 0 {
		r.Timer--
	}
	if r.Timer <= 0 {
		if r.GameState == StateDiscussion {
			r.GameState = StateGuessing
			r.Timer = guessingDuration
			r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
			return
		}
		r.endGame(nil)
		return
	}
	r.broadcast(Packet{Type: PacketTimerUpdate, Data: r.Timer})
}

func (r *Room) submitGuess(sessionID, guess string) {
	if r.GameState != StateGuessing {
		return
	}
	player := r.playerByID(sessionID)
	if player == nil || player.TargetImage == nil {
		return
	}

	if guessMatches(guess, player.TargetImage.Name) {
		player.HasGuessed = true
		player.Score += correctGuessScore
		r.broadcast(Packet{Type: PacketGuessResult, Data: GuessResultData{PlayerID: sessionID, Correct: true}})
		r.endGame(player)
		return
	}
	r.broadcast(Packet{Type: PacketGuessResult, Data: GuessResultData{PlayerID: sessionID, Correct: false}})
}

// useAbility applies one ability card. Every failed precondition is a
// silent no-op: wrong phase, paused room, insufficient level, spent card.
func (r *Room) useAbility(sessionID, cardType string) {
	if r.IsPaused {
		return
	}
	if r.GameState != StateDiscussion && r.GameState != StateGuessing {
		return
	}
	player := r.playerByID(sessionID)
	opponent := r.opponentOf(sessionID)
	if player == nil || opponent == nil || player.TargetImage == nil {
		return
	}
	level := Level(player.XP)

	switch cardType {
	case "hint":
		if player.HintCount >= maxHints {
			return
		}
		player.HintCount++
		runes := []rune(player.TargetImage.Name)
		hintChar := "?"
		if player.HintCount-1 < len(runes) {
			hintChar = string(runes[player.HintCount-1])
		}
		player.session.Send(Packet{Type: PacketHintReceived, Data: HintData{
			Hint:  fmt.Sprintf("التلميح رقم %d: الحرف هو %q", player.HintCount, hintChar),
			Count: player.HintCount,
		}})
		r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})

	case "quick_guess":
		if player.QuickGuessUsed || r.Timer > QuickGuessThreshold(level) {
			return
		}
		player.QuickGuessUsed = true
		r.IsPaused = true
		r.PausingPlayerID = sessionID
		r.QuickGuessTimer = quickGuessWindow
		r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
		r.broadcast(Packet{Type: PacketQuickGuessStarted, Data: GuessResultData{PlayerID: sessionID}})

	case "word_length":
		if level < 20 || player.WordLengthUsed {
			return
		}
		player.WordLengthUsed = true
		player.session.Send(Packet{Type: PacketWordLengthResult, Data: map[string]int{
			"length": len([]rune(player.TargetImage.Name)),
		}})
		r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})

	case "time_freeze":
		if level < 30 || player.TimeFreezeUsed || r.IsFrozen {
			return
		}
		player.TimeFreezeUsed = true
		r.IsFrozen = true
		r.FreezeTimer = freezeDuration
		r.broadcast(Packet{Type: PacketFreezeStarted, Data: GuessResultData{PlayerID: sessionID}})
		r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})

	case "spy_lens":
		if level < 50 || player.SpyLensUsed {
			return
		}
		player.SpyLensUsed = true
		player.session.Send(Packet{Type: PacketSpyLensActive, Data: map[string]string{
			"image": player.TargetImage.Image,
		}})
		r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
	}
}

// cancelQuickGuess exits the private window without resolving the game.
// The card stays consumed. Gated at level 20.
func (r *Room) cancelQuickGuess(sessionID string) {
	if !r.IsPaused || r.PausingPlayerID != sessionID {
		return
	}
	player := r.playerByID(sessionID)
	if player == nil || Level(player.XP) < 20 {
		return
	}
	r.IsPaused = false
	r.PausingPlayerID = ""
	r.QuickGuessTimer = 0
	r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
}

// submitQuickGuess resolves the private window: correct wins, incorrect
// hands the win to the opponent.
func (r *Room) submitQuickGuess(sessionID, guess string) {
	if !r.IsPaused || r.PausingPlayerID != sessionID {
		return
	}
	player := r.playerByID(sessionID)
	if player == nil || player.TargetImage == nil {
		return
	}

	if guessMatches(guess, player.TargetImage.Name) {
		r.broadcast(Packet{Type: PacketGuessResult, Data: GuessResultData{PlayerID: sessionID, Correct: true}})
		r.endGame(player)
		return
	}
	r.broadcast(Packet{Type: PacketGuessResult, Data: GuessResultData{PlayerID: sessionID, Correct: false}})
	r.endGame(r.opponentOf(sessionID))
}

// endGame settles the match. A nil winner (guessing timer expiry with no
// correct guess) gives every occupant the loser treatment.
func (r *Room) endGame(winner *RoomPlayer) {
	r.timerOn = false
	r.GameState = StateFinished

	updates := make(map[string]ResultDelta, len(r.Players))
	if winner != nil {
		r.WinnerID = winner.ID
		xpGain := winnerBaseXP + winner.Streak*winnerStreakXP
		winner.XP += xpGain
		winner.Streak++
		winner.Wins++
		updates[winner.ID] = ResultDelta{XP: xpGain, Streak: winner.Streak, Wins: winner.Wins, Won: true}
	}
	for _, p := range r.Players {
		if p == winner {
			continue
		}
		p.XP += loserXP
		p.Streak = 0
		updates[p.ID] = ResultDelta{XP: loserXP, Streak: 0, Wins: p.Wins, Won: false}
	}

	for _, p := range r.Players {
		r.hub.directory.ApplyGameResult(p.Serial, p.Name, p.XP, p.Wins)
	}
	r.hub.directory.Persist()
	r.hub.broadcastTopPlayers()

	logger.Infof("[Room %s] Game finished, winner: %s", r.ID, r.WinnerID)
	r.broadcast(Packet{Type: PacketGameFinished, Data: GameFinishedData{
		Room:     r,
		WinnerID: r.WinnerID,
		Updates:  updates,
	}})
}

// playAgain resets a finished room in place, keeping its id, and restarts
// the lobby countdown.
func (r *Room) playAgain() {
	if r.GameState != StateFinished {
		return
	}
	r.GameState = StateWaiting
	r.WinnerID = ""
	r.IsPaused = false
	r.PausingPlayerID = ""
	r.QuickGuessTimer = 0
	r.IsFrozen = false
	r.FreezeTimer = 0

	for _, p := range r.Players {
		p.TargetImage = nil
		p.HasGuessed = false
		p.SelectedCategory = ""
		p.HintCount = 0
		p.QuickGuessUsed = false
		p.WordLengthUsed = false
		p.TimeFreezeUsed = false
		p.SpyLensUsed = false
	}

	r.startLobbyTimer()
	r.broadcast(Packet{Type: PacketRoomUpdate, Data: r})
}
