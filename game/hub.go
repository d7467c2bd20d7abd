package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
	"github.com/adhamsabryco-maker/khamin-Takhmina/textfilter"
)

// TickerCreator abstracts the 1Hz heartbeat so tests can drive time by hand.
type TickerCreator interface {
	Create(d time.Duration) <-chan time.Time
}

type tickerCreator struct{}

func (tickerCreator) Create(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}

func NewTickerCreator() TickerCreator {
	return tickerCreator{}
}

// Hub is the single owner of all mutable game state: the directory, the
// moderation ledger, the matchmaker, the rooms and the session registry.
// Every external event is posted as a closure onto ops and executed on the
// hub goroutine, so no other synchronization exists or is needed.
type Hub struct {
	ops  chan func()
	stop chan struct{}

	tickerCreator TickerCreator
	directory     *Directory
	ledger        *Ledger
	matchmaker    *Matchmaker

	rooms          map[string]*Room
	sessions       map[string]Session
	sessionSerials map[string]string
}

func NewHub(directory *Directory, ledger *Ledger, tc TickerCreator) *Hub {
	h := &Hub{
		ops:            make(chan func(), 256),
		stop:           make(chan struct{}),
		tickerCreator:  tc,
		directory:      directory,
		ledger:         ledger,
		rooms:          make(map[string]*Room),
		sessions:       make(map[string]Session),
		sessionSerials: make(map[string]string),
	}
	h.matchmaker = NewMatchmaker(ledger, h.scheduleOp, h.createRandomRoom)
	return h
}

// Run is the hub actor. It closes started once the loop is receiving.
func (h *Hub) Run(started chan struct{}) {
	ticker := h.tickerCreator.Create(time.Second)
	close(started)

	for {
		select {
		case <-h.stop:
			return
		case <-ticker:
			h.handleTick()
		case op := <-h.ops:
			op()
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) post(op func()) {
	select {
	case h.ops <- op:
	case <-h.stop:
	}
}

// scheduleOp re-enters the hub goroutine after d, stamping execution time.
func (h *Hub) scheduleOp(d time.Duration, f func(now time.Time)) {
	time.AfterFunc(d, func() {
		h.post(func() { f(time.Now()) })
	})
}

func (h *Hub) handleTick() {
	for _, room := range h.rooms {
		room.tick()
	}
}

// ---- session lifecycle ----

func (h *Hub) Connect(s Session) {
	h.post(func() { h.handleConnect(s) })
}

func (h *Hub) handleConnect(s Session) {
	h.sessions[s.ID()] = s
	logger.Debugf("Session %s connected (%d online)", s.ID(), len(h.sessions))
	h.broadcastOnlineCount()
}

func (h *Hub) Disconnect(sessionID string) {
	h.post(func() { h.handleDisconnect(sessionID, time.Now()) })
}

func (h *Hub) handleDisconnect(sessionID string, now time.Time) {
	delete(h.sessions, sessionID)
	delete(h.sessionSerials, sessionID)
	h.matchmaker.Leave(sessionID, now)

	if room := h.findRoomBySession(sessionID); room != nil {
		h.leaveRoom(room, sessionID, true)
	}
	logger.Debugf("Session %s disconnected (%d online)", sessionID, len(h.sessions))
	h.broadcastOnlineCount()
}

// ---- identity ----

func (h *Hub) Register(sessionID, name, avatar string, xp int) {
	h.post(func() { h.handleRegister(sessionID, name, avatar, xp) })
}

func (h *Hub) handleRegister(sessionID, name, avatar string, xp int) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	serial, filtered := h.directory.Register(name, avatar, xp)
	h.sessionSerials[sessionID] = serial
	logger.Infof("Registered new player %s (%s)", filtered, serial)
	s.Send(Packet{Type: PacketRegistered, Data: map[string]string{
		"serial": serial,
		"name":   filtered,
	}})
}

func (h *Hub) BindSerial(sessionID, serial string) {
	h.post(func() { h.handleBindSerial(sessionID, serial, time.Now()) })
}

func (h *Hub) handleBindSerial(sessionID, serial string, now time.Time) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	player, ok := h.directory.Get(serial)
	if !ok {
		s.Send(Packet{Type: PacketAuthError, Data: map[string]string{
			"message": "لم يتم العثور على حسابك.",
		}})
		return
	}
	h.sessionSerials[sessionID] = serial
	s.Send(Packet{Type: PacketPlayerData, Data: player})

	if status := CheckAccess(player, now); !status.OK {
		s.Send(Packet{Type: PacketBannedStatus, Data: BannedStatusData{
			BanUntil:    status.BanUntil,
			IsPermanent: status.IsPermanent,
		}})
	}
}

// GetPlayerData re-sends the directory record for a serial; an unknown
// serial answers with a null payload so the client clears its stored id.
func (h *Hub) GetPlayerData(sessionID, serial string) {
	h.post(func() { h.handleGetPlayerData(sessionID, serial) })
}

func (h *Hub) handleGetPlayerData(sessionID, serial string) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	player, ok := h.directory.Get(serial)
	if !ok {
		s.Send(Packet{Type: PacketPlayerData, Data: nil})
		return
	}
	s.Send(Packet{Type: PacketPlayerData, Data: player})
}

func (h *Hub) UpdateProfile(sessionID, name, avatar string) {
	h.post(func() { h.handleUpdateProfile(sessionID, name, avatar) })
}

func (h *Hub) handleUpdateProfile(sessionID, name, avatar string) {
	s, serial, ok := h.boundSession(sessionID)
	if !ok {
		return
	}
	player, ok := h.directory.UpdateProfile(serial, name, avatar)
	if !ok {
		s.Send(Packet{Type: PacketError, Data: map[string]string{"message": "لم يتم العثور على حسابك."}})
		return
	}
	s.Send(Packet{Type: PacketProfileUpdated, Data: player})
	h.broadcastTopPlayers()
}

func (h *Hub) DeleteAccount(sessionID string) {
	h.post(func() { h.handleDeleteAccount(sessionID) })
}

func (h *Hub) handleDeleteAccount(sessionID string) {
	s, serial, ok := h.boundSession(sessionID)
	if !ok {
		return
	}
	if !h.directory.Delete(serial) {
		return
	}
	delete(h.sessionSerials, sessionID)
	s.Send(Packet{Type: PacketAccountDeleted})
	h.broadcastTopPlayers()
}

func (h *Hub) GetTopPlayers(sessionID string) {
	h.post(func() {
		if s, ok := h.sessions[sessionID]; ok {
			s.Send(Packet{Type: PacketTopPlayers, Data: h.directory.TopPlayers()})
		}
	})
}

// ---- matchmaking ----

func (h *Hub) FindMatch(sessionID string, age, streak int) {
	h.post(func() { h.handleFindMatch(sessionID, age, streak, time.Now()) })
}

func (h *Hub) handleFindMatch(sessionID string, age, streak int, now time.Time) {
	s, serial, ok := h.boundSession(sessionID)
	if !ok {
		return
	}
	player, ok := h.directory.Get(serial)
	if !ok {
		return
	}
	if status := CheckAccess(player, now); !status.OK {
		s.Send(Packet{Type: PacketBannedStatus, Data: BannedStatusData{
			BanUntil:    status.BanUntil,
			IsPermanent: status.IsPermanent,
		}})
		return
	}
	h.matchmaker.Enqueue(&QueueEntry{
		SessionID: sessionID,
		Session:   s,
		Serial:    player.Serial,
		Name:      player.Name,
		Avatar:    player.Avatar,
		Age:       age,
		XP:        player.XP,
		Streak:    streak,
		Wins:      player.Wins,
	}, now)
}

func (h *Hub) CancelMatch(sessionID string) {
	h.post(func() { h.matchmaker.Leave(sessionID, time.Now()) })
}

func (h *Hub) RespondToMatch(sessionID, matchID, response string) {
	h.post(func() { h.matchmaker.Respond(matchID, sessionID, response, time.Now()) })
}

// ExpireMatch is invoked by the session layer when the proposal response
// window lapses without an answer.
func (h *Hub) ExpireMatch(matchID, sessionID string) {
	h.post(func() { h.matchmaker.ExpireMatch(matchID, sessionID, time.Now()) })
}

// createRandomRoom is the matchFound hook: both entries accepted, so a
// room is created around directory-fresh copies of their records.
func (h *Hub) createRandomRoom(a, b *QueueEntry) {
	roomID := "random_" + uuid.NewString()
	room := newRoom(roomID, h)
	for _, entry := range []*QueueEntry{a, b} {
		room.Players = append(room.Players, h.roomPlayerFor(entry))
	}
	h.rooms[roomID] = room
	room.startLobbyTimer()

	logger.Infof("[Matchmaking] Room %s created for %s and %s", roomID, a.Name, b.Name)
	room.broadcast(Packet{Type: PacketRandomMatchFound, Data: map[string]string{"roomId": roomID}})
	room.broadcast(Packet{Type: PacketRoomUpdate, Data: room})
}

// roomPlayerFor builds the in-room copy, resyncing xp/wins/reports from the
// directory record rather than trusting the queue-time values. Streak rides
// along from the entry; the directory does not track it between games.
func (h *Hub) roomPlayerFor(entry *QueueEntry) *RoomPlayer {
	rp := &RoomPlayer{
		ID:      entry.SessionID,
		Serial:  entry.Serial,
		Name:    entry.Name,
		Age:     entry.Age,
		Avatar:  entry.Avatar,
		Score:   initialScore,
		XP:      entry.XP,
		Streak:  entry.Streak,
		Wins:    entry.Wins,
		session: entry.Session,
	}
	if record, ok := h.directory.Get(entry.Serial); ok {
		rp.Name = record.Name
		rp.Avatar = record.Avatar
		rp.XP = record.XP
		rp.Wins = record.Wins
		rp.Reports = record.Reports
		rp.ReportedBy = append([]domain.ReportMark(nil), record.ReportedBy...)
	}
	return rp
}

// ---- rooms ----

func (h *Hub) JoinRoom(sessionID, roomID string, age, streak int) {
	h.post(func() { h.handleJoinRoom(sessionID, roomID, age, streak, time.Now()) })
}

func (h *Hub) handleJoinRoom(sessionID, roomID string, age, streak int, now time.Time) {
	s, serial, ok := h.boundSession(sessionID)
	if !ok {
		return
	}
	player, ok := h.directory.Get(serial)
	if !ok {
		return
	}
	if status := CheckAccess(player, now); !status.OK {
		s.Send(Packet{Type: PacketBannedStatus, Data: BannedStatusData{
			BanUntil:    status.BanUntil,
			IsPermanent: status.IsPermanent,
		}})
		return
	}

	room, exists := h.rooms[roomID]
	if !exists {
		room = newRoom(roomID, h)
		h.rooms[roomID] = room
	}
	if room.playerByID(sessionID) != nil {
		return
	}
	if len(room.Players) >= 2 {
		s.Send(Packet{Type: PacketError, Data: map[string]string{
			"message": "الغرفة ممتلئة، يجب تغيير كود الغرفة",
		}})
		return
	}

	room.Players = append(room.Players, h.roomPlayerFor(&QueueEntry{
		SessionID: sessionID,
		Session:   s,
		Serial:    serial,
		Name:      player.Name,
		Avatar:    player.Avatar,
		Age:       age,
		Streak:    streak,
	}))
	if len(room.Players) == 2 {
		room.startLobbyTimer()
	}
	room.broadcast(Packet{Type: PacketRoomUpdate, Data: room})
}

func (h *Hub) LeaveRoom(sessionID, roomID string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			h.leaveRoom(room, sessionID, false)
		}
	})
}

// leaveRoom removes a player. Any departure before the game has finished
// tears the room down; only a finished room survives for result viewing
// until its last occupant leaves.
func (h *Hub) leaveRoom(room *Room, sessionID string, disconnected bool) {
	player := room.playerByID(sessionID)
	if player == nil {
		return
	}
	for i, p := range room.Players {
		if p.ID == sessionID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		delete(h.rooms, room.ID)
		return
	}

	switch room.GameState {
	case StateWaiting:
		room.timerOn = false
		room.broadcast(Packet{Type: PacketOpponentLeft})
		delete(h.rooms, room.ID)
	case StateFinished:
		room.broadcast(Packet{Type: PacketRoomUpdate, Data: room})
	default:
		reason := fmt.Sprintf("غادر %s الغرفة", player.Name)
		if disconnected {
			reason = fmt.Sprintf("انقطع اتصال %s", player.Name)
		}
		room.timerOn = false
		room.broadcast(Packet{Type: PacketGameStopped, Data: GameStoppedData{Reason: reason}})
		delete(h.rooms, room.ID)
	}
}

func (h *Hub) removeRoom(roomID string) {
	delete(h.rooms, roomID)
}

// ---- in-room events, forwarded onto the owning room ----

func (h *Hub) SelectCategory(sessionID, roomID, category string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			room.selectCategory(sessionID, category)
		}
	})
}

func (h *Hub) StartGame(sessionID, roomID string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok && room.playerByID(sessionID) != nil {
			room.requestStart()
		}
	})
}

func (h *Hub) SubmitGuess(sessionID, roomID, guess string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			room.submitGuess(sessionID, guess)
		}
	})
}

func (h *Hub) UseAbility(sessionID, roomID, cardType string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			room.useAbility(sessionID, cardType)
		}
	})
}

func (h *Hub) SubmitQuickGuess(sessionID, roomID, guess string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			room.submitQuickGuess(sessionID, guess)
		}
	})
}

func (h *Hub) CancelQuickGuess(sessionID, roomID string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok {
			room.cancelQuickGuess(sessionID)
		}
	})
}

func (h *Hub) PlayAgain(sessionID, roomID string) {
	h.post(func() {
		if room, ok := h.rooms[roomID]; ok && room.playerByID(sessionID) != nil {
			room.playAgain()
		}
	})
}

// ---- social relays ----

func (h *Hub) Chat(sessionID, roomID, text string) {
	h.post(func() { h.handleChat(sessionID, roomID, text) })
}

func (h *Hub) handleChat(sessionID, roomID, text string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	sender := room.playerByID(sessionID)
	if sender == nil {
		return
	}
	msg := h.filterChat(sender, text)
	room.broadcast(Packet{Type: PacketChatBubble, Data: ChatBubbleData{SenderID: sessionID, Text: msg}})
}

func (h *Hub) filterChat(sender *RoomPlayer, text string) string {
	if sender.Age > 0 && sender.Age < 13 {
		return "(رسالة طفل)"
	}
	return textfilter.Clean(text)
}

func (h *Hub) Emote(sessionID, roomID, emote string) {
	h.post(func() {
		room, ok := h.rooms[roomID]
		if !ok || room.playerByID(sessionID) == nil {
			return
		}
		room.broadcast(Packet{Type: PacketEmoteReceived, Data: EmoteData{SenderID: sessionID, Emote: emote}})
	})
}

func (h *Hub) ToggleMute(sessionID, roomID string, muted bool) {
	h.post(func() {
		room, ok := h.rooms[roomID]
		if !ok {
			return
		}
		player := room.playerByID(sessionID)
		opponent := room.opponentOf(sessionID)
		if player == nil || opponent == nil {
			return
		}
		player.IsMuted = muted
		if opponent.session != nil {
			opponent.session.Send(Packet{Type: PacketOpponentMutedYou, Data: map[string]bool{"isMuted": muted}})
		}
	})
}

// ---- moderation ----

func (h *Hub) ReportPlayer(sessionID, roomID, reportedID, reason string) {
	h.post(func() { h.handleReport(sessionID, roomID, reportedID, reason, time.Now()) })
}

func (h *Hub) handleReport(sessionID, roomID, reportedID, reason string, now time.Time) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	reporter := room.playerByID(sessionID)
	reported := room.playerByID(reportedID)
	if reporter == nil || reported == nil || reporter == reported {
		return
	}

	reporterRec, ok1 := h.directory.Get(reporter.Serial)
	reportedRec, ok2 := h.directory.Get(reported.Serial)
	if !ok1 || !ok2 {
		s.Send(Packet{Type: PacketReportResult, Data: ReportResultData{
			Success: false,
			Message: "حدث خطأ أثناء معالجة الإبلاغ.",
		}})
		return
	}

	outcome := h.ledger.Report(reporterRec, reportedRec, reason, roomID, now)
	if !outcome.Accepted {
		s.Send(Packet{Type: PacketReportResult, Data: ReportResultData{Success: false, Message: outcome.Message}})
		return
	}

	reported.Reported = true
	reported.Reports = reportedRec.Reports
	if reported.session != nil {
		reported.session.Send(Packet{Type: PacketPlayerDataUpdate, Data: reportedRec})
		if outcome.Banned {
			reported.session.Send(Packet{Type: PacketBannedStatus, Data: BannedStatusData{
				BanUntil:    outcome.BanUntil,
				IsPermanent: outcome.IsPermanent,
			}})
		}
	}
	h.directory.Persist()
	s.Send(Packet{Type: PacketReportResult, Data: ReportResultData{Success: true}})
	room.broadcast(Packet{Type: PacketRoomUpdate, Data: room})
}

// ---- admin ----

func (h *Hub) AdminGetPlayers(sessionID string) {
	h.post(func() {
		if s, ok := h.adminSession(sessionID); ok {
			s.Send(Packet{Type: PacketAdminPlayers, Data: h.directory.All()})
		}
	})
}

func (h *Hub) AdminGetReports(sessionID string) {
	h.post(func() {
		if s, ok := h.adminSession(sessionID); ok {
			s.Send(Packet{Type: PacketAdminReports, Data: h.ledger.RecentReports()})
		}
	})
}

func (h *Hub) AdminDeletePlayer(sessionID, serial string) {
	h.post(func() {
		s, ok := h.adminSession(sessionID)
		if !ok {
			return
		}
		deleted := h.directory.Delete(serial)
		s.Send(Packet{Type: PacketAdminResult, Data: map[string]bool{"success": deleted}})
		if deleted {
			h.broadcastTopPlayers()
		}
	})
}

// AdminUpdatePlayer edits a record directly. Negative xp/wins mean "leave
// unchanged", as do empty name/avatar.
func (h *Hub) AdminUpdatePlayer(sessionID, serial, name, avatar string, xp, wins int) {
	h.post(func() {
		s, ok := h.adminSession(sessionID)
		if !ok {
			return
		}
		player, ok := h.directory.Get(serial)
		if !ok {
			s.Send(Packet{Type: PacketAdminResult, Data: map[string]bool{"success": false}})
			return
		}
		if name != "" {
			player.Name = textfilter.Clean(name)
		}
		if avatar != "" {
			player.Avatar = avatar
		}
		if xp >= 0 {
			player.XP = xp
		}
		if wins >= 0 {
			player.Wins = wins
		}
		h.directory.Persist()
		s.Send(Packet{Type: PacketAdminResult, Data: map[string]bool{"success": true}})
		h.broadcastTopPlayers()
	})
}

func (h *Hub) AdminSetAdmin(sessionID, serial string, isAdmin bool) {
	h.post(func() {
		s, ok := h.adminSession(sessionID)
		if !ok {
			return
		}
		player, ok := h.directory.Get(serial)
		if !ok {
			s.Send(Packet{Type: PacketAdminResult, Data: map[string]bool{"success": false}})
			return
		}
		player.IsAdmin = isAdmin
		h.directory.Persist()
		s.Send(Packet{Type: PacketAdminResult, Data: map[string]bool{"success": true}})
	})
}

// adminSession resolves the caller and enforces the admin gate; a bound
// non-admin gets an explicit refusal rather than silence.
func (h *Hub) adminSession(sessionID string) (Session, bool) {
	s, serial, ok := h.boundSession(sessionID)
	if !ok {
		return nil, false
	}
	player, ok := h.directory.Get(serial)
	if !ok || !player.IsAdmin {
		s.Send(Packet{Type: PacketError, Data: map[string]string{"message": "غير مصرح بهذا الإجراء."}})
		return nil, false
	}
	return s, true
}

// ---- REST snapshots (teacher-style request/response over the actor) ----

func (h *Hub) SnapshotPlayers(ctx context.Context) []domain.Player {
	resp := make(chan []domain.Player, 1)
	h.post(func() { resp <- h.directory.All() })
	select {
	case players := <-resp:
		return players
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) SnapshotReports(ctx context.Context) []domain.Report {
	resp := make(chan []domain.Report, 1)
	h.post(func() { resp <- h.ledger.RecentReports() })
	select {
	case reports := <-resp:
		return reports
	case <-ctx.Done():
		return nil
	}
}

// ---- broadcasts ----

func (h *Hub) broadcastAll(p Packet) {
	for _, s := range h.sessions {
		s.Send(p)
	}
}

func (h *Hub) broadcastOnlineCount() {
	h.broadcastAll(Packet{Type: PacketOnlineCount, Data: len(h.sessions)})
}

func (h *Hub) broadcastTopPlayers() {
	h.broadcastAll(Packet{Type: PacketTopPlayersUpdate, Data: h.directory.TopPlayers()})
}

func (h *Hub) boundSession(sessionID string) (Session, string, bool) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return nil, "", false
	}
	serial, ok := h.sessionSerials[sessionID]
	if !ok {
		s.Send(Packet{Type: PacketAuthError, Data: map[string]string{
			"message": "يجب تسجيل الدخول أولاً.",
		}})
		return nil, "", false
	}
	return s, serial, true
}

func (h *Hub) findRoomBySession(sessionID string) *Room {
	for _, room := range h.rooms {
		if room.playerByID(sessionID) != nil {
			return room
		}
	}
	return nil
}
