package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

const (
	ResponseAccept = "accept"
	ResponseReject = "reject"
	ResponseBlock  = "block"
)

// skipCooldown keeps a rejected pair from re-matching immediately.
const skipCooldown = 10 * time.Second

// QueueEntry is one waiting session. It lives only for the duration of a
// search; a fresh search builds a fresh entry with an empty skipped map.
type QueueEntry struct {
	SessionID string
	Session   Session
	Serial    string
	Name      string
	Avatar    string
	Age       int
	XP        int
	Streak    int
	Wins      int
	skipped   map[string]int64 // opponent serial -> rejection time (epoch ms)
}

// PendingMatch is the negotiation object between two queue entries.
type PendingMatch struct {
	ID        string
	A, B      *QueueEntry
	ResponseA string
	ResponseB string
}

// Matchmaker pairs waiting entries and resolves match negotiations. It is
// owned by the hub and never touched off its goroutine; the schedule hook
// re-enters through the hub so delayed passes stay serialized.
type Matchmaker struct {
	queue   []*QueueEntry
	pending map[string]*PendingMatch
	ledger  *Ledger

	schedule   func(d time.Duration, f func(now time.Time))
	matchFound func(a, b *QueueEntry)
}

func NewMatchmaker(ledger *Ledger, schedule func(time.Duration, func(time.Time)), matchFound func(a, b *QueueEntry)) *Matchmaker {
	return &Matchmaker{
		pending:    make(map[string]*PendingMatch),
		ledger:     ledger,
		schedule:   schedule,
		matchFound: matchFound,
	}
}

// Enqueue adds a waiting entry, first clearing any previous queue position
// or pending match for the same session (idempotent re-join).
func (m *Matchmaker) Enqueue(entry *QueueEntry, now time.Time) {
	m.removeFromQueue(entry.SessionID)
	m.implicitReject(entry.SessionID)

	if entry.skipped == nil {
		entry.skipped = make(map[string]int64)
	}
	m.queue = append(m.queue, entry)
	entry.Session.Send(Packet{Type: PacketWaitingForMatch})
	m.PairingPass(now)
}

// PairingPass scans queue pairs in order and proposes a match for the first
// compatible pair. The scan restarts from scratch after every match since
// removal shifts indices; no pair is ever double-matched in one pass.
func (m *Matchmaker) PairingPass(now time.Time) {
	nowMs := now.UnixMilli()

restart:
	for len(m.queue) >= 2 {
		for i := 0; i < len(m.queue); i++ {
			for j := i + 1; j < len(m.queue); j++ {
				a, b := m.queue[i], m.queue[j]

				if m.ledger.IsBlocked(a.Serial, b.Serial, now) {
					continue
				}
				if ts, ok := a.skipped[b.Serial]; ok && nowMs < ts+skipCooldown.Milliseconds() {
					continue
				}
				if ts, ok := b.skipped[a.Serial]; ok && nowMs < ts+skipCooldown.Milliseconds() {
					continue
				}

				// Remove the higher index first so the lower stays valid.
				m.queue = append(m.queue[:j], m.queue[j+1:]...)
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				m.propose(a, b)
				continue restart
			}
		}
		return
	}
}

func (m *Matchmaker) propose(a, b *QueueEntry) {
	match := &PendingMatch{ID: "match_" + uuid.NewString(), A: a, B: b}
	m.pending[match.ID] = match
	logger.Infof("[Matchmaking] Proposing match %s: %s vs %s", match.ID, a.Name, b.Name)

	a.Session.Send(Packet{Type: PacketMatchProposed, Data: MatchProposedData{
		MatchID:  match.ID,
		Opponent: OpponentPreview{Name: b.Name, Avatar: b.Avatar, Age: b.Age, Level: Level(b.XP)},
	}})
	b.Session.Send(Packet{Type: PacketMatchProposed, Data: MatchProposedData{
		MatchID:  match.ID,
		Opponent: OpponentPreview{Name: a.Name, Avatar: a.Avatar, Age: a.Age, Level: Level(a.XP)},
	}})
}

// Respond resolves one side's answer to a proposal. Unknown matches and
// outsider sessions are ignored.
func (m *Matchmaker) Respond(matchID, sessionID, response string, now time.Time) {
	match, ok := m.pending[matchID]
	if !ok {
		return
	}

	var mine, opp *QueueEntry
	switch sessionID {
	case match.A.SessionID:
		mine, opp = match.A, match.B
		match.ResponseA = response
	case match.B.SessionID:
		mine, opp = match.B, match.A
		match.ResponseB = response
	default:
		return
	}

	if response == ResponseBlock {
		// A durable block supersedes the short skip cooldown.
		m.ledger.Block(mine.Serial, opp.Serial, blockDuration, now)
	}

	if response == ResponseReject || response == ResponseBlock {
		delete(m.pending, matchID)

		if response == ResponseReject {
			mine.skipped[opp.Serial] = now.UnixMilli()
			m.schedule(skipCooldown, func(then time.Time) {
				m.PairingPass(then)
			})
		}

		opp.Session.Send(Packet{Type: PacketMatchRejected})
		mine.Session.Send(Packet{Type: PacketMatchRejected})

		// The innocent side keeps its wait-time priority; the rejecter
		// goes to the back.
		m.queue = append([]*QueueEntry{opp}, m.queue...)
		m.queue = append(m.queue, mine)
		m.PairingPass(now)
		return
	}

	if match.ResponseA == ResponseAccept && match.ResponseB == ResponseAccept {
		delete(m.pending, matchID)
		m.matchFound(match.A, match.B)
	}
}

// ExpireMatch is the implicit-reject path the session layer invokes when
// the 30s response window lapses. It only acts while the match is still
// pending and the session hasn't answered.
func (m *Matchmaker) ExpireMatch(matchID, sessionID string, now time.Time) {
	match, ok := m.pending[matchID]
	if !ok {
		return
	}
	switch sessionID {
	case match.A.SessionID:
		if match.ResponseA != "" {
			return
		}
	case match.B.SessionID:
		if match.ResponseB != "" {
			return
		}
	default:
		return
	}
	if m.implicitReject(sessionID) {
		m.PairingPass(now)
	}
}

// Leave removes the session from the queue and treats any pending match as
// an implicit reject: the opponent returns to the front with no cooldown.
func (m *Matchmaker) Leave(sessionID string, now time.Time) {
	m.removeFromQueue(sessionID)
	if m.implicitReject(sessionID) {
		m.PairingPass(now)
	}
}

func (m *Matchmaker) removeFromQueue(sessionID string) {
	for i, e := range m.queue {
		if e.SessionID == sessionID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

func (m *Matchmaker) implicitReject(sessionID string) bool {
	for id, match := range m.pending {
		var opp *QueueEntry
		switch sessionID {
		case match.A.SessionID:
			opp = match.B
		case match.B.SessionID:
			opp = match.A
		default:
			continue
		}
		delete(m.pending, id)
		opp.Session.Send(Packet{Type: PacketMatchRejected})
		m.queue = append([]*QueueEntry{opp}, m.queue...)
		return true
	}
	return false
}

func (m *Matchmaker) QueueLen() int {
	return len(m.queue)
}

func (m *Matchmaker) PendingCount() int {
	return len(m.pending)
}
