package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
)

const (
	reportBanThreshold    = 10
	permanentBanThreshold = 5
	reportCooldown        = 24 * time.Hour
	banDuration           = 24 * time.Hour
	blockDuration         = time.Hour
)

type blockEntry struct {
	blockedID string
	expiresAt int64 // epoch ms
}

// Ledger tracks directed blocks and report/ban bookkeeping on top of the
// directory. Like the directory it is only touched from the hub goroutine.
type Ledger struct {
	blocks map[string][]blockEntry
	// recent mirrors accepted reports for the REST listing; the durable
	// copy goes through the store.
	recent []domain.Report
	store  Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		blocks: make(map[string][]blockEntry),
		store:  store,
	}
}

// Block records a one-directional block with expiry. Blocking is never
// required to be mutual.
func (l *Ledger) Block(blockerID, blockedID string, duration time.Duration, now time.Time) {
	l.blocks[blockerID] = append(l.blocks[blockerID], blockEntry{
		blockedID: blockedID,
		expiresAt: now.Add(duration).UnixMilli(),
	})
}

// IsBlocked reports whether either direction has a live entry, pruning
// expired entries for both ids as it looks.
func (l *Ledger) IsBlocked(id1, id2 string, now time.Time) bool {
	b1 := l.prune(id1, now)
	b2 := l.prune(id2, now)

	for _, b := range b1 {
		if b.blockedID == id2 {
			return true
		}
	}
	for _, b := range b2 {
		if b.blockedID == id1 {
			return true
		}
	}
	return false
}

func (l *Ledger) prune(id string, now time.Time) []blockEntry {
	entries, ok := l.blocks[id]
	if !ok {
		return nil
	}
	nowMs := now.UnixMilli()
	live := entries[:0]
	for _, e := range entries {
		if e.expiresAt > nowMs {
			live = append(live, e)
		}
	}
	l.blocks[id] = live
	return live
}

// ReportOutcome is what a report attempt produced.
type ReportOutcome struct {
	Accepted    bool
	Message     string
	Banned      bool
	IsPermanent bool
	BanUntil    int64
}

// Report applies one report from reporter against reported. The 24h
// duplicate check runs against the pre-update state; only an accepted
// report touches timestamps or counters.
func (l *Ledger) Report(reporter, reported *domain.Player, reason, roomID string, now time.Time) ReportOutcome {
	nowMs := now.UnixMilli()

	var existing *domain.ReportMark
	for i := range reported.ReportedBy {
		if reported.ReportedBy[i].ReporterSerial == reporter.Serial {
			existing = &reported.ReportedBy[i]
			break
		}
	}

	if existing != nil && nowMs-existing.Timestamp < reportCooldown.Milliseconds() {
		return ReportOutcome{Accepted: false, Message: "لقد قمت بالإبلاغ عن هذا اللاعب بالفعل."}
	}

	if existing != nil {
		existing.Timestamp = nowMs
	} else {
		reported.ReportedBy = append(reported.ReportedBy, domain.ReportMark{
			ReporterSerial: reporter.Serial,
			Timestamp:      nowMs,
		})
	}
	reported.Reports++

	report := domain.Report{
		ID:             uuid.NewString(),
		Timestamp:      nowMs,
		ReporterSerial: reporter.Serial,
		ReporterName:   reporter.Name,
		ReportedSerial: reported.Serial,
		ReportedName:   reported.Name,
		Reason:         reason,
		RoomID:         roomID,
	}
	l.recent = append(l.recent, report)
	if l.store != nil {
		go func() {
			if err := l.store.InsertReport(context.Background(), report); err != nil {
				logger.Criticalf("Failed to save report to storage: %v", err)
			}
		}()
	}

	outcome := ReportOutcome{Accepted: true}
	if reported.Reports >= reportBanThreshold {
		reported.Reports = 0
		reported.BanCount++
		outcome.Banned = true
		if reported.BanCount >= permanentBanThreshold {
			reported.IsPermanentBan = true
			outcome.IsPermanent = true
			logger.Infof("Player %s permanently banned", reported.Name)
		} else {
			reported.BanUntil = now.Add(banDuration).UnixMilli()
			outcome.BanUntil = reported.BanUntil
			logger.Infof("Player %s banned for 24 hours (ban #%d)", reported.Name, reported.BanCount)
		}
	}
	return outcome
}

// RecentReports lists accepted reports since process start.
func (l *Ledger) RecentReports() []domain.Report {
	return l.recent
}

// AccessStatus gates entry into rooms and the matchmaking queue.
type AccessStatus struct {
	OK          bool
	IsPermanent bool
	BanUntil    int64
}

func CheckAccess(p *domain.Player, now time.Time) AccessStatus {
	if p.IsPermanentBan {
		return AccessStatus{IsPermanent: true}
	}
	if p.BanUntil > now.UnixMilli() {
		return AccessStatus{BanUntil: p.BanUntil}
	}
	return AccessStatus{OK: true}
}
