package game

import (
	"context"
	"sort"
	"time"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
	"github.com/adhamsabryco-maker/khamin-Takhmina/logger"
	"github.com/adhamsabryco-maker/khamin-Takhmina/textfilter"
)

// Store is the durable side of the player directory. Writes are
// best-effort: failures are logged, never propagated into game state.
type Store interface {
	UpsertPlayers(ctx context.Context, players []domain.Player) error
	DeletePlayer(ctx context.Context, serial string) error
	InsertReport(ctx context.Context, report domain.Report) error
	ListReports(ctx context.Context) ([]domain.Report, error)
}

const topPlayersCount = 3

// Directory holds every known player record in memory, keyed by serial.
// All access happens on the hub goroutine; persistence runs off it on
// snapshots so no record is ever observed half-updated.
type Directory struct {
	players map[string]*domain.Player
	store   Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{
		players: make(map[string]*domain.Player),
		store:   store,
	}
}

// Load replaces the in-memory set, typically from storage at startup.
func (d *Directory) Load(players []domain.Player) {
	d.players = make(map[string]*domain.Player, len(players))
	for i := range players {
		p := players[i]
		d.players[p.Serial] = &p
	}
	logger.Infof("Loaded %d players into the directory", len(d.players))
}

// Register creates a new record and returns its serial and the filtered
// name actually stored.
func (d *Directory) Register(name, avatar string, xp int) (string, string) {
	if xp < 0 {
		xp = 0
	}
	serial := newSerial()
	filtered := textfilter.Clean(name)
	d.players[serial] = &domain.Player{
		Serial:     serial,
		Name:       filtered,
		Avatar:     avatar,
		XP:         xp,
		ReportedBy: []domain.ReportMark{},
	}
	d.Persist()
	return serial, filtered
}

// UpdateProfile mutates name and avatar. Returns the record, or false when
// the serial is unknown.
func (d *Directory) UpdateProfile(serial, name, avatar string) (*domain.Player, bool) {
	player, ok := d.players[serial]
	if !ok {
		return nil, false
	}
	player.Name = textfilter.Clean(name)
	player.Avatar = avatar
	d.Persist()
	return player, true
}

func (d *Directory) Get(serial string) (*domain.Player, bool) {
	player, ok := d.players[serial]
	return player, ok
}

// Delete removes the record and its report bookkeeping. The second call for
// the same serial reports false.
func (d *Directory) Delete(serial string) bool {
	if _, ok := d.players[serial]; !ok {
		return false
	}
	delete(d.players, serial)
	if d.store != nil {
		go func() {
			if err := d.store.DeletePlayer(context.Background(), serial); err != nil {
				logger.Criticalf("Failed to delete player %s from storage: %v", serial, err)
			}
		}()
	}
	return true
}

func (d *Directory) Size() int {
	return len(d.players)
}

// All returns the records in unspecified order (admin listing).
func (d *Directory) All() []domain.Player {
	return d.snapshot()
}

// TopPlayers returns the leaderboard: xp desc, wins desc, ranks 1-based.
func (d *Directory) TopPlayers() []RankedPlayer {
	all := d.snapshot()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].Wins > all[j].Wins
	})
	if len(all) > topPlayersCount {
		all = all[:topPlayersCount]
	}
	ranked := make([]RankedPlayer, len(all))
	for i, p := range all {
		ranked[i] = RankedPlayer{Player: p, Rank: i + 1}
	}
	return ranked
}

// ApplyGameResult merges a finished match's xp/wins back into the record,
// matched by serial. Name match is a defensive fallback for malformed
// in-room state, not a guaranteed-correct path.
func (d *Directory) ApplyGameResult(serial, name string, xp, wins int) {
	if player, ok := d.players[serial]; ok {
		player.XP = xp
		player.Wins = wins
		return
	}
	for _, player := range d.players {
		if player.Name == name {
			player.XP = xp
			player.Wins = wins
			return
		}
	}
}

// Persist bulk-upserts a snapshot of every record. The snapshot is taken
// synchronously; the write itself must not block the event loop.
func (d *Directory) Persist() {
	if d.store == nil {
		return
	}
	snapshot := d.snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.store.UpsertPlayers(ctx, snapshot); err != nil {
			logger.Criticalf("Failed to save players data: %v", err)
		}
	}()
}

func (d *Directory) snapshot() []domain.Player {
	out := make([]domain.Player, 0, len(d.players))
	for _, player := range d.players {
		p := *player
		p.ReportedBy = append([]domain.ReportMark(nil), player.ReportedBy...)
		out = append(out, p)
	}
	return out
}
