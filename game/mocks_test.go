package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/adhamsabryco-maker/khamin-Takhmina/domain"
)

// --- Store ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertPlayers(ctx context.Context, players []domain.Player) error {
	args := m.Called(ctx, players)
	return args.Error(0)
}

func (m *MockStore) DeletePlayer(ctx context.Context, serial string) error {
	args := m.Called(ctx, serial)
	return args.Error(0)
}

func (m *MockStore) InsertReport(ctx context.Context, report domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockStore) ListReports(ctx context.Context) ([]domain.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Report), args.Error(1)
}

// --- Session ---

// fakeSession records every packet it is handed, in order.
type fakeSession struct {
	id      string
	packets []Packet
}

func (f *fakeSession) ID() string {
	return f.id
}

func (f *fakeSession) Send(p Packet) {
	f.packets = append(f.packets, p)
}

func (f *fakeSession) byType(packetType string) []Packet {
	var out []Packet
	for _, p := range f.packets {
		if p.Type == packetType {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeSession) lastOfType(packetType string) (Packet, bool) {
	matches := f.byType(packetType)
	if len(matches) == 0 {
		return Packet{}, false
	}
	return matches[len(matches)-1], true
}

func (f *fakeSession) reset() {
	f.packets = nil
}

// --- TickerCreator ---

// manualTicker lets tests fire hub heartbeats by hand.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time, 16)}
}

func (m *manualTicker) Create(d time.Duration) <-chan time.Time {
	return m.ch
}

// --- hub test helpers ---

func newTestHub() *Hub {
	return NewHub(NewDirectory(nil), NewLedger(nil), newManualTicker())
}

// connectPlayer registers a directory record, binds it to a fresh session
// and clears the connection chatter so tests only see what they trigger.
func connectPlayer(h *Hub, sessionID, name string, xp int) *fakeSession {
	s := &fakeSession{id: sessionID}
	h.handleConnect(s)
	serial, _ := h.directory.Register(name, "avatar_1", xp)
	h.sessionSerials[sessionID] = serial
	s.reset()
	return s
}
