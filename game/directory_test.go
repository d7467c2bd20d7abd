package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Register(t *testing.T) {
	d := NewDirectory(nil)

	serial, name := d.Register("Ahmed", "avatar_3", 0)

	assert.Len(t, serial, 22)
	assert.Equal(t, "Ahmed", name)
	player, ok := d.Get(serial)
	require.True(t, ok)
	assert.Equal(t, "avatar_3", player.Avatar)
	assert.Equal(t, 0, player.XP)
	assert.NotNil(t, player.ReportedBy)
}

func TestDirectory_RegisterClampsNegativeXP(t *testing.T) {
	d := NewDirectory(nil)

	serial, _ := d.Register("Ahmed", "avatar_1", -500)

	player, _ := d.Get(serial)
	assert.Equal(t, 0, player.XP)
}

func TestDirectory_RegisterFiltersName(t *testing.T) {
	d := NewDirectory(nil)

	_, name := d.Register("Ahmed 01012345678", "avatar_1", 0)

	assert.Equal(t, "Ahmed [رقم هاتف محذوف]", name)
}

func TestDirectory_UpdateProfile(t *testing.T) {
	d := NewDirectory(nil)
	serial, _ := d.Register("Ahmed", "avatar_1", 100)

	player, ok := d.UpdateProfile(serial, "Omar", "avatar_7")

	require.True(t, ok)
	assert.Equal(t, "Omar", player.Name)
	assert.Equal(t, "avatar_7", player.Avatar)
	assert.Equal(t, 100, player.XP, "xp untouched by profile edits")
}

func TestDirectory_UpdateProfileUnknownSerial(t *testing.T) {
	d := NewDirectory(nil)

	_, ok := d.UpdateProfile("no-such-serial", "Omar", "avatar_7")

	assert.False(t, ok)
}

func TestDirectory_DeleteIsIdempotentlyFalse(t *testing.T) {
	d := NewDirectory(nil)
	serial, _ := d.Register("Ahmed", "avatar_1", 0)

	assert.True(t, d.Delete(serial))
	assert.False(t, d.Delete(serial), "second delete of the same serial")
	_, ok := d.Get(serial)
	assert.False(t, ok)
}

func TestDirectory_TopPlayers(t *testing.T) {
	d := NewDirectory(nil)
	d.Register("Low", "a", 10)
	sMid, _ := d.Register("Mid", "a", 500)
	sTopA, _ := d.Register("TopA", "a", 900)
	sTopB, _ := d.Register("TopB", "a", 900)

	// Same xp: wins break the tie.
	pb, _ := d.Get(sTopB)
	pb.Wins = 5

	top := d.TopPlayers()

	require.Len(t, top, 3)
	assert.Equal(t, sTopB, top[0].Serial)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, sTopA, top[1].Serial)
	assert.Equal(t, 2, top[1].Rank)
	assert.Equal(t, sMid, top[2].Serial)
	assert.Equal(t, 3, top[2].Rank)
}

func TestDirectory_ApplyGameResult(t *testing.T) {
	d := NewDirectory(nil)
	serial, _ := d.Register("Ahmed", "a", 0)

	d.ApplyGameResult(serial, "Ahmed", 120, 1)

	player, _ := d.Get(serial)
	assert.Equal(t, 120, player.XP)
	assert.Equal(t, 1, player.Wins)
}

func TestDirectory_ApplyGameResultNameFallback(t *testing.T) {
	d := NewDirectory(nil)
	serial, _ := d.Register("Ahmed", "a", 0)

	d.ApplyGameResult("wrong-serial", "Ahmed", 200, 2)

	player, _ := d.Get(serial)
	assert.Equal(t, 200, player.XP)
	assert.Equal(t, 2, player.Wins)
}

func TestDirectory_PersistReachesStoreOffTheEventPath(t *testing.T) {
	store := &MockStore{}
	written := make(chan struct{})
	store.On("UpsertPlayers", mock.Anything, mock.Anything).Return(nil).
		Run(func(mock.Arguments) { close(written) })
	d := NewDirectory(store)

	d.Register("Ahmed", "avatar_1", 0)

	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("persist never reached the store")
	}
}

func TestDirectory_DeleteReachesStore(t *testing.T) {
	store := &MockStore{}
	store.On("UpsertPlayers", mock.Anything, mock.Anything).Return(nil)
	deleted := make(chan struct{})
	store.On("DeletePlayer", mock.Anything, mock.Anything).Return(nil).
		Run(func(mock.Arguments) { close(deleted) })
	d := NewDirectory(store)
	serial, _ := d.Register("Ahmed", "avatar_1", 0)

	require.True(t, d.Delete(serial))

	select {
	case <-deleted:
	case <-time.After(time.Second):
		t.Fatal("delete never reached the store")
	}
}

func TestDirectory_LoadReplaces(t *testing.T) {
	d := NewDirectory(nil)
	d.Register("Stale", "a", 0)

	d.Load(nil)

	assert.Equal(t, 0, d.Size())
}
