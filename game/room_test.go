package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJoinedRoom(t *testing.T) (*Hub, *fakeSession, *fakeSession, *Room) {
	t.Helper()
	h := newTestHub()
	s1 := connectPlayer(h, "p1", "Ahmed", 0)
	s2 := connectPlayer(h, "p2", "Sara", 500)
	now := time.Now()
	h.handleJoinRoom("p1", "room1", 20, 0, now)
	h.handleJoinRoom("p2", "room1", 25, 0, now)
	room := h.rooms["room1"]
	require.NotNil(t, room)
	s1.reset()
	s2.reset()
	return h, s1, s2, room
}

func startFoodGame(t *testing.T, room *Room) {
	t.Helper()
	room.selectCategory("p1", "food")
	room.selectCategory("p2", "food")
	room.requestStart()
	require.Equal(t, StateDiscussion, room.GameState)
}

func TestJoinRoom_TwoPlayersArmLobbyTimer(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)

	assert.Equal(t, StateWaiting, room.GameState)
	assert.Equal(t, lobbyDuration, room.Timer)
	assert.True(t, room.timerOn)
	assert.Len(t, room.Players, 2)
	assert.Equal(t, "people", room.Category)
	assert.Equal(t, initialScore, room.Players[0].Score)
}

func TestJoinRoom_ThirdPlayerRejected(t *testing.T) {
	h, _, _, room := setupJoinedRoom(t)
	s3 := connectPlayer(h, "p3", "Omar", 0)

	h.handleJoinRoom("p3", "room1", 30, 0, time.Now())

	assert.Len(t, room.Players, 2)
	p, ok := s3.lastOfType(PacketError)
	require.True(t, ok)
	assert.Equal(t, "الغرفة ممتلئة، يجب تغيير كود الغرفة", p.Data.(map[string]string)["message"])
}

func TestJoinRoom_BannedPlayerRefused(t *testing.T) {
	h := newTestHub()
	s1 := connectPlayer(h, "p1", "Ahmed", 0)
	now := time.Now()
	record, _ := h.directory.Get(h.sessionSerials["p1"])
	record.BanUntil = now.Add(time.Hour).UnixMilli()

	h.handleJoinRoom("p1", "room1", 20, 0, now)

	_, exists := h.rooms["room1"]
	assert.False(t, exists)
	p, ok := s1.lastOfType(PacketBannedStatus)
	require.True(t, ok)
	assert.Equal(t, record.BanUntil, p.Data.(BannedStatusData).BanUntil)
}

func TestSelectCategory_RequiresAgreement(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)

	room.selectCategory("p1", "food")
	assert.Equal(t, "people", room.Category, "one vote changes nothing")

	room.selectCategory("p2", "animals")
	assert.Equal(t, "people", room.Category, "split vote changes nothing")

	room.selectCategory("p2", "food")
	assert.Equal(t, "food", room.Category)
}

func TestStartGame_RequiresMatchingSelections(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	room.selectCategory("p1", "food")
	room.selectCategory("p2", "animals")

	room.requestStart()
	assert.Equal(t, StateWaiting, room.GameState)

	room.selectCategory("p2", "food")
	room.requestStart()

	assert.Equal(t, StateDiscussion, room.GameState)
	assert.Equal(t, discussionDuration, room.Timer)
	for _, p := range room.Players {
		require.NotNil(t, p.TargetImage)
		found := false
		for _, item := range categories["food"] {
			if item.Name == p.TargetImage.Name {
				found = true
			}
		}
		assert.True(t, found, "target comes from the agreed category pool")
	}
}

func TestLobbyTimerExpiry_TearsRoomDown(t *testing.T) {
	h, s1, _, room := setupJoinedRoom(t)

	for i := 0; i < lobbyDuration; i++ {
		room.tick()
	}
	assert.Equal(t, 0, room.Timer)
	_, stillThere := h.rooms["room1"]
	require.True(t, stillThere)

	room.tick()

	_, stillThere = h.rooms["room1"]
	assert.False(t, stillThere)
	p, ok := s1.lastOfType(PacketGameStopped)
	require.True(t, ok)
	assert.Equal(t, "انتهى الوقت! لم يتم الاتفاق على فئة.", p.Data.(GameStoppedData).Reason)
}

func TestTick_DiscussionRollsIntoGuessing(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.Timer = 1

	room.tick()

	assert.Equal(t, StateGuessing, room.GameState)
	assert.Equal(t, guessingDuration, room.Timer)
}

func TestTick_GuessingExpiryNobodyWins(t *testing.T) {
	h, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.Timer = 1

	room.tick()

	assert.Equal(t, StateFinished, room.GameState)
	assert.Empty(t, room.WinnerID)

	p, ok := s1.lastOfType(PacketGameFinished)
	require.True(t, ok)
	updates := p.Data.(GameFinishedData).Updates
	require.Len(t, updates, 2)
	for _, delta := range updates {
		assert.False(t, delta.Won)
		assert.Equal(t, loserXP, delta.XP)
		assert.Equal(t, 0, delta.Streak)
	}

	r1, _ := h.directory.Get(h.sessionSerials["p1"])
	r2, _ := h.directory.Get(h.sessionSerials["p2"])
	assert.Equal(t, 20, r1.XP)
	assert.Equal(t, 520, r2.XP)
}

func TestSubmitGuess_NormalizedCorrectGuessWins(t *testing.T) {
	h, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}

	room.submitGuess("p1", " كشرى ")

	result, ok := s1.lastOfType(PacketGuessResult)
	require.True(t, ok)
	assert.True(t, result.Data.(GuessResultData).Correct)

	assert.Equal(t, StateFinished, room.GameState)
	assert.Equal(t, "p1", room.WinnerID)
	winner := room.playerByID("p1")
	assert.Equal(t, initialScore+correctGuessScore, winner.Score)
	assert.True(t, winner.HasGuessed)
	assert.Equal(t, 100, winner.XP)
	assert.Equal(t, 1, winner.Streak)
	assert.Equal(t, 1, winner.Wins)

	record, _ := h.directory.Get(h.sessionSerials["p1"])
	assert.Equal(t, 100, record.XP)
	assert.Equal(t, 1, record.Wins)
}

func TestSubmitGuess_WrongGuessKeepsPlaying(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}

	room.submitGuess("p1", "ملوخية")

	result, ok := s1.lastOfType(PacketGuessResult)
	require.True(t, ok)
	assert.False(t, result.Data.(GuessResultData).Correct)
	assert.Equal(t, StateGuessing, room.GameState)
}

func TestSubmitGuess_IgnoredDuringDiscussion(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}

	room.submitGuess("p1", "كشري")

	assert.Empty(t, s1.byType(PacketGuessResult))
	assert.Equal(t, StateDiscussion, room.GameState)
}

func TestHint_CapsAtTwo(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "بيتزا"}

	room.useAbility("p1", "hint")
	room.useAbility("p1", "hint")
	room.useAbility("p1", "hint")

	hints := s1.byType(PacketHintReceived)
	require.Len(t, hints, 2)
	assert.Equal(t, 1, hints[0].Data.(HintData).Count)
	assert.Equal(t, 2, hints[1].Data.(HintData).Count)
	assert.Equal(t, 2, room.playerByID("p1").HintCount)
}

func TestQuickGuess_LockedUntilThreshold(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	// Level 1: unlocks at 150s remaining; fresh discussion has 300.

	room.useAbility("p1", "quick_guess")

	assert.False(t, room.IsPaused)
	assert.False(t, room.playerByID("p1").QuickGuessUsed)
	assert.Empty(t, s1.byType(PacketQuickGuessStarted))
}

func TestQuickGuess_PausesEverything(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.Timer = 150

	room.useAbility("p1", "quick_guess")

	require.True(t, room.IsPaused)
	assert.Equal(t, "p1", room.PausingPlayerID)
	assert.Equal(t, quickGuessWindow, room.QuickGuessTimer)
	assert.True(t, room.playerByID("p1").QuickGuessUsed)
	assert.Len(t, s1.byType(PacketQuickGuessStarted), 1)

	room.tick()

	assert.Equal(t, quickGuessWindow-1, room.QuickGuessTimer)
	assert.Equal(t, 150, room.Timer, "main timer stalls while paused")
}

func TestQuickGuess_WindowLapseHandsWinToOpponent(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.Timer = 150
	room.useAbility("p1", "quick_guess")
	room.QuickGuessTimer = 1

	room.tick()

	assert.Equal(t, StateFinished, room.GameState)
	assert.Equal(t, "p2", room.WinnerID)
	assert.False(t, room.IsPaused)
}

func TestSubmitQuickGuess_Resolves(t *testing.T) {
	t.Run("correct wins", func(t *testing.T) {
		_, _, _, room := setupJoinedRoom(t)
		startFoodGame(t, room)
		room.Timer = 150
		room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}
		room.useAbility("p1", "quick_guess")

		room.submitQuickGuess("p1", "كشري")

		assert.Equal(t, StateFinished, room.GameState)
		assert.Equal(t, "p1", room.WinnerID)
	})

	t.Run("wrong hands win to opponent", func(t *testing.T) {
		_, _, _, room := setupJoinedRoom(t)
		startFoodGame(t, room)
		room.Timer = 150
		room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}
		room.useAbility("p1", "quick_guess")

		room.submitQuickGuess("p1", "برجر")

		assert.Equal(t, StateFinished, room.GameState)
		assert.Equal(t, "p2", room.WinnerID)
	})

	t.Run("opponent cannot answer the window", func(t *testing.T) {
		_, _, _, room := setupJoinedRoom(t)
		startFoodGame(t, room)
		room.Timer = 150
		room.playerByID("p2").TargetImage = &CategoryItem{Name: "كشري"}
		room.useAbility("p1", "quick_guess")

		room.submitQuickGuess("p2", "كشري")

		assert.Equal(t, StateDiscussion, room.GameState)
		assert.True(t, room.IsPaused)
	})
}

func TestCancelQuickGuess_GatedAtLevel20(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.Timer = 150
	room.useAbility("p1", "quick_guess")

	room.cancelQuickGuess("p1")
	assert.True(t, room.IsPaused, "level 1 cannot cancel")

	room.playerByID("p1").XP = 18050 // level 20
	room.cancelQuickGuess("p1")

	assert.False(t, room.IsPaused)
	assert.Empty(t, room.PausingPlayerID)
	assert.True(t, room.playerByID("p1").QuickGuessUsed, "the card stays spent")
}

func TestWordLength_GatedAtLevel20(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "بيتزا"}

	room.useAbility("p1", "word_length")
	assert.Empty(t, s1.byType(PacketWordLengthResult))

	room.playerByID("p1").XP = 18050
	room.useAbility("p1", "word_length")

	p, ok := s1.lastOfType(PacketWordLengthResult)
	require.True(t, ok)
	assert.Equal(t, 5, p.Data.(map[string]int)["length"])
}

func TestTimeFreeze_StallsMainTimer(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.playerByID("p1").XP = 42050 // level 30
	mainTimer := room.Timer

	room.useAbility("p1", "time_freeze")

	require.True(t, room.IsFrozen)
	assert.Equal(t, freezeDuration, room.FreezeTimer)
	assert.Len(t, s1.byType(PacketFreezeStarted), 1)

	room.tick()
	assert.Equal(t, mainTimer, room.Timer)
	assert.Equal(t, freezeDuration-1, room.FreezeTimer)

	room.FreezeTimer = 0
	room.tick()
	assert.False(t, room.IsFrozen)
	assert.Len(t, s1.byType(PacketFreezeEnded), 1)

	room.tick()
	assert.Equal(t, mainTimer-1, room.Timer, "main timer resumes")
}

func TestSpyLens_GatedAtLevel50(t *testing.T) {
	_, s1, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري", Image: "https://example.com/koshary.jpg"}

	room.useAbility("p1", "spy_lens")
	assert.Empty(t, s1.byType(PacketSpyLensActive))

	room.playerByID("p1").XP = 120050
	room.useAbility("p1", "spy_lens")

	p, ok := s1.lastOfType(PacketSpyLensActive)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/koshary.jpg", p.Data.(map[string]string)["image"])
}

func TestAbilities_IgnoredWhilePaused(t *testing.T) {
	_, _, s2, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.Timer = 150
	room.useAbility("p1", "quick_guess")
	require.True(t, room.IsPaused)

	room.useAbility("p2", "hint")

	assert.Equal(t, 0, room.playerByID("p2").HintCount)
	assert.Empty(t, s2.byType(PacketHintReceived))
}

func TestPlayAgain_ResetsRoomInPlace(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}
	room.submitGuess("p1", "كشري")
	require.Equal(t, StateFinished, room.GameState)

	room.playAgain()

	assert.Equal(t, StateWaiting, room.GameState)
	assert.Equal(t, lobbyDuration, room.Timer)
	assert.True(t, room.timerOn)
	assert.Empty(t, room.WinnerID)
	for _, p := range room.Players {
		assert.Nil(t, p.TargetImage)
		assert.False(t, p.HasGuessed)
		assert.Empty(t, p.SelectedCategory)
		assert.Equal(t, 0, p.HintCount)
		assert.False(t, p.QuickGuessUsed)
	}
	// Session-era progress survives into the rematch.
	assert.Equal(t, 1, room.playerByID("p1").Streak)
	assert.Equal(t, 100, room.playerByID("p1").XP)
}

func TestPlayAgain_IgnoredMidGame(t *testing.T) {
	_, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)

	room.playAgain()

	assert.Equal(t, StateDiscussion, room.GameState)
}

func TestWinnerStreakCompounds(t *testing.T) {
	h, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	// A pre-game streak of 2 means this win pays 100 + 2*10.
	room.playerByID("p1").Streak = 2
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}

	room.submitGuess("p1", "كشري")

	winner := room.playerByID("p1")
	assert.Equal(t, 120, winner.XP)
	assert.Equal(t, 3, winner.Streak)
	loser := room.playerByID("p2")
	assert.Equal(t, 520, loser.XP)
	assert.Equal(t, 0, loser.Streak)

	r1, _ := h.directory.Get(h.sessionSerials["p1"])
	r2, _ := h.directory.Get(h.sessionSerials["p2"])
	assert.Equal(t, 120, r1.XP)
	assert.Equal(t, 520, r2.XP)
}

func TestLeaveRoom_MidGameTearsDown(t *testing.T) {
	h, _, s2, room := setupJoinedRoom(t)
	startFoodGame(t, room)

	h.leaveRoom(room, "p1", false)

	_, exists := h.rooms["room1"]
	assert.False(t, exists)
	p, ok := s2.lastOfType(PacketGameStopped)
	require.True(t, ok)
	assert.Equal(t, "غادر Ahmed الغرفة", p.Data.(GameStoppedData).Reason)
}

func TestLeaveRoom_DisconnectHasItsOwnReason(t *testing.T) {
	h, _, s2, room := setupJoinedRoom(t)
	startFoodGame(t, room)

	h.leaveRoom(room, "p1", true)

	p, ok := s2.lastOfType(PacketGameStopped)
	require.True(t, ok)
	assert.Equal(t, "انقطع اتصال Ahmed", p.Data.(GameStoppedData).Reason)
}

func TestLeaveRoom_LobbyLeaveTearsDown(t *testing.T) {
	h, _, s2, room := setupJoinedRoom(t)

	h.leaveRoom(room, "p1", false)

	_, exists := h.rooms["room1"]
	assert.False(t, exists, "a waiting room dies with the departure")
	assert.Len(t, s2.byType(PacketOpponentLeft), 1)
	assert.Empty(t, s2.byType(PacketGameStopped))
}

func TestLeaveRoom_FinishedRoomSurvivesUntilEmpty(t *testing.T) {
	h, _, s2, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}
	room.submitGuess("p1", "كشري")
	require.Equal(t, StateFinished, room.GameState)
	s2.reset()

	h.leaveRoom(room, "p1", false)

	_, exists := h.rooms["room1"]
	assert.True(t, exists, "result screen stays up for the other player")
	assert.Len(t, room.Players, 1)
	assert.Len(t, s2.byType(PacketRoomUpdate), 1)

	h.leaveRoom(room, "p2", false)

	_, exists = h.rooms["room1"]
	assert.False(t, exists)
}

func TestJoinRoom_StreakCarriesIntoNextRoom(t *testing.T) {
	h, _, _, room := setupJoinedRoom(t)
	startFoodGame(t, room)
	room.GameState = StateGuessing
	room.playerByID("p1").TargetImage = &CategoryItem{Name: "كشري"}
	room.submitGuess("p1", "كشري")
	streak := room.playerByID("p1").Streak
	require.Equal(t, 1, streak)
	h.leaveRoom(room, "p1", false)

	h.handleJoinRoom("p1", "room2", 20, streak, time.Now())

	next := h.rooms["room2"]
	require.NotNil(t, next)
	joined := next.playerByID("p1")
	require.NotNil(t, joined)
	assert.Equal(t, 1, joined.Streak, "the run survives the room change")
	assert.Equal(t, 100, joined.XP, "xp still comes from the directory record")
}
