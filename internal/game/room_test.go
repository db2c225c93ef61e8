// internal/game/room_test.go
package game

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blanksgame/blanks/internal/models"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []Event
	playerEvents map[uuid.UUID][]Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]Event),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = nil
	mb.playerEvents = make(map[uuid.UUID][]Event)
}

func (mb *mockBroadcaster) lastEvent() *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

// lastOfType returns the most recent broadcast of the given type, or nil.
func (mb *mockBroadcaster) lastOfType(t EventType) *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.allEvents) - 1; i >= 0; i-- {
		if mb.allEvents[i].Type == t {
			return &mb.allEvents[i]
		}
	}
	return nil
}

func (mb *mockBroadcaster) countOfType(t EventType) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := 0
	for _, ev := range mb.allEvents {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (mb *mockBroadcaster) lastPlayerEvent(playerID uuid.UUID) *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[playerID]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

func makeCards(black, white int) []*models.Card {
	cards := make([]*models.Card, 0, black+white)
	for i := 0; i < black; i++ {
		id, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: id, Text: "prompt", Kind: models.CardBlack, Pick: 1})
	}
	for i := 0; i < white; i++ {
		id, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: id, Text: "response", Kind: models.CardWhite})
	}
	return cards
}

// testConfig keeps the real-time knobs out of the way unless a test
// shortens them on purpose.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SubmissionTime = time.Hour
	cfg.JudgingTime = time.Hour
	cfg.RoundEndDelay = time.Hour
	cfg.TeardownGrace = time.Hour
	return cfg
}

// setupTestRoom seats numPlayers into a fresh room with a mock broadcaster.
func setupTestRoom(t *testing.T, numPlayers int, cfg Config) (*Room, []*models.Player, *mockBroadcaster) {
	t.Helper()
	r := NewRoom(cfg, makeCards(30, 200), nil)
	mb := newMockBroadcaster()
	r.BroadcastFn = mb.broadcastFn
	r.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	players := make([]*models.Player, numPlayers)
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	for i := 0; i < numPlayers; i++ {
		p, err := r.Join(names[i%len(names)])
		require.NoError(t, err)
		players[i] = p
	}
	mb.clear()
	return r, players, mb
}

// The room lock serializes all state; tests read through it so they stay
// clean under the race detector while timers run.
func roomPhase(r *Room) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func roomCzar(r *Room) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.czarID()
}

func playerHand(r *Room, playerID uuid.UUID) []*models.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Card(nil), r.pool.Hand(playerID)...)
}

func playerScore(r *Room, playerID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.playerByID(playerID); p != nil {
		return p.Score
	}
	return -1
}

func poolBalanced(r *Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pool.Accounted() == r.pool.Total()
}

// submitAllButCzar plays the first card in every non-czar hand.
func submitAllButCzar(t *testing.T, r *Room, players []*models.Player) {
	t.Helper()
	czar := roomCzar(r)
	for _, p := range players {
		if p.ID == czar {
			continue
		}
		hand := playerHand(r, p.ID)
		require.NotEmpty(t, hand)
		require.NoError(t, r.SubmitCard(p.ID, hand[0].ID))
	}
}

func TestStartValidation(t *testing.T) {
	r, players, _ := setupTestRoom(t, 2, testConfig())
	host := players[0]

	assert.ErrorIs(t, r.Start(host.ID), ErrNotEnoughPlayers)

	third, err := r.Join("carol")
	require.NoError(t, err)

	assert.ErrorIs(t, r.Start(third.ID), ErrNotAuthorized, "only the host may start")
	require.NoError(t, r.Start(host.ID))
	assert.ErrorIs(t, r.Start(host.ID), ErrWrongPhase, "start is lobby-only")
}

func TestStartDealsHandsAndSeatsCzar(t *testing.T) {
	r, players, mb := setupTestRoom(t, 3, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	assert.Equal(t, PhaseSubmission, roomPhase(r))
	assert.Equal(t, players[0].ID, roomCzar(r), "first czar is the first joiner")

	started := mb.lastOfType(EventRoundStarted)
	require.NotNil(t, started)
	require.NotNil(t, started.Player)
	assert.Equal(t, players[0].ID, started.Player.ID)
	require.NotNil(t, started.Card, "round start reveals the black card")
	assert.NotEmpty(t, started.Card.Text)

	for _, p := range players {
		assert.Len(t, playerHand(r, p.ID), r.Config.HandSize)
		dealt := mb.lastPlayerEvent(p.ID)
		require.NotNil(t, dealt, "every player gets a private hand event")
		assert.Equal(t, EventHandDealt, dealt.Type)
		assert.Len(t, dealt.Cards, r.Config.HandSize)
	}
	assert.True(t, poolBalanced(r))
}

func TestJoinAfterStart(t *testing.T) {
	r, players, _ := setupTestRoom(t, 3, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	_, err := r.Join("late")
	assert.ErrorIs(t, err, ErrGameInProgress)

	cfg := testConfig()
	cfg.AllowMidGameJoins = true
	r2, players2, _ := setupTestRoom(t, 3, cfg)
	require.NoError(t, r2.Start(players2[0].ID))

	late, err := r2.Join("late")
	require.NoError(t, err)
	assert.Empty(t, playerHand(r2, late.ID), "mid-game joiners wait for the next deal")

	hand := playerHand(r2, players2[1].ID)
	require.NotEmpty(t, hand)
	assert.ErrorIs(t, r2.SubmitCard(late.ID, hand[0].ID), ErrNotAuthorized,
		"a joiner with no dealt hand cannot submit this round")
}

func TestRoomFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 3
	r, _, _ := setupTestRoom(t, 3, cfg)

	_, err := r.Join("overflow")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestSubmitValidation(t *testing.T) {
	r, players, _ := setupTestRoom(t, 4, testConfig())
	czar, other := players[0], players[1]

	hand := playerHand(r, other.ID)
	assert.ErrorIs(t, r.SubmitCard(other.ID, uuid.Nil), ErrWrongPhase, "no submissions in lobby")
	assert.Empty(t, hand)

	require.NoError(t, r.Start(czar.ID))

	czarHand := playerHand(r, czar.ID)
	require.NotEmpty(t, czarHand)
	assert.ErrorIs(t, r.SubmitCard(czar.ID, czarHand[0].ID), ErrNotAuthorized, "the czar does not submit")
	assert.Len(t, playerHand(r, czar.ID), r.Config.HandSize, "rejected submit must not mutate the hand")

	stranger, _ := uuid.NewV7()
	assert.ErrorIs(t, r.SubmitCard(stranger, czarHand[0].ID), ErrNotAuthorized)

	strayCard, _ := uuid.NewV7()
	assert.ErrorIs(t, r.SubmitCard(other.ID, strayCard), ErrUnknownCard)
	assert.Len(t, playerHand(r, other.ID), r.Config.HandSize)

	otherHand := playerHand(r, other.ID)
	require.NoError(t, r.SubmitCard(other.ID, otherHand[0].ID))
	assert.ErrorIs(t, r.SubmitCard(other.ID, otherHand[1].ID), ErrDuplicateSubmission)
	assert.Len(t, playerHand(r, other.ID), r.Config.HandSize-1, "only the first submission leaves the hand")
	assert.True(t, poolBalanced(r))
}

func TestAllSubmissionsOpenJudgingEarly(t *testing.T) {
	r, players, mb := setupTestRoom(t, 4, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	submitAllButCzar(t, r, players)

	assert.Equal(t, PhaseJudging, roomPhase(r), "judging opens as soon as everyone has played")

	ev := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, ev)
	require.Len(t, ev.Submissions, 3)

	playerIDs := make(map[uuid.UUID]bool, len(players))
	for _, p := range players {
		playerIDs[p.ID] = true
	}
	for _, sub := range ev.Submissions {
		assert.False(t, playerIDs[sub.ID], "submission ids must not identify players")
		assert.NotEmpty(t, sub.Card.Text)
	}
}

func TestSubmissionCountNeverRevealsContent(t *testing.T) {
	r, players, mb := setupTestRoom(t, 4, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	hand := playerHand(r, players[1].ID)
	require.NoError(t, r.SubmitCard(players[1].ID, hand[0].ID))

	ev := mb.lastOfType(EventSubmissionCount)
	require.NotNil(t, ev)
	assert.Nil(t, ev.Card)
	assert.Nil(t, ev.Cards)
	assert.Nil(t, ev.Submissions)
	assert.Equal(t, 1, ev.Payload["submitted"])
	assert.Equal(t, 3, ev.Payload["expected"])
}

func TestSubmissionTimeoutAutoSubmits(t *testing.T) {
	cfg := testConfig()
	cfg.SubmissionTime = 50 * time.Millisecond
	r, players, mb := setupTestRoom(t, 3, cfg)
	require.NoError(t, r.Start(players[0].ID))

	require.Eventually(t, func() bool {
		return roomPhase(r) == PhaseJudging
	}, time.Second, 5*time.Millisecond, "deadline should force judging open")

	ev := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, ev)
	assert.Len(t, ev.Submissions, 2, "both non-czar players get a random card played")
	for _, p := range players[1:] {
		assert.Len(t, playerHand(r, p.ID), r.Config.HandSize-1)
	}
	assert.True(t, poolBalanced(r))
}

func TestSelectWinnerScoresRound(t *testing.T) {
	r, players, mb := setupTestRoom(t, 3, testConfig())
	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)

	judging := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, judging)
	pick := judging.Submissions[0].ID

	assert.ErrorIs(t, r.SelectWinner(players[1].ID, pick), ErrNotAuthorized, "only the czar judges")

	badPick, _ := uuid.NewV7()
	assert.ErrorIs(t, r.SelectWinner(players[0].ID, badPick), ErrUnknownCard)

	require.NoError(t, r.SelectWinner(players[0].ID, pick))
	assert.Equal(t, PhaseRoundEnd, roomPhase(r))

	win := mb.lastOfType(EventRoundWinner)
	require.NotNil(t, win)
	require.NotNil(t, win.Player)
	assert.Equal(t, 1, playerScore(r, win.Player.ID))
	assert.Equal(t, false, win.Payload["auto"])
	require.NotNil(t, win.Card, "winner reveal includes the card")
	assert.True(t, poolBalanced(r))

	assert.ErrorIs(t, r.SelectWinner(players[0].ID, pick), ErrWrongPhase, "a round resolves once")
}

func TestCzarRotatesBetweenRounds(t *testing.T) {
	cfg := testConfig()
	cfg.RoundEndDelay = 50 * time.Millisecond
	r, players, mb := setupTestRoom(t, 3, cfg)
	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)

	judging := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, judging)
	require.NoError(t, r.SelectWinner(players[0].ID, judging.Submissions[0].ID))

	require.Eventually(t, func() bool {
		return roomPhase(r) == PhaseSubmission
	}, time.Second, 5*time.Millisecond, "next round should deal after the delay")

	assert.Equal(t, players[1].ID, roomCzar(r), "czar advances in join order")
	for _, p := range players {
		assert.Len(t, playerHand(r, p.ID), r.Config.HandSize, "hands top back up each deal")
	}
}

func TestJudgingTimeoutPicksRandomWinner(t *testing.T) {
	cfg := testConfig()
	cfg.JudgingTime = 50 * time.Millisecond
	r, players, mb := setupTestRoom(t, 3, cfg)
	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)
	require.Equal(t, PhaseJudging, roomPhase(r))

	require.Eventually(t, func() bool {
		return roomPhase(r) == PhaseRoundEnd
	}, time.Second, 5*time.Millisecond, "deadline should resolve the round")

	win := mb.lastOfType(EventRoundWinner)
	require.NotNil(t, win)
	assert.Equal(t, true, win.Payload["auto"])
	require.NotNil(t, win.Player)
	assert.Equal(t, 1, playerScore(r, win.Player.ID))
}

func TestPointsThresholdEndsGame(t *testing.T) {
	cfg := testConfig()
	cfg.PointsToWin = 1
	r, players, mb := setupTestRoom(t, 3, cfg)
	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)

	judging := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, judging)
	require.NoError(t, r.SelectWinner(players[0].ID, judging.Submissions[0].ID))

	assert.Equal(t, PhaseGameEnd, roomPhase(r))

	ended := mb.lastOfType(EventGameEnded)
	require.NotNil(t, ended)
	require.Len(t, ended.Winners, 1)
	require.Len(t, ended.Standings, 3)
	assert.Equal(t, ended.Winners[0].ID, ended.Standings[0].Player.ID)
	assert.Equal(t, 1, ended.Standings[0].Score)
	assert.Equal(t, 0, ended.Standings[1].Score)
	_, hasReason := ended.Payload["reason"]
	assert.False(t, hasReason, "a won game carries no ending reason")
}

func TestCzarLeaveForcesRoundAdvance(t *testing.T) {
	r, players, mb := setupTestRoom(t, 4, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	hand := playerHand(r, players[1].ID)
	require.NoError(t, r.SubmitCard(players[1].ID, hand[0].ID))
	mb.clear()

	r.Leave(players[0].ID)

	win := mb.lastOfType(EventRoundWinner)
	require.NotNil(t, win, "a pending submission is auto-resolved when the czar leaves")
	assert.Equal(t, true, win.Payload["auto"])
	assert.Equal(t, players[1].ID, win.Player.ID)
	assert.Equal(t, PhaseRoundEnd, roomPhase(r))
	assert.True(t, poolBalanced(r))
}

func TestCzarLeaveWithNoSubmissionsSkipsRound(t *testing.T) {
	r, players, mb := setupTestRoom(t, 4, testConfig())
	require.NoError(t, r.Start(players[0].ID))
	mb.clear()

	r.Leave(players[0].ID)

	assert.Nil(t, mb.lastOfType(EventRoundWinner))
	assert.Equal(t, PhaseRoundEnd, roomPhase(r))
}

func TestSuccessorCzarNotSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.RoundEndDelay = 50 * time.Millisecond
	r, players, _ := setupTestRoom(t, 4, cfg)
	require.NoError(t, r.Start(players[0].ID))

	// the czar leaves mid-round; the next deal must seat their successor,
	// not skip past them
	r.Leave(players[0].ID)

	require.Eventually(t, func() bool {
		return roomPhase(r) == PhaseSubmission
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, players[1].ID, roomCzar(r))
}

func TestBelowMinimumEndsGame(t *testing.T) {
	r, players, mb := setupTestRoom(t, 3, testConfig())
	require.NoError(t, r.Start(players[0].ID))
	mb.clear()

	r.Leave(players[2].ID)

	assert.Equal(t, PhaseGameEnd, roomPhase(r))
	ended := mb.lastOfType(EventGameEnded)
	require.NotNil(t, ended)
	assert.Equal(t, "not enough players", ended.Payload["reason"])
	assert.Empty(t, ended.Winners, "an aborted game declares no winner")
	require.Len(t, ended.Standings, 2)
}

func TestLeaveIsIdempotent(t *testing.T) {
	r, players, mb := setupTestRoom(t, 4, testConfig())

	r.Leave(players[3].ID)
	r.Leave(players[3].ID)

	assert.Equal(t, 1, mb.countOfType(EventPlayerLeft), "duplicate disconnects are no-ops")
}

func TestLastSubmitterLeavingOpensJudging(t *testing.T) {
	r, players, _ := setupTestRoom(t, 4, testConfig())
	require.NoError(t, r.Start(players[0].ID))

	hand1 := playerHand(r, players[1].ID)
	require.NoError(t, r.SubmitCard(players[1].ID, hand1[0].ID))
	hand2 := playerHand(r, players[2].ID)
	require.NoError(t, r.SubmitCard(players[2].ID, hand2[0].ID))
	require.Equal(t, PhaseSubmission, roomPhase(r))

	// the only player still owing a card walks out
	r.Leave(players[3].ID)

	assert.Equal(t, PhaseJudging, roomPhase(r))
	assert.True(t, poolBalanced(r))
}

func TestHostReassignedOnLeave(t *testing.T) {
	r, players, _ := setupTestRoom(t, 3, testConfig())

	r.Leave(players[0].ID)

	r.mu.Lock()
	host := r.HostID
	r.mu.Unlock()
	assert.Equal(t, players[1].ID, host, "host passes to the next joiner")
	require.NoError(t, r.Start(players[1].ID), "the new host may start")
}

func TestEmptyRoomTearsDown(t *testing.T) {
	r, players, _ := setupTestRoom(t, 3, testConfig())
	var gone uuid.UUID
	r.OnEmpty = func(roomID uuid.UUID) { gone = roomID }

	for _, p := range players {
		r.Leave(p.ID)
	}
	assert.Equal(t, r.ID, gone)
}

func TestGameEndSummary(t *testing.T) {
	cfg := testConfig()
	cfg.PointsToWin = 1
	r, players, mb := setupTestRoom(t, 3, cfg)

	var summary *Summary
	r.OnGameEnd = func(s Summary) { summary = &s }

	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)
	judging := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, judging)
	require.NoError(t, r.SelectWinner(players[0].ID, judging.Submissions[0].ID))

	require.NotNil(t, summary)
	assert.Equal(t, r.ID, summary.RoomID)
	assert.Equal(t, 1, summary.Rounds)
	assert.Empty(t, summary.Reason)
	assert.Len(t, summary.Winners, 1)
	assert.Len(t, summary.Standings, 3)
	assert.False(t, summary.EndedAt.IsZero())
}

func TestResetForRematch(t *testing.T) {
	cfg := testConfig()
	cfg.PointsToWin = 1
	r, players, mb := setupTestRoom(t, 3, cfg)

	assert.ErrorIs(t, r.Reset(players[0].ID), ErrWrongPhase, "reset only applies to a finished game")

	require.NoError(t, r.Start(players[0].ID))
	submitAllButCzar(t, r, players)
	judging := mb.lastOfType(EventJudgingStarted)
	require.NotNil(t, judging)
	require.NoError(t, r.SelectWinner(players[0].ID, judging.Submissions[0].ID))
	require.Equal(t, PhaseGameEnd, roomPhase(r))

	stranger, _ := uuid.NewV7()
	assert.ErrorIs(t, r.Reset(stranger), ErrNotAuthorized)

	require.NoError(t, r.Reset(players[1].ID))
	assert.Equal(t, PhaseLobby, roomPhase(r))
	for _, p := range players {
		assert.Equal(t, 0, playerScore(r, p.ID))
		assert.Empty(t, playerHand(r, p.ID), "rematch starts from a fresh pool")
	}
	assert.True(t, poolBalanced(r))

	ev := mb.lastOfType(EventRoomReset)
	require.NotNil(t, ev)

	// the same seats play again
	require.NoError(t, r.Start(players[0].ID))
	assert.Equal(t, PhaseSubmission, roomPhase(r))
}

func TestChatRequiresMembership(t *testing.T) {
	r, players, mb := setupTestRoom(t, 3, testConfig())

	stranger, _ := uuid.NewV7()
	assert.ErrorIs(t, r.Chat(stranger, "hi"), ErrNotAuthorized)

	require.NoError(t, r.Chat(players[1].ID, "hello room"))
	ev := mb.lastOfType(EventChat)
	require.NotNil(t, ev)
	assert.Equal(t, players[1].ID, ev.Player.ID)
	assert.Equal(t, "hello room", ev.Payload["msg"])
}

func TestRoomsRunIndependently(t *testing.T) {
	r1, players1, _ := setupTestRoom(t, 3, testConfig())
	r2, _, mb2 := setupTestRoom(t, 3, testConfig())

	require.NoError(t, r1.Start(players1[0].ID))

	assert.Equal(t, PhaseLobby, roomPhase(r2), "starting one room must not touch another")
	assert.Nil(t, mb2.lastOfType(EventRoundStarted))
}

func TestCountdownTicksDuringSubmission(t *testing.T) {
	cfg := testConfig()
	cfg.SubmissionTime = 3 * time.Second
	r, players, mb := setupTestRoom(t, 3, cfg)
	require.NoError(t, r.Start(players[0].ID))

	require.Eventually(t, func() bool {
		return mb.countOfType(EventTimeRemaining) >= 1
	}, 2*time.Second, 50*time.Millisecond, "submission window should tick")

	ev := mb.lastOfType(EventTimeRemaining)
	require.NotNil(t, ev)
	assert.Contains(t, ev.Payload, "seconds")

	// entering judging stops the submission countdown
	submitAllButCzar(t, r, players)
	require.Equal(t, PhaseJudging, roomPhase(r))
}
