// internal/game/room.go
package game

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blanksgame/blanks/internal/deck"
	"github.com/blanksgame/blanks/internal/models"
)

// Phase is a room's position in the round state machine.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseDealing    Phase = "dealing"
	PhaseSubmission Phase = "submission"
	PhaseJudging    Phase = "judging"
	PhaseRoundEnd   Phase = "round_end"
	PhaseGameEnd    Phase = "game_end"
)

// Submission pairs a player with their played card under a per-round
// anonymous id. The id is what the czar references; the player mapping
// never leaves the room until the winner is revealed.
type Submission struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Card     *models.Card
}

// Summary captures a finished game for the record queue.
type Summary struct {
	RoomID    uuid.UUID
	Rounds    int
	Reason    string
	Standings []Standing
	Winners   []EventPlayer
	EndedAt   time.Time
}

// Room owns one game session: its players in join order, its card pool, and
// the round state machine. Every mutating entry point takes the room mutex,
// so a room executes one action at a time; different rooms run fully
// independently. Methods named in lowerCamelCase assume the lock is held.
type Room struct {
	ID     uuid.UUID
	HostID uuid.UUID
	Config Config

	// PasswordHash is empty for public rooms. The gateway verifies it
	// before calling Join; the room itself never sees plaintext.
	PasswordHash string

	mu      sync.Mutex
	players []*models.Player
	pool    *deck.Pool
	cards   []*models.Card // original snapshot, used by Reset

	phase      Phase
	started    bool // Dealing has occurred at least once this game
	roundIndex int
	blackCard  *models.Card
	czarPos    int
	czarGone   bool // current czar left; czarPos already points at the successor
	endReason  string

	submissions  map[uuid.UUID]*Submission // by player id
	judgingOrder []*Submission
	pending      map[uuid.UUID]bool // mid-game joiners not yet dealt in

	deadline   time.Time
	timerEpoch int
	phaseTimer *time.Timer

	// BroadcastFn sends an event to every room member. Nil is tolerated.
	BroadcastFn func(ev Event)
	// BroadcastToPlayerFn sends an event to a single member (private data).
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)
	// OnGameEnd is invoked with the final summary when a game finishes.
	OnGameEnd func(s Summary)
	// OnEmpty is invoked when the room should leave the registry.
	OnEmpty func(roomID uuid.UUID)

	log *logrus.Entry
}

// NewRoom builds a room in Lobby with a pool loaded from the card snapshot.
// The host is not seated yet; callers seat them via Join.
func NewRoom(cfg Config, cards []*models.Card, logger *logrus.Logger) *Room {
	id, _ := uuid.NewV7()
	if logger == nil {
		logger = logrus.New()
	}
	return &Room{
		ID:          id,
		Config:      cfg,
		pool:        deck.New(cards),
		cards:       cards,
		phase:       PhaseLobby,
		submissions: make(map[uuid.UUID]*Submission),
		pending:     make(map[uuid.UUID]bool),
		log:         logger.WithField("room_id", id),
	}
}

// Join seats a new player. The first player becomes host. Fails with
// ErrRoomFull past the cap and ErrGameInProgress once Dealing has occurred,
// unless mid-game joins are configured on; mid-game joiners are dealt in at
// the next round.
func (r *Room) Join(name string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= r.Config.MaxPlayers {
		return nil, ErrRoomFull
	}
	if r.started && r.phase != PhaseGameEnd {
		if !r.Config.AllowMidGameJoins {
			return nil, ErrGameInProgress
		}
	}

	p, err := models.NewPlayer(name)
	if err != nil {
		return nil, err
	}
	r.players = append(r.players, p)
	if len(r.players) == 1 {
		r.HostID = p.ID
	}
	if r.started && r.phase != PhaseGameEnd {
		r.pending[p.ID] = true
	}

	r.log.WithFields(logrus.Fields{"player_id": p.ID, "name": name}).Info("player joined")
	r.fireEvent(Event{
		Type:    EventPlayerJoined,
		Player:  eventPlayer(p),
		Payload: map[string]interface{}{"playerCount": len(r.players)},
	})
	return p, nil
}

// Start begins the game. Host-only, Lobby-only, and at least MinPlayers
// must be seated.
func (r *Room) Start(requesterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if requesterID != r.HostID {
		return ErrNotAuthorized
	}
	if len(r.players) < r.Config.MinPlayers {
		return ErrNotEnoughPlayers
	}

	r.started = true
	r.czarPos = 0
	r.czarGone = false
	r.log.WithField("players", len(r.players)).Info("game started")
	r.startRound(true)
	return nil
}

// SubmitCard plays a white card from the requester's hand. Duplicate
// submissions are rejected rather than replaced: the reference behavior is
// contradictory here, and rejecting is the only policy that keeps pool
// accounting single-step.
func (r *Room) SubmitCard(playerID, cardID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseSubmission {
		return ErrWrongPhase
	}
	p := r.playerByID(playerID)
	if p == nil || r.pending[playerID] {
		return ErrNotAuthorized
	}
	if playerID == r.czarID() {
		return ErrNotAuthorized
	}
	if _, dup := r.submissions[playerID]; dup {
		return ErrDuplicateSubmission
	}

	card, err := r.pool.Submit(playerID, cardID)
	if err != nil {
		return ErrUnknownCard
	}
	r.recordSubmission(playerID, card)
	r.maybeBeginJudging()
	return nil
}

// SelectWinner resolves the round. Czar-only; the submission reference must
// be one of this round's anonymized ids.
func (r *Room) SelectWinner(requesterID, submissionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseJudging {
		return ErrWrongPhase
	}
	if requesterID != r.czarID() {
		return ErrNotAuthorized
	}
	for _, sub := range r.judgingOrder {
		if sub.ID == submissionID {
			r.resolveWinner(sub, false)
			return nil
		}
	}
	return ErrUnknownCard
}

// Leave removes a player. It is idempotent: a duplicate disconnect for an
// already-removed player is a no-op. Mid-round departures discard the
// player's cards; a departing czar forces a round advance, and dropping
// below the minimum ends the game with no winner.
func (r *Room) Leave(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	p := r.players[idx]
	wasCzar := r.started && r.phase != PhaseLobby && r.phase != PhaseGameEnd && playerID == r.czarID()

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.pending, playerID)
	delete(r.submissions, playerID)
	r.pool.DiscardPlayer(playerID)
	if idx < r.czarPos {
		r.czarPos--
	} else if idx == r.czarPos {
		// successor is now at czarPos; rotation must not skip them
		r.czarGone = true
		if r.czarPos >= len(r.players) {
			r.czarPos = 0
		}
	}
	if playerID == r.HostID && len(r.players) > 0 {
		r.HostID = r.players[0].ID
	}

	r.log.WithFields(logrus.Fields{"player_id": playerID, "name": p.Name}).Info("player left")
	r.fireEvent(Event{
		Type:    EventPlayerLeft,
		Player:  eventPlayer(p),
		Payload: map[string]interface{}{"playerCount": len(r.players)},
	})

	if len(r.players) == 0 {
		r.teardown()
		return
	}

	gameActive := r.started && r.phase != PhaseLobby && r.phase != PhaseGameEnd
	switch {
	case gameActive && len(r.players) < r.Config.MinPlayers:
		r.endGame("not enough players")
	case wasCzar && (r.phase == PhaseSubmission || r.phase == PhaseJudging):
		r.forceRoundAdvance()
	case r.phase == PhaseSubmission:
		// the departed player's pending submission may have been the last
		// one outstanding
		r.maybeBeginJudging()
	}
}

// Reset returns a finished room to Lobby for a rematch: fresh pool, zeroed
// scores, same seats. Any remaining player may request it.
func (r *Room) Reset(requesterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseGameEnd {
		return ErrWrongPhase
	}
	if r.playerByID(requesterID) == nil {
		return ErrNotAuthorized
	}

	r.cancelTimer()
	r.pool = deck.New(r.cards)
	for _, p := range r.players {
		p.Score = 0
	}
	r.phase = PhaseLobby
	r.started = false
	r.roundIndex = 0
	r.blackCard = nil
	r.czarPos = 0
	r.czarGone = false
	r.endReason = ""
	r.submissions = make(map[uuid.UUID]*Submission)
	r.judgingOrder = nil
	r.pending = make(map[uuid.UUID]bool)

	r.log.Info("room reset for rematch")
	r.fireEvent(Event{Type: EventRoomReset, Payload: map[string]interface{}{
		"playerCount": len(r.players),
	}})
	return nil
}

// Chat relays a member's chat line to the whole room.
func (r *Room) Chat(playerID uuid.UUID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotAuthorized
	}
	r.fireEvent(Event{
		Type:   EventChat,
		Player: eventPlayer(p),
		Payload: map[string]interface{}{
			"msg": msg,
			"ts":  time.Now().Unix(),
		},
	})
	return nil
}

// --- round machinery; lock held below this line ---

// startRound runs the Dealing phase: rotate the czar, draw a black card,
// top up hands, then open Submission under the deadline timer.
func (r *Room) startRound(first bool) {
	r.phase = PhaseDealing
	r.judgingOrder = nil
	r.submissions = make(map[uuid.UUID]*Submission)

	// mid-game joiners are dealt in from this round on
	for id := range r.pending {
		delete(r.pending, id)
	}

	if !first {
		if r.czarGone {
			r.czarGone = false
			// czarPos already points at the next player in join order
		} else {
			r.czarPos = (r.czarPos + 1) % len(r.players)
		}
	}
	czar := r.players[r.czarPos]

	black, err := r.pool.DrawBlack()
	if err != nil {
		r.log.Warn("black deck exhausted, ending game")
		r.endGame("no cards remaining")
		return
	}
	r.blackCard = black
	r.roundIndex++

	for _, p := range r.players {
		hand := r.pool.Hand(p.ID)
		need := r.Config.HandSize - len(hand)
		if need <= 0 {
			continue
		}
		drawn := r.pool.DrawWhite(need, p.ID)
		if len(drawn) < need && !r.Config.AllowShortHands {
			r.log.Warn("white deck exhausted, ending game")
			r.endGame("no cards remaining")
			return
		}
	}

	r.phase = PhaseSubmission
	r.log.WithFields(logrus.Fields{
		"round":   r.roundIndex,
		"czar_id": czar.ID,
	}).Info("round started")

	r.fireEvent(Event{
		Type:   EventRoundStarted,
		Player: eventPlayer(czar),
		Card:   eventCard(black),
		Payload: map[string]interface{}{
			"round":    r.roundIndex,
			"deadline": int(r.Config.SubmissionTime.Seconds()),
		},
	})
	for _, p := range r.players {
		r.fireEventToPlayer(p.ID, Event{
			Type:  EventHandDealt,
			Cards: eventCards(r.pool.Hand(p.ID)),
		})
	}

	r.scheduleTimer(r.Config.SubmissionTime, true, r.submissionTimeout)
}

func (r *Room) recordSubmission(playerID uuid.UUID, card *models.Card) {
	id, _ := uuid.NewV7()
	r.submissions[playerID] = &Submission{ID: id, PlayerID: playerID, Card: card}
	r.fireEvent(Event{
		Type: EventSubmissionCount,
		Payload: map[string]interface{}{
			"submitted": len(r.submissions),
			"expected":  r.expectedSubmitters(),
		},
	})
}

// expectedSubmitters counts players who owe a submission this round.
func (r *Room) expectedSubmitters() int {
	n := 0
	for _, p := range r.players {
		if p.ID != r.czarID() && !r.pending[p.ID] {
			n++
		}
	}
	return n
}

func (r *Room) maybeBeginJudging() {
	if r.phase == PhaseSubmission && len(r.submissions) >= r.expectedSubmitters() {
		r.beginJudging()
	}
}

// submissionTimeout fires when the submission deadline lapses: every player
// who owes a card has a random one played for them. Degraded path, logged,
// never surfaced as an error.
func (r *Room) submissionTimeout() {
	if r.phase != PhaseSubmission {
		return
	}
	for _, p := range r.players {
		if p.ID == r.czarID() || r.pending[p.ID] {
			continue
		}
		if _, ok := r.submissions[p.ID]; ok {
			continue
		}
		hand := r.pool.Hand(p.ID)
		if len(hand) == 0 {
			continue
		}
		card := hand[randIntn(len(hand))]
		if played, err := r.pool.Submit(p.ID, card.ID); err == nil {
			r.log.WithField("player_id", p.ID).Info("auto-submitted card on deadline")
			r.recordSubmission(p.ID, played)
		}
	}
	r.beginJudging()
}

// beginJudging cancels the submission timer, shuffles the accepted
// submissions into an anonymized order, and opens the judging window.
func (r *Room) beginJudging() {
	r.cancelTimer()
	r.phase = PhaseJudging

	r.judgingOrder = make([]*Submission, 0, len(r.submissions))
	for _, sub := range r.submissions {
		r.judgingOrder = append(r.judgingOrder, sub)
	}
	// map order is already unspecified, but shuffle explicitly so the czar
	// cannot infer identity from presentation order
	shuffleSubmissions(r.judgingOrder)

	anon := make([]EventSubmission, 0, len(r.judgingOrder))
	for _, sub := range r.judgingOrder {
		anon = append(anon, EventSubmission{ID: sub.ID, Card: *eventCard(sub.Card)})
	}
	r.fireEvent(Event{
		Type:        EventJudgingStarted,
		Submissions: anon,
		Payload: map[string]interface{}{
			"deadline": int(r.Config.JudgingTime.Seconds()),
		},
	})

	r.scheduleTimer(r.Config.JudgingTime, true, r.judgingTimeout)
}

// judgingTimeout picks a uniformly-random winner so the room never stalls
// on an absent czar.
func (r *Room) judgingTimeout() {
	if r.phase != PhaseJudging {
		return
	}
	if len(r.judgingOrder) == 0 {
		r.finishRound()
		return
	}
	sub := r.judgingOrder[randIntn(len(r.judgingOrder))]
	r.log.WithField("player_id", sub.PlayerID).Info("auto-selected winner on deadline")
	r.resolveWinner(sub, true)
}

// resolveWinner scores the round, reveals the winning card, retires the
// round's cards, and either ends the game or schedules the next round.
func (r *Room) resolveWinner(sub *Submission, auto bool) {
	winner := r.playerByID(sub.PlayerID)
	if winner != nil {
		winner.Score++
	}

	ev := Event{
		Type: EventRoundWinner,
		Card: eventCard(sub.Card),
		Payload: map[string]interface{}{
			"round": r.roundIndex,
			"auto":  auto,
		},
	}
	if winner != nil {
		ev.Player = eventPlayer(winner)
		ev.Payload["score"] = winner.Score
	}
	if r.blackCard != nil {
		ev.Payload["blackCard"] = eventCard(r.blackCard)
	}
	r.fireEvent(ev)

	r.pool.DiscardSubmissions()
	r.pool.DiscardBlack(r.blackCard)
	r.blackCard = nil

	if winner != nil && winner.Score >= r.Config.PointsToWin {
		r.endGame("")
		return
	}
	r.finishRound()
}

// finishRound holds the room in RoundEnd for the display delay, then deals
// the next round.
func (r *Room) finishRound() {
	r.cancelTimer()
	if r.blackCard != nil {
		r.pool.DiscardBlack(r.blackCard)
		r.blackCard = nil
	}
	r.pool.DiscardSubmissions()
	r.phase = PhaseRoundEnd
	r.fireEvent(Event{Type: EventRoundEnd, Payload: map[string]interface{}{
		"round":     r.roundIndex,
		"nextRound": int(r.Config.RoundEndDelay.Seconds()),
	}})
	r.scheduleTimer(r.Config.RoundEndDelay, false, func() {
		if r.phase == PhaseRoundEnd {
			r.startRound(false)
		}
	})
}

// forceRoundAdvance handles a departing czar: resolve with a random winner
// if anything was submitted, otherwise skip straight to the next round.
func (r *Room) forceRoundAdvance() {
	r.cancelTimer()
	if len(r.submissions) > 0 {
		if r.judgingOrder == nil {
			for _, sub := range r.submissions {
				r.judgingOrder = append(r.judgingOrder, sub)
			}
		}
		sub := r.judgingOrder[randIntn(len(r.judgingOrder))]
		r.log.WithField("player_id", sub.PlayerID).Info("czar left, auto-resolving round")
		r.resolveWinner(sub, true)
		return
	}
	r.log.Info("czar left with no submissions, skipping round")
	r.finishRound()
}

// endGame freezes the machine, broadcasts final standings, and starts the
// teardown grace timer. Winners are only declared when someone actually
// reached the threshold; early endings (player loss, empty deck) have none.
func (r *Room) endGame(reason string) {
	r.cancelTimer()
	r.phase = PhaseGameEnd
	r.endReason = reason

	standings := r.standings()
	var winners []EventPlayer
	if reason == "" && len(standings) > 0 {
		top := standings[0].Score
		for _, s := range standings {
			if s.Score == top && s.Score >= r.Config.PointsToWin {
				winners = append(winners, s.Player)
			}
		}
	}

	r.log.WithFields(logrus.Fields{
		"rounds": r.roundIndex,
		"reason": reason,
	}).Info("game ended")

	payload := map[string]interface{}{"rounds": r.roundIndex}
	if reason != "" {
		payload["reason"] = reason
	}
	r.fireEvent(Event{
		Type:      EventGameEnded,
		Standings: standings,
		Winners:   winners,
		Payload:   payload,
	})

	if r.OnGameEnd != nil {
		r.OnGameEnd(Summary{
			RoomID:    r.ID,
			Rounds:    r.roundIndex,
			Reason:    reason,
			Standings: standings,
			Winners:   winners,
			EndedAt:   time.Now(),
		})
	}

	if r.Config.TeardownGrace > 0 {
		r.scheduleTimer(r.Config.TeardownGrace, false, func() {
			if r.phase == PhaseGameEnd {
				r.teardown()
			}
		})
	}
}

// standings sorts players by score descending, ties broken by join order.
func (r *Room) standings() []Standing {
	idx := make(map[uuid.UUID]int, len(r.players))
	out := make([]Standing, 0, len(r.players))
	for i, p := range r.players {
		idx[p.ID] = i
		out = append(out, Standing{Player: *eventPlayer(p), Score: p.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return idx[out[i].Player.ID] < idx[out[j].Player.ID]
	})
	return out
}

func (r *Room) teardown() {
	r.cancelTimer()
	if r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

func (r *Room) czarID() uuid.UUID {
	if !r.started || len(r.players) == 0 || r.czarPos >= len(r.players) || r.czarGone {
		return uuid.Nil
	}
	return r.players[r.czarPos].ID
}

func (r *Room) playerByID(id uuid.UUID) *models.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) fireEvent(ev Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

func (r *Room) fireEventToPlayer(playerID uuid.UUID, ev Event) {
	if r.BroadcastToPlayerFn != nil {
		r.BroadcastToPlayerFn(playerID, ev)
	}
}
