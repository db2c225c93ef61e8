// internal/deck/pool.go
package deck

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/blanksgame/blanks/internal/models"
)

// ErrPoolExhausted is returned when a black-card draw finds the deck empty.
// White-card draws never return it; they fill as far as the deck allows.
var ErrPoolExhausted = errors.New("card pool exhausted")

// ErrCardNotHeld is returned when a move names a card outside the expected
// partition (e.g. submitting a card the player does not hold).
var ErrCardNotHeld = errors.New("card not in expected partition")

// Pool is a room's card multiset, partitioned into deck, the in-play black
// card, per-player hands, per-player submissions, and a terminal discard
// bucket. Every card loaded into the pool sits in exactly one partition at
// a time; the total count is constant for the pool's lifetime. The pool
// does no locking of its own; the owning room serializes access.
type Pool struct {
	rng *rand.Rand

	deckBlack   []*models.Card
	deckWhite   []*models.Card
	blackInPlay []*models.Card
	hands       map[uuid.UUID][]*models.Card
	submitted   map[uuid.UUID]*models.Card
	discarded   []*models.Card

	total int
}

// New builds a pool from a loaded card snapshot. The slice is copied; the
// caller keeps ownership of its own slice.
func New(cards []*models.Card) *Pool {
	p := &Pool{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		hands:     make(map[uuid.UUID][]*models.Card),
		submitted: make(map[uuid.UUID]*models.Card),
		total:     len(cards),
	}
	for _, c := range cards {
		if c.Kind == models.CardBlack {
			p.deckBlack = append(p.deckBlack, c)
		} else {
			p.deckWhite = append(p.deckWhite, c)
		}
	}
	return p
}

// DrawBlack moves one uniformly-random black card from the deck into the
// in-play partition, where it stays until DiscardBlack retires it.
func (p *Pool) DrawBlack() (*models.Card, error) {
	if len(p.deckBlack) == 0 {
		return nil, ErrPoolExhausted
	}
	i := p.rng.Intn(len(p.deckBlack))
	c := p.deckBlack[i]
	p.deckBlack[i] = p.deckBlack[len(p.deckBlack)-1]
	p.deckBlack = p.deckBlack[:len(p.deckBlack)-1]
	p.blackInPlay = append(p.blackInPlay, c)
	return c, nil
}

// DrawWhite moves up to n uniformly-random white cards from the deck into
// the player's hand. Returns the drawn cards; fewer than n means the deck
// ran dry. It never errors on a partial fill.
func (p *Pool) DrawWhite(n int, playerID uuid.UUID) []*models.Card {
	drawn := make([]*models.Card, 0, n)
	for len(drawn) < n && len(p.deckWhite) > 0 {
		i := p.rng.Intn(len(p.deckWhite))
		c := p.deckWhite[i]
		p.deckWhite[i] = p.deckWhite[len(p.deckWhite)-1]
		p.deckWhite = p.deckWhite[:len(p.deckWhite)-1]
		drawn = append(drawn, c)
	}
	p.hands[playerID] = append(p.hands[playerID], drawn...)
	return drawn
}

// Hand returns the player's current hand. The returned slice is the pool's
// own; callers must not mutate it.
func (p *Pool) Hand(playerID uuid.UUID) []*models.Card {
	return p.hands[playerID]
}

// handHolds reports whether the player currently holds the card.
func (p *Pool) handHolds(playerID, cardID uuid.UUID) bool {
	for _, c := range p.hands[playerID] {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// Submit moves a card from the player's hand to their submitted slot and
// returns it. The card must be in the hand and the slot must be empty; the
// owning room enforces the one-submission-per-round policy before calling.
func (p *Pool) Submit(playerID, cardID uuid.UUID) (*models.Card, error) {
	hand := p.hands[playerID]
	for i, c := range hand {
		if c.ID == cardID {
			p.hands[playerID] = append(hand[:i], hand[i+1:]...)
			p.submitted[playerID] = c
			return c, nil
		}
	}
	return nil, ErrCardNotHeld
}

// Submitted returns the player's submitted card for this round, or nil.
func (p *Pool) Submitted(playerID uuid.UUID) *models.Card {
	return p.submitted[playerID]
}

// DiscardSubmissions moves every submitted card to the discard bucket.
// Discarded cards never return to the deck; per-session decks are finite.
func (p *Pool) DiscardSubmissions() {
	for id, c := range p.submitted {
		p.discarded = append(p.discarded, c)
		delete(p.submitted, id)
	}
}

// DiscardBlack retires a played black card from the in-play partition.
// Retiring a card twice is a no-op.
func (p *Pool) DiscardBlack(c *models.Card) {
	if c == nil {
		return
	}
	for i, b := range p.blackInPlay {
		if b.ID == c.ID {
			p.blackInPlay = append(p.blackInPlay[:i], p.blackInPlay[i+1:]...)
			p.discarded = append(p.discarded, c)
			return
		}
	}
}

// DiscardPlayer retires a departing player's hand and pending submission.
func (p *Pool) DiscardPlayer(playerID uuid.UUID) {
	p.discarded = append(p.discarded, p.hands[playerID]...)
	delete(p.hands, playerID)
	if c, ok := p.submitted[playerID]; ok {
		p.discarded = append(p.discarded, c)
		delete(p.submitted, playerID)
	}
}

// BlackRemaining returns the number of black cards still in the deck.
func (p *Pool) BlackRemaining() int { return len(p.deckBlack) }

// WhiteRemaining returns the number of white cards still in the deck.
func (p *Pool) WhiteRemaining() int { return len(p.deckWhite) }

// Total returns the originally loaded card count.
func (p *Pool) Total() int { return p.total }

// Accounted sums every partition. It equals Total for a healthy pool; the
// conservation tests lean on it.
func (p *Pool) Accounted() int {
	n := len(p.deckBlack) + len(p.deckWhite) + len(p.blackInPlay) + len(p.discarded) + len(p.submitted)
	for _, hand := range p.hands {
		n += len(hand)
	}
	return n
}
