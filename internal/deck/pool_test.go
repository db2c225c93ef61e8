// internal/deck/pool_test.go
package deck

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blanksgame/blanks/internal/models"
)

func testCards(black, white int) []*models.Card {
	cards := make([]*models.Card, 0, black+white)
	for i := 0; i < black; i++ {
		id, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: id, Text: "black prompt", Kind: models.CardBlack, Pick: 1})
	}
	for i := 0; i < white; i++ {
		id, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: id, Text: "white response", Kind: models.CardWhite})
	}
	return cards
}

func TestPoolConservation(t *testing.T) {
	p := New(testCards(5, 20))
	playerA, _ := uuid.NewV7()
	playerB, _ := uuid.NewV7()

	require.Equal(t, 25, p.Total())
	require.Equal(t, p.Total(), p.Accounted())

	black, err := p.DrawBlack()
	require.NoError(t, err)
	require.NotNil(t, black)
	assert.Equal(t, p.Total(), p.Accounted(), "draw must not lose the black card")

	p.DrawWhite(10, playerA)
	p.DrawWhite(10, playerB)
	assert.Len(t, p.Hand(playerA), 10)
	assert.Len(t, p.Hand(playerB), 10)
	assert.Equal(t, 0, p.WhiteRemaining())
	assert.Equal(t, p.Total(), p.Accounted())

	card := p.Hand(playerA)[0]
	played, err := p.Submit(playerA, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, played.ID)
	assert.Len(t, p.Hand(playerA), 9)
	assert.Equal(t, played, p.Submitted(playerA))
	assert.Equal(t, p.Total(), p.Accounted())

	p.DiscardSubmissions()
	p.DiscardBlack(black)
	assert.Nil(t, p.Submitted(playerA))
	assert.Equal(t, p.Total(), p.Accounted())

	p.DiscardPlayer(playerB)
	assert.Empty(t, p.Hand(playerB))
	assert.Equal(t, p.Total(), p.Accounted())
}

func TestPoolNoDuplicateDraws(t *testing.T) {
	p := New(testCards(10, 40))
	playerA, _ := uuid.NewV7()
	playerB, _ := uuid.NewV7()

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 10; i++ {
		c, err := p.DrawBlack()
		require.NoError(t, err)
		require.False(t, seen[c.ID], "black card drawn twice")
		seen[c.ID] = true
	}
	for _, c := range p.DrawWhite(20, playerA) {
		require.False(t, seen[c.ID], "white card drawn twice")
		seen[c.ID] = true
	}
	for _, c := range p.DrawWhite(20, playerB) {
		require.False(t, seen[c.ID], "white card drawn twice")
		seen[c.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestPoolBlackInPlayStaysAccounted(t *testing.T) {
	p := New(testCards(2, 0))

	black, err := p.DrawBlack()
	require.NoError(t, err)
	assert.Equal(t, 1, p.BlackRemaining())
	assert.Equal(t, p.Total(), p.Accounted(), "a drawn black card belongs to the in-play partition")

	p.DiscardBlack(black)
	assert.Equal(t, p.Total(), p.Accounted())

	// retiring the same card again must not double count it
	p.DiscardBlack(black)
	assert.Equal(t, p.Total(), p.Accounted())
}

func TestPoolBlackExhaustion(t *testing.T) {
	p := New(testCards(1, 0))

	_, err := p.DrawBlack()
	require.NoError(t, err)

	_, err = p.DrawBlack()
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolWhitePartialFill(t *testing.T) {
	p := New(testCards(0, 3))
	playerID, _ := uuid.NewV7()

	drawn := p.DrawWhite(10, playerID)
	assert.Len(t, drawn, 3, "draw fills as far as the deck allows")
	assert.Len(t, p.Hand(playerID), 3)
	assert.Equal(t, 0, p.WhiteRemaining())

	drawn = p.DrawWhite(5, playerID)
	assert.Empty(t, drawn)
	assert.Equal(t, p.Total(), p.Accounted())
}

func TestPoolSubmitRequiresHeldCard(t *testing.T) {
	p := New(testCards(0, 5))
	playerA, _ := uuid.NewV7()
	playerB, _ := uuid.NewV7()
	p.DrawWhite(5, playerA)

	// a card the submitter does not hold
	stray, _ := uuid.NewV7()
	_, err := p.Submit(playerA, stray)
	assert.ErrorIs(t, err, ErrCardNotHeld)

	// another player's card
	held := p.Hand(playerA)[0]
	_, err = p.Submit(playerB, held.ID)
	assert.ErrorIs(t, err, ErrCardNotHeld)

	assert.Len(t, p.Hand(playerA), 5, "failed submits must not mutate the hand")
	assert.Equal(t, p.Total(), p.Accounted())
}

func TestPoolDiscardIsTerminal(t *testing.T) {
	p := New(testCards(0, 4))
	playerID, _ := uuid.NewV7()
	p.DrawWhite(4, playerID)

	card := p.Hand(playerID)[0]
	_, err := p.Submit(playerID, card.ID)
	require.NoError(t, err)
	p.DiscardSubmissions()

	// discarded cards never come back to the deck
	assert.Equal(t, 0, p.WhiteRemaining())
	drawn := p.DrawWhite(1, playerID)
	assert.Empty(t, drawn)
	assert.False(t, p.handHolds(playerID, card.ID))
	assert.Equal(t, p.Total(), p.Accounted())
}
