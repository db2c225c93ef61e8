// internal/deck/builtin_test.go
package deck

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blanksgame/blanks/internal/models"
)

func TestStaticSourcePackFilter(t *testing.T) {
	s := NewStaticSource()
	extra := s.AddPack("Extra", "test pack", []string{"p1", "p2"}, []string{"r1", "r2", "r3"})

	packs, err := s.Packs(context.Background())
	require.NoError(t, err)
	require.Len(t, packs, 2)
	assert.Equal(t, "Starter", packs[0].Name)
	assert.Equal(t, "Extra", packs[1].Name)
	assert.Equal(t, 2, packs[1].BlackCount)
	assert.Equal(t, 3, packs[1].WhiteCount)

	cards, err := s.Cards(context.Background(), []uuid.UUID{extra})
	require.NoError(t, err)
	assert.Len(t, cards, 5)

	all, err := s.Cards(context.Background(), nil)
	require.NoError(t, err)
	assert.Greater(t, len(all), 5, "empty filter means every pack")
}

func TestStaticSourceMintsFreshIDs(t *testing.T) {
	s := NewStaticSource()

	first, err := s.Cards(context.Background(), nil)
	require.NoError(t, err)
	second, err := s.Cards(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))

	seen := make(map[uuid.UUID]bool, len(first))
	for _, c := range first {
		seen[c.ID] = true
	}
	for _, c := range second {
		assert.False(t, seen[c.ID], "rooms must not share card identity")
	}
}

func TestBuiltinPackSupportsAFullTable(t *testing.T) {
	s := NewStaticSource()
	cards, err := s.Cards(context.Background(), nil)
	require.NoError(t, err)

	black, white := 0, 0
	for _, c := range cards {
		switch c.Kind {
		case models.CardBlack:
			black++
			assert.Equal(t, 1, c.Pick)
		case models.CardWhite:
			white++
		}
		assert.NotEmpty(t, c.Text)
	}
	// enough to deal a minimum-size table full hands for several rounds
	assert.GreaterOrEqual(t, black, 10)
	assert.GreaterOrEqual(t, white, 50)
}
