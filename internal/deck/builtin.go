// internal/deck/builtin.go
package deck

import (
	"context"

	"github.com/google/uuid"

	"github.com/blanksgame/blanks/internal/models"
)

// StaticSource serves cards from memory. It backs DB-less deployments and
// tests; the postgres pack store is the production source.
type StaticSource struct {
	packs map[uuid.UUID]staticPack
	order []uuid.UUID
}

type staticPack struct {
	pack  models.Pack
	cards []*models.Card
}

// NewStaticSource builds a source holding only the builtin starter pack.
func NewStaticSource() *StaticSource {
	s := &StaticSource{packs: make(map[uuid.UUID]staticPack)}
	s.AddPack("Starter", "Builtin starter pack", builtinBlack, builtinWhite)
	return s
}

// AddPack registers a pack from raw prompt/response texts and returns its id.
func (s *StaticSource) AddPack(name, description string, black, white []string) uuid.UUID {
	id, _ := uuid.NewV7()
	cards := make([]*models.Card, 0, len(black)+len(white))
	blackCount := 0
	for _, text := range black {
		cid, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: cid, Text: text, Kind: models.CardBlack, Pick: 1})
		blackCount++
	}
	for _, text := range white {
		cid, _ := uuid.NewV7()
		cards = append(cards, &models.Card{ID: cid, Text: text, Kind: models.CardWhite})
	}
	s.packs[id] = staticPack{
		pack: models.Pack{
			ID:          id,
			Name:        name,
			Description: description,
			BlackCount:  blackCount,
			WhiteCount:  len(cards) - blackCount,
		},
		cards: cards,
	}
	s.order = append(s.order, id)
	return id
}

// Packs lists the registered packs in registration order.
func (s *StaticSource) Packs(ctx context.Context) ([]models.Pack, error) {
	out := make([]models.Pack, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.packs[id].pack)
	}
	return out, nil
}

// Cards returns a fresh card snapshot for the requested packs; an empty
// filter means every pack. Each call mints new card ids so rooms never
// share card identity.
func (s *StaticSource) Cards(ctx context.Context, packIDs []uuid.UUID) ([]*models.Card, error) {
	ids := packIDs
	if len(ids) == 0 {
		ids = s.order
	}
	var out []*models.Card
	for _, id := range ids {
		p, ok := s.packs[id]
		if !ok {
			continue
		}
		for _, c := range p.cards {
			cid, _ := uuid.NewV7()
			out = append(out, &models.Card{ID: cid, Text: c.Text, Kind: c.Kind, Pick: c.Pick})
		}
	}
	return out, nil
}

// The builtin pack keeps a fresh server playable with nothing configured.
var builtinBlack = []string{
	"My new year's resolution: ____.",
	"What's that smell? ____.",
	"The secret to a long life is ____.",
	"I could not board the flight because of ____.",
	"Today's weather: sunny with a chance of ____.",
	"The museum's newest exhibit: a history of ____.",
	"Nothing ruins a road trip faster than ____.",
	"My autobiography will be titled '____'.",
	"The office banned ____ after last year's party.",
	"Scientists have finally discovered ____.",
	"Step 1: ____. Step 2: profit.",
	"The worst possible pizza topping is ____.",
	"My therapist says I rely too much on ____.",
	"Breaking news: local mayor spotted with ____.",
	"The real treasure was ____ all along.",
	"Next season's must-have accessory: ____.",
	"I survived the camping trip thanks to ____.",
	"The wifi password is ____.",
}

var builtinWhite = []string{
	"a suspiciously friendly pigeon",
	"an expired gym membership",
	"three raccoons in a trench coat",
	"the world's loudest keyboard",
	"a lifetime supply of glitter",
	"my neighbor's lawn gnome collection",
	"an unskippable ad",
	"decaf coffee",
	"a motivational poster of a cat",
	"the last slice of pizza",
	"an aggressively average sandwich",
	"interpretive dance",
	"a rubber duck with trust issues",
	"the office printer",
	"a fifty-page terms of service",
	"my search history",
	"a sock with a hole in it",
	"an all-kazoo marching band",
	"the snooze button",
	"a half-finished crossword",
	"elevator music",
	"a very confident toddler",
	"lukewarm soup",
	"the group chat",
	"a conspiracy about pigeons",
	"an umbrella that folds the wrong way",
	"the neighbor's car alarm",
	"a plant I forgot to water",
	"cargo shorts",
	"a suspicious amount of confetti",
	"the self-checkout machine",
	"a very long voicemail",
	"free samples",
	"a squeaky shopping cart wheel",
	"an extremely detailed spreadsheet",
	"my fantasy football team",
	"a genie with a loophole",
	"the mute button",
	"an inflatable tube man",
	"a 24-hour diner",
	"the middle seat",
	"a crossword answer I refuse to look up",
	"a wizard on a budget",
	"the loading spinner",
	"a pile of unfolded laundry",
	"an optimistic weather forecast",
	"the hold music",
	"a very formal duck",
	"my fourth cup of coffee",
	"a parallel parking attempt",
	"an anonymous casserole",
	"the last parking spot",
	"a treadmill used as a coat rack",
	"an over-engineered birdhouse",
	"the neighborhood watch newsletter",
	"a haunted vending machine",
	"one really good pun",
	"a committee to decide on a committee",
	"the backup karaoke machine",
	"a map folded incorrectly forever",
}
