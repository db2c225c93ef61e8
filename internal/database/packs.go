// internal/database/packs.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blanksgame/blanks/internal/models"
)

// PackStore reads card packs from postgres. It is the production CardSource:
// rooms read a pack snapshot once at creation and never touch the database
// again for that game. Pack administration (authoring, moderation) is owned
// elsewhere; this store is read-only.
type PackStore struct {
	db *pgxpool.Pool
}

func NewPackStore(db *pgxpool.Pool) *PackStore {
	return &PackStore{db: db}
}

// Packs lists the pack catalogue with per-kind card counts.
func (s *PackStore) Packs(ctx context.Context) ([]models.Pack, error) {
	q := `
		SELECT p.id, p.name, COALESCE(p.description, ''),
		       COUNT(*) FILTER (WHERE c.kind = 'black'),
		       COUNT(*) FILTER (WHERE c.kind = 'white')
		FROM packs p
		LEFT JOIN cards c ON c.pack_id = p.id
		GROUP BY p.id, p.name, p.description
		ORDER BY p.name
	`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing packs: %w", err)
	}
	defer rows.Close()

	var packs []models.Pack
	for rows.Next() {
		var p models.Pack
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BlackCount, &p.WhiteCount); err != nil {
			return nil, fmt.Errorf("scanning pack: %w", err)
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// Cards returns a fresh card snapshot for the requested packs; an empty
// filter means every pack. Card ids are minted per call so no two rooms
// share card identity.
func (s *PackStore) Cards(ctx context.Context, packIDs []uuid.UUID) ([]*models.Card, error) {
	q := `
		SELECT text, kind, COALESCE(pick, 1)
		FROM cards
		WHERE kind IN ('black', 'white')
	`
	args := []interface{}{}
	if len(packIDs) > 0 {
		q += ` AND pack_id = ANY($1)`
		args = append(args, packIDs)
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		var (
			text string
			kind string
			pick int
		)
		if err := rows.Scan(&text, &kind, &pick); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		c := &models.Card{ID: id, Text: text, Kind: models.CardKind(kind)}
		if c.Kind == models.CardBlack {
			c.Pick = pick
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
