package pg

import (
	"context"
	"fmt"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// Concepts implement db store
type Concepts struct{}

// NewConcepts instance
func NewConcepts() *Concepts {
	return &Concepts{}
}

func (c *Concepts) ListActiveConcepts(ctx context.Context, tx db.Transaction) (out []models.Concept, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListActiveConcepts: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT id, name, description, is_active
		FROM concepts
		WHERE is_active
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.Concept
		if err = rows.Scan(&it.ID, &it.Name, &it.Description, &it.IsActive); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ActiveConceptIDs returns which of ids resolve to an active concept.
func (c *Concepts) ActiveConceptIDs(ctx context.Context, tx db.Transaction, ids []int64) (out map[int64]bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ActiveConceptIDs: %w", err)
		}
	}()
	out = make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Query(ctx, `SELECT id FROM concepts WHERE id = ANY($1) AND is_active`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// GetOrCreateConcept inserts an active concept unless the name is taken.
func (c *Concepts) GetOrCreateConcept(ctx context.Context, tx db.Transaction, name string) (created bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetOrCreateConcept: %w", err)
		}
	}()
	tag, err := tx.Exec(ctx, `
		INSERT INTO concepts (name, description, is_active)
		VALUES ($1, '', TRUE)
		ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (c *Concepts) DeleteConcept(ctx context.Context, tx db.Transaction, id int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.DeleteConcept: %w", err)
		}
	}()
	tag, err := tx.Exec(ctx, `DELETE FROM concepts WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("concept %d is used by slot items: %w", id, models.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
