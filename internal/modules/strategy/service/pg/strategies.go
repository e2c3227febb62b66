package pg

import (
	"context"
	"fmt"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// Strategies implement db store for the strategy definition tree.
type Strategies struct{}

// NewStrategies instance
func NewStrategies() *Strategies {
	return &Strategies{}
}

const strategyColumns = `id, name, description, is_active, created_at, updated_at`

func scanStrategy(row interface{ Scan(dest ...any) error }, s *models.Strategy) error {
	return row.Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

func (r *Strategies) ListActiveStrategies(ctx context.Context, tx db.Transaction) (out []models.Strategy, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListActiveStrategies: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `SELECT `+strategyColumns+` FROM strategies WHERE is_active ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Strategy
		if err = scanStrategy(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetStrategy returns the strategy regardless of is_active.
func (r *Strategies) GetStrategy(ctx context.Context, tx db.Transaction, id int64) (s *models.Strategy, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.GetStrategy: %w", err)
		}
	}()
	s = &models.Strategy{}
	err = scanStrategy(tx.QueryRow(ctx, `SELECT `+strategyColumns+` FROM strategies WHERE id = $1`, id), s)
	if db.IsNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Strategies) StrategyNameExists(ctx context.Context, tx db.Transaction, name string) (ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.StrategyNameExists: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM strategies WHERE name = $1)`, name).Scan(&ok)
	return ok, err
}

func (r *Strategies) ListSections(ctx context.Context, tx db.Transaction, strategyID int64) (out []models.Section, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListSections: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT id, strategy_id, name, "order"
		FROM sections
		WHERE strategy_id = $1
		ORDER BY "order", id`, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Section
		if err = rows.Scan(&s.ID, &s.StrategyID, &s.Name, &s.Order); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSteps returns every step under the strategy in checklist order.
func (r *Strategies) ListSteps(ctx context.Context, tx db.Transaction, strategyID int64) (out []models.Step, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListSteps: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT st.id, st.section_id, st.title, st.description, st."order", st.required
		FROM steps st
		JOIN sections sec ON sec.id = st.section_id
		WHERE sec.strategy_id = $1
		ORDER BY sec."order", sec.id, st."order", st.id`, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Step
		if err = rows.Scan(&s.ID, &s.SectionID, &s.Title, &s.Description, &s.Order, &s.Required); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Strategies) ListStepImages(ctx context.Context, tx db.Transaction, strategyID int64) (out []models.StepImage, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ListStepImages: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, `
		SELECT im.id, im.step_id, im.image, im.caption, im."order"
		FROM step_images im
		JOIN steps st ON st.id = im.step_id
		JOIN sections sec ON sec.id = st.section_id
		WHERE sec.strategy_id = $1
		ORDER BY im.step_id, im."order", im.id`, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var im models.StepImage
		if err = rows.Scan(&im.ID, &im.StepID, &im.Image, &im.Caption, &im.Order); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

func (r *Strategies) InsertStrategy(ctx context.Context, tx db.Transaction, s *models.Strategy) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertStrategy: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `
		INSERT INTO strategies (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		s.Name, s.Description, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("strategy %q already exists: %w", s.Name, models.ErrConflict)
	}
	return err
}

func (r *Strategies) InsertSection(ctx context.Context, tx db.Transaction, s *models.Section) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertSection: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `
		INSERT INTO sections (strategy_id, name, "order")
		VALUES ($1, $2, $3)
		RETURNING id`,
		s.StrategyID, s.Name, s.Order,
	).Scan(&s.ID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("section %q already exists: %w", s.Name, models.ErrConflict)
	}
	return err
}

func (r *Strategies) InsertStep(ctx context.Context, tx db.Transaction, s *models.Step) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertStep: %w", err)
		}
	}()
	err = tx.QueryRow(ctx, `
		INSERT INTO steps (section_id, title, description, "order", required)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		s.SectionID, s.Title, s.Description, s.Order, s.Required,
	).Scan(&s.ID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("step %q already exists: %w", s.Title, models.ErrConflict)
	}
	return err
}

func (r *Strategies) InsertStepImage(ctx context.Context, tx db.Transaction, im *models.StepImage) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.InsertStepImage: %w", err)
		}
	}()
	return tx.QueryRow(ctx, `
		INSERT INTO step_images (step_id, image, caption, "order")
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		im.StepID, im.Image, im.Caption, im.Order,
	).Scan(&im.ID)
}
