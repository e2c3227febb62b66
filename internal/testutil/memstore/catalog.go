package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
)

// AddConcept is a setup helper.
func (s *Store) AddConcept(name string, active bool) models.Concept {
	c := models.Concept{ID: s.d.nextID(), Name: name, IsActive: active}
	s.d.concepts[c.ID] = c
	return c
}

func (s *Store) SetConceptActive(id int64, active bool) {
	c := s.d.concepts[id]
	c.IsActive = active
	s.d.concepts[id] = c
}

func (s *Store) ListActiveConcepts(_ context.Context, _ db.Transaction) ([]models.Concept, error) {
	var out []models.Concept
	for _, c := range s.d.concepts {
		if c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.Concept) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) ActiveConceptIDs(_ context.Context, _ db.Transaction, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if c, ok := s.d.concepts[id]; ok && c.IsActive {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) GetOrCreateConcept(_ context.Context, _ db.Transaction, name string) (bool, error) {
	if err := s.write("GetOrCreateConcept"); err != nil {
		return false, err
	}
	for _, c := range s.d.concepts {
		if c.Name == name {
			return false, nil
		}
	}
	s.AddConcept(name, true)
	return true, nil
}

func (s *Store) DeleteConcept(_ context.Context, _ db.Transaction, id int64) error {
	if err := s.write("DeleteConcept"); err != nil {
		return err
	}
	if _, ok := s.d.concepts[id]; !ok {
		return models.ErrNotFound
	}
	for _, it := range s.d.slots {
		if it.ConceptID == id {
			return fmt.Errorf("concept %d is used by slot items: %w", id, models.ErrConflict)
		}
	}
	delete(s.d.concepts, id)
	return nil
}

func (s *Store) ListActiveStrategies(_ context.Context, _ db.Transaction) ([]models.Strategy, error) {
	var out []models.Strategy
	for _, st := range s.d.strategies {
		if st.IsActive {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b models.Strategy) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetStrategy(_ context.Context, _ db.Transaction, id int64) (*models.Strategy, error) {
	st, ok := s.d.strategies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &st, nil
}

func (s *Store) SetStrategyActive(id int64, active bool) {
	st := s.d.strategies[id]
	st.IsActive = active
	s.d.strategies[id] = st
}

func (s *Store) StrategyNameExists(_ context.Context, _ db.Transaction, name string) (bool, error) {
	for _, st := range s.d.strategies {
		if st.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ListSections returns rows in insertion order; callers must sort.
func (s *Store) ListSections(_ context.Context, _ db.Transaction, strategyID int64) ([]models.Section, error) {
	var out []models.Section
	for _, sec := range s.d.sections {
		if sec.StrategyID == strategyID {
			out = append(out, sec)
		}
	}
	slices.SortFunc(out, func(a, b models.Section) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) ListSteps(_ context.Context, _ db.Transaction, strategyID int64) ([]models.Step, error) {
	var out []models.Step
	for _, st := range s.d.steps {
		if sec, ok := s.d.sections[st.SectionID]; ok && sec.StrategyID == strategyID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b models.Step) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) ListStepImages(_ context.Context, _ db.Transaction, strategyID int64) ([]models.StepImage, error) {
	var out []models.StepImage
	for _, im := range s.d.images {
		st, ok := s.d.steps[im.StepID]
		if !ok {
			continue
		}
		if sec, ok := s.d.sections[st.SectionID]; ok && sec.StrategyID == strategyID {
			out = append(out, im)
		}
	}
	slices.SortFunc(out, func(a, b models.StepImage) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) InsertStrategy(_ context.Context, _ db.Transaction, st *models.Strategy) error {
	if err := s.write("InsertStrategy"); err != nil {
		return err
	}
	if exists, _ := s.StrategyNameExists(context.Background(), nil, st.Name); exists {
		return fmt.Errorf("strategy %q already exists: %w", st.Name, models.ErrConflict)
	}
	st.ID = s.d.nextID()
	s.d.strategies[st.ID] = *st
	return nil
}

func (s *Store) InsertSection(_ context.Context, _ db.Transaction, sec *models.Section) error {
	if err := s.write("InsertSection"); err != nil {
		return err
	}
	if _, ok := s.d.strategies[sec.StrategyID]; !ok {
		return fmt.Errorf("memstore: strategy %d does not exist", sec.StrategyID)
	}
	for _, other := range s.d.sections {
		if other.StrategyID == sec.StrategyID && other.Name == sec.Name {
			return fmt.Errorf("section %q already exists: %w", sec.Name, models.ErrConflict)
		}
	}
	sec.ID = s.d.nextID()
	s.d.sections[sec.ID] = *sec
	return nil
}

func (s *Store) InsertStep(_ context.Context, _ db.Transaction, st *models.Step) error {
	if err := s.write("InsertStep"); err != nil {
		return err
	}
	if _, ok := s.d.sections[st.SectionID]; !ok {
		return fmt.Errorf("memstore: section %d does not exist", st.SectionID)
	}
	for _, other := range s.d.steps {
		if other.SectionID == st.SectionID && other.Title == st.Title {
			return fmt.Errorf("step %q already exists: %w", st.Title, models.ErrConflict)
		}
	}
	st.ID = s.d.nextID()
	s.d.steps[st.ID] = *st
	return nil
}

func (s *Store) InsertStepImage(_ context.Context, _ db.Transaction, im *models.StepImage) error {
	if err := s.write("InsertStepImage"); err != nil {
		return err
	}
	if _, ok := s.d.steps[im.StepID]; !ok {
		return fmt.Errorf("memstore: step %d does not exist", im.StepID)
	}
	im.ID = s.d.nextID()
	s.d.images[im.ID] = *im
	return nil
}

// DeleteStep removes a step with its images and checks, like ON DELETE CASCADE.
func (s *Store) DeleteStep(id int64) {
	delete(s.d.steps, id)
	for imID, im := range s.d.images {
		if im.StepID == id {
			delete(s.d.images, imID)
		}
	}
	for cID, c := range s.d.checks {
		if c.StepID == id {
			delete(s.d.checks, cID)
		}
	}
}

func (s *Store) CountStrategies() int { return len(s.d.strategies) }
