package models

import "time"

// Concept is a reusable market-structure tag (BOS, FVG, Order Block, ...).
type Concept struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Strategy is a checklist template: ordered sections of ordered steps.
type Strategy struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Section struct {
	ID         int64  `json:"id"`
	StrategyID int64  `json:"strategy_id"`
	Name       string `json:"name"`
	Order      int    `json:"order"`
}

type Step struct {
	ID          int64  `json:"id"`
	SectionID   int64  `json:"section_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Required    bool   `json:"required"`
}

type StepImage struct {
	ID      int64  `json:"id"`
	StepID  int64  `json:"step_id"`
	Image   string `json:"image"` // path relative to the media dir
	Caption string `json:"caption"`
	Order   int    `json:"order"`
}

// StrategyTree is a strategy with its children, every level sorted by (order, id).
type StrategyTree struct {
	Strategy Strategy      `json:"strategy"`
	Sections []SectionNode `json:"sections"`
}

type SectionNode struct {
	Section Section    `json:"section"`
	Steps   []StepNode `json:"steps"`
}

type StepNode struct {
	Step   Step        `json:"step"`
	Images []StepImage `json:"images"`
}

// StepIDs returns the step ids in checklist order.
func (t *StrategyTree) StepIDs() []int64 {
	var ids []int64
	for _, sec := range t.Sections {
		for _, st := range sec.Steps {
			ids = append(ids, st.Step.ID)
		}
	}
	return ids
}
