package service

import (
	"context"
	"fmt"
	"strings"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"

	"gopkg.in/yaml.v2"
)

// Definition is the YAML form of a strategy template:
//
//	name: Silver Bullet
//	sections:
//	  - name: Bias
//	    steps:
//	      - title: Daily draw on liquidity
//	        images: [{image: step_images/dol.png, caption: example}]
type Definition struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Inactive    bool                `yaml:"inactive"`
	Sections    []SectionDefinition `yaml:"sections"`
}

type SectionDefinition struct {
	Name  string           `yaml:"name"`
	Order *int             `yaml:"order"`
	Steps []StepDefinition `yaml:"steps"`
}

type StepDefinition struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Order       *int              `yaml:"order"`
	Optional    bool              `yaml:"optional"`
	Images      []ImageDefinition `yaml:"images"`
}

type ImageDefinition struct {
	Image   string `yaml:"image"`
	Caption string `yaml:"caption"`
	Order   *int   `yaml:"order"`
}

// ParseDefinition decodes and validates a YAML strategy template.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.UnmarshalStrict(data, &def); err != nil {
		return nil, models.Invalid("yaml", err.Error())
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) Validate() error {
	v := models.NewValidationError()
	d.Name = strings.TrimSpace(d.Name)
	switch {
	case d.Name == "":
		v.Add("name", "required")
	case helper.TooLong(d.Name, 120):
		v.Add("name", "at most 120 characters")
	}

	sectionNames := make(map[string]bool)
	for i := range d.Sections {
		sec := &d.Sections[i]
		field := fmt.Sprintf("sections[%d]", i)
		sec.Name = strings.TrimSpace(sec.Name)
		switch {
		case sec.Name == "":
			v.Add(field+".name", "required")
		case helper.TooLong(sec.Name, 60):
			v.Add(field+".name", "at most 60 characters")
		case sectionNames[sec.Name]:
			v.Add(field+".name", "duplicate section name")
		}
		sectionNames[sec.Name] = true
		if sec.Order != nil && *sec.Order < 0 {
			v.Add(field+".order", "must be >= 0")
		}

		titles := make(map[string]bool)
		for j := range sec.Steps {
			st := &sec.Steps[j]
			stepField := fmt.Sprintf("%s.steps[%d]", field, j)
			st.Title = strings.TrimSpace(st.Title)
			switch {
			case st.Title == "":
				v.Add(stepField+".title", "required")
			case helper.TooLong(st.Title, 160):
				v.Add(stepField+".title", "at most 160 characters")
			case titles[st.Title]:
				v.Add(stepField+".title", "duplicate step title")
			}
			titles[st.Title] = true
			if st.Order != nil && *st.Order < 0 {
				v.Add(stepField+".order", "must be >= 0")
			}
			for k, im := range st.Images {
				imField := fmt.Sprintf("%s.images[%d]", stepField, k)
				if strings.TrimSpace(im.Image) == "" {
					v.Add(imField+".image", "required")
				}
				if helper.TooLong(im.Caption, 180) {
					v.Add(imField+".caption", "at most 180 characters")
				}
				if im.Order != nil && *im.Order < 0 {
					v.Add(imField+".order", "must be >= 0")
				}
			}
		}
	}
	return v.OrNil()
}

// orderOr uses the explicit order when given, the list position otherwise.
func orderOr(explicit *int, pos int) int {
	if explicit != nil {
		return *explicit
	}
	return pos
}

// Import creates the whole tree in one transaction.
func (c *Catalog) Import(ctx context.Context, def *Definition) (*models.Strategy, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	s := &models.Strategy{
		Name:        def.Name,
		Description: def.Description,
		IsActive:    !def.Inactive,
	}
	err := c.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		if err := c.repo.InsertStrategy(ctxTx, tx, s); err != nil {
			return err
		}
		for i, secDef := range def.Sections {
			sec := models.Section{StrategyID: s.ID, Name: secDef.Name, Order: orderOr(secDef.Order, i)}
			if err := c.repo.InsertSection(ctxTx, tx, &sec); err != nil {
				return err
			}
			for j, stepDef := range secDef.Steps {
				step := models.Step{
					SectionID:   sec.ID,
					Title:       stepDef.Title,
					Description: stepDef.Description,
					Order:       orderOr(stepDef.Order, j),
					Required:    !stepDef.Optional,
				}
				if err := c.repo.InsertStep(ctxTx, tx, &step); err != nil {
					return err
				}
				for k, imDef := range stepDef.Images {
					im := models.StepImage{
						StepID:  step.ID,
						Image:   strings.TrimSpace(imDef.Image),
						Caption: imDef.Caption,
						Order:   orderOr(imDef.Order, k),
					}
					if err := c.repo.InsertStepImage(ctxTx, tx, &im); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[STRATEGY] imported %q as %d", s.Name, s.ID)
	return s, nil
}
