package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	"trade_journal/pkg/db"
	"trade_journal/pkg/logger"
	"trade_journal/pkg/tracing"

	"github.com/bytedance/sonic"
)

const maxSlotNoteLen = 240

var slotsAPI = sonic.Config{UseInt64: true}.Froze()

// SlotInput is one decoded item; Order is its position in the submitted list.
type SlotInput struct {
	ConceptID int64
	Note      string
	Order     int
}

// Slots maps a known timeframe to its submitted items.
type Slots map[models.Timeframe][]SlotInput

// DecodeSlots parses {"slots": {"D": [{"concept_id": 1, "note": "..."}]}}.
// Unknown timeframes and non-list values are ignored, items without a concept
// are skipped but still take their position. A body that is not a JSON object,
// or a "slots" value that is not an object, is a validation error.
func DecodeSlots(body []byte) (Slots, error) {
	var payload any
	if err := slotsAPI.Unmarshal(body, &payload); err != nil {
		return nil, models.Invalid("body", "invalid JSON")
	}
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, models.Invalid("body", "invalid JSON")
	}

	out := make(Slots)
	raw, present := root["slots"]
	if !present {
		return out, nil
	}
	slots, ok := raw.(map[string]any)
	if !ok {
		return nil, models.Invalid("slots", "invalid slots payload")
	}

	for key, value := range slots {
		tf, ok := models.ParseTimeframe(key)
		if !ok {
			continue
		}
		list, ok := value.([]any)
		if !ok {
			continue
		}
		items := make([]SlotInput, 0, len(list))
		for idx, elem := range list {
			field := fmt.Sprintf("slots.%s[%d]", key, idx)
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, models.Invalid(field, "expected an object")
			}
			id, err := conceptIDOf(obj["concept_id"])
			if err != nil {
				return nil, models.Invalid(field+".concept_id", err.Error())
			}
			if id == 0 {
				continue
			}
			note, err := noteOf(obj["note"])
			if err != nil {
				return nil, models.Invalid(field+".note", err.Error())
			}
			items = append(items, SlotInput{ConceptID: id, Note: note, Order: idx})
		}
		out[tf] = items
	}
	return out, nil
}

// conceptIDOf returns 0 for an empty reference (null, false, 0, "").
func conceptIDOf(v any) (int64, error) {
	switch id := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if !id {
			return 0, nil
		}
		return 0, fmt.Errorf("expected an integer")
	case int64:
		return id, nil
	case float64:
		if id != math.Trunc(id) || math.Abs(id) > 1<<53 {
			return 0, fmt.Errorf("expected an integer")
		}
		return int64(id), nil
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer")
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer")
	}
}

func noteOf(v any) (string, error) {
	switch note := v.(type) {
	case nil:
		return "", nil
	case string:
		return helper.Truncate(note, maxSlotNoteLen), nil
	default:
		return "", fmt.Errorf("expected a string")
	}
}

// SaveSlots replaces every slot item of the day journal in one transaction.
// Any concept that is missing or inactive fails the whole call with
// models.ErrNotFound and leaves the previous items in place.
func (b *Book) SaveSlots(ctx context.Context, userID int64, date time.Time, slots Slots) (saved int, err error) {
	span, ctx := tracing.StartSpan(ctx, "daybook.SaveSlots")
	defer tracing.Finish(span, &err)

	date = helper.DateOf(date)
	err = b.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		j, err := b.repo.GetOrCreateDayJournal(ctxTx, tx, userID, date)
		if err != nil {
			return err
		}
		if err := b.repo.DeleteSlotItems(ctxTx, tx, j.ID); err != nil {
			return err
		}

		var ids []int64
		for _, items := range slots {
			for _, it := range items {
				ids = append(ids, it.ConceptID)
			}
		}
		active, err := b.repo.ActiveConceptIDs(ctxTx, tx, ids)
		if err != nil {
			return err
		}

		saved = 0
		for _, tf := range models.Timeframes {
			for _, in := range slots[tf] {
				if !active[in.ConceptID] {
					return fmt.Errorf("concept %d: %w", in.ConceptID, models.ErrNotFound)
				}
				it := models.JournalSlotItem{
					JournalID: j.ID,
					Timeframe: tf,
					ConceptID: in.ConceptID,
					Order:     in.Order,
					Note:      in.Note,
				}
				if err := b.repo.InsertSlotItem(ctxTx, tx, &it); err != nil {
					return err
				}
				saved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("[DAYBOOK] user %d day %s slots rewritten: %d items", userID, date.Format(time.DateOnly), saved)
	return saved, nil
}

func sortSlotItems(items []models.JournalSlotItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID < items[j].ID
	})
}
