package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
	"trade_journal/internal/models"
	strategy "trade_journal/internal/modules/strategy/service"
	"trade_journal/internal/notify"
	"trade_journal/internal/testutil/memstore"
	"trade_journal/pkg/logger"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

const (
	alice int64 = 1
	bob   int64 = 2
)

type fixture struct {
	store    *memstore.Store
	engine   *Engine
	catalog  *strategy.Catalog
	recorder *notify.Recorder
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		recorder: &notify.Recorder{},
		clock:    time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC),
	}
	f.catalog = strategy.NewCatalog(f.store, f.store)
	f.engine = NewEngine(f.store, f.store, f.recorder).WithClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) tick() { f.clock = f.clock.Add(time.Minute) }

func (f *fixture) strategy(t *testing.T, src string) *models.StrategyTree {
	t.Helper()
	def, err := strategy.ParseDefinition([]byte(src))
	require.NoError(t, err)
	s, err := f.catalog.Import(context.Background(), def)
	require.NoError(t, err)
	tree, err := f.catalog.Tree(context.Background(), s.ID)
	require.NoError(t, err)
	return tree
}

func (f *fixture) checks(t *testing.T, runID int64) []models.StepCheck {
	t.Helper()
	out, err := f.store.ListStepChecks(context.Background(), nil, runID)
	require.NoError(t, err)
	return out
}

const checklist = `
name: Silver Bullet
sections:
  - name: Entry
    order: 2
    steps:
      - title: FVG
  - name: Bias
    order: 1
    steps:
      - title: DOL
        order: 5
      - title: PD array
        order: 1
`

func validTrade() TradeForm {
	return TradeForm{
		Direction: "long",
		EntryTime: "2024-03-04T14:35",
		Stop:      "17950.25",
		Target:    "18010.5",
		ResultR:   "2.5",
		Notes:     "clean",
	}
}

func TestStartMaterializesOneCheckPerStep(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)

	runID, err := f.engine.Start(context.Background(), alice, tree.Strategy.ID, " nq ")
	require.NoError(t, err)

	checks := f.checks(t, runID)
	require.Len(t, checks, 3)
	seen := make(map[int64]bool)
	var order []int64
	for _, c := range checks {
		assert.False(t, c.Checked)
		assert.Nil(t, c.CheckedAt)
		assert.Empty(t, c.Notes)
		assert.False(t, seen[c.StepID], "step %d twice", c.StepID)
		seen[c.StepID] = true
		order = append(order, c.StepID)
	}
	// Bias(PD array, DOL), Entry(FVG)
	assert.Equal(t, tree.StepIDs(), order)
	assert.Equal(t, "PD array", tree.Sections[0].Steps[0].Step.Title)

	run, err := f.store.GetSessionRun(context.Background(), nil, alice, runID)
	require.NoError(t, err)
	assert.Equal(t, "NQ", run.Symbol)
	assert.Equal(t, f.clock, run.StartedAt)
	assert.False(t, run.Completed)
	assert.Nil(t, run.EndedAt)
}

func TestStartRejectsMissingOrInactiveStrategy(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, "name: Old\ninactive: true\nsections:\n  - name: A\n    steps:\n      - title: x\n")

	_, err := f.engine.Start(context.Background(), alice, tree.Strategy.ID, "NQ")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.engine.Start(context.Background(), alice, 999999, "NQ")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.engine.Start(context.Background(), alice, tree.Strategy.ID, strings.Repeat("X", 21))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestChecklistCheckedAtFollowsChecked(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "ES")
	require.NoError(t, err)
	ids := tree.StepIDs()

	f.tick()
	firstCheck := f.clock
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{
		ids[0]: {Checked: true, Notes: "first"},
		ids[1]: {Checked: false, Notes: "pending"},
	}))

	f.tick()
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{
		ids[0]: {Checked: true, Notes: "second"},
		ids[2]: {Checked: true, Notes: strings.Repeat("n", 301)},
	}))

	byStep := make(map[int64]models.StepCheck)
	for _, c := range f.checks(t, runID) {
		assert.Equal(t, c.Checked, c.CheckedAt != nil, "step %d", c.StepID)
		byStep[c.StepID] = c
	}

	// still checked: timestamp kept, notes overwritten
	require.NotNil(t, byStep[ids[0]].CheckedAt)
	assert.Equal(t, firstCheck, *byStep[ids[0]].CheckedAt)
	assert.Equal(t, "second", byStep[ids[0]].Notes)

	// absent from the submission: unchecked, notes cleared
	assert.False(t, byStep[ids[1]].Checked)
	assert.Empty(t, byStep[ids[1]].Notes)

	assert.Equal(t, f.clock, *byStep[ids[2]].CheckedAt)
	assert.Len(t, []rune(byStep[ids[2]].Notes), 300)

	f.tick()
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{
		ids[0]: {Checked: false},
	}))
	for _, c := range f.checks(t, runID) {
		assert.False(t, c.Checked)
		assert.Nil(t, c.CheckedAt)
	}
}

func TestChecklistOtherUsersRunIsNotFound(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "")
	require.NoError(t, err)

	err = f.engine.UpdateChecklist(ctx, bob, runID, map[int64]CheckInput{tree.StepIDs()[0]: {Checked: true}})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.engine.Detail(ctx, bob, runID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = f.engine.Review(ctx, bob, runID, ReviewInput{})
	assert.ErrorIs(t, err, models.ErrNotFound)

	for _, c := range f.checks(t, runID) {
		assert.False(t, c.Checked)
	}
}

func TestChecklistUpdateIsAtomic(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "")
	require.NoError(t, err)

	calls := 0
	f.store.Fail = func(op string) error {
		if op != "UpdateStepCheck" {
			return nil
		}
		calls++
		if calls == 2 {
			return errors.New("connection reset")
		}
		return nil
	}
	all := make(map[int64]CheckInput)
	for _, id := range tree.StepIDs() {
		all[id] = CheckInput{Checked: true, Notes: "x"}
	}
	err = f.engine.UpdateChecklist(ctx, alice, runID, all)
	f.store.Fail = nil
	require.Error(t, err)

	for _, c := range f.checks(t, runID) {
		assert.False(t, c.Checked)
		assert.Empty(t, c.Notes)
	}
}

func TestReviewKeepsAtMostOneTrade(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "NQ")
	require.NoError(t, err)

	f.tick()
	endedAt := f.clock
	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: true, DayNotes: "ok", Trade: validTrade()}))
	assert.Equal(t, 1, f.store.Trades(runID))

	f.tick()
	second := validTrade()
	second.ResultR = "-1"
	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: true, Trade: second}))
	assert.Equal(t, 1, f.store.Trades(runID))
	trade, err := f.store.GetTrade(ctx, nil, runID)
	require.NoError(t, err)
	assert.True(t, trade.ResultR.Equal(decimal.NewFromInt(-1)))

	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: false}))
	assert.Equal(t, 0, f.store.Trades(runID))

	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: true, Trade: validTrade()}))
	assert.Equal(t, 1, f.store.Trades(runID))

	run, err := f.store.GetSessionRun(ctx, nil, alice, runID)
	require.NoError(t, err)
	assert.True(t, run.Completed)
	assert.True(t, run.TradeTaken)
	require.NotNil(t, run.EndedAt)
	assert.Equal(t, endedAt, *run.EndedAt)
}

func TestReviewInvalidTradeSavesNothing(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "NQ")
	require.NoError(t, err)

	bad := validTrade()
	bad.Direction = "sideways"
	err = f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: true, DayNotes: "lost", Trade: bad})
	require.ErrorIs(t, err, models.ErrValidation)
	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "direction")

	run, err := f.store.GetSessionRun(ctx, nil, alice, runID)
	require.NoError(t, err)
	assert.False(t, run.Completed)
	assert.Empty(t, run.DayNotes)
	assert.Nil(t, run.EndedAt)
	assert.Equal(t, 0, f.store.Trades(runID))
	assert.Empty(t, f.recorder.Messages)
}

func TestReviewNotifiesAfterCommit(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "NQ")
	require.NoError(t, err)
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{tree.StepIDs()[0]: {Checked: true}}))

	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{TradeTaken: true, Trade: validTrade()}))
	require.Len(t, f.recorder.Messages, 1)
	assert.Contains(t, f.recorder.Messages[0], "Silver Bullet [NQ] completed: 1/3 steps, LONG 2.50R")
}

func TestParseTrade(t *testing.T) {
	tr, err := ParseTrade(validTrade())
	require.NoError(t, err)
	assert.Equal(t, models.DirectionLong, tr.Direction)
	assert.Equal(t, time.Date(2024, 3, 4, 14, 35, 0, 0, time.UTC), tr.EntryTime)
	assert.True(t, tr.Stop.Equal(decimal.RequireFromString("17950.25")))

	for _, layout := range []string{"2024-03-04 14:35", "2024-03-04T14:35:00Z"} {
		in := validTrade()
		in.EntryTime = layout
		_, err := ParseTrade(in)
		assert.NoError(t, err, layout)
	}

	_, err = ParseTrade(TradeForm{})
	var v *models.ValidationError
	require.ErrorAs(t, err, &v)
	for _, field := range []string{"direction", "entry_time", "stop", "target", "result_r"} {
		assert.Contains(t, v.Fields, field)
	}

	cases := map[string]func(*TradeForm){
		"stop":       func(f *TradeForm) { f.Stop = "1.12345" },
		"target":     func(f *TradeForm) { f.Target = "123456789" },
		"result_r":   func(f *TradeForm) { f.ResultR = "1.005" },
		"entry_time": func(f *TradeForm) { f.EntryTime = "yesterday" },
	}
	for field, mutate := range cases {
		in := validTrade()
		mutate(&in)
		_, err := ParseTrade(in)
		require.ErrorAs(t, err, &v, field)
		assert.Contains(t, v.Fields, field)
	}

	in := validTrade()
	in.Stop = "99999999.9999"
	_, err = ParseTrade(in)
	assert.NoError(t, err)
}

func TestDetailShowsChecksAndLateSteps(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "NQ")
	require.NoError(t, err)
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{tree.StepIDs()[1]: {Checked: true}}))

	late := models.Step{SectionID: tree.Sections[1].Section.ID, Title: "Added later", Order: 9, Required: true}
	require.NoError(t, f.store.InsertStep(ctx, nil, &late))

	view, err := f.engine.Detail(ctx, alice, runID)
	require.NoError(t, err)
	assert.Equal(t, "Silver Bullet", view.Run.StrategyName)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 1, view.Checked)
	assert.Equal(t, 33, view.Percent())
	assert.Nil(t, view.Trade)

	require.Len(t, view.Sections, 2)
	assert.Equal(t, "Bias", view.Sections[0].Section.Name)
	require.NotNil(t, view.Sections[0].Steps[1].Check)
	assert.True(t, view.Sections[0].Steps[1].Check.Checked)

	entry := view.Sections[1].Steps
	require.Len(t, entry, 2)
	assert.Equal(t, "Added later", entry[1].Step.Title)
	assert.Nil(t, entry[1].Check)
}

func TestRecentNewestFirst(t *testing.T) {
	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		f.tick()
		id, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "NQ")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := f.engine.Start(ctx, bob, tree.Strategy.ID, "ES")
	require.NoError(t, err)

	runs, err := f.engine.Recent(ctx, alice, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, "Silver Bullet", runs[0].StrategyName)
}

func TestWritesAreTraced(t *testing.T) {
	tracer := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	t.Cleanup(func() { opentracing.SetGlobalTracer(prev) })

	f := newFixture(t)
	tree := f.strategy(t, checklist)
	ctx := context.Background()
	runID, err := f.engine.Start(ctx, alice, tree.Strategy.ID, "ES")
	require.NoError(t, err)
	require.NoError(t, f.engine.UpdateChecklist(ctx, alice, runID, map[int64]CheckInput{
		tree.StepIDs()[0]: {Checked: true},
	}))
	require.ErrorIs(t, f.engine.UpdateChecklist(ctx, bob, runID, nil), models.ErrNotFound)
	require.NoError(t, f.engine.Review(ctx, alice, runID, ReviewInput{}))

	var names []string
	failed := 0
	for _, span := range tracer.FinishedSpans() {
		names = append(names, span.OperationName)
		if span.OperationName == "session.UpdateChecklist" && span.Tag("error") == true {
			failed++
		}
	}
	assert.Equal(t, []string{"session.Start", "session.UpdateChecklist", "session.UpdateChecklist", "session.Review"}, names)
	assert.Equal(t, 1, failed)
}
