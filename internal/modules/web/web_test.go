package web

import (
	"context"
	"fmt"
	"go/format"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
	"trade_journal/internal/models"
	conceptssvc "trade_journal/internal/modules/concepts/service"
	"trade_journal/internal/modules/config"
	daybooksvc "trade_journal/internal/modules/daybook/service"
	sessionsvc "trade_journal/internal/modules/session/service"
	strategysvc "trade_journal/internal/modules/strategy/service"
	userssvc "trade_journal/internal/modules/users/service"
	"trade_journal/internal/notify"
	"trade_journal/internal/testutil/memstore"
	"trade_journal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const checklist = `
name: Silver Bullet
sections:
  - name: Bias
    steps:
      - title: Daily draw on liquidity
      - title: PD array
`

type app struct {
	store   *memstore.Store
	router  *gin.Engine
	catalog *strategysvc.Catalog
	user    *models.User
	other   *models.User
	cfg     *config.Config
}

func newApp(t *testing.T, secret string) *app {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	users := userssvc.NewDirectory(store, store)
	u, err := users.Create(ctx, "alice")
	require.NoError(t, err)
	other, err := users.Create(ctx, "bob")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Service.Debug = true
	cfg.Auth.JWTSecret = secret
	cfg.Auth.CookieName = "journal_token"
	cfg.Auth.DevUserID = u.ID
	cfg.Journal.RecentRuns = 10

	auth, err := NewAuth(cfg, users)
	require.NoError(t, err)

	a := &app{store: store, user: u, other: other, cfg: cfg}
	a.catalog = strategysvc.NewCatalog(store, store)
	a.router = NewRouter(Deps{
		Cfg:      cfg,
		Auth:     auth,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
		Catalog:  a.catalog,
		Engine:   sessionsvc.NewEngine(store, store, &notify.Recorder{}),
		Book:     daybooksvc.NewBook(store, store),
		Concepts: conceptssvc.NewLibrary(store, store),
	})
	return a
}

func (a *app) strategy(t *testing.T) *models.StrategyTree {
	t.Helper()
	def, err := strategysvc.ParseDefinition([]byte(checklist))
	require.NoError(t, err)
	s, err := a.catalog.Import(context.Background(), def)
	require.NoError(t, err)
	tree, err := a.catalog.Tree(context.Background(), s.ID)
	require.NoError(t, err)
	return tree
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *app) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *app) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *app) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func TestSaveSlotsEndpoint(t *testing.T) {
	a := newApp(t, "")
	c := a.store.AddConcept("BOS", true)
	path := "/api/day/2024/3/4/save-slots/"
	body := fmt.Sprintf(`{"slots": {"D": [{"concept_id": %d, "note": "a"}]}}`, c.ID)

	for i := 0; i < 2; i++ {
		rec := a.postJSON(path, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
	}
	journals := a.store.Journals(a.user.ID)
	require.Len(t, journals, 1)
	items := a.store.SlotItems(journals[0].ID)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].Order)

	assert.Equal(t, http.StatusOK, a.postJSON(path, `{"slots": {"XX": [{"concept_id": 1}]}}`).Code)
	assert.Empty(t, a.store.SlotItems(journals[0].ID))

	require.Equal(t, http.StatusOK, a.postJSON(path, body).Code)
	assert.Equal(t, http.StatusBadRequest, a.postJSON(path, `{"slots": [`).Code)
	assert.Equal(t, http.StatusBadRequest, a.postJSON(path, `{"slots": []}`).Code)
	assert.Equal(t, http.StatusNotFound, a.postJSON(path, `{"slots": {"D": [{"concept_id": 999999}]}}`).Code)
	assert.Len(t, a.store.SlotItems(journals[0].ID), 1)

	assert.Equal(t, http.StatusNotFound, a.postJSON("/api/day/2023/2/29/save-slots/", body).Code)
	assert.Equal(t, http.StatusNotFound, a.get(path).Code)
}

func TestRunFlow(t *testing.T) {
	a := newApp(t, "")
	tree := a.strategy(t)
	ids := tree.StepIDs()

	rec := a.postForm("/runs/start/", url.Values{"strategy_id": {fmt.Sprint(tree.Strategy.ID)}, "symbol": {"nq"}})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	runURL := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(runURL, "/runs/"), runURL)

	rec = a.get(runURL)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Daily draw on liquidity")
	assert.Contains(t, rec.Body.String(), "0/2 steps")

	rec = a.postForm(runURL, url.Values{
		fmt.Sprintf("step_%d", ids[0]):  {"on"},
		fmt.Sprintf("notes_%d", ids[0]): {"swept PDH"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, runURL, rec.Header().Get("Location"))

	rec = a.postForm(runURL, url.Values{
		fmt.Sprintf("step_%d", ids[0]): {"on"},
		fmt.Sprintf("step_%d", ids[1]): {"on"},
		"proceed":                      {"1"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, runURL+"review/", rec.Header().Get("Location"))

	rec = a.get(runURL + "review/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2/2 steps checked")

	rec = a.postForm(runURL+"review/", url.Values{"trade_taken": {"on"}, "direction": {"UP"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be LONG or SHORT")

	rec = a.postForm(runURL+"review/", url.Values{
		"trade_taken": {"on"},
		"day_notes":   {"good day"},
		"direction":   {"SHORT"},
		"entry_time":  {"2024-03-04T10:05"},
		"stop":        {"18020"},
		"target":      {"17900.5"},
		"result_r":    {"3"},
	})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = a.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "completed, trade")
	assert.Contains(t, rec.Body.String(), "NQ")
}

func TestRunsOfOtherUsersAreNotFound(t *testing.T) {
	a := newApp(t, "")
	tree := a.strategy(t)
	engine := sessionsvc.NewEngine(a.store, a.store, nil)
	runID, err := engine.Start(context.Background(), a.other.ID, tree.Strategy.ID, "ES")
	require.NoError(t, err)

	path := fmt.Sprintf("/runs/%d/", runID)
	assert.Equal(t, http.StatusNotFound, a.get(path).Code)
	assert.Equal(t, http.StatusNotFound, a.postForm(path, url.Values{}).Code)
	assert.Equal(t, http.StatusNotFound, a.get(path+"review/").Code)
	assert.Equal(t, http.StatusNotFound, a.get("/runs/abc/").Code)

	rec := a.postForm("/runs/start/", url.Values{"strategy_id": {"999999"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.postForm("/runs/start/", url.Values{
		"strategy_id": {fmt.Sprint(tree.Strategy.ID)},
		"symbol":      {strings.Repeat("X", 25)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDayPages(t *testing.T) {
	a := newApp(t, "")
	a.store.AddConcept("FVG", true)

	rec := a.get("/day/2024/3/4/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FVG")
	assert.Contains(t, rec.Body.String(), "1M (Optional)")
	assert.Contains(t, rec.Body.String(), `data-save-url="/api/day/2024/3/4/save-slots/"`)
	assert.Contains(t, rec.Body.String(), `<script src="/static/day.js" defer></script>`)
	assert.Contains(t, rec.Body.String(), `class="slot-note"`)

	script := a.get("/static/day.js")
	require.Equal(t, http.StatusOK, script.Code)
	assert.Contains(t, script.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, script.Body.String(), `getAttribute("data-save-url")`)
	assert.Contains(t, script.Body.String(), "fetch(saveURL")
	assert.Contains(t, script.Body.String(), "concept_id:")

	// сохранённые элементы рендерятся с заметкой, готовые к повторной отправке
	ob := a.store.AddConcept("Order Block", true)
	rec = a.postJSON("/api/day/2024/3/4/save-slots/", fmt.Sprintf(`{"slots":{"4H":[{"concept_id":%d,"note":"h4 OB"}]}}`, ob.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.get("/day/2024/3/4/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`class="slot-item" draggable="true" data-concept-id="%d"`, ob.ID))
	assert.Contains(t, rec.Body.String(), `value="h4 OB"`)

	rec = a.postForm("/day/2024/3/4/", url.Values{"session": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.postForm("/day/2024/3/4/", url.Values{"session": {"London"}, "symbol": {"EURUSD"}, "trade_taken": {"on"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/day/2024/3/4/", rec.Header().Get("Location"))
	journals := a.store.Journals(a.user.ID)
	require.Len(t, journals, 1)
	assert.Equal(t, "London", journals[0].Session)
	assert.True(t, journals[0].TradeTaken)

	assert.Equal(t, http.StatusNotFound, a.get("/day/2023/2/29/").Code)
	assert.Equal(t, http.StatusNotFound, a.get("/day/2024/x/1/").Code)
}

func TestCalendarAndLists(t *testing.T) {
	a := newApp(t, "")
	a.strategy(t)
	a.store.AddConcept("Breaker Block", true)

	rec := a.get("/legacy/calendar/?year=2024&month=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "January 2024")
	assert.Contains(t, rec.Body.String(), "year=2023&month=12")
	assert.Equal(t, http.StatusBadRequest, a.get("/legacy/calendar/?year=2024&month=13").Code)
	assert.Equal(t, http.StatusOK, a.get("/legacy/calendar/").Code)

	rec = a.get("/strategies/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PD array")

	rec = a.get("/concepts/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Breaker Block")

	assert.Equal(t, http.StatusOK, a.get("/runs/start/").Code)
}

func TestAuthWithJWT(t *testing.T) {
	const secret = "test-secret"
	a := newApp(t, secret)

	assert.Equal(t, http.StatusUnauthorized, a.get("/").Code)

	token, err := IssueToken(secret, a.user.ID, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, a.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "journal_token", Value: token})
	rec := a.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	forged, err := IssueToken("other-secret", a.user.ID, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, a.do(req).Code)

	ghost, err := IssueToken(secret, 987654, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+ghost)
	assert.Equal(t, http.StatusUnauthorized, a.do(req).Code)

	expired, err := IssueToken(secret, a.user.ID, -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, a.do(req).Code)
}

func TestNewAuthNeedsSecretOrDevUser(t *testing.T) {
	_, err := NewAuth(&config.Config{}, nil)
	assert.Error(t, err)
}

func TestSourcesAreGofmted(t *testing.T) {
	entries, err := os.ReadDir(".")
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		src, err := os.ReadFile(e.Name())
		require.NoError(t, err)
		formatted, err := format.Source(src)
		require.NoError(t, err, e.Name())
		assert.Equal(t, string(formatted), string(src), "%s is not gofmt-ed", e.Name())
	}
}
