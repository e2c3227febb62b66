package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"trade_journal/internal/helper"
	"trade_journal/internal/models"
	daybooksvc "trade_journal/internal/modules/daybook/service"
	sessionsvc "trade_journal/internal/modules/session/service"

	"github.com/gin-gonic/gin"
)

const maxSlotsBody = 1 << 20

func (h *handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.catalog.ListActive(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	runs, err := h.engine.Recent(ctx, userID(c), h.recentRuns)
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "Strategies": list, "Runs": runs})
}

func (h *handler) strategies(c *gin.Context) {
	trees, err := h.catalog.ActiveTrees(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "strategies.html", gin.H{"Title": "Strategies", "Trees": trees})
}

func (h *handler) conceptList(c *gin.Context) {
	list, err := h.concepts.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "concepts.html", gin.H{"Title": "Concepts", "Concepts": list})
}

func (h *handler) renderStart(c *gin.Context, status int, strategyID int64, symbol string, errs map[string]string) {
	list, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(status, "start.html", gin.H{
		"Title":      "Start run",
		"Strategies": list,
		"StrategyID": strategyID,
		"Symbol":     symbol,
		"Errors":     errs,
	})
}

func (h *handler) startForm(c *gin.Context) {
	h.renderStart(c, http.StatusOK, 0, "", nil)
}

func (h *handler) start(c *gin.Context) {
	strategyID, ok := helper.ParseID(c.PostForm("strategy_id"))
	if !ok {
		fail(c, models.ErrNotFound)
		return
	}
	symbol := c.PostForm("symbol")

	runID, err := h.engine.Start(c.Request.Context(), userID(c), strategyID, symbol)
	if err != nil {
		if fields, ok := fieldsOf(err); ok {
			h.renderStart(c, http.StatusBadRequest, strategyID, symbol, fields)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/runs/%d/", runID))
}

func runIDParam(c *gin.Context) (int64, bool) {
	id, ok := helper.ParseID(c.Param("id"))
	if !ok {
		fail(c, models.ErrNotFound)
	}
	return id, ok
}

func (h *handler) runDetail(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	view, err := h.engine.Detail(c.Request.Context(), userID(c), runID)
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "run.html", gin.H{"Title": view.Run.StrategyName, "View": view})
}

// checklistInput reads step_<id> checkboxes and notes_<id> fields.
func checklistInput(form map[string][]string) map[int64]sessionsvc.CheckInput {
	out := make(map[int64]sessionsvc.CheckInput)
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		var (
			raw     string
			isNotes bool
		)
		switch {
		case strings.HasPrefix(key, "step_"):
			raw = strings.TrimPrefix(key, "step_")
		case strings.HasPrefix(key, "notes_"):
			raw, isNotes = strings.TrimPrefix(key, "notes_"), true
		default:
			continue
		}
		stepID, ok := helper.ParseID(raw)
		if !ok {
			continue
		}
		in := out[stepID]
		if isNotes {
			in.Notes = values[0]
		} else {
			in.Checked = formBool(values[0])
		}
		out[stepID] = in
	}
	return out
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

func (h *handler) runUpdate(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		fail(c, models.Invalid("form", err.Error()))
		return
	}
	if err := h.engine.UpdateChecklist(c.Request.Context(), userID(c), runID, checklistInput(c.Request.PostForm)); err != nil {
		fail(c, err)
		return
	}
	target := fmt.Sprintf("/runs/%d/", runID)
	if formBool(c.PostForm("proceed")) {
		target += "review/"
	}
	c.Redirect(http.StatusFound, target)
}

type reviewForm struct {
	TradeTaken bool
	DayNotes   string
	Trade      sessionsvc.TradeForm
}

func reviewFormOf(view *sessionsvc.RunView) reviewForm {
	f := reviewForm{TradeTaken: view.Run.TradeTaken, DayNotes: view.Run.DayNotes}
	if t := view.Trade; t != nil {
		f.Trade = sessionsvc.TradeForm{
			Direction: string(t.Direction),
			EntryTime: t.EntryTime.Format("2006-01-02T15:04"),
			Stop:      t.Stop.String(),
			Target:    t.Target.String(),
			ResultR:   t.ResultR.StringFixed(2),
			Notes:     t.Notes,
		}
	}
	return f
}

func (h *handler) renderReview(c *gin.Context, status int, runID int64, form *reviewForm, errs map[string]string) {
	view, err := h.engine.Detail(c.Request.Context(), userID(c), runID)
	if err != nil {
		fail(c, err)
		return
	}
	if form == nil {
		f := reviewFormOf(view)
		form = &f
	}
	c.HTML(status, "review.html", gin.H{"Title": "Review", "View": view, "Form": form, "Errors": errs})
}

func (h *handler) reviewForm(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	h.renderReview(c, http.StatusOK, runID, nil, nil)
}

func (h *handler) review(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	form := reviewForm{
		TradeTaken: formBool(c.PostForm("trade_taken")),
		DayNotes:   c.PostForm("day_notes"),
		Trade: sessionsvc.TradeForm{
			Direction: c.PostForm("direction"),
			EntryTime: c.PostForm("entry_time"),
			Stop:      c.PostForm("stop"),
			Target:    c.PostForm("target"),
			ResultR:   c.PostForm("result_r"),
			Notes:     c.PostForm("trade_notes"),
		},
	}
	err := h.engine.Review(c.Request.Context(), userID(c), runID, sessionsvc.ReviewInput{
		TradeTaken: form.TradeTaken,
		DayNotes:   form.DayNotes,
		Trade:      form.Trade,
	})
	if err != nil {
		if fields, ok := fieldsOf(err); ok {
			h.renderReview(c, http.StatusBadRequest, runID, &form, fields)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// dateParams turns /:year/:month/:day/ into a date; invalid dates are 404.
func dateParams(c *gin.Context) (time.Time, bool) {
	y, errY := strconv.Atoi(c.Param("year"))
	m, errM := strconv.Atoi(c.Param("month"))
	d, errD := strconv.Atoi(c.Param("day"))
	if errY != nil || errM != nil || errD != nil {
		fail(c, models.ErrNotFound)
		return time.Time{}, false
	}
	date, ok := helper.Date(y, m, d)
	if !ok {
		fail(c, models.ErrNotFound)
	}
	return date, ok
}

func (h *handler) renderDay(c *gin.Context, status int, date time.Time, form *daybooksvc.DayForm, errs map[string]string) {
	view, err := h.book.Day(c.Request.Context(), userID(c), date)
	if err != nil {
		fail(c, err)
		return
	}
	if form == nil {
		f := daybooksvc.FormOf(&view.Journal)
		form = &f
	}
	c.HTML(status, "day.html", gin.H{"Title": date.Format(time.DateOnly), "View": view, "Form": form, "Errors": errs})
}

func (h *handler) day(c *gin.Context) {
	date, ok := dateParams(c)
	if !ok {
		return
	}
	h.renderDay(c, http.StatusOK, date, nil, nil)
}

func (h *handler) dayUpdate(c *gin.Context) {
	date, ok := dateParams(c)
	if !ok {
		return
	}
	form := daybooksvc.DayForm{
		Session:       c.PostForm("session"),
		Symbol:        c.PostForm("symbol"),
		TradeTaken:    formBool(c.PostForm("trade_taken")),
		WhyTaken:      c.PostForm("why_taken"),
		WhatIDidWell:  c.PostForm("what_i_did_well"),
		WhatToImprove: c.PostForm("what_to_improve"),
		GeneralNotes:  c.PostForm("general_notes"),
	}
	if err := h.book.UpdateDay(c.Request.Context(), userID(c), date, form); err != nil {
		if fields, ok := fieldsOf(err); ok {
			h.renderDay(c, http.StatusBadRequest, date, &form, fields)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, dayURL(date))
}

func (h *handler) saveSlots(c *gin.Context) {
	date, ok := slotDate(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSlotsBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid JSON"})
		return
	}
	slots, err := daybooksvc.DecodeSlots(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if _, err := h.book.SaveSlots(c.Request.Context(), userID(c), date, slots); err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			fail(c, err)
			return
		}
		c.JSON(status, gin.H{"ok": false, "error": http.StatusText(status)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// slotDate is dateParams answering in JSON.
func slotDate(c *gin.Context) (time.Time, bool) {
	y, errY := strconv.Atoi(c.Param("year"))
	m, errM := strconv.Atoi(c.Param("month"))
	d, errD := strconv.Atoi(c.Param("day"))
	date, ok := helper.Date(y, m, d)
	if errY != nil || errM != nil || errD != nil || !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Not Found"})
		return time.Time{}, false
	}
	return date, true
}

func (h *handler) calendar(c *gin.Context) {
	year, errY := queryInt(c, "year")
	month, errM := queryInt(c, "month")
	if errY != nil || errM != nil {
		fail(c, models.Invalid("month", "invalid year or month"))
		return
	}
	m, err := h.book.Calendar(c.Request.Context(), userID(c), year, month)
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "calendar.html", gin.H{"Title": "Calendar", "Month": m})
}

// queryInt returns 0 when the parameter is absent.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
