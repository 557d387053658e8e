package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kau-z/heart-disease/internal/advice"
	"github.com/kau-z/heart-disease/internal/artifact"
	"github.com/kau-z/heart-disease/internal/chart"
	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/history"
	"github.com/kau-z/heart-disease/internal/observability"
	"github.com/kau-z/heart-disease/internal/predict"
)

type App struct {
	predictor *predict.Predictor
	reference *artifact.Reference
	store     *history.Store
	recent    *recentPredictions
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func newApp(p *predict.Predictor, ref *artifact.Reference, store *history.Store, metrics *observability.Metrics, logger *slog.Logger) *App {
	return &App{
		predictor: p,
		reference: ref,
		store:     store,
		recent:    newRecentPredictions(32),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Ready reports whether the history location is usable. Artifacts are
// already loaded by the time an App exists.
func (a *App) Ready() error {
	dir := filepath.Dir(a.store.Path())
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("history dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("history dir: %s is not a directory", dir)
	}
	return nil
}

type WhatIfForm struct {
	Cholesterol int `form:"cholestoral" json:"cholestoral" binding:"required,min=100,max=600"`
	RestingBP   int `form:"resting_blood_pressure" json:"resting_blood_pressure" binding:"required,min=80,max=200"`
}

type DeleteForm struct {
	Positions []int `form:"delete"`
	Rows      int   `form:"rows" binding:"min=0"`
}

type Comparison struct {
	AvgRestingBP   float64
	AvgCholesterol float64
	HasRestingBP   bool
	HasCholesterol bool
	RestingBP      int
	Cholesterol    int
}

type WhatIfView struct {
	Cholesterol int
	RestingBP   int
	Probability float64
	Computed    bool
}

type ResultView struct {
	ID          string
	Probability float64
	Top         []predict.Attribution
	Tips        []string
	Saved       bool
	WhatIf      WhatIfView
	Comparison  Comparison
}

type PageData struct {
	Form    features.Record
	Result  *ResultView
	History history.Table
	Flash   string
	Error   string
}

type PredictResponse struct {
	ID          string                `json:"id"`
	Probability float64               `json:"probability"`
	Top         []predict.Attribution `json:"top"`
	Tips        []string              `json:"tips"`
}

// Index renders the form and the history table.
func (a *App) Index(c *gin.Context) {
	data := PageData{Form: features.DefaultRecord()}
	if n, err := strconv.Atoi(c.Query("deleted")); err == nil {
		data.Flash = fmt.Sprintf("Deleted %d record(s).", n)
	}
	if msg := c.Query("error"); msg != "" {
		data.Error = msg
	}
	a.render(c, http.StatusOK, data)
}

// Predict scores the submitted form, logs it to history and renders the
// results with the what-if sliders.
func (a *App) Predict(c *gin.Context) {
	var rec features.Record
	if err := c.ShouldBind(&rec); err != nil {
		a.render(c, http.StatusBadRequest, PageData{Form: features.DefaultRecord(), Error: "invalid form: " + err.Error()})
		return
	}
	if err := rec.Validate(); err != nil {
		a.render(c, http.StatusUnprocessableEntity, PageData{Form: rec, Error: err.Error()})
		return
	}

	p, err := a.score(rec)
	if err != nil {
		a.render(c, http.StatusInternalServerError, PageData{Form: rec, Error: "prediction failed: " + err.Error()})
		return
	}

	a.render(c, http.StatusOK, PageData{Form: rec, Result: a.resultView(p, true)})
}

// WhatIf re-scores a remembered prediction with slider values for
// cholesterol and resting blood pressure. Nothing is logged.
func (a *App) WhatIf(c *gin.Context) {
	p, ok := a.recent.get(c.Param("id"))
	if !ok {
		a.render(c, http.StatusNotFound, PageData{Form: features.DefaultRecord(), Error: "prediction not found; submit the form again"})
		return
	}

	var form WhatIfForm
	if err := c.ShouldBind(&form); err != nil {
		a.render(c, http.StatusBadRequest, PageData{Form: p.Record, Result: a.resultView(p, false), Error: "invalid what-if values: " + err.Error()})
		return
	}

	prob, err := a.predictor.WhatIf(p.Record, form.Cholesterol, form.RestingBP)
	if err != nil {
		a.render(c, http.StatusInternalServerError, PageData{Form: p.Record, Result: a.resultView(p, false), Error: "what-if failed: " + err.Error()})
		return
	}
	a.metrics.WhatIfs.Inc()
	a.logger.Info("what-if computed",
		"prediction_id", p.ID,
		"cholestoral", form.Cholesterol,
		"resting_blood_pressure", form.RestingBP,
		"probability", prob,
	)

	view := a.resultView(p, false)
	view.WhatIf = WhatIfView{
		Cholesterol: form.Cholesterol,
		RestingBP:   form.RestingBP,
		Probability: prob,
		Computed:    true,
	}
	a.render(c, http.StatusOK, PageData{Form: p.Record, Result: view})
}

// Chart serves the top-contribution bar chart of a remembered prediction.
func (a *App) Chart(c *gin.Context) {
	p, ok := a.recent.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	png, err := chart.Contributions(p.Top)
	if err != nil {
		a.logger.Error("chart render failed", "prediction_id", p.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart unavailable"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// DeleteHistory removes the checked rows and redirects back to the index.
func (a *App) DeleteHistory(c *gin.Context) {
	var form DeleteForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "invalid delete request")
		return
	}

	n, err := a.store.Delete(form.Positions, form.Rows)
	switch {
	case errors.Is(err, history.ErrStaleView):
		redirectWithError(c, "history changed since it was shown; review it and try again")
		return
	case errors.Is(err, history.ErrPosition):
		redirectWithError(c, "selected row no longer exists")
		return
	case err != nil:
		a.logger.Error("history delete failed", "error", err)
		redirectWithError(c, "could not delete records")
		return
	}

	a.metrics.DeletedRows.Add(float64(n))
	a.logger.Info("history rows deleted", "count", n, "positions", form.Positions)
	c.Redirect(http.StatusSeeOther, "/?deleted="+strconv.Itoa(n))
}

// APIPredict is the JSON form of Predict.
func (a *App) APIPredict(c *gin.Context) {
	var rec features.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := rec.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}

	p, err := a.score(rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}
	c.JSON(http.StatusOK, PredictResponse{
		ID:          p.ID,
		Probability: p.Result.Probability,
		Top:         p.Top,
		Tips:        p.Tips,
	})
}

// APIHistory returns the stored history table.
func (a *App) APIHistory(c *gin.Context) {
	table, err := a.store.Load()
	if err != nil {
		a.logger.Error("history load failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, table)
}

// score runs the full prediction, derives tips, appends the history row and
// remembers the result.
func (a *App) score(rec features.Record) (*prediction, error) {
	start := time.Now()
	res, err := a.predictor.Predict(rec)
	a.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.PredictionFailures.Inc()
		a.logger.Error("prediction failed", "error", err)
		return nil, err
	}

	top := res.Top(predict.TopFactors)
	p := &prediction{
		Record: rec,
		Result: res,
		Top:    top,
		Tips:   advice.Tips(rec, top),
	}

	if err := a.store.Append(history.NewRow(a.now(), res.Probability, rec)); err != nil {
		a.metrics.PredictionFailures.Inc()
		a.logger.Error("history append failed", "path", a.store.Path(), "error", err)
		return nil, err
	}

	id := a.recent.add(p)
	a.metrics.Predictions.Inc()
	a.logger.Info("prediction served",
		"prediction_id", id,
		"probability", res.Probability,
		"top_factors", len(top),
		"tips", len(p.Tips),
	)
	return p, nil
}

func (a *App) resultView(p *prediction, saved bool) *ResultView {
	cmp := Comparison{RestingBP: p.Record.RestingBloodPressure, Cholesterol: p.Record.Cholesterol}
	cmp.AvgRestingBP, cmp.HasRestingBP = a.reference.Mean(features.ColRestingBloodPressure)
	cmp.AvgCholesterol, cmp.HasCholesterol = a.reference.Mean(features.ColCholesterol)
	return &ResultView{
		ID:          p.ID,
		Probability: p.Result.Probability,
		Top:         p.Top,
		Tips:        p.Tips,
		Saved:       saved,
		WhatIf: WhatIfView{
			Cholesterol: p.Record.Cholesterol,
			RestingBP:   p.Record.RestingBloodPressure,
		},
		Comparison: cmp,
	}
}

// render fills in the history table and writes the page. A history read
// failure is shown on the page rather than failing the request.
func (a *App) render(c *gin.Context, status int, data PageData) {
	table, err := a.store.Load()
	if err != nil {
		a.logger.Error("history load failed", "error", err)
		if data.Error == "" {
			data.Error = "could not read history: " + err.Error()
		}
	}
	data.History = table
	c.HTML(status, "index.html", data)
}

func redirectWithError(c *gin.Context, msg string) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(msg))
}
