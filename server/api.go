package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/covid-projections/covid-data-model/runner"
)

// SubmitRun submit a run to the runner in this process
func SubmitRun(c *gin.Context) {
	var meta runner.RunMeta
	if err := c.BindJSON(&meta); err != nil {
		c.String(400, "invalid argument")
		return
	}

	if err := runner.SubmitRun(meta); err != nil {
		c.String(500, "submit run err: %v", err)
		return
	}

	c.String(200, "submit run success")
}

// SubmitBatchRuns submit a batch of runs to the runner in this process
func SubmitBatchRuns(c *gin.Context) {
	var batchRuns []runner.RunMeta
	if err := c.BindJSON(&batchRuns); err != nil {
		c.String(400, "invalid argument")
		return
	}

	results := make([]string, 0, len(batchRuns))
	for _, meta := range batchRuns {
		err := runner.SubmitRun(meta)
		if err == nil {
			results = append(results, "ok")
		} else {
			results = append(results, err.Error())
		}
	}

	c.JSON(200, results)
}

// QueryRunDetail .
func QueryRunDetail(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.String(400, "no run name")
		return
	}
	r, ok := runner.RunInfo(name)
	if !ok {
		c.String(500, "run %v not found", name)
		return
	}

	errMsg := ""
	var errStamp time.Time
	if err, stamp := r.Err(); err != nil {
		errMsg = err.Error()
		errStamp = stamp
	}

	geos := make(map[string]interface{})
	for fips, g := range r.Geos() {
		gErrMsg := ""
		var gErrStamp time.Time
		if err, stamp := g.Err(); err != nil {
			gErrMsg = err.Error()
			gErrStamp = stamp
		}
		geos[fips] = map[string]interface{}{
			"state":     g.State(),
			"err":       gErrMsg,
			"err_stamp": gErrStamp,
		}
	}

	c.JSON(200, map[string]interface{}{
		"name":             r.Name,
		"fips":             r.FIPS,
		"state":            r.State(),
		"last_error":       errMsg,
		"last_error_stamp": errStamp,
		"geos":             geos,
	})
}

// AllRunDetail .
func AllRunDetail(c *gin.Context) {
	runs := runner.AllRuns()
	results := make([]map[string]interface{}, 0, len(runs))
	for _, r := range runs {
		errMsg := ""
		var errStamp time.Time
		if err, stamp := r.Err(); err != nil {
			errMsg = err.Error()
			errStamp = stamp
		}
		results = append(results, map[string]interface{}{
			"name":      r.Name,
			"fips":      r.FIPS,
			"state":     r.State(),
			"err":       errMsg,
			"err_stamp": errStamp,
		})
	}

	c.JSON(200, results)
}

// CancelRun .
func CancelRun(c *gin.Context) {
	type req struct {
		Name string `json:"name"`
	}
	var r req
	if err := c.BindJSON(&r); err != nil {
		c.String(400, "invalid request")
		return
	}

	if err := runner.CancelRun(r.Name); err != nil {
		c.String(500, err.Error())
		return
	}

	c.String(200, "ok")
}

// Summary .
func Summary(c *gin.Context) {
	runs := runner.AllRuns()
	summary := make(map[string]int)
	for _, r := range runs {
		summary["run_"+string(r.State())]++
		for _, g := range r.Geos() {
			summary["geo_"+string(g.State())]++
		}
	}
	c.JSON(200, summary)
}

// QueryEstimatesDetail .
func QueryEstimatesDetail(c *gin.Context) {
	fips := c.Query("fips")
	if fips == "" {
		c.String(400, "no fips")
		return
	}

	rows, err := QueryEstimates(fips)
	if err != nil {
		c.String(500, "query estimates err: %v", err)
		return
	}

	c.JSON(200, rows)
}

// QueryCompositeDetail .
func QueryCompositeDetail(c *gin.Context) {
	fips := c.Query("fips")
	if fips == "" {
		c.String(400, "no fips")
		return
	}

	rows, err := QueryComposites(fips)
	if err != nil {
		c.String(500, "query composite err: %v", err)
		return
	}

	c.JSON(200, rows)
}
