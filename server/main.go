// Package server wires the inference runner to its HTTP API, the observation
// loader and the result store.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/inference"
	"github.com/covid-projections/covid-data-model/loader"
	"github.com/covid-projections/covid-data-model/runner"
	"github.com/covid-projections/covid-data-model/utils"
)

// Config .
type Config struct {
	Port     int    `yaml:"Port"`
	MysqlDSN string `yaml:"MysqlDSN"`
	// DataDir holds one observation csv per geography.
	DataDir string `yaml:"DataDir"`

	MaxRuns           int `yaml:"MaxRuns"`
	MaxConcurrentGeos int `yaml:"MaxConcurrentGeos"`
}

var (
	config    *Config
	logger    utils.Logger
	metricser utils.Metricser
	infConfig inference.Config
)

// Start .
func Start(c *Config) error {
	config = c
	logger = utils.NewLogger("server")
	metricser = utils.NewDefaultMetricser()
	infConfig = inference.DefaultConfig()

	if err := initDAL(); err != nil {
		return err
	}
	if err := startRunner(); err != nil {
		return err
	}

	g := gin.Default()
	rtAPI := g.Group("rt/api")
	run := rtAPI.Group("runner")
	{
		run.POST("submit_run", SubmitRun)
		run.POST("submit_batch_runs", SubmitBatchRuns)
		run.GET("query_run_detail", QueryRunDetail)
		run.GET("all_run_detail", AllRunDetail)
		run.POST("cancel_run", CancelRun)
		run.GET("summary", Summary)
	}
	res := rtAPI.Group("result")
	{
		res.GET("query_estimates", QueryEstimatesDetail)
		res.GET("query_composite", QueryCompositeDetail)
	}

	go func() {
		err := g.Run(fmt.Sprintf("0.0.0.0:%v", c.Port))
		panic(err)
	}()

	return nil
}

// Stop shuts the runner down; in-flight runs are cancelled.
func Stop() error {
	return runner.Stop()
}

func startRunner() error {
	l := loader.NewCSVLoader(config.DataDir)

	p := &runner.Plugins{
		LoadObservations: l.Load,
		Parameters: func(fips string) (epimodel.Parameters, error) {
			return epimodel.DefaultParameters(), nil
		},
		StoreResult: storeResult,
		ReportError: reportError,
	}

	return runner.Start(&runner.Options{
		MaxRuns:           config.MaxRuns,
		MaxConcurrentGeos: config.MaxConcurrentGeos,
		P:                 p,
		Inference:         infConfig,
	})
}
