// Package runner executes inference runs: batches of geographies whose R_t
// estimates are computed concurrently, with per-geography isolation so that
// one bad series never fails the batch.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/covid-projections/covid-data-model/inference"
	"github.com/covid-projections/covid-data-model/utils"
)

const (
	_STATUS_INIT = iota
	_STATUS_STARTED
	_STATUS_STOPPED
)

// Options .
type Options struct {
	MaxRuns int
	// MaxConcurrentGeos bounds how many geographies of one run are inferred
	// at the same time.
	MaxConcurrentGeos int

	P         *Plugins
	Inference inference.Config
}

type runner struct {
	O *Options

	// runtime fields
	runs     map[string]*Run
	contexts map[string]context.Context
	cancels  map[string]func()
	status   int
	exit     chan struct{}
	lock     sync.RWMutex

	// dependency
	logger    utils.Logger
	metricser utils.Metricser
}

func (r *runner) start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.status != _STATUS_INIT {
		return fmt.Errorf("runner has already been started")
	}
	r.status = _STATUS_STARTED

	go r.heartbeat()
	return nil
}

func (r *runner) heartbeat() {
	tick := time.Tick(time.Second * 30)
	for {
		select {
		case <-r.exit:
			return
		case <-tick:
		}

		for s, c := range r.RunCounter() {
			r.metricser.EmitStore("runner.run.counter", float64(c), map[string]string{"state": string(s)})
			r.logger.Infof("run counter, state=%v, number=%v", string(s), c)
		}

		geoCounter := make(map[GeoState]int)
		for _, run := range r.AllRuns() {
			for _, g := range run.Geos() {
				geoCounter[g.State()]++
			}
		}
		for s, c := range geoCounter {
			r.metricser.EmitStore("runner.geo.counter", float64(c), map[string]string{"state": string(s)})
			r.logger.Infof("geo counter, state=%v, number=%v", string(s), c)
		}
	}
}

func (r *runner) stop() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.status == _STATUS_INIT {
		return errors.New("runner has not been started yet")
	}
	if r.status == _STATUS_STOPPED {
		return errors.New("runner has already been stopped")
	}
	r.status = _STATUS_STOPPED

	// stop the heartbeat and release every run context; in-flight
	// geographies observe the cancellation at their next stage check
	close(r.exit)
	for _, cancel := range r.cancels {
		cancel()
	}
	return nil
}

func (r *runner) addRun(run *Run) {
	r.lock.Lock()
	defer r.lock.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	r.runs[run.Name] = run
	r.contexts[run.Name] = ctx
	r.cancels[run.Name] = cancel
}

func (r *runner) cancelRun(run *Run) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.cancels[run.Name]()
	switch run.State() {
	case RunDone, RunError:
		// terminal, the context is only released
	default:
		run.SetState(RunCancel)
	}
}

func (r *runner) runContext(run *Run) context.Context {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.contexts[run.Name]
}

func (r *runner) runHasDone(run *Run) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	select {
	case <-r.contexts[run.Name].Done():
		return true
	default:
		return false
	}
}

func (r *runner) submitRun(run *Run) {
	r.logger.Infof("receive a run=%v with %v geographies", run.Name, len(run.FIPS))

	run.SetState(RunInit)
	r.addRun(run)
	defer r.cancelRun(run)

	run.SetState(RunInfer)

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.O.MaxConcurrentGeos)
	for _, fips := range run.FIPS {
		g := newGeoRun(run.Name, fips)
		run.AddGeo(g)

		wg.Add(1)
		go func(g *GeoRun) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			r.process(run, g)
		}(g)
	}
	wg.Wait()

	failed := 0
	for _, g := range run.Geos() {
		if g.State() == GeoError {
			failed++
		}
	}
	if failed == len(run.FIPS) {
		run.SetErr(fmt.Errorf("all %v geographies failed", failed))
		run.SetState(RunError)
		return
	}
	if run.State() == RunInfer {
		run.SetState(RunDone)
	}
	r.logger.Infof("run=%v finished, %v/%v geographies failed", run.Name, failed, len(run.FIPS))
}

func (r *runner) process(run *Run, g *GeoRun) {
	begin := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.logger.Errorf("geo=%v panic: %v", g.Name(), p)
			r.metricser.EmitCounter("runner.process.panic", 1, nil)
			g.SetErr(err)
			g.SetState(GeoError)
			r.O.P.ReportError(run.Name, g.FIPS, err)
		}
		r.metricser.EmitTimer("runner.process", int(time.Since(begin).Milliseconds()), nil)
	}()

	fail := func(err error, counter string) {
		r.logger.Errorf("geo=%v err=%v", g.Name(), err)
		r.metricser.EmitCounter(counter, 1, nil)
		g.SetErr(err)
		g.SetState(GeoError)
		r.O.P.ReportError(run.Name, g.FIPS, err)
	}

	if r.runHasDone(run) {
		g.SetState(GeoCancel)
		return
	}

	g.SetState(GeoLoad)
	bundle, err := r.O.P.LoadObservations(r.runContext(run), g.FIPS)
	if err != nil {
		fail(fmt.Errorf("load observations err=%v", err), "runner.load.err")
		return
	}
	params, err := r.O.P.Parameters(g.FIPS)
	if err != nil {
		fail(fmt.Errorf("load parameters err=%v", err), "runner.params.err")
		return
	}

	if r.runHasDone(run) {
		g.SetState(GeoCancel)
		return
	}

	g.SetState(GeoInfer)
	eng, err := inference.NewEngine(bundle, params, r.O.Inference, r.logger)
	if err != nil {
		fail(fmt.Errorf("build engine err=%v", err), "runner.engine.err")
		return
	}
	table, err := eng.InferAll()
	if err != nil {
		fail(fmt.Errorf("infer err=%v", err), "runner.infer.err")
		return
	}

	if r.runHasDone(run) {
		g.SetState(GeoCancel)
		return
	}

	if table == nil {
		// nothing qualified for this geography, not a failure
		r.metricser.EmitCounter("runner.empty_result", 1, nil)
		g.SetState(GeoDone)
		return
	}

	g.SetState(GeoStore)
	if err := r.O.P.StoreResult(run.Name, g.FIPS, table); err != nil {
		fail(fmt.Errorf("store result err=%v", err), "runner.store.err")
		return
	}

	g.SetTable(table)
	g.SetState(GeoDone)
	r.metricser.EmitCounter("runner.process.succ", 1, nil)
}

func (r *runner) SubmitRun(meta RunMeta) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.runs[meta.Name]; ok {
		return fmt.Errorf("run %v already exists", meta.Name)
	}

	totalRunning := 0
	for _, run := range r.runs {
		switch run.State() {
		case RunInit, RunInfer:
			totalRunning++
		}
	}
	if totalRunning >= r.O.MaxRuns {
		return fmt.Errorf("there are too many runs")
	}

	run, err := newRun(meta)
	if err != nil {
		return fmt.Errorf("create run err=%v", err)
	}

	go r.submitRun(run)
	return nil
}

func (r *runner) CancelRun(name string) error {
	run, ok := r.RunInfo(name)
	if !ok {
		return fmt.Errorf("run %v not found", name)
	}
	r.cancelRun(run)
	return nil
}

func (r *runner) RunInfo(name string) (*Run, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	run, ok := r.runs[name]
	return run, ok
}

func (r *runner) RunCounter() map[RunState]int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	results := make(map[RunState]int)
	for _, run := range r.runs {
		results[run.State()]++
	}
	return results
}

func (r *runner) AllRuns() map[string]*Run {
	r.lock.RLock()
	defer r.lock.RUnlock()
	results := make(map[string]*Run, len(r.runs))
	for name, run := range r.runs {
		results[name] = run
	}
	return results
}
