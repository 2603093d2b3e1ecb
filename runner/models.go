package runner

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/covid-projections/covid-data-model/inference"
)

type RunState string

const (
	RunInit   RunState = "init"
	RunInfer  RunState = "infer"
	RunDone   RunState = "done"
	RunError  RunState = "error"
	RunCancel RunState = "cancel"
)

// RunMeta is the persisted description of one inference run: a batch of
// geographies estimated together.
type RunMeta struct {
	Name   string   `json:"name"` // primary key
	FIPS   []string `json:"fips"`
	Config string   `json:"config"`
}

type RunRuntime struct {
	// these fields are created when init and immutable
	Configs map[string]interface{}

	// these fields protected by lock
	state    RunState
	err      error
	errStamp time.Time
	geos     map[string]*GeoRun
	lock     sync.RWMutex
}

func (rr *RunRuntime) State() RunState {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	return rr.state
}

func (rr *RunRuntime) SetState(state RunState) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.state = state
}

func (rr *RunRuntime) Err() (error, time.Time) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	return rr.err, rr.errStamp
}

func (rr *RunRuntime) SetErr(err error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.err = err
	rr.errStamp = time.Now()
}

func (rr *RunRuntime) AddGeo(g *GeoRun) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.geos[g.FIPS] = g
}

func (rr *RunRuntime) Geos() map[string]*GeoRun {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	geos := make(map[string]*GeoRun, len(rr.geos))
	for fips, g := range rr.geos {
		geos[fips] = g
	}
	return geos
}

type Run struct {
	RunMeta
	RunRuntime
}

func newRun(meta RunMeta) (*Run, error) {
	if meta.Name == "" {
		return nil, fmt.Errorf("run has no name")
	}
	if len(meta.FIPS) == 0 {
		return nil, fmt.Errorf("run has no fips")
	}

	confMap := make(map[string]interface{})
	if meta.Config != "" {
		if err := json.Unmarshal([]byte(meta.Config), &confMap); err != nil {
			return nil, fmt.Errorf("invalid config")
		}
	}

	return &Run{
		RunMeta: meta,
		RunRuntime: RunRuntime{
			Configs: confMap,
			state:   RunInit,
			geos:    make(map[string]*GeoRun),
		},
	}, nil
}

func (r *Run) MarshalJSON() ([]byte, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	jMap := map[string]interface{}{
		"name":             r.Name,
		"fips":             r.FIPS,
		"config":           r.Configs,
		"state":            r.state,
		"last_error":       r.err,
		"last_error_stamp": r.errStamp,
		"geo_states":       r.geos,
	}

	return json.Marshal(jMap)
}

type GeoState string

const (
	GeoInit   GeoState = "init"
	GeoLoad   GeoState = "load"
	GeoInfer  GeoState = "infer"
	GeoStore  GeoState = "store"
	GeoDone   GeoState = "done"
	GeoError  GeoState = "error"
	GeoCancel GeoState = "cancel"
)

// GeoRun is the runtime state of one geography inside a run. It is created
// by the run and does not need to be persisted.
type GeoRun struct {
	RunName   string
	FIPS      string
	StartedAt time.Time

	// runtime information
	state    GeoState
	table    *inference.ResultTable
	err      error
	errStamp time.Time
	lock     sync.RWMutex
}

func newGeoRun(runName, fips string) *GeoRun {
	return &GeoRun{
		RunName:   runName,
		FIPS:      fips,
		StartedAt: time.Now(),
		state:     GeoInit,
	}
}

func (g *GeoRun) Name() string {
	return fmt.Sprintf("%s:%s", g.RunName, g.FIPS)
}

func (g *GeoRun) State() GeoState {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.state
}

func (g *GeoRun) SetState(state GeoState) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.state = state
}

func (g *GeoRun) Table() *inference.ResultTable {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.table
}

func (g *GeoRun) SetTable(table *inference.ResultTable) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.table = table
}

func (g *GeoRun) Err() (error, time.Time) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.err, g.errStamp
}

func (g *GeoRun) SetErr(err error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.err = err
	g.errStamp = time.Now()
}

func (g *GeoRun) MarshalJSON() ([]byte, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return json.Marshal(map[string]interface{}{
		"run_name":         g.RunName,
		"fips":             g.FIPS,
		"started_at":       g.StartedAt,
		"state":            g.state,
		"last_error":       g.err,
		"last_error_stamp": g.errStamp,
	})
}
