package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/covid-projections/covid-data-model/utils"
)

var singleton *runner
var lock sync.Mutex

func Start(op *Options) error {
	lock.Lock()
	defer lock.Unlock()
	if singleton != nil {
		return fmt.Errorf("has already started a runner")
	}

	if op.MaxRuns == 0 {
		return errors.New("no MaxRuns")
	}
	if op.MaxConcurrentGeos == 0 {
		op.MaxConcurrentGeos = 8
	}
	if op.P == nil {
		return fmt.Errorf("no Plugins")
	}
	if err := op.P.Valid(); err != nil {
		return err
	}

	singleton = &runner{
		O:         op,
		status:    _STATUS_INIT,
		runs:      make(map[string]*Run),
		contexts:  make(map[string]context.Context),
		cancels:   make(map[string]func()),
		exit:      make(chan struct{}),
		logger:    utils.NewLogger("runner"),
		metricser: utils.NewDefaultMetricser(),
	}
	return singleton.start()
}

func Stop() error {
	lock.Lock()
	defer lock.Unlock()
	if singleton == nil {
		return errors.New("no runner is running")
	}
	if err := singleton.stop(); err != nil {
		return err
	}
	singleton = nil
	return nil
}

func SubmitRun(meta RunMeta) error {
	return singleton.SubmitRun(meta)
}

func CancelRun(name string) error {
	return singleton.CancelRun(name)
}

func RunInfo(name string) (*Run, bool) {
	return singleton.RunInfo(name)
}

func AllRuns() map[string]*Run {
	return singleton.AllRuns()
}
