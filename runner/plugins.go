package runner

import (
	"context"
	"fmt"

	"github.com/covid-projections/covid-data-model/epimodel"
	"github.com/covid-projections/covid-data-model/inference"
)

// Plugins .
type Plugins struct {
	// LoadObservations fetches the raw observation series for one geography.
	LoadObservations func(ctx context.Context, fips string) (epimodel.ObservationBundle, error)

	// Parameters returns the disease parameters to use for one geography.
	Parameters func(fips string) (epimodel.Parameters, error)

	// StoreResult persists the combined estimate table of one geography.
	// A nil table means inference ran but no observation kind qualified.
	StoreResult func(runName, fips string, table *inference.ResultTable) error

	// ReportError records a per-geography failure. The run keeps going.
	ReportError func(runName, fips string, err error)
}

// Valid .
func (p Plugins) Valid() error {
	if p.LoadObservations == nil {
		return fmt.Errorf("no LoadObservations")
	}
	if p.Parameters == nil {
		return fmt.Errorf("no Parameters")
	}
	if p.StoreResult == nil {
		return fmt.Errorf("no StoreResult")
	}
	if p.ReportError == nil {
		return fmt.Errorf("no ReportError")
	}

	return nil
}
