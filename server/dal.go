package server

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	db *gorm.DB
)

func initDAL() error {
	var err error
	db, err = gorm.Open("mysql", config.MysqlDSN)
	if err != nil {
		return fmt.Errorf("open %v err: %v", config.MysqlDSN, err)
	}
	return nil
}

// RtEstimate is one per-kind estimate for one geography on one date.
type RtEstimate struct {
	FIPS     string    `json:"fips" gorm:"primary_key;not null"`
	Date     time.Time `json:"date" gorm:"primary_key;not null"`
	Kind     string    `json:"kind" gorm:"primary_key;not null"`
	RtMAP    float64   `json:"rt_map"`
	CiLow68  float64   `json:"ci_low_68"`
	CiHigh68 float64   `json:"ci_high_68"`
	CiLow95  float64   `json:"ci_low_95"`
	CiHigh95 float64   `json:"ci_high_95"`
	Smoothed float64   `json:"smoothed"`
	LagDays  float64   `json:"lag_days"`
}

// TableName .
func (e RtEstimate) TableName() string {
	return "rt_estimates"
}

// RtComposite is the blended estimate for one geography on one date.
type RtComposite struct {
	FIPS     string    `json:"fips" gorm:"primary_key;not null"`
	Date     time.Time `json:"date" gorm:"primary_key;not null"`
	RtMAP    float64   `json:"rt_map"`
	CiLow95  float64   `json:"ci_low_95"`
	CiHigh95 float64   `json:"ci_high_95"`
}

// TableName .
func (c RtComposite) TableName() string {
	return "rt_composite"
}

// RunFailure records one geography that failed inside a run.
type RunFailure struct {
	RunName string    `json:"run_name" gorm:"primary_key;not null"`
	FIPS    string    `json:"fips" gorm:"primary_key;not null"`
	Message string    `json:"message"`
	Stamp   time.Time `json:"stamp"`
}

// TableName .
func (f RunFailure) TableName() string {
	return "rt_run_failures"
}

// SaveEstimates .
func SaveEstimates(rows []RtEstimate) error {
	for i := range rows {
		if err := db.Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveComposites .
func SaveComposites(rows []RtComposite) error {
	for i := range rows {
		if err := db.Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveRunFailure .
func SaveRunFailure(f *RunFailure) error {
	return db.Save(f).Error
}

// QueryEstimates .
func QueryEstimates(fips string) ([]RtEstimate, error) {
	var rows []RtEstimate
	err := db.Where("fips=?", fips).Order("date").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryComposites .
func QueryComposites(fips string) ([]RtComposite, error) {
	var rows []RtComposite
	err := db.Where("fips=?", fips).Order("date").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteEstimates removes every stored row for a geography before a rerun.
func DeleteEstimates(fips string) error {
	if err := db.Where("fips=?", fips).Delete(RtEstimate{}).Error; err != nil {
		return err
	}
	return db.Where("fips=?", fips).Delete(RtComposite{}).Error
}
