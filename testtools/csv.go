package testtools

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/covid-projections/covid-data-model/ts"
)

const seriesHeader = "date,value"

// CSVFile2Series read this csv file and convert it to a Series
//  format:
// 	 date(2006-01-02), value
func CSVFile2Series(fpath string) (ts.Series, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return ts.Series{}, fmt.Errorf("open file err: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	var points ts.Points
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return ts.Series{}, fmt.Errorf("read file err: %v", err)
		}

		if first {
			first = false
			continue
		}

		if len(record) != 2 {
			return ts.Series{}, fmt.Errorf("invalid series csv file")
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return ts.Series{}, fmt.Errorf("invalid date in the first column: %v", record[0])
		}

		val, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return ts.Series{}, fmt.Errorf("invalid value in the second column: %v", record[1])
		}

		points = append(points, ts.NewPoint(date, val))
	}

	return ts.NewSeries(points), nil
}

// Series2CSVFile write this Series to a csv file
func Series2CSVFile(fpath string, s ts.Series) error {
	f, err := os.OpenFile(fpath, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("open file err: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString(seriesHeader + "\n"); err != nil {
		return fmt.Errorf("write file: %v, err: %v", fpath, err)
	}
	for _, p := range s.Points() {
		_, err := f.WriteString(fmt.Sprintf("%v,%v\n", p.Date.Format("2006-01-02"), p.Value))
		if err != nil {
			return fmt.Errorf("write file: %v, err: %v", fpath, err)
		}
	}

	return nil
}
