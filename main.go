package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/covid-projections/covid-data-model/server"
	"github.com/covid-projections/covid-data-model/utils"
)

func main() {
	c, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("load config err: %v", err))
	}

	if c.LogLevel != "" {
		if err := utils.SetLogLevel(c.LogLevel); err != nil {
			panic(err)
		}
	}
	if err := utils.SetLogPath(c.LogPath); err != nil {
		panic(err)
	}

	http.Handle("/metrics", promhttp.HandlerFor(utils.DefaultRegistry(), promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%v", c.DebugPort), nil); err != nil {
			panic(err)
		}
	}()

	if err := server.Start(&c.Server); err != nil {
		panic(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := server.Stop(); err != nil {
		panic(err)
	}
}
