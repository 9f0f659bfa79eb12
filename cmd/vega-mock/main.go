// vega-mock - in-memory stand-in for the vega robot's control API.
// Useful for running the console without hardware.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/robotmock"
)

func main() {
	listen := flag.String("listen", ":5000", "Listen address")
	debug := flag.Bool("debug", false, "Log every request")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mock := robotmock.New(log.L())
	go func() {
		<-ctx.Done()
		mock.Shutdown()
	}()

	if err := mock.Listen(*listen); err != nil {
		log.Error("mock robot stopped", "err", err)
		os.Exit(1)
	}
}
