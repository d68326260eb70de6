//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var demo string
	var tickHz uint
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.DurationVar(&cfg.For, "for", 0, "Stop after this long in headless mode (0 = run forever).")
	flag.StringVar(&demo, "demo", "threads", "Scenario to run: "+app.Demos()+".")
	flag.UintVar(&tickHz, "hz", 0, "Kernel tick rate (0 = 1000).")
	flag.Parse()

	appCfg := app.Config{Demo: demo, TickHz: uint32(tickHz)}

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := hal.RunHeadless(ctx, func(h hal.HAL) *hal.RuntimePort {
			sys := app.New(h, appCfg)
			go sys.Run()
			return sys.Port
		}, cfg)
		if err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(func(h hal.HAL) {
		sys := app.New(h, appCfg)
		go sys.Run()
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
