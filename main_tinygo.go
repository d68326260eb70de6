//go:build tinygo

package main

import (
	"ember/app"
	"ember/hal"
)

func main() {
	sys := app.New(hal.New(), app.Config{Demo: "timers"})
	sys.Run()
}
