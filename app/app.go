// Package app assembles the kernel, port, console, and one of the demo
// scenarios into a runnable system.
package app

import (
	"sort"
	"strings"

	"ember/hal"
	"ember/kernel"
	"ember/services/term"
)

// stackWords is the default stack size for demo threads.
const stackWords = 256

// Config selects the demo and tick rate for a run.
type Config struct {
	// Demo names the scenario; see Demos.
	Demo string
	// TickHz overrides the kernel tick rate. 0 means 1 kHz.
	TickHz uint32
}

// System owns everything a demo run needs.
type System struct {
	K       *kernel.Kernel
	Port    *hal.RuntimePort
	Console *term.Service

	hal hal.HAL

	idleThread    kernel.Thread
	idleStack     []uintptr
	consoleThread kernel.Thread
	consoleStack  []uintptr
}

// New builds the kernel and threads for the selected demo. The caller
// then invokes Run, which blocks inside the scheduler; window shells
// run it in the background.
func New(h hal.HAL, cfg Config) *System {
	port := hal.NewRuntimePort()
	k := kernel.New(port, kernel.Config{TickHz: cfg.TickHz})

	sys := &System{K: k, Port: port, hal: h}

	log := h.Logger()
	k.SetDebugPrint(log.WriteLineString)
	k.SetPanicHandler(func(code kernel.PanicCode) {
		log.WriteLineString("kernel panic: " + code.String())
	})

	sys.Console = term.New(k, h.Display(), log)

	sys.idleStack = make([]uintptr, stackWords)
	sys.idleThread.Init(k, sys.idleStack, 0, func(any) {
		for {
			k.Idle()
		}
	}, nil)
	sys.idleThread.SetName("idle")
	sys.idleThread.Start()

	sys.consoleStack = make([]uintptr, stackWords)
	sys.consoleThread.Init(k, sys.consoleStack, consolePriority, sys.Console.Run, nil)
	sys.consoleThread.SetName("console")
	sys.consoleThread.Start()

	demo, ok := demos[cfg.Demo]
	if !ok {
		demo = demoThreads
	}
	demo(sys)

	return sys
}

// Run starts the scheduler. On the runtime port it returns when the
// port is stopped.
func (s *System) Run() {
	s.K.Start()
}

// Println emits one line on the demo console.
func (s *System) Println(line string) {
	s.Console.Println(line)
}

// Demos lists the available scenario names.
func Demos() string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
