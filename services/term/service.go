// Package term renders kernel console output on a tinyterm terminal
// over the HAL framebuffer, mirroring every line to the HAL logger so
// headless runs still produce output.
//
// The service is itself a kernel thread: producers hand it lines
// through a message queue, exercising the kernel's own IPC for its
// console path.
package term

import (
	"ember/hal"
	"ember/kernel"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// Message codes understood by the service.
const (
	msgWrite uint16 = iota + 1
	msgClear
)

// poolSize bounds the number of lines in flight; producers beyond it
// fall back to the logger alone rather than block.
const poolSize = 32

// Service is the console thread and its queue.
type Service struct {
	k    *kernel.Kernel
	disp hal.Display
	log  hal.Logger

	queue kernel.MessageQueue
	pool  kernel.MessagePool
	msgs  [poolSize]kernel.Message

	fb hal.Framebuffer
	d  *fbDisplay
	t  *tinyterm.Terminal
}

// New wires a console service. Run must be started as a kernel thread
// before the queue fills.
func New(k *kernel.Kernel, disp hal.Display, log hal.Logger) *Service {
	s := &Service{k: k, disp: disp, log: log}
	s.queue.Init(k)
	s.pool.Init(k)
	for i := range s.msgs {
		s.pool.Push(&s.msgs[i])
	}
	return s
}

// Println queues one line for the console. Safe to call from any
// thread; when the pool is dry the line goes to the logger only.
func (s *Service) Println(line string) {
	msg := s.pool.Pop()
	if msg == nil {
		if s.log != nil {
			s.log.WriteLineString(line)
		}
		return
	}
	msg.SetCode(msgWrite)
	msg.SetData(line)
	s.queue.Send(msg)
}

// Clear queues a screen reset.
func (s *Service) Clear() {
	msg := s.pool.Pop()
	if msg == nil {
		return
	}
	msg.SetCode(msgClear)
	msg.SetData(nil)
	s.queue.Send(msg)
}

// Run is the service's thread entry point.
func (s *Service) Run(arg any) {
	s.setup()
	for {
		msg := s.queue.Receive()
		switch msg.Code() {
		case msgWrite:
			line, _ := msg.Data().(string)
			s.writeLine(line)
		case msgClear:
			s.reset()
		}
		msg.SetData(nil)
		s.pool.Push(msg)
	}
}

func (s *Service) setup() {
	if s.disp == nil {
		return
	}
	s.fb = s.disp.Framebuffer()
	if s.fb == nil {
		return
	}
	s.d = newFBDisplay(s.fb)
	s.reset()
}

func (s *Service) writeLine(line string) {
	if s.log != nil {
		s.log.WriteLineString(line)
	}
	if s.t == nil {
		return
	}
	s.t.Write([]byte(line))
	s.t.Write([]byte("\r\n"))
	s.t.Display()
}

func (s *Service) reset() {
	if s.d == nil {
		return
	}
	s.t = tinyterm.NewTerminal(s.d)
	s.t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        8,
		UseSoftwareScroll: true,
	})
	s.fb.ClearRGB(0, 0, 0)
	s.fb.Present()
}
