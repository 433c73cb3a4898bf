// Package lifecycle abstracts process lifecycle notifications as a signal
// stream. The host translates its real OS or framework signals into this
// channel; the tracker only consumes it.
package lifecycle

import (
	"os"
	"os/signal"
	"syscall"
)

// Signal is one lifecycle notification.
type Signal int

const (
	Backgrounded Signal = iota
	Foregrounded
	Terminated
)

func (s Signal) String() string {
	switch s {
	case Backgrounded:
		return "backgrounded"
	case Foregrounded:
		return "foregrounded"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Source emits lifecycle signals. The channel is closed when the source has
// nothing further to say.
type Source interface {
	Signals() <-chan Signal
}

// ManualSource lets a host push signals explicitly. Useful for frameworks
// whose lifecycle callbacks do not map onto OS signals.
type ManualSource struct {
	ch chan Signal
}

func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan Signal, 8)}
}

func (s *ManualSource) Signals() <-chan Signal { return s.ch }

func (s *ManualSource) Background() { s.ch <- Backgrounded }
func (s *ManualSource) Foreground() { s.ch <- Foregrounded }

// Terminate emits the terminal signal and closes the stream.
func (s *ManualSource) Terminate() {
	s.ch <- Terminated
	close(s.ch)
}

// OSSource translates SIGINT/SIGTERM into a Terminated signal. Plain server
// processes have no background/foreground notion, so those signals never
// fire from this source.
type OSSource struct {
	ch chan Signal
}

func NewOSSource() *OSSource {
	src := &OSSource{ch: make(chan Signal, 1)}
	osCh := make(chan os.Signal, 1)
	signal.Notify(osCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-osCh
		signal.Stop(osCh)
		src.ch <- Terminated
		close(src.ch)
	}()
	return src
}

func (s *OSSource) Signals() <-chan Signal { return s.ch }
