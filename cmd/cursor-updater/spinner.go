package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	spinnerFrameInterval = 100 * time.Millisecond
	spinnerJoinTimeout   = 500 * time.Millisecond
)

// waitAnimator is the handle a one-shot command holds on a spinner that
// decorates a network wait. Stop clears the line and is safe to call
// repeatedly.
type waitAnimator interface {
	Stop()
}

// animatorFactory starts an animation for a message. A nil factory
// disables animation, which is what scripts and tests want.
type animatorFactory func(message string) waitAnimator

func startAnimation(animate animatorFactory, message string) waitAnimator {
	if animate == nil {
		return noopAnimator{}
	}
	return animate(message)
}

type noopAnimator struct{}

func (noopAnimator) Stop() {}

// lineSpinner animates braille frames on a single terminal line while a
// slow operation runs. It carries no state beyond the stop channel; Stop
// waits for the loop to clear the line but never longer than the join
// timeout.
type lineSpinner struct {
	writer        io.Writer
	message       string
	frames        []rune
	frameInterval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

func newLineSpinner(w io.Writer, message string) *lineSpinner {
	return newCustomLineSpinner(w, message, spinnerFrameInterval)
}

func newCustomLineSpinner(w io.Writer, message string, frameInterval time.Duration) *lineSpinner {
	if w == nil {
		w = io.Discard
	}
	s := &lineSpinner{
		writer:        w,
		message:       message,
		frames:        []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'},
		frameInterval: frameInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *lineSpinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.stopCh)
		select {
		case <-s.doneCh:
		case <-time.After(spinnerJoinTimeout):
		}
	})
}

func (s *lineSpinner) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	idx := 0
	s.render(idx)
	for {
		select {
		case <-s.stopCh:
			s.clearLine()
			return
		case <-ticker.C:
			idx++
			s.render(idx)
		}
	}
}

func (s *lineSpinner) render(idx int) {
	frame := s.frames[idx%len(s.frames)]
	_, _ = fmt.Fprintf(s.writer, "\r\033[2K  %c %s", frame, s.message)
}

func (s *lineSpinner) clearLine() {
	_, _ = fmt.Fprint(s.writer, "\r\033[2K")
}
