// Package media captures audio takes for a draft.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
)

// MaxDuration caps a single take.
const MaxDuration = 300 * time.Second

// State of a Recorder.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ErrInvalidState rejects an action the current state does not allow.
var ErrInvalidState = errors.New("invalid recorder state")

// Device grants access to a capture source. Open fails with an error
// wrapping model.ErrPermission when access is denied.
type Device interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open capture handle. Close releases it and must be safe to
// call after Finish.
type Capture interface {
	Pause() error
	Resume() error
	// Finish ends the capture and returns the recorded bytes.
	Finish() ([]byte, string, error)
	Close() error
}

// Take is a finished recording.
type Take struct {
	File     model.MediaFile
	Duration time.Duration
}

// Recorder is the idle → recording ⇄ paused → stopped state machine. The
// capture handle is released on Stop, Discard and Close.
type Recorder struct {
	mu      sync.Mutex
	device  Device
	ctx     context.Context
	state   State
	capture Capture
	take    *Take

	elapsed time.Duration // before the current recording span
	since   time.Time     // start of the current recording span
	cancel  func() bool   // stops the cap timer
	span    int           // identifies the armed timer

	now   func() time.Time
	after func(d time.Duration, f func()) func() bool
}

func NewRecorder(device Device) *Recorder {
	return &Recorder{
		device: device,
		now:    time.Now,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed is the recorded time so far, pauses excluded.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

// Take returns the finished take, or nil.
func (r *Recorder) Take() *Take {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.take
}

// Start opens the device and begins a take. Only allowed when idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("start while %s: %w", r.state, ErrInvalidState)
	}

	capture, err := r.device.Open(ctx)
	if err != nil {
		if errors.Is(err, model.ErrPermission) {
			logger.Warn(ctx, "microphone access denied")
		}
		return err
	}

	r.ctx = ctx
	r.capture = capture
	r.elapsed = 0
	r.state = StateRecording
	r.arm()
	logger.Debug(ctx, "recording started")
	return nil
}

func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return fmt.Errorf("pause while %s: %w", r.state, ErrInvalidState)
	}
	if err := r.capture.Pause(); err != nil {
		return err
	}
	r.disarm()
	r.elapsed += r.now().Sub(r.since)
	r.state = StatePaused
	return nil
}

func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return fmt.Errorf("resume while %s: %w", r.state, ErrInvalidState)
	}
	if err := r.capture.Resume(); err != nil {
		return err
	}
	r.state = StateRecording
	r.arm()
	return nil
}

// Stop finishes the take and releases the device.
func (r *Recorder) Stop() (*Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

// Discard deletes the take, or aborts a running one, and returns to idle.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.releaseLocked()
	r.take = nil
	r.elapsed = 0
	r.state = StateIdle
	return err
}

// Close tears the recorder down. The finished take, if any, is kept.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.releaseLocked()
	if r.state == StateRecording || r.state == StatePaused {
		r.state = StateIdle
		r.elapsed = 0
	}
	return err
}

func (r *Recorder) stopLocked() (*Take, error) {
	if r.state != StateRecording && r.state != StatePaused {
		return nil, fmt.Errorf("stop while %s: %w", r.state, ErrInvalidState)
	}

	duration := r.elapsedLocked()
	if duration > MaxDuration {
		duration = MaxDuration
	}
	r.disarm()

	data, contentType, err := r.capture.Finish()
	if releaseErr := r.releaseLocked(); err == nil {
		err = releaseErr
	}
	if err != nil {
		r.state = StateIdle
		r.elapsed = 0
		return nil, err
	}

	r.take = &Take{
		File: model.MediaFile{
			Name:        fmt.Sprintf("gravacao-%s.webm", r.now().Format("20060102-150405")),
			ContentType: contentType,
			Size:        int64(len(data)),
			Data:        data,
		},
		Duration: duration,
	}
	r.elapsed = duration
	r.state = StateStopped
	logger.Debug(r.ctx, "recording stopped", "duration", duration, "bytes", len(data))
	return r.take, nil
}

// releaseLocked closes the capture handle if one is open.
func (r *Recorder) releaseLocked() error {
	r.disarm()
	if r.capture == nil {
		return nil
	}
	err := r.capture.Close()
	r.capture = nil
	return err
}

func (r *Recorder) elapsedLocked() time.Duration {
	if r.state == StateRecording {
		return r.elapsed + r.now().Sub(r.since)
	}
	return r.elapsed
}

// arm starts a recording span and the timer that stops it at MaxDuration.
func (r *Recorder) arm() {
	r.since = r.now()
	r.span++
	span := r.span
	r.cancel = r.after(MaxDuration-r.elapsed, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// A pause, resume or later take may have replaced this span.
		if r.span != span || r.state != StateRecording {
			return
		}
		if _, err := r.stopLocked(); err != nil {
			logger.Warn(r.ctx, "failed to stop recording at limit", "error", err)
			return
		}
		logger.Info(r.ctx, "recording reached the time limit", "limit", MaxDuration)
	})
}

func (r *Recorder) disarm() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
