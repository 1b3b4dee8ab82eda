// Package mock provides in-memory mock implementations of the [audio.Device]
// and [audio.Player] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts and arguments, and they expose exported
// fields that the test can set to control return values.
//
// Typical usage:
//
//	dev := &mock.Device{Frames: []audio.Frame{speech, speech, silence}}
//	frame, err := dev.Read(ctx)
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/easimeng/anglo/pkg/audio"
)

// ─── Device ───────────────────────────────────────────────────────────────────

// Device is a mock implementation of [audio.Device]. It serves the queued
// Frames in order; once exhausted it returns [io.EOF] unless ReadError or
// BlockWhenEmpty is set.
type Device struct {
	mu sync.Mutex

	// Frames is the queue of capture windows served by Read.
	Frames []audio.Frame

	// ReadError, when set, is returned by every Read call.
	ReadError error

	// BlockWhenEmpty makes Read block on ctx.Done() once Frames is
	// exhausted, instead of returning io.EOF. Useful for cancellation tests.
	BlockWhenEmpty bool

	// CloseError is returned by Close.
	CloseError error

	// CallCountRead records how many times Read was called.
	CallCountRead int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	next int
}

// Read implements [audio.Device.Read].
func (d *Device) Read(ctx context.Context) (audio.Frame, error) {
	d.mu.Lock()
	d.CallCountRead++
	if d.ReadError != nil {
		err := d.ReadError
		d.mu.Unlock()
		return audio.Frame{}, err
	}
	if d.next < len(d.Frames) {
		f := d.Frames[d.next]
		d.next++
		d.mu.Unlock()
		return f, nil
	}
	block := d.BlockWhenEmpty
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return audio.Frame{}, ctx.Err()
	}
	return audio.Frame{}, io.EOF
}

// Close implements [audio.Device.Close].
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountClose++
	return d.CloseError
}

// ─── Player ───────────────────────────────────────────────────────────────────

// Player is a mock implementation of [audio.Player]. It records every buffer
// handed to Play.
type Player struct {
	mu sync.Mutex

	// PlayError, when set, is returned by every Play call.
	PlayError error

	// CloseError is returned by Close.
	CloseError error

	// Played holds a copy of each PCM buffer passed to Play, in order.
	Played [][]byte

	// Formats holds the format of each Play call, parallel to Played.
	Formats []audio.Format

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Play implements [audio.Player.Play].
func (p *Player) Play(ctx context.Context, pcm []byte, format audio.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PlayError != nil {
		return p.PlayError
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	p.Played = append(p.Played, buf)
	p.Formats = append(p.Formats, format)
	return nil
}

// Close implements [audio.Player.Close].
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountClose++
	return p.CloseError
}

// Compile-time interface checks.
var (
	_ audio.Device = (*Device)(nil)
	_ audio.Player = (*Player)(nil)
)
