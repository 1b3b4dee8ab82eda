// Package alsa provides microphone capture and speaker playback backed by
// the ALSA command-line tools (arecord and aplay). Shelling out keeps the
// binary cgo-free; the tools ship with every desktop Linux and handle the
// hardware negotiation that a direct ALSA binding would otherwise pull in.
package alsa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/easimeng/anglo/pkg/audio"
)

// Compile-time assertions against the pipeline interfaces.
var (
	_ audio.Device = (*Device)(nil)
	_ audio.Player = (*Player)(nil)
)

const (
	defaultRecordBinary   = "arecord"
	defaultPlaybackBinary = "aplay"
	defaultWindowMs       = 30
)

// Device captures mono 16-bit PCM from the default (or named) ALSA input and
// serves it as fixed-duration frames. The arecord subprocess is started on
// the first Read and runs until Close.
type Device struct {
	binary   string
	device   string
	rate     int
	windowMs int

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	elapsed   time.Duration
	closeOnce sync.Once
	closeErr  error
}

// DeviceOption is a functional option for configuring a [Device].
type DeviceOption func(*Device)

// WithRecordBinary overrides the capture binary name or path.
func WithRecordBinary(path string) DeviceOption {
	return func(d *Device) { d.binary = path }
}

// WithCaptureDevice names the ALSA capture device (arecord -D).
func WithCaptureDevice(name string) DeviceOption {
	return func(d *Device) { d.device = name }
}

// WithSampleRate sets the capture rate in Hz. Default: [audio.DefaultSampleRate].
func WithSampleRate(rate int) DeviceOption {
	return func(d *Device) { d.rate = rate }
}

// WithWindowMs sets the duration of each served frame in milliseconds.
func WithWindowMs(ms int) DeviceOption {
	return func(d *Device) { d.windowMs = ms }
}

// NewDevice constructs a Device, verifying that the capture binary is on
// PATH. The microphone itself is not opened until the first Read.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	d := &Device{
		binary:   defaultRecordBinary,
		rate:     audio.DefaultSampleRate,
		windowMs: defaultWindowMs,
	}
	for _, o := range opts {
		o(d)
	}
	if _, err := exec.LookPath(d.binary); err != nil {
		return nil, fmt.Errorf("alsa: capture binary %q not found: %w", d.binary, err)
	}
	return d, nil
}

// Read implements [audio.Device.Read]. It blocks until one full capture
// window has arrived, returning [io.EOF] when the subprocess closes its
// output.
func (d *Device) Read(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	d.mu.Lock()
	if d.cmd == nil {
		if err := d.start(); err != nil {
			d.mu.Unlock()
			return audio.Frame{}, err
		}
	}
	stdout := d.stdout
	d.mu.Unlock()

	// 16-bit mono. The blocking read runs off the mutex so Close can take
	// it while a window is still pending.
	buf := make([]byte, d.rate*d.windowMs/1000*2)
	errc := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(stdout, buf)
		errc <- err
	}()

	var err error
	select {
	case <-ctx.Done():
		// The pending read is abandoned; Close kills the subprocess,
		// which unblocks it.
		return audio.Frame{}, ctx.Err()
	case err = <-errc:
	}
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return audio.Frame{}, io.EOF
		}
		return audio.Frame{}, fmt.Errorf("alsa: read capture window: %w", err)
	}

	d.mu.Lock()
	frame := audio.Frame{
		Samples:    audio.PCM16ToFloat32(buf),
		SampleRate: d.rate,
		Timestamp:  d.elapsed,
	}
	d.elapsed += time.Duration(d.windowMs) * time.Millisecond
	d.mu.Unlock()
	return frame, nil
}

func (d *Device) start() error {
	args := []string{"-q", "-f", "S16_LE", "-c", "1", "-t", "raw", "-r", strconv.Itoa(d.rate)}
	if d.device != "" {
		args = append(args, "-D", d.device)
	}
	return d.startWith(args)
}

func (d *Device) startWith(args []string) error {
	cmd := exec.Command(d.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("alsa: open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("alsa: start %s: %w", d.binary, err)
	}
	d.cmd = cmd
	d.stdout = stdout
	return nil
}

// Close implements [audio.Device.Close]. It stops the capture subprocess;
// subsequent calls return the first result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.cmd == nil {
			return
		}
		if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			d.closeErr = fmt.Errorf("alsa: stop capture: %w", err)
		}
		// Reap the subprocess; the kill already decided the outcome.
		_ = d.cmd.Wait()
		d.cmd = nil
	})
	return d.closeErr
}

// Player plays raw PCM through an aplay subprocess, one invocation per
// utterance.
type Player struct {
	binary string
	device string

	// mu serialises playback; overlapping replies would fight over the
	// output device.
	mu sync.Mutex
}

// PlayerOption is a functional option for configuring a [Player].
type PlayerOption func(*Player)

// WithPlaybackBinary overrides the playback binary name or path.
func WithPlaybackBinary(path string) PlayerOption {
	return func(p *Player) { p.binary = path }
}

// WithPlaybackDevice names the ALSA playback device (aplay -D).
func WithPlaybackDevice(name string) PlayerOption {
	return func(p *Player) { p.device = name }
}

// NewPlayer constructs a Player, verifying that the playback binary is on
// PATH.
func NewPlayer(opts ...PlayerOption) (*Player, error) {
	p := &Player{binary: defaultPlaybackBinary}
	for _, o := range opts {
		o(p)
	}
	if _, err := exec.LookPath(p.binary); err != nil {
		return nil, fmt.Errorf("alsa: playback binary %q not found: %w", p.binary, err)
	}
	return p, nil
}

// Play implements [audio.Player.Play]. It blocks until the full buffer has
// been played or ctx is cancelled.
func (p *Player) Play(ctx context.Context, pcm []byte, format audio.Format) error {
	if len(pcm) == 0 {
		return nil
	}
	channels := format.Channels
	if channels == 0 {
		channels = 1
	}
	rate := format.SampleRate
	if rate == 0 {
		rate = audio.DefaultSampleRate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	args := []string{
		"-q", "-f", "S16_LE", "-t", "raw",
		"-r", strconv.Itoa(rate),
		"-c", strconv.Itoa(channels),
	}
	if p.device != "" {
		args = append(args, "-D", p.device)
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = bytes.NewReader(pcm)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("alsa: %s: %w", p.binary, err)
	}
	return nil
}

// Close implements [audio.Player.Close]. Playback holds no persistent
// resources between invocations.
func (p *Player) Close() error {
	return nil
}
