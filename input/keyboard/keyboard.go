// Package keyboard turns terminal key presses into drive input. W, A, S and D move and the left
// and right arrows rotate.
//
// Terminals only report key presses, repeated while a key is held, and never releases. A key
// therefore counts as held until Hold has passed without a repeat.
package keyboard

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"go.viam.com/benben/input"
	"go.viam.com/benben/logging"
)

// DefaultHold is a little longer than the usual initial key repeat delay.
const DefaultHold = 500 * time.Millisecond

// Key is a drive key.
type Key int

// The keys that drive the vehicle.
const (
	KeyForward Key = iota
	KeyLeft
	KeyBackward
	KeyRight
	KeyRotateLeft
	KeyRotateRight
)

// Ctrl-C arrives as a plain byte in raw mode.
const ctrlC = 0x03

// Keyboard is an input source reading a raw terminal.
type Keyboard struct {
	hold     time.Duration
	clock    clock.Clock
	logger   logging.Logger
	commands chan rune

	mu       sync.Mutex
	lastSeen map[Key]time.Time
	escape   []byte
}

// New returns a keyboard source. A zero hold means DefaultHold; a nil clock the real one.
func New(hold time.Duration, clk clock.Clock, logger logging.Logger) *Keyboard {
	if hold <= 0 {
		hold = DefaultHold
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Keyboard{
		hold:     hold,
		clock:    clk,
		logger:   logger,
		commands: make(chan rune, 16),
		lastSeen: map[Key]time.Time{},
	}
}

// Name returns the source name.
func (k *Keyboard) Name() string {
	return "keyboard"
}

// Commands delivers keys that are not drive keys, such as 'c' or 'q'. Ctrl-C is delivered as
// 'q'. Keys are dropped if nobody reads them.
func (k *Keyboard) Commands() <-chan rune {
	return k.commands
}

// Read reports the held keys as a candidate.
func (k *Keyboard) Read(ctx context.Context) (input.Candidate, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.clock.Now()
	held := func(key Key) bool {
		seen, ok := k.lastSeen[key]
		return ok && now.Sub(seen) < k.hold
	}

	var candidate input.Candidate
	if held(KeyLeft) {
		candidate.Movement.X--
	}
	if held(KeyRight) {
		candidate.Movement.X++
	}
	if held(KeyForward) {
		candidate.Movement.Y--
	}
	if held(KeyBackward) {
		candidate.Movement.Y++
	}
	if held(KeyRotateLeft) {
		candidate.Rotation--
	}
	if held(KeyRotateRight) {
		candidate.Rotation++
	}
	return candidate, nil
}

// Feed processes raw terminal bytes.
func (k *Keyboard) Feed(data []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.clock.Now()
	for _, b := range data {
		if len(k.escape) > 0 {
			k.feedEscapeLocked(b, now)
			continue
		}
		switch b {
		case 0x1b:
			k.escape = append(k.escape, b)
		case 'w', 'W':
			k.lastSeen[KeyForward] = now
		case 'a', 'A':
			k.lastSeen[KeyLeft] = now
		case 's', 'S':
			k.lastSeen[KeyBackward] = now
		case 'd', 'D':
			k.lastSeen[KeyRight] = now
		case ctrlC:
			k.sendCommand('q')
		default:
			k.sendCommand(rune(b))
		}
	}
}

// feedEscapeLocked handles "ESC [ C" style cursor sequences, and their "ESC O C" variant. Anything
// else is dropped.
func (k *Keyboard) feedEscapeLocked(b byte, now time.Time) {
	k.escape = append(k.escape, b)
	if len(k.escape) == 2 {
		if b != '[' && b != 'O' {
			k.escape = k.escape[:0]
		}
		return
	}
	switch b {
	case 'C':
		k.lastSeen[KeyRotateRight] = now
	case 'D':
		k.lastSeen[KeyRotateLeft] = now
	}
	k.escape = k.escape[:0]
}

func (k *Keyboard) sendCommand(r rune) {
	select {
	case k.commands <- r:
	default:
		k.logger.Debugw("dropped key command", "key", string(r))
	}
}

// Run feeds the keyboard from r until EOF or ctx is done. A read blocked on a terminal cannot be
// interrupted, so the goroutine doing it may outlive Run by one key press.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk)
	go func() {
		for {
			buf := make([]byte, 32)
			n, err := r.Read(buf)
			select {
			case chunks <- chunk{buf[:n], err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-chunks:
			k.Feed(c.data)
			if errors.Is(c.err, io.EOF) {
				return nil
			}
			if c.err != nil {
				return errors.Wrap(c.err, "failed to read keyboard")
			}
		}
	}
}

// MakeRaw puts the terminal on fd in raw mode. The returned function restores it.
func MakeRaw(fd int) (func() error, error) {
	if !term.IsTerminal(fd) {
		return nil, errors.New("keyboard input needs a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to put terminal in raw mode")
	}
	return func() error { return term.Restore(fd, state) }, nil
}
