// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dlbogdan/otgwctl/pkg/logger"
)

// Transport is the duplex byte stream carrying the gateway's line protocol.
// The engine only assumes "read raw bytes" and "write raw bytes"; line
// framing is handled here.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// readRetryDelay is the pause after a transient read error before retrying.
const readRetryDelay = 250 * time.Millisecond

// maxConsecutiveReadErrors is the number of back-to-back read failures after
// which the transport is considered dead and the engine reports a fatal
// error instead of spinning.
const maxConsecutiveReadErrors = 10

// waiterTable correlates in-flight command codes with the goroutines
// awaiting their replies. At most one waiter may exist per code.
type waiterTable struct {
	mu      sync.Mutex
	waiters map[string]chan string
}

func newWaiterTable() *waiterTable {
	return &waiterTable{waiters: make(map[string]chan string)}
}

// register creates a wait handle for code. The returned remove func must be
// deferred by the caller so the entry disappears on every exit path.
func (t *waiterTable) register(code string) (<-chan string, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.waiters[code]; exists {
		return nil, nil, fmt.Errorf("command %s already has a pending waiter", code)
	}
	ch := make(chan string, 1)
	t.waiters[code] = ch
	remove := func() {
		t.mu.Lock()
		delete(t.waiters, code)
		t.mu.Unlock()
	}
	return ch, remove, nil
}

// resolve delivers a reply payload to the waiter for code, if one exists.
func (t *waiterTable) resolve(code, payload string) bool {
	t.mu.Lock()
	ch, ok := t.waiters[code]
	t.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- payload:
	default:
		// Waiter already signalled; a duplicate reply is harmless.
	}
	return true
}

// Controller drives one OpenTherm Gateway: it runs the reader loop and the
// keep-alive scheduler, owns the session state, and serializes commands on
// the wire. All getters are non-blocking reads; command methods block their
// caller until the gateway replies or the timeout fires, so higher-level
// code normally goes through Manager instead.
type Controller struct {
	conn Transport
	log  *logger.Logger

	// Timing knobs, settable before Start.
	CommandTimeout    time.Duration
	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	BoilerTimeout     time.Duration
	DefaultSetpoint   float64

	now func() time.Time

	cmdMu   sync.Mutex // serializes command transmissions on the wire
	waiters *waiterTable

	mu                  sync.RWMutex // guards everything below
	records             map[byte]StatusRecord
	lastResponses       map[string]string
	active              bool
	csOverride          float64
	cs2Override         float64
	lastKeepAlive       time.Time
	lastFaultBit        uint8
	lastBoilerMessage   time.Time
	gatewayVersion      string
	thermostatConnected *bool

	runMu   sync.Mutex // guards start/stop transitions
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	fatalCh chan error
}

// NewController creates a controller over the given transport. Start must be
// called before any commands are issued.
func NewController(conn Transport, log *logger.Logger) *Controller {
	return &Controller{
		conn:              conn,
		log:               log,
		CommandTimeout:    DefaultCommandTimeout,
		KeepAliveInterval: DefaultKeepAliveInterval,
		KeepAliveTimeout:  DefaultKeepAliveTimeout,
		BoilerTimeout:     DefaultBoilerTimeout,
		DefaultSetpoint:   DefaultControlSetpoint,
		now:               time.Now,
		waiters:           newWaiterTable(),
		records:           make(map[byte]StatusRecord),
		lastResponses:     make(map[string]string),
		fatalCh:           make(chan error, 1),
	}
}

// Start launches the reader loop and the keep-alive scheduler. The tasks run
// until Stop is called or the parent context is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.started {
		c.log.Warnw("controller already started")
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(2)
	go c.readerLoop()
	go c.keepAliveLoop()
	c.log.Infow("opentherm controller started")
	return nil
}

// Stop cancels the background tasks and any in-flight command tasks, then
// waits for all of them to finish.
func (c *Controller) Stop() {
	c.runMu.Lock()
	if !c.started {
		c.runMu.Unlock()
		return
	}
	c.cancel()
	c.started = false
	c.runMu.Unlock()

	c.wg.Wait()
	c.log.Infow("opentherm controller stopped")
}

// Fatal reports a persistent transport failure. The embedding application
// decides whether to reopen the port or give up.
func (c *Controller) Fatal() <-chan error {
	return c.fatalCh
}

// runTask runs fn as a tracked background task bound to the engine context.
// Returns false when the engine is not running.
func (c *Controller) runTask(fn func(context.Context)) bool {
	c.runMu.Lock()
	if !c.started {
		c.runMu.Unlock()
		return false
	}
	ctx := c.ctx
	c.wg.Add(1)
	c.runMu.Unlock()

	go func() {
		defer c.wg.Done()
		fn(ctx)
	}()
	return true
}

// readerLoop pulls bytes off the transport, assembles lines, and feeds them
// through the classifier. Read errors are retried with a short delay; too
// many in a row surface on the fatal channel.
func (c *Controller) readerLoop() {
	defer c.wg.Done()
	c.log.Infow("gateway reader loop started")

	asm := NewLineAssembler()
	buf := make([]byte, 256)
	errStreak := 0

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-c.ctx.Done():
				return
			default:
			}
			errStreak++
			if errStreak >= maxConsecutiveReadErrors {
				c.log.Errorw("transport read failing persistently, giving up", "err", err)
				select {
				case c.fatalCh <- fmt.Errorf("gateway transport failed: %w", err):
				default:
				}
				return
			}
			c.log.Warnw("transport read error, retrying", "err", err)
			c.sleep(readRetryDelay)
			continue
		}
		errStreak = 0
		if n == 0 {
			// Read timeout on the serial port; nothing arrived.
			c.sleep(50 * time.Millisecond)
			continue
		}

		for i := 0; i < n; i++ {
			if line, ok := asm.Feed(buf[i]); ok {
				c.handleLine(line)
			}
		}
	}
}

// sleep pauses without outliving the engine context.
func (c *Controller) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}

// handleLine processes one complete line from the gateway.
func (c *Controller) handleLine(raw string) {
	l := ClassifyLine(raw)
	c.log.Debugw("gateway rx", "line", raw)

	switch l.Kind {
	case LineResponse:
		c.mu.Lock()
		c.lastResponses[l.Code] = l.Payload
		c.mu.Unlock()
		if !c.waiters.resolve(l.Code, l.Payload) {
			// Normal for gateway-initiated notices such as NG or SE
			// that nobody asked for.
			c.log.Warnw("unsolicited command response", "line", raw)
		}

	case LineInfo:
		c.mu.Lock()
		switch {
		case l.Version != "":
			c.gatewayVersion = l.Version
			c.log.Infow("gateway version detected", "version", l.Version)
		case l.ThermostatChange != nil:
			c.thermostatConnected = l.ThermostatChange
			if *l.ThermostatChange {
				c.log.Infow("thermostat reported connected")
			} else {
				c.log.Warnw("thermostat reported disconnected")
			}
		}
		c.mu.Unlock()

	case LineFrame:
		c.storeFrame(l.Frame)

	case LineGatewayError:
		c.log.Errorw("gateway reported internal error", "line", raw)

	default:
		c.log.Warnw("unrecognized line from gateway", "line", raw)
	}
}

// storeFrame decodes a status frame into the session state, updates boiler
// liveness, and drives fault edge detection.
func (c *Controller) storeFrame(f Frame) {
	value := DecodeValue(f.DataID, f.HighByte, f.LowByte)

	rec := StatusRecord{
		Source:    f.Source,
		MsgType:   f.MsgType,
		Raw:       f.Raw(),
		HighByte:  f.HighByte,
		LowByte:   f.LowByte,
		Value:     value,
		Timestamp: c.now(),
	}

	faultEdge := false
	c.mu.Lock()
	c.records[f.DataID] = rec
	if f.Source == SourceBoiler {
		c.lastBoilerMessage = rec.Timestamp
	}
	if f.DataID == IDStatus && f.Source == SourceBoiler {
		if fp, ok := value.(FlagPair); ok {
			bit := fp.Slave["Fault Indication"]
			if bit != c.lastFaultBit {
				c.log.Infow("boiler fault indication changed",
					"from", c.lastFaultBit, "to", bit)
				c.lastFaultBit = bit
				faultEdge = true
			}
		}
	}
	c.mu.Unlock()

	if faultEdge {
		// Fetch the fault flags and OEM code without blocking the
		// reader loop.
		c.runTask(func(ctx context.Context) {
			c.RequestPriorityMessage(ctx, IDFaultFlags)
		})
	}
}

// keepAliveLoop periodically re-asserts active setpoint overrides. The
// gateway reverts to thermostat control when an override above the floor is
// not refreshed.
func (c *Controller) keepAliveLoop() {
	defer c.wg.Done()
	c.log.Infow("keep-alive scheduler started")

	ticker := time.NewTicker(c.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.RLock()
		active := c.active
		cs := c.csOverride
		cs2 := c.cs2Override
		c.mu.RUnlock()
		if !active {
			continue
		}

		resent := false
		if cs >= keepAliveFloor {
			c.log.Infow("keep-alive: resending control setpoint", "value", cs)
			c.sendCommand(c.ctx, "CS", formatTemp(cs), c.KeepAliveTimeout)
			resent = true
		}
		if cs2 >= keepAliveFloor {
			c.log.Infow("keep-alive: resending control setpoint 2", "value", cs2)
			c.sendCommand(c.ctx, "C2", formatTemp(cs2), c.KeepAliveTimeout)
			resent = true
		}
		if resent {
			c.mu.Lock()
			c.lastKeepAlive = c.now()
			c.mu.Unlock()
		}
	}
}

// sendCommand transmits one command and waits for the correlated reply. Only
// one command is ever outstanding on the wire; the gateway processes
// commands synchronously and interleaving would make replies ambiguous.
func (c *Controller) sendCommand(ctx context.Context, code, value string, timeout time.Duration) CmdResult {
	if len(code) != 2 || !isUpperAlpha(code[0]) || !isCodeByte(code[1]) {
		c.log.Errorw("invalid command code", "code", code)
		return CmdResult{Code: ResultInvalid, Data: "invalid command code"}
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	reply, remove, err := c.waiters.register(code)
	if err != nil {
		// Should be unreachable while cmdMu is held; guards against
		// reentrancy bugs.
		c.log.Errorw("waiter registration failed", "code", code, "err", err)
		return CmdResult{Code: ResultUnknown, Data: err.Error()}
	}
	defer remove()

	c.mu.Lock()
	delete(c.lastResponses, code)
	c.mu.Unlock()

	// CR only; the gateway does not use LF on its command input.
	wire := code + "=" + value + "\r"
	c.log.Infow("gateway tx", "command", code+"="+value)
	if _, err := c.conn.Write([]byte(wire)); err != nil {
		c.log.Errorw("transport write error", "command", code, "err", err)
		return CmdResult{Code: ResultUnknown, Data: err.Error()}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-reply:
		if rc, isErr := responseTokens[payload]; isErr {
			c.log.Warnw("gateway rejected command", "command", code, "token", payload)
			return CmdResult{Code: rc, Data: payload}
		}
		return CmdResult{Code: ResultOK, Data: payload}
	case <-timer.C:
		c.log.Warnw("timeout waiting for command response", "command", code)
		return CmdResult{Code: ResultTimeout}
	case <-ctx.Done():
		c.log.Warnw("command cancelled", "command", code)
		return CmdResult{Code: ResultUnknown, Data: "cancelled"}
	}
}
