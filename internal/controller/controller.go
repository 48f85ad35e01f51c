// Package controller holds the control state of a manufacturing cell and
// applies production orders to it.
//
// The state is a small set of safety flags (conveyor run permission,
// emergency-stop acknowledgement), a quality score and a sticky
// compromised flag. Orders are untrusted: an order that does not fit the
// working buffer drives the controller into its least-permissive posture
// and marks it compromised until Reset.
package controller

import (
	"strings"
	"sync"

	"github.com/ppiankov/cellwatch/internal/directive"
)

// DefaultMaxOrderLen is the number of usable order bytes. The working
// buffer holds one more byte for the terminator.
const DefaultMaxOrderLen = 41

// MaxOrderLenLimit caps the configurable bound.
const MaxOrderLenLimit = 4096

// Reset values.
const (
	DefaultQuality = 98
	MaxQuality     = 100
	QualityPenalty = 30
)

// OversizePolicy selects how an order longer than the bound is handled.
type OversizePolicy string

const (
	// OversizeTruncate applies the directives that fit the buffer, then
	// degrades the state. This is the default.
	OversizeTruncate OversizePolicy = "truncate"
	// OversizeReject applies no directive from an oversized order.
	OversizeReject OversizePolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p OversizePolicy) Valid() bool {
	return p == OversizeReject || p == OversizeTruncate
}

// Snapshot is a consistent copy of the control state.
type Snapshot struct {
	ConveyorRun  bool `json:"conveyor_run"  yaml:"conveyor_run"`
	EmergencyOK  bool `json:"emergency_ok"  yaml:"emergency_ok"`
	QualityScore int  `json:"quality_score" yaml:"quality_score"`
	Compromised  bool `json:"compromised"   yaml:"compromised"`
}

// Result describes the effect of one order.
type Result struct {
	Before    Snapshot `json:"before"`
	After     Snapshot `json:"after"`
	Length    int      `json:"length"`
	Oversized bool     `json:"oversized"`
	Applied   int      `json:"applied"`
	Ignored   int      `json:"ignored"`
	// Tripped is true when this order moved the controller from trusted to
	// compromised.
	Tripped bool `json:"tripped"`
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	maxOrderLen int
	oversize    OversizePolicy
	interlock   bool
}

func defaultOptions() options {
	return options{
		maxOrderLen: DefaultMaxOrderLen,
		oversize:    OversizeTruncate,
	}
}

// WithMaxOrderLen sets the number of usable order bytes. Values outside
// [1,MaxOrderLenLimit] are ignored.
func WithMaxOrderLen(n int) Option {
	return func(o *options) {
		if n > 0 && n <= MaxOrderLenLimit {
			o.maxOrderLen = n
		}
	}
}

// WithOversizePolicy selects the oversize policy. Unknown policies are
// ignored.
func WithOversizePolicy(p OversizePolicy) Option {
	return func(o *options) {
		if p.Valid() {
			o.oversize = p
		}
	}
}

// WithInterlock forces the conveyor off after every order while the
// emergency stop is not OK or the controller is compromised.
func WithInterlock(on bool) Option {
	return func(o *options) { o.interlock = on }
}

// Controller is a single logical cell controller. All methods are safe for
// concurrent use; one lock guards the whole flag set.
type Controller struct {
	mu    sync.RWMutex
	state Snapshot
	opts  options
	buf   *workBuffer
}

// New returns a controller in the reset state.
func New(opts ...Option) *Controller {
	c := &Controller{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&c.opts)
	}
	c.buf = newWorkBuffer(c.opts.maxOrderLen)
	c.state = resetState()
	return c
}

// Configure replaces options on a running controller. Options not passed
// keep their current value. State is not touched.
func (c *Controller) Configure(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, opt := range opts {
		opt(&c.opts)
	}
	if c.buf.usable() != c.opts.maxOrderLen {
		c.buf = newWorkBuffer(c.opts.maxOrderLen)
	}
}

// MaxOrderLen returns the current usable order length.
func (c *Controller) MaxOrderLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.maxOrderLen
}

// Reset restores the power-on state and clears the compromised flag.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = resetState()
}

func resetState() Snapshot {
	return Snapshot{
		ConveyorRun:  true,
		EmergencyOK:  true,
		QualityScore: DefaultQuality,
	}
}

// ApplyOrder applies a production order. It never fails; anomalies are
// recorded in the state (see Compromised).
func (c *Controller) ApplyOrder(order string) {
	c.Apply(order)
}

// Apply applies a production order and reports what happened.
//
// The order ends at its first NUL byte. It is copied into a fixed working
// buffer of MaxOrderLen+1 bytes; an order that does not fit is oversized.
// Whatever fits is parsed before the length check takes effect, unless the
// policy is OversizeReject. Oversized orders always end in the fail-safe
// state.
func (c *Controller) Apply(order string) Result {
	if i := strings.IndexByte(order, 0); i >= 0 {
		order = order[:i]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{Before: c.state, Length: len(order)}

	res.Oversized = !c.buf.load(order)

	if !res.Oversized || c.opts.oversize == OversizeTruncate {
		res.Applied, res.Ignored = c.applyDirectives(c.buf.String())
	}

	if res.Oversized {
		c.failSafe()
	}
	if c.opts.interlock {
		c.enforceInterlock()
	}

	res.After = c.state
	res.Tripped = !res.Before.Compromised && res.After.Compromised
	return res
}

func (c *Controller) applyDirectives(order string) (applied, ignored int) {
	for d := range directive.All(order) {
		switch d.Key {
		case directive.KeyRun:
			c.state.ConveyorRun = flag(d.Value)
		case directive.KeyEstopOK:
			c.state.EmergencyOK = flag(d.Value)
		case directive.KeyQuality:
			c.state.QualityScore = parseQuality(d.Value)
		default:
			ignored++
			continue
		}
		applied++
	}
	return applied, ignored
}

// failSafe degrades the state after an oversized order.
func (c *Controller) failSafe() {
	c.state.Compromised = true
	c.state.ConveyorRun = false
	c.state.EmergencyOK = false
	c.state.QualityScore = max(0, c.state.QualityScore-QualityPenalty)
}

func (c *Controller) enforceInterlock() {
	if !c.state.EmergencyOK || c.state.Compromised {
		c.state.ConveyorRun = false
	}
}

// Compromised reports whether the controller state can no longer be trusted.
func (c *Controller) Compromised() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Compromised
}

// ConveyorRun reports the conveyor run permission.
func (c *Controller) ConveyorRun() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ConveyorRun
}

// EmergencyOK reports whether the emergency-stop circuit is acknowledged.
func (c *Controller) EmergencyOK() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.EmergencyOK
}

// QualityScore returns the quality score in [0,100].
func (c *Controller) QualityScore() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.QualityScore
}

// Snapshot returns all flags read under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func flag(v string) bool {
	return len(v) > 0 && v[0] == '1'
}

// parseQuality accumulates the decimal digits of v, skipping anything else,
// and clamps to [0,MaxQuality]. Accumulation saturates so long digit runs
// cannot overflow.
func parseQuality(v string) int {
	q := 0
	for i := 0; i < len(v); i++ {
		ch := v[i]
		if ch < '0' || ch > '9' {
			continue
		}
		if q > MaxQuality {
			continue
		}
		q = q*10 + int(ch-'0')
	}
	return min(q, MaxQuality)
}
