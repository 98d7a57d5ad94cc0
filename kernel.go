package pyv

import "log"

// maxPropagateRounds bounds the fixed-point search. A well-formed module
// graph settles in a handful of rounds; exceeding this indicates a
// combinational loop in the wiring and is a programmer error, not a
// simulated fault.
const maxPropagateRounds = 10000

// StableHook runs once per cycle after propagation has reached a fixed
// point but before registers tick, the point at which every port in the
// graph holds its final value for the cycle. Stages register their
// check_exception-style legality checks here rather than inline in
// process(), so a check never races a port that hasn't settled yet.
type StableHook func() error

// Kernel drives the simulation: it queues sensitive callbacks during
// propagation, runs stable hooks once a fixed point is reached, and
// ticks every registered Reg in lockstep.
type Kernel struct {
	queue   []func()
	clocked []clocked
	stable  []StableHook
	cycle   uint64
	fi      *FIParams
	fiDone  bool
}

// NewKernel returns an empty kernel at cycle 0.
func NewKernel() *Kernel {
	return &Kernel{}
}

// Cycle returns the number of completed clock ticks, 1-indexed the way
// fault-injection cycle numbers are specified (the first Step call
// executes cycle 1).
func (k *Kernel) Cycle() uint64 {
	return k.cycle
}

func (k *Kernel) enqueue(fn func()) {
	k.queue = append(k.queue, fn)
}

func (k *Kernel) registerClocked(c clocked) {
	k.clocked = append(k.clocked, c)
}

// AddStableHook registers fn to run, in registration order, once
// propagation settles each cycle.
func (k *Kernel) AddStableHook(fn StableHook) {
	k.stable = append(k.stable, fn)
}

// Schedule queues fn for the current propagation round. Modules call this
// once at construction time to force their first evaluation; afterwards
// port writes keep the queue fed.
func (k *Kernel) Schedule(fn func()) {
	k.enqueue(fn)
}

// SetFault arms a fault-injection event for a future cycle. Passing nil
// disarms it.
func (k *Kernel) SetFault(p *FIParams) {
	k.fi = p
	k.fiDone = false
}

// faultForCycle returns the armed fault if it targets the cycle about to
// run and hasn't fired yet.
func (k *Kernel) faultForCycle(cycle uint64) *FIParams {
	if k.fi == nil || k.fiDone || uint64(k.fi.Cycle) != cycle {
		return nil
	}
	return k.fi
}

func (k *Kernel) markFaultApplied() {
	k.fiDone = true
}

// propagate drains the callback queue until no more callbacks are
// scheduled, i.e. until every port has reached a stable value.
func (k *Kernel) propagate() {
	rounds := 0
	for len(k.queue) > 0 {
		fn := k.queue[0]
		k.queue = k.queue[1:]
		fn()
		rounds++
		if rounds > maxPropagateRounds {
			panic("pyv: propagation did not settle, check for a combinational loop")
		}
	}
}

// Step runs one full clock cycle: propagate to a fixed point, run stable
// hooks against the settled values, and tick every clocked element. The
// first stable hook to return an error stops the stable-hook chain
// immediately, but every clocked element is still ticked so the
// simulator can be inspected post-mortem at the faulting cycle; a stable
// hook's error takes priority, but a commit-time tick error (Memory's
// invalid-width check) is reported when no stable hook already raised.
func (k *Kernel) Step() error {
	k.cycle++
	k.propagate()

	var stepErr error
	for _, hook := range k.stable {
		if err := hook(); err != nil {
			stepErr = err
			break
		}
	}

	for _, c := range k.clocked {
		if err := c.tick(); err != nil && stepErr == nil {
			stepErr = err
		}
	}

	if stepErr != nil {
		log.Printf("[pyv] exception at cycle %d: %v", k.cycle, stepErr)
	}
	return stepErr
}

// Run executes up to n cycles, stopping early and returning the first
// error a Step returns (a stable-hook error or a tick error).
func (k *Kernel) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := k.Step(); err != nil {
			return err
		}
	}
	return nil
}
