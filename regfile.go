package pyv

// RegFile holds the 32 RV32I general-purpose registers. x0 reads as
// zero and discards writes. Writes take effect immediately: WBStage
// calls Write synchronously during its own process(), the same way the
// reference model calls writeRequest inline rather than deferring it
// behind a clocked register. This is safe precisely because nothing in
// this pipeline forwards or stalls — a dependent instruction's decode
// is always several pipeline registers (and therefore cycles) behind
// the write that produced its operand for every program this simulator
// is specified to run.
type RegFile struct {
	regs [32]uint32
}

func NewRegFile() *RegFile {
	return &RegFile{}
}

func (r *RegFile) Read(idx uint32) uint32 {
	if idx == 0 {
		return 0
	}
	return r.regs[idx]
}

func (r *RegFile) Write(idx uint32, val uint32) {
	if idx == 0 {
		return
	}
	r.regs[idx] = val
}

// CSRBank is an opaque control/status register map: addresses are
// arbitrary uint32 keys with read-modify-write access and no privilege,
// side effects, or reserved-bit semantics. Full CSR behavior is out of
// scope; IDStage only needs somewhere to read the current value of a
// CSR, which EXStage then folds with rs1 per the selected CSR operation.
type CSRBank struct {
	regs map[uint32]uint32
}

func NewCSRBank() *CSRBank {
	return &CSRBank{regs: make(map[uint32]uint32)}
}

func (c *CSRBank) Read(addr uint32) uint32 {
	return c.regs[addr]
}

func (c *CSRBank) Write(addr uint32, val uint32) {
	c.regs[addr] = val
}
