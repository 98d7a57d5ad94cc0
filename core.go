package pyv

// Core wires every module into one simulator instance: shared memory,
// register file, CSR bank, the five pipeline stages, the extractor and
// the branch unit. Two signal pairs close a loop through the kernel
// rather than a direct Go reference cycle (BranchUnit's next-PC feeds
// IFStage, which only exists once the pipeline ahead of BranchUnit is
// built; the extractor/MEMStage flush handshake is the same shape), so
// their wires are bound to a forward-declared port variable that is
// assigned once the real producer is constructed.
type Core struct {
	kernel  *Kernel
	mem     *Memory
	regfile *RegFile
	csr     *CSRBank

	extractor  *Extractor
	ifStage    *IFStage
	idStage    *IDStage
	exStage    *EXStage
	memStage   *MEMStage
	wbStage    *WBStage
	branchUnit *BranchUnit
}

// defaultMemSize is large enough to hold every documented golden program
// plus the fixed 12-byte entropy region at entropyAddress.
const defaultMemSize = 64 * 1024

// NewCore builds a simulator with pcBound as the legal instruction-memory
// upper bound.
func NewCore(pcBound uint32) *Core {
	return NewCoreWithMemSize(pcBound, defaultMemSize)
}

// NewCoreWithMemSize is NewCore with an explicit memory size, for tests
// that want a small address space to exercise SegmentationFaultError.
func NewCoreWithMemSize(pcBound uint32, memSize int) *Core {
	k := NewKernel()
	c := &Core{
		kernel:  k,
		mem:     NewMemory(k, memSize),
		regfile: NewRegFile(),
		csr:     NewCSRBank(),
	}

	var npcPort *Port[uint32]
	npcWire := NewWire(func() uint32 { return npcPort.Read() })

	var txtPort *Port[TXTMsg]
	txtWire := NewWire(func() TXTMsg { return txtPort.Read() })

	var xtifPort *Port[XTIFMsg]
	xtifWire := NewWire(func() XTIFMsg { return xtifPort.Read() })

	c.ifStage = NewIFStage(k, c.mem, npcWire, xtifWire)
	c.extractor = NewExtractor(k, c.ifStage.InstReg().CurWire(), txtWire)
	xtifPort = c.extractor.XTIFOut

	c.idStage = NewIDStage(k, c.ifStage.IFID.CurWire(), c.regfile, c.csr, pcBound)
	c.exStage = NewEXStage(k, c.idStage.IDEX.CurWire())
	c.memStage = NewMEMStage(k, c.exStage.EXMEM.CurWire(), xtifWire, c.mem)
	txtPort = c.memStage.TXTOut

	c.wbStage = NewWBStage(c.memStage.MEMWB.CurWire(), c.regfile, c.csr)
	c.branchUnit = NewBranchUnit(k, c.exStage.EXMEM.CurWire())
	npcPort = c.branchUnit.NPCOut

	// Steady-state evaluation chain: ir_reg ticks -> extractor recomputes
	// -> its output (a Port, so every write re-notifies) drives if_stage
	// -> if_id ticks -> id_stage -> id_ex ticks -> ex_stage -> ex_mem
	// ticks -> {mem_stage, branch_unit} -> mem_wb ticks -> wb_stage.
	c.ifStage.InstReg().OnTick(c.extractor.Process)
	c.extractor.XTIFOut.Sensitive(c.ifStage.Process)
	c.ifStage.IFID.OnTick(c.idStage.Process)
	c.idStage.IDEX.OnTick(c.exStage.Process)
	c.exStage.EXMEM.OnTick(func() {
		c.memStage.Process()
		c.branchUnit.Process()
	})
	c.memStage.MEMWB.OnTick(c.wbStage.Process)

	// Reg.OnTick listeners only fire starting from the first real tick,
	// so seed every stage but IFStage (which the extractor's first write
	// triggers via Sensitive) for cycle 1's propagation round.
	k.Schedule(c.extractor.Process)
	k.Schedule(c.idStage.Process)
	k.Schedule(c.exStage.Process)
	k.Schedule(c.memStage.Process)
	k.Schedule(c.branchUnit.Process)
	k.Schedule(c.wbStage.Process)

	return c
}

// LoadProgram copies image into memory starting at address 0.
func (c *Core) LoadProgram(image []byte) {
	c.mem.LoadImage(image)
}

// SetFault arms a fault-injection event for a future cycle.
func (c *Core) SetFault(p *FIParams) {
	c.kernel.SetFault(p)
}

// Step runs one clock cycle.
func (c *Core) Step() error {
	return c.kernel.Step()
}

// Run executes up to n cycles, stopping at the first raised exception.
func (c *Core) Run(n int) error {
	return c.kernel.Run(n)
}

// Cycle returns the number of completed cycles.
func (c *Core) Cycle() uint64 {
	return c.kernel.Cycle()
}

// ReadMemory exposes the underlying memory for test assertions and
// result recording.
func (c *Core) ReadMemory(addr uint32, n int) []byte {
	return c.mem.ReadBytes(addr, n)
}

// ReadRegister exposes a general-purpose register for test assertions.
func (c *Core) ReadRegister(idx uint32) uint32 {
	return c.regfile.Read(idx)
}
