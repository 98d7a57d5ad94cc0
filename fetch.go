package pyv

// IFIDMsg is the fetch/decode pipeline register payload.
type IFIDMsg struct {
	Inst uint32
	PC   uint32
}

// IFStage fetches one instruction per cycle from imem at the current
// program counter, substituting a NOP whenever the extractor is still
// mid-flush, has signalled end of stream, or the PC has not yet reached
// a valid address (the two-cycle reset warmup, mirrored by the -4/-8
// sentinel PC values below).
type IFStage struct {
	pcReg *Reg[int32]
	irReg *Reg[uint32]

	npcIn *Wire[uint32]
	xtIn  *Wire[XTIFMsg]
	imem  *ReadPort

	IFID *Reg[IFIDMsg]
}

// NewIFStage wires IFStage to imem's first read port, BranchUnit's
// next-PC output and the extractor's control signals.
func NewIFStage(k *Kernel, imem *Memory, npcIn *Wire[uint32], xtIn *Wire[XTIFMsg]) *IFStage {
	f := &IFStage{
		npcIn: npcIn,
		xtIn:  xtIn,
		imem:  &imem.Read0,
	}
	f.pcReg = NewReg[int32](k, "if.pc", -4)
	f.irReg = NewReg[uint32](k, "if.ir", nopInstr)
	f.IFID = NewReg[IFIDMsg](k, "if.ifid", IFIDMsg{Inst: nopInstr})

	imem.Read0.Enable.Claim()
	imem.Read0.Width.Claim()
	imem.Read0.Addr.Claim()
	imem.Read0.Enable.Write(true)
	imem.Read0.Width.Write(4)

	imem.Read0.RData.Sensitive(func() {
		f.irReg.Next().Write(imem.Read0.RData.Read())
	})

	return f
}

// InstReg exposes the raw fetched instruction register for the
// extractor to tap.
func (f *IFStage) InstReg() *Reg[uint32] {
	return f.irReg
}

// Process recomputes the program counter and the gated instruction
// handed to IDStage. It runs once per cycle, driven by the extractor's
// output (itself driven once per cycle by the fetch register ticking).
func (f *IFStage) Process() {
	pc := f.pcReg.Cur()
	xt := f.xtIn.Read()

	var next int32
	switch {
	case xt.Active:
		if xt.FlushBits {
			next = pc
		} else {
			next = pc + 4
		}
	case xt.Ready:
		next = -8
	case !xt.FlushBits:
		next = int32(f.npcIn.Read())
	default:
		next = f.pcReg.Next().Read()
	}
	f.pcReg.Next().Write(next)
	f.imem.Addr.Write(uint32(next))

	nop := xt.Active || xt.FlushBits || xt.Ready || pc <= -4
	inst := f.irReg.Cur()
	if nop {
		inst = nopInstr
	}

	f.IFID.Next().Write(IFIDMsg{Inst: inst, PC: uint32(pc)})
}
