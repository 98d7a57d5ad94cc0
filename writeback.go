package pyv

// WBStage commits the final pipeline stage: selects the writeback value
// (ALU result, PC+4, memory data or CSR read value) and applies the
// register-file and CSR-bank writes.
type WBStage struct {
	regfile *RegFile
	csr     *CSRBank

	memwbIn *Wire[MEMWBMsg]
}

// NewWBStage wires WBStage to MEMStage's output, the register file and
// the CSR bank.
func NewWBStage(memwbIn *Wire[MEMWBMsg], regfile *RegFile, csr *CSRBank) *WBStage {
	return &WBStage{regfile: regfile, csr: csr, memwbIn: memwbIn}
}

// Process applies this cycle's register-file and CSR writes.
func (w *WBStage) Process() {
	in := w.memwbIn.Read()

	var val uint32
	switch in.WBSel {
	case wbPC4:
		val = in.PC4
	case wbMem:
		val = in.MemRData
	case wbCSR:
		val = in.CSRReadVal
	default:
		val = in.AluRes
	}

	if in.We {
		w.regfile.Write(in.Rd, val)
	}
	if in.CSRWriteEn {
		w.csr.Write(in.CSRAddr, in.CSRWriteVal)
	}
}

// BranchUnit computes the next fetch address from EXMEM: the branch/jump
// target when EXMEM signals a taken branch, otherwise the sequential
// PC+4. Its output is a same-cycle combinational signal (not a pipeline
// register) driven once per cycle by EXMEM ticking.
type BranchUnit struct {
	exmemIn *Wire[EXMEMMsg]

	NPCOut *Port[uint32]
}

// NewBranchUnit wires BranchUnit to EXStage's output.
func NewBranchUnit(k *Kernel, exmemIn *Wire[EXMEMMsg]) *BranchUnit {
	b := &BranchUnit{exmemIn: exmemIn}
	b.NPCOut = NewPort[uint32](k, "wb.npc")
	b.NPCOut.Claim()
	return b
}

// Process resolves this cycle's next-PC value.
func (b *BranchUnit) Process() {
	in := b.exmemIn.Read()
	if in.TakeBranch {
		b.NPCOut.Write(in.AluRes)
	} else {
		b.NPCOut.Write(in.PC4)
	}
}
