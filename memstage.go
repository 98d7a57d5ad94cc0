package pyv

import "log"

// MEMWBMsg is the memory/writeback pipeline register payload.
type MEMWBMsg struct {
	Rd          uint32
	We          bool
	AluRes      uint32
	PC4         uint32
	MemRData    uint32
	WBSel       int
	CSRAddr     uint32
	CSRReadVal  uint32
	CSRWriteEn  bool
	CSRWriteVal uint32
}

// MEMStage performs data loads/stores and, while the extractor signals a
// pending flush, steals the data memory port for up to three cycles to
// pack the 16-slot entropy buffer into 3 words at entropyAddress.
type MEMStage struct {
	exmemIn *Wire[EXMEMMsg]
	xtIn    *Wire[XTIFMsg]
	dmem    *Memory

	flushReadyReg    *Reg[bool]
	flushStateReg    *Reg[int]
	entropyOffsetReg *Reg[uint32]

	TXTOut *Port[TXTMsg]
	MEMWB  *Reg[MEMWBMsg]

	lastOp   int
	lastAddr uint32
	lastF3   uint32

	// signext and exmem hold this cycle's load shape and pass-through
	// fields so writeMEMWB can be rerun once the data-read port's value
	// actually settles, without Process having to re-derive them.
	signext int
	exmem   EXMEMMsg
}

// NewMEMStage wires MEMStage to EXStage's output, the extractor's
// signals, and the shared memory's second read port and write port.
func NewMEMStage(k *Kernel, exmemIn *Wire[EXMEMMsg], xtIn *Wire[XTIFMsg], dmem *Memory) *MEMStage {
	m := &MEMStage{exmemIn: exmemIn, xtIn: xtIn, dmem: dmem}
	m.flushReadyReg = NewReg[bool](k, "mem.flush_ready", false)
	m.flushStateReg = NewReg[int](k, "mem.flush_state", 0)
	m.entropyOffsetReg = NewReg[uint32](k, "mem.entropy_offset", 0)

	m.TXTOut = NewPort[TXTMsg](k, "mem.txt")
	m.TXTOut.Claim()
	m.MEMWB = NewReg[MEMWBMsg](k, "mem.memwb", MEMWBMsg{})

	dmem.Read1.Enable.Claim()
	dmem.Read1.Width.Claim()
	dmem.Read1.Addr.Claim()
	dmem.Write.Enable.Claim()
	dmem.Write.Width.Claim()
	dmem.Write.Addr.Claim()
	dmem.Write.WData.Claim()

	// Mirrors stages_entropy.py's `load_val = Wire(int, [process_load]);
	// load_val << read_port.rdata_o`: rdata_o's write (enqueued by
	// Process's address/enable/width writes below) lands later in this
	// cycle's propagation, so writeMEMWB must rerun once it settles
	// rather than reading a stale or pre-update value inline.
	dmem.Read1.RData.Sensitive(m.writeMEMWB)

	k.AddStableHook(m.checkException)
	return m
}

// Process decides this cycle's memory access (entropy flush or a normal
// load/store), issues it, and builds MEMWB.
func (m *MEMStage) Process() {
	xt := m.xtIn.Read()
	exmem := m.exmemIn.Read()
	state := m.flushStateReg.Cur()

	var op int
	var addr, f3, wdata uint32

	if xt.FlushBits {
		op = memStore
		f3 = f3SW
		offset := m.entropyOffsetReg.Cur()
		addr = entropyAddress + offset
		wdata = packEntropyWord(xt.Entropy, state)

		m.entropyOffsetReg.Next().Write((offset + 4) % 12)
		m.flushStateReg.Next().Write((state + 1) % 3)
	} else {
		op = exmem.Mem
		addr = exmem.AluRes
		f3 = exmem.Funct3
		wdata = exmem.RS2
		m.flushStateReg.Next().Write(state)
	}

	flushReadyCur := m.flushReadyReg.Cur()
	switch {
	case state == 2:
		m.flushReadyReg.Next().Write(true)
	case flushReadyCur:
		m.flushReadyReg.Next().Write(false)
	default:
		m.flushReadyReg.Next().Write(flushReadyCur)
	}

	m.lastOp, m.lastAddr, m.lastF3 = op, addr, f3

	signext := 0
	width := 0
	switch op {
	case memLoad:
		switch f3 {
		case f3LB:
			width, signext = 1, 8
		case f3LH:
			width, signext = 2, 16
		case f3LW:
			width = 4
		case f3LBU:
			width = 1
		case f3LHU:
			width = 2
		}
	case memStore:
		switch f3 {
		case f3SB:
			width = 1
		case f3SH:
			width = 2
		case f3SW:
			width = 4
		}
	}

	m.signext = signext
	m.exmem = exmem

	m.dmem.Read1.Enable.Write(op == memLoad)
	m.dmem.Read1.Width.Write(width)
	m.dmem.Read1.Addr.Write(addr)

	m.dmem.Write.Enable.Write(op == memStore)
	m.dmem.Write.Width.Write(width)
	m.dmem.Write.Addr.Write(addr)
	m.dmem.Write.WData.Write(wdata)

	m.TXTOut.Write(TXTMsg{FlushBitsReady: m.flushReadyReg.Cur()})

	// Writes MEMWB.Next once immediately with whatever rdata_o currently
	// holds (correct for every non-load op, and for a load stale only
	// until the Sensitive callback above reruns this same cycle once the
	// read port actually settles).
	m.writeMEMWB()
}

// writeMEMWB builds MEMWB.Next from this cycle's stashed pass-through
// fields and the data-read port's current value. Registered as a
// Sensitive callback on Read1.RData (see NewMEMStage) so a load's result
// is rewritten correctly once the memory device has actually produced
// it, not just once per Process call.
func (m *MEMStage) writeMEMWB() {
	rdata := m.dmem.Read1.RData.Read()
	if m.signext != 0 {
		rdata = signExtend(rdata, uint(m.signext))
	}

	exmem := m.exmem
	m.MEMWB.Next().Write(MEMWBMsg{
		Rd:          exmem.Rd,
		We:          exmem.We,
		AluRes:      exmem.AluRes,
		PC4:         exmem.PC4,
		MemRData:    rdata,
		WBSel:       exmem.WBSel,
		CSRAddr:     exmem.CSRAddr,
		CSRReadVal:  exmem.CSRReadVal,
		CSRWriteEn:  exmem.CSRWriteEn,
		CSRWriteVal: exmem.CSRWriteVal,
	})
}

func (m *MEMStage) checkException() error {
	switch m.lastOp {
	case memLoad, memStore:
	default:
		return nil
	}

	var width int
	switch m.lastF3 {
	case f3LB: // same value as f3SB
		width = 1
	case f3LH: // same value as f3SH
		width = 2
	case f3LW: // same value as f3SW
		width = 4
	case f3LBU:
		width = 1
	case f3LHU:
		width = 2
	default:
		return InvalidWidthError{Width: -1}
	}

	switch width {
	case 2:
		if m.lastAddr&0x1 != 0 {
			log.Printf("[pyv] misaligned %s at address 0x%08x", accessKind(m.lastOp), m.lastAddr)
		}
	case 4:
		if m.lastAddr&0x3 != 0 {
			log.Printf("[pyv] misaligned %s at address 0x%08x", accessKind(m.lastOp), m.lastAddr)
		}
	}

	return m.dmem.Bounds(m.lastAddr, width)
}

func accessKind(op int) string {
	if op == memStore {
		return "store to"
	}
	return "load from"
}

// packEntropyWord packs the current 3-cycle slice of a 16-entry entropy
// buffer into one 32-bit word, matching the reference packer's bit
// layout: each entry contributes its low 6 bits, concatenated MSB-first
// and stored little-endian through the normal word-store path.
//
//	state 0: entries 0-4 (6 bits each) + top 2 bits of entry 5
//	state 1: low 4 bits of entry 5 + entries 6-9 + top 4 bits of entry 10
//	state 2: low 2 bits of entry 10 + entries 11-15
func packEntropyWord(buf EntropyBuffer, state int) uint32 {
	get := func(i int) uint32 {
		if i < buf.Len {
			return uint32(buf.Vals[i]) & 0x3f
		}
		return 0
	}

	var word uint32
	switch state {
	case 0:
		for i := 0; i <= 4; i++ {
			word = word<<6 | get(i)
		}
		word = word<<2 | (get(5) >> 4)
	case 1:
		word = get(5) & 0xf
		for i := 6; i <= 9; i++ {
			word = word<<6 | get(i)
		}
		word = word<<4 | (get(10) >> 2)
	case 2:
		word = get(10) & 0x3
		for i := 11; i <= 15; i++ {
			word = word<<6 | get(i)
		}
	}
	return word
}
