package pyv

// IDEXMsg is the decode/execute pipeline register payload.
type IDEXMsg struct {
	RS1, RS2   uint32
	Imm        uint32
	PC         uint32
	Rd         uint32
	We         bool
	WBSel      int
	Opcode     uint32
	Funct3     uint32
	Funct7     uint32
	Mem        int
	CSRAddr    uint32
	CSRReadVal uint32
	CSRWriteEn bool
}

// IDStage decodes one instruction per cycle: splits out opcode/funct3/
// funct7/register indices, reads the register file and CSR bank, forms
// the immediate, and determines every downstream control signal. It
// also hosts the fault-injection hook and the instruction legality
// check (run as a stable hook, once propagation has settled).
type IDStage struct {
	regfile *RegFile
	csr     *CSRBank
	kernel  *Kernel
	pcBound uint32
	cache   *decodeCache

	ifidIn *Wire[IFIDMsg]

	IDEX *Reg[IDEXMsg]

	lastInst uint32
	lastPC   uint32
}

// NewIDStage wires IDStage to IFStage's output, the register file, the
// CSR bank and a bound on legal program-counter values.
func NewIDStage(k *Kernel, ifidIn *Wire[IFIDMsg], regfile *RegFile, csr *CSRBank, pcBound uint32) *IDStage {
	d := &IDStage{
		regfile: regfile,
		csr:     csr,
		kernel:  k,
		pcBound: pcBound,
		cache:   newDecodeCache(256),
		ifidIn:  ifidIn,
	}
	d.IDEX = NewReg[IDEXMsg](k, "id.idex", IDEXMsg{})
	k.AddStableHook(d.checkException)
	return d
}

// Process reads IFID, applies any armed fault injection, decodes the
// instruction and forms IDEX.
func (d *IDStage) Process() {
	in := d.ifidIn.Read()
	inst := in.Inst
	if inst == stopInstr {
		inst = nopInstr
	}

	if fi := d.kernel.faultForCycle(d.kernel.Cycle()); fi != nil {
		inst = applyFault(inst, *fi)
		d.kernel.markFaultApplied()
	}

	d.lastInst = inst
	d.lastPC = in.PC

	dec := d.cache.decode(inst)

	rs1 := d.regfile.Read(dec.rs1Idx)
	rs2 := d.regfile.Read(dec.rs2Idx)

	csrAddr := getBits(inst, 31, 20)
	csrVal := d.csr.Read(csrAddr)

	isCSR := dec.opcode == opSystem
	csrWriteEn := false
	if isCSR {
		switch dec.funct3 {
		case f3CSRRWI, f3CSRRSI, f3CSRRCI:
			rs1 = dec.rs1Idx // uimm carried directly in the rs1 field
		}
		switch dec.funct3 {
		case f3CSRRW, f3CSRRWI:
			csrWriteEn = true
		case f3CSRRS, f3CSRRSI, f3CSRRC, f3CSRRCI:
			csrWriteEn = rs1 != 0
		}
	}

	d.IDEX.Next().Write(IDEXMsg{
		RS1:        rs1,
		RS2:        rs2,
		Imm:        dec.imm,
		PC:         in.PC,
		Rd:         dec.rdIdx,
		We:         dec.we,
		WBSel:      dec.wbSel,
		Opcode:     dec.opcode,
		Funct3:     dec.funct3,
		Funct7:     dec.funct7,
		Mem:        dec.mem,
		CSRAddr:    csrAddr,
		CSRReadVal: csrVal,
		CSRWriteEn: csrWriteEn,
	})
}

// checkException runs once per cycle after propagation settles, against
// the instruction this cycle actually decoded (post fault-injection).
func (d *IDStage) checkException() error {
	// lastPC carries IFStage's reset-warmup sentinels (-4, -8) as their
	// uint32 bit pattern (0xFFFFFFFC, 0xFFFFFFF8); reinterpreted signed
	// they are negative, exactly like the reference model's unwrapped
	// int PC, and must never be compared against pcBound as if they were
	// huge addresses.
	if pc := int32(d.lastPC); pc >= 0 && d.lastPC > d.pcBound {
		return PCOutOfBoundError{PC: d.lastPC}
	}

	inst := d.lastInst
	if getBits(inst, 1, 0) != 0b11 {
		return IllegalInstructionError{PC: d.lastPC, Inst: inst}
	}

	opcode := getBits(inst, 6, 2)
	funct3 := getBits(inst, 14, 12)
	funct7 := getBits(inst, 31, 25)

	switch opcode {
	case opLoad:
		if funct3 == 0b011 || funct3 == 0b110 || funct3 == 0b111 {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	case opStore:
		if funct3 > 0b010 {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	case opOpImm:
		if funct3 == f3SLL && funct7 != funct7Zero {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
		if funct3 == f3SRL_SRA && funct7 != funct7Zero && funct7 != funct7Alt {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	case opAuipc, opLui, opJal:
		// no illegal encodings within these opcodes
	case opOp:
		switch funct3 {
		case f3ADD_SUB, f3SRL_SRA:
			if funct7 != funct7Zero && funct7 != funct7Alt {
				return IllegalInstructionError{PC: d.lastPC, Inst: inst}
			}
		default:
			if funct7 != funct7Zero {
				return IllegalInstructionError{PC: d.lastPC, Inst: inst}
			}
		}
	case opBranch:
		if funct3 == 0b010 || funct3 == 0b011 {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	case opJalr:
		if funct3 != 0 {
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	case opSystem:
		switch funct3 {
		case f3CSRRW, f3CSRRS, f3CSRRC, f3CSRRWI, f3CSRRSI, f3CSRRCI:
		default:
			return IllegalInstructionError{PC: d.lastPC, Inst: inst}
		}
	default:
		return IllegalInstructionError{PC: d.lastPC, Inst: inst}
	}
	return nil
}

// applyFault corrupts inst per the armed fault-injection parameters: a
// flip XORs the selected bits, a set ORs them in, a clear masks them out.
func applyFault(inst uint32, fi FIParams) uint32 {
	var mask uint32
	for i := 0; i < fi.NumBits; i++ {
		mask |= 1 << uint(fi.BitIndex+i)
	}
	switch fi.Kind {
	case FaultFlip:
		return inst ^ mask
	case FaultSet:
		return inst | mask
	case FaultClear:
		return inst &^ mask
	default:
		return inst
	}
}

// decImm decodes the sign-extended immediate for inst according to its
// major opcode class.
func decImm(opcode, inst uint32) uint32 {
	switch opcode {
	case opLoad, opOpImm, opJalr:
		return signExtend(getBits(inst, 31, 20), 12)
	case opStore:
		v := getBits(inst, 31, 25)<<5 | getBits(inst, 11, 7)
		return signExtend(v, 12)
	case opBranch:
		v := getBit(inst, 31)<<12 | getBit(inst, 7)<<11 | getBits(inst, 30, 25)<<5 | getBits(inst, 11, 8)<<1
		return signExtend(v, 13)
	case opLui, opAuipc:
		return getBits(inst, 31, 12) << 12
	case opJal:
		v := getBit(inst, 31)<<20 | getBits(inst, 19, 12)<<12 | getBit(inst, 20)<<11 | getBits(inst, 30, 21)<<1
		return signExtend(v, 21)
	default:
		return 0
	}
}

// writeEnable reports whether opcode writes a destination register.
func writeEnable(opcode uint32) bool {
	switch opcode {
	case opStore, opBranch:
		return false
	default:
		return true
	}
}

// wbSel selects the writeback source for opcode. JALR is deliberately
// excluded from the PC+4 case, matching the original decoder exactly: it
// falls through to the ALU result like every other non-special opcode.
func wbSel(opcode uint32) int {
	switch opcode {
	case opJal:
		return wbPC4
	case opLoad:
		return wbMem
	case opSystem:
		return wbCSR
	default:
		return wbAlu
	}
}

// memSelFor classifies a memory operation class for opcode.
func memSelFor(opcode uint32) int {
	switch opcode {
	case opLoad:
		return memLoad
	case opStore:
		return memStore
	default:
		return memNone
	}
}
