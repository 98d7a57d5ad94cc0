package pyv

// EXMEMMsg is the execute/memory pipeline register payload.
type EXMEMMsg struct {
	Rd          uint32
	We          bool
	WBSel       int
	TakeBranch  bool
	AluRes      uint32
	PC4         uint32
	RS2         uint32
	Mem         int
	Funct3      uint32
	CSRAddr     uint32
	CSRReadVal  uint32
	CSRWriteEn  bool
	CSRWriteVal uint32
}

// EXStage performs the ALU operation, resolves branch/jump targets and
// folds CSR read-modify-write operations.
type EXStage struct {
	idexIn *Wire[IDEXMsg]

	EXMEM *Reg[EXMEMMsg]

	lastTakeBranch bool
	lastAluRes     uint32
}

// NewEXStage wires EXStage to IDStage's output.
func NewEXStage(k *Kernel, idexIn *Wire[IDEXMsg]) *EXStage {
	e := &EXStage{idexIn: idexIn}
	e.EXMEM = NewReg[EXMEMMsg](k, "ex.exmem", EXMEMMsg{})
	k.AddStableHook(e.checkException)
	return e
}

// Process runs the ALU, branch comparator and CSR folder for the
// instruction currently in IDEX.
func (e *EXStage) Process() {
	in := e.idexIn.Read()

	aluRes := alu(in.Opcode, in.RS1, in.RS2, in.Imm, in.PC, in.Funct3, in.Funct7)

	takeBranch := false
	switch in.Opcode {
	case opJal, opJalr:
		takeBranch = true
	case opBranch:
		takeBranch = branchTaken(in.Funct3, in.RS1, in.RS2)
	}

	csrWriteVal := uint32(0)
	if in.Opcode == opSystem {
		csrWriteVal = csrResult(in.Funct3, in.CSRReadVal, in.RS1)
	}

	e.lastTakeBranch = takeBranch
	e.lastAluRes = aluRes

	e.EXMEM.Next().Write(EXMEMMsg{
		Rd:          in.Rd,
		We:          in.We,
		WBSel:       in.WBSel,
		TakeBranch:  takeBranch,
		AluRes:      aluRes,
		PC4:         in.PC + 4,
		RS2:         in.RS2,
		Mem:         in.Mem,
		Funct3:      in.Funct3,
		CSRAddr:     in.CSRAddr,
		CSRReadVal:  in.CSRReadVal,
		CSRWriteEn:  in.CSRWriteEn,
		CSRWriteVal: csrWriteVal,
	})
}

func (e *EXStage) checkException() error {
	if e.lastTakeBranch && e.lastAluRes&0x3 != 0 {
		return InstructionAddressMisalignedError{PC: e.lastAluRes}
	}
	return nil
}

// alu evaluates the RV32I arithmetic/logic result for opcode.
func alu(opcode, rs1, rs2, imm, pc, f3, f7 uint32) uint32 {
	switch opcode {
	case opLoad, opStore:
		return rs1 + imm
	case opOpImm:
		return aluOp(f3, f7, rs1, imm)
	case opOp:
		return aluOp(f3, f7, rs1, rs2)
	case opLui:
		return imm
	case opAuipc:
		return pc + imm
	case opJal:
		return pc + imm
	case opJalr:
		return (rs1 + imm) &^ 1
	case opBranch:
		return pc + imm
	default:
		return 0
	}
}

func aluOp(f3, f7, a, b uint32) uint32 {
	switch f3 {
	case f3ADD_SUB:
		if f7 == funct7Alt {
			return a - b
		}
		return a + b
	case f3SLT:
		return boolToWord(int32(a) < int32(b))
	case f3SLTU:
		return boolToWord(a < b)
	case f3XOR:
		return a ^ b
	case f3SRL_SRA:
		shamt := b & 0x1f
		if f7 == funct7Alt {
			return uint32(int32(a) >> shamt)
		}
		return a >> shamt
	case f3OR:
		return a | b
	case f3AND:
		return a & b
	case f3SLL:
		return a << (b & 0x1f)
	default:
		return 0
	}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// branchTaken evaluates the RV32I branch condition for funct3.
func branchTaken(f3, rs1, rs2 uint32) bool {
	switch f3 {
	case f3BEQ:
		return rs1 == rs2
	case f3BNE:
		return rs1 != rs2
	case f3BLT:
		return int32(rs1) < int32(rs2)
	case f3BGE:
		return int32(rs1) >= int32(rs2)
	case f3BLTU:
		return rs1 < rs2
	case f3BGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

// csrResult computes the value a CSR instruction writes back to the CSR
// bank (CSRRW(I) replace, CSRRS(I) set, CSRRC(I) clear).
func csrResult(f3, csrReadVal, rs1 uint32) uint32 {
	switch f3 {
	case f3CSRRW, f3CSRRWI:
		return rs1
	case f3CSRRS, f3CSRRSI:
		return rs1 | csrReadVal
	case f3CSRRC, f3CSRRCI:
		return ^rs1 & csrReadVal
	default:
		return csrReadVal
	}
}
