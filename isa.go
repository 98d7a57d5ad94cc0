package pyv

// RV32I major opcodes, given in the 5-bit form produced by
// getBits(inst, 6, 2) (bits[1:0] are always 0b11 and are not carried).
const (
	opLoad   = 0b00000
	opOpImm  = 0b00100
	opAuipc  = 0b00101
	opStore  = 0b01000
	opOp     = 0b01100
	opLui    = 0b01101
	opBranch = 0b11000
	opJalr   = 0b11001
	opJal    = 0b11011
	opSystem = 0b11100
)

// LOAD/STORE funct3 values.
const (
	f3LB  = 0b000
	f3LH  = 0b001
	f3LW  = 0b010
	f3LBU = 0b100
	f3LHU = 0b101

	f3SB = 0b000
	f3SH = 0b001
	f3SW = 0b010
)

// OP / OP-IMM funct3 values.
const (
	f3ADD_SUB = 0b000
	f3SLL     = 0b001
	f3SLT     = 0b010
	f3SLTU    = 0b011
	f3XOR     = 0b100
	f3SRL_SRA = 0b101
	f3OR      = 0b110
	f3AND     = 0b111
)

// BRANCH funct3 values. 0b010 and 0b011 are not defined by the base ISA.
const (
	f3BEQ  = 0b000
	f3BNE  = 0b001
	f3BLT  = 0b100
	f3BGE  = 0b101
	f3BLTU = 0b110
	f3BGEU = 0b111
)

// SYSTEM (CSR) funct3 values. funct3 0 (ECALL/EBREAK) requires trap
// handling, which is out of scope, so it decodes as illegal here.
const (
	f3CSRRW  = 0b001
	f3CSRRS  = 0b010
	f3CSRRC  = 0b011
	f3CSRRWI = 0b101
	f3CSRRSI = 0b110
	f3CSRRCI = 0b111
)

// funct7 values that distinguish ADD/SUB and SRL/SRA within the same
// funct3 slot.
const (
	funct7Zero = 0b0000000
	funct7Alt  = 0b0100000
)

// memory-operation classes, read by MEMStage to decide whether EXMEM's
// alu_res doubles as a data address.
const (
	memNone  = 0
	memLoad  = 1
	memStore = 2
)

// writeback source selectors.
const (
	wbAlu    = 0
	wbPC4    = 1
	wbMem    = 2
	wbCSR    = 3
)

// entropyAddress is the fixed memory region the extractor flushes its
// packed entropy words to.
const entropyAddress = 1024

// stopInstr is the sentinel word IFStage recognizes as "no more program
// to fetch" and substitutes with a NOP (0x00000013, ADDI x0, x0, 0) on
// its own output.
const (
	stopInstr = 0xffffffff
	nopInstr  = 0x00000013
)
