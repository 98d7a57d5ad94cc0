package pyv

import lru "github.com/hashicorp/golang-lru/v2"

// decodedFields is the pure, instruction-word-only portion of decoding:
// everything that does not depend on the register file or CSR bank's
// current contents, and is therefore safe to memoize.
type decodedFields struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
	rs1Idx uint32
	rs2Idx uint32
	rdIdx  uint32
	imm    uint32
	we     bool
	wbSel  int
	mem    int
}

// decodeCache memoizes decodedFields by raw instruction word. The
// pipeline spends long stretches re-fetching the same NOP (during an
// entropy flush, or the reset warmup) and compiled test programs loop,
// so the same word recurs constantly; caching the pure bit-field work
// avoids redoing it every time without touching the register file reads
// that must stay live every cycle.
type decodeCache struct {
	lru *lru.Cache[uint32, decodedFields]
}

func newDecodeCache(size int) *decodeCache {
	c, err := lru.New[uint32, decodedFields](size)
	if err != nil {
		panic(err)
	}
	return &decodeCache{lru: c}
}

func (c *decodeCache) decode(inst uint32) decodedFields {
	if d, ok := c.lru.Get(inst); ok {
		return d
	}
	d := decodeFields(inst)
	c.lru.Add(inst, d)
	return d
}

func decodeFields(inst uint32) decodedFields {
	opcode := getBits(inst, 6, 2)
	funct3 := getBits(inst, 14, 12)

	var funct7 uint32
	if opcode == opOp {
		funct7 = getBit(inst, 30) << 5
	} else {
		funct7 = getBits(inst, 31, 25)
	}

	return decodedFields{
		opcode: opcode,
		funct3: funct3,
		funct7: funct7,
		rs1Idx: getBits(inst, 19, 15),
		rs2Idx: getBits(inst, 24, 20),
		rdIdx:  getBits(inst, 11, 7),
		imm:    decImm(opcode, inst),
		we:     writeEnable(opcode),
		wbSel:  wbSel(opcode),
		mem:    memSelFor(opcode),
	}
}
