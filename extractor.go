package pyv

// EntropyBuffer is a fixed-capacity, comparable stand-in for the
// reference model's dynamically growing list: Reg[T] requires a
// comparable T, so the buffer is a 16-slot array plus a length rather
// than a slice.
type EntropyBuffer struct {
	Vals [16]uint8
	Len  int
}

// Append returns a new buffer with v appended. The caller is expected to
// only ever call it while Len < 16.
func (b EntropyBuffer) Append(v uint8) EntropyBuffer {
	nb := b
	nb.Vals[nb.Len] = v
	nb.Len++
	return nb
}

// XTIFMsg carries the extractor's state to IFStage (active/ready/flush
// gating of fetch) and to MEMStage (the entropy payload and flush
// trigger).
type XTIFMsg struct {
	Entropy   EntropyBuffer
	Active    bool
	Ready     bool
	FlushBits bool
}

// TXTMsg is MEMStage's acknowledgement that it has consumed (and may
// clear) the entropy buffer.
type TXTMsg struct {
	FlushBitsReady bool
}

// Extractor siphons 6 bits of entropy from funct7 of every R-type (OP)
// instruction fetched, buffers up to 16 values, and signals MEMStage to
// flush them to memory once full or once the program has signalled end
// of stream via the stop word.
type Extractor struct {
	ready     bool
	readyOut  bool
	activeOut bool
	flushBits bool

	ebReg *Reg[EntropyBuffer]

	ifInst *Wire[uint32]
	txtIn  *Wire[TXTMsg]

	XTIFOut *Port[XTIFMsg]
}

// NewExtractor wires the extractor to IFStage's instruction register and
// MEMStage's flush-acknowledgement output.
func NewExtractor(k *Kernel, ifInst *Wire[uint32], txtIn *Wire[TXTMsg]) *Extractor {
	x := &Extractor{
		activeOut: true,
		ifInst:    ifInst,
		txtIn:     txtIn,
	}
	x.ebReg = NewReg[EntropyBuffer](k, "extractor.eb", EntropyBuffer{})
	x.XTIFOut = NewPort[XTIFMsg](k, "extractor.xtif")
	x.XTIFOut.Claim()
	return x
}

// Process recomputes the extractor's state for the current cycle. It is
// driven once per cycle by IFStage's instruction register ticking.
func (x *Extractor) Process() {
	flushReady := x.txtIn.Read().FlushBitsReady
	inst := x.ifInst.Read()

	entropy := x.ebReg.Cur()

	if inst == stopInstr {
		x.ready = true
	}

	x.readyOut = x.ready && x.activeOut
	if x.ready && x.activeOut {
		x.activeOut = false
	}

	opcode := getBits(inst, 6, 2)
	funct7 := getBits(inst, 31, 25)

	if flushReady {
		entropy = EntropyBuffer{}
	}

	if opcode == opOp {
		if x.activeOut && !x.flushBits && !flushReady {
			entropy = entropy.Append(entropyBits(funct7))
		}
	}
	x.ebReg.Next().Write(entropy)

	if (x.flushBits || entropy.Len == 16 || (x.ready && entropy.Len > 0)) && !flushReady {
		x.flushBits = true
	} else {
		x.flushBits = false
	}

	x.XTIFOut.Write(XTIFMsg{
		Entropy:   entropy,
		Active:    x.activeOut,
		Ready:     x.readyOut,
		FlushBits: x.flushBits,
	})
}

// entropyBits extracts the 6-bit entropy value from an R-type
// instruction's funct7 field: the high bit (bit 6) becomes the top bit
// of the result, the low 5 bits (bits 4:0) fill the rest.
func entropyBits(funct7 uint32) uint8 {
	hi := getBit(funct7, 6)
	lo := getBits(funct7, 4, 0)
	return uint8(hi<<5 | lo)
}
