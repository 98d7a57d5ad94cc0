package pyv

import "testing"

// No assembled binaries for the four reference test programs (memset,
// strcpy, fibonacci, atoi) travel with this simulator's source, so this
// end-to-end check hand-assembles a small program instead of replaying
// one of the documented fixtures byte-for-byte. It still exercises the
// same thing those fixtures exercise: fetch through all five stages,
// across several cycles, into a committed memory write.
//
//	addi x1, x0, 123   ; x1 = 123
//	addi x2, x0, 2000  ; x2 = 2000 (store target address)
//	sw   x1, 0(x2)     ; mem[2000:2004] = 123
//	<stop>
func littleEndian(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		out[4*i] = byte(w)
		out[4*i+1] = byte(w >> 8)
		out[4*i+2] = byte(w >> 16)
		out[4*i+3] = byte(w >> 24)
	}
	return out
}

func TestCoreRunsAddiStoreProgram(t *testing.T) {
	program := littleEndian([]uint32{
		encI(opOpImm, 0, 1, 0, 123),
		encI(opOpImm, 0, 2, 0, 2000),
		encS(opStore, f3SW, 2, 1, 0),
		stopInstr,
	})

	c := NewCore(0xffffffff)
	c.LoadProgram(program)

	for i := 0; i < 40; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("unexpected error at cycle %d: %v", i+1, err)
		}
	}

	got := c.ReadMemory(2000, 4)
	want := []byte{123, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mem[2000:2004] = % x, want % x", got, want)
		}
	}
}

func TestCoreRaisesIllegalInstruction(t *testing.T) {
	program := littleEndian([]uint32{
		0x00000001, // bits[1:0] != 0b11, illegal
		stopInstr,  // ends the extraction pass so the word above is decoded
	})
	c := NewCore(0xffffffff)
	c.LoadProgram(program)

	err := c.Run(10)
	if _, ok := err.(IllegalInstructionError); !ok {
		t.Fatalf("Run() = %v (%T), want IllegalInstructionError", err, err)
	}
}

// Memory round-trip through the full pipeline (spec §8): a store
// followed by a load of the same word must hand the writeback stage the
// value that was actually written, not whatever the data-read port held
// before the load's request settled.
func TestCoreStoreThenLoadRoundTrip(t *testing.T) {
	program := littleEndian([]uint32{
		encI(opOpImm, 0, 1, 0, 123),  // addi x1, x0, 123
		encI(opOpImm, 0, 2, 0, 2000), // addi x2, x0, 2000
		encS(opStore, f3SW, 2, 1, 0), // sw   x1, 0(x2)
		encI(opLoad, f3LW, 3, 2, 0),  // lw   x3, 0(x2)
		stopInstr,
	})

	c := NewCore(0xffffffff)
	c.LoadProgram(program)

	for i := 0; i < 40; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("unexpected error at cycle %d: %v", i+1, err)
		}
	}

	if got := c.ReadRegister(3); got != 123 {
		t.Fatalf("x3 = %d, want 123 (loaded back from mem[2000])", got)
	}
}

// A realistic (non-sentinel) pcBound must still let the reset warmup's
// negative PC (-4, -8) through: only an actual post-warmup PC exceeding
// the bound should raise PCOutOfBoundError. Before this was fixed,
// d.lastPC's warmup sentinels reinterpreted as uint32 (0xfffffffc,
// 0xfffffff8) compared as huge addresses against any realistic bound and
// fired on cycle 2, regardless of what the program does.
func TestCoreRunsUnderRealisticPCBoundDespiteNegativeWarmupPC(t *testing.T) {
	program := littleEndian([]uint32{
		encI(opOpImm, 0, 1, 0, 7), // addi x1, x0, 7
		stopInstr,
	})

	c := NewCore(64) // a real bound, not the 0xffffffff "unbounded" sentinel
	c.LoadProgram(program)

	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("unexpected error at cycle %d (likely the reset-warmup PC tripping pcBound): %v", i+1, err)
		}
	}
}

// A realistic pcBound must still catch a genuine overflow once the
// reset warmup is past: running long enough to fall off the end of a
// tiny bound (with no STOP word to halt first) must raise
// PCOutOfBoundError, not silently keep fetching.
func TestCoreRaisesPCOutOfBoundWhenExceeded(t *testing.T) {
	program := littleEndian([]uint32{
		encI(opOpImm, 0, 1, 0, 1), // addi x1, x0, 1 (no stop word follows)
	})
	c := NewCore(4) // bound is one instruction past the program
	c.LoadProgram(program)

	err := c.Run(20)
	if _, ok := err.(PCOutOfBoundError); !ok {
		t.Fatalf("Run() = %v (%T), want PCOutOfBoundError", err, err)
	}
}

func TestCoreRaisesSegfaultOnOutOfRangeStore(t *testing.T) {
	program := littleEndian([]uint32{
		encI(opOpImm, 0, 1, 0, 1),
		encI(opOpImm, 0, 2, 0, 100), // address well past the tiny memory below
		encS(opStore, f3SW, 2, 1, 0),
		stopInstr,
	})
	c := NewCoreWithMemSize(0xffffffff, 32)
	c.LoadProgram(program)

	err := c.Run(20)
	if _, ok := err.(SegmentationFaultError); !ok {
		t.Fatalf("Run() = %v (%T), want SegmentationFaultError", err, err)
	}
}
