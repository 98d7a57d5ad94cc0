package pyv

import "testing"

func TestWBStageSelectsAndWrites(t *testing.T) {
	cases := []struct {
		name string
		in   MEMWBMsg
		want uint32
	}{
		{"alu", MEMWBMsg{Rd: 1, We: true, WBSel: wbAlu, AluRes: 11}, 11},
		{"pc4", MEMWBMsg{Rd: 1, We: true, WBSel: wbPC4, PC4: 16}, 16},
		{"mem", MEMWBMsg{Rd: 1, We: true, WBSel: wbMem, MemRData: 99}, 99},
		{"csr", MEMWBMsg{Rd: 1, We: true, WBSel: wbCSR, CSRReadVal: 7}, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			regs := NewRegFile()
			csr := NewCSRBank()
			in := c.in
			w := NewWBStage(NewWire(func() MEMWBMsg { return in }), regs, csr)
			w.Process()
			if got := regs.Read(1); got != c.want {
				t.Errorf("x1 = %d, want %d", got, c.want)
			}
		})
	}
}

func TestWBStageSkipsWriteWhenWeFalse(t *testing.T) {
	regs := NewRegFile()
	csr := NewCSRBank()
	in := MEMWBMsg{Rd: 5, We: false, WBSel: wbAlu, AluRes: 123}
	w := NewWBStage(NewWire(func() MEMWBMsg { return in }), regs, csr)
	w.Process()
	if got := regs.Read(5); got != 0 {
		t.Errorf("x5 = %d, want 0 (write suppressed)", got)
	}
}

func TestWBStageNeverWritesX0(t *testing.T) {
	regs := NewRegFile()
	csr := NewCSRBank()
	in := MEMWBMsg{Rd: 0, We: true, WBSel: wbAlu, AluRes: 999}
	w := NewWBStage(NewWire(func() MEMWBMsg { return in }), regs, csr)
	w.Process()
	if got := regs.Read(0); got != 0 {
		t.Errorf("x0 = %d, want 0 (hardwired)", got)
	}
}

func TestWBStageCSRWrite(t *testing.T) {
	regs := NewRegFile()
	csr := NewCSRBank()
	in := MEMWBMsg{CSRWriteEn: true, CSRAddr: 0x300, CSRWriteVal: 0xdead}
	w := NewWBStage(NewWire(func() MEMWBMsg { return in }), regs, csr)
	w.Process()
	if got := csr.Read(0x300); got != 0xdead {
		t.Errorf("csr[0x300] = %#x, want 0xdead", got)
	}
}

func TestBranchUnitSelectsTargetOrPC4(t *testing.T) {
	k := NewKernel()
	var in EXMEMMsg
	b := NewBranchUnit(k, NewWire(func() EXMEMMsg { return in }))

	in = EXMEMMsg{TakeBranch: true, AluRes: 0x1000, PC4: 0x4}
	b.Process()
	if got := b.NPCOut.Read(); got != 0x1000 {
		t.Errorf("npc (taken) = %#x, want 0x1000", got)
	}

	in = EXMEMMsg{TakeBranch: false, AluRes: 0x1000, PC4: 0x4}
	b.Process()
	if got := b.NPCOut.Read(); got != 0x4 {
		t.Errorf("npc (not taken) = %#x, want 0x4", got)
	}
}
