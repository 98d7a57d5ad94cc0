package pyv

import "testing"

func TestGetBit(t *testing.T) {
	cases := []struct {
		v    uint32
		n    uint
		want uint32
	}{
		{0b1010, 0, 0},
		{0b1010, 1, 1},
		{0b1010, 3, 1},
		{0x80000000, 31, 1},
		{0x80000000, 30, 0},
	}
	for _, c := range cases {
		if got := getBit(c.v, c.n); got != c.want {
			t.Errorf("getBit(0x%x, %d) = %d, want %d", c.v, c.n, got, c.want)
		}
	}
}

func TestGetBits(t *testing.T) {
	cases := []struct {
		v        uint32
		hi, lo   uint
		want     uint32
	}{
		{0b11110000, 7, 4, 0b1111},
		{0xfea42623, 6, 2, 0b01000}, // SW opcode field
		{0xfea42623, 31, 25, 0x7f},  // SW imm[11:5]
	}
	for _, c := range cases {
		if got := getBits(c.v, c.hi, c.lo); got != c.want {
			t.Errorf("getBits(0x%x, %d, %d) = 0x%x, want 0x%x", c.v, c.hi, c.lo, got, c.want)
		}
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		v     uint32
		width uint
		want  uint32
	}{
		{0x7ff, 12, 0x7ff},
		{0xfff, 12, 0xffffffff},
		{0xb30, 12, 0xfffffb30},
		{0, 12, 0},
	}
	for _, c := range cases {
		if got := signExtend(c.v, c.width); got != c.want {
			t.Errorf("signExtend(0x%x, %d) = 0x%x, want 0x%x", c.v, c.width, got, c.want)
		}
	}
}
