package pyv

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadProgramFS(t *testing.T) {
	fsys := afero.NewMemMapFs()
	image := littleEndian([]uint32{encI(opOpImm, 0, 1, 0, 5), stopInstr})
	if err := afero.WriteFile(fsys, "program.bin", image, 0o644); err != nil {
		t.Fatalf("seeding memmap fs: %v", err)
	}

	c := NewCore(0xffffffff)
	if err := LoadProgramFS(c, fsys, "program.bin"); err != nil {
		t.Fatalf("LoadProgramFS() = %v", err)
	}

	got := c.ReadMemory(0, 4)
	for i := range image[:4] {
		if got[i] != image[i] {
			t.Fatalf("mem[0:4] = % x, want % x", got, image[:4])
		}
	}
}

func TestLoadProgramFSMissingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	c := NewCore(0xffffffff)
	err := LoadProgramFS(c, fsys, "missing.bin")
	if err == nil {
		t.Fatal("LoadProgramFS() = nil, want an error for a missing file")
	}
}
