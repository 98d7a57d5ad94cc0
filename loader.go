package pyv

import (
	"fmt"

	"github.com/spf13/afero"
)

// LoadProgramFS reads the program image at path through fsys and loads it
// into the core's memory. Tests typically pass an afero.NewMemMapFs
// fixture; a campaign driver can pass afero.NewOsFs() for a real file
// without this package importing os directly.
func LoadProgramFS(c *Core, fsys afero.Fs, path string) error {
	image, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("pyv: loading program image %q: %w", path, err)
	}
	c.LoadProgram(image)
	return nil
}
