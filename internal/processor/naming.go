package processor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Naming derives the clip directory and clip file names for one input
type Naming struct {
	Base      string // clip base name without directory or extension
	Ext       string // extension of the input, including the dot
	OutputDir string // directory the clip directory is created in
}

// NewNaming builds clip names from input. outputBase overrides the base name;
// outputDir defaults to the working directory.
func NewNaming(input, outputBase, outputDir string) Naming {
	ext := filepath.Ext(input)
	base := outputBase
	if base == "" {
		base = strings.TrimSuffix(input, ext)
	}
	base = filepath.Base(base)
	if outputDir == "" {
		outputDir = "."
	}
	return Naming{Base: base, Ext: ext, OutputDir: outputDir}
}

// DirPattern is the os.MkdirTemp pattern for the clip directory
func (n Naming) DirPattern() string {
	return "autocut_" + n.Base + "_"
}

// ClipName returns the file name of clip index (zero-based) out of total.
// Indices are one-based in the name and zero-padded to the width of total.
func (n Naming) ClipName(index, total int) string {
	return fmt.Sprintf("%s.%0*d%s", n.Base, indexWidth(total), index+1, n.Ext)
}

// indexWidth returns the number of digits needed to print total
func indexWidth(total int) int {
	if total < 1 {
		return 1
	}
	return len(strconv.Itoa(total))
}
