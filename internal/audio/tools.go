package audio

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrToolNotFound is returned when a required executable is not on PATH
var ErrToolNotFound = errors.New("could not find required tool")

// lookPath is replaced in tests
var lookPath = exec.LookPath

// CheckTools resolves each named executable on PATH.
// Every missing tool is reported in the returned error, not just the first.
func CheckTools(names ...string) (map[string]string, error) {
	paths := make(map[string]string, len(names))
	var errs []error

	for _, name := range names {
		path, err := lookPath(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrToolNotFound, name))
			continue
		}
		paths[name] = path
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return paths, nil
}
