package state

import (
	"context"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File reads the state from a JSON or YAML document rewritten by another
// process. A missing file reads as an empty state.
type File struct {
	Path string
}

func (f File) Fetch(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, errors.Wrap(err, "read state file")
	}

	var w wire
	if err := yaml.Unmarshal(b, &w); err != nil {
		return State{}, errors.Wrapf(err, "parse state file %s", f.Path)
	}
	return w.state(), nil
}
