package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/notes/pkg/core"
)

// TempFilePrefix names the scratch files of an in-progress write. The leading
// dot puts them under the hidden-path rule in ignored, so Import and Watch
// skip them.
const TempFilePrefix = ".notes-tmp-"

// writeNote encodes n and replaces path with it atomically.
func writeNote(path string, n core.Note) error {
	data, err := Encode(n)
	if err != nil {
		return fmt.Errorf("encoding note %s: %w", n.ID, err)
	}
	return writeFileAtomic(path, data, 0644)
}

// writeFileAtomic stages data next to filename and renames it into place, so
// a watcher never reads a half-written note.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(filename), err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(staged)
		}
	}()

	_, werr := tmp.Write(data)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		return fmt.Errorf("failed to write %s: %w", staged, err)
	}
	if err := os.Chmod(staged, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", staged, err)
	}
	if err := os.Rename(staged, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}
