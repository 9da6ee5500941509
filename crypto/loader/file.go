package loader

import (
	"os"

	"golang.org/x/xerrors"
)

// fileLoader keeps a private key in a file only readable by its owner.
//
// - implements loader.Loader
type fileLoader struct {
	path string

	statFn     func(path string) (os.FileInfo, error)
	readFn     func(path string) ([]byte, error)
	openFileFn func(path string, flags int, perms os.FileMode) (*os.File, error)
}

// NewFileLoader returns a loader of the key file at the path.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path:       path,
		statFn:     os.Stat,
		readFn:     os.ReadFile,
		openFileFn: os.OpenFile,
	}
}

// LoadOrCreate implements loader.Loader. A new key is written to a file
// created with the 0400 permissions. If another process creates the file in
// the meantime, its key is returned instead.
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	data, err := l.Load()
	if err == nil {
		return data, nil
	}
	if !xerrors.Is(err, os.ErrNotExist) {
		return nil, xerrors.Errorf("failed to load file: %v", err)
	}

	data, err = g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	file, err := l.openFileFn(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0400)
	if os.IsExist(err) {
		return l.Load()
	}
	if err != nil {
		return nil, xerrors.Errorf("while creating file: %v", err)
	}

	defer file.Close()

	_, err = file.Write(data)
	if err != nil {
		return nil, xerrors.Errorf("while writing: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader. It refuses a key file that the group or the
// other users can access.
func (l fileLoader) Load() ([]byte, error) {
	info, err := l.statFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while opening file: %w", err)
	}

	if info.Mode().Perm()&0077 != 0 {
		return nil, xerrors.Errorf("permissions %v of %s are too open",
			info.Mode().Perm(), l.path)
	}

	data, err := l.readFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while reading file: %v", err)
	}

	return data, nil
}
