package filestore

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"io"
	"os"
	"path/filepath"
)

// ErrFileInUse is returned if another store already owns the backing file
var ErrFileInUse = errors.New("filestore: file is used by another store")

// backingFile is a container file that is opened once and held open for the
// lifetime of a store. On the os file system the file is additionally
// protected by an advisory lock on "<path>.lock".
type backingFile struct {
	path  string
	magic string
	file  afero.File
	lock  *flock.Flock
}

func openBackingFile(fs afero.Fs, path, magic string) (*backingFile, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("filestore: creating directory for %s: %w", path, err)
	}

	bf := &backingFile{path: path, magic: magic}

	if _, isOs := fs.(*afero.OsFs); isOs {
		bf.lock = flock.New(path + ".lock")
		locked, err := bf.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("filestore: locking %s: %w", path, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrFileInUse, path)
		}
	}

	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		bf.unlock()
		return nil, fmt.Errorf("filestore: opening %s: %w", path, err)
	}
	bf.file = f
	return bf, nil
}

// load reads all records. An empty file is a valid, empty store.
func (bf *backingFile) load(decode func(r *binenc.Reader) error) error {
	info, err := bf.file.Stat()
	if err != nil {
		return fmt.Errorf("filestore: stat %s: %w", bf.path, err)
	}
	if info.Size() == 0 {
		return nil
	}
	if _, err := bf.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("filestore: seeking %s: %w", bf.path, err)
	}
	if err := readContainer(bufio.NewReader(bf.file), bf.magic, decode); err != nil {
		return fmt.Errorf("filestore: loading %s: %w", bf.path, err)
	}
	return nil
}

// write replaces the content of the file with the given records
func (bf *backingFile) write(records []record) error {
	if _, err := bf.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	bw := bufio.NewWriterSize(bf.file, 64*1024)
	if err := writeContainer(bw, bf.magic, records); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	// cut off the rest of a previous, longer content
	size, err := bf.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := bf.file.Truncate(size); err != nil {
		return err
	}
	return bf.file.Sync()
}

func (bf *backingFile) close() error {
	err := bf.file.Close()
	bf.unlock()
	return err
}

func (bf *backingFile) unlock() {
	if bf.lock == nil {
		return
	}
	if err := bf.lock.Unlock(); err != nil {
		Logger.Warningf("releasing lock of %s failed: %v", bf.path, err)
	}
}
