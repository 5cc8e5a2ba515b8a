//go:build unix

package memlib

import (
	"os"

	"go-mm/util/helpers"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type fileRegion struct {
	f    *os.File
	data []byte
}

func newFileRegion(path string, size int) (*fileRegion, error) {
	if path == "" {
		return nil, errors.New("file backing needs a path")
	}
	if err := helpers.CreateParentDir(path); err != nil {
		return nil, errors.Wrap(err, "failed to create arena directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0664)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open arena file")
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to size arena file")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to map arena file")
	}

	return &fileRegion{f: f, data: data}, nil
}

func (r *fileRegion) bytes() []byte { return r.data }

func (r *fileRegion) sync() error {
	return unix.Msync(r.data, unix.MS_SYNC)
}

func (r *fileRegion) close() error {
	if err := unix.Munmap(r.data); err != nil {
		return errors.Wrap(err, "failed to unmap arena file")
	}
	return r.f.Close()
}
