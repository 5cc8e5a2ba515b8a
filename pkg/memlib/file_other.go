//go:build !unix

package memlib

import (
	"go-mm/pkg/customerrors"

	"github.com/pkg/errors"
)

type fileRegion struct{}

func newFileRegion(path string, size int) (*fileRegion, error) {
	return nil, errors.Wrap(customerrors.ErrUnsupported, "file backed arena")
}

func (r *fileRegion) bytes() []byte { return nil }
func (r *fileRegion) sync() error   { return nil }
func (r *fileRegion) close() error  { return nil }
