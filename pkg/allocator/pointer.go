package allocator

import (
	"encoding"

	"go-mm/pkg/customerrors"

	"github.com/pkg/errors"
)

var ErrUnmarshal = errors.New("unmarshal error")
var ErrMarshal = errors.New("marshal error")

// Pointable reads and writes a block's payload through the binary
// (un)marshaling interfaces. Get hands the whole usable payload to the
// unmarshaler, which must ignore trailing bytes it does not need.
type Pointable interface {
	Get(into encoding.BinaryUnmarshaler) error
	Set(from encoding.BinaryMarshaler) error
	Addr() Ptr
	Size() int
	Bytes() []byte
}

func (a *Allocator) Pointer(p Ptr) Pointable {
	return &pointer{ptr: p, a: a}
}

type pointer struct {
	ptr Ptr
	a   *Allocator
}

func (p *pointer) Get(into encoding.BinaryUnmarshaler) error {
	if err := into.UnmarshalBinary(p.Bytes()); err != nil {
		return errors.Wrap(err, ErrUnmarshal.Error())
	}
	return nil
}

func (p *pointer) Set(from encoding.BinaryMarshaler) error {
	bytes, err := from.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, ErrMarshal.Error())
	}
	if len(bytes) > p.Size() {
		return errors.Wrapf(customerrors.ErrOverflow, "%d bytes into %d byte block", len(bytes), p.Size())
	}
	copy(p.Bytes(), bytes)
	return nil
}

func (p *pointer) Addr() Ptr {
	return p.ptr
}

func (p *pointer) Size() int {
	return int(p.a.UsableSize(p.ptr))
}

func (p *pointer) Bytes() []byte {
	return p.a.Bytes(p.ptr)
}
