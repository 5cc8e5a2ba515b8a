package allocator

import (
	"encoding"
	"fmt"

	"github.com/pkg/errors"
)

type binaryMarshalerUnmarshaler interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Wrap gives typed access to a payload. Codec failures panic, so it suits
// values whose encoding is known to fit the block.
func Wrap[T any, U bmu[T]](ptr Pointable) WrappedPointable[T, U] {
	return &pointerWrapper[T, U]{ptr}
}

type bmu[T any] interface {
	*T
	binaryMarshalerUnmarshaler
}

type WrappedPointable[T any, U bmu[T]] interface {
	Get() U
	Set(val U)
	Addr() Ptr
}

type pointerWrapper[T any, U bmu[T]] struct {
	ptr Pointable
}

func (p *pointerWrapper[T, U]) Get() U {
	var t T
	itm := U(&t)
	if err := p.ptr.Get(itm); err != nil {
		panic(errors.Wrap(err, ErrUnmarshal.Error()))
	}
	return itm
}

func (p *pointerWrapper[T, U]) Set(itm U) {
	if err := p.ptr.Set(itm); err != nil {
		panic(errors.Wrap(err, ErrMarshal.Error()))
	}
}

func (p *pointerWrapper[T, U]) Addr() Ptr {
	return p.ptr.Addr()
}

func (p *pointerWrapper[T, U]) Format(f fmt.State, c rune) {
	f.Write([]byte(fmt.Sprintf("{ptr:'%v', size:'%v'}", uint32(p.ptr.Addr()), p.ptr.Size())))
}
