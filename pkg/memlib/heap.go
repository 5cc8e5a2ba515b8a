package memlib

type sliceRegion struct {
	buf []byte
}

func newSliceRegion(size int) *sliceRegion {
	return &sliceRegion{buf: make([]byte, size)}
}

func (r *sliceRegion) bytes() []byte { return r.buf }
func (r *sliceRegion) sync() error   { return nil }

func (r *sliceRegion) close() error {
	r.buf = nil
	return nil
}
