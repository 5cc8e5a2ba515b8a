package allocator

// Upper bounds of size classes 0..8; everything larger goes to class 9.
var classLimits = [numClasses - 1]uint32{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

func classOf(size uint32) int {
	for class, limit := range classLimits {
		if size <= limit {
			return class
		}
	}
	return numClasses - 1
}

func (a *Allocator) root(class int) uint32 {
	return a.meta.listStart + uint32(class)*wsize
}

// insert links bp into its bucket in front of the first member that is at
// least as large, keeping the chain sorted ascending.
func (a *Allocator) insert(bp uint32) {
	m := a.mem
	size := m.size(bp)
	root := a.root(classOf(size))

	above, down := uint32(0), m.get(root)
	for down != 0 && m.size(down) < size {
		above = down
		down = m.get(downp(down))
	}

	m.put(downp(bp), down)
	m.put(abovep(bp), above)
	if down != 0 {
		m.put(abovep(down), bp)
	}
	if above == 0 {
		m.put(root, bp)
	} else {
		m.put(downp(above), bp)
	}
}

// remove unlinks bp. It must run before bp's size tag changes, otherwise
// the wrong bucket head would be updated.
func (a *Allocator) remove(bp uint32) {
	m := a.mem
	root := a.root(classOf(m.size(bp)))
	above, down := m.get(abovep(bp)), m.get(downp(bp))

	if above == 0 {
		m.put(root, down)
	} else {
		m.put(downp(above), down)
	}
	if down != 0 {
		m.put(abovep(down), above)
	}
	m.clearLinks(bp)
}

// findFit scans from the request's own class upwards and returns the first
// block large enough. Chains are sorted, so within a class this is the
// smallest fitting block.
func (a *Allocator) findFit(asize uint32) uint32 {
	m := a.mem
	for class := classOf(asize); class < numClasses; class++ {
		for bp := m.get(a.root(class)); bp != 0; bp = m.get(downp(bp)) {
			if m.size(bp) >= asize {
				return bp
			}
		}
	}
	return 0
}
