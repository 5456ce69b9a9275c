package coerce

// DefaultMaxDepth is the nesting depth at which RecursionGuard aborts.
const DefaultMaxDepth = 512

// RecursionGuard tracks the containers currently being walked. Entering a
// container that is already on the walk, or nesting deeper than MaxDepth, is
// a fatal condition. A guard belongs to a single validation call and is not
// safe for concurrent use.
type RecursionGuard struct {
	MaxDepth int

	depth  int
	active map[identityKey]struct{}
}

// Enter records that the walk descends into in. Every successful Enter must
// be paired with Leave.
func (g *RecursionGuard) Enter(in Input) error {
	limit := g.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if g.depth >= limit {
		return &FatalError{Err: ErrDepthExceeded}
	}
	if ci, ok := in.(containerIdentity); ok {
		if key, ok := ci.identity(); ok {
			if _, seen := g.active[key]; seen {
				return &FatalError{Err: ErrRecursionLoop}
			}
			if g.active == nil {
				g.active = make(map[identityKey]struct{})
			}
			g.active[key] = struct{}{}
		}
	}
	g.depth++
	return nil
}

// Leave undoes the matching Enter.
func (g *RecursionGuard) Leave(in Input) {
	g.depth--
	if ci, ok := in.(containerIdentity); ok {
		if key, ok := ci.identity(); ok {
			delete(g.active, key)
		}
	}
}

// Depth returns the current nesting depth.
func (g *RecursionGuard) Depth() int { return g.depth }
