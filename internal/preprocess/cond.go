package preprocess

// guard is one open ifdef/ifndef block: the block is relevant while name's
// definedness equals defined
type guard struct {
	name    string
	defined bool
	line    int
}

type condStack struct {
	guards []guard
}

func (c *condStack) depth() int { return len(c.guards) }

func (c *condStack) push(name string, defined bool, line int) {
	c.guards = append(c.guards, guard{name: name, defined: defined, line: line})
}

// flip inverts the innermost guard, used for else
func (c *condStack) flip() error {
	if len(c.guards) == 0 {
		return ErrUnbalancedConditional
	}
	top := &c.guards[len(c.guards)-1]
	top.defined = !top.defined
	return nil
}

func (c *condStack) pop() error {
	if len(c.guards) == 0 {
		return ErrUnbalancedConditional
	}
	c.guards = c.guards[:len(c.guards)-1]
	return nil
}

// relevant checks every open guard against the current macro table. It is not
// cached: a define or undef inside a block can change the outcome of guards that
// were pushed earlier.
func (c *condStack) relevant(macros *Macros) bool {
	for _, g := range c.guards {
		if macros.IsDefined(g.name) != g.defined {
			return false
		}
	}
	return true
}

func (c *condStack) unclosedLine() int {
	if len(c.guards) == 0 {
		return 0
	}
	return c.guards[len(c.guards)-1].line
}
