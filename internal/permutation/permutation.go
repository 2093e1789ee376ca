package permutation

// Permutation is the ordered, signed sequence of synteny blocks along one
// chromosome (reference) or contig (target).
type Permutation struct {
	Genome   string
	Seq      string // sequence/chromosome identifier
	Length   int    // bp length of the sequence
	IsTarget bool
	Blocks   []Signed
}

// HeadEnd and TailEnd return the two chromosome/contig-end endpoints of
// the permutation: the tail of its first block and the head of its last.
// Both are graph nodes that attach to an infinity node.
func (p *Permutation) HeadEnd() Endpoint { return Tail(p.Blocks[0]) }
func (p *Permutation) TailEnd() Endpoint { return Head(p.Blocks[len(p.Blocks)-1]) }

// clone returns a shallow copy with its own Blocks slice, for use by
// filters and chimera-breaking which must not mutate the source.
func (p *Permutation) clone() *Permutation {
	c := *p
	c.Blocks = append([]Signed(nil), p.Blocks...)
	return &c
}

// Container holds every permutation for a single block-size resolution,
// together with the coordinate table used to look up a block's placement
// on any genome that carries it.
type Container struct {
	Perms      []*Permutation
	Coords     map[Block]map[string]Coord // block -> genome -> coordinate
	References map[string]bool
	Targets    map[string]bool
}

// NewContainer builds an empty container scoped to the given reference and
// target genome sets.
func NewContainer(references, targets []string) *Container {
	c := &Container{
		Coords:     map[Block]map[string]Coord{},
		References: map[string]bool{},
		Targets:    map[string]bool{},
	}
	for _, r := range references {
		c.References[r] = true
	}
	for _, t := range targets {
		c.Targets[t] = true
	}
	return c
}

// AddCoord records a block's placement on one genome's sequence.
func (c *Container) AddCoord(b Block, coord Coord) {
	m, ok := c.Coords[b]
	if !ok {
		m = map[string]Coord{}
		c.Coords[b] = m
	}
	m[coord.Genome] = coord
}

// AddPermutation appends p, marking it target or reference based on the
// genome sets the container was built with.
func (c *Container) AddPermutation(p *Permutation) {
	p.IsTarget = c.Targets[p.Genome]
	c.Perms = append(c.Perms, p)
}

// TargetPerms and ReferencePerms return the permutations restricted to
// target or reference genomes, in the order they were added.
func (c *Container) TargetPerms() []*Permutation { return c.filterPerms(true) }
func (c *Container) ReferencePerms() []*Permutation { return c.filterPerms(false) }

func (c *Container) filterPerms(target bool) []*Permutation {
	out := make([]*Permutation, 0, len(c.Perms))
	for _, p := range c.Perms {
		if p.IsTarget == target {
			out = append(out, p)
		}
	}
	return out
}

// GenomesOf returns the sorted set of genome identifiers that carry block
// b, according to the coordinate table.
func (c *Container) GenomesOf(b Block) []string {
	m := c.Coords[b]
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for g := range m {
		out = append(out, g)
	}
	return SortedGenomes(boolSet(out))
}

func boolSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// clone deep-copies the permutation list and the coordinate table so that
// containers derived by filtering never alias the source, even where a
// filter (collinear-run merging) rewrites coordinate spans in place.
// chimera.Apply does not go through clone: its container shares the
// source's coordinate table.
func (c *Container) clone() *Container {
	n := &Container{
		Coords:     make(map[Block]map[string]Coord, len(c.Coords)),
		References: c.References,
		Targets:    c.Targets,
		Perms:      make([]*Permutation, len(c.Perms)),
	}
	for b, byGenome := range c.Coords {
		m := make(map[string]Coord, len(byGenome))
		for g, coord := range byGenome {
			m[g] = coord
		}
		n.Coords[b] = m
	}
	for i, p := range c.Perms {
		n.Perms[i] = p.clone()
	}
	return n
}
