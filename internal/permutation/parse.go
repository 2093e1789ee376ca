package permutation

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

// ParseFile reads a permutations file as emitted by the external synteny
// backend (one ">genome.sequence" stanza per sequence, a "$"-terminated
// run of signed block ids, followed by the block coordinate table) and
// builds a Container scoped to references/targets.
//
// Grounded on the teacher's bufio-based FASTA reader (fasta.go): a
// sequential, line-oriented scan with no backtracking.
func ParseFile(r io.Reader, references, targets []string) (*Container, error) {
	c := NewContainer(references, targets)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var cur *Permutation
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if cur != nil {
				return nil, &ragouterr.PermutationError{Msg: "stanza for " + cur.Genome + "." + cur.Seq + " missing terminating $"}
			}
			genome, seq, err := splitHeader(line)
			if err != nil {
				return nil, err
			}
			cur = &Permutation{Genome: genome, Seq: seq}
			continue
		}
		if cur != nil {
			blocks, terminated, err := parseBlockLine(line)
			if err != nil {
				return nil, err
			}
			if !terminated {
				return nil, &ragouterr.PermutationError{Msg: "stanza for " + cur.Genome + "." + cur.Seq + " missing terminating $"}
			}
			cur.Blocks = blocks
			c.AddPermutation(cur)
			cur = nil
			continue
		}
		if err := parseCoordLine(c, line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading permutations file")
	}
	if cur != nil {
		return nil, &ragouterr.PermutationError{Msg: "stanza for " + cur.Genome + "." + cur.Seq + " missing terminating $"}
	}
	if err := c.validateCoords(); err != nil {
		return nil, err
	}
	return c, nil
}

func splitHeader(line string) (genome, seq string, err error) {
	name := strings.TrimPrefix(line, ">")
	dot := strings.IndexByte(name, '.')
	if dot < 0 {
		return "", "", &ragouterr.PermutationError{Msg: "malformed header, expected genome.sequence: " + line}
	}
	return name[:dot], name[dot+1:], nil
}

func parseBlockLine(line string) (blocks []Signed, terminated bool, err error) {
	fields := strings.Fields(line)
	for _, f := range fields {
		if f == "$" {
			return blocks, true, nil
		}
		n, convErr := strconv.Atoi(f)
		if convErr != nil {
			return nil, false, &ragouterr.PermutationError{Msg: "non-integer block token: " + f}
		}
		if n == 0 {
			return nil, false, &ragouterr.PermutationError{Msg: "block id 0 is not allowed"}
		}
		blocks = append(blocks, Signed(n))
	}
	return blocks, false, nil
}

func parseCoordLine(c *Container, line string) error {
	f := strings.Fields(line)
	if len(f) != 6 {
		return &ragouterr.PermutationError{Msg: "malformed coordinate line: " + line}
	}
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return &ragouterr.PermutationError{Msg: "bad block id in coordinate table: " + f[0]}
	}
	start, err := strconv.Atoi(f[3])
	if err != nil {
		return &ragouterr.PermutationError{Msg: "bad start in coordinate table: " + f[3]}
	}
	end, err := strconv.Atoi(f[4])
	if err != nil {
		return &ragouterr.PermutationError{Msg: "bad end in coordinate table: " + f[4]}
	}
	strand := 1
	if f[5] == "-" || f[5] == "-1" {
		strand = -1
	}
	c.AddCoord(Block(id), Coord{Genome: f[1], Seq: f[2], Start: start, End: end, Strand: strand})
	return nil
}

// validateCoords asserts the invariant that every block id appearing in a
// permutation also has a coordinate entry for that permutation's genome;
// disagreement here is a corrupt-file condition (PermutationError), not a
// filterable one.
func (c *Container) validateCoords() error {
	for _, p := range c.Perms {
		for _, s := range p.Blocks {
			byGenome, ok := c.Coords[s.Block()]
			if !ok {
				return &ragouterr.PermutationError{Msg: "block has no coordinate entry at all: " + strconv.Itoa(int(s.Block()))}
			}
			if _, ok := byGenome[p.Genome]; !ok {
				return &ragouterr.PermutationError{
					Msg: "block " + strconv.Itoa(int(s.Block())) + " appears in " + p.Genome + "." + p.Seq + " but has no coordinate entry for that genome",
				}
			}
		}
	}
	return nil
}
