package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/scaffold"
)

// minGapN is the shortest run of N bases ever written between two pieces,
// even when the estimated gap came back at or near zero.
const minGapN = 11

// WriteLinks writes the scaffolds.links table: a ">scaffold_name" line
// per scaffold (mirroring WriteFasta's header), followed by one line per
// placed contig with columns "contig_id sign start_bp end_bp
// gap_to_next". start_bp/end_bp are the contig's 0-based offsets within
// its scaffold, counting the N-run WriteFasta inserts for the gap before
// it, and gap_to_next is the estimated gap before the following piece (0
// for a scaffold's last piece). contigs keys raw target sequence by bare
// sequence identifier, the same map WriteFasta consumes, so a piece's
// length here matches the bases WriteFasta actually emits for it.
func WriteLinks(w io.Writer, scaffolds []scaffold.Scaffold, contigs map[string][]byte) error {
	bw := bufio.NewWriter(w)
	for _, s := range scaffolds {
		if _, err := fmt.Fprintf(bw, ">%s\n", s.Name); err != nil {
			return err
		}
		offset := 0
		for i, p := range s.Pieces {
			if i > 0 {
				n := p.GapBefore
				if n < minGapN {
					n = minGapN
				}
				offset += n
			}
			sign := "+"
			if p.Strand < 0 {
				sign = "-"
			}
			start := offset
			end := start + len(contigs[p.Seq])
			gapToNext := 0
			if i+1 < len(s.Pieces) {
				gapToNext = s.Pieces[i+1].GapBefore
			}
			if _, err := fmt.Fprintf(bw, "%s.%s\t%s\t%d\t%d\t%d\n", p.Genome, p.Seq, sign, start, end, gapToNext); err != nil {
				return err
			}
			offset = end
		}
	}
	return bw.Flush()
}

// WriteFasta concatenates each scaffold's contigs, reverse-complementing
// any piece placed on the opposite strand, and joins them with a run of N
// bases as long as the estimated gap (never fewer than minGapN). contigs
// keys raw target sequence by its bare sequence identifier.
func WriteFasta(w io.Writer, scaffolds []scaffold.Scaffold, contigs map[string][]byte) error {
	bw := bufio.NewWriter(w)
	for _, s := range scaffolds {
		if _, err := fmt.Fprintf(bw, ">%s\n", s.Name); err != nil {
			return err
		}
		var body []byte
		for i, p := range s.Pieces {
			if i > 0 {
				n := p.GapBefore
				if n < minGapN {
					n = minGapN
				}
				body = append(body, bytes.Repeat([]byte{'N'}, n)...)
			}
			seq := contigs[p.Seq]
			if p.Strand < 0 {
				seq = reverseComplement(seq)
			}
			body = append(body, seq...)
		}
		if err := writeWrapped(bw, body, 60); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeWrapped(w *bufio.Writer, seq []byte, width int) error {
	for i := 0; i < len(seq); i += width {
		end := i + width
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := w.Write(seq[i:end]); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

var complement = map[byte]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'N': 'N',
	'a': 't', 't': 'a', 'c': 'g', 'g': 'c', 'n': 'n',
}

func reverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		c, ok := complement[b]
		if !ok {
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return out
}

// ReadTargetFasta loads a raw target-contigs FASTA file (as located by a
// synteny.Backend's TargetFasta) into a map keyed by bare sequence
// identifier, the form WriteFasta consumes.
//
// Grounded on the teacher's bufio-based line scan (fasta.go's ReadFASTA):
// a sequential pass with no backtracking, header identifiers truncated at
// the first run of whitespace exactly as FASTASeq.ID does.
func ReadTargetFasta(path string) (map[string][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ragouterr.FastaError{Msg: "opening target fasta: " + err.Error()}
	}
	defer f.Close()
	return readFasta(f)
}

func readFasta(r io.Reader) (map[string][]byte, error) {
	seqs := map[string][]byte{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var name string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			name = strings.Fields(line[1:])[0]
			continue
		}
		if name == "" {
			return nil, &ragouterr.FastaError{Msg: "sequence data before any header"}
		}
		seqs[name] = append(seqs[name], []byte(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, &ragouterr.FastaError{Msg: "reading target fasta: " + err.Error()}
	}
	return seqs, nil
}
