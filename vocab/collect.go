package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

const (
	scannerBufSize = 64 * 1024
	maxLineSize    = 64 * 1024 * 1024
	writerBufSize  = 1024 * 1024
)

// Counter accumulates token frequencies. Tokens remember the order in
// which they were first seen; that order breaks frequency ties.
type Counter struct {
	counts map[string]int
	order  []string
	total  int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

func (c *Counter) Add(token string) {
	if _, seen := c.counts[token]; !seen {
		c.order = append(c.order, token)
	}
	c.counts[token]++
	c.total++
}

// Count returns the frequency of token.
func (c *Counter) Count(token string) int {
	return c.counts[token]
}

// Total returns the number of tokens added.
func (c *Counter) Total() int {
	return c.total
}

// Distinct returns the number of distinct tokens.
func (c *Counter) Distinct() int {
	return len(c.order)
}

// CountReader splits every line of r on whitespace and adds each token,
// lower-cased first when lower is set. It returns the number of lines read.
func (c *Counter) CountReader(r io.Reader, lower bool) (int, error) {
	caser := lowerCaser()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scannerBufSize), maxLineSize)

	lines := 0
	for sc.Scan() {
		line := sc.Text()
		if lower {
			line = caser.String(line)
		}
		for _, tok := range strings.Fields(line) {
			c.Add(tok)
		}
		lines++
	}
	return lines, sc.Err()
}

// CountFiles counts the tokens of every file into a single Counter.
func CountFiles(paths []string, lower bool) (*Counter, error) {
	c := NewCounter()
	for _, path := range paths {
		if err := c.countFile(path, lower); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Counter) countFile(path string, lower bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open corpus %s", path)
	}
	defer f.Close()

	if _, err := c.CountReader(f, lower); err != nil {
		return errors.Wrapf(err, "read corpus %s", path)
	}
	return nil
}

// Build ranks the counted tokens. Specials take indices 0..len(specials)-1
// in the given order, repeated specials collapsed. An empty list selects
// DefaultSpecials. Corpus tokens follow by descending count, ties in
// first-seen order, and tokens equal to a special are skipped.
func Build(c *Counter, specials []string) *Vocabulary {
	if len(specials) == 0 {
		specials = DefaultSpecials()
	}
	specials = lo.Uniq(specials)
	isSpecial := lo.SliceToMap(specials, func(s string) (string, bool) { return s, true })

	entries := make([]Entry, 0, len(specials)+len(c.order))
	for i, s := range specials {
		entries = append(entries, Entry{Token: s, Index: i, Special: true})
	}

	ranked := lo.Reject(c.order, func(tok string, _ int) bool { return isSpecial[tok] })
	slices.SortStableFunc(ranked, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})

	coverage := make([]float64, len(ranked))
	for i, tok := range ranked {
		coverage[i] = float64(c.counts[tok])
	}
	floats.CumSum(coverage, coverage)
	for i := range coverage {
		// Divide, not scale: 3/5 must stay 0.6.
		coverage[i] /= float64(c.total)
	}

	for i, tok := range ranked {
		entries = append(entries, Entry{
			Token:    tok,
			Index:    len(specials) + i,
			Count:    c.counts[tok],
			Coverage: coverage[i],
		})
	}
	return newVocabulary(entries, c.total)
}

// WriteTo writes the vocabulary file format:
//
//	<token> <index>                     special tokens
//	<token> <index> <count> <coverage>  corpus tokens
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, writerBufSize)
	var n int64
	for _, e := range v.Entries {
		var (
			m   int
			err error
		)
		if e.Special {
			m, err = fmt.Fprintf(bw, "%s %d\n", e.Token, e.Index)
		} else {
			m, err = fmt.Fprintf(bw, "%s %d %d %s\n", e.Token, e.Index, e.Count, formatCoverage(e.Coverage))
		}
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// formatCoverage prints the shortest representation that round-trips,
// keeping a fractional part on integral values ("1.0").
func formatCoverage(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Options control Collect.
type Options struct {
	Lower    bool
	Specials []string
}

// Collect counts the tokens of every input file and writes the ranked
// vocabulary to out.
func Collect(paths []string, out string, opts Options) (*Vocabulary, error) {
	c, err := CountFiles(paths, opts.Lower)
	if err != nil {
		return nil, err
	}
	v := Build(c, opts.Specials)

	f, err := os.Create(out)
	if err != nil {
		return nil, errors.Wrapf(err, "create vocabulary %s", out)
	}
	if _, err := v.WriteTo(f); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "write vocabulary %s", out)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(err, "close vocabulary %s", out)
	}
	return v, nil
}
