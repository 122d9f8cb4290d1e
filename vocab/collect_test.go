package vocab

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func writeCorpus(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCollectWritesRankedVocabulary(t *testing.T) {
	dir := t.TempDir()
	a := writeCorpus(t, dir, "a.txt", "a b a\n")
	b := writeCorpus(t, dir, "b.txt", "b c\n")
	out := filepath.Join(dir, "vocab.txt")

	v, err := Collect([]string{a, b}, out, Options{Specials: []string{"<unk>"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if v.Total != 5 {
		t.Errorf("Total = %d, want 5", v.Total)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "<unk> 0\na 1 2 0.4\nb 2 2 0.8\nc 3 1 1.0\n"
	if string(got) != want {
		t.Errorf("vocabulary file:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSpecialsAlwaysFirst(t *testing.T) {
	c := NewCounter()
	if _, err := c.CountReader(strings.NewReader("x <unk> x\n  \n\ty x\n"), false); err != nil {
		t.Fatal(err)
	}
	v := Build(c, []string{"<blank>", "<unk>", "<blank>"})

	var lines []string
	for _, e := range v.Entries {
		lines = append(lines, fmt.Sprintf("%s %d %d", e.Token, e.Index, e.Count))
	}
	want := []string{"<blank> 0 0", "<unk> 1 0", "x 2 3", "y 3 1"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("entries = %v, want %v", lines, want)
	}

	// The skipped <unk> occurrence still counts toward the total.
	last := v.Entries[len(v.Entries)-1]
	if last.Coverage != 0.8 {
		t.Errorf("last coverage = %v, want 0.8", last.Coverage)
	}
	if got := v.Specials(); len(got) != 2 || got[0] != "<blank>" || got[1] != "<unk>" {
		t.Errorf("Specials() = %v", got)
	}
}

func TestBuildDefaultSpecials(t *testing.T) {
	v := Build(NewCounter(), nil)
	want := DefaultSpecials()
	if v.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", v.Size(), len(want))
	}
	for i, w := range want {
		if id, ok := v.Index(w); !ok || id != i {
			t.Errorf("Index(%q) = %d, %v; want %d", w, id, ok, i)
		}
	}
	if id, _ := v.Index(UnkWord); id != UNK {
		t.Errorf("UNK = %d, want %d", id, UNK)
	}

	// Callers may mutate the returned defaults freely.
	d := DefaultSpecials()
	d[0] = "changed"
	if DefaultSpecials()[0] != PadWord {
		t.Error("DefaultSpecials shares state between calls")
	}
}

func TestBuildTiesKeepFirstSeenOrder(t *testing.T) {
	c := NewCounter()
	for _, tok := range strings.Fields("z y x y z x w") {
		c.Add(tok)
	}
	v := Build(c, []string{"<unk>"})
	var order []string
	for _, e := range v.Entries[1:] {
		order = append(order, e.Token)
	}
	if got := strings.Join(order, " "); got != "z y x w" {
		t.Errorf("order = %q, want %q", got, "z y x w")
	}
}

func TestCountReaderLower(t *testing.T) {
	tests := []struct {
		lower    bool
		distinct int
	}{
		{false, 3},
		{true, 1},
	}
	for _, tt := range tests {
		c := NewCounter()
		lines, err := c.CountReader(strings.NewReader("Hello HELLO\nhello\n"), tt.lower)
		if err != nil {
			t.Fatal(err)
		}
		if lines != 2 {
			t.Errorf("lower=%v: lines = %d, want 2", tt.lower, lines)
		}
		if c.Distinct() != tt.distinct {
			t.Errorf("lower=%v: Distinct() = %d, want %d", tt.lower, c.Distinct(), tt.distinct)
		}
		if c.Total() != 3 {
			t.Errorf("lower=%v: Total() = %d, want 3", tt.lower, c.Total())
		}
	}
}

func TestCountsMatchCorpusFrequency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"the", "a", "of", "x", "y", "z", "eq", "+", "="}
	want := map[string]int{}
	var sb strings.Builder
	for line := 0; line < 200; line++ {
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			w := words[rng.Intn(len(words))]
			want[w]++
			sb.WriteString(w)
			sb.WriteString(strings.Repeat(" ", 1+rng.Intn(3)))
		}
		sb.WriteByte('\n')
	}

	c := NewCounter()
	if _, err := c.CountReader(strings.NewReader(sb.String()), false); err != nil {
		t.Fatal(err)
	}
	v := Build(c, DefaultSpecials())

	seen := map[string]bool{}
	prev := 0.0
	for _, e := range v.Entries[len(DefaultSpecials()):] {
		if seen[e.Token] {
			t.Errorf("token %q listed twice", e.Token)
		}
		seen[e.Token] = true
		if e.Count != want[e.Token] {
			t.Errorf("count(%q) = %d, want %d", e.Token, e.Count, want[e.Token])
		}
		if e.Coverage < prev {
			t.Errorf("coverage decreased at %q: %v < %v", e.Token, e.Coverage, prev)
		}
		prev = e.Coverage
	}
	if len(seen) != len(want) {
		t.Errorf("%d tokens in vocabulary, want %d", len(seen), len(want))
	}
	if math.Abs(prev-1) > 1e-12 {
		t.Errorf("final coverage = %v, want 1", prev)
	}
}

func TestCollectErrors(t *testing.T) {
	dir := t.TempDir()
	corpus := writeCorpus(t, dir, "ok.txt", "a b\n")

	_, err := Collect([]string{corpus, filepath.Join(dir, "missing.txt")}, filepath.Join(dir, "v.txt"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input: err = %v, want ErrNotExist", err)
	}

	_, err = Collect([]string{corpus}, filepath.Join(dir, "no", "such", "v.txt"), Options{})
	if err == nil {
		t.Error("unwritable output: want error")
	}
}

func TestFormatCoverage(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.4, "0.4"},
		{1, "1.0"},
		{0, "0.0"},
		{2.0 / 3.0, "0.6666666666666666"},
		{0.00001, "1e-05"},
	}
	for _, tt := range tests {
		if got := formatCoverage(tt.in); got != tt.want {
			t.Errorf("formatCoverage(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteToReportsBytes(t *testing.T) {
	c := NewCounter()
	c.Add("a")
	v := Build(c, []string{"<s>"})
	var buf bytes.Buffer
	n, err := v.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != buf.Len() || buf.String() != "<s> 0\na 1 1 1.0\n" {
		t.Errorf("WriteTo wrote %d bytes %q", n, buf.String())
	}
}
