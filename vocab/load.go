package vocab

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Load reads a vocabulary file written by Collect.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open vocabulary %s", path)
	}
	defer f.Close()

	v, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "vocabulary %s", path)
	}
	return v, nil
}

// Read parses the vocabulary format. Two-field lines are special tokens;
// four-field lines carry count and coverage. Indices must be sequential
// from zero. Total becomes the sum of the corpus counts, since occurrences
// of special tokens are not recorded in the file.
func Read(r io.Reader) (*Vocabulary, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scannerBufSize), maxLineSize)

	var (
		entries []Entry
		total   int
	)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		e, err := parseEntry(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if e.Index != len(entries) {
			return nil, errors.Errorf("line %d: index %d out of sequence, want %d", lineNo, e.Index, len(entries))
		}
		total += e.Count
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return newVocabulary(entries, total), nil
}

func parseEntry(fields []string) (Entry, error) {
	switch len(fields) {
	case 2, 4:
	default:
		return Entry{}, errors.Errorf("want 2 or 4 fields, got %d", len(fields))
	}

	idx, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entry{}, errors.Wrap(err, "index")
	}
	e := Entry{Token: fields[0], Index: idx}
	if len(fields) == 2 {
		e.Special = true
		return e, nil
	}

	if e.Count, err = strconv.Atoi(fields[2]); err != nil {
		return Entry{}, errors.Wrap(err, "count")
	}
	if e.Coverage, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return Entry{}, errors.Wrap(err, "coverage")
	}
	return e, nil
}
