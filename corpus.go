package main

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/TimAnthonyAlexander/s2sprep/vocab"
)

const maxLineSize = 64 * 1024 * 1024

// streamReader turns one token-per-line corpus into index sequences.
type streamReader struct {
	vocab *vocab.Vocabulary
	lower bool
	// wrap surrounds every sequence with <s> ... </s> when the vocabulary
	// has both.
	wrap bool
}

// readStream reads path with r. An empty path yields a nil stream.
func (r streamReader) readStream(path string) ([][]int64, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	seqs, err := r.read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return seqs, nil
}

func (r streamReader) read(in io.Reader) ([][]int64, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var seqs [][]int64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		ids, err := r.encodeLine(sc.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		seqs = append(seqs, ids)
	}
	return seqs, sc.Err()
}

func (r streamReader) encodeLine(line string) ([]int64, error) {
	tokens := strings.Fields(line)
	if r.vocab == nil {
		ids := make([]int64, len(tokens))
		for i, tok := range tokens {
			id, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		return ids, nil
	}

	ids, err := r.vocab.Encode(tokens, r.lower)
	if err != nil {
		return nil, err
	}
	if !r.wrap {
		return ids, nil
	}
	bos, hasBos := r.vocab.Index(vocab.BosWord)
	eos, hasEos := r.vocab.Index(vocab.EosWord)
	if !hasBos || !hasEos {
		return ids, nil
	}
	wrapped := make([]int64, 0, len(ids)+2)
	wrapped = append(wrapped, int64(bos))
	wrapped = append(wrapped, ids...)
	return append(wrapped, int64(eos)), nil
}

// loadVocab loads path, or returns nil for an empty path.
func loadVocab(path string) (*vocab.Vocabulary, error) {
	if path == "" {
		return nil, nil
	}
	return vocab.Load(path)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
