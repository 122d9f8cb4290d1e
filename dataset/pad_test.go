package dataset

import (
	"reflect"
	"testing"
)

func TestPad(t *testing.T) {
	seqs := [][]int64{{5, 6}, {7}, {}, {1, 2, 3}}
	tests := []struct {
		name       string
		alignRight bool
		want       [][]int64
	}{
		{"left", false, [][]int64{{5, 6, 9}, {7, 9, 9}, {9, 9, 9}, {1, 2, 3}}},
		{"right", true, [][]int64{{9, 5, 6}, {9, 9, 7}, {9, 9, 9}, {1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, lengths := Pad(seqs, 9, tt.alignRight)
			if !reflect.DeepEqual(rows, tt.want) {
				t.Errorf("rows = %v, want %v", rows, tt.want)
			}
			if !reflect.DeepEqual(lengths, []int{2, 1, 0, 3}) {
				t.Errorf("lengths = %v", lengths)
			}
		})
	}
}

func TestPadAllEmpty(t *testing.T) {
	rows, lengths := Pad([][]int64{{}, {}}, 0, false)
	if !reflect.DeepEqual(rows, [][]int64{{0}, {0}}) {
		t.Errorf("rows = %v", rows)
	}
	if !reflect.DeepEqual(lengths, []int{0, 0}) {
		t.Errorf("lengths = %v", lengths)
	}
}

func TestPadDoesNotAlias(t *testing.T) {
	seqs := [][]int64{{1, 2}}
	rows, _ := Pad(seqs, 0, false)
	rows[0][0] = 99
	if seqs[0][0] != 1 {
		t.Error("Pad rows share memory with the input")
	}
}
