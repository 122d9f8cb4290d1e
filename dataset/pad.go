package dataset

// Pad copies seqs into rows of equal width, the length of the longest
// sequence, filling the rest with pad. Rows are left-aligned unless
// alignRight is set, in which case padding goes in front. A slice of only
// empty sequences is padded to width 1.
func Pad(seqs [][]int64, pad int64, alignRight bool) (rows [][]int64, lengths []int) {
	lengths = make([]int, len(seqs))
	width := 1
	for i, s := range seqs {
		lengths[i] = len(s)
		width = max(width, len(s))
	}

	rows = make([][]int64, len(seqs))
	for i, s := range seqs {
		row := make([]int64, width)
		for j := range row {
			row[j] = pad
		}
		offset := 0
		if alignRight {
			offset = width - len(s)
		}
		copy(row[offset:], s)
		rows[i] = row
	}
	return rows, lengths
}
