package plinkbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-genomics/plinkbed/rangeset"
)

func collectAllForward(t *testing.T, it *ColumnChunkReader) [][]float64 {
	t.Helper()
	var cols [][]float64
	for {
		m, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, c := m.Dims()
		for j := 0; j < c; j++ {
			col := append([]float64(nil), m.Col(j)...)
			cols = append(cols, col)
		}
	}
	return cols
}

func toFloatCols(codes [][]Genotype) [][]float64 {
	out := make([][]float64, len(codes))
	for i, snp := range codes {
		col := make([]float64, len(snp))
		for j, g := range snp {
			col[j] = float64(g)
		}
		out[i] = col
	}
	return out
}

func TestReaderSingleFileSequentialRead(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0, 1, 0}, {1, 1, 0, 2}, {0, 0, 0, 0}, {2, 2, 2, 2}, {1, 0, 1, 0}}
	path := writeTestPackedFile(t, dir, "single.bed", 4, codes)

	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 5, NumSamples: 4, Kind: Additive}})
	require.NoError(t, err)
	assert.Equal(t, 5, r.TotalSNPCount())
	assert.Equal(t, 4, r.SampleCount())

	it, err := r.ChunkIter(2, nil)
	require.NoError(t, err)
	defer it.Close()

	got := collectAllForward(t, it)
	assert.Equal(t, toFloatCols(codes), got)
}

func TestReaderMultiFileConcatenationWithDominance(t *testing.T) {
	dir := t.TempDir()
	additiveCodes := [][]Genotype{{2, 0, 1, 0}, {1, 1, 0, 2}}
	dominanceCodes := [][]Genotype{{2, 2, 1, 0}}
	p1 := writeTestPackedFile(t, dir, "additive.bed", 4, additiveCodes)
	p2 := writeTestPackedFile(t, dir, "dominance.bed", 4, dominanceCodes)

	r, err := NewReader([]FileRecord{
		{Path: p1, NumVariants: 2, NumSamples: 4, Kind: Additive},
		{Path: p2, NumVariants: 1, NumSamples: 4, Kind: Dominance},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, r.TotalSNPCount())

	it, err := r.ChunkIter(10, nil)
	require.NoError(t, err)
	defer it.Close()

	got := collectAllForward(t, it)
	require.Len(t, got, 3)
	assert.Equal(t, toFloatCols(additiveCodes)[0], got[0])
	assert.Equal(t, toFloatCols(additiveCodes)[1], got[1])

	p := alleleFrequency(dominanceCodes[0])
	want := make([]float64, 4)
	for i, g := range dominanceCodes[0] {
		want[i] = dominanceTransform(g, p)
	}
	assert.Equal(t, want, got[2])
}

func TestReaderRangeRestriction(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0}, {1, 1}, {0, 0}, {2, 2}, {1, 0}}
	path := writeTestPackedFile(t, dir, "restricted.bed", 2, codes)

	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 5, NumSamples: 2, Kind: Additive}})
	require.NoError(t, err)

	rng, err := rangeset.New([]rangeset.Interval{{Start: 1, End: 2}, {Start: 3, End: 5}})
	require.NoError(t, err)

	it, err := r.ChunkIter(2, &rng)
	require.NoError(t, err)
	defer it.Close()

	got := collectAllForward(t, it)
	want := [][]float64{toFloatCols(codes)[1], toFloatCols(codes)[3], toFloatCols(codes)[4]}
	assert.Equal(t, want, got)
}

func TestReaderChunkIterRejectsOutOfRangeIndex(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPackedFile(t, dir, "small.bed", 2, [][]Genotype{{2, 0}})
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 1, NumSamples: 2, Kind: Additive}})
	require.NoError(t, err)

	rng, err := rangeset.New([]rangeset.Interval{{Start: 0, End: 5}})
	require.NoError(t, err)
	_, err = r.ChunkIter(1, &rng)
	assert.Error(t, err)
}

func TestReaderChunkIterRejectsZeroK(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPackedFile(t, dir, "small.bed", 2, [][]Genotype{{2, 0}})
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 1, NumSamples: 2, Kind: Additive}})
	require.NoError(t, err)

	_, err = r.ChunkIter(0, nil)
	assert.Error(t, err)
}

func TestColumnChunkReaderForwardBackwardCoverSetExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	codes := make([][]Genotype, 9)
	for i := range codes {
		codes[i] = []Genotype{Genotype(i % 3), 0, 1, 2}
	}
	path := writeTestPackedFile(t, dir, "fb.bed", 4, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 9, NumSamples: 4, Kind: Additive}})
	require.NoError(t, err)

	it, err := r.ChunkIter(2, nil)
	require.NoError(t, err)
	defer it.Close()

	var front, back [][]float64
	forward := true
	for it.Len() > 0 {
		if forward {
			m, ok, err := it.Next()
			require.NoError(t, err)
			require.True(t, ok)
			_, c := m.Dims()
			for j := 0; j < c; j++ {
				front = append(front, append([]float64(nil), m.Col(j)...))
			}
		} else {
			m, ok, err := it.NextBack()
			require.NoError(t, err)
			require.True(t, ok)
			_, c := m.Dims()
			for j := c - 1; j >= 0; j-- {
				back = append([][]float64{append([]float64(nil), m.Col(j)...)}, back...)
			}
		}
		forward = !forward
	}

	all := append(front, back...)
	require.Len(t, all, 9)
	assert.Equal(t, toFloatCols(codes), all)
}

func TestColumnChunkReaderCloneWithRangeUsesIndependentHandles(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0}, {1, 1}, {0, 0}, {2, 2}}
	path := writeTestPackedFile(t, dir, "clone.bed", 2, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 4, NumSamples: 2, Kind: Additive}})
	require.NoError(t, err)

	it, err := r.ChunkIter(4, nil)
	require.NoError(t, err)
	defer it.Close()

	secondHalf, err := rangeset.New([]rangeset.Interval{{Start: 2, End: 4}})
	require.NoError(t, err)
	clone, err := it.CloneWithRange(secondHalf)
	require.NoError(t, err)
	defer clone.Close()

	gotOriginal := collectAllForward(t, it)
	assert.Equal(t, toFloatCols(codes), gotOriginal)

	gotClone := collectAllForward(t, clone)
	assert.Equal(t, toFloatCols(codes)[2:], gotClone)
}

func TestColumnChunkReaderCloneWithRangeRejectsIndexOutsideParentRange(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0}, {1, 1}, {0, 0}, {2, 2}}
	path := writeTestPackedFile(t, dir, "clone_bad.bed", 2, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 4, NumSamples: 2, Kind: Additive}})
	require.NoError(t, err)

	restricted, err := rangeset.New([]rangeset.Interval{{Start: 0, End: 2}})
	require.NoError(t, err)
	it, err := r.ChunkIter(4, &restricted)
	require.NoError(t, err)
	defer it.Close()

	outsideParent, err := rangeset.New([]rangeset.Interval{{Start: 2, End: 4}})
	require.NoError(t, err)
	_, err = it.CloneWithRange(outsideParent)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 2, rangeErr.Index)
}

func TestReaderByteWindowReadsRawBytes(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0, 1, 0}}
	path := writeTestPackedFile(t, dir, "bw.bed", 4, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 1, NumSamples: 4, Kind: Additive}})
	require.NoError(t, err)

	bw, err := r.ByteWindow(0, 0, NumMagicBytes, 3)
	require.NoError(t, err)
	defer bw.Close()

	chunk, ok, err := bw.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MagicBytes[:], chunk)
}
