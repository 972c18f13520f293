package plinkbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMaterialiseWholeFile(t *testing.T) {
	dir := t.TempDir()
	codes := [][]Genotype{{2, 0, 1}, {1, 1, 0}, {0, 2, 2}}
	path := writeTestPackedFile(t, dir, "mat.bed", 3, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 3, NumSamples: 3, Kind: Additive}})
	require.NoError(t, err)

	m, err := r.Materialise(nil)
	require.NoError(t, err)
	samples, snps := m.Dims()
	assert.Equal(t, 3, samples)
	assert.Equal(t, 3, snps)
	for j, want := range toFloatCols(codes) {
		assert.Equal(t, want, m.Col(j))
	}
}

func TestReaderAlleleFrequenciesSequentialAndParallelAgree(t *testing.T) {
	dir := t.TempDir()
	codes := make([][]Genotype, 20)
	for i := range codes {
		codes[i] = []Genotype{Genotype(i % 3), Genotype((i + 1) % 3), 0, 2}
	}
	path := writeTestPackedFile(t, dir, "freq.bed", 4, codes)
	r, err := NewReader([]FileRecord{{Path: path, NumVariants: 20, NumSamples: 4, Kind: Additive}})
	require.NoError(t, err)

	seq, err := r.AlleleFrequencies(5, nil, false)
	require.NoError(t, err)
	require.Len(t, seq, 20)

	par, err := r.AlleleFrequencies(5, nil, true)
	require.NoError(t, err)
	assert.Equal(t, seq, par)

	for i, snp := range codes {
		sum := 0
		for _, g := range snp {
			sum += int(g)
		}
		want := float64(sum) / float64(2*len(snp))
		assert.InDelta(t, want, seq[i], 1e-9)
	}
}
