package plinkbed

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWriteMatrixRoundTripsThroughReader(t *testing.T) {
	dir := t.TempDir()
	// row-major (numSamples=4, numSNPs=3)
	data := []float64{
		2, 1, 0,
		0, 1, 2,
		1, 0, 2,
		0, 2, 1,
	}
	m := mat.NewDense(4, 3, data)
	dstPath := filepath.Join(dir, "built.bed")

	require.NoError(t, WriteMatrix(m, dstPath))

	r, err := NewReader([]FileRecord{{Path: dstPath, NumVariants: 3, NumSamples: 4, Kind: Additive}})
	require.NoError(t, err)

	got, err := r.Materialise(nil)
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		want := mat.Col(nil, j, m)
		assert.Equal(t, want, got.Col(j))
	}
}

func TestWriteMatrixRejectsNonGenotypeValues(t *testing.T) {
	dir := t.TempDir()
	m := mat.NewDense(2, 1, []float64{0, 3.5})
	dstPath := filepath.Join(dir, "bad.bed")
	err := WriteMatrix(m, dstPath)
	assert.Error(t, err)
}

type emptyMatrix struct{}

func (emptyMatrix) Dims() (int, int)    { return 0, 0 }
func (emptyMatrix) At(i, j int) float64 { panic("unreached") }
func (emptyMatrix) T() mat.Matrix       { return emptyMatrix{} }

func TestWriteMatrixRejectsEmptyMatrix(t *testing.T) {
	dir := t.TempDir()
	dstPath := filepath.Join(dir, "empty.bed")
	err := WriteMatrix(emptyMatrix{}, dstPath)
	assert.Error(t, err)
}
