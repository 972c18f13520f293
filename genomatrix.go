package plinkbed

import "gonum.org/v1/gonum/mat"

// GenotypeMatrix is the dense, real-valued matrix returned by a chunk pull
// (spec §3): shape (numSamples, numSNPs), column-major (column stride 1 on
// the row axis, SNP stride numSamples), so that SNP columns can be appended
// back-to-back as contiguous runs.
//
// It is built as a row-major *mat.Dense of shape (numSNPs, numSamples) --
// the natural layout for appending one SNP row at a time -- and exposed
// through its zero-copy transposed view, which has exactly the required
// shape and strides. This is the "dense-matrix math library used as a
// destination container with a known shape/stride constructor" that spec
// §1 treats as an external collaborator.
type GenotypeMatrix struct {
	raw  *mat.Dense // shape (numSNPs, numSamples)
	view mat.Matrix // raw.T(), shape (numSamples, numSNPs)
}

func newGenotypeMatrix(raw *mat.Dense) *GenotypeMatrix {
	return &GenotypeMatrix{raw: raw, view: raw.T()}
}

// Dims returns (numSamples, numSNPs).
func (m *GenotypeMatrix) Dims() (rows, cols int) { return m.view.Dims() }

// At returns the genotype (or dominance) value for individual i, SNP j.
func (m *GenotypeMatrix) At(i, j int) float64 { return m.view.At(i, j) }

// T returns the transpose, satisfying gonum's mat.Matrix interface.
func (m *GenotypeMatrix) T() mat.Matrix { return m.raw }

// Col returns the contiguous backing slice for SNP column j, of length
// numSamples. Mutating it mutates the matrix.
func (m *GenotypeMatrix) Col(j int) []float64 { return m.raw.RawRowView(j) }

// NumSamples returns the row count.
func (m *GenotypeMatrix) NumSamples() int { r, _ := m.Dims(); return r }

// NumSNPs returns the column count.
func (m *GenotypeMatrix) NumSNPs() int { _, c := m.Dims(); return c }

// genoMatrixBuilder accumulates SNP columns (one per decoded SNP) into a
// single contiguous buffer, then produces a GenotypeMatrix without copying
// (spec §3: "this lets the reader append per-SNP columns back-to-back").
type genoMatrixBuilder struct {
	numSamples int
	buf        []float64
	cols       int
}

func newGenoMatrixBuilder(numSamples, capCols int) *genoMatrixBuilder {
	return &genoMatrixBuilder{
		numSamples: numSamples,
		buf:        make([]float64, 0, numSamples*capCols),
	}
}

// nextColumn grows buf by one SNP column's worth of samples and returns a
// slice view over the newly-appended region for the caller to fill in.
func (b *genoMatrixBuilder) nextColumn() []float64 {
	start := len(b.buf)
	b.buf = b.buf[:start+b.numSamples]
	b.cols++
	return b.buf[start : start+b.numSamples]
}

func (b *genoMatrixBuilder) finish() *GenotypeMatrix {
	raw := mat.NewDense(b.cols, b.numSamples, b.buf[:b.cols*b.numSamples])
	return newGenotypeMatrix(raw)
}
