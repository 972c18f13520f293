package plinkbed

import (
	"github.com/vantage-genomics/plinkbed/rangeset"
)

// defaultMaterialiseChunk is the chunk size used internally by Materialise
// and AlleleFrequencies when the caller has no reason to care about chunk
// granularity; it only affects memory/IO batching, never the result.
const defaultMaterialiseChunk = 256

// Materialise reads every SNP in rng (or the whole file set, if rng is
// nil) into a single in-memory GenotypeMatrix (spec §4.10). It is built by
// pulling sequential chunks and concatenating their columns, so memory use
// is bounded by the requested range rather than by chunk size.
func (r *Reader) Materialise(rng *rangeset.RangeSet) (*GenotypeMatrix, error) {
	effective := rangeset.Full(r.totalSNPs)
	if rng != nil {
		effective = *rng
	}
	it, err := r.ChunkIter(defaultMaterialiseChunk, &effective)
	if err != nil {
		return nil, err
	}
	defer it.Close() // nolint: errcheck

	var mats []*GenotypeMatrix
	for {
		m, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		mats = append(mats, m)
	}
	return concatGenotypeMatrices(mats, r.numSamples, effective.Len()), nil
}

func concatGenotypeMatrices(mats []*GenotypeMatrix, numSamples, totalCols int) *GenotypeMatrix {
	builder := newGenoMatrixBuilder(numSamples, totalCols)
	for _, m := range mats {
		_, cols := m.Dims()
		for j := 0; j < cols; j++ {
			copy(builder.nextColumn(), m.Col(j))
		}
	}
	return builder.finish()
}

// AlleleFrequencies returns, for each SNP in rng (or the whole file set,
// if rng is nil), sum(column) / (2 * numSamples) -- the allele frequency
// for additive-coded SNPs (spec §4.10). When parallel is true, the range is
// sharded across runtime.NumCPU()*4 ParallelDrivers and driven concurrently
// with traverse.Each; the result order always matches rng's ascending
// order regardless of how work was sharded.
func (r *Reader) AlleleFrequencies(k int, rng *rangeset.RangeSet, parallel bool) ([]float64, error) {
	if k <= 0 {
		k = defaultMaterialiseChunk
	}
	driver, err := r.NewParallelDriver(k, rng)
	if err != nil {
		return nil, err
	}

	shards := []*ParallelDriver{driver}
	if parallel {
		shards = driver.splitInto(defaultShardCount())
	}

	partials, err := driveAllOrdered(shards, func(d *ParallelDriver) (interface{}, error) {
		freqs := make([]float64, 0, d.rng.Len())
		err := d.Drive(func(m *GenotypeMatrix) error {
			_, cols := m.Dims()
			for j := 0; j < cols; j++ {
				freqs = append(freqs, alleleFrequency2(m.Col(j), m.NumSamples()))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return freqs, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, driver.rng.Len())
	for _, p := range partials {
		out = append(out, p.([]float64)...)
	}
	return out, nil
}

// alleleFrequency2 computes sum(col)/(2*numSamples) for an already-decoded
// float64 column, as used by AlleleFrequencies. Distinct from the
// genotype-code alleleFrequency helper in reader.go, which operates on raw
// Genotype codes during dominance decoding.
func alleleFrequency2(col []float64, numSamples int) float64 {
	var sum float64
	for _, v := range col {
		sum += v
	}
	return sum / (2 * float64(numSamples))
}
