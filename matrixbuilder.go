package plinkbed

import (
	"bufio"
	"os"

	"gonum.org/v1/gonum/mat"

	"v.io/x/lib/vlog"
)

// WriteMatrix writes a new packed file at dstPath from an arbitrary
// gonum mat.Matrix of shape (numSamples, numSNPs) (spec §4.7: Matrix
// Builder). Each entry must lie within 1e-6 of 0, 1 or 2 and is taken as
// that genotype (see roundToGenotype); any other value is rejected, since
// the packed format has no representation for it beyond the dedicated
// missing code. This is the
// inverse of Reader.Materialise: round-tripping a GenotypeMatrix through
// WriteMatrix and back through NewReader+Materialise recovers the same
// additive codes (P5).
//
// Grounded on gonum.org/v1/gonum/mat's Matrix interface, the same
// shape/stride contract other_examples/arvados-lightning uses to accept an
// externally-built dense matrix as input.
func WriteMatrix(m mat.Matrix, dstPath string) error {
	numSamples, numSNPs := m.Dims()
	if numSamples <= 0 || numSNPs <= 0 {
		return invalidArg("matrix must be non-empty, got %dx%d", numSamples, numSNPs)
	}

	f, err := os.Create(dstPath)
	if err != nil {
		return ioErr(dstPath, "create matrix output", err)
	}
	defer f.Close() // nolint: errcheck
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(MagicBytes[:]); err != nil {
		return ioErr(dstPath, "write magic bytes", err)
	}

	codes := make([]Genotype, numSamples)
	for j := 0; j < numSNPs; j++ {
		for i := 0; i < numSamples; i++ {
			v := m.At(i, j)
			g, ok := roundToGenotype(v)
			if !ok {
				return invalidArg("matrix entry (%d,%d)=%v is not a valid genotype in {0,1,2}", i, j, v)
			}
			codes[i] = g
		}
		packed := packGenotypes(codes, numSamples)
		if _, err := bw.Write(packed); err != nil {
			return ioErr(dstPath, "write SNP block", err)
		}
		if j%512 == 0 {
			vlog.VI(1).Infof("matrix builder %s: %d/%d SNPs", dstPath, j, numSNPs)
		}
	}

	if err := bw.Flush(); err != nil {
		return ioErr(dstPath, "flush matrix output", err)
	}
	return nil
}

// roundToGenotype accepts values within 1e-6 of an integer in {0,1,2},
// tolerating the floating point error a caller's upstream computation may
// have introduced.
func roundToGenotype(v float64) (Genotype, bool) {
	const eps = 1e-6
	r := int(v + 0.5)
	if r < 0 || r > 2 {
		return 0, false
	}
	if diff := v - float64(r); diff < -eps || diff > eps {
		return 0, false
	}
	return Genotype(r), true
}
