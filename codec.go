package plinkbed

// Genotype is a decoded, additive-coded genotype value in {0, 1, 2}. The
// on-disk "missing" code (0b01) decodes to 0 (spec §3); callers that need to
// distinguish missing from homozygous-reference must do so before decoding.
type Genotype = uint8

// Missing is the decoded value produced by the on-disk missing code
// (0b01). It is numerically indistinguishable from a homozygous-reference
// call (genotype 0); this folding is intentional (spec §9).
const Missing Genotype = 0

// NumIndividualsPerByte is the number of packed 2-bit genotype codes stored
// per byte.
const NumIndividualsPerByte = 4

// bytesPerBlock returns ceil(numSamples / 4), the size in bytes of one SNP
// block (spec §3).
func bytesPerBlock(numSamples int) int {
	return (numSamples + NumIndividualsPerByte - 1) / NumIndividualsPerByte
}

// CodeAt extracts the 2-bit code at slot p in {0,1,2,3} of b.
func CodeAt(b byte, p int) byte {
	return (b >> uint(2*p)) & 0b11
}

// DecodeLow2 maps a 2-bit on-disk code to an additive genotype value, using
// the branch-free identity from spec §3:
//
//	genotype = ((a|b) XOR 1) << 1 | (a AND NOT b)
//
// where a is the high bit and b is the low bit of code.
func DecodeLow2(code byte) Genotype {
	a := (code >> 1) & 1
	b := code & 1
	high := ((a | b) ^ 1) << 1
	low := a & (b ^ 1)
	return Genotype(high | low)
}

// EncodeLow2 maps an additive genotype value in {0,1,2} to its 2-bit on-disk
// code, the inverse of DecodeLow2 restricted to {0,1,2} (spec §3):
//
//	not_a = (g>>1)^1; not_b = (g&1)^1
//	code  = (not_a<<1) | (not_b & not_a)
func EncodeLow2(g Genotype) byte {
	notA := (g>>1)&1 ^ 1
	notB := g&1 ^ 1
	return byte((notA << 1) | (notB & notA))
}

// dominanceTransform maps a decoded additive genotype and a per-column
// allele frequency p to its dominance-coded real value (spec §3):
//
//	g=2 -> 4p-2; g=1 -> 2p; g=0 -> 0
func dominanceTransform(g Genotype, p float64) float64 {
	switch g {
	case 2:
		return 4*p - 2
	case 1:
		return 2 * p
	default:
		return 0
	}
}

// dominanceRemap applies the packed-code remapping used by the Dominance
// Writer (spec §4.9): {2->1, 1->1, 0->0}, with missing (folded to 0 by
// DecodeLow2) left as 0.
func dominanceRemap(g Genotype) Genotype {
	if g == 2 {
		return 1
	}
	return g
}
