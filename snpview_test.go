package plinkbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedSNPViewDecodeIntoFullByte(t *testing.T) {
	// codes (on-disk): 00,01,10,11 -> genotypes: 2,0,1,0
	block := []byte{0b11_10_01_00}
	v := packedSNPView{block: block, numSamples: 4}
	dst := make([]Genotype, 4)
	v.decodeInto(dst)
	assert.Equal(t, []Genotype{2, 0, 1, 0}, dst)
}

func TestPackedSNPViewDecodeIntoPartialByte(t *testing.T) {
	// 5 samples: one full byte + one byte with only slot 0 meaningful.
	block := []byte{0b11_10_01_00, 0b00_00_00_10}
	v := packedSNPView{block: block, numSamples: 5}
	dst := make([]Genotype, 5)
	v.decodeInto(dst)
	assert.Equal(t, []Genotype{2, 0, 1, 0, 1}, dst)
}

func TestPackGenotypesRoundTrip(t *testing.T) {
	codes := []Genotype{2, 0, 1, 0, 1}
	packed := packGenotypes(codes, 5)
	require.Len(t, packed, bytesPerBlock(5))

	v := packedSNPView{block: packed, numSamples: 5}
	decoded := make([]Genotype, 5)
	v.decodeInto(decoded)
	assert.Equal(t, codes, decoded)
}

func TestPackGenotypesZeroesUnusedBits(t *testing.T) {
	codes := []Genotype{2}
	packed := packGenotypes(codes, 1)
	require.Len(t, packed, 1)
	assert.Equal(t, EncodeLow2(2), packed[0])
}
