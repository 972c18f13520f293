package plinkbed

import (
	"bufio"
	"io"
	"os"

	"v.io/x/lib/vlog"
)

// dominanceWriterChunk is the number of SNPs between progress log lines of
// the Dominance Writer. SNP blocks are re-coded one at a time.
const dominanceWriterChunk = 512

// WriteDominanceRecoded reads an additive-coded packed file and writes a
// new packed file with the same shape whose codes have been remapped under
// dominanceRemap ({2->1, 1->1, 0->0}), with the missing code copied over
// unchanged (spec §4.9). Unlike the dominance
// transform applied at read time by ColumnChunkReader (a real-valued
// per-column rescaling), this operates entirely on packed 2-bit codes and
// never decodes to float64.
func WriteDominanceRecoded(src FileRecord, dstPath string) error {
	blockSize := bytesPerBlock(src.NumSamples)

	sf, sbr, err := openBufferedFile(src.Path)
	if err != nil {
		return err
	}
	defer sf.Close() // nolint: errcheck
	if _, err := sf.Seek(int64(NumMagicBytes), 0); err != nil {
		return ioErr(src.Path, "seek past magic bytes", err)
	}
	sbr.Reset(sf)

	df, err := os.Create(dstPath)
	if err != nil {
		return ioErr(dstPath, "create dominance-recoded output", err)
	}
	defer df.Close() // nolint: errcheck
	dbw := bufio.NewWriter(df)
	if _, err := dbw.Write(MagicBytes[:]); err != nil {
		return ioErr(dstPath, "write magic bytes", err)
	}

	codes := make([]Genotype, src.NumSamples)
	block := make([]byte, blockSize)

	for snp := 0; snp < src.NumVariants; snp++ {
		if _, err := io.ReadFull(sbr, block); err != nil {
			return ioErr(src.Path, "read SNP block", err)
		}
		view := packedSNPView{block: block, numSamples: src.NumSamples}
		view.decodeInto(codes)
		for i, g := range codes {
			codes[i] = dominanceRemap(g)
		}
		packed := packGenotypes(codes, src.NumSamples)
		// DecodeLow2 folds the missing code (0b01) to 0; carry it over from
		// the source block.
		for i := 0; i < src.NumSamples; i++ {
			slot := i % NumIndividualsPerByte
			if CodeAt(block[i/NumIndividualsPerByte], slot) == 0b01 {
				packed[i/NumIndividualsPerByte] ^= (EncodeLow2(Missing) ^ 0b01) << uint(2*slot)
			}
		}
		if _, err := dbw.Write(packed); err != nil {
			return ioErr(dstPath, "write recoded SNP block", err)
		}
		if snp%dominanceWriterChunk == 0 {
			vlog.VI(1).Infof("dominance recode %s: %d/%d SNPs", src.Path, snp, src.NumVariants)
		}
	}

	if err := dbw.Flush(); err != nil {
		return ioErr(dstPath, "flush dominance-recoded output", err)
	}
	return nil
}
