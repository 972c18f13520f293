package plinkbed

import (
	"bufio"
	"io"
	"os"

	"v.io/x/lib/vlog"
)

// individualsPerTransposeBlock is the number of individuals materialised
// per outer block of the Transpose Writer (spec §4.8): P = blockSize * 4.
// It is a package constant; WriteTransposed takes no block-size argument.
const individualsPerTransposeBlock = 1024 // 256 packed bytes per SNP row, per block

// WriteTransposed reads a SNP-major packed file (one FileRecord) and writes
// an individual-major packed file to dstPath (spec §4.8): genotypes for the
// same P individuals, across every SNP, are read into memory a block at a
// time and written out as P new per-individual rows. For each block of P
// individuals every SNP block of the source is read and decoded in full, and
// the block's genotypes are held unpacked (one byte each), so memory is
// about numSNPs * P bytes plus one decoded SNP block of numSamples.
//
// Unlike the SNP-major packed format, the transposed output carries no
// magic preamble: it is intended for direct offset-addressed consumption,
// with individual n's bytes starting at n*ceil(numVariants/4) (spec §6,
// S4). The original Rust create_bed_t (plink_bed.rs) writes person rows
// directly with no header, in contrast to create_bed/create_dominance_geno_bed.
//
// Grounded on the original Rust PlinkBed transpose routine's outer loop
// over blocks of individuals; re-expressed with a bufio.Writer and
// explicit byte-offset seeks the way grailbio-bio/encoding/pam's sharded
// writers stream output in bounded chunks.
func WriteTransposed(src FileRecord, dstPath string) error {
	srcBlockSize := bytesPerBlock(src.NumSamples)

	sf, sbr, err := openBufferedFile(src.Path)
	if err != nil {
		return err
	}
	defer sf.Close() // nolint: errcheck

	df, err := os.Create(dstPath)
	if err != nil {
		return ioErr(dstPath, "create transposed output", err)
	}
	defer df.Close() // nolint: errcheck
	dbw := bufio.NewWriter(df)

	dstBlockSize := bytesPerBlock(src.NumVariants)
	numBlocks := (src.NumSamples + individualsPerTransposeBlock - 1) / individualsPerTransposeBlock

	rowCodes := make([]Genotype, src.NumSamples) // one SNP block's worth of codes, reused per SNP
	blockBuf := make([]byte, srcBlockSize)

	for blk := 0; blk < numBlocks; blk++ {
		blockStart := blk * individualsPerTransposeBlock
		blockEnd := blockStart + individualsPerTransposeBlock
		if blockEnd > src.NumSamples {
			blockEnd = src.NumSamples
		}
		p := blockEnd - blockStart
		vlog.VI(1).Infof("transpose %s: block %d/%d (%d individuals)", src.Path, blk+1, numBlocks, p)

		// codes[individualOffset][snpIndex], allocated anew for each block.
		codes := make([][]Genotype, p)
		for i := range codes {
			codes[i] = make([]Genotype, src.NumVariants)
		}

		if _, err := sf.Seek(int64(NumMagicBytes), 0); err != nil {
			return ioErr(src.Path, "seek to first SNP block", err)
		}
		sbr.Reset(sf)

		for snp := 0; snp < src.NumVariants; snp++ {
			if _, err := io.ReadFull(sbr, blockBuf); err != nil {
				return ioErr(src.Path, "read SNP block during transpose", err)
			}
			view := packedSNPView{block: blockBuf, numSamples: src.NumSamples}
			view.decodeInto(rowCodes)
			for i := 0; i < p; i++ {
				codes[i][snp] = rowCodes[blockStart+i]
			}
		}

		for i := 0; i < p; i++ {
			packed := packGenotypes(codes[i], src.NumVariants)
			if len(packed) != dstBlockSize {
				return ioErr(dstPath, "transpose block size mismatch", nil)
			}
			if _, err := dbw.Write(packed); err != nil {
				return ioErr(dstPath, "write transposed row", err)
			}
		}
	}

	if err := dbw.Flush(); err != nil {
		return ioErr(dstPath, "flush transposed output", err)
	}
	return nil
}
