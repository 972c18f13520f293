// Package plinkbed reads and writes PLINK-BED-style packed genotype files:
// SNP-major, 2-bit-per-genotype binary files covering a shared set of
// samples across one or more backing files.
//
// The central type is ColumnChunkReader, returned by Reader.ChunkIter,
// which pulls dense GenotypeMatrix chunks from an arbitrary RangeSet of the
// logical SNP axis while minimising file seeks. ParallelDriver exposes the
// same chunk sequence as a splittable producer for an external
// work-stealing executor. WriteTransposed, WriteDominanceRecoded and
// WriteMatrix cover the package's write paths.
package plinkbed
