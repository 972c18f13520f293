package plinkbed

import (
	"bufio"
	"io"
	"os"

	baseerrors "github.com/grailbio/base/errors"
	"v.io/x/lib/vlog"

	"github.com/vantage-genomics/plinkbed/rangeset"
)

// Reader is the top-level handle returned by NewReader (spec §6:
// build_reader). It is cheap: it validates FileRecords and resolves the
// global SNP index but opens no file handles of its own. Per-iteration
// file handles belong to the ColumnChunkReaders it creates.
type Reader struct {
	records    []FileRecord
	index      fileIndex
	numSamples int
	totalSNPs  int
}

// NewReader validates records (spec §4.11: non-empty list, existing paths
// beginning with the magic preamble, positive NumVariants, a single
// positive NumSamples shared by every record) and returns a Reader, or a
// typed error naming the failing path and reason.
func NewReader(records []FileRecord) (*Reader, error) {
	numSamples, err := validateRecords(records)
	if err != nil {
		return nil, err
	}
	logSummary(records, numSamples)
	idx := newFileIndex(records)
	return &Reader{
		records:    records,
		index:      idx,
		numSamples: numSamples,
		totalSNPs:  idx.total(),
	}, nil
}

// TotalSNPCount returns the size of the logical SNP axis, sum of each
// FileRecord's NumVariants.
func (r *Reader) TotalSNPCount() int { return r.totalSNPs }

// SampleCount returns the (shared) number of individuals.
func (r *Reader) SampleCount() int { return r.numSamples }

// ByteWindow opens a fresh handle on the fileIdx'th backing file and
// returns a ByteChunkReader over its raw bytes in [start, end) (spec §4.4,
// §6). It is the low-level escape hatch for callers that want to copy or
// checksum a packed file's bytes directly, bypassing the SNP codec
// entirely. The Transpose Writer does not use ByteChunkReader; it reads SNP
// blocks through its own buffered stream.
func (r *Reader) ByteWindow(fileIdx int, start, end int64, chunkSize int) (*ByteChunkReader, error) {
	if fileIdx < 0 || fileIdx >= len(r.records) {
		return nil, invalidArg("file index %d is out of range [0, %d)", fileIdx, len(r.records))
	}
	path := r.records[fileIdx].Path
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr(path, "open for byte window", err)
	}
	bcr, err := NewByteChunkReader(f, path, start, end, chunkSize)
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, err
	}
	return bcr, nil
}

// fileStream is one backing file's buffered, seekable read state, owned by
// exactly one ColumnChunkReader (spec §5: "one buffered reader per (file,
// reader-instance); never shared across threads").
type fileStream struct {
	path string
	f    *os.File
	br   *bufio.Reader
}

func openFileStream(path string) (*fileStream, error) {
	f, br, err := openBufferedFile(path)
	if err != nil {
		return nil, err
	}
	return &fileStream{path: path, f: f, br: br}, nil
}

// seekToBlockStart positions the stream at the first byte of SNP block
// "local" (byte offset NumMagicBytes + local*blockSize), discarding any
// buffered read-ahead (spec: "reopening or absolute-seeking... discards the
// read-ahead buffer").
func (fs *fileStream) seekToBlockStart(local, blockSize int) error {
	offset := int64(NumMagicBytes) + int64(local)*int64(blockSize)
	if _, err := fs.f.Seek(offset, io.SeekStart); err != nil {
		return ioErr(fs.path, "absolute seek", err)
	}
	fs.br.Reset(fs.f)
	return nil
}

func (fs *fileStream) discard(n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := fs.br.Discard(n); err != nil {
		return ioErr(fs.path, "seek-relative (discard)", err)
	}
	return nil
}

func (fs *fileStream) readBlock(buf []byte) error {
	if _, err := io.ReadFull(fs.br, buf); err != nil {
		return ioErr(fs.path, "read SNP block", err)
	}
	return nil
}

func (fs *fileStream) close() error {
	return fs.f.Close()
}

// ColumnChunkReader is the central component of this package (spec §4.5):
// it owns one buffered stream per backing file, a restricted RangeSet over
// the logical SNP axis, and forward/reverse cursors, and produces dense
// GenotypeMatrix chunks on demand.
type ColumnChunkReader struct {
	records    []FileRecord
	index      fileIndex
	numSamples int
	blockSize  int
	k          int
	rng        rangeset.RangeSet

	streams []*fileStream

	cf int // forward cursor, rank into rng
	r  int // reverse bound, rank into rng

	hasLast   bool
	lastFile  int
	lastLocal int

	codeScratch []Genotype
	blockScratch []byte

	err errAccumulator
}

// errAccumulator mirrors grailbio-bio's use of github.com/grailbio/base/errors.Once
// as a sticky first-error field on long-lived readers/writers (see
// pamreader.go's ShardReader.err / pamwriter.go's Writer.err).
type errAccumulator struct {
	once baseerrors.Once
}

func (e *errAccumulator) set(err error) {
	if err != nil {
		e.once.Set(err)
	}
}

func (e *errAccumulator) get() error { return e.once.Err() }

// ChunkIter opens fresh per-file streams and returns a ColumnChunkReader
// over rng (or the universal range, if rng is nil), yielding chunks of up
// to k SNP columns per pull (spec §6: chunk_iter).
func (r *Reader) ChunkIter(k int, rng *rangeset.RangeSet) (*ColumnChunkReader, error) {
	if k <= 0 {
		return nil, invalidArg("chunk size k must be > 0, got %d", k)
	}
	effective := rangeset.Full(r.totalSNPs)
	if rng != nil {
		effective = *rng
		if max, ok := effective.Max(); ok && max >= r.totalSNPs {
			return nil, invalidArg("range contains index %d, outside [0, %d)", max, r.totalSNPs)
		}
	}
	streams := make([]*fileStream, len(r.records))
	for i, rec := range r.records {
		fs, err := openFileStream(rec.Path)
		if err != nil {
			closeStreams(streams)
			return nil, err
		}
		streams[i] = fs
	}
	c := &ColumnChunkReader{
		records:      r.records,
		index:        r.index,
		numSamples:   r.numSamples,
		blockSize:    bytesPerBlock(r.numSamples),
		k:            k,
		rng:          effective,
		streams:      streams,
		r:            effective.Len(),
		codeScratch:  make([]Genotype, r.numSamples),
		blockScratch: make([]byte, bytesPerBlock(r.numSamples)),
	}
	if err := c.seekInitial(); err != nil {
		closeStreams(streams)
		return nil, err
	}
	return c, nil
}

func closeStreams(streams []*fileStream) {
	for _, fs := range streams {
		if fs != nil {
			fs.close() // nolint: errcheck
		}
	}
}

// seekInitial positions the stream of the file holding rng.First() at that
// SNP's block if the RangeSet is non-empty, and otherwise positions stream 0
// at SNP-block 0 (spec §4.5 Construction). Other streams are not moved.
func (c *ColumnChunkReader) seekInitial() error {
	if first, ok := c.rng.First(); ok {
		fileID, local, _, ok := c.index.resolve(first)
		if !ok {
			return invalidArg("range's first element %d is out of range", first)
		}
		return c.streams[fileID].seekToBlockStart(local, c.blockSize)
	}
	if len(c.streams) > 0 {
		return c.streams[0].seekToBlockStart(0, c.blockSize)
	}
	return nil
}

// seekAfterBlock positions fileID's stream immediately after SNP-block
// local, the state a stream is left in by a normal forward read of that
// block. Used to restore last_read_location after a reverse pull (spec
// §4.5 next_back, step 4).
func (c *ColumnChunkReader) seekAfterBlock(fileID, local int) error {
	return c.streams[fileID].seekToBlockStart(local+1, c.blockSize)
}

// Len reports the number of chunks remaining between the forward and
// reverse cursors, ceil((r-cf)/k) (spec §4.5 Length).
func (c *ColumnChunkReader) Len() int {
	remaining := c.r - c.cf
	if remaining <= 0 {
		return 0
	}
	return (remaining + c.k - 1) / c.k
}

// Next produces the next chunk in ascending RangeSet order, or (nil,
// false, nil) once the forward and reverse cursors meet (spec §4.5 next).
func (c *ColumnChunkReader) Next() (*GenotypeMatrix, bool, error) {
	if err := c.err.get(); err != nil {
		return nil, false, err
	}
	if c.cf >= c.r {
		return nil, false, nil
	}
	n := c.k
	if rem := c.r - c.cf; rem < n {
		n = rem
	}
	builder := newGenoMatrixBuilder(c.numSamples, n)
	sub := c.rng.Slice(c.cf, c.cf+n)
	it := sub.Forward()
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		if err := c.readSNPInto(idx, builder); err != nil {
			c.err.set(err)
			return nil, false, err
		}
	}
	c.cf += n
	return builder.finish(), true, nil
}

// NextBack produces the next chunk from the untaken suffix in descending
// RangeSet order (spec §4.5 next_back). It forces an absolute seek for its
// first read (last_read_location is cleared), then restores the forward
// cursor's stream position afterward so forward iteration can resume
// uninterrupted.
func (c *ColumnChunkReader) NextBack() (*GenotypeMatrix, bool, error) {
	if err := c.err.get(); err != nil {
		return nil, false, err
	}
	if c.cf >= c.r {
		return nil, false, nil
	}
	n := c.k
	if rem := c.r - c.cf; rem < n {
		n = rem
	}
	c.r -= n

	savedHas, savedFile, savedLocal := c.hasLast, c.lastFile, c.lastLocal
	c.hasLast = false

	builder := newGenoMatrixBuilder(c.numSamples, n)
	sub := c.rng.Slice(c.r, c.r+n)
	it := sub.Forward()
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		if err := c.readSNPInto(idx, builder); err != nil {
			c.err.set(err)
			return nil, false, err
		}
	}

	var restoreErr error
	if savedHas {
		restoreErr = c.seekAfterBlock(savedFile, savedLocal)
		c.hasLast, c.lastFile, c.lastLocal = true, savedFile, savedLocal
	} else if len(c.streams) > 0 {
		restoreErr = c.streams[0].seekToBlockStart(0, c.blockSize)
		c.hasLast = false
	}
	if restoreErr != nil {
		c.err.set(restoreErr)
		return nil, false, restoreErr
	}
	return builder.finish(), true, nil
}

// readSNPInto resolves global SNP index idx to its backing file and local
// offset, performs the seek-minimizing read described in spec §4.5 step 4,
// decodes it, applies the dominance transform if the file's SnpKind calls
// for it, and appends the result as the next column of builder.
func (c *ColumnChunkReader) readSNPInto(idx int, builder *genoMatrixBuilder) error {
	fileID, local, kind, ok := c.index.resolve(idx)
	if !ok {
		return invalidArg("SNP index %d is out of range [0, %d)", idx, c.index.total())
	}
	stream := c.streams[fileID]

	if c.hasLast && c.lastFile == fileID && local > c.lastLocal {
		gap := local - c.lastLocal - 1
		if gap > 0 {
			vlog.VI(1).Infof("%s: seek-relative, skipping %d SNPs", stream.path, gap)
			if err := stream.discard(gap * c.blockSize); err != nil {
				return err
			}
		}
	} else {
		vlog.VI(1).Infof("%s: absolute seek to local SNP %d", stream.path, local)
		if err := stream.seekToBlockStart(local, c.blockSize); err != nil {
			return err
		}
	}

	if err := stream.readBlock(c.blockScratch); err != nil {
		return err
	}
	view := packedSNPView{block: c.blockScratch, numSamples: c.numSamples}
	view.decodeInto(c.codeScratch)

	dst := builder.nextColumn()
	if kind == Dominance {
		p := alleleFrequency(c.codeScratch)
		for i, g := range c.codeScratch {
			dst[i] = dominanceTransform(g, p)
		}
	} else {
		for i, g := range c.codeScratch {
			dst[i] = float64(g)
		}
	}

	c.hasLast, c.lastFile, c.lastLocal = true, fileID, local
	return nil
}

// CloneWithRange returns a new ColumnChunkReader over rng, with its own
// freshly-opened file streams (spec §4.5 clone_with_range; spec §5:
// subdivision never shares file handles between sub-readers). rng must be a
// sub-range of c's own RangeSet; a SNP index in rng but outside c.rng is a
// *RangeError; an index outside the file set entirely is the caller's
// responsibility to avoid and is not re-checked here.
func (c *ColumnChunkReader) CloneWithRange(rng rangeset.RangeSet) (*ColumnChunkReader, error) {
	it := rng.Forward()
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		if !c.rng.Contains(idx) {
			return nil, &RangeError{Index: idx}
		}
	}

	streams := make([]*fileStream, len(c.records))
	for i, rec := range c.records {
		fs, err := openFileStream(rec.Path)
		if err != nil {
			closeStreams(streams)
			return nil, err
		}
		streams[i] = fs
	}
	clone := &ColumnChunkReader{
		records:      c.records,
		index:        c.index,
		numSamples:   c.numSamples,
		blockSize:    c.blockSize,
		k:            c.k,
		rng:          rng,
		streams:      streams,
		r:            rng.Len(),
		codeScratch:  make([]Genotype, c.numSamples),
		blockScratch: make([]byte, c.blockSize),
	}
	if err := clone.seekInitial(); err != nil {
		closeStreams(streams)
		return nil, err
	}
	return clone, nil
}

// Close releases every backing file handle. It must be called exactly
// once.
func (c *ColumnChunkReader) Close() error {
	closeStreams(c.streams)
	return c.err.get()
}

// alleleFrequency computes p = sum(g)/(2*len(g)) for a decoded column
// (spec §3).
func alleleFrequency(codes []Genotype) float64 {
	sum := 0
	for _, g := range codes {
		sum += int(g)
	}
	return float64(sum) / float64(2*len(codes))
}
