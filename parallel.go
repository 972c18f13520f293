package plinkbed

import (
	"runtime"

	"github.com/grailbio/base/traverse"

	"github.com/vantage-genomics/plinkbed/rangeset"
)

// DefaultParallelism names the shard count 0, standing for
// runtime.NumCPU()*4 shards, mirroring grailbio-bio/encoding/pam/sharder.go's
// default read-shard count. No function in this package reads it; the
// parallel path of AlleleFrequencies always uses defaultShardCount.
const DefaultParallelism = 0 // 0 means "use runtime.NumCPU()*4"

// ParallelDriver exposes a Reader's chunk sequence to an external
// work-stealing executor as an indexed, splittable producer (spec §4.6).
// This package does not implement a work-stealing scheduler itself; it
// only implements the three-operation contract (Length/SplitAt/Drive) such
// a scheduler would call.
type ParallelDriver struct {
	reader *Reader
	k      int
	rng    rangeset.RangeSet
}

// NewParallelDriver builds a ParallelDriver over rng (or the universal
// range if nil), producing chunks of up to k SNPs.
func (r *Reader) NewParallelDriver(k int, rng *rangeset.RangeSet) (*ParallelDriver, error) {
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
	return &ParallelDriver{reader: r, k: k, rng: effective}, nil
}

// Length returns the number of chunks this driver would yield, identical
// to ColumnChunkReader.Len (spec §4.6).
func (p *ParallelDriver) Length() int {
	return ceilDiv(p.rng.Len(), p.k)
}

// SplitAt splits the driver into two independent drivers whose RangeSets
// are rng.Slice(0, m) and rng.Slice(m, |rng|), with m = min(k*i, |rng|)
// (spec §4.6). Neither half shares file handles with the other or with p;
// handles are opened lazily, on the first Drive call.
func (p *ParallelDriver) SplitAt(i int) (left, right *ParallelDriver) {
	m := i * p.k
	if total := p.rng.Len(); m > total {
		m = total
	}
	left = &ParallelDriver{reader: p.reader, k: p.k, rng: p.rng.Slice(0, m)}
	right = &ParallelDriver{reader: p.reader, k: p.k, rng: p.rng.Slice(m, p.rng.Len())}
	return left, right
}

// Drive pulls every chunk from p, in order, passing each to consume. It
// stops at the first error, either from iteration or from consume itself.
func (p *ParallelDriver) Drive(consume func(*GenotypeMatrix) error) error {
	it, err := p.reader.ChunkIter(p.k, &p.rng)
	if err != nil {
		return err
	}
	defer it.Close() // nolint: errcheck
	for {
		m, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := consume(m); err != nil {
			return err
		}
	}
}

// splitInto divides p into up to n independent drivers covering the same
// RangeSet, using the same chunk-aligned boundary formula as SplitAt
// (m = min(k*i, |rng|)) so the fan-out is equivalent to repeatedly calling
// SplitAt. Used by the "optionally parallel" convenience helpers in
// matrixview.go.
func (p *ParallelDriver) splitInto(n int) []*ParallelDriver {
	total := p.Length()
	if n <= 1 || total <= 1 {
		return []*ParallelDriver{p}
	}
	if n > total {
		n = total
	}
	out := make([]*ParallelDriver, 0, n)
	prevRank := 0
	for i := 1; i <= n; i++ {
		chunkBoundary := (total*i + n - 1) / n // ceiling division for even-ish spread
		rank := chunkBoundary * p.k
		if rank > p.rng.Len() {
			rank = p.rng.Len()
		}
		if rank <= prevRank {
			continue
		}
		out = append(out, &ParallelDriver{reader: p.reader, k: p.k, rng: p.rng.Slice(prevRank, rank)})
		prevRank = rank
	}
	return out
}

func defaultShardCount() int {
	return runtime.NumCPU() * 4
}

// driveAllOrdered runs drivers concurrently with traverse.Each (the same bounded
// fan-out grailbio-bio/encoding/pam/pamwriter.go's Close uses to flush
// field writers), collecting one result per driver via collect.
func driveAllOrdered(drivers []*ParallelDriver, collect func(d *ParallelDriver) (interface{}, error)) ([]interface{}, error) {
	results := make([]interface{}, len(drivers))
	err := traverse.Each(len(drivers), func(i int) error {
		res, err := collect(drivers[i])
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
