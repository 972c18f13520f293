package plinkbed

// fileIndex resolves a global (logical) SNP index to the backing file that
// holds it, plus the corresponding local SNP index within that file (spec
// §4.3). The expected number of backing files is tiny, so resolution is a
// simple linear scan over the per-file SNP counts.
type fileIndex struct {
	numSNPs []int
	kinds   []SnpKind
}

func newFileIndex(records []FileRecord) fileIndex {
	fi := fileIndex{
		numSNPs: make([]int, len(records)),
		kinds:   make([]SnpKind, len(records)),
	}
	for i, rec := range records {
		fi.numSNPs[i] = rec.NumVariants
		fi.kinds[i] = rec.Kind
	}
	return fi
}

// total returns the size of the logical SNP axis, sum of per-file counts.
func (fi fileIndex) total() int {
	n := 0
	for _, c := range fi.numSNPs {
		n += c
	}
	return n
}

// resolve maps a global SNP index i to (fileID, local index within that
// file, SnpKind). It returns ok=false if i is out of [0, total()).
func (fi fileIndex) resolve(i int) (fileID, local int, kind SnpKind, ok bool) {
	if i < 0 {
		return 0, 0, 0, false
	}
	running := 0
	for f, count := range fi.numSNPs {
		next := running + count
		if i < next {
			return f, i - running, fi.kinds[f], true
		}
		running = next
	}
	return 0, 0, 0, false
}
