package plinkbed

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"blainsmith.com/go/seahash"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// NumMagicBytes is the length of the packed-file magic preamble.
const NumMagicBytes = 3

// MagicBytes is the fixed three-byte preamble every packed file begins
// with (spec §6): {0x6C, 0x1B, 0x01}.
var MagicBytes = [NumMagicBytes]byte{0x6C, 0x1B, 0x01}

// FileRecord describes one backing packed file and the metadata an
// external collaborator (a companion .bim/.fam-style line counter) has
// already derived for it (spec §3). NumVariants and NumSamples are taken
// as given; this package does not parse companion metadata files itself.
type FileRecord struct {
	Path        string
	NumVariants int
	NumSamples  int
	Kind        SnpKind
}

// validateMagicBytes opens path and confirms it begins with MagicBytes,
// returning a *BadFormatError on any mismatch (spec §7, P7).
func validateMagicBytes(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ioErr(path, "open for magic-byte validation", err)
	}
	defer f.Close()

	buf := make([]byte, NumMagicBytes)
	if _, err := io.ReadFull(f, buf); err != nil {
		return ioErr(path, "read magic bytes", err)
	}
	for i, want := range MagicBytes {
		if buf[i] != want {
			return &BadFormatError{Path: path, Expected: MagicBytes[:], Observed: buf}
		}
	}
	return nil
}

// fingerprint returns a seahash fingerprint over a file's magic bytes and
// its caller-declared shape, the way jilio-packedancestrymap's Calcishash
// hand-rolls a companion-file hash to sanity-check that a genotype file
// and its metadata agree; here the "metadata" is just (NumVariants,
// NumSamples) rather than a parsed .bim/.fam, since line-counting remains
// an external collaborator (spec §1).
func fingerprint(rec FileRecord, magic []byte) uint64 {
	buf := make([]byte, len(magic)+16)
	copy(buf, magic)
	binary.LittleEndian.PutUint64(buf[len(magic):], uint64(rec.NumVariants))
	binary.LittleEndian.PutUint64(buf[len(magic)+8:], uint64(rec.NumSamples))
	return seahash.Sum64(buf)
}

// validateRecords enforces spec §3's invariants that don't require reading
// the packed file body: non-empty list, positive NumVariants/NumSamples, a
// single NumSamples shared by every record, and a valid magic preamble on
// every backing file (I1, I2).
func validateRecords(records []FileRecord) (numSamples int, err error) {
	if len(records) == 0 {
		return 0, invalidArg("record list must not be empty")
	}
	for _, rec := range records {
		if rec.NumVariants <= 0 {
			return 0, invalidArg("%s: NumVariants must be >= 1, got %d", rec.Path, rec.NumVariants)
		}
		if rec.NumSamples <= 0 {
			return 0, invalidArg("%s: NumSamples must be >= 1, got %d", rec.Path, rec.NumSamples)
		}
		if numSamples == 0 {
			numSamples = rec.NumSamples
		} else if rec.NumSamples != numSamples {
			return 0, invalidArg(
				"inconsistent sample count: %s declares %d, expected %d", rec.Path, rec.NumSamples, numSamples)
		}
		if err := validateMagicBytes(rec.Path); err != nil {
			return 0, errors.Wrapf(err, "validating %s", rec.Path)
		}
		if fi, statErr := os.Stat(rec.Path); statErr == nil {
			minSize := int64(NumMagicBytes) + int64(rec.NumVariants)*int64(bytesPerBlock(rec.NumSamples))
			if fi.Size() < minSize {
				return 0, invalidArg(
					"%s: file size %d is smaller than required %d bytes for %d variants x %d samples",
					rec.Path, fi.Size(), minSize, rec.NumVariants, rec.NumSamples)
			}
		}
	}
	return numSamples, nil
}

// logSummary prints the one-line-per-file-plus-sample-count banner
// required by spec §4.11, in the same shape as the original Rust
// PlinkBed::new's banner, routed through vlog instead of println! so it
// can be silenced or redirected by a logger (spec §4.11 allows this).
func logSummary(records []FileRecord, numSamples int) {
	vlog.Infof("----------")
	for _, rec := range records {
		fp := fingerprint(rec, MagicBytes[:])
		vlog.Infof("%s num_snps: %d kind: %v fingerprint: %x", rec.Path, rec.NumVariants, rec.Kind, fp)
	}
	vlog.Infof("num_samples: %d", numSamples)
	vlog.Infof("----------")
}

// openBufferedFile opens path for reading and wraps it in a *bufio.Reader,
// the way jilio-packedancestrymap.ProcessGenoRows and the original Rust
// BufReader<File> do.
func openBufferedFile(path string) (*os.File, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ioErr(path, "open", err)
	}
	return f, bufio.NewReader(f), nil
}
