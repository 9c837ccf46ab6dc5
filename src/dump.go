package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	Debug dump writer: per-speech-frame and per-CSD binary
 *		dumps, plus a timestamped run subdirectory so repeated
 *		runs against the same -dump-dir don't clobber each other.
 *
 * Description:	Files are named `speech_<arfcn>_<tn>_<fn>.dat` and
 *		`csd_<arfcn>_<tn>_<fn>.dat`. The run subdirectory name
 *		uses lestrrat-go/strftime rather than a hand-rolled
 *		time.Time format string.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

const runDirPattern = "run-%Y%m%d-%H%M%S"

// Dumper writes optional per-frame debug files under a timestamped
// subdirectory of the configured dump directory. A zero-value Dumper
// (root == "") is a no-op.
type Dumper struct {
	root string
}

// NewDumper resolves a -dump-dir into a fresh timestamped run directory.
// If root is empty, dumping is disabled.
func NewDumper(root string, now time.Time) (*Dumper, error) {
	if root == "" {
		return &Dumper{}, nil
	}
	pattern, err := strftime.New(runDirPattern)
	if err != nil {
		return nil, fmt.Errorf("gmr1: compile dump dir pattern: %w", err)
	}
	dir := filepath.Join(root, pattern.FormatString(now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("gmr1: create dump dir %s: %w", dir, err)
	}
	return &Dumper{root: dir}, nil
}

func (d *Dumper) enabled() bool { return d != nil && d.root != "" }

// DumpSpeech writes a speech_<arfcn>_<tn>_<fn>.dat file.
func (d *Dumper) DumpSpeech(arfcn, tn int, fn uint32, payload []byte) error {
	if !d.enabled() {
		return nil
	}
	name := fmt.Sprintf("speech_%d_%d_%d.dat", arfcn, tn, fn)
	return os.WriteFile(filepath.Join(d.root, name), payload, 0o644)
}

// DumpCSD writes a csd_<arfcn>_<tn>_<fn>.dat file.
func (d *Dumper) DumpCSD(arfcn, tn int, fn uint32, payload []byte) error {
	if !d.enabled() {
		return nil
	}
	name := fmt.Sprintf("csd_%d_%d_%d.dat", arfcn, tn, fn)
	return os.WriteFile(filepath.Join(d.root, name), payload, 0o644)
}
