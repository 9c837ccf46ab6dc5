package gmr1

/*------------------------------------------------------------------
 *
 * Purpose:	CLI and channel-plan configuration.
 *
 * Description:	spf13/pflag parses a flat set of named options plus
 *		positional arguments. The bare
 *		`program sps arfcn1:file1 ...` form works: the first
 *		positional argument is taken as sps when `-sps` wasn't
 *		set explicitly. An optional `-plan FILE` loads a
 *		gopkg.in/yaml.v3 channel-plan file for deployments with
 *		more channels than fit comfortably on a command line.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ChannelSpec is one ARFCN/sample-file pairing, from either the
// positional `arfcn:file` CLI form or a plan file entry.
type ChannelSpec struct {
	ARFCN int    `yaml:"arfcn"`
	File  string `yaml:"file"`
}

// Plan is the optional `-plan FILE` channel-plan document.
type Plan struct {
	SPS      int           `yaml:"sps"`
	Channels []ChannelSpec `yaml:"channels"`
}

// Config is the fully resolved run configuration.
type Config struct {
	SPS        int
	Channels   []ChannelSpec
	TapAddr    string
	DumpDir    string
	StatusAddr string
	Verbose    bool
}

// ParseArgs parses argv (excluding the program name) into a Config. It
// returns a non-nil error for any configuration error: bad flags, sps
// out of [1,16], or no channels configured.
func ParseArgs(argv []string) (Config, error) {
	fs := pflag.NewFlagSet("gmr1rx", pflag.ContinueOnError)

	sps := fs.IntP("sps", "s", 4, "samples per symbol (oversampling ratio), 1-16")
	tapAddr := fs.String("tap-addr", DefaultTapAddr, "tap protocol UDP destination")
	plan := fs.String("plan", "", "optional YAML channel-plan file")
	dumpDir := fs.String("dump-dir", "", "optional directory for per-frame debug dumps")
	statusAddr := fs.String("status-addr", "", "optional read-only status HTTP listen address")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")

	if err := fs.Parse(argv); err != nil {
		return Config{}, fmt.Errorf("gmr1: parse flags: %w", err)
	}

	cfg := Config{
		SPS:        *sps,
		TapAddr:    *tapAddr,
		DumpDir:    *dumpDir,
		StatusAddr: *statusAddr,
		Verbose:    *verbose,
	}

	remaining := fs.Args()

	if *plan != "" {
		p, err := LoadPlan(*plan)
		if err != nil {
			return Config{}, err
		}
		if !fs.Changed("sps") {
			cfg.SPS = p.SPS
		}
		cfg.Channels = p.Channels
	}

	if !fs.Changed("sps") && len(remaining) > 0 {
		if n, err := strconv.Atoi(remaining[0]); err == nil {
			cfg.SPS = n
			remaining = remaining[1:]
		}
	}

	for _, arg := range remaining {
		spec, err := parseChannelArg(arg)
		if err != nil {
			return Config{}, err
		}
		cfg.Channels = append(cfg.Channels, spec)
	}

	if cfg.SPS < 1 || cfg.SPS > 16 {
		return Config{}, fmt.Errorf("gmr1: sps %d out of range [1,16]", cfg.SPS)
	}
	if len(cfg.Channels) == 0 {
		return Config{}, fmt.Errorf("gmr1: no channels configured")
	}

	return cfg, nil
}

func parseChannelArg(arg string) (ChannelSpec, error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return ChannelSpec{}, fmt.Errorf("gmr1: channel argument %q must be arfcn:file", arg)
	}
	arfcn, err := strconv.Atoi(parts[0])
	if err != nil {
		return ChannelSpec{}, fmt.Errorf("gmr1: channel argument %q: bad arfcn: %w", arg, err)
	}
	return ChannelSpec{ARFCN: arfcn, File: parts[1]}, nil
}

// LoadPlan reads and parses a YAML channel-plan file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("gmr1: read plan %s: %w", path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("gmr1: parse plan %s: %w", path, err)
	}
	return p, nil
}
