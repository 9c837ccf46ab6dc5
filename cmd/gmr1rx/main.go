// Command gmr1rx runs the GMR-1 receiver orchestration core: one sample
// bus, one producer and FCCH actor per configured channel, and an
// optional status API for runtime introspection.
package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	gmr1 "github.com/doismellburning/gmr1rx/src"
	"github.com/doismellburning/gmr1rx/src/statusapi"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := gmr1.ParseArgs(argv)
	if err != nil {
		logger.Error("configuration error", "error", err)
		return 1
	}
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	tap, err := gmr1.NewTapSink(cfg.TapAddr)
	if err != nil {
		logger.Error("failed to open tap sink", "error", err)
		return 1
	}
	defer tap.Close()

	dumper, err := gmr1.NewDumper(cfg.DumpDir, time.Now())
	if err != nil {
		logger.Error("failed to set up dump directory", "error", err)
		return 1
	}

	arfcns := make(map[int]int, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		arfcns[ch.ARFCN] = i
	}

	ctx := &gmr1.Context{
		Tap:    tap,
		Dump:   dumper,
		Log:    logger,
		SPS:    cfg.SPS,
		ARFCNs: arfcns,
	}

	bus := gmr1.Alloc(ctx, len(cfg.Channels), gmr1.DefaultRingCapacity(cfg.SPS))

	for i, ch := range cfg.Channels {
		producer := gmr1.NewFileProducer(ch.File)
		if err := bus.SetProducer(i, producer); err != nil {
			logger.Error("failed to open channel producer", "arfcn", ch.ARFCN, "file", ch.File, "error", err)
			return 1
		}
		if err := bus.AddConsumer(i, gmr1.NewFCCHActor()); err != nil {
			logger.Error("failed to start fcch actor", "arfcn", ch.ARFCN, "error", err)
			return 1
		}
	}

	if cfg.StatusAddr != "" {
		srv := statusapi.New(bus, nil)
		go func() {
			if err := srv.Run(cfg.StatusAddr); err != nil {
				logger.Error("status api stopped", "error", err)
			}
		}()
		logger.Info("status api listening", "addr", cfg.StatusAddr)
	}

	logger.Info("starting scheduler", "channels", len(cfg.Channels), "sps", cfg.SPS)
	bus.Work()
	logger.Info("scheduler finished")
	return 0
}
