package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neteye/snmpscope/analyzer"
	"github.com/neteye/snmpscope/capture"
	"github.com/neteye/snmpscope/config"
	"github.com/neteye/snmpscope/store"
)

var (
	cfgFile   string
	iface     string
	count     int
	duration  int
	noDB      bool
	dbPath    string
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Passive SNMP traffic analyzer",
	Long: `analyzer captures SNMP traffic on ports 161 and 162, decodes each
frame, correlates requests with responses, detects behavioral
anomalies, and records observations in a local database.

Examples:
  # Analyze traffic on the default interface
  analyzer

  # Capture 100 packets on eth0 without persisting
  analyzer -i eth0 -c 100 --no-db

  # Analyze for five minutes into a specific database
  analyzer -d 300 --db-path /var/lib/snmpscope/observations.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyzer,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.Flags().StringVarP(&iface, "interface", "i", "", "network interface to monitor")
	rootCmd.Flags().IntVarP(&count, "count", "c", 0, "number of packets to capture (0 = unlimited)")
	rootCmd.Flags().IntVarP(&duration, "duration", "d", 0, "capture duration in seconds (0 = unlimited)")
	rootCmd.Flags().BoolVar(&noDB, "no-db", false, "do not persist observations")
	rootCmd.Flags().StringVar(&dbPath, "db-path", "", "path to the SQLite file")
}

func runAnalyzer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Flags override the environment.
	if iface == "" {
		iface = cfg.CaptureInterface
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(duration)*time.Second)
		defer cancel()
	}

	var st *store.Store
	if !noDB {
		st, err = store.Open(dbPath, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return err
		}
		defer st.Close()
	}

	src, err := capture.Open(
		capture.WithInterface(iface),
		capture.WithBufferSize(cfg.CaptureBufferSize),
		capture.WithPromiscuous(cfg.CapturePromiscuous),
		capture.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	defer src.Close()

	correlator := analyzer.NewCorrelator(logger)
	go correlator.Run(ctx)

	detector := analyzer.NewDetector(cfg.MaxRequestsPerMin)

	var pipelineStore analyzer.Store
	if st != nil {
		pipelineStore = st
	}
	pipeline := analyzer.NewPipeline(correlator, detector, pipelineStore, os.Stdout, logger)

	logger.Info("démarrage de la capture SNMP", "count", count, "duration", duration)

	processed := 0
	datagrams := src.Datagrams(ctx.Done())

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case dg, ok := <-datagrams:
			if !ok {
				break loop
			}
			pipeline.HandleRaw(dg.Payload, analyzer.Meta{
				Timestamp: dg.Timestamp,
				SrcIP:     dg.SrcIP,
				DstIP:     dg.DstIP,
				SrcPort:   dg.SrcPort,
				DstPort:   dg.DstPort,
				Size:      dg.Size,
			})
			processed++
			if count > 0 && processed >= count {
				break loop
			}
		}
	}

	pipeline.PrintFinalStats()
	logger.Info("capture arrêtée",
		"processed", processed,
		"dropped", src.Dropped())
	return nil
}
