package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neteye/snmpscope/config"
	"github.com/neteye/snmpscope/probe"
	"github.com/neteye/snmpscope/store"
)

// usageError marks argument problems so main can exit 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

var (
	cfgFile   string
	community string
	timeout   float64
	retries   int

	reqType   string
	discovery bool
	poll      bool
	sysinfo   bool

	oids           []string
	preset         string
	setValues      []string
	trapVarbinds   []string
	startOID       string
	nonRepeaters   int
	maxRepetitions int

	pollInterval int
	pollDuration int
	scanThreads  int

	exportFile string
	dbPath     string
	noDB       bool
)

var rootCmd = &cobra.Command{
	Use:   "probe TARGET",
	Short: "Active SNMP probe",
	Long: `probe sends crafted SNMP requests to a target agent: GET, SET,
GETNEXT walks, GETBULK, trap emission, network discovery and periodic
polling.

Examples:
  # System description
  probe 192.168.1.1 --type GET --oid sysDescr

  # Walk the interface description column
  probe 192.168.1.1 --type GETNEXT --start-oid 1.3.6.1.2.1.2.2.1.2 --max-repetitions 50

  # Set the contact
  probe 192.168.1.1 -c private --type SET --value sysContact=admin@example.com

  # Discover agents on a network
  probe 192.168.1.0/24 --discovery --threads 20

  # Poll every 30 s for an hour
  probe 192.168.1.1 --poll --oid sysUpTime --interval 30 --duration 3600`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usagef("exactly one TARGET is required")
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runProbe,
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.Flags().StringVarP(&community, "community", "c", "", "community string")
	rootCmd.Flags().Float64VarP(&timeout, "timeout", "t", 0, "per-attempt timeout in seconds")
	rootCmd.Flags().IntVarP(&retries, "retries", "r", -1, "retries after a GET timeout")

	rootCmd.Flags().StringVar(&reqType, "type", "", "request type: GET, SET, GETNEXT, GETBULK, TRAP")
	rootCmd.Flags().BoolVar(&discovery, "discovery", false, "discovery sweep over a network (TARGET is a CIDR)")
	rootCmd.Flags().BoolVar(&poll, "poll", false, "periodic polling of the target")
	rootCmd.Flags().BoolVar(&sysinfo, "sysinfo", false, "GET the sysinfo preset")

	rootCmd.Flags().StringArrayVar(&oids, "oid", nil, "OID or symbolic name (repeatable)")
	rootCmd.Flags().StringVar(&preset, "preset", "", "OID preset: sysinfo, interfaces, host_resources")
	rootCmd.Flags().StringArrayVar(&setValues, "value", nil, "OID=value for SET (repeatable)")
	rootCmd.Flags().StringArrayVar(&trapVarbinds, "varbind", nil, "OID=value for TRAP (repeatable)")
	rootCmd.Flags().StringVar(&startOID, "start-oid", "", "starting OID for GETNEXT")
	rootCmd.Flags().IntVar(&nonRepeaters, "non-repeaters", 0, "non-repeaters for GETBULK")
	rootCmd.Flags().IntVar(&maxRepetitions, "max-repetitions", 10, "max-repetitions for GETNEXT/GETBULK")

	rootCmd.Flags().IntVar(&pollInterval, "interval", 60, "polling interval in seconds")
	rootCmd.Flags().IntVar(&pollDuration, "duration", 3600, "polling duration in seconds")
	rootCmd.Flags().IntVar(&scanThreads, "threads", probe.DefaultScanWorkers, "discovery workers")

	rootCmd.Flags().StringVar(&exportFile, "export", "", "export results to a JSON file")
	rootCmd.Flags().StringVar(&dbPath, "db-path", "", "path to the SQLite file for --poll")
	rootCmd.Flags().BoolVar(&noDB, "no-db", false, "do not persist poll metrics")
}

// modeCount checks the mutually exclusive operation modes.
func modeCount() int {
	n := 0
	if reqType != "" {
		n++
	}
	if discovery {
		n++
	}
	if poll {
		n++
	}
	if sysinfo {
		n++
	}
	return n
}

func runProbe(cmd *cobra.Command, args []string) error {
	if modeCount() != 1 {
		return usagef("exactly one of --type, --discovery, --poll, --sysinfo is required")
	}

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
	if community == "" {
		community = cfg.Community
	}
	if timeout <= 0 {
		timeout = cfg.Timeout.Seconds()
	}
	if retries < 0 {
		retries = cfg.Retries
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	target := args[0]

	opts := []probe.Option{
		probe.WithCommunity(community),
		probe.WithTimeout(time.Duration(timeout * float64(time.Second))),
		probe.WithRetries(retries),
		probe.WithPort(cfg.Port),
		probe.WithTrapPort(cfg.TrapPort),
		probe.WithLogger(logger),
	}

	var st *store.Store
	if poll && !noDB {
		st, err = store.Open(dbPath, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return err
		}
		defer st.Close()
		opts = append(opts, probe.WithSink(st))
	}

	prober := probe.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := dispatch(ctx, prober, target)

	if exportFile != "" {
		if err := prober.Export(exportFile); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	printStats(prober.Stats().Snapshot())
	return runErr
}

func dispatch(ctx context.Context, prober *probe.Prober, target string) error {
	switch {
	case discovery:
		hosts, err := prober.Discover(ctx, target, scanThreads)
		if err != nil && ctx.Err() == nil {
			return err
		}
		printHosts(hosts)
		return nil

	case poll:
		resolved := probe.ResolveOIDs(oids, preset)
		if len(resolved) == 0 {
			return usagef("--poll requires at least one --oid or --preset")
		}
		_, err := prober.Poll(ctx, target, resolved,
			time.Duration(pollInterval)*time.Second,
			time.Duration(pollDuration)*time.Second)
		if err != nil && ctx.Err() != nil {
			// interrupted polling is a clean exit
			return nil
		}
		return err

	case sysinfo:
		result := prober.Get(ctx, target, probe.Presets["sysinfo"])
		printSysinfo(target, result)
		if !result.Success {
			return fmt.Errorf("sysinfo failed: %s", result.Error)
		}
		return nil

	default:
		return dispatchTyped(ctx, prober, target)
	}
}

func dispatchTyped(ctx context.Context, prober *probe.Prober, target string) error {
	var result *probe.Result

	switch strings.ToUpper(reqType) {
	case "GET":
		resolved := probe.ResolveOIDs(oids, preset)
		if len(resolved) == 0 {
			return usagef("GET requires at least one --oid or --preset")
		}
		result = prober.Get(ctx, target, resolved)

	case "SET":
		values, err := parsePairs(setValues, "--value")
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return usagef("SET requires at least one --value OID=value")
		}
		oidValues := make(map[string]interface{}, len(values))
		for k, v := range values {
			oidValues[k] = v
		}
		result = prober.Set(ctx, target, oidValues)

	case "GETNEXT":
		start := startOID
		if start == "" {
			resolved := probe.ResolveOIDs(oids, preset)
			if len(resolved) > 0 {
				start = resolved[0]
			}
		}
		if start == "" {
			return usagef("GETNEXT requires --start-oid or an --oid")
		}
		result = prober.WalkNext(ctx, target, start, maxRepetitions)

	case "GETBULK":
		resolved := probe.ResolveOIDs(oids, preset)
		if len(resolved) == 0 {
			return usagef("GETBULK requires at least one --oid or --preset")
		}
		result = prober.GetBulk(ctx, target, resolved, nonRepeaters, maxRepetitions)

	case "TRAP":
		varbinds, err := parsePairs(trapVarbinds, "--varbind")
		if err != nil {
			return err
		}
		result = prober.SendTrap(ctx, target, "", varbinds)

	default:
		return usagef("unsupported request type: %s", reqType)
	}

	printResult(result)
	if !result.Success {
		return fmt.Errorf("%s failed: %s", result.Type, result.Error)
	}
	return nil
}

// parsePairs splits repeated OID=value flags into a map.
func parsePairs(items []string, flag string) (map[string]string, error) {
	pairs := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			return nil, usagef("invalid format for %s: %q (expected OID=value)", flag, item)
		}
		pairs[k] = v
	}
	return pairs, nil
}
