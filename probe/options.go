package probe

import (
	"log/slog"
	"time"

	"github.com/neteye/snmpscope/analyzer"
	"github.com/neteye/snmpscope/snmp"
)

// MetricSink receives metric rows produced by the polling loop.
// *store.Store satisfies it.
type MetricSink interface {
	InsertMetric(m analyzer.Metric) error
}

// Options contains configuration options for the prober.
type Options struct {
	// Community is the community string sent with each request.
	Community string
	// Timeout is the per-attempt reply timeout.
	Timeout time.Duration
	// Retries is the number of extra attempts after a GET timeout.
	Retries int
	// Port is the agent port.
	Port int
	// TrapPort is the notification port.
	TrapPort int
	// Sink receives poll metrics; nil disables persistence.
	Sink MetricSink
	// Logger is the logger.
	Logger *slog.Logger
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		Community: snmp.DefaultCommunity,
		Timeout:   snmp.DefaultTimeout,
		Retries:   snmp.DefaultRetries,
		Port:      snmp.DefaultPort,
		TrapPort:  snmp.DefaultTrapPort,
	}
}

// Option is a functional option for configuring the prober.
type Option func(*Options)

// WithCommunity sets the community string.
func WithCommunity(community string) Option {
	return func(o *Options) {
		o.Community = community
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRetries sets the number of retries.
func WithRetries(n int) Option {
	return func(o *Options) {
		o.Retries = n
	}
}

// WithPort sets the agent port.
func WithPort(port int) Option {
	return func(o *Options) {
		o.Port = port
	}
}

// WithTrapPort sets the notification port.
func WithTrapPort(port int) Option {
	return func(o *Options) {
		o.TrapPort = port
	}
}

// WithSink attaches a metric sink for the polling loop.
func WithSink(sink MetricSink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
