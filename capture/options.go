package capture

import "log/slog"

// DefaultFilter selects SNMP traffic on the agent and trap ports.
const DefaultFilter = "udp port 161 or udp port 162"

// DefaultQueueSize is the depth of the delivery queue between the
// capture goroutine and the pipeline.
const DefaultQueueSize = 1024

// Options contains configuration for a live capture source.
type Options struct {
	// Interface is the capture interface; empty means the OS default.
	Interface string
	// Filter is the BPF filter expression.
	Filter string
	// BufferSize is the kernel capture buffer size in bytes (0 = OS default).
	BufferSize int
	// Promiscuous enables promiscuous mode.
	Promiscuous bool
	// QueueSize is the delivery queue depth.
	QueueSize int
	// Logger is the logger.
	Logger *slog.Logger
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		Filter:    DefaultFilter,
		QueueSize: DefaultQueueSize,
	}
}

// Option is a functional option for configuring the capture source.
type Option func(*Options)

// WithInterface sets the capture interface.
func WithInterface(iface string) Option {
	return func(o *Options) {
		o.Interface = iface
	}
}

// WithFilter sets the BPF filter expression.
func WithFilter(filter string) Option {
	return func(o *Options) {
		o.Filter = filter
	}
}

// WithBufferSize sets the kernel capture buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.BufferSize = n
	}
}

// WithPromiscuous enables or disables promiscuous mode.
func WithPromiscuous(enabled bool) Option {
	return func(o *Options) {
		o.Promiscuous = enabled
	}
}

// WithQueueSize sets the delivery queue depth.
func WithQueueSize(n int) Option {
	return func(o *Options) {
		o.QueueSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
