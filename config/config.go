// Copyright 2025 Neteye
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the tool configuration from the environment
// and an optional config file. Configuration is read once at startup
// and passed explicitly; there are no mid-run reloads.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/neteye/snmpscope/analyzer"
	"github.com/neteye/snmpscope/snmp"
)

// Error is a fatal configuration problem; it halts startup.
type Error struct {
	Key   string
	Value string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config: invalid %s=%q: %v", e.Key, e.Value, e.Cause)
}

// Config is the resolved startup configuration.
type Config struct {
	DBPath string

	Community string
	Timeout   time.Duration
	Retries   int
	Port      int
	TrapPort  int

	CaptureInterface   string
	CaptureBufferSize  int
	CapturePromiscuous bool

	MaxRequestsPerMin int
	AlertResponseTime time.Duration

	LogLevel slog.Level
}

// Load reads the recognized keys from the environment, falling back to
// an optional yaml config file, then to defaults. Every key is
// optional; an unparseable value is fatal.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Key: "config file", Value: cfgFile, Cause: err}
		}
	}

	v.SetDefault("DB_PATH", "snmp_local.db")
	v.SetDefault("SNMP_COMMUNITY", snmp.DefaultCommunity)
	v.SetDefault("SNMP_TIMEOUT", "2.0")
	v.SetDefault("SNMP_RETRIES", strconv.Itoa(snmp.DefaultRetries))
	v.SetDefault("SNMP_PORT", strconv.Itoa(snmp.DefaultPort))
	v.SetDefault("SNMP_TRAP_PORT", strconv.Itoa(snmp.DefaultTrapPort))
	v.SetDefault("CAPTURE_INTERFACE", "")
	v.SetDefault("CAPTURE_BUFFER_SIZE", "0")
	v.SetDefault("CAPTURE_PROMISCUOUS", "false")
	v.SetDefault("MAX_REQUESTS_PER_MIN", strconv.Itoa(analyzer.DefaultFloodThreshold))
	v.SetDefault("ALERT_RESPONSE_TIME", "5.0")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		DBPath:           v.GetString("DB_PATH"),
		Community:        v.GetString("SNMP_COMMUNITY"),
		CaptureInterface: v.GetString("CAPTURE_INTERFACE"),
	}

	var err error
	if cfg.Timeout, err = seconds(v, "SNMP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = integer(v, "SNMP_RETRIES"); err != nil {
		return nil, err
	}
	if cfg.Port, err = integer(v, "SNMP_PORT"); err != nil {
		return nil, err
	}
	if cfg.TrapPort, err = integer(v, "SNMP_TRAP_PORT"); err != nil {
		return nil, err
	}
	if cfg.CaptureBufferSize, err = integer(v, "CAPTURE_BUFFER_SIZE"); err != nil {
		return nil, err
	}
	if cfg.CapturePromiscuous, err = boolean(v, "CAPTURE_PROMISCUOUS"); err != nil {
		return nil, err
	}
	if cfg.MaxRequestsPerMin, err = integer(v, "MAX_REQUESTS_PER_MIN"); err != nil {
		return nil, err
	}
	if cfg.AlertResponseTime, err = seconds(v, "ALERT_RESPONSE_TIME"); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = level(v, "LOG_LEVEL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// seconds parses a key holding a float second count.
func seconds(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, &Error{Key: key, Value: raw, Cause: fmt.Errorf("expected seconds: %v", err)}
	}
	return time.Duration(f * float64(time.Second)), nil
}

func integer(v *viper.Viper, key string) (int, error) {
	raw := v.GetString(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: key, Value: raw, Cause: err}
	}
	return n, nil
}

func boolean(v *viper.Viper, key string) (bool, error) {
	raw := v.GetString(key)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Key: key, Value: raw, Cause: err}
	}
	return b, nil
}

func level(v *viper.Viper, key string) (slog.Level, error) {
	raw := v.GetString(key)
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, &Error{Key: key, Value: raw, Cause: fmt.Errorf("unknown log level")}
	}
}
