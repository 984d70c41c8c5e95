// Copyright 2026 The gVisor Authors.
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

// Package config provides basic infrastructure to set configuration settings
// for syncguard. Each setting that can be changed from the command line must
// have a flag. A configuration file in TOML format may provide the settings
// as well; flags given explicitly on the command line take precedence.
package config

import (
	"flag"
	"fmt"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"

	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/sentry/kernel"
)

// Config holds configuration that is not part of a scenario.
type Config struct {
	// ConfigFile is the path of an optional TOML file holding settings.
	ConfigFile string `flag:"config" toml:"-"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log" toml:"log"`

	// LogFormat is the log format: text, json or logrus.
	LogFormat string `flag:"log-format" toml:"log_format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// AlsoLogToStderr allows sending log messages to stderr in addition to
	// the log file.
	AlsoLogToStderr bool `flag:"alsologtostderr" toml:"alsologtostderr"`

	// DetectDeadlock is the initial state of deadlock detection for new
	// processes.
	DetectDeadlock bool `flag:"detect-deadlock" toml:"detect_deadlock"`

	// PreserveDeniedRequests keeps the bookkeeping of requests denied by the
	// safety check instead of rolling it back.
	PreserveDeniedRequests bool `flag:"preserve-denied-requests" toml:"preserve_denied_requests"`

	// RetryInitialInterval is the first delay before a denied request is
	// retried.
	RetryInitialInterval time.Duration `flag:"retry-initial-interval" toml:"retry_initial_interval"`

	// RetryMaxElapsed bounds the time spent retrying one denied request.
	// Zero retries forever.
	RetryMaxElapsed time.Duration `flag:"retry-max-elapsed" toml:"retry_max_elapsed"`
}

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "path to a TOML file with settings. Flags given on the command line override it.")
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr.")
	flagSet.String("log-format", "text", "log format: text (default), json, or logrus.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.Bool("alsologtostderr", false, "send log messages to stderr.")

	flagSet.Bool("detect-deadlock", false, "enable deadlock detection in new processes.")
	flagSet.Bool("preserve-denied-requests", false, "keep the accounting of denied requests instead of rolling it back.")
	flagSet.Duration("retry-initial-interval", 10*time.Millisecond, "first delay before retrying a denied request.")
	flagSet.Duration("retry-max-elapsed", 10*time.Second, "give up retrying a denied request after this long. 0 retries forever.")
}

// NewFromFlags creates a new Config with values coming from the given flag
// set, overlaid on the file named by --config if any. This function panics
// if a flag is not registered.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}
	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	fields := make(map[string]int)
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		fields[name] = i
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		obj.Field(i).Set(reflect.ValueOf(fl.Value.(flag.Getter).Get()))
	}

	if conf.ConfigFile != "" {
		md, err := toml.DecodeFile(conf.ConfigFile, conf)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", conf.ConfigFile, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in config file %q: %v", conf.ConfigFile, undecoded)
		}
		// Flags set on the command line win over the file.
		flagSet.Visit(func(fl *flag.Flag) {
			if i, ok := fields[fl.Name]; ok {
				obj.Field(i).Set(reflect.ValueOf(fl.Value.(flag.Getter).Get()))
			}
		})
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json", "logrus":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text', 'json', or 'logrus'", c.LogFormat)
	}
	if c.RetryInitialInterval <= 0 {
		return fmt.Errorf("retry-initial-interval must be positive, got %v", c.RetryInitialInterval)
	}
	if c.RetryMaxElapsed < 0 {
		return fmt.Errorf("retry-max-elapsed must not be negative, got %v", c.RetryMaxElapsed)
	}
	return nil
}

// ProcessOptions returns the options for processes created under c.
func (c *Config) ProcessOptions() kernel.Options {
	return kernel.Options{
		DetectDeadlock:         c.DetectDeadlock,
		PreserveDeniedRequests: c.PreserveDeniedRequests,
	}
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		log.Infof("Config.%s: %v", st.Field(i).Name, obj.Field(i).Interface())
	}
}
