package main

import (
	"flag"
	"io"
	"log"
	"os"
)

// cliOpts mirrors the teacher's flat CLIOpts struct: one bool/string
// field per flag, parsed once at startup and layered over the file
// config.
type cliOpts struct {
	verbose  bool
	config   string
	server   string
	screen   string
	actuator string
}

func parseCLIOpts() cliOpts {
	var opt cliOpts
	flag.BoolVar(&opt.verbose, "v", false, "Verbose output (print logs to stderr)")
	flag.StringVar(&opt.config, "config", "", "Path to config.toml (default: $XDG_CONFIG_HOME/barpi/config.toml)")
	flag.StringVar(&opt.server, "server", "", "Barrier server host:port, overrides config file")
	flag.StringVar(&opt.screen, "screen", "", "Screen name to register as, overrides config file")
	flag.StringVar(&opt.actuator, "actuator", "", "Actuator sink: hidgadget, serial, or mock; overrides config file")
	flag.Parse()
	return opt
}

func setupLogging(verbose bool) {
	if verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

// applyOverrides layers non-empty CLI flags over the file config,
// matching the teacher's pattern of flags winning over the TOML
// defaults.
func (opt cliOpts) applyOverrides(conf fileConfig) fileConfig {
	if opt.server != "" {
		conf.Server = opt.server
	}
	if opt.screen != "" {
		conf.ScreenName = opt.screen
	}
	if opt.actuator != "" {
		conf.Actuator = opt.actuator
	}
	return conf
}
