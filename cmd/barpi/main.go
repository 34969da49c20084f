package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/windoze/barpi/internal/actuator"
	"github.com/windoze/barpi/internal/actuator/hidgadget"
	"github.com/windoze/barpi/internal/actuator/mock"
	"github.com/windoze/barpi/internal/actuator/serial"
	"github.com/windoze/barpi/internal/session"
)

var version = "unknown" // set by build

func main() {
	opt := parseCLIOpts()
	setupLogging(opt.verbose)
	log.Printf("barpi starting. Version: %s", version)

	path := opt.config
	if path == "" {
		path = defaultConfigPath()
	}
	if ok, _ := exists(path); !ok {
		if err := writeDefaultConfig(path); err != nil {
			log.Printf("config: couldn't write default config at %s: %v", path, err)
		}
	}
	conf, err := loadConfig(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	conf = opt.applyOverrides(conf)

	reg := buildRegistry(conf)
	act, err := reg.Build(conf.Actuator)
	if err != nil {
		log.Fatalf("actuator: %v", err)
	}
	if closer, ok := act.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	sess := session.New(session.Config{
		ScreenName:     conf.ScreenName,
		ScreenWidth:    uint16(conf.ScreenWidth),
		ScreenHeight:   uint16(conf.ScreenHeight),
		FlipMouseWheel: conf.FlipMouseWheel,
	}, act)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("received signal %v, shutting down", s)
		cancel()
	}()

	sv := session.NewSupervisor(conf.Server, sess)
	if err := sv.Run(ctx); err != nil && err != session.ErrCancelled {
		log.Fatalf("session: %v", err)
	}
	log.Println("barpi stopped")
}

func buildRegistry(conf fileConfig) *actuator.Registry {
	reg := actuator.NewRegistry()
	width, height := uint16(conf.ScreenWidth), uint16(conf.ScreenHeight)

	reg.Register("mock", func() (actuator.Actuator, error) {
		return mock.New(width, height), nil
	})
	reg.Register("hidgadget", func() (actuator.Actuator, error) {
		return hidgadget.Open(conf.hidGadgetConfig(), width, height)
	})
	reg.Register("serial", func() (actuator.Actuator, error) {
		return serial.Open(conf.serialConfig(), width, height)
	})
	return reg
}
