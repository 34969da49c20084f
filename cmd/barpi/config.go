package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/windoze/barpi/internal/actuator/hidgadget"
	"github.com/windoze/barpi/internal/actuator/serial"
)

// fileConfig is the on-disk TOML shape; it's decoded once and then
// merged with CLI flags into the session.Config/sink configs the core
// actually consumes.
type fileConfig struct {
	Server         string `toml:"server"`
	ScreenName     string `toml:"screen_name"`
	ScreenWidth    int    `toml:"screen_width"`
	ScreenHeight   int    `toml:"screen_height"`
	FlipMouseWheel bool   `toml:"flip_mouse_wheel"`
	Actuator       string `toml:"actuator"`

	HIDGadget struct {
		KeyboardDevice string
		MouseDevice    string
		ConsumerDevice string
	} `toml:"hid_gadget"`

	Serial struct {
		Device   string
		BaudRate int
	} `toml:"serial"`
}

const configFileName = "config.toml"

func defaultConfig() fileConfig {
	var c fileConfig
	c.Server = "localhost:24800"
	c.ScreenName = "barpi"
	c.ScreenWidth = 1920
	c.ScreenHeight = 1080
	c.FlipMouseWheel = false
	c.Actuator = "mock"
	c.HIDGadget.KeyboardDevice = "/dev/hidg0"
	c.HIDGadget.MouseDevice = "/dev/hidg1"
	c.HIDGadget.ConsumerDevice = "/dev/hidg2"
	c.Serial.Device = "/dev/ttyACM0"
	c.Serial.BaudRate = 115200
	return c
}

// loadConfig reads path if it exists, falling back to defaults for a
// missing file (first run) but failing fast on a malformed one, per
// spec.md section 7.
func loadConfig(path string) (fileConfig, error) {
	conf := defaultConfig()
	ok, err := exists(path)
	if err != nil {
		return conf, err
	}
	if !ok {
		log.Printf("config: no file at %s, using defaults", path)
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		log.Fatalf("config: couldn't parse %s: %v", path, err)
	}
	return conf, nil
}

func writeDefaultConfig(path string) error {
	dir := filepath.Dir(path)
	if ok, err := exists(dir); err != nil {
		return err
	} else if !ok {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	conf := defaultConfig()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&conf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func defaultConfigPath() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "barpi", configFileName)
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func xdgOrFallback(xdg, fallback string) string {
	dir := os.Getenv(xdg)
	if dir != "" {
		if ok, err := exists(dir); ok && err == nil {
			return dir
		}
	}
	return fallback
}

func (c fileConfig) hidGadgetConfig() hidgadget.Config {
	return hidgadget.Config{
		KeyboardDevice: c.HIDGadget.KeyboardDevice,
		MouseDevice:    c.HIDGadget.MouseDevice,
		ConsumerDevice: c.HIDGadget.ConsumerDevice,
	}
}

func (c fileConfig) serialConfig() serial.Config {
	return serial.Config{
		Device:   c.Serial.Device,
		BaudRate: uint32(c.Serial.BaudRate),
	}
}
