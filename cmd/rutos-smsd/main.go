package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/danielfett/miqro-rutos-sms/internal/bridge"
	"go.uber.org/fx"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	flag.Parse()

	app := fx.New(
		bridge.Module(bridge.Params{ConfigPath: *configPath}),
	)

	app.Run()
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rutos-sms", "config.toml")
}
