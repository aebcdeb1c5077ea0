package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/forward/internal/backend"
	"github.com/born-ml/forward/internal/config"
	"github.com/born-ml/forward/internal/logger"
	"github.com/born-ml/forward/internal/tensor"
)

// loadConfig reads the config file and environment, then applies the
// flags that were set explicitly.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("device") {
		cfg.Device = cmd.String("device")
	}
	if cmd.IsSet("device-id") {
		cfg.DeviceID = int(cmd.Int64("device-id"))
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}
	return cfg, cfg.Validate()
}

// setup builds the logger and tensor context described by the
// configuration. The returned function releases the device runtimes.
func setup(cmd *cli.Command) (*tensor.Context, logger.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := cfg.Logger(cmd.Root().ErrWriter)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, closeFn, err := backend.NewContext(cfg.Device, cfg.DeviceID, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, log, closeFn, nil
}
