// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"strings"
	"sync"

	"github.com/cocowh/lineecho/core/config/parser"
	"github.com/cocowh/lineecho/core/echo"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "LINEECHO"

var defaults = map[string]any{
	"server.address":       "localhost",
	"server.port":          8080,
	"server.mode":          echo.SingleShot.String(),
	"server.read_timeout":  "0s",
	"server.write_timeout": "0s",
	"server.max_line_size": 1 << 20,

	"logger.level":             "info",
	"logger.format":            "text",
	"logger.stdout":            true,
	"logger.log_dir":           "",
	"logger.base_name":         "lineecho",
	"logger.max_size_mb":       100,
	"logger.max_age_days":      7,
	"logger.max_backups":       3,
	"logger.compress":          false,
	"logger.enable_error_file": false,
}

// ConfigManager layers defaults, an optional config file, LINEECHO_*
// environment variables and bound command line flags, in increasing order of
// precedence.
type ConfigManager struct {
	viper *viper.Viper
	path  string
	mutex sync.RWMutex
}

// NewConfigManager loads configPath when it is not empty and validates the
// result.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cm := &ConfigManager{viper: v, path: configPath}
	if err := cm.load(); err != nil {
		return nil, err
	}
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	return cm, nil
}

func (cm *ConfigManager) load() error {
	if cm.path == "" {
		return nil
	}
	data, err := os.ReadFile(cm.path)
	if err != nil {
		code := errors.ErrCodeConfigInvalid
		if os.IsNotExist(err) {
			code = errors.ErrCodeConfigNotFound
		}
		return errors.Wrap(err, code, errors.CategoryConfig, errors.LevelError, "failed to read config file").
			WithContext("config_path", cm.path)
	}

	p := parser.ForPath(cm.path)
	values, err := p.Parse(data)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigParseError, errors.CategoryConfig, errors.LevelError, "failed to parse config file").
			WithContext("config_path", cm.path).
			WithContext("format", p.Format())
	}
	if err := cm.viper.MergeConfigMap(values); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigParseError, errors.CategoryConfig, errors.LevelError, "failed to merge config file").
			WithContext("config_path", cm.path)
	}
	return nil
}

// BindFlag makes a command line flag override key when it was set.
func (cm *ConfigManager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.ConfigErrorf(errors.ErrCodeConfigInvalid, "no flag to bind for key %q", key)
	}
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	return cm.viper.BindPFlag(key, flag)
}

func (cm *ConfigManager) Set(key string, value any) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.viper.Set(key, value)
}

// Validate reports every invalid value at once.
func (cm *ConfigManager) Validate() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var err error
	if port := cm.viper.GetInt("server.port"); port < 0 || port > 65535 {
		err = multierr.Append(err, errors.ValidationErrorf(errors.ErrCodeValidationRange, "server.port %d out of range", port))
	}
	if _, modeErr := echo.ParseMode(cm.viper.GetString("server.mode")); modeErr != nil {
		err = multierr.Append(err, modeErr)
	}
	for _, key := range []string{"server.read_timeout", "server.write_timeout"} {
		if cm.viper.GetDuration(key) < 0 {
			err = multierr.Append(err, errors.ValidationErrorf(errors.ErrCodeValidationRange, "%s must not be negative", key))
		}
	}
	if cm.viper.GetInt("server.max_line_size") < 0 {
		err = multierr.Append(err, errors.ValidationErrorf(errors.ErrCodeValidationRange, "server.max_line_size must not be negative"))
	}
	if _, levelErr := logger.ParseLevel(cm.viper.GetString("logger.level")); levelErr != nil {
		err = multierr.Append(err, errors.ValidationErrorf(errors.ErrCodeValidationFormat, "logger.level: %v", levelErr))
	}
	switch f := cm.viper.GetString("logger.format"); f {
	case "text", "json":
	default:
		err = multierr.Append(err, errors.ValidationErrorf(errors.ErrCodeValidationFormat, "logger.format %q is not text or json", f))
	}

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, errors.CategoryConfig, errors.LevelError, "invalid configuration").
			WithContext("config_path", cm.path)
	}
	return nil
}

func (cm *ConfigManager) GetServerConfig() ServerConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	mode, _ := echo.ParseMode(cm.viper.GetString("server.mode"))
	return ServerConfig{
		Address:      cm.viper.GetString("server.address"),
		Port:         cm.viper.GetInt("server.port"),
		Mode:         mode,
		ReadTimeout:  cm.viper.GetDuration("server.read_timeout"),
		WriteTimeout: cm.viper.GetDuration("server.write_timeout"),
		MaxLineSize:  cm.viper.GetInt("server.max_line_size"),
	}
}

func (cm *ConfigManager) GetLoggerConfig() LoggerConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	level, _ := logger.ParseLevel(cm.viper.GetString("logger.level"))
	return LoggerConfig{
		Level:           level,
		Format:          cm.viper.GetString("logger.format"),
		Stdout:          cm.viper.GetBool("logger.stdout"),
		LogDir:          cm.viper.GetString("logger.log_dir"),
		BaseName:        cm.viper.GetString("logger.base_name"),
		MaxSizeMB:       cm.viper.GetInt("logger.max_size_mb"),
		MaxAgeDays:      cm.viper.GetInt("logger.max_age_days"),
		MaxBackups:      cm.viper.GetInt("logger.max_backups"),
		Compress:        cm.viper.GetBool("logger.compress"),
		EnableErrorFile: cm.viper.GetBool("logger.enable_error_file"),
	}
}
