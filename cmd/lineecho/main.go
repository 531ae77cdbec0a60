// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cocowh/lineecho/core/config"
	"github.com/cocowh/lineecho/core/tcp"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lineecho",
	Short:         "lineecho is a line-oriented TCP echo service",
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the echo server",
	RunE:  runServer,
}

var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send one line to an echo server and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lineecho",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lineecho version %s\n", rootCmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, sendCmd, versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringP("address", "a", "localhost", "server host")
	rootCmd.PersistentFlags().IntP("port", "p", 8080, "server port")
}

// loadConfig builds the config manager and installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.ConfigManager, logger.Logger, error) {
	cm, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cm.BindFlag("server.address", cmd.Flag("address")); err != nil {
		return nil, nil, err
	}
	if err := cm.BindFlag("server.port", cmd.Flag("port")); err != nil {
		return nil, nil, err
	}
	if err := cm.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.InitDefaultLogger(cm.GetLoggerConfig().ToLoggerConfig())
	if err != nil {
		return nil, nil, err
	}
	return cm, log, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cm, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLogger(log)

	sc := cm.GetServerConfig()
	if configPath != "" {
		log.Infof("using configuration file: %s", configPath)
	}

	server := tcp.NewServer("tcp", sc.ListenAddr(), &tcp.ServerOptions{
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		MaxLineSize:  sc.MaxLineSize,
		Mode:         sc.Mode,
		Logger:       log,
	})
	if err := server.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down lineecho server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("error during shutdown: %v", err)
		return err
	}
	stats := server.Stats()
	log.Infof("lineecho server stopped, accepted: %d, messages: %d, failures: %d", stats.Accepted, stats.Messages, stats.Failures)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cm, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLogger(log)

	sc := cm.GetServerConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := tcp.NewClientOptions()
	opts.Logger = log
	client, err := tcp.Dial(ctx, "tcp", sc.ListenAddr(), opts)
	if err != nil {
		return err
	}
	defer client.Close()

	message := strings.Join(args, " ")
	log.Debugf("sending message: %s", message)
	reply, err := client.Echo(ctx, []byte(message))
	if err != nil {
		return err
	}
	fmt.Println(string(reply))
	return nil
}

func closeLogger(l logger.Logger) {
	if c, ok := l.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.IsBindError(err) || errors.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
