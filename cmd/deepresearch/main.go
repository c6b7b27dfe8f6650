package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	workflow   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deepresearch",
		Short: "Deep Research Assistant - search, summarize and synthesize research reports",
		Long: `A research assistant coordinating three agents: a search agent gathers
information, a summarizer condenses it and a synthesizer writes a structured
research report. A manager agent is instructed to call them in that order.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file path (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&workflow, "workflow", "", "override workflow: advisory or strict")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive terminal chat",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "listen address (overrides server.address)")

	askCmd := &cobra.Command{
		Use:   "ask [topic]",
		Short: "Research a single topic and print the report",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().StringP("out", "o", "", "also write the report to this file")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(chatCmd, serveCmd, askCmd, configCmd)

	return rootCmd
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
