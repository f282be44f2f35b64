package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ibtbridge/config"
	"ibtbridge/metrics"
	"ibtbridge/redis"
	"ibtbridge/workers"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "ibtbridge",
		Short: "IBT bridge wallet dashboard",
		Run:   func(cmd *cobra.Command, args []string) { _ = cmd.Help() },
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the EVM and Sui wallet panels over HTTP.",
		Run:   func(cmd *cobra.Command, args []string) { serve() },
	}
	balanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "Connect both wallets once and print their IBT balances.",
		RunE:  func(cmd *cobra.Command, args []string) error { return printBalances(cmd.Context()) },
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the yaml config")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(balanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(-1)
	}
}

func openLogFile() *os.File {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		log.Fatalf("error creating log directory: %v", err)
	}
	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	return f
}

func serve() {
	log.Print("Starting IBT bridge dashboard")

	f := openLogFile()
	defer f.Close()
	log.SetOutput(f)

	config.Init(configPath)

	if config.Config.Server.RedisEnabled {
		redis.Init(fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort))
		if err := redis.Ping(); err != nil {
			log.Fatalf("error connecting to Redis: %s", err)
		}
		defer redis.Close()
	}

	d, err := buildDashboard(&config.Config, metrics.NewMetricManager())
	if err != nil {
		log.Fatalf("error building panels: %s", err)
	}
	defer d.Close()

	// the HTTP service is the main worker thread
	workers.Worker_HTTP(d.Dashboard)
}

func printBalances(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.Config = cfg

	d, err := buildDashboard(&config.Config, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	for _, name := range []string{"eth", "sui"} {
		p := d.Panels[name]
		if _, err := p.Connect(ctx); err != nil {
			fmt.Printf("%s: %s\n", name, err)
			continue
		}
		if err := p.Refresh(ctx); err != nil {
			log.Printf("Error reading %s balance: %s", name, err)
		}
		view := p.View()
		fmt.Printf("%s %s: %s", name, view.Connection.Address, view.Balance)
		if view.NativeBalance != "" {
			fmt.Printf(" (%s)", view.NativeBalance)
		}
		fmt.Println()
		p.Disconnect(ctx)
	}
	return nil
}
