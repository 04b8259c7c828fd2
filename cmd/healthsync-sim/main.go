package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"healthsync/common/logger"
	mqttcommon "healthsync/common/mqtt"
	rediscommon "healthsync/common/redis"
	"healthsync/internal/client"
	"healthsync/internal/config"
	"healthsync/internal/simulator"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "healthsync-sim",
		Short:        "Patient telemetry simulator for the HealthSync dashboard",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(emitCmd())
	rootCmd.AddCommand(scenariosCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func emitCmd() *cobra.Command {
	var (
		patients []string
		scenario string
		count    int
		interval time.Duration
		sinkArgs []string
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Generate readings for one or more patients and send them to the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := simulator.Lookup(scenario)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthsync-sim")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sinks, closeSinks, err := buildSinks(ctx, cfg, sinkArgs, log)
			if err != nil {
				return err
			}
			defer closeSinks()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			sim := simulator.NewSimulator(simulator.NewGenerator(seed), sinks, log)
			runErr := sim.Run(ctx, simulator.RunOptions{
				PatientIDs: patients,
				Scenario:   sc,
				Count:      count,
				Interval:   interval,
			})

			if err := printStats(cmd.OutOrStdout(), sim.Stats()); err != nil {
				return err
			}
			if runErr != nil && ctx.Err() == nil {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&patients, "patient", "p", nil, "patient id (repeatable or comma separated)")
	cmd.Flags().StringVarP(&scenario, "scenario", "s", simulator.ScenarioNormal, "scenario: normal, warning or critical")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "rounds per patient; 0 runs until interrupted")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "delay between rounds")
	cmd.Flags().StringSliceVar(&sinkArgs, "sink", []string{simulator.SinkHTTP}, "sinks: http, mqtt, redis")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the available telemetry scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHEART RATE\tSPO2\tEXPECTED\tDESCRIPTION")
			for _, sc := range simulator.Scenarios() {
				fmt.Fprintf(w, "%s\t%d-%d\t%d-%d\t%s\t%s\n",
					sc.Name, sc.HeartRateMin, sc.HeartRateMax, sc.OxygenMin, sc.OxygenMax, sc.Expected, sc.Description)
			}
			return w.Flush()
		},
	}
}

// buildSinks 按名称创建 sink；返回的 close 函数释放连接
func buildSinks(ctx context.Context, cfg *config.Config, names []string, log *zap.Logger) ([]simulator.Sink, func(), error) {
	var sinks []simulator.Sink
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case simulator.SinkHTTP:
			api := client.NewAPIClient(cfg.API.BaseURL, cfg.API.Timeout, log)
			sinks = append(sinks, simulator.NewHTTPSink(api))
		case simulator.SinkMQTT:
			mqttCfg := cfg.MQTT
			mqttCfg.ClientID = mqttCfg.ClientID + "-sim"
			c, err := mqttcommon.NewClient(&mqttCfg, log)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, c.Disconnect)
			sinks = append(sinks, simulator.NewMQTTSink(c, cfg.MQTT.TelemetryTopic))
		case simulator.SinkRedis:
			c, err := rediscommon.NewRedisClient(ctx, &cfg.Redis)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, func() { _ = c.Close() })
			sinks = append(sinks, simulator.NewStreamSink(c, cfg.Stream.Name, cfg.Stream.MaxLen))
		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown sink %q (expected http, mqtt or redis)", name)
		}
	}
	return sinks, closeAll, nil
}

func printStats(w io.Writer, s simulator.StatsSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
