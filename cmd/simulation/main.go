package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crabzie/coresched/config/logger"
	config "github.com/crabzie/coresched/config/utils"
	"github.com/crabzie/coresched/internal/adapter/queue/rabbitmq"
	"github.com/crabzie/coresched/internal/adapter/workload"
	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"github.com/crabzie/coresched/internal/core/service"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet("simulation", pflag.ExitOnError)
	workloadPath := flags.StringP("workload", "w", "workload.yaml", "Workload file to simulate")
	flags.StringP("policy", "p", "", "Scheduling policy: FCFS, SJF, PSJF, PRI, PPRI or RR")
	flags.IntP("cores", "c", 0, "Number of cores when the workload does not say")
	flags.IntP("quantum", "q", 0, "Round robin quantum when the workload does not say")
	all := flags.BoolP("all", "a", false, "Simulate the workload under every policy")
	trace := flags.BoolP("trace", "t", false, "Print every scheduling decision")
	publish := flags.Bool("publish", false, "Send the workload to the scheduler service over RabbitMQ instead of simulating locally")
	flags.Parse(os.Args[1:])

	viper.BindPFlag("simulation.policy", flags.Lookup("policy"))
	viper.BindPFlag("simulation.cores", flags.Lookup("cores"))
	viper.BindPFlag("simulation.quantum", flags.Lookup("quantum"))

	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	appConfig := config.New()
	log := logger.Build(appConfig.Logger).Named("Simulation")

	defaults := workload.Defaults{
		Policy:  domain.Policy(appConfig.Simulation.Policy),
		Cores:   appConfig.Simulation.Cores,
		Quantum: appConfig.Simulation.Quantum,
	}
	w, err := workload.Load(*workloadPath, defaults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	// Explicit flags win over the workload file
	if flags.Changed("policy") {
		w.Policy = defaults.Policy
	}
	if flags.Changed("cores") {
		w.Cores = defaults.Cores
	}
	if flags.Changed("quantum") {
		w.Quantum = defaults.Quantum
	}

	var policies []domain.Policy
	if !*all {
		p, err := domain.ParsePolicy(string(w.Policy))
		if err != nil {
			log.Fatal("Unsupported policy", zap.String("workload", w.Name), zap.Error(err))
		}
		policies = []domain.Policy{p}
	}

	if *publish {
		if err := publishRequest(rootCtx, appConfig.MQ, w, policies, log); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to publish %s: %v\n", w.Name, err)
			os.Exit(1)
		}
		fmt.Printf("📤 Published %s (%d jobs) to %s\n", w.Name, len(w.Jobs), appConfig.MQ.RequestQueue)
		return
	}

	var sink port.DecisionSink
	if *trace {
		sink = newTraceSink(os.Stdout)
	}
	simulator := service.NewSimulatorService(nil, sink, log)

	fmt.Printf("🚀 Simulating %s: %d jobs on %d core(s)\n", w.Name, len(w.Jobs), w.Cores)
	runs, err := simulator.Sweep(rootCtx, w, policies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Simulation failed: %v\n", err)
		os.Exit(1)
	}

	if err := printSummaries(os.Stdout, runs); err != nil {
		log.Error("Failed to print results", zap.Error(err))
	}
	if len(runs) == 1 {
		printJobs(os.Stdout, runs[0])
	}
}

func publishRequest(ctx context.Context, cfg *config.MQ, w *domain.Workload, policies []domain.Policy, log *zap.Logger) error {
	if len(policies) == 1 {
		if err := w.Validate(policies[0]); err != nil {
			return err
		}
	}

	queue, err := rabbitmq.NewQueueService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer queue.Close()

	return queue.PublishRequest(ctx, &domain.SimulationRequest{
		ID:       uuid.NewString(),
		Workload: *w,
		Policies: policies,
		SentAt:   time.Now().UTC(),
	})
}
