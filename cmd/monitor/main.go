package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crabzie/coresched/config/logger"
	config "github.com/crabzie/coresched/config/utils"
	"github.com/crabzie/coresched/internal/adapter/queue/rabbitmq"
	"github.com/crabzie/coresched/internal/core/domain"
	"go.uber.org/zap"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[37m"
)

func main() {
	rootCtx, rootCtxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCtxCancel()

	appConfig := config.New()
	log := logger.Build(appConfig.Logger).Named("Monitor")

	fmt.Println(colorCyan + "🚀 Scheduling Decision Monitor Starting..." + colorReset)
	fmt.Println(colorGray + "Listening for decisions on " + appConfig.MQ.DecisionsExchange + "..." + colorReset)
	fmt.Println("-------------------------------------------------------------------------")

	queue, err := rabbitmq.NewQueueService(rootCtx, appConfig.MQ, log)
	if err != nil {
		fmt.Printf("Error connecting to RabbitMQ: %v\n", err)
		os.Exit(1)
	}
	defer queue.Close()

	err = queue.ConsumeDecisions(rootCtx, func(d domain.Decision) {
		fmt.Println(prettify(d))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Decision stream stopped", zap.Error(err))
	}
}

func coreLabel(core int) string {
	if core == domain.NoCore {
		return colorGray + "QUEUE " + colorReset
	}
	colors := []string{colorBlue, colorPurple, colorCyan}
	return fmt.Sprintf("%sCORE-%d%s", colors[core%len(colors)], core, colorReset)
}

// prettify renders one decision as a colored, human readable line
func prettify(d domain.Decision) string {
	run := d.RunID
	if len(run) > 8 {
		run = run[:8]
	}
	prefix := fmt.Sprintf("[%s %-4s t=%-4d] [%s]", run, d.Policy, d.Time, coreLabel(d.Core))

	var line string
	switch d.Kind {
	case domain.DecisionArrival:
		line = fmt.Sprintf("📥 "+colorYellow+"Dispatched on arrival:"+colorReset+" job %d", d.JobID)
	case domain.DecisionQueued:
		line = fmt.Sprintf("⏳ Queued: job %d", d.JobID)
	case domain.DecisionPreempt:
		evicted := "?"
		if d.Evicted != nil {
			evicted = fmt.Sprint(*d.Evicted)
		}
		line = fmt.Sprintf("⚡ "+colorRed+"Preempted:"+colorReset+" job %s for job %d", evicted, d.JobID)
	case domain.DecisionFinish:
		line = fmt.Sprintf("✅ "+colorGreen+"Finished, now running:"+colorReset+" job %d", d.JobID)
	case domain.DecisionIdle:
		line = fmt.Sprintf("✅ "+colorGreen+"Finished:"+colorReset+" job %d, core idle", d.JobID)
	case domain.DecisionQuantum:
		line = fmt.Sprintf("🔄 "+colorBlue+"Quantum expired, now running:"+colorReset+" job %d", d.JobID)
	case domain.DecisionContinue:
		line = fmt.Sprintf("⚙️  Quantum expired, job %d keeps the core", d.JobID)
	default:
		line = fmt.Sprintf("%s job %d", d.Kind, d.JobID)
	}

	return fmt.Sprintf("%s %s  %squeue=[%s]%s", prefix, line, colorGray, d.Queue, colorReset)
}
