package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/crabzie/coresched/internal/core/domain"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[37m"
)

// printSummaries writes one row per run, best average turnaround first
func printSummaries(out io.Writer, runs []*domain.RunSummary) error {
	sorted := append([]*domain.RunSummary(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AverageTurnaroundTime < sorted[j].AverageTurnaroundTime
	})

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tAVG WAIT\tAVG TURNAROUND\tAVG RESPONSE\tMAKESPAN\tDISPATCHES\tPREEMPTIONS\tROTATIONS")
	for _, r := range sorted {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t%d\t%d\t%d\n",
			r.Policy,
			r.AverageWaitingTime,
			r.AverageTurnaroundTime,
			r.AverageResponseTime,
			r.Makespan,
			r.Dispatches,
			r.Preemptions,
			r.Rotations)
	}
	return tw.Flush()
}

// printJobs writes the per-job timeline of a single run
func printJobs(out io.Writer, run *domain.RunSummary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tARRIVAL\tLENGTH\tPRIORITY\tFIRST START\tCOMPLETION\tWAIT\tTURNAROUND\tPREEMPTED")
	for _, j := range run.Jobs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			j.JobID,
			j.ArrivalTime,
			j.Length,
			j.Priority,
			j.FirstStartTime,
			j.CompletionTime,
			j.WaitingTime(),
			j.TurnaroundTime(),
			j.Preemptions)
	}
	return tw.Flush()
}

type traceSink struct {
	mu  sync.Mutex
	out io.Writer
}

func newTraceSink(out io.Writer) *traceSink {
	return &traceSink{out: out}
}

func kindColor(k domain.DecisionKind) string {
	switch k {
	case domain.DecisionPreempt:
		return colorRed
	case domain.DecisionFinish:
		return colorGreen
	case domain.DecisionQuantum:
		return colorYellow
	case domain.DecisionArrival:
		return colorBlue
	default:
		return colorGray
	}
}

// formatDecision renders one decision line: time, policy, kind, placement and queue
func formatDecision(d domain.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%-4d %-4s %s%-8s%s", d.Time, d.Policy, kindColor(d.Kind), d.Kind, colorReset)
	if d.Core >= 0 {
		fmt.Fprintf(&b, " core=%d", d.Core)
	}
	fmt.Fprintf(&b, " job=%d", d.JobID)
	if d.Evicted != nil {
		fmt.Fprintf(&b, " evicted=%d", *d.Evicted)
	}
	fmt.Fprintf(&b, " queue=[%s]", d.Queue)
	return b.String()
}

func (s *traceSink) Decide(_ context.Context, d domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, formatDecision(d))
	return err
}
