package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postq/internal/host"
	"postq/internal/job"
	"postq/internal/priority"
	"postq/internal/sched"
	"postq/internal/signal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Post a small demo workload across all three priorities and watch dispatch order",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	csvPath, _ := cmd.Flags().GetString("csv")

	cfg := sched.Load(configPath)

	var recorders []sched.Recorder
	recorders = append(recorders, sched.NewSlogRecorder(nil))
	if csvPath != "" {
		rec, err := sched.NewCSVRecorder(csvPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		recorders = append(recorders, rec)
	}

	loop := host.NewLoop(host.LoopConfig{
		ImmediateBuffer: cfg.ImmediateBuffer,
		IdleSlice:       time.Duration(cfg.IdleSliceMS) * time.Millisecond,
	})
	s := sched.New(loop, cfg, recorders...)

	ctx := context.Background()
	ub, uv, bg := priority.UserBlocking, priority.UserVisible, priority.Background

	fut1 := s.PostTask(job.SleepWork("background-1", 10*time.Millisecond), sched.Options{Priority: &bg})
	fut2 := s.PostTask(job.SleepWork("user-visible-1", 10*time.Millisecond), sched.Options{Priority: &uv})
	fut3 := s.PostTask(job.SleepWork("user-blocking-1", 10*time.Millisecond), sched.Options{Priority: &ub})

	ctrl, err := signal.NewTaskController(signal.ControllerOptions{Priority: &uv})
	if err != nil {
		return err
	}
	fut4 := s.PostTask(job.SleepWork("controller-task", 10*time.Millisecond), sched.Options{Signal: ctrl.Signal()})
	time.AfterFunc(2*time.Millisecond, func() { _ = ctrl.SetPriority(priority.UserBlocking) })

	delayed := s.PostTask(job.SleepWork("delayed-background", 5*time.Millisecond), sched.Options{Priority: &bg, Delay: 3 * time.Millisecond})

	for _, f := range []interface {
		Await(context.Context) (any, error)
	}{fut1, fut2, fut3, fut4, delayed} {
		v, err := f.Await(ctx)
		if err != nil {
			fmt.Println("task failed:", err)
			continue
		}
		fmt.Println("task finished:", v)
	}
	return nil
}
