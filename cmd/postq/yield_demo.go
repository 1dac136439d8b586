package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postq/internal/host"
	"postq/internal/sched"
)

var yieldDemoCmd = &cobra.Command{
	Use:   "yield-demo",
	Short: "Post a long-running task that cooperatively yields mid-flight",
	RunE:  runYieldDemo,
}

func runYieldDemo(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg := sched.Load(configPath)

	loop := host.NewLoop(host.LoopConfig{
		ImmediateBuffer: cfg.ImmediateBuffer,
		IdleSlice:       time.Duration(cfg.IdleSliceMS) * time.Millisecond,
	})
	s := sched.New(loop, cfg)

	long := s.PostTask(func(ctx context.Context) (any, error) {
		fmt.Println("long task: first half")
		yielded := s.Yield(sched.YieldOptions{})
		if _, err := yielded.Await(ctx); err != nil {
			return nil, err
		}
		fmt.Println("long task: second half, after yielding")
		return "done", nil
	}, sched.Options{})

	_ = s.PostTask(func(ctx context.Context) (any, error) {
		fmt.Println("queued user-visible task, run after the boosted yield continuation")
		return nil, nil
	}, sched.Options{})

	v, err := long.Await(context.Background())
	if err != nil {
		return err
	}
	fmt.Println("result:", v)
	time.Sleep(10 * time.Millisecond) // let any trailing recorder I/O flush
	return nil
}
