package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/jobstore"
	"hunyuan3d/internal/service"
)

func main() {
	var (
		jobFlag     string
		refreshFlag bool
		timeoutFlag time.Duration
	)
	flag.StringVar(&jobFlag, "job", "", "Job id to inspect")
	flag.BoolVar(&refreshFlag, "refresh", false, "Query the provider and overwrite the local record first")
	flag.DurationVar(&timeoutFlag, "timeout", time.Minute, "Overall timeout")
	flag.Parse()

	_ = godotenv.Load()

	jobID := strings.TrimSpace(jobFlag)
	if jobID == "" {
		fmt.Fprintln(os.Stderr, "-job is required")
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "jobctl").Str("job_id", jobID).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	var job domain.Job
	if refreshFlag {
		svc, closeStore, err := service.Build(ctx, cfg, &logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build service: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()
		job, err = svc.Status(ctx, jobID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		jobs, closeStore, err := jobstore.Open(ctx, cfg, &logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open job store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()
		job, err = jobs.Get(ctx, jobID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(job); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode job: %v\n", err)
		os.Exit(1)
	}
}
