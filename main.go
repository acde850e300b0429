package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/farriolsartur/experiment/blocks"
	"github.com/farriolsartur/experiment/pipeline"
	"github.com/farriolsartur/experiment/push"

	"github.com/sirupsen/logrus"
)

func main() {
	cfgFile := flag.String("config", "cfg.yaml", "experiment config file")
	outDir := flag.String("out", pipeline.DefaultOutDir, "base directory for stage outputs")
	runDir := flag.String("run-dir", "", "directory reported into and pushed; defaults to \"run\" with the default -out, else to -out")
	pushDir := flag.String("push-dir", "", "copy the pushed run into this local directory instead of S3")
	logDir := flag.String("log-dir", filepath.Join("run", "logs"), "directory for run log files; empty disables")
	level := flag.String("log-level", "info", "console log level")
	project := flag.String("project", "experiment", "project name used in report titles and push prefixes")
	flag.Parse()

	lvl, err := logrus.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid log level:", err)
		os.Exit(2)
	}
	logger, closer, err := pipeline.InitLog(pipeline.LogOptions{Level: lvl, Dir: *logDir})
	if err != nil {
		fmt.Fprintln(os.Stderr, "init log:", err)
		os.Exit(1)
	}
	defer closer.Close()
	pipeline.SetGlobalLogger(logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithOutDir(*outDir),
		pipeline.WithProject(*project),
	}
	if *runDir != "" {
		opts = append(opts, pipeline.WithRunDir(*runDir))
	}
	if *pushDir != "" {
		opts = append(opts, pipeline.WithPublisher(&push.Dir{Root: *pushDir}))
	}
	if err := run(*cfgFile, logger, opts...); err != nil {
		logger.WithError(err).Error("Experiment failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfgFile string, logger *logrus.Logger, opts ...pipeline.Option) error {
	cfg, err := pipeline.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	reg := pipeline.NewRegistry()
	blocks.Register(reg)

	exp, err := pipeline.New(cfg, reg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := exp.Run(ctx); err != nil {
		return err
	}
	for _, e := range exp.ExtensionErrors() {
		logger.WithError(e).Warn("Post-run step failed")
	}
	return nil
}
