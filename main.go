package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Luzifer/rconfig/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o640

	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 7
)

var (
	cfg = struct {
		Dest           string `flag:"dest,d" default:"." description:"Path prefix to use to extract files to"`
		DumpScene      bool   `flag:"dump-scene" default:"false" description:"Write a scene description (.scn) listing model placements"`
		Extract        bool   `flag:"extract,x" default:"false" description:"Extract components (if not given components are just listed)"`
		FailFast       bool   `flag:"fail-fast" default:"false" description:"Abort on the first component which cannot be extracted"`
		GLTF           bool   `flag:"gltf" default:"false" description:"Write a binary glTF preview next to each collision model"`
		Jobs           string `flag:"jobs" default:"" description:"YAML file listing scenes to process instead of positional arguments"`
		Layout         string `flag:"layout" default:"" description:"Collision payload layout of the game (packed, aligned)"`
		LogFile        string `flag:"log-file" default:"" description:"Additionally write logs to this file (rotated)"`
		LogLevel       string `flag:"log-level" default:"info" description:"Log level (debug, info, warn, error, fatal)"`
		VersionAndExit bool   `flag:"version" default:"false" description:"Prints current version and exits"`
		Workers        int    `flag:"workers" default:"1" description:"Number of components of a section processed in parallel"`
	}{}

	version = "dev"
)

func initApp() (err error) {
	if err = rconfig.ParseAndValidate(&cfg); err != nil {
		return fmt.Errorf("parsing CLI options: %w", err)
	}

	l, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log-level: %w", err)
	}
	logrus.SetLevel(l)

	if cfg.LogFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
			LocalTime:  true,
		}))
	}

	if cfg.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	return nil
}

func main() {
	var err error
	if err = initApp(); err != nil {
		logrus.WithError(err).Fatal("initializing app")
	}

	if cfg.VersionAndExit {
		fmt.Printf("soi-extract %s\n", version) //nolint:forbidigo
		os.Exit(0)
	}

	var (
		jobs   []job
		filter []string
	)

	if cfg.Jobs != "" {
		if jobs, err = loadJobs(cfg.Jobs); err != nil {
			logrus.WithError(err).Fatal("loading jobs file")
		}
		filter = rconfig.Args()[1:]
	} else {
		args := rconfig.Args()
		if len(args) < 4 { //nolint:mnd
			logrus.Fatal("usage: soi-extract [options] <scene.toc> <scene.soi> <scene.str> [component paths...]")
		}
		jobs = []job{{TOC: args[1], SOI: args[2], STR: args[3]}}
		filter = args[4:]
	}

	for _, j := range jobs {
		j = j.withDefaults(cfg.Dest, cfg.Layout)

		logger := logrus.WithField("scene", j.TOC)
		if err = runJob(j, options{
			extract:   cfg.Extract,
			dumpScene: cfg.DumpScene,
			gltf:      cfg.GLTF,
			failFast:  cfg.FailFast,
			workers:   cfg.Workers,
			filter:    filter,
		}, logger); err != nil {
			logger.WithError(err).Fatal("processing scene")
		}
	}
}
