package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	// job describes one scene to process
	job struct {
		TOC    string `yaml:"toc"`
		SOI    string `yaml:"soi"`
		STR    string `yaml:"str"`
		Layout string `yaml:"layout"`
		Dest   string `yaml:"dest"`
	}

	jobFile struct {
		Scenes []job `yaml:"scenes"`
	}
)

func loadJobs(path string) ([]job, error) {
	data, err := os.ReadFile(path) //#nosec:G304 // Intended to open arbitrary files
	if err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}

	var f jobFile
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing jobs file: %w", err)
	}

	for i, j := range f.Scenes {
		if j.TOC == "" || j.SOI == "" || j.STR == "" {
			return nil, fmt.Errorf("scene %d: toc, soi and str paths are required", i)
		}
	}

	return f.Scenes, nil
}

// withDefaults fills the values not given for the scene from the
// command line flags
func (j job) withDefaults(dest, layout string) job {
	if j.Dest == "" {
		j.Dest = dest
	}
	if j.Layout == "" {
		j.Layout = layout
	}
	return j
}
