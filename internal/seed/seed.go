// Package seed loads job postings used to populate an empty board.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sahilg28/skillsync-backend/internal/jobboard"
)

//go:embed jobs.yaml
var defaultJobs []byte

type file struct {
	Jobs []entry `yaml:"jobs"`
}

type entry struct {
	jobboard.Job `yaml:",inline"`
	Active       *bool `yaml:"isActive"`
}

// Load reads jobs from path, or the built-in set when path is empty. Every
// job is normalized and validated.
func Load(path string) ([]*jobboard.Job, error) {
	data := defaultJobs
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) ([]*jobboard.Job, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, errors.New("seed file contains no jobs")
	}

	jobs := make([]*jobboard.Job, 0, len(f.Jobs))
	for i, e := range f.Jobs {
		job := e.Job.Clone()
		job.IsActive = e.Active == nil || *e.Active
		job.Normalize()
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("seed job #%d (%q): %w", i+1, job.Title, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
