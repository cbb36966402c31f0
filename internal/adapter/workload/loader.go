// Package workload reads simulation workloads from YAML files.
package workload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/crabzie/coresched/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Defaults fill the fields a workload file leaves out.
type Defaults struct {
	Policy  domain.Policy
	Cores   int
	Quantum int
}

// Decode parses one YAML workload. Unknown keys are rejected.
func Decode(r io.Reader) (*domain.Workload, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var w domain.Workload
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty workload", domain.ErrInvalidWorkload)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWorkload, err)
	}
	if w.Policy != "" {
		p, err := domain.ParsePolicy(string(w.Policy))
		if err != nil {
			return nil, err
		}
		w.Policy = p
	}
	return &w, nil
}

// Load reads the workload at path and applies defaults. A nameless workload is
// named after its file.
func Load(path string, d Defaults) (*domain.Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if w.Name == "" {
		w.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if w.Policy == "" {
		w.Policy = d.Policy
	}
	if w.Cores == 0 {
		w.Cores = d.Cores
	}
	if w.Quantum == 0 {
		w.Quantum = d.Quantum
	}
	return w, nil
}
