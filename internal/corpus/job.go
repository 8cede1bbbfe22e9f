// Package corpus loads replay jobs from disk and builds replay cases from the
// fix history of a git repository.
package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aezell/codemint/internal/model"
)

// Job is a codemod together with the historical cases it must reproduce.
// Job files are YAML; JSON is accepted as a subset.
type Job struct {
	Codemod Codemod       `yaml:"codemod" json:"codemod"`
	Cases   []Case        `yaml:"cases" json:"cases" validate:"dive"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"gte=0"`
}

// Codemod describes the candidate under test.
type Codemod struct {
	PatternID          string `yaml:"pattern_id" json:"pattern_id" validate:"required"`
	RuleID             string `yaml:"rule_id" json:"rule_id" validate:"required"`
	Language           string `yaml:"language" json:"language"`
	Description        string `yaml:"description,omitempty" json:"description,omitempty"`
	Source             string `yaml:"source,omitempty" json:"source,omitempty" validate:"excluded_with=SourceFile"`
	SourceFile         string `yaml:"source_file,omitempty" json:"source_file,omitempty"`
	TransformSignature string `yaml:"transform_signature,omitempty" json:"transform_signature,omitempty" validate:"excluded_with=SignatureFile"`
	SignatureFile      string `yaml:"signature_file,omitempty" json:"signature_file,omitempty"`
}

// Case is one before/after pair, inline or read from files next to the job.
type Case struct {
	PairID     string `yaml:"pair_id" json:"pair_id" validate:"required"`
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	RuleID     string `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Before     string `yaml:"before,omitempty" json:"before,omitempty" validate:"excluded_with=BeforeFile"`
	After      string `yaml:"after,omitempty" json:"after,omitempty" validate:"excluded_with=AfterFile"`
	BeforeFile string `yaml:"before_file,omitempty" json:"before_file,omitempty"`
	AfterFile  string `yaml:"after_file,omitempty" json:"after_file,omitempty"`
}

var validate = validator.New()

// LoadJob reads, validates and resolves a job file. Relative *_file paths are
// resolved against the job file's directory and inlined.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job: %w", err)
	}
	job, err := ParseJob(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := job.resolve(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// ParseJob decodes and validates a job without touching the file system.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("job is empty")
		}
		return nil, fmt.Errorf("parsing job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks field constraints and that pair IDs are unique.
func (j *Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid job: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid job: %w", err)
	}

	seen := make(map[string]bool, len(j.Cases))
	for _, c := range j.Cases {
		if seen[c.PairID] {
			return fmt.Errorf("invalid job: duplicate pair_id %q", c.PairID)
		}
		seen[c.PairID] = true
	}
	return nil
}

func (j *Job) resolve(dir string) error {
	read := func(name string) (string, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var err error
	if f := j.Codemod.SourceFile; f != "" {
		if j.Codemod.Source, err = read(f); err != nil {
			return fmt.Errorf("codemod source: %w", err)
		}
		j.Codemod.SourceFile = ""
	}
	if f := j.Codemod.SignatureFile; f != "" {
		if j.Codemod.TransformSignature, err = read(f); err != nil {
			return fmt.Errorf("transform signature: %w", err)
		}
		j.Codemod.SignatureFile = ""
	}
	for i := range j.Cases {
		c := &j.Cases[i]
		if c.BeforeFile != "" {
			if c.Before, err = read(c.BeforeFile); err != nil {
				return fmt.Errorf("case %s: %w", c.PairID, err)
			}
			c.BeforeFile = ""
		}
		if c.AfterFile != "" {
			if c.After, err = read(c.AfterFile); err != nil {
				return fmt.Errorf("case %s: %w", c.PairID, err)
			}
			c.AfterFile = ""
		}
	}
	return nil
}

// Definition returns a fresh PENDING definition for the job's codemod.
func (j *Job) Definition() model.CodemodDefinition {
	c := j.Codemod
	return model.NewCodemodDefinition(c.PatternID, c.RuleID, c.Language, c.Source, c.TransformSignature)
}

// Pairs returns the job's cases as fix pairs.
func (j *Job) Pairs() []model.FixPair {
	pairs := make([]model.FixPair, 0, len(j.Cases))
	for _, c := range j.Cases {
		pairs = append(pairs, model.FixPair{
			PairID:   c.PairID,
			Before:   c.Before,
			After:    c.After,
			FilePath: c.FilePath,
		})
	}
	return pairs
}

// ReplayCases returns the job's cases. A case without its own rule ID
// inherits the codemod's.
func (j *Job) ReplayCases() []model.ReplayCase {
	cases := model.ReplayCasesFromPairs(j.Codemod.RuleID, j.Pairs())
	for i, c := range j.Cases {
		if c.RuleID != "" {
			cases[i].RuleID = c.RuleID
		}
	}
	return cases
}

// GeneratorSpec returns the prompt contract for generating this job's codemod.
func (j *Job) GeneratorSpec() model.CodemodGeneratorSpec {
	c := j.Codemod
	return model.NewGeneratorSpec(model.PatternInfo{
		PatternID:          c.PatternID,
		RuleID:             c.RuleID,
		Language:           c.Language,
		TransformSignature: c.TransformSignature,
		Description:        c.Description,
	}, model.ExamplesFromPairs(j.Pairs()))
}

// Without returns a copy of the job minus the named cases.
func (j *Job) Without(pairIDs ...string) *Job {
	drop := make(map[string]bool, len(pairIDs))
	for _, id := range pairIDs {
		drop[id] = true
	}
	out := *j
	out.Cases = make([]Case, 0, len(j.Cases))
	for _, c := range j.Cases {
		if !drop[c.PairID] {
			out.Cases = append(out.Cases, c)
		}
	}
	return &out
}

// Encode writes the job as YAML.
func (j *Job) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(j); err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	return enc.Close()
}
