package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Suite is a YAML list of pages to verify in one CLI run:
//
//	defaults:
//	  label: My List
//	  timeout: 10s
//	targets:
//	  - url: http://localhost:3000/
//	  - name: staging
//	    url: https://staging.example.com/
//	    placeholder: New task
type Suite struct {
	Defaults SuiteTarget   `yaml:"defaults"`
	Targets  []SuiteTarget `yaml:"targets"`
}

type SuiteTarget struct {
	Name        string        `yaml:"name"`
	URL         string        `yaml:"url" validate:"required,http_url"`
	Label       string        `yaml:"label" validate:"max=200"`
	Placeholder string        `yaml:"placeholder" validate:"max=200"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

func LoadSuite(path string) (*Suite, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	return ParseSuite(b)
}

// ParseSuite decodes a suite, fills every target from Defaults and validates
// the result. All invalid targets are reported together.
func ParseSuite(b []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	if len(s.Targets) == 0 {
		return nil, fmt.Errorf("parse suite: no targets")
	}

	var errs error
	for i := range s.Targets {
		t := &s.Targets[i]
		if t.Name == "" {
			t.Name = t.URL
		}
		if t.Label == "" {
			t.Label = s.Defaults.Label
		}
		if t.Placeholder == "" {
			t.Placeholder = s.Defaults.Placeholder
		}
		if t.Timeout == 0 {
			t.Timeout = s.Defaults.Timeout
		}
		if err := validateTarget(*t); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target %d: %w", i, err))
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("parse suite: %w", errs)
	}
	return &s, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validateTarget(t SuiteTarget) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report yaml keys, not Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	err := validate.Struct(t)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var out error
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = multierr.Append(out, fmt.Errorf("no %s", fe.Field()))
		case "http_url":
			out = multierr.Append(out, fmt.Errorf("%s %q is not an http(s) URL", fe.Field(), fe.Value()))
		default:
			out = multierr.Append(out, fmt.Errorf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return out
}
