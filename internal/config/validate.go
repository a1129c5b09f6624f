package config

import (
	"errors"
	"fmt"
)

// Validation errors for configuration fields.
var (
	// ErrUnsupportedVersion indicates the version field is not a supported value.
	ErrUnsupportedVersion = errors.New("unsupported config version")

	// ErrUnknownSourceType indicates the source type has no adapter.
	ErrUnknownSourceType = errors.New("unknown source type")

	// ErrUnknownTargetType indicates a target type has no adapter.
	ErrUnknownTargetType = errors.New("unknown target type")

	// ErrInvalidRulesFormat indicates rules_format is neither md nor mdc.
	ErrInvalidRulesFormat = errors.New("rules_format must be \"md\" or \"mdc\"")

	// ErrNoTargets indicates the targets map is empty.
	ErrNoTargets = errors.New("at least one target must be defined")

	// ErrMissingTargetType indicates a target omits the required type field.
	ErrMissingTargetType = errors.New("target is missing required field 'type'")
)

// knownTargetTypes is the closed set of supported target adapters.
var knownTargetTypes = map[string]bool{
	TargetCursor:      true,
	TargetCodex:       true,
	TargetAntigravity: true,
}

// Validate checks a Config for semantic validity.
// Returns nil if valid, or a slice with every problem found.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version != Version {
		errs = append(errs, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, cfg.Version, Version))
	}

	if cfg.Source.Type != SourceClaude {
		errs = append(errs, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownSourceType, cfg.Source.Type, SourceClaude))
	}

	if len(cfg.Targets) == 0 {
		errs = append(errs, ErrNoTargets)
	}

	for name, tc := range cfg.Targets {
		if tc.Type == "" {
			errs = append(errs, &TargetError{Target: name, Err: ErrMissingTargetType})
			continue
		}
		if !knownTargetTypes[tc.Type] {
			errs = append(errs, &TargetError{
				Target: name,
				Err:    fmt.Errorf("%w: %q", ErrUnknownTargetType, tc.Type),
			})
		}
		if tc.RulesFormat != "" && tc.RulesFormat != RulesFormatMD && tc.RulesFormat != RulesFormatMDC {
			errs = append(errs, &TargetError{
				Target: name,
				Err:    fmt.Errorf("%w, got %q", ErrInvalidRulesFormat, tc.RulesFormat),
			})
		}
	}

	return errs
}

// TargetError represents a validation error scoped to one target entry.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return "target " + e.Target + ": " + e.Err.Error()
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
