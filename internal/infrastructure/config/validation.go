package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with custom validation rules
func NewValidator() *Validator {
	v := validator.New()

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Field(),
				e.Tag(),
				e.Value(),
			))
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return err
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	if err := v.Validate(cfg); err != nil {
		return err
	}
	return validatePlannerWindows(&cfg.Planner)
}

// validatePlannerWindows checks the frame windows that must fit inside the
// planning horizon.
func validatePlannerWindows(p *PlannerConfig) error {
	if p.DispatchWindowFrames > p.HorizonFrames {
		return fmt.Errorf("planner.dispatch_window_frames (%d) exceeds planner.horizon_frames (%d)",
			p.DispatchWindowFrames, p.HorizonFrames)
	}
	if p.GasWindowFrames > p.HorizonFrames {
		return fmt.Errorf("planner.gas_window_frames (%d) exceeds planner.horizon_frames (%d)",
			p.GasWindowFrames, p.HorizonFrames)
	}
	if p.CadenceFrames > p.DispatchWindowFrames && p.DispatchWindowFrames > 0 {
		return fmt.Errorf("planner.cadence_frames (%d) exceeds planner.dispatch_window_frames (%d)",
			p.CadenceFrames, p.DispatchWindowFrames)
	}
	return nil
}
