package workflow

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend is the remote surface the rollback controller clears state
// through. Implemented by the REST client.
type Backend interface {
	// ClearProjectState discards backend state for a coarse step group.
	ClearProjectState(ctx context.Context, group StepGroup) error

	// RunValidation re-runs validation and returns its raw result.
	RunValidation(ctx context.Context) (string, error)
}

// Controller tracks the current pipeline step and the per-step state
// that backward navigation discards.
type Controller struct {
	backend Backend
	logger  *slog.Logger

	current Step

	// Per-step local caches dropped on invalidation.
	validationResult string
	requirements     map[string]string // derived requirements manifest
}

// NewController creates a rollback controller starting at the first step.
func NewController(backend Backend, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend:      backend,
		logger:       logger,
		current:      StepOrder[0],
		requirements: map[string]string{},
	}
}

// Current returns the step the controller is currently on.
func (c *Controller) Current() Step {
	return c.current
}

// SetCurrent moves the controller forward without any invalidation.
// Callers gate forward movement; the controller only polices backward
// navigation.
func (c *Controller) SetCurrent(s Step) error {
	if StepIndex(s) < 0 {
		return fmt.Errorf("unknown step: %s", s)
	}
	c.current = s
	return nil
}

// SetValidationResult caches a validation result for the session.
func (c *Controller) SetValidationResult(result string) {
	c.validationResult = result
}

// ValidationResult returns the cached validation result, if any.
func (c *Controller) ValidationResult() string {
	return c.validationResult
}

// SetRequirement caches a derived requirements manifest entry.
func (c *Controller) SetRequirement(key, value string) {
	c.requirements[key] = value
}

// Requirements returns the cached requirements manifest.
func (c *Controller) Requirements() map[string]string {
	return c.requirements
}

// Invalidated returns the steps that would lose their work when
// navigating to target, for the caller's confirmation prompt.
func (c *Controller) Invalidated(target Step) []Step {
	return InvalidatedSteps(target, c.current)
}

// Rollback navigates to an earlier step, discarding the work of every
// invalidated step. The caller is expected to have confirmed with the
// user first.
//
// The current step moves to the target immediately, before any backend
// call, so progress reads correctly during the round-trip. Local caches
// for invalidated steps are dropped next, then backend state is cleared
// one coarse group at a time. A failure stops the sequence and returns;
// state cleared up to that point stays cleared. When the target is the
// validation step, validation re-runs automatically after clearing.
func (c *Controller) Rollback(ctx context.Context, target Step) error {
	invalidated := InvalidatedSteps(target, c.current)
	if len(invalidated) == 0 {
		// Same-step or forward navigation is free.
		if StepIndex(target) < 0 {
			return fmt.Errorf("unknown step: %s", target)
		}
		return nil
	}

	c.current = target

	c.clearLocal(invalidated)

	for _, group := range GroupsForSteps(invalidated) {
		if err := c.backend.ClearProjectState(ctx, group); err != nil {
			return fmt.Errorf("clear %s state: %w", group, err)
		}
		c.logger.Debug("Cleared backend state", "group", group)
	}

	if target == StepValidate {
		result, err := c.backend.RunValidation(ctx)
		if err != nil {
			return fmt.Errorf("re-run validation: %w", err)
		}
		c.validationResult = result
	}

	c.logger.Info("Rolled back",
		"target", target,
		"invalidated", len(invalidated))
	return nil
}

// clearLocal drops local caches belonging to invalidated steps.
func (c *Controller) clearLocal(invalidated []Step) {
	for _, s := range invalidated {
		switch s {
		case StepValidate:
			c.validationResult = ""
		case StepParseDRM:
			c.requirements = map[string]string{}
		}
	}
}
