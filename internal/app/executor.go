package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// Mutations run as five ordered steps:
//
//  1. VALIDATE  check inputs and preconditions; nothing has changed yet
//  2. PERFORM   do the side-effecting work that precedes persistence
//  3. VERIFY    check what PERFORM produced before anything is stored
//  4. ARCHIVE   persist the verified state
//  5. RESPOND   build the caller's result and apply post-commit effects
//
// A failing step stops the operation; later steps never run. Errors are
// wrapped in *ExecutionError and still match their cause with errors.Is.

// ExecutionStep names one step of an operation.
type ExecutionStep string

// Operation steps, in execution order.
const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// StepOf reports the step an operation error came from.
func StepOf(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}

// Executor runs operations step by step, logging each step and recording
// one span per operation.
type Executor struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewExecutor creates an executor. The logger is used when the context
// carries no request logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		logger: logger,
		tracer: telemetry.Tracer("app"),
	}
}

// Operation holds the step functions of one use case. I is the input, P what
// Perform produced, V the verified value and O the caller's result.
// A nil step is skipped and yields the zero value.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

type run struct {
	op     string
	logger *slog.Logger
	span   trace.Span
}

func (r *run) step(ctx context.Context, step ExecutionStep, fn func() error) error {
	r.span.AddEvent(string(step))

	if err := fn(); err != nil {
		level := slog.LevelError
		if step == StepValidate {
			level = slog.LevelWarn
		}

		r.logger.Log(ctx, level, "operation step failed",
			slog.String("step", string(step)),
			slog.Any("error", err),
		)

		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, string(step))

		return &ExecutionError{Operation: r.op, Step: step, Cause: err}
	}

	r.logger.Log(ctx, logging.LevelTrace, "operation step done", slog.String("step", string(step)))

	return nil
}

// Execute runs op against input through all five steps.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		result    O
	)

	ctx, span := exec.tracer.Start(ctx, op.Name, trace.WithAttributes(attribute.String("operation", op.Name)))
	defer span.End()

	r := &run{
		op:     op.Name,
		logger: logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name)),
		span:   span,
	}
	start := time.Now()

	if op.Validate != nil {
		if err := r.step(ctx, StepValidate, func() error { return op.Validate(ctx, input) }); err != nil {
			return zero, err
		}
	}

	if op.Perform != nil {
		err := r.step(ctx, StepPerform, func() (err error) {
			performed, err = op.Perform(ctx, input)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Verify != nil {
		err := r.step(ctx, StepVerify, func() (err error) {
			verified, err = op.Verify(ctx, input, performed)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Archive != nil {
		if err := r.step(ctx, StepArchive, func() error { return op.Archive(ctx, input, verified) }); err != nil {
			return zero, err
		}
	}

	if op.Respond != nil {
		err := r.step(ctx, StepRespond, func() (err error) {
			result, err = op.Respond(ctx, input, verified)
			return err
		})
		if err != nil {
			return zero, err
		}
	}

	r.logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}
