// Package replay validates candidate codemods against historical fix pairs.
//
// A candidate is statically checked, built once, and then run as a fresh child
// process per case. Every case is always evaluated; the verdict lands on the
// returned CodemodDefinition and Validate itself never fails.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aezell/codemint/internal/analysis"
	"github.com/aezell/codemint/internal/diff"
	"github.com/aezell/codemint/internal/model"
	"github.com/aezell/codemint/internal/sandbox"
)

// DefaultCaseTimeout bounds one case when the caller passes no timeout.
const DefaultCaseTimeout = 10 * time.Second

// Validator runs the static check and sandboxed replay for codemods.
// It is safe for concurrent use.
type Validator struct {
	sandbox        sandbox.Sandbox
	logger         *zap.Logger
	parallelism    int
	defaultTimeout time.Duration
	analysis       analysis.Config
	onCase         func(model.CaseOutcome)
	now            func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithSandbox replaces the default GoSandbox.
func WithSandbox(sb sandbox.Sandbox) Option {
	return func(v *Validator) {
		if sb != nil {
			v.sandbox = sb
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithParallelism sets how many cases run at once. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.parallelism = n
		}
	}
}

// WithDefaultTimeout sets the per-case timeout used when Validate gets none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.defaultTimeout = d
		}
	}
}

// WithAnalysisConfig tunes the static check.
func WithAnalysisConfig(cfg analysis.Config) Option {
	return func(v *Validator) {
		v.analysis = cfg
	}
}

// WithOnCase registers a hook called once per finished case. Calls are
// serialized, but arrive in completion order when cases run in parallel.
func WithOnCase(fn func(model.CaseOutcome)) Option {
	return func(v *Validator) {
		v.onCase = fn
	}
}

// WithClock overrides time.Now for verdict timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Validator. Without WithSandbox it builds candidates with the
// local Go toolchain using sandbox.DefaultConfig.
func New(opts ...Option) *Validator {
	v := &Validator{
		logger:         zap.NewNop(),
		parallelism:    1,
		defaultTimeout: DefaultCaseTimeout,
		analysis:       analysis.DefaultConfig(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.sandbox == nil {
		v.sandbox = sandbox.NewGoSandbox(sandbox.DefaultConfig(),
			sandbox.WithLogger(v.logger),
			sandbox.WithEntryPoint(v.analysis.EntryPoint))
	}
	return v
}

// Validate replays every case against the codemod and returns a copy of it
// carrying the verdict. A definition that already has a terminal status is
// returned unchanged. timeout <= 0 selects the default case timeout.
func (v *Validator) Validate(ctx context.Context, codemod model.CodemodDefinition, cases []model.ReplayCase, timeout time.Duration) (out model.CodemodDefinition) {
	log := v.logger.With(
		zap.String("codemod_id", codemod.CodemodID),
		zap.String("pattern_id", codemod.PatternID),
	)

	if codemod.Status.IsTerminal() {
		log.Warn("codemod already has a verdict; leaving it unchanged",
			zap.Stringer("status", codemod.Status))
		return codemod
	}

	start := v.now()
	var emitMu sync.Mutex
	emit := func(o model.CaseOutcome) {
		if o.Passed {
			casesTotal.WithLabelValues("passed").Inc()
		} else {
			casesTotal.WithLabelValues(o.Failure.String()).Inc()
		}
		if v.onCase == nil {
			return
		}
		emitMu.Lock()
		defer emitMu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				log.Warn("case hook panic", zap.String("pair_id", o.PairID), zap.Any("panic", r))
			}
		}()
		v.onCase(o)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("validator panic", zap.Any("panic", r))
			outcomes := model.FailAll(cases, model.FailureSandbox, fmt.Sprintf("validator panic: %v", r))
			out = v.conclude(log, codemod, model.StatusFailed, model.NewReplayResult(outcomes, start), start)
		}
	}()

	if len(cases) == 0 {
		log.Info("no replay cases provided")
		return v.conclude(log, codemod, model.StatusFailed, model.NoCasesResult(start), start)
	}
	if timeout <= 0 {
		timeout = v.defaultTimeout
	}

	static := analysis.Run(codemod.CodemodSource, v.analysis)
	for _, f := range static.Findings {
		if !f.Blocking() {
			log.Debug("static check warning", zap.String("finding", f.String()))
		}
	}
	if !static.OK() {
		log.Info("codemod rejected by static check", zap.String("reason", static.Reason()))
		outcomes := model.FailAll(cases, model.FailureStatic, "static check failed: "+static.Reason())
		for _, o := range outcomes {
			emit(o)
		}
		return v.conclude(log, codemod, model.StatusRejected, model.NewReplayResult(outcomes, start), start)
	}

	prog, err := v.sandbox.Build(ctx, codemod.CodemodSource)
	if err != nil {
		buildsTotal.WithLabelValues("error").Inc()
		log.Info("codemod build failed", zap.Error(err))
		outcomes := v.buildFailure(ctx, cases, err)
		for _, o := range outcomes {
			emit(o)
		}
		return v.conclude(log, codemod, model.StatusFailed, model.NewReplayResult(outcomes, start), start)
	}
	buildsTotal.WithLabelValues("ok").Inc()
	defer func() {
		if err := prog.Close(); err != nil {
			log.Warn("removing sandbox arena", zap.Error(err))
		}
	}()

	outcomes := v.replay(ctx, log, prog, cases, timeout, emit)
	result := model.NewReplayResult(outcomes, start)

	status := model.StatusFailed
	if result.Passed {
		status = model.StatusValidated
	}
	return v.conclude(log, codemod, status, result, start)
}

// replay runs every case through a bounded worker pool. Each worker writes its
// own slot, so outcomes keep the input order whatever the completion order.
func (v *Validator) replay(ctx context.Context, log *zap.Logger, prog sandbox.Program, cases []model.ReplayCase, timeout time.Duration, emit func(model.CaseOutcome)) []model.CaseOutcome {
	outcomes := make([]model.CaseOutcome, len(cases))

	var g errgroup.Group
	g.SetLimit(v.parallelism)
	for i, c := range cases {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("replay case panic", zap.String("pair_id", c.PairID), zap.Any("panic", r))
					outcomes[i] = model.CaseOutcome{
						PairID:   c.PairID,
						Failure:  model.FailureSandbox,
						Detail:   fmt.Sprintf("sandbox error: validator panic: %v", r),
						ExitCode: -1,
					}
				}
				emit(outcomes[i])
			}()
			outcomes[i] = v.runCase(ctx, prog, c, timeout)
			log.Debug("replay case finished",
				zap.String("pair_id", c.PairID),
				zap.Bool("passed", outcomes[i].Passed),
				zap.Duration("duration", outcomes[i].Duration))
			return nil
		})
	}
	// Workers never return errors; every case is evaluated.
	_ = g.Wait()

	return outcomes
}

func (v *Validator) runCase(ctx context.Context, prog sandbox.Program, c model.ReplayCase, timeout time.Duration) model.CaseOutcome {
	o := model.CaseOutcome{PairID: c.PairID, ExitCode: -1}

	if err := ctx.Err(); err != nil {
		o.Failure = model.FailureCanceled
		o.Detail = "canceled: " + err.Error()
		return o
	}

	res := prog.Run(ctx, c.InputSource, timeout)
	caseDuration.Observe(res.Duration.Seconds())

	o.ExitCode = res.ExitCode
	o.Duration = res.Duration
	o.ActualOutput = res.Stdout

	switch {
	case res.Canceled:
		o.Failure = model.FailureCanceled
		cause := res.Err
		if cause == nil {
			cause = ctx.Err()
		}
		o.Detail = fmt.Sprintf("canceled: %v", cause)
	case res.Err != nil:
		o.Failure = model.FailureSandbox
		o.Detail = "sandbox error: " + res.Err.Error()
	case res.TimedOut:
		o.Failure = model.FailureTimeout
		o.Detail = "timeout after " + formatSeconds(timeout)
	case res.ExitCode != 0:
		o.Failure = model.FailureExit
		o.Detail = fmt.Sprintf("exit code %d: %s", res.ExitCode, truncate(strings.TrimSpace(res.Stderr), maxStderr))
	case res.Truncated:
		o.Failure = model.FailureMismatch
		o.Detail = fmt.Sprintf("output exceeds %d bytes", len(res.Stdout))
	case res.Stdout != c.ExpectedOutput:
		o.Failure = model.FailureMismatch
		o.Detail = FirstDivergence(c.ExpectedOutput, res.Stdout)
		o.Diff = diff.Unified(c.ExpectedOutput, res.Stdout, caseLabel(c))
	default:
		o.Passed = true
	}
	return o
}

// buildFailure fails every case with the reason the candidate did not build.
func (v *Validator) buildFailure(ctx context.Context, cases []model.ReplayCase, err error) []model.CaseOutcome {
	var berr *sandbox.BuildError
	switch {
	case errors.As(err, &berr):
		msg := berr.Stderr
		if berr.TimedOut || msg == "" {
			msg = berr.Error()
			msg = strings.TrimPrefix(msg, "build failed: ")
		}
		return model.FailAll(cases, model.FailureBuild, "build failed: "+truncate(msg, maxStderr))
	case ctx.Err() != nil:
		return model.FailAll(cases, model.FailureCanceled, "canceled: "+ctx.Err().Error())
	default:
		return model.FailAll(cases, model.FailureSandbox, "sandbox error: "+err.Error())
	}
}

func (v *Validator) conclude(log *zap.Logger, codemod model.CodemodDefinition, status model.CodemodStatus, result *model.ReplayResult, start time.Time) model.CodemodDefinition {
	result.Duration = v.now().Sub(start)

	out, err := codemod.WithVerdict(status, result)
	if err != nil {
		// Unreachable: terminal definitions return early.
		log.Error("applying verdict", zap.Error(err))
		return codemod
	}

	validationsTotal.WithLabelValues(status.String()).Inc()
	validationDuration.Observe(result.Duration.Seconds())
	log.Info("codemod validated",
		zap.Stringer("status", status),
		zap.Int("cases_total", result.CasesTotal),
		zap.Int("cases_failed", result.CasesFailed),
		zap.Duration("duration", result.Duration))
	return out
}

func caseLabel(c model.ReplayCase) string {
	if c.FilePath != "" {
		return c.FilePath
	}
	return c.PairID
}

// formatSeconds renders d as whole or fractional seconds, e.g. "10s" or "0.5s".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
