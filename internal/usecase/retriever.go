package usecase

import (
	"ask-relay/internal/config"
	"ask-relay/internal/entity"
	"ask-relay/internal/layout"
	"ask-relay/internal/ports"
	"ask-relay/pkg/apperr"
	"ask-relay/pkg/logg"
	"ask-relay/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	retrieverServiceName = "RetrieverService"
	retrieverTracer      = "usecase.retriever"
	submitKey            = "Enter"
	archiveTimeout       = 30 * time.Second
)

// RetrieverService runs one browser session per question and classifies every way it can fail.
type RetrieverService struct {
	config   *config.RetrievalConfig
	layout   entity.Layout
	engine   ports.BrowserEngine
	archiver ports.DiagnosticsArchiver
	logger   *zap.Logger
	tracer   trace.Tracer
}

type RetrieverServiceParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Engine   ports.BrowserEngine
	Archiver ports.DiagnosticsArchiver `optional:"true"`
}

func NewRetrieverService(params RetrieverServiceParams) *RetrieverService {
	return &RetrieverService{
		config:   params.Config.RetrievalConfig,
		layout:   layout.FromConfig(params.Config),
		engine:   params.Engine,
		archiver: params.Archiver,
		logger:   params.Logger.With(zap.String(logg.Layer, retrieverServiceName)),
		tracer:   otel.Tracer(retrieverTracer),
	}
}

func (s *RetrieverService) Retrieve(ctx context.Context, question entity.Question) (entity.Answer, error) {
	outcome := s.Run(ctx, question)

	return outcome.Answer, outcome.Err
}

// Run executes the retrieval protocol. Outcome.Err, when set, is always an *apperr.Error.
func (s *RetrieverService) Run(ctx context.Context, question entity.Question) (outcome entity.Outcome) {
	const op = "Retrieve"

	outcome.RequestID = uuid.New()
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.RequestID, outcome.RequestID.String()),
	)

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String(logg.RequestID, outcome.RequestID.String()),
		attribute.String(logg.Engine, s.engine.Name()),
		attribute.Int("question_length", len(question)),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome.Answer = ""
			outcome.Err = fmt.Errorf("panic: %v", r)
		}

		outcome.Err = classify(op, outcome.Err)
		outcome.Duration = time.Since(start)

		observeOutcome(outcome.Err, outcome.Duration)
		step.End(outcome.Err)

		if outcome.Err != nil {
			logger.Error("Retrieval failed",
				zap.String(logg.Kind, string(apperr.KindOf(outcome.Err))),
				zap.Duration("duration", outcome.Duration),
				zap.Error(outcome.Err))

			return
		}

		logger.Info("Retrieval succeeded",
			zap.Int("answer_length", len(outcome.Answer)),
			zap.Duration("duration", outcome.Duration))
	}()

	// Engine calls and teardown must outlive an abandoned request; only the
	// per-stage timeouts bound them.
	sessionCtx := context.WithoutCancel(ctx)

	session, err := s.openSession(sessionCtx, logger)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	defer s.teardown(sessionCtx, session, logger)

	outcome.Answer, outcome.Err = s.interact(ctx, sessionCtx, session, question, outcome.RequestID, logger)

	return outcome
}

func (s *RetrieverService) openSession(ctx context.Context, logger *zap.Logger) (ports.BrowserSession, error) {
	const op = "openSession"

	session, err := s.engine.Open(ctx)
	if err != nil {
		logger.Error("Error launching the browser", zap.Error(err))

		return nil, apperr.Wrap(op, apperr.KindLaunchFailure,
			fmt.Errorf("error launching the browser: %w", err), map[string]any{
				apperr.MetaStage: apperr.StageLaunch,
			})
	}

	metricActiveSessions.Inc()

	return session, nil
}

func (s *RetrieverService) teardown(ctx context.Context, session ports.BrowserSession, logger *zap.Logger) {
	metricActiveSessions.Dec()

	if err := session.Close(ctx); err != nil {
		logger.Warn("Failed to close browser session", zap.Error(err))
	}
}

func (s *RetrieverService) interact(ctx, sessionCtx context.Context, session ports.BrowserSession,
	question entity.Question, requestID uuid.UUID, logger *zap.Logger) (entity.Answer, error) {
	if err := s.navigate(sessionCtx, session, logger); err != nil {
		return "", err
	}

	if err := checkAbandoned(ctx, apperr.StageSubmission); err != nil {
		return "", err
	}

	if err := s.submit(sessionCtx, session, question, logger); err != nil {
		return "", err
	}

	if err := s.settle(sessionCtx, session); err != nil {
		return "", err
	}

	answer, found, err := s.poll(ctx, sessionCtx, session, logger)
	if err != nil {
		return "", err
	}

	if !found {
		return "", s.exhausted(sessionCtx, session, requestID, logger)
	}

	return answer, nil
}

func (s *RetrieverService) navigate(ctx context.Context, session ports.BrowserSession, logger *zap.Logger) error {
	const op = "navigate"

	err := session.Navigate(ctx, s.config.TargetURL, s.config.NavigationTimeout)
	if err == nil {
		return nil
	}

	meta := map[string]any{
		apperr.MetaStage: apperr.StageNavigation,
		apperr.MetaURL:   s.config.TargetURL,
	}

	if errors.Is(err, ports.ErrTimeout) {
		logger.Error("Timeout while loading the target webpage", zap.String(logg.URL, s.config.TargetURL))

		return apperr.Wrap(op, apperr.KindNavigationTimeout,
			fmt.Errorf("timeout while loading the target webpage: %w", err), meta)
	}

	logger.Error("Error while loading the target webpage", zap.Error(err))

	return apperr.Wrap(op, apperr.KindUnexpectedFailure,
		fmt.Errorf("error while loading the target webpage: %w", err), meta)
}

func (s *RetrieverService) submit(ctx context.Context, session ports.BrowserSession, question entity.Question, logger *zap.Logger) error {
	const op = "submit"

	selector := s.layout.InputSelector

	err := session.Fill(ctx, selector, string(question))
	if err == nil {
		err = session.Press(ctx, selector, submitKey)
	}

	if err != nil {
		logger.Error("Error while interacting with the page", zap.String(logg.Selector, selector), zap.Error(err))

		return apperr.Wrap(op, apperr.KindInteractionFailure,
			fmt.Errorf("error while interacting with the page: %w", err), map[string]any{
				apperr.MetaStage:    apperr.StageSubmission,
				apperr.MetaSelector: selector,
			})
	}

	return nil
}

// settle is a blind delay: the page gives no earlier signal that rendering has started.
func (s *RetrieverService) settle(ctx context.Context, session ports.BrowserSession) error {
	const op = "settle"

	if err := session.Wait(ctx, s.config.SettleDelay); err != nil {
		return apperr.Wrap(op, apperr.KindUnexpectedFailure, err, map[string]any{
			apperr.MetaStage: apperr.StageSettle,
		})
	}

	return nil
}

// poll makes independent attempts to read the newest answer turn, each with a fresh timeout.
func (s *RetrieverService) poll(ctx, sessionCtx context.Context, session ports.BrowserSession, logger *zap.Logger) (entity.Answer, bool, error) {
	const op = "poll"

	selector := s.layout.AnswerSelector

	for attempt := 1; attempt <= s.config.PollAttempts; attempt++ {
		if err := checkAbandoned(ctx, apperr.StageExtraction); err != nil {
			return "", false, err
		}

		text, err := s.extract(sessionCtx, session, selector)
		if err == nil {
			return entity.Answer(text), true, nil
		}

		if !errors.Is(err, ports.ErrTimeout) {
			logger.Error("Error while interacting with the page", zap.Int(logg.Attempt, attempt), zap.Error(err))

			return "", false, apperr.Wrap(op, apperr.KindInteractionFailure,
				fmt.Errorf("error while interacting with the page: %w", err), map[string]any{
					apperr.MetaStage:    apperr.StageExtraction,
					apperr.MetaSelector: selector,
					apperr.MetaAttempt:  attempt,
				})
		}

		metricFailedAttempts.Inc()
		logger.Warn("Polling attempt failed: timeout exceeded",
			zap.Int(logg.Attempt, attempt),
			zap.Int("max_attempts", s.config.PollAttempts))
	}

	return "", false, nil
}

func (s *RetrieverService) extract(ctx context.Context, session ports.BrowserSession, selector string) (string, error) {
	element, err := session.WaitForAttached(ctx, selector, s.config.PollTimeout)
	if err != nil {
		return "", err
	}

	// Some renderers only populate text once the node is visible.
	if err := element.ScrollIntoView(ctx); err != nil {
		return "", err
	}

	return element.InnerText(ctx)
}

func (s *RetrieverService) exhausted(ctx context.Context, session ports.BrowserSession, requestID uuid.UUID, logger *zap.Logger) error {
	const op = "exhausted"

	diag := entity.Diagnostics{
		RequestID:      requestID,
		URL:            s.config.TargetURL,
		ScreenshotPath: filepath.Join(s.config.ScreenshotDir, fmt.Sprintf("error_screenshot-%s.png", requestID)),
		CapturedAt:     time.Now().UTC(),
	}

	if err := session.Screenshot(ctx, diag.ScreenshotPath); err != nil {
		logger.Warn("Failed to capture diagnostic screenshot", zap.Error(err))
		diag.ScreenshotPath = ""
	}

	html, contentErr := session.Content(ctx)
	diag.HTML = html

	fields := []zap.Field{
		zap.Int("attempts", s.config.PollAttempts),
		zap.String("screenshot", diag.ScreenshotPath),
		zap.String("html", html),
	}
	if contentErr != nil {
		fields = append(fields, zap.NamedError("content_error", contentErr))
	}
	logger.Error("Failed to retrieve the response after multiple attempts", fields...)

	if s.archiver != nil {
		archiveCtx, cancel := context.WithTimeout(ctx, archiveTimeout)
		if err := s.archiver.Archive(archiveCtx, diag); err != nil {
			logger.Warn("Failed to archive diagnostics", zap.Error(err))
		}
		cancel()
	}

	return apperr.Wrap(op, apperr.KindExtractionExhausted,
		errors.New("failed to retrieve the response from the webpage"), map[string]any{
			apperr.MetaStage:     apperr.StageExtraction,
			apperr.MetaAttempt:   s.config.PollAttempts,
			apperr.MetaRequestID: requestID.String(),
		})
}

func checkAbandoned(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap("checkAbandoned", apperr.KindUnexpectedFailure,
			fmt.Errorf("request abandoned: %w", err), map[string]any{
				apperr.MetaStage: stage,
			})
	}

	return nil
}

// classify guarantees a retrieval-kind *apperr.Error for any non-nil err.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if appErr, ok := apperr.As(err); ok && apperr.IsRetrievalKind(appErr.Kind) {
		return err
	}

	return apperr.Wrap(op, apperr.KindUnexpectedFailure,
		fmt.Errorf("an unexpected error occurred: %w", err), nil)
}
