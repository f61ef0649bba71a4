package browser

import (
	"ask-relay/internal/config"
	"ask-relay/internal/layout"
	"ask-relay/internal/ports"
	"ask-relay/pkg/logg"
	"ask-relay/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	playwrightEngineName = "PlaywrightEngine"
	browserTracer        = "browser.engine"
)

// PlaywrightEngine starts a fresh driver and browser for every session.
type PlaywrightEngine struct {
	config *config.BrowserConfig
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPlaywrightEngine(conf *config.BrowserConfig, logger *zap.Logger) *PlaywrightEngine {
	return &PlaywrightEngine{
		config: conf,
		logger: logger.With(zap.String(logg.Layer, playwrightEngineName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (e *PlaywrightEngine) Name() string {
	return config.EnginePlaywright
}

// Install downloads the driver and chromium. It is meant to run once at startup.
func (e *PlaywrightEngine) Install(ctx context.Context) (err error) {
	const op = "Install"
	logger := e.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Installing playwright driver and chromium")

	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

func (e *PlaywrightEngine) Open(ctx context.Context) (_ ports.BrowserSession, err error) {
	const op = "Open"
	logger := e.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.Bool("headless", e.config.Headless))
	defer func() {
		step.End(err)
	}()

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.config.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if e.config.SlowMo > 0 {
		options.SlowMo = playwright.Float(float64(e.config.SlowMo))
	}
	if e.config.ExecPath != "" {
		options.ExecutablePath = playwright.String(e.config.ExecPath)
	}

	step.AddEvent("launching chromium")

	browser, err := pw.Chromium.Launch(options)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch chromium: %w", err), stopDriver(pw))
	}

	page, err := browser.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open page: %w", err), browser.Close(), stopDriver(pw))
	}

	logger.Debug("Browser session opened")

	return &playwrightSession{
		pw:            pw,
		browser:       browser,
		page:          page,
		actionTimeout: e.config.ActionTimeout,
		logger:        e.logger,
		tracer:        e.tracer,
	}, nil
}

func stopDriver(pw *playwright.Playwright) error {
	if err := pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}

	return nil
}

type playwrightSession struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	page          playwright.Page
	actionTimeout time.Duration
	logger        *zap.Logger
	tracer        trace.Tracer

	closeOnce sync.Once
	closeErr  error
	closed    bool
	mu        sync.Mutex
}

func (s *playwrightSession) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, *tracing.Span) {
	return tracing.StartSpan(ctx, s.tracer, s.logger.With(zap.String(logg.Operation, op)), op, attrs...)
}

func (s *playwrightSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *playwrightSession) Navigate(ctx context.Context, url string, timeout time.Duration) (err error) {
	_, step := s.span(ctx, "Navigate", attribute.String(logg.URL, url))
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})

	return normalize(err)
}

func (s *playwrightSession) Fill(ctx context.Context, selector, text string) (err error) {
	_, step := s.span(ctx, "Fill", attribute.String(logg.Selector, selector))
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return ErrSessionClosed
	}

	return normalize(s.page.Fill(layout.ForPlaywright(selector), text, playwright.PageFillOptions{
		Timeout: playwright.Float(float64(s.actionTimeout.Milliseconds())),
	}))
}

func (s *playwrightSession) Press(ctx context.Context, selector, key string) (err error) {
	_, step := s.span(ctx, "Press", attribute.String(logg.Selector, selector), attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return ErrSessionClosed
	}

	return normalize(s.page.Press(layout.ForPlaywright(selector), key, playwright.PagePressOptions{
		Timeout: playwright.Float(float64(s.actionTimeout.Milliseconds())),
	}))
}

func (s *playwrightSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (s *playwrightSession) WaitForAttached(ctx context.Context, selector string, timeout time.Duration) (_ ports.PageElement, err error) {
	ctx, step := s.span(ctx, "WaitForAttached", attribute.String(logg.Selector, selector))
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	handle, err := s.page.WaitForSelector(layout.ForPlaywright(selector), playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, normalize(err)
	}

	if handle == nil {
		return nil, fmt.Errorf("selector %s resolved to no element", selector)
	}

	return &playwrightElement{handle: handle, timeout: s.actionTimeout}, nil
}

func (s *playwrightSession) Screenshot(ctx context.Context, path string) (err error) {
	_, step := s.span(ctx, "Screenshot", attribute.String("path", path))
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err = s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})

	return normalize(err)
}

func (s *playwrightSession) Content(ctx context.Context) (_ string, err error) {
	_, step := s.span(ctx, "Content")
	defer func() {
		step.End(err)
	}()

	if s.isClosed() {
		return "", ErrSessionClosed
	}

	html, err := s.page.Content()

	return html, normalize(err)
}

func (s *playwrightSession) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		_, step := s.span(ctx, "Close")

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := stopDriver(s.pw); err != nil {
			errs = append(errs, err)
		}

		s.closeErr = errors.Join(errs...)
		step.End(s.closeErr)
	})

	return s.closeErr
}

type playwrightElement struct {
	handle  playwright.ElementHandle
	timeout time.Duration
}

func (e *playwrightElement) ScrollIntoView(context.Context) error {
	return normalize(e.handle.ScrollIntoViewIfNeeded(playwright.ElementHandleScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(float64(e.timeout.Milliseconds())),
	}))
}

func (e *playwrightElement) InnerText(context.Context) (string, error) {
	text, err := e.handle.InnerText()

	return text, normalize(err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
