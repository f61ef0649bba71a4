package browser

import (
	"ask-relay/internal/config"
	"ask-relay/internal/layout"
	"ask-relay/internal/ports"
	"ask-relay/pkg/logg"
	"ask-relay/pkg/tracing"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const chromedpEngineName = "ChromedpEngine"

// ChromedpEngine drives a local Chrome over CDP. Each session owns its own allocator and process.
type ChromedpEngine struct {
	config *config.BrowserConfig
	logger *zap.Logger
	tracer trace.Tracer
}

func NewChromedpEngine(conf *config.BrowserConfig, logger *zap.Logger) *ChromedpEngine {
	return &ChromedpEngine{
		config: conf,
		logger: logger.With(zap.String(logg.Layer, chromedpEngineName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (e *ChromedpEngine) Name() string {
	return config.EngineChromedp
}

func (e *ChromedpEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", e.config.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.WindowSize(1280, 720),
	)

	if e.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.config.ExecPath))
	}

	return opts
}

func (e *ChromedpEngine) Open(ctx context.Context) (_ ports.BrowserSession, err error) {
	const op = "Open"
	logger := e.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.Bool("headless", e.config.Headless))
	defer func() {
		step.End(err)
	}()

	// The browser lives as long as the session, not the caller's context.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser and creates the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()

		return nil, fmt.Errorf("start chrome: %w", err)
	}

	logger.Debug("Browser session opened")

	return &chromedpSession{
		tabCtx:        tabCtx,
		tabCancel:     tabCancel,
		allocCancel:   allocCancel,
		actionTimeout: e.config.ActionTimeout,
		logger:        e.logger,
		tracer:        e.tracer,
	}, nil
}

type chromedpSession struct {
	tabCtx        context.Context
	tabCancel     context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
	logger        *zap.Logger
	tracer        trace.Tracer

	closeOnce sync.Once
	closeErr  error
}

func (s *chromedpSession) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, *tracing.Span) {
	return tracing.StartSpan(ctx, s.tracer, s.logger.With(zap.String(logg.Operation, op)), op, attrs...)
}

// run executes actions on the tab, bounded by timeout and by the caller's cancellation.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.tabCtx.Err() != nil {
		return ErrSessionClosed
	}

	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return normalize(chromedp.Run(runCtx, actions...))
}

func (s *chromedpSession) Navigate(ctx context.Context, url string, timeout time.Duration) (err error) {
	ctx, step := s.span(ctx, "Navigate", attribute.String(logg.URL, url))
	defer func() {
		step.End(err)
	}()

	return s.run(ctx, timeout, chromedp.Navigate(url))
}

func (s *chromedpSession) Fill(ctx context.Context, selector, text string) (err error) {
	ctx, step := s.span(ctx, "Fill", attribute.String(logg.Selector, selector))
	defer func() {
		step.End(err)
	}()

	sel := layout.Bare(selector)

	return s.run(ctx, s.actionTimeout,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.SetValue(sel, "", chromedp.BySearch),
		chromedp.SendKeys(sel, text, chromedp.BySearch),
	)
}

func (s *chromedpSession) Press(ctx context.Context, selector, key string) (err error) {
	ctx, step := s.span(ctx, "Press", attribute.String(logg.Selector, selector), attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	return s.run(ctx, s.actionTimeout, chromedp.SendKeys(layout.Bare(selector), keyCode(key), chromedp.BySearch))
}

func keyCode(key string) string {
	switch key {
	case "Enter":
		return kb.Enter
	case "Tab":
		return kb.Tab
	case "Escape":
		return kb.Escape
	default:
		return key
	}
}

func (s *chromedpSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (s *chromedpSession) WaitForAttached(ctx context.Context, selector string, timeout time.Duration) (_ ports.PageElement, err error) {
	ctx, step := s.span(ctx, "WaitForAttached", attribute.String(logg.Selector, selector))
	defer func() {
		step.End(err)
	}()

	var nodes []*cdp.Node
	if err := s.run(ctx, timeout, chromedp.Nodes(layout.Bare(selector), &nodes, chromedp.BySearch)); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("selector %s resolved to no element", selector)
	}

	// XPath "[last()]" already narrows the match; the last node is the newest either way.
	return &chromedpElement{session: s, node: nodes[len(nodes)-1]}, nil
}

func (s *chromedpSession) Screenshot(ctx context.Context, path string) (err error) {
	ctx, step := s.span(ctx, "Screenshot", attribute.String("path", path))
	defer func() {
		step.End(err)
	}()

	var buf []byte
	if err := s.run(ctx, s.actionTimeout, chromedp.FullScreenshot(&buf, pngQuality)); err != nil {
		return err
	}

	return writePNG(path, buf)
}

// chromedp encodes full screenshots as PNG only at quality 100, JPEG otherwise.
const pngQuality = 100

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func writePNG(path string, data []byte) error {
	if !bytes.HasPrefix(data, pngSignature) {
		return fmt.Errorf("screenshot for %s is not PNG encoded", path)
	}

	return os.WriteFile(path, data, 0o644)
}

func (s *chromedpSession) Content(ctx context.Context) (_ string, err error) {
	ctx, step := s.span(ctx, "Content")
	defer func() {
		step.End(err)
	}()

	var html string
	err = s.run(ctx, s.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	return html, err
}

func (s *chromedpSession) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		_, step := s.span(ctx, "Close")

		err := chromedp.Cancel(s.tabCtx)
		s.tabCancel()
		s.allocCancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("close chrome: %w", err)
		}

		step.End(s.closeErr)
	})

	return s.closeErr
}

type chromedpElement struct {
	session *chromedpSession
	node    *cdp.Node
}

func (e *chromedpElement) ScrollIntoView(ctx context.Context) error {
	return e.session.run(ctx, e.session.actionTimeout,
		chromedp.ScrollIntoView([]cdp.NodeID{e.node.NodeID}, chromedp.ByNodeID))
}

func (e *chromedpElement) InnerText(ctx context.Context) (string, error) {
	var text string
	err := e.session.run(ctx, e.session.actionTimeout,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID))

	return text, err
}
