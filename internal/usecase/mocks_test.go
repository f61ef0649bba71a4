package usecase

import (
	"ask-relay/internal/entity"
	"ask-relay/internal/ports"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Open(ctx context.Context) (ports.BrowserSession, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(ports.BrowserSession)

	return session, args.Error(1)
}

func (m *mockEngine) Name() string {
	return "mock"
}

type mockSession struct {
	mock.Mock
}

func (m *mockSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return m.Called(ctx, url, timeout).Error(0)
}

func (m *mockSession) Fill(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}

func (m *mockSession) Press(ctx context.Context, selector, key string) error {
	return m.Called(ctx, selector, key).Error(0)
}

func (m *mockSession) Wait(ctx context.Context, d time.Duration) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockSession) WaitForAttached(ctx context.Context, selector string, timeout time.Duration) (ports.PageElement, error) {
	args := m.Called(ctx, selector, timeout)
	element, _ := args.Get(0).(ports.PageElement)

	return element, args.Error(1)
}

func (m *mockSession) Screenshot(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockSession) Content(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

func (m *mockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockElement struct {
	mock.Mock
}

func (m *mockElement) ScrollIntoView(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockElement) InnerText(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, diag entity.Diagnostics) error {
	return m.Called(ctx, diag).Error(0)
}

// panickyElement stands in for an engine that blows up mid-extraction.
type panickyElement struct{}

func (panickyElement) ScrollIntoView(context.Context) error { return nil }

func (panickyElement) InnerText(context.Context) (string, error) {
	panic("renderer crashed")
}
