package browser

import (
	"ask-relay/internal/ports"
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

var ErrSessionClosed = errors.New("browser session closed")

// normalize maps engine timeouts onto ports.ErrTimeout and leaves other errors untouched.
func normalize(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ports.ErrTimeout) {
		return err
	}

	if errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}

	return err
}

func IsTimeout(err error) bool {
	return errors.Is(err, ports.ErrTimeout)
}
