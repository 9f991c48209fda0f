package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"docFetcher/internal/acquire"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutForUsesSmallerBound(t *testing.T) {
	ms := timeoutFor(context.Background(), 5*time.Second)
	require.NotNil(t, ms)
	assert.Equal(t, float64(5000), *ms)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ms = timeoutFor(ctx, time.Minute)
	assert.LessOrEqual(t, *ms, float64(1000))
	assert.Greater(t, *ms, float64(0))
}

func TestTimeoutForExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	ms := timeoutFor(ctx, time.Minute)
	assert.Equal(t, float64(1), *ms)
}

func TestMapErrorTimeout(t *testing.T) {
	err := mapError(playwright.ErrTimeout)
	assert.ErrorIs(t, err, acquire.ErrTimeout)

	other := errors.New("target closed")
	assert.Same(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}

// stalledPage зависает на чтении разметки и выполнении скриптов.
type stalledPage struct {
	playwright.Page
	release chan struct{}
}

func (p *stalledPage) Content() (string, error) {
	<-p.release
	return "<html></html>", nil
}

func (p *stalledPage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	<-p.release
	return nil, nil
}

func TestContentBoundedByContextDeadline(t *testing.T) {
	stalled := &stalledPage{release: make(chan struct{})}
	defer close(stalled.release)
	page := newSessionPage(stalled, Config{Timeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := page.Content(ctx)
	assert.ErrorIs(t, err, acquire.ErrTimeout)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestEvaluateBoundedByDefaultTimeout(t *testing.T) {
	stalled := &stalledPage{release: make(chan struct{})}
	defer close(stalled.release)
	page := newSessionPage(stalled, Config{Timeout: 50 * time.Millisecond})

	_, err := page.Evaluate(context.Background(), "() => 1")
	assert.ErrorIs(t, err, acquire.ErrTimeout)
}

func TestAwaitReturnsResult(t *testing.T) {
	value, err := await(context.Background(), time.Second, func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	_, err = await(context.Background(), time.Second, func() (string, error) {
		return "", playwright.ErrTimeout
	})
	assert.ErrorIs(t, err, acquire.ErrTimeout)
}
