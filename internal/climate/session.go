package climate

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/logging"
)

// call runs an authenticated operation with the stored token, applying the
// retry and re-authentication policy.
func (m *Manager) call(ctx context.Context, op func(token string) error) error {
	token, err := m.token(ctx)
	if err != nil {
		return err
	}

	err = m.retry(ctx, func() error { return op(token) })
	if err == nil || !m.reauth || !cloud.IsAuthError(err) {
		return err
	}

	logging.Warn("Session rejected, logging in again", zap.Error(err))
	token, err = m.relogin(ctx, token)
	if err != nil {
		return err
	}
	return m.retry(ctx, func() error { return op(token) })
}

// token returns the stored session token, logging in first when none is
// stored and re-authentication is enabled.
func (m *Manager) token(ctx context.Context) (string, error) {
	token, err := m.store.Token()
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	if token != "" {
		return token, nil
	}
	if !m.reauth {
		return "", ErrNotAuthenticated
	}
	return m.relogin(ctx, "")
}

// relogin obtains a fresh token. stale is the token that was rejected; if
// another goroutine already replaced it, the new one is reused.
func (m *Manager) relogin(ctx context.Context, stale string) (string, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	current, err := m.store.Token()
	if err == nil && current != "" && current != stale {
		return current, nil
	}

	email, password, ok := m.store.Credentials()
	if !ok {
		return "", fmt.Errorf("%w: no stored credentials", ErrNotAuthenticated)
	}

	var token string
	err = m.retry(ctx, func() error {
		var err error
		token, err = m.api.Authenticate(ctx, email, password)
		return err
	})
	if err != nil {
		return "", err
	}

	if err := m.store.SaveToken(token); err != nil {
		return "", fmt.Errorf("failed to save session token: %w", err)
	}
	logging.Info("Re-authenticated with Sabiana cloud", zap.String("email", email))
	return token, nil
}

// retry repeats op while it fails with a transport error, up to maxRetries
// extra attempts.
func (m *Manager) retry(ctx context.Context, op func() error) error {
	if m.maxRetries <= 0 {
		return op()
	}

	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), uint64(m.maxRetries)), ctx)
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !cloud.IsTransportError(err) || !cloud.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		logging.Debug("Transport error, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", m.maxRetries),
			zap.Error(err),
		)
		return err
	}, b)
}
