package climate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/logging"
)

// API is the subset of *cloud.Client the manager needs.
type API interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	ListDevices(ctx context.Context, token string) ([]cloud.Device, error)
	SendCommand(ctx context.Context, token, deviceID, data string) (bool, error)
}

// CredentialStore is provided by the host. The manager reads the session
// token from it, saves new tokens after a login, and asks it for credentials
// when re-authentication is enabled.
type CredentialStore interface {
	Token() (string, error)
	SaveToken(token string) error
	// Credentials returns ok=false when the host cannot supply a password.
	Credentials() (email, password string, ok bool)
}

// SettingsSource returns previously acknowledged settings for a device, used
// to seed thermostats found by Discover.
type SettingsSource func(deviceID string) (command.Settings, bool)

// Event is published after every command attempt. Settings is the state the
// thermostat holds after the attempt, so on failure it is unchanged.
type Event struct {
	DeviceID string           `json:"device_id"`
	Name     string           `json:"name"`
	Settings command.Settings `json:"settings"`
	Err      error            `json:"-"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetry retries transport failures up to maxRetries times with
// exponential backoff. Auth and API errors are never retried.
func WithRetry(maxRetries int) Option {
	return func(m *Manager) {
		m.maxRetries = maxRetries
	}
}

// WithReauth enables a single re-login with the store's credentials after an
// authentication error, followed by one replay of the failed call.
func WithReauth(enabled bool) Option {
	return func(m *Manager) {
		m.reauth = enabled
	}
}

// WithSettingsSource seeds discovered thermostats from a previous run.
func WithSettingsSource(src SettingsSource) Option {
	return func(m *Manager) {
		m.lastSettings = src
	}
}

// WithMaxConcurrency bounds how many commands TurnAllOff sends at once.
func WithMaxConcurrency(n int) Option {
	return func(m *Manager) {
		m.concurrency = n
	}
}

// Manager owns the thermostats of one account.
type Manager struct {
	api   API
	store CredentialStore

	maxRetries   int
	reauth       bool
	concurrency  int
	lastSettings SettingsSource
	newBackOff   func() backoff.BackOff

	mu          sync.RWMutex
	thermostats map[string]*Thermostat
	order       []string

	// authMu serializes re-login so concurrent auth failures log in once
	authMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewManager creates a manager. With no options it never retries and never
// logs in on its own.
func NewManager(api API, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		api:         api,
		store:       store,
		concurrency: 4,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		thermostats: make(map[string]*Thermostat),
		subs:        make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login authenticates and saves the token in the credential store.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	var token string
	err := m.retry(ctx, func() error {
		var err error
		token, err = m.api.Authenticate(ctx, email, password)
		return err
	})
	if err != nil {
		return err
	}

	if err := m.store.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	logging.Info("Logged in to Sabiana cloud", zap.String("email", email))
	return nil
}

// Discover lists the account's devices and reconciles the thermostat set:
// new devices are added, names are refreshed, and devices no longer listed
// are dropped. Existing thermostats keep their settings.
func (m *Manager) Discover(ctx context.Context) ([]*Thermostat, error) {
	var devices []cloud.Device
	err := m.call(ctx, func(token string) error {
		var err error
		devices, err = m.api.ListDevices(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	seen := make(map[string]*Thermostat, len(devices))
	order := make([]string, 0, len(devices))
	for _, d := range devices {
		if _, dup := seen[d.ID]; dup {
			continue
		}
		t, ok := m.thermostats[d.ID]
		if !ok {
			t = m.newThermostat(d)
			logging.Debug("Discovered device", zap.String("device_id", d.ID), zap.String("name", d.Name))
		} else {
			t.setName(d.Name)
		}
		seen[d.ID] = t
		order = append(order, d.ID)
	}
	m.thermostats = seen
	m.order = order
	m.mu.Unlock()

	logging.Info("Device discovery complete", zap.Int("count", len(order)))
	return m.Thermostats(), nil
}

func (m *Manager) newThermostat(d cloud.Device) *Thermostat {
	settings := command.DefaultSettings()
	if m.lastSettings != nil {
		if s, ok := m.lastSettings(d.ID); ok {
			settings = s
		}
	}
	return &Thermostat{
		manager:  m,
		id:       d.ID,
		name:     d.Name,
		settings: settings,
	}
}

// Thermostat returns the thermostat for a discovered device.
func (m *Manager) Thermostat(id string) (*Thermostat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.thermostats[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return t, nil
}

// Thermostats returns all discovered thermostats in discovery order.
func (m *Manager) Thermostats() []*Thermostat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Thermostat, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.thermostats[id])
	}
	return out
}

// TurnAllOff switches every thermostat off concurrently. Devices are
// independent: one failure does not cancel the others, and every failure is
// returned joined together. Devices that succeed are committed regardless.
func (m *Manager) TurnAllOff(ctx context.Context) error {
	var g errgroup.Group
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}

	thermostats := m.Thermostats()
	errs := make([]error, len(thermostats))
	for i, t := range thermostats {
		g.Go(func() error {
			if err := t.TurnOff(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", t.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Subscribe returns a channel of command events and a function that
// unsubscribes and closes it. Slow subscribers miss events rather than
// blocking commands.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publish(ev Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			logging.Warn("Dropping climate event for slow subscriber", zap.String("device_id", ev.DeviceID))
		}
	}
}
