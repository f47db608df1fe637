package config

import (
	"sort"
	"sync"
	"time"

	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
)

// Registry represents the entire user configuration file.
// It stores the cloud session and what is known about each unit.
//
// Registry implements climate.CredentialStore. It is safe for concurrent use.
type Registry struct {
	Version int                `yaml:"version"`
	BaseURL string             `yaml:"base_url,omitempty"` // Overrides the cloud endpoint
	Account Account            `yaml:"account"`
	Devices map[string]*Device `yaml:"devices,omitempty"` // Keyed by cloud device id

	mu       sync.Mutex
	path     string
	password string
}

// Account holds the login identity and the current session token.
// Note: the password is NEVER stored.
type Account struct {
	Email string `yaml:"email,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// Device represents what the client knows about a single unit.
type Device struct {
	Name         string            `yaml:"name,omitempty"`          // Name reported by the cloud
	LastSeen     time.Time         `yaml:"last_seen,omitempty"`     // Last time the device was listed
	LastSettings *command.Settings `yaml:"last_settings,omitempty"` // Last acknowledged settings
	LastSent     time.Time         `yaml:"last_sent,omitempty"`     // When LastSettings was acknowledged
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: CurrentVersion,
		Devices: make(map[string]*Device),
	}
}

// WithPassword keeps a password in memory so the registry can hand out
// credentials for re-authentication. The password is never saved.
func (r *Registry) WithPassword(password string) *Registry {
	r.mu.Lock()
	r.password = password
	r.mu.Unlock()
	return r
}

// Token returns the stored session token ("" when logged out).
func (r *Registry) Token() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Account.Token, nil
}

// SaveToken stores a new session token and persists the registry when it
// is backed by a file.
func (r *Registry) SaveToken(token string) error {
	r.mu.Lock()
	r.Account.Token = token
	r.mu.Unlock()

	if r.path == "" {
		return nil
	}
	return r.Save()
}

// Credentials returns the account email and the runtime password.
// ok is false when either is missing.
func (r *Registry) Credentials() (email, password string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Account.Email, r.password, r.Account.Email != "" && r.password != ""
}

// SetEmail records the login identity
func (r *Registry) SetEmail(email string) {
	r.mu.Lock()
	r.Account.Email = email
	r.mu.Unlock()
}

// Logout clears the session token and the cached device list.
func (r *Registry) Logout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Account.Token = ""
	r.Devices = make(map[string]*Device)
}

// ensureDevice returns the entry for id, creating it if needed.
// Callers must hold r.mu.
func (r *Registry) ensureDevice(id string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device, exists := r.Devices[id]; exists {
		return device
	}
	device := &Device{}
	r.Devices[id] = device
	return device
}

// RecordDevices updates names and last-seen times from a device listing.
// Devices not in the listing are kept so their last settings survive.
func (r *Registry) RecordDevices(devices []cloud.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, d := range devices {
		device := r.ensureDevice(d.ID)
		device.Name = d.Name
		device.LastSeen = now
	}
}

// RecordSettings stores the settings a device acknowledged.
func (r *Registry) RecordSettings(id string, s command.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.ensureDevice(id)
	device.LastSettings = &s
	device.LastSent = time.Now()
}

// LastSettings returns the last acknowledged settings for a device.
// Its signature matches climate.SettingsSource.
func (r *Registry) LastSettings(id string) (command.Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.Devices[id]
	if !ok || device.LastSettings == nil {
		return command.Settings{}, false
	}
	return *device.LastSettings, true
}

// DeviceIDs returns the known device ids in sorted order.
func (r *Registry) DeviceIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.Devices))
	for id := range r.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetDevice retrieves a copy of the entry for id.
func (r *Registry) GetDevice(id string) (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.Devices[id]
	if !ok {
		return Device{}, false
	}
	return *device, true
}
