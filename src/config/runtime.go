package config

import (
	"log"
	"strings"
	"sync"

	"stealth-overlay/src/logutil"
)

// SecretStore mirrors credential changes outside the process.
type SecretStore interface {
	Set(name, value string) error
}

// Runtime holds the values the user can change while the overlay runs. Each
// field has its own lock so a slow reader of one never blocks another.
type Runtime struct {
	modelMu sync.RWMutex
	model   string

	primaryMu sync.RWMutex
	primary   string

	secondaryMu sync.RWMutex
	secondary   string

	store SecretStore
}

// NewRuntime seeds runtime values from the startup configuration. store may be nil.
func NewRuntime(cfg *Config, store SecretStore) *Runtime {
	r := &Runtime{store: store, model: DefaultModel}
	if cfg != nil {
		if cfg.Model != "" {
			r.model = cfg.Model
		}
		r.primary = strings.TrimSpace(cfg.APIKey)
		r.secondary = strings.TrimSpace(cfg.HFToken)
	}
	return r
}

func (r *Runtime) Model() string {
	r.modelMu.RLock()
	defer r.modelMu.RUnlock()
	return r.model
}

// SetModel replaces the user model and returns the model now in effect. A
// blank name leaves the current model unchanged.
func (r *Runtime) SetModel(model string) string {
	model = strings.TrimSpace(model)
	r.modelMu.Lock()
	if model == "" {
		current := r.model
		r.modelMu.Unlock()
		log.Printf("config: ignoring blank model, keeping %q", current)
		return current
	}
	r.model = model
	r.modelMu.Unlock()
	log.Printf("config: model set to %q", model)
	return model
}

// PrimaryKey returns the primary credential and whether it is present.
func (r *Runtime) PrimaryKey() (string, bool) {
	r.primaryMu.RLock()
	defer r.primaryMu.RUnlock()
	return r.primary, r.primary != ""
}

// SetPrimaryKey stores the primary credential; a blank key removes it.
func (r *Runtime) SetPrimaryKey(key string) {
	key = strings.TrimSpace(key)
	r.primaryMu.Lock()
	r.primary = key
	r.primaryMu.Unlock()
	r.persist(PrimaryKeyEnvVar, key)
}

// SecondaryKey returns the secondary credential and whether it is present.
func (r *Runtime) SecondaryKey() (string, bool) {
	r.secondaryMu.RLock()
	defer r.secondaryMu.RUnlock()
	return r.secondary, r.secondary != ""
}

// SetSecondaryKey stores the secondary credential; a blank token removes it.
func (r *Runtime) SetSecondaryKey(token string) {
	token = strings.TrimSpace(token)
	r.secondaryMu.Lock()
	r.secondary = token
	r.secondaryMu.Unlock()
	r.persist(SecondaryKeyEnvVar, token)
}

func (r *Runtime) persist(name, value string) {
	if value == "" {
		log.Printf("config: %s cleared", name)
	} else {
		log.Printf("config: %s set to %s", name, logutil.RedactKey(value))
	}
	if r.store == nil {
		return
	}
	if err := r.store.Set(name, value); err != nil {
		log.Printf("config: failed to persist %s: %v", name, err)
	}
}
