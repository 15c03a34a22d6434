package nodecfg

import (
	"fmt"

	"github.com/quadcell-project/quadcell-go/pkg/nvstore"
)

// Persisted configuration keys, each independently settable.
const (
	keyTxInterval    = "tx_interval_s"
	keyStabilization = "stabilization_ms"
	keyPlan          = "plan"
	keySubBand       = "sub_band"
	keyDwell         = "dwell_enforced"
	keySensorPower   = "sensor_power_control"
	keyDiagnostics   = "diagnostics"
)

// Store loads and saves the runtime configuration through the persistent
// key-value store.
type Store struct {
	kv *nvstore.Store
}

// NewStore creates a configuration store over the given key-value store.
func NewStore(kv *nvstore.Store) *Store {
	return &Store{kv: kv}
}

// Load reads the configuration, falling back to the default for any key
// that is missing or holds an out-of-range value. A fresh store therefore
// yields Default() without error.
func (s *Store) Load() (Config, error) {
	cfg := Default()

	var interval uint16
	found, err := s.kv.Get(nvstore.NamespaceConfig, keyTxInterval, &interval)
	if err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	}
	if found {
		_ = cfg.SetTxInterval(interval) // out-of-range stored value keeps the default
	}

	var stab uint16
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keyStabilization, &stab); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		_ = cfg.SetStabilization(stab)
	}

	var plan uint8
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keyPlan, &plan); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		_ = cfg.SetPlan(plan)
	}

	var subBand uint8
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keySubBand, &subBand); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		_ = cfg.SetSubBand(subBand)
	}

	var b bool
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keyDwell, &b); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		cfg.DwellEnforced = b
	}
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keySensorPower, &b); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		cfg.SensorPowerControl = b
	}
	if found, err = s.kv.Get(nvstore.NamespaceConfig, keyDiagnostics, &b); err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	} else if found {
		cfg.Diagnostics = b
	}

	return cfg, nil
}

// Save writes every configuration key. Called immediately after each
// accepted mutation so a power loss never loses an acknowledged change.
func (s *Store) Save(cfg Config) error {
	puts := []struct {
		key   string
		value any
	}{
		{keyTxInterval, cfg.TxIntervalSeconds},
		{keyStabilization, cfg.StabilizationMillis},
		{keyPlan, cfg.Plan.Selector()},
		{keySubBand, cfg.SubBand},
		{keyDwell, cfg.DwellEnforced},
		{keySensorPower, cfg.SensorPowerControl},
		{keyDiagnostics, cfg.Diagnostics},
	}
	for _, p := range puts {
		if err := s.kv.Put(nvstore.NamespaceConfig, p.key, p.value); err != nil {
			return fmt.Errorf("saving configuration key %s: %w", p.key, err)
		}
	}
	return nil
}
