package pinctrl

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/pinctrl/utils"
)

// MaxSettleDelay bounds Config.SettleDelay; the pause runs on the work loop and stalls every
// other caller while it lasts.
const MaxSettleDelay = 10 * time.Millisecond

// Config describes a controller instance.
type Config struct {
	// SoC is the name of a registered topology.
	SoC string `json:"soc"`
	// SettleDelay is paused once per dispatch pass before reading any pad group after the
	// first. Zero disables it.
	SettleDelay time.Duration `json:"settle_delay,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.SoC == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "soc")
	}
	if cfg.SettleDelay < 0 || cfg.SettleDelay > MaxSettleDelay {
		return utils.NewConfigValidationError(path,
			errors.Errorf("settle_delay must be between 0 and %s, got %s", MaxSettleDelay, cfg.SettleDelay))
	}
	return nil
}

// DecodeConfig builds a Config from loosely typed attributes, as found in a JSON document.
// Durations may be given as strings ("250us") or nanoseconds. Unknown keys are rejected.
func DecodeConfig(attrs map[string]interface{}) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "decoding pinctrl config")
	}
	return &cfg, nil
}
