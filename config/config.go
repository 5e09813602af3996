package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/target"
)

// EnvPrefix prefixes environment overrides, e.g. CURSORPILOT_PRESS_DISTANCE.
const EnvPrefix = "CURSORPILOT"

// ErrInvertedHysteresis is returned when the release distance is not below the press
// distance.
var ErrInvertedHysteresis = errors.New("release distance must be below press distance")

// Config holds runtime configuration for tracking, steering and the app shell.
// Fields may be loaded from a JSON file and overridden by environment or flags.
type Config struct {
	Debug    bool   `json:"debug" mapstructure:"debug"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`
	Feed     string `json:"feed" mapstructure:"feed"`

	// Startup flags
	Following     bool `json:"following" mapstructure:"following"`
	RelativeMode  bool `json:"relative_mode" mapstructure:"relative_mode"`
	CursorControl bool `json:"cursor_control" mapstructure:"cursor_control"`

	// Key automation
	ForwardKey          string  `json:"forward_key" mapstructure:"forward_key"`
	PressDistance       float64 `json:"press_distance" mapstructure:"press_distance"`
	ReleaseDistance     float64 `json:"release_distance" mapstructure:"release_distance"`
	ReleaseVerifyMillis int     `json:"release_verify_ms" mapstructure:"release_verify_ms"`

	// Filters
	BoxProcessVariance          float64 `json:"box_process_variance" mapstructure:"box_process_variance"`
	BoxMeasurementVariance      float64 `json:"box_measurement_variance" mapstructure:"box_measurement_variance"`
	DistanceProcessVariance     float64 `json:"distance_process_variance" mapstructure:"distance_process_variance"`
	DistanceMeasurementVariance float64 `json:"distance_measurement_variance" mapstructure:"distance_measurement_variance"`

	// Steering
	TickHz                int     `json:"tick_hz" mapstructure:"tick_hz"`
	StopThreshold         float64 `json:"stop_threshold" mapstructure:"stop_threshold"`
	SlowFactor            float64 `json:"slow_factor" mapstructure:"slow_factor"`
	MinMove               float64 `json:"min_move" mapstructure:"min_move"`
	SmoothingFactor       float64 `json:"smoothing_factor" mapstructure:"smoothing_factor"`
	RelativeStopThreshold float64 `json:"relative_stop_threshold" mapstructure:"relative_stop_threshold"`
	RelativeSlowFactor    float64 `json:"relative_slow_factor" mapstructure:"relative_slow_factor"`
	RelativeStepScale     float64 `json:"relative_step_scale" mapstructure:"relative_step_scale"`
	RelativeMinMove       float64 `json:"relative_min_move" mapstructure:"relative_min_move"`
	RelativeOutputScale   float64 `json:"relative_output_scale" mapstructure:"relative_output_scale"`
	VirtualTargetShift    int     `json:"virtual_target_shift" mapstructure:"virtual_target_shift"`

	// Toggles and attack
	ToggleDebounceMillis int `json:"toggle_debounce_ms" mapstructure:"toggle_debounce_ms"`
	AttackMinMillis      int `json:"attack_min_ms" mapstructure:"attack_min_ms"`
	AttackMaxMillis      int `json:"attack_max_ms" mapstructure:"attack_max_ms"`
	ShutdownWaitMillis   int `json:"shutdown_wait_ms" mapstructure:"shutdown_wait_ms"`

	IgnoredClasses []string `json:"ignored_classes" mapstructure:"ignored_classes"`

	// Hotkeys
	HotkeyMode          string `json:"hotkey_mode" mapstructure:"hotkey_mode"`
	HotkeyFollowing     string `json:"hotkey_following" mapstructure:"hotkey_following"`
	HotkeyAttack        string `json:"hotkey_attack" mapstructure:"hotkey_attack"`
	HotkeyTogglePerson  string `json:"hotkey_toggle_person" mapstructure:"hotkey_toggle_person"`
	HotkeyCursorControl string `json:"hotkey_cursor_control" mapstructure:"hotkey_cursor_control"`
	HotkeyExit          string `json:"hotkey_exit" mapstructure:"hotkey_exit"`
	HotkeyPollMillis    int    `json:"hotkey_poll_ms" mapstructure:"hotkey_poll_ms"`

	// Instrumentation
	OSErrorLogIntervalSeconds int `json:"os_error_log_interval_s" mapstructure:"os_error_log_interval_s"`
	StatsIntervalSeconds      int `json:"stats_interval_s" mapstructure:"stats_interval_s"`
	UIRefreshMillis           int `json:"ui_refresh_ms" mapstructure:"ui_refresh_ms"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:                    "info",
		Following:                   true,
		CursorControl:               true,
		ForwardKey:                  "w",
		PressDistance:               1.9,
		ReleaseDistance:             1.8,
		ReleaseVerifyMillis:         20,
		BoxProcessVariance:          0.00001,
		BoxMeasurementVariance:      0.3,
		DistanceProcessVariance:     0.003,
		DistanceMeasurementVariance: 0.05,
		TickHz:                      500,
		StopThreshold:               2,
		SlowFactor:                  100,
		MinMove:                     0.01,
		SmoothingFactor:             0.1,
		RelativeStopThreshold:       80,
		RelativeSlowFactor:          500,
		RelativeStepScale:           100,
		RelativeMinMove:             0.1,
		RelativeOutputScale:         10,
		VirtualTargetShift:          5,
		ToggleDebounceMillis:        500,
		AttackMinMillis:             100,
		AttackMaxMillis:             300,
		ShutdownWaitMillis:          1000,
		IgnoredClasses:              target.DefaultIgnoredClasses(),
		HotkeyMode:                  "-",
		HotkeyFollowing:             "+",
		HotkeyAttack:                "backspace",
		HotkeyTogglePerson:          "\\",
		HotkeyCursorControl:         "]",
		HotkeyExit:                  "F1",
		HotkeyPollMillis:            30,
		OSErrorLogIntervalSeconds:   5,
		StatsIntervalSeconds:        5,
		UIRefreshMillis:             100,
	}
}

// Validate clamps/normalizes values to safe ranges. Key names that cannot be
// mapped and an inverted hysteresis band are reported as errors.
func (c *Config) Validate() error {
	d := DefaultConfig()
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = d.LogLevel
	}
	if c.PressDistance <= 0 {
		c.PressDistance = d.PressDistance
	}
	if c.ReleaseDistance <= 0 {
		c.ReleaseDistance = d.ReleaseDistance
	}
	if c.ReleaseDistance >= c.PressDistance {
		errs = append(errs, fmt.Errorf("%w: press=%g release=%g", ErrInvertedHysteresis, c.PressDistance, c.ReleaseDistance))
	}
	if c.ReleaseVerifyMillis < 0 {
		c.ReleaseVerifyMillis = d.ReleaseVerifyMillis
	}
	clampPositive(&c.BoxProcessVariance, d.BoxProcessVariance)
	clampPositive(&c.BoxMeasurementVariance, d.BoxMeasurementVariance)
	clampPositive(&c.DistanceProcessVariance, d.DistanceProcessVariance)
	clampPositive(&c.DistanceMeasurementVariance, d.DistanceMeasurementVariance)

	if c.TickHz <= 0 || c.TickHz > 2000 {
		c.TickHz = d.TickHz
	}
	if c.StopThreshold < 0 {
		c.StopThreshold = d.StopThreshold
	}
	clampPositive(&c.SlowFactor, d.SlowFactor)
	clampPositive(&c.MinMove, d.MinMove)
	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		c.SmoothingFactor = d.SmoothingFactor
	}
	if c.RelativeStopThreshold < 0 {
		c.RelativeStopThreshold = d.RelativeStopThreshold
	}
	clampPositive(&c.RelativeSlowFactor, d.RelativeSlowFactor)
	clampPositive(&c.RelativeStepScale, d.RelativeStepScale)
	clampPositive(&c.RelativeMinMove, d.RelativeMinMove)
	clampPositive(&c.RelativeOutputScale, d.RelativeOutputScale)
	if c.VirtualTargetShift < 0 {
		c.VirtualTargetShift = d.VirtualTargetShift
	}

	if c.ToggleDebounceMillis < 0 {
		c.ToggleDebounceMillis = d.ToggleDebounceMillis
	}
	if c.AttackMinMillis <= 0 {
		c.AttackMinMillis = d.AttackMinMillis
	}
	if c.AttackMaxMillis < c.AttackMinMillis {
		c.AttackMaxMillis = c.AttackMinMillis
	}
	if c.ShutdownWaitMillis <= 0 {
		c.ShutdownWaitMillis = d.ShutdownWaitMillis
	}
	if c.HotkeyPollMillis <= 0 {
		c.HotkeyPollMillis = d.HotkeyPollMillis
	}
	if c.OSErrorLogIntervalSeconds <= 0 {
		c.OSErrorLogIntervalSeconds = d.OSErrorLogIntervalSeconds
	}
	if c.StatsIntervalSeconds <= 0 {
		c.StatsIntervalSeconds = d.StatsIntervalSeconds
	}
	if c.UIRefreshMillis <= 0 {
		c.UIRefreshMillis = d.UIRefreshMillis
	}

	for name, key := range map[string]string{
		"forward_key":           c.ForwardKey,
		"hotkey_mode":           c.HotkeyMode,
		"hotkey_following":      c.HotkeyFollowing,
		"hotkey_attack":         c.HotkeyAttack,
		"hotkey_toggle_person":  c.HotkeyTogglePerson,
		"hotkey_cursor_control": c.HotkeyCursorControl,
		"hotkey_exit":           c.HotkeyExit,
	} {
		if _, err := action.ParseVK(key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func clampPositive(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

// TickInterval converts TickHz into a ticker period.
func (c *Config) TickInterval() time.Duration {
	if c.TickHz <= 0 {
		return 2 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickHz)
}

func (c *Config) ToggleDebounce() time.Duration {
	return time.Duration(c.ToggleDebounceMillis) * time.Millisecond
}

func (c *Config) ShutdownWait() time.Duration {
	return time.Duration(c.ShutdownWaitMillis) * time.Millisecond
}

// Load reads configuration from an optional JSON file with CURSORPILOT_* environment
// overrides. A missing file yields defaults (plus env) without error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// setDefaults registers every key so AutomaticEnv can override keys absent from
// the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	raw, _ := json.Marshal(cfg)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	for k, val := range m {
		v.SetDefault(k, val)
	}
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
