package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pleimann/multipicture/internal/budget"
	"github.com/pleimann/multipicture/internal/transition"
)

// UseDefault marks a per-screen value that falls back to screens.default.
const UseDefault = "use_default"

// KeyguardIndex addresses the keyguard screen in Screen().
const KeyguardIndex = -1

type Config struct {
	Display    DisplayConfig    `yaml:"display"`
	Draw       DrawConfig       `yaml:"draw"`
	Screens    ScreensConfig    `yaml:"screens"`
	Folder     FolderConfig     `yaml:"folder"`
	Memory     MemoryConfig     `yaml:"memory"`
	Workaround WorkaroundConfig `yaml:"workaround"`
	Device     DeviceConfig     `yaml:"device"`
	Timing     TimingConfig     `yaml:"timing"`
	Buttons    []Button         `yaml:"buttons"`
	Chords     []Chord          `yaml:"chords"`
	Server     ServerConfig     `yaml:"server"`
	Output     OutputConfig     `yaml:"output"`
}

type DisplayConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

type DrawConfig struct {
	Transition string           `yaml:"transition"`
	Reflection ReflectionConfig `yaml:"reflection"`
}

type ReflectionConfig struct {
	Top    bool  `yaml:"top"`
	Bottom *bool `yaml:"bottom,omitempty"`
}

type ScreensConfig struct {
	Default   ScreenConfig         `yaml:"default"`
	Overrides map[int]ScreenConfig `yaml:"overrides,omitempty"`
	Keyguard  KeyguardConfig       `yaml:"keyguard"`
}

type KeyguardConfig struct {
	Enabled      bool `yaml:"enabled"`
	ScreenConfig `yaml:",inline"`
}

// ScreenConfig holds one screen's settings. Empty strings and "use_default"
// inherit from screens.default.
type ScreenConfig struct {
	Source        *SourceConfig `yaml:"source,omitempty"`
	BgColor       string        `yaml:"bgcolor,omitempty"`
	BgColorCustom string        `yaml:"bgcolor_custom,omitempty"`
	Clip          string        `yaml:"clip,omitempty"`
	Saturation    string        `yaml:"saturation,omitempty"`
	Opacity       string        `yaml:"opacity,omitempty"`
}

type SourceConfig struct {
	Provider  string `yaml:"provider"`
	Path      string `yaml:"path,omitempty"`
	Recursive bool   `yaml:"recursive,omitempty"`
	Order     string `yaml:"order,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
}

type FolderConfig struct {
	ChangeTap   *bool `yaml:"change_tap,omitempty"`
	DurationSec *int  `yaml:"duration_sec,omitempty"`
	DurationMin *int  `yaml:"duration_min,omitempty"`
}

type MemoryConfig struct {
	Max string `yaml:"max"`
}

type WorkaroundConfig struct {
	Launcher string `yaml:"launcher"`
}

type DeviceConfig struct {
	Enabled        bool   `yaml:"enabled"`
	VendorID       uint16 `yaml:"vendor_id"`
	ProductID      uint16 `yaml:"product_id"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

type TimingConfig struct {
	DoublePressWindowMs  int `yaml:"double_press_window_ms"`
	LongPressThresholdMs int `yaml:"long_press_threshold_ms"`
	ChordWindowMs        int `yaml:"chord_window_ms"`
	ScrollDurationMs     int `yaml:"scroll_duration_ms"`
}

type Button struct {
	Index       int    `yaml:"index"`
	Name        string `yaml:"name,omitempty"`
	Press       string `yaml:"press,omitempty"`
	DoublePress string `yaml:"double_press,omitempty"`
	LongPress   string `yaml:"long_press,omitempty"`
}

type Chord struct {
	Buttons []int  `yaml:"buttons"`
	Action  string `yaml:"action"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// OutputConfig controls the frame file written for external wallpaper
// setters. An empty path disables it.
type OutputConfig struct {
	Path       string `yaml:"path,omitempty"`
	IntervalMs int    `yaml:"interval_ms"`
}

// Providers lists the picture source names a screen may use.
var Providers = []string{"single", "folder", "album"}

// Launchers lists the launcher workaround names.
var Launchers = []string{
	"none",
	"force_5screen", "force_7screen",
	"htc_sense", "htc_sense_5screen",
	"honeycomb_launcher",
	"no_vertical",
}

// Actions lists the names buttons and chords may be bound to.
var Actions = []string{
	"scroll_left", "scroll_right", "scroll_up", "scroll_down",
	"change_picture", "toggle_visibility", "unlock", "lock",
}

var namedColors = map[string]uint32{
	"black":     0xff000000,
	"darkgray":  0xff444444,
	"gray":      0xff888888,
	"lightgray": 0xffcccccc,
	"white":     0xffffffff,
	"red":       0xffff0000,
	"green":     0xff00ff00,
	"blue":      0xff0000ff,
	"yellow":    0xffffff00,
	"cyan":      0xff00ffff,
	"magenta":   0xffff00ff,
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and defaults a config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("display size must not be negative")
	}
	if c.Draw.Transition != "" {
		if _, err := transition.ParseKind(c.Draw.Transition); err != nil {
			return fmt.Errorf("draw.transition: %w", err)
		}
	}
	if c.Memory.Max != "" && c.Memory.Max != "auto" {
		if _, err := strconv.Atoi(c.Memory.Max); err != nil {
			return fmt.Errorf("memory.max must be \"auto\" or a number of megabytes: %q", c.Memory.Max)
		}
	}
	if c.Workaround.Launcher != "" && !oneOf(Launchers, c.Workaround.Launcher) {
		return fmt.Errorf("unknown workaround.launcher: %s", c.Workaround.Launcher)
	}

	if err := c.Screens.Default.validate("screens.default", false); err != nil {
		return err
	}
	for idx, sc := range c.Screens.Overrides {
		if idx < 0 {
			return fmt.Errorf("screens.overrides: negative screen index %d", idx)
		}
		if err := sc.validate(fmt.Sprintf("screens.overrides.%d", idx), true); err != nil {
			return err
		}
	}
	if err := c.Screens.Keyguard.validate("screens.keyguard", true); err != nil {
		return err
	}

	if c.Device.Enabled {
		if c.Device.VendorID == 0 {
			return fmt.Errorf("device.vendor_id is required")
		}
		if c.Device.ProductID == 0 {
			return fmt.Errorf("device.product_id is required")
		}
	}

	// Validate button indices are unique
	seen := make(map[int]bool)
	for _, btn := range c.Buttons {
		if seen[btn.Index] {
			return fmt.Errorf("duplicate button index: %d", btn.Index)
		}
		seen[btn.Index] = true
		for _, a := range []string{btn.Press, btn.DoublePress, btn.LongPress} {
			if a != "" && !oneOf(Actions, a) {
				return fmt.Errorf("button %d: unknown action %q", btn.Index, a)
			}
		}
	}

	for i, chord := range c.Chords {
		if len(chord.Buttons) < 2 {
			return fmt.Errorf("chord %d must have at least 2 buttons", i)
		}
		if !oneOf(Actions, chord.Action) {
			return fmt.Errorf("chord %d: unknown action %q", i, chord.Action)
		}
	}

	return nil
}

func (s ScreenConfig) validate(name string, allowDefault bool) error {
	if s.Source != nil && s.Source.Provider != "" && s.Source.Provider != UseDefault &&
		!oneOf(Providers, s.Source.Provider) {
		return fmt.Errorf("%s.source: unknown provider %q", name, s.Source.Provider)
	}
	if s.BgColor != "" && !(allowDefault && s.BgColor == UseDefault) {
		if _, _, err := parseBgColor(s.BgColor, s.BgColorCustom); err != nil {
			return fmt.Errorf("%s.bgcolor: %w", name, err)
		}
	}
	for key, v := range map[string]string{"clip": s.Clip, "saturation": s.Saturation, "opacity": s.Opacity} {
		if v == "" || (allowDefault && v == UseDefault) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s.%s: %q is not a number", name, key, v)
		}
		if key != "saturation" && (f < 0 || f > 1) {
			return fmt.Errorf("%s.%s must be within [0, 1]", name, key)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Display.Width == 0 {
		c.Display.Width = 800
	}
	if c.Display.Height == 0 {
		c.Display.Height = 480
	}
	if c.Display.Columns == 0 {
		c.Display.Columns = 5
	}
	if c.Display.Rows == 0 {
		c.Display.Rows = 1
	}
	if c.Draw.Transition == "" {
		c.Draw.Transition = transition.Default.String()
	}
	if c.Draw.Reflection.Bottom == nil {
		c.Draw.Reflection.Bottom = boolPtr(true)
	}
	if c.Screens.Default.Source == nil {
		c.Screens.Default.Source = &SourceConfig{Provider: "single"}
	}
	if c.Screens.Default.BgColor == "" {
		c.Screens.Default.BgColor = "black"
	}
	if c.Screens.Default.Clip == "" {
		c.Screens.Default.Clip = "1.0"
	}
	if c.Screens.Default.Saturation == "" {
		c.Screens.Default.Saturation = "1.0"
	}
	if c.Screens.Default.Opacity == "" {
		c.Screens.Default.Opacity = "1.0"
	}
	if c.Folder.ChangeTap == nil {
		c.Folder.ChangeTap = boolPtr(true)
	}
	if c.Memory.Max == "" {
		c.Memory.Max = "auto"
	}
	if c.Workaround.Launcher == "" {
		c.Workaround.Launcher = "none"
	}
	if c.Device.PollIntervalMs == 0 {
		c.Device.PollIntervalMs = 10
	}
	if c.Timing.DoublePressWindowMs == 0 {
		c.Timing.DoublePressWindowMs = 300
	}
	if c.Timing.LongPressThresholdMs == 0 {
		c.Timing.LongPressThresholdMs = 500
	}
	if c.Timing.ChordWindowMs == 0 {
		c.Timing.ChordWindowMs = 50
	}
	if c.Timing.ScrollDurationMs == 0 {
		c.Timing.ScrollDurationMs = 300
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8420"
	}
	if c.Output.IntervalMs == 0 {
		c.Output.IntervalMs = 1000
	}
}

// Transition returns the configured transition kind.
func (c *Config) Transition() transition.Kind {
	k, err := transition.ParseKind(c.Draw.Transition)
	if err != nil {
		return transition.Default
	}
	return k
}

// ChangeTap reports whether a double tap changes pictures.
func (c *Config) ChangeTap() bool {
	return c.Folder.ChangeTap == nil || *c.Folder.ChangeTap
}

// ReflectBottom reports whether the bottom mirror image is drawn.
func (c *Config) ReflectBottom() bool {
	return c.Draw.Reflection.Bottom == nil || *c.Draw.Reflection.Bottom
}

// ChangeDurationSec is the automatic picture change interval. duration_sec
// wins over duration_min; the default is one hour. Zero disables it.
func (c *Config) ChangeDurationSec() int {
	switch {
	case c.Folder.DurationSec != nil:
		return *c.Folder.DurationSec
	case c.Folder.DurationMin != nil:
		return *c.Folder.DurationMin * 60
	}
	return 60 * 60
}

// MemoryMB returns the memory ceiling the budget is computed from.
func (c *Config) MemoryMB() int {
	if c.Memory.Max == "" || c.Memory.Max == "auto" {
		return budget.EffectiveMemoryMB(0, true)
	}
	n, err := strconv.Atoi(c.Memory.Max)
	if err != nil {
		return budget.EffectiveMemoryMB(0, true)
	}
	return budget.EffectiveMemoryMB(n, false)
}

// Screen holds the resolved settings for one slot.
type Screen struct {
	Source           SourceConfig
	SourceKey        string
	DetectBackground bool
	BackgroundColor  uint32
	Clip             float64
	Saturation       float64
	Opacity          float64
}

// Screen resolves the settings of grid screen idx, or of the keyguard for
// KeyguardIndex, falling back to screens.default.
func (c *Config) Screen(idx int) Screen {
	def := c.Screens.Default
	var sc ScreenConfig
	key := strconv.Itoa(idx)
	if idx == KeyguardIndex {
		sc = c.Screens.Keyguard.ScreenConfig
		key = "keyguard"
	} else {
		sc = c.Screens.Overrides[idx]
	}

	var out Screen
	if sc.Source == nil || sc.Source.Provider == "" || sc.Source.Provider == UseDefault {
		if def.Source != nil {
			out.Source = *def.Source
		}
		out.SourceKey = "default"
	} else {
		out.Source = *sc.Source
		out.SourceKey = key
	}

	defDetect, defColor, _ := parseBgColor(def.BgColor, def.BgColorCustom)
	if sc.BgColor == "" || sc.BgColor == UseDefault {
		out.DetectBackground, out.BackgroundColor = defDetect, defColor
	} else if detect, color, err := parseBgColor(sc.BgColor, sc.BgColorCustom); err == nil {
		out.DetectBackground, out.BackgroundColor = detect, color
	} else {
		out.DetectBackground, out.BackgroundColor = defDetect, defColor
	}

	out.Clip = resolveFloat(sc.Clip, def.Clip, 1)
	out.Saturation = resolveFloat(sc.Saturation, def.Saturation, 1)
	out.Opacity = resolveFloat(sc.Opacity, def.Opacity, 1)
	return out
}

// KeyguardEnabled reports whether the keyguard screen is drawn.
func (c *Config) KeyguardEnabled() bool {
	return c.Screens.Keyguard.Enabled
}

func resolveFloat(v, def string, fallback float64) float64 {
	if v == "" || v == UseDefault {
		v = def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseBgColor interprets a bgcolor setting. It returns whether the colour
// is auto-detected and otherwise the opaque ARGB value.
func parseBgColor(v, custom string) (bool, uint32, error) {
	switch v {
	case "auto_detect":
		return true, 0xff000000, nil
	case "custom":
		if custom == "" {
			return false, 0xff000000, nil
		}
		c, err := ParseColor(custom)
		return false, c, err
	}
	c, err := ParseColor(v)
	return false, c, err
}

// ParseColor accepts "#rrggbb", "#aarrggbb" or a colour name.
func ParseColor(s string) (uint32, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	switch len(hex) {
	case 6:
		return 0xff000000 | uint32(n), nil
	case 8:
		return uint32(n), nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

// UpdateTransition rewrites draw.transition in a config file while
// preserving the rest of the file structure and comments
func UpdateTransition(path string, kind transition.Kind) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)
	transitionRegex := regexp.MustCompile(`(?m)^(\s*transition:\s*)("?)[a-z0-9_]+("?)`)
	if !transitionRegex.MatchString(content) {
		return fmt.Errorf("no transition key in %s", path)
	}
	content = transitionRegex.ReplaceAllString(content, "${1}${2}"+kind.String()+"${3}")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UpdateDeviceIDs updates the vendor_id and product_id in a config file
// while preserving the rest of the file structure and comments
func UpdateDeviceIDs(path string, vendorID, productID uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := string(data)

	vendorRegex := regexp.MustCompile(`(?m)^(\s*vendor_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = vendorRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", vendorID))

	productRegex := regexp.MustCompile(`(?m)^(\s*product_id:\s*)(?:0x[0-9A-Fa-f]+|\d+)`)
	content = productRegex.ReplaceAllString(content, fmt.Sprintf("${1}0x%04X", productID))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a commented config that shows pictures from dir
func CreateDefaultConfig(path, dir string) error {
	content := fmt.Sprintf(`# multipicture configuration

display:
  width: 800
  height: 480
  columns: 5
  rows: 1

draw:
  # none, random, slide, crossfade, fade_inout, zoom_inout, wipe, card,
  # slide_3d, rotation_3d, swing, swap, cube
  transition: slide
  reflection:
    top: false
    bottom: true

screens:
  default:
    source:
      provider: folder
      path: %q
      recursive: true
      order: random
    # black, white, ..., "#rrggbb", auto_detect or custom
    bgcolor: black
    clip: "1.0"
    saturation: "1.0"
    opacity: "1.0"
  keyguard:
    enabled: false

folder:
  change_tap: true
  duration_sec: 3600

memory:
  max: auto

workaround:
  launcher: none

device:
  enabled: false
  vendor_id: 0x0000
  product_id: 0x0000
  poll_interval_ms: 10

timing:
  double_press_window_ms: 300
  long_press_threshold_ms: 500
  chord_window_ms: 50
  scroll_duration_ms: 300

buttons:
  - index: 0
    name: left
    press: scroll_left
  - index: 1
    name: right
    press: scroll_right
    double_press: change_picture

server:
  listen: 127.0.0.1:8420

output:
  # path: /tmp/multipicture.png
  interval_ms: 1000
`, dir)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func oneOf(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }
