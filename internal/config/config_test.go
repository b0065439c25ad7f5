package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pleimann/multipicture/internal/transition"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
display:
  width: 1024
  height: 600
  columns: 3

draw:
  transition: cube
  reflection:
    top: true
    bottom: false

screens:
  default:
    source:
      provider: folder
      path: /pictures
      recursive: true
    bgcolor: auto_detect
    clip: "0.5"
  overrides:
    1:
      source:
        provider: single
        path: /pictures/one.jpg
      bgcolor: "#102030"
      opacity: "0.25"
    2:
      bgcolor: custom
      bgcolor_custom: "#80ff0000"
      saturation: use_default
  keyguard:
    enabled: true
    bgcolor: white

folder:
  change_tap: false
  duration_min: 5

memory:
  max: "128"

workaround:
  launcher: htc_sense

device:
  enabled: true
  vendor_id: 0x1234
  product_id: 0x5678
  poll_interval_ms: 20

timing:
  double_press_window_ms: 250

buttons:
  - index: 0
    name: left
    press: scroll_left
    long_press: toggle_visibility

chords:
  - buttons: [0, 1]
    action: unlock
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Display.Width != 1024 || cfg.Display.Height != 600 || cfg.Display.Columns != 3 {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if cfg.Display.Rows != 1 {
		t.Errorf("Rows = %d, want default 1", cfg.Display.Rows)
	}
	if got := cfg.Transition(); got != transition.Cube {
		t.Errorf("Transition() = %v, want cube", got)
	}
	if !cfg.Draw.Reflection.Top || cfg.ReflectBottom() {
		t.Errorf("Reflection = top %v bottom %v, want true false", cfg.Draw.Reflection.Top, cfg.ReflectBottom())
	}
	if cfg.ChangeTap() {
		t.Error("ChangeTap() = true, want false")
	}
	if got := cfg.ChangeDurationSec(); got != 300 {
		t.Errorf("ChangeDurationSec() = %d, want 300", got)
	}
	if got := cfg.MemoryMB(); got != 120 {
		t.Errorf("MemoryMB() = %d, want 120", got)
	}
	if cfg.Workaround.Launcher != "htc_sense" {
		t.Errorf("Launcher = %q, want htc_sense", cfg.Workaround.Launcher)
	}
	if cfg.Device.PollIntervalMs != 20 {
		t.Errorf("PollIntervalMs = %d, want 20", cfg.Device.PollIntervalMs)
	}
	if cfg.Timing.DoublePressWindowMs != 250 || cfg.Timing.LongPressThresholdMs != 500 {
		t.Errorf("Timing = %+v", cfg.Timing)
	}
	if len(cfg.Buttons) != 1 || cfg.Buttons[0].LongPress != "toggle_visibility" {
		t.Errorf("Buttons = %+v", cfg.Buttons)
	}
	if len(cfg.Chords) != 1 || cfg.Chords[0].Action != "unlock" {
		t.Errorf("Chords = %+v", cfg.Chords)
	}
	if !cfg.KeyguardEnabled() {
		t.Error("KeyguardEnabled() = false")
	}
}

func TestScreenResolution(t *testing.T) {
	content := `
screens:
  default:
    source:
      provider: folder
      path: /pictures
    bgcolor: auto_detect
    clip: "0.5"
    saturation: "1.5"
  overrides:
    1:
      source:
        provider: single
        path: /one.jpg
      bgcolor: "#102030"
      opacity: "0.25"
    2:
      bgcolor: custom
      bgcolor_custom: "#80ff0000"
  keyguard:
    enabled: true
    bgcolor: white
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		idx       int
		provider  string
		key       string
		detect    bool
		color     uint32
		clip      float64
		sat       float64
		opacity   float64
	}{
		{0, "folder", "default", true, 0xff000000, 0.5, 1.5, 1},
		{1, "single", "1", false, 0xff102030, 0.5, 1.5, 0.25},
		{2, "folder", "default", false, 0x80ff0000, 0.5, 1.5, 1},
		{KeyguardIndex, "folder", "default", false, 0xffffffff, 0.5, 1.5, 1},
	}
	for _, tt := range tests {
		got := cfg.Screen(tt.idx)
		if got.Source.Provider != tt.provider || got.SourceKey != tt.key {
			t.Errorf("Screen(%d) source = %s/%s, want %s/%s", tt.idx, got.Source.Provider, got.SourceKey, tt.provider, tt.key)
		}
		if got.DetectBackground != tt.detect || (!tt.detect && got.BackgroundColor != tt.color) {
			t.Errorf("Screen(%d) bg = %v %#x, want %v %#x", tt.idx, got.DetectBackground, got.BackgroundColor, tt.detect, tt.color)
		}
		if got.Clip != tt.clip || got.Saturation != tt.sat || got.Opacity != tt.opacity {
			t.Errorf("Screen(%d) clip/sat/opacity = %v/%v/%v, want %v/%v/%v",
				tt.idx, got.Clip, got.Saturation, got.Opacity, tt.clip, tt.sat, tt.opacity)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Display.Width != 800 || cfg.Display.Height != 480 {
		t.Errorf("Display size = %dx%d, want 800x480", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.Columns != 5 || cfg.Display.Rows != 1 {
		t.Errorf("Grid = %dx%d, want 5x1", cfg.Display.Columns, cfg.Display.Rows)
	}
	if cfg.Transition() != transition.Slide {
		t.Errorf("Transition() = %v, want slide", cfg.Transition())
	}
	if cfg.Draw.Reflection.Top || !cfg.ReflectBottom() {
		t.Error("default reflection should be bottom only")
	}
	if !cfg.ChangeTap() {
		t.Error("ChangeTap() should default to true")
	}
	if got := cfg.ChangeDurationSec(); got != 3600 {
		t.Errorf("ChangeDurationSec() = %d, want 3600", got)
	}
	if got := cfg.MemoryMB(); got != 56 {
		t.Errorf("MemoryMB() = %d, want 56", got)
	}
	if cfg.Workaround.Launcher != "none" {
		t.Errorf("Launcher = %q, want none", cfg.Workaround.Launcher)
	}
	if cfg.Timing.ChordWindowMs != 50 || cfg.Timing.ScrollDurationMs != 300 {
		t.Errorf("Timing = %+v", cfg.Timing)
	}
	if cfg.Server.Listen != "127.0.0.1:8420" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	s := cfg.Screen(3)
	if s.Source.Provider != "single" || s.BackgroundColor != 0xff000000 || s.Clip != 1 {
		t.Errorf("Screen(3) = %+v", s)
	}
	if cfg.KeyguardEnabled() {
		t.Error("KeyguardEnabled() should default to false")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown transition",
			content: "draw:\n  transition: spin\n",
			wantErr: "draw.transition",
		},
		{
			name:    "bad memory",
			content: "memory:\n  max: lots\n",
			wantErr: "memory.max",
		},
		{
			name:    "unknown launcher",
			content: "workaround:\n  launcher: trebuchet\n",
			wantErr: "workaround.launcher",
		},
		{
			name:    "unknown provider",
			content: "screens:\n  default:\n    source:\n      provider: ftp\n",
			wantErr: "unknown provider",
		},
		{
			name:    "bad color",
			content: "screens:\n  default:\n    bgcolor: \"#12\"\n",
			wantErr: "bgcolor",
		},
		{
			name:    "use_default on default screen",
			content: "screens:\n  default:\n    clip: use_default\n",
			wantErr: "clip",
		},
		{
			name:    "clip out of range",
			content: "screens:\n  overrides:\n    0:\n      clip: \"1.5\"\n",
			wantErr: "within [0, 1]",
		},
		{
			name:    "missing vendor_id",
			content: "device:\n  enabled: true\n  product_id: 0x5678\n",
			wantErr: "vendor_id is required",
		},
		{
			name:    "missing product_id",
			content: "device:\n  enabled: true\n  vendor_id: 0x1234\n",
			wantErr: "product_id is required",
		},
		{
			name:    "duplicate button index",
			content: "buttons:\n  - index: 0\n  - index: 0\n",
			wantErr: "duplicate button index",
		},
		{
			name:    "unknown button action",
			content: "buttons:\n  - index: 0\n    press: explode\n",
			wantErr: "unknown action",
		},
		{
			name:    "chord with single button",
			content: "chords:\n  - buttons: [0]\n    action: unlock\n",
			wantErr: "must have at least 2 buttons",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"black", 0xff000000, false},
		{" White ", 0xffffffff, false},
		{"#336699", 0xff336699, false},
		{"#80336699", 0x80336699, false},
		{"#3369", 0, true},
		{"#zzzzzz", 0, true},
		{"chartreuse", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	base, err := Parse([]byte("draw:\n  transition: slide\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cosmetic, _ := Parse([]byte("draw:\n  transition: cube\n  reflection:\n    top: true\n"))
	if got := Classify(base, cosmetic); got != ReloadCosmetic {
		t.Errorf("Classify(draw change) = %v, want cosmetic", got)
	}

	full, _ := Parse([]byte("draw:\n  transition: slide\nmemory:\n  max: \"32\"\n"))
	if got := Classify(base, full); got != ReloadFull {
		t.Errorf("Classify(memory change) = %v, want full", got)
	}

	if got := Classify(nil, base); got != ReloadFull {
		t.Errorf("Classify(nil, cfg) = %v, want full", got)
	}
}

func TestWatcherReload(t *testing.T) {
	path := writeConfig(t, "draw:\n  transition: slide\n")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var kinds []ReloadKind
	w.OnReload(func(cfg *Config, kind ReloadKind) {
		kinds = append(kinds, kind)
	})

	if err := os.WriteFile(path, []byte("draw:\n  transition: swing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w.reload()
	if got := w.Get().Transition(); got != transition.Swing {
		t.Errorf("Get().Transition() = %v, want swing", got)
	}

	// Unchanged content does not notify.
	w.reload()

	if err := os.WriteFile(path, []byte("draw:\n  transition: swing\nworkaround:\n  launcher: no_vertical\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	// Invalid content keeps the previous config.
	if err := os.WriteFile(path, []byte("draw:\n  transition: bogus\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w.reload()
	if got := w.Get().Workaround.Launcher; got != "no_vertical" {
		t.Errorf("Launcher after bad reload = %q, want no_vertical", got)
	}

	want := []ReloadKind{ReloadCosmetic, ReloadFull}
	if len(kinds) != len(want) {
		t.Fatalf("handler called %d times, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("reload %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestUpdateTransition(t *testing.T) {
	content := `# Test config
draw:
  transition: slide
  reflection:
    top: false
`
	path := writeConfig(t, content)

	if err := UpdateTransition(path, transition.Rotation3D); err != nil {
		t.Fatalf("UpdateTransition() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	result := string(data)
	if !strings.Contains(result, "transition: rotation_3d") {
		t.Errorf("transition not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "# Test config") {
		t.Errorf("comment not preserved in: %s", result)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transition() != transition.Rotation3D {
		t.Errorf("Transition() = %v, want rotation_3d", cfg.Transition())
	}

	if err := UpdateTransition(writeConfig(t, "memory:\n  max: auto\n"), transition.Cube); err == nil {
		t.Error("UpdateTransition() without a transition key should fail")
	}
}

func TestUpdateDeviceIDs(t *testing.T) {
	content := `# Test config
device:
  vendor_id: 4660
  product_id: 0x5678
  poll_interval_ms: 10
`
	path := writeConfig(t, content)

	if err := UpdateDeviceIDs(path, 0xABCD, 0xEF01); err != nil {
		t.Fatalf("UpdateDeviceIDs() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "vendor_id: 0xABCD") {
		t.Errorf("vendor_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "product_id: 0xEF01") {
		t.Errorf("product_id not updated correctly in: %s", result)
	}
	if !strings.Contains(result, "# Test config") {
		t.Errorf("comment not preserved in: %s", result)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "new-config.yaml")

	if err := CreateDefaultConfig(configPath, "/home/me/Pictures"); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	if !Exists(configPath) {
		t.Fatal("Config file was not created")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load created config: %v", err)
	}

	s := cfg.Screen(0)
	if s.Source.Provider != "folder" || s.Source.Path != "/home/me/Pictures" {
		t.Errorf("default source = %+v", s.Source)
	}
	if len(cfg.Buttons) != 2 || cfg.Buttons[1].DoublePress != "change_picture" {
		t.Errorf("Buttons = %+v", cfg.Buttons)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(filepath.Join(tmpDir, "nonexistent.yaml")) {
		t.Error("Exists() = true for non-existent file")
	}

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	os.WriteFile(existingPath, []byte("test"), 0644)
	if !Exists(existingPath) {
		t.Error("Exists() = false for existing file")
	}
}
