package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/gg"

	"github.com/pleimann/multipicture/internal/action"
	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/display"
	"github.com/pleimann/multipicture/internal/gesture"
	"github.com/pleimann/multipicture/internal/hid"
	"github.com/pleimann/multipicture/internal/logging"
	"github.com/pleimann/multipicture/internal/renderer"
	"github.com/pleimann/multipicture/internal/server"
	"github.com/pleimann/multipicture/internal/source"
	"github.com/pleimann/multipicture/internal/transition"
	"github.com/pleimann/multipicture/internal/ui"
)

const Version = "0.1.0"

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		case "render":
			runRender(os.Args[2:])
			return
		case "transitions":
			runTransitions(os.Args[2:])
			return
		case "set-transition":
			runSetTransition(os.Args[2:])
			return
		case "devices", "list-devices":
			runListDevices()
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "index":
			runIndex(os.Args[2:])
			return
		case "init":
			runInit(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	setupLogging(*verbose)
	log := logging.L()

	if !config.Exists(*configPath) {
		ui.PrintFatalError("Config not found", fmt.Sprintf("%s does not exist; create one with %q", *configPath, "init <picture dir>"))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(*configPath)
	if err != nil {
		ui.PrintFatalError("Failed to initialize application", err.Error())
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		ui.PrintFatalError("Application error", err.Error())
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

func printUsage() {
	ui.PrintUsage(Version)
}

// setupLogging installs the process logger. The rasterizer only logs in
// verbose mode.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.Set(l)
	if verbose {
		gg.SetLogger(l.With("component", "gg"))
	}
}

// runRender draws one settled frame and writes it as PNG.
func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	out := fs.String("o", "frame.png", "output file")
	x := fs.Float64("x", 0, "horizontal position 0..1")
	y := fs.Float64("y", 0, "vertical position 0..1")
	timeout := fs.Duration("timeout", 30*time.Second, "how long to wait for pictures")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	fs.Usage = ui.PrintRenderUsage

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	setupLogging(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.PrintFatalError("Failed to load config", err.Error())
		os.Exit(1)
	}

	store := display.NewStore()
	r := renderer.New(cfg, renderer.Options{
		Canvas: canvas.NewSoftware(cfg.Display.Width, cfg.Display.Height, store),
	})
	r.Start()
	defer r.Close()

	r.OnOffsetsChanged(offsetsAt(cfg, *x, *y))
	r.OnVisibilityChanged(true)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := waitSettled(ctx, r); err != nil {
		ui.PrintError("Some screens were still loading: " + err.Error())
	}

	data, _, err := store.PNG()
	if err != nil {
		ui.PrintFatalError("No frame rendered", err.Error())
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		ui.PrintFatalError("Failed to write frame", err.Error())
		os.Exit(1)
	}
	ui.PrintFrameWritten(*out, cfg.Display.Width, cfg.Display.Height)
}

// offsetsAt converts a 0..1 grid position to launcher offsets.
func offsetsAt(cfg *config.Config, x, y float64) renderer.Offsets {
	x, y = min(max(x, 0), 1), min(max(y, 0), 1)
	o := renderer.Offsets{X: x, Y: y}
	if cfg.Display.Columns > 1 {
		o.XStep = 1 / float64(cfg.Display.Columns-1)
		o.XPixels = -int(x * float64((cfg.Display.Columns-1)*cfg.Display.Width))
	}
	if cfg.Display.Rows > 1 {
		o.YStep = 1 / float64(cfg.Display.Rows-1)
		o.YPixels = -int(y * float64((cfg.Display.Rows-1)*cfg.Display.Height))
	}
	return o
}

// waitSettled polls until no visible screen is loading or fading.
func waitSettled(ctx context.Context, r *renderer.Renderer) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		r.Sync()
		if settled(r.State()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func settled(st renderer.State) bool {
	if st.Frames == 0 || len(st.Slots) == 0 {
		return false
	}
	for _, s := range st.Slots {
		if s.Loading > 0 {
			return false
		}
		if s.Status != renderer.Normal && s.Status != renderer.NotAvailable {
			return false
		}
	}
	return true
}

// runTransitions lists the transition effects
func runTransitions(args []string) {
	fs := flag.NewFlagSet("transitions", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	ui.PrintTransitions(configuredTransition(*configPath))
}

func configuredTransition(path string) transition.Kind {
	if !config.Exists(path) {
		return transition.Default
	}
	cfg, err := config.Load(path)
	if err != nil {
		return transition.Default
	}
	return cfg.Transition()
}

// runSetTransition handles the set-transition subcommand
func runSetTransition(args []string) {
	fs := flag.NewFlagSet("set-transition", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !config.Exists(*configPath) {
		ui.PrintFatalError("Config not found", *configPath)
		os.Exit(1)
	}

	var kind transition.Kind
	if fs.NArg() > 0 {
		k, err := transition.ParseKind(fs.Arg(0))
		if err != nil {
			ui.PrintFatalError("Invalid transition", err.Error())
			os.Exit(1)
		}
		kind = k
	} else {
		k, ok, err := ui.SelectTransition(configuredTransition(*configPath))
		if err != nil {
			ui.PrintFatalError("Transition selection failed", err.Error())
			os.Exit(1)
		}
		if !ok {
			fmt.Println(ui.Muted("No transition selected"))
			os.Exit(0)
		}
		kind = k
	}

	if err := config.UpdateTransition(*configPath, kind); err != nil {
		ui.PrintFatalError("Failed to update config", err.Error())
		os.Exit(1)
	}
	ui.PrintTransitionUpdated(*configPath, kind)
}

// runListDevices handles the devices subcommand
func runListDevices() {
	if !hid.Supported() {
		ui.PrintFatalError("Failed to list devices", "HID is not supported on this platform")
		os.Exit(1)
	}
	devices := hid.ListDevices()
	uiDevices := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		uiDevices[i] = ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
		}
	}
	ui.PrintDeviceList(uiDevices)
}

// runSetDevice handles the set-device subcommand
func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	fs.Usage = ui.PrintSetDeviceUsage

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !config.Exists(*configPath) {
		ui.PrintFatalError("Config not found", fmt.Sprintf("%s does not exist; create one with %q first", *configPath, "init <picture dir>"))
		os.Exit(1)
	}

	remaining := fs.Args()

	var vendorID, productID uint16

	switch len(remaining) {
	case 0:
		device, err := selectDevice()
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if device == nil {
			fmt.Println(ui.Muted("No device selected"))
			os.Exit(0)
		}
		vendorID, productID = device.VendorID, device.ProductID
	case 1:
		ui.PrintFatalError("Invalid arguments", "Both vendor_id and product_id must be provided, or neither")
		os.Exit(1)
	default:
		vid, err := parseID(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		pid, err := parseID(remaining[1])
		if err != nil {
			ui.PrintFatalError("Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		vendorID, productID = vid, pid
	}

	if err := config.UpdateDeviceIDs(*configPath, vendorID, productID); err != nil {
		ui.PrintFatalError("Failed to update config", err.Error())
		os.Exit(1)
	}
	ui.PrintDeviceUpdated(*configPath, vendorID, productID)
}

// parseID parses a vendor or product ID from string (supports hex with 0x prefix or decimal)
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	var val uint64
	var err error

	if strings.HasPrefix(strings.ToLower(s), "0x") {
		val, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		val, err = strconv.ParseUint(s, 10, 16)
	}

	if err != nil {
		return 0, err
	}

	return uint16(val), nil
}

// selectDevice displays an interactive device selection menu
func selectDevice() (*ui.DeviceInfo, error) {
	unique := uniqueDevices(hid.ListDevices())
	if len(unique) == 0 {
		return nil, fmt.Errorf("no identifiable HID devices found")
	}
	return ui.SelectDevice(unique)
}

// uniqueDevices drops repeated interfaces of the same device and devices
// without IDs.
func uniqueDevices(devices []hid.DeviceInfo) []ui.DeviceInfo {
	seen := make(map[uint32]bool)
	var unique []ui.DeviceInfo

	for _, d := range devices {
		if d.VendorID == 0 && d.ProductID == 0 {
			continue
		}
		key := uint32(d.VendorID)<<16 | uint32(d.ProductID)
		if seen[key] {
			continue
		}
		seen[key] = true

		unique = append(unique, ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
		})
	}
	return unique
}

// runIndex scans a folder into the album index
func runIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	dbPath := fs.String("db", "album.db", "path to the index database")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	setupLogging(*verbose)

	if fs.NArg() != 1 {
		ui.PrintFatalError("Invalid arguments", "index needs exactly one picture folder")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	idx, err := source.OpenMediaIndex(*dbPath)
	if err != nil {
		ui.PrintFatalError("Failed to open index", err.Error())
		os.Exit(1)
	}
	defer idx.Close()

	n, err := idx.IndexFolder(ctx, fs.Arg(0))
	if err != nil {
		ui.PrintFatalError("Indexing failed", err.Error())
		os.Exit(1)
	}
	buckets, err := idx.Buckets(ctx)
	if err != nil {
		ui.PrintFatalError("Failed to list buckets", err.Error())
		os.Exit(1)
	}
	ui.PrintIndexResult(*dbPath, n, buckets)
}

// runInit writes a starter config
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	force := fs.Bool("force", false, "overwrite an existing config")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		ui.PrintFatalError("Invalid arguments", "init needs the picture folder to show")
		os.Exit(1)
	}
	if config.Exists(*configPath) && !*force {
		ui.PrintFatalError("Config already exists", *configPath+" (use -force to overwrite)")
		os.Exit(1)
	}

	dir, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		ui.PrintFatalError("Invalid folder", err.Error())
		os.Exit(1)
	}
	if err := config.CreateDefaultConfig(*configPath, dir); err != nil {
		ui.PrintFatalError("Failed to create config", err.Error())
		os.Exit(1)
	}
	ui.PrintConfigCreated(*configPath, dir)
}

type App struct {
	watcher  *config.Watcher
	store    *display.Store
	renderer *renderer.Renderer
	scroller *action.Scroller
	mapper   *action.Mapper
	executor *action.Executor
	gestures *gesture.Engine
	keypad   *hid.Device
	server   *server.Server
	output   *display.Manager

	width, height int
}

func newApp(configPath string) (*App, error) {
	log := logging.For("app")

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := watcher.Get()
	log.Info("loaded configuration", "path", configPath,
		"grid", fmt.Sprintf("%dx%d", cfg.Display.Columns, cfg.Display.Rows),
		"transition", cfg.Transition())

	a := &App{
		watcher: watcher,
		store:   display.NewStore(),
		width:   cfg.Display.Width,
		height:  cfg.Display.Height,
	}

	a.renderer = renderer.New(cfg, renderer.Options{
		Canvas: canvas.NewSoftware(cfg.Display.Width, cfg.Display.Height, a.store),
	})
	a.scroller = action.NewScroller(a.renderer,
		cfg.Display.Columns, cfg.Display.Rows,
		cfg.Display.Width, cfg.Display.Height,
		time.Duration(cfg.Timing.ScrollDurationMs)*time.Millisecond)
	a.mapper = action.NewMapper(cfg)
	a.executor = action.NewExecutor(a.renderer, a.scroller)
	a.server = server.New(a.renderer, a.store, a.executor)

	if cfg.Output.Path != "" {
		a.output = display.NewManager(a.store, cfg.Output.Path,
			time.Duration(cfg.Output.IntervalMs)*time.Millisecond)
	}

	if cfg.Device.Enabled {
		keypad, err := hid.NewDevice(cfg.Device.VendorID, cfg.Device.ProductID)
		if err != nil {
			log.Warn("keypad unavailable", "error", err)
		} else {
			a.keypad = keypad
			a.gestures = gesture.NewEngine(cfg.Timing, a.onGesture)
		}
	}

	watcher.OnReload(a.reload)
	return a, nil
}

func (a *App) onGesture(g gesture.Gesture) {
	log := logging.For("app")
	log.Debug("gesture detected", "gesture", g.String())

	act, ok := a.mapper.Map(g)
	if !ok {
		return
	}
	if err := a.executor.Execute(act); err != nil {
		log.Warn("failed to execute action", "action", string(act), "error", err)
	}
}

func (a *App) reload(cfg *config.Config, kind config.ReloadKind) {
	a.renderer.OnSettingsChanged(cfg, kind)
	a.mapper.Reload(cfg)
	if cfg.Display.Width != a.width || cfg.Display.Height != a.height {
		a.width, a.height = cfg.Display.Width, cfg.Display.Height
		a.renderer.OnSurfaceChanged(a.width, a.height)
	}
	a.scroller.Resize(cfg.Display.Columns, cfg.Display.Rows, cfg.Display.Width, cfg.Display.Height)
}

func (a *App) Run(ctx context.Context) error {
	log := logging.For("app")
	cfg := a.watcher.Get()

	a.renderer.Start()
	a.renderer.OnVisibilityChanged(true)
	a.scroller.Publish()
	a.watcher.Start()

	if a.output != nil {
		a.output.Start(ctx)
	}

	if a.keypad != nil {
		events := make(chan hid.Event, 64)
		poll := time.Duration(cfg.Device.PollIntervalMs) * time.Millisecond
		go func() {
			if err := a.keypad.Run(ctx, events, poll); err != nil && ctx.Err() == nil {
				log.Warn("keypad stopped", "error", err)
			}
			close(events)
		}()
		go func() {
			for ev := range events {
				a.gestures.ProcessEvent(ev)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Listen(cfg.Server.Listen)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("status server: %w", err)
	}

	a.shutdown()
	return err
}

func (a *App) shutdown() {
	log := logging.For("app")
	log.Info("shutting down")

	if err := a.server.Shutdown(); err != nil {
		log.Warn("server shutdown failed", "error", err)
	}
	a.watcher.Stop()
	a.scroller.Stop()
	if a.gestures != nil {
		a.gestures.Stop()
	}
	if a.keypad != nil {
		if err := a.keypad.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Warn("keypad close failed", "error", err)
		}
	}
	a.renderer.Close()
	if a.output != nil {
		if err := a.output.Stop(); err != nil {
			log.Warn("final frame not written", "error", err)
		}
	}
}
