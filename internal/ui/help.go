package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pleimann/multipicture/internal/utils"
)

type example struct {
	cmd  string
	desc string
}

// PrintUsage displays the styled help/usage text
func PrintUsage(version string) {
	exe := utils.ExecutableName()

	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Render(exe)

	versionTag := lipgloss.NewStyle().
		Foreground(ColorDim).
		Render("v" + version)

	fmt.Printf("%s %s\n", banner, versionTag)
	fmt.Println(Muted("Multi-screen picture wallpaper renderer"))
	fmt.Println()

	printSection("Usage", []string{
		exe + " [flags]                  Run the renderer",
		exe + " render [flags]           Render one frame to a PNG file",
		exe + " transitions              List transition effects",
		exe + " set-transition [kind]    Set the transition effect",
		exe + " devices                  List available HID devices",
		exe + " set-device [args]        Configure the keypad",
		exe + " index [flags] <dir>      Build an album index",
		exe + " init <dir>               Write a starter config",
		exe + " help                     Show this help message",
	})

	printSection("Flags", []string{
		"-config string    Path to configuration file (default \"config.yaml\")",
		"-verbose          Enable verbose logging",
		"-version          Print version and exit",
	})

	printCommandSection()

	printExamples([]example{
		{exe, "Run with default config.yaml"},
		{exe + " -config my.yaml", "Run with custom config file"},
		{exe + " init ~/Pictures", "Show pictures from a folder"},
		{exe + " render -x 0.5 -o mid.png", "Render the middle of the grid"},
		{exe + " set-transition cube", "Scroll with the cube effect"},
		{exe + " index -db album.db ~/Pictures", "Index an album"},
	})
}

func printSection(title string, items []string) {
	fmt.Println(Bold(title))
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
	fmt.Println()
}

func printCommandSection() {
	fmt.Println(Bold("Commands"))

	cmdStyle := lipgloss.NewStyle().
		Foreground(ColorOption).
		Bold(true)

	fmt.Printf("  %s\n", cmdStyle.Render("render"))
	fmt.Printf("      Load every screen, draw one frame and write it as PNG\n")
	fmt.Printf("      Run %s for more information\n", Code(utils.ExecutableName()+" render --help"))
	fmt.Println()

	fmt.Printf("  %s\n", cmdStyle.Render("set-transition"))
	fmt.Printf("      Set draw.transition in the config file\n")
	fmt.Println()

	fmt.Printf("  %s\n", cmdStyle.Render("set-device"))
	fmt.Printf("      Set the keypad HID device in the config file\n")
	fmt.Printf("      Run %s for more information\n", Code(utils.ExecutableName()+" set-device --help"))
	fmt.Println()

	fmt.Printf("  %s\n", cmdStyle.Render("index"))
	fmt.Printf("      Scan a folder into the SQLite index used by the album provider\n")
	fmt.Println()
}

func printExamples(examples []example) {
	fmt.Println(Bold("Examples"))

	cmdStyle := lipgloss.NewStyle().
		Foreground(ColorOption)

	maxLen := 0
	for _, ex := range examples {
		maxLen = max(maxLen, len(ex.cmd))
	}

	for _, ex := range examples {
		padding := strings.Repeat(" ", maxLen-len(ex.cmd)+2)
		fmt.Printf("  %s%s%s\n", cmdStyle.Render(ex.cmd), padding, Muted(ex.desc))
	}
	fmt.Println()
}

// PrintSetDeviceUsage displays the styled help text for set-device subcommand
func PrintSetDeviceUsage() {
	exe := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), exe+" set-device [options] [vendor_id product_id]")
	fmt.Println()
	fmt.Println("Set the keypad HID device in the configuration file.")
	fmt.Println()
	fmt.Println(Muted("If vendor_id and product_id are provided, updates the config directly."))
	fmt.Println(Muted("Otherwise, displays a list of connected devices to choose from."))
	fmt.Println()

	fmt.Println(Bold("Arguments"))
	fmt.Printf("  %s    Device vendor ID (hex with 0x prefix or decimal)\n", FlagStyle.Render("vendor_id"))
	fmt.Printf("  %s   Device product ID (hex with 0x prefix or decimal)\n", FlagStyle.Render("product_id"))
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file (default \"config.yaml\")\n", FlagStyle.Render("-config string"))
	fmt.Println()

	printExamples([]example{
		{exe + " set-device", "Interactive selection"},
		{exe + " set-device 0x1234 0x5678", "Direct specification"},
		{exe + " set-device -config my.yaml", "Use different config"},
	})
}

// PrintRenderUsage displays the styled help text for the render subcommand
func PrintRenderUsage() {
	exe := utils.ExecutableName()

	fmt.Println(Bold("Usage:"), exe+" render [options]")
	fmt.Println()
	fmt.Println("Load the picture of every screen, then write a single frame as PNG.")
	fmt.Println()

	fmt.Println(Bold("Options"))
	fmt.Printf("  %s    Path to configuration file (default \"config.yaml\")\n", FlagStyle.Render("-config string"))
	fmt.Printf("  %s         Output file (default \"frame.png\")\n", FlagStyle.Render("-o string"))
	fmt.Printf("  %s        Horizontal position 0..1 across the grid\n", FlagStyle.Render("-x float"))
	fmt.Printf("  %s        Vertical position 0..1 across the grid\n", FlagStyle.Render("-y float"))
	fmt.Printf("  %s  Give up waiting for pictures after this long\n", FlagStyle.Render("-timeout dur"))
	fmt.Println()
}

// PrintIndexResult reports a finished index run.
func PrintIndexResult(dbPath string, count int, buckets []string) {
	fmt.Println()
	fmt.Println(Success(fmt.Sprintf("Indexed %d picture(s)", count)))
	fmt.Println()
	fmt.Printf("  %s %s\n", Muted("Index:"), dbPath)
	fmt.Printf("  %s %d\n", Muted("Buckets:"), len(buckets))
	for _, b := range buckets {
		fmt.Printf("    %s\n", ItemStyle.Render(b))
	}
	fmt.Println()
}

// PrintConfigCreated shows where init wrote its config.
func PrintConfigCreated(configPath, dir string) {
	fmt.Println()
	fmt.Println(Success("Configuration created"))
	fmt.Println()
	Field("Config", configPath)
	Field("Pictures", dir)
	fmt.Println()
}

// PrintFrameWritten reports the output of the render subcommand.
func PrintFrameWritten(path string, width, height int) {
	fmt.Println(Success(fmt.Sprintf("Wrote %dx%d frame to %s", width, height, path)))
}

// PrintVersion displays the styled version information
func PrintVersion(version string) {
	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Render(utils.ExecutableName())

	versionTag := lipgloss.NewStyle().
		Foreground(ColorOK).
		Render("v" + version)

	fmt.Printf("%s %s\n", banner, versionTag)
}

// PrintError displays a styled error message
func PrintError(message string) {
	fmt.Println(Error(message))
}

// PrintFatalError displays a styled fatal error message with context
func PrintFatalError(context, message string) {
	fmt.Println()
	fmt.Println(Error(context))
	fmt.Printf("  %s\n", Muted(message))
	fmt.Println()
}
