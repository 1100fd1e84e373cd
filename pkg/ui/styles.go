// Package ui provides beautiful, styled CLI output using lipgloss
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - carefully chosen for readability and aesthetics
var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7D56F4") // Purple (brand)
	colorSecondary = lipgloss.Color("#56C3F4") // Cyan
	colorSuccess   = lipgloss.Color("#5AF78E") // Green
	colorWarning   = lipgloss.Color("#F7DC6F") // Yellow
	colorError     = lipgloss.Color("#FF6B9D") // Pink/Red
	colorMuted     = lipgloss.Color("#6C7086") // Gray

	// Semantic colors
	colorText      = lipgloss.Color("#CDD6F4") // Light text
	colorSubtle    = lipgloss.Color("#7F849C") // Subtle text
	colorBorder    = lipgloss.Color("#45475A") // Border
	colorHighlight = lipgloss.Color("#F5E0DC") // Highlight
	colorNormal    = lipgloss.Color("#FFFFFF") // Normal white text
)

// Styles
var (
	// Header style - main title
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	// Version badge
	styleVersion = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	// Section title
	styleSection = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary).
			MarginTop(1)

	// File path styles
	styleFilePath = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	styleFileInput = lipgloss.NewStyle().
			Foreground(colorText)

	styleFileOutput = lipgloss.NewStyle().
				Foreground(colorSuccess)

	// Status styles
	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	// Step styles
	styleStepLabel = lipgloss.NewStyle().
			Foreground(colorText).
			Width(14).
			Align(lipgloss.Left)

	styleStepStatus = lipgloss.NewStyle().
			Bold(true)

	styleStepTime = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	// Summary box
	styleSummary = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder).
			MarginTop(1).
			PaddingTop(1)

	// Indent for step output
	styleIndent = lipgloss.NewStyle().
			PaddingLeft(2)

	styleNormalText = lipgloss.NewStyle().
				Foreground(colorNormal)
)

// HostOutput renders the host's activity to a terminal: documents
// tracked, snapshots (re)built, and module-resolution results. It
// never renders LSP diagnostics — that belongs to the connected
// client, not this CLI.
type HostOutput struct {
	startTime time.Time
	fileCount int
}

// NewHostOutput creates a new host output renderer.
func NewHostOutput() *HostOutput {
	return &HostOutput{startTime: time.Now()}
}

// PrintHeader prints the main header.
func (h *HostOutput) PrintHeader(version string) {
	header := styleHeader.Render("civetls")
	versionBadge := styleVersion.Render("v" + version)

	fmt.Println(header + " " + versionBadge)
}

// PrintServeStart prints the message shown when the host starts
// tracking a project's script files.
func (h *HostOutput) PrintServeStart(fileCount int) {
	h.fileCount = fileCount

	var msg string
	if fileCount == 1 {
		msg = "tracking 1 script file"
	} else {
		msg = fmt.Sprintf("tracking %d script files", fileCount)
	}

	fmt.Println(styleSection.Render(msg))
	fmt.Println()
}

// PrintTranspile prints one source -> mirror transpile and whether the
// result came from cache or a fresh compile.
func (h *HostOutput) PrintTranspile(srcPath, mirrorPath string, fromCache bool) {
	src := styleFileInput.Render(srcPath)
	arrow := styleMuted.Render("→")
	mirror := styleFileOutput.Render(mirrorPath)

	status := styleMuted.Render("(compiled)")
	if fromCache {
		status = styleMuted.Render("(cached)")
	}

	fmt.Printf("  %s %s %s %s\n", src, arrow, mirror, status)
}

// Step represents one stage of a host operation (resolve, transpile,
// remap) and its outcome.
type Step struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Message  string // Optional message (for warnings, etc.)
}

// StepStatus represents the outcome of a Step.
type StepStatus int

const (
	StepSuccess StepStatus = iota
	StepSkipped
	StepWarning
	StepError
)

// PrintStep prints one step with its status and duration.
func (h *HostOutput) PrintStep(step Step) {
	var icon, status, statusStyle string

	switch step.Status {
	case StepSuccess:
		icon = "✓"
		status = "Done"
		statusStyle = styleSuccess.Render(status)
	case StepSkipped:
		icon = "○"
		status = "Skipped"
		statusStyle = styleMuted.Render(status)
	case StepWarning:
		icon = "⚠"
		status = "Warning"
		statusStyle = styleWarning.Render(status)
	case StepError:
		icon = "✗"
		status = "Failed"
		statusStyle = styleError.Render(status)
	}

	label := styleStepLabel.Render(step.Name)
	line := fmt.Sprintf("  %s %s", icon, label)
	line += styleStepStatus.Render(statusStyle)

	if step.Duration > 0 {
		durationStr := formatDuration(step.Duration)
		line += " " + styleStepTime.Render("("+durationStr+")")
	}

	fmt.Println(line)

	if step.Message != "" {
		msg := styleMuted.Render("    " + step.Message)
		fmt.Println(msg)
	}
}

// PrintSummary prints the final summary when the host stops serving.
func (h *HostOutput) PrintSummary(success bool, errorMsg string) {
	elapsed := time.Since(h.startTime)

	fmt.Println()

	var summaryLine string
	if success {
		message := "Stopped cleanly"
		duration := formatDuration(elapsed)

		summaryLine = fmt.Sprintf("%s Up for %s",
			styleSuccess.Render(message),
			styleStepTime.Render(duration),
		)
	} else {
		message := "Host exited with an error"

		summaryLine = styleError.Render(message)

		if errorMsg != "" {
			summaryLine += "\n" + styleError.Render("   Error: ") + errorMsg
		}
	}

	fmt.Println(styleSummary.Render(summaryLine))
}

// PrintError prints an error message.
func (h *HostOutput) PrintError(msg string) {
	errLine := styleError.Render("✗ Error: ") + msg
	fmt.Println(styleIndent.Render(errLine))
}

// PrintWarning prints a warning message.
func (h *HostOutput) PrintWarning(msg string) {
	warnLine := styleWarning.Render("⚠ Warning: ") + msg
	fmt.Println(styleIndent.Render(warnLine))
}

// PrintInfo prints an info message.
func (h *HostOutput) PrintInfo(msg string) {
	infoLine := styleMuted.Render("ℹ " + msg)
	fmt.Println(styleIndent.Render(infoLine))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	} else if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// PrintVersionInfo prints version information
func PrintVersionInfo(version string) {
	fmt.Println(styleHeader.Render("civetls"))
	fmt.Println()
	fmt.Printf("  %s %s\n", styleMuted.Render("Version:"), styleSuccess.Render(version))
	fmt.Printf("  %s %s\n", styleMuted.Render("Runtime:"), styleNormalText.Render("Go"))
	fmt.Println()
}

// Box creates a bordered box around content
func Box(title, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(60)

	if title != "" {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

		content = titleStyle.Render(title) + "\n\n" + content
	}

	return boxStyle.Render(content)
}

// Table creates a simple two-column table
func Table(rows [][]string) string {
	var lines []string

	maxWidth := 0
	for _, row := range rows {
		if len(row) > 0 && len(row[0]) > maxWidth {
			maxWidth = len(row[0])
		}
	}

	for _, row := range rows {
		if len(row) >= 2 {
			label := styleMuted.Render(fmt.Sprintf("%-*s", maxWidth, row[0]))
			value := styleNormalText.Render(row[1])
			lines = append(lines, fmt.Sprintf("  %s  %s", label, value))
		}
	}

	return strings.Join(lines, "\n")
}

// ProgressBar creates a simple progress bar
func ProgressBar(current, total int, width int) string {
	if width <= 0 {
		width = 40
	}

	percentage := float64(current) / float64(total)
	filled := int(percentage * float64(width))

	barStyle := lipgloss.NewStyle().Foreground(colorSuccess)
	emptyStyle := lipgloss.NewStyle().Foreground(colorMuted)

	filledBar := barStyle.Render(strings.Repeat("█", filled))
	emptyBar := emptyStyle.Render(strings.Repeat("░", width-filled))

	percentText := styleNormalText.Render(fmt.Sprintf(" %3d%%", int(percentage*100)))

	return filledBar + emptyBar + percentText
}

// Divider creates a horizontal divider
func Divider() string {
	return styleMuted.Render(strings.Repeat("─", 60))
}

// PrintHelp prints colorful help output for the civetls CLI.
func PrintHelp(version string) {
	header := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	muted := lipgloss.NewStyle().Foreground(colorMuted)
	desc := lipgloss.NewStyle().Foreground(colorText)
	section := lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
	command := lipgloss.NewStyle().Foreground(colorSuccess)
	flag := lipgloss.NewStyle().Foreground(colorHighlight)

	fmt.Println()
	fmt.Println(header.Render("civetls") + " " + muted.Render("- a language-service core for SRC-to-TGT transpilers"))
	fmt.Println(muted.Render("  v" + version))
	fmt.Println()

	fmt.Println(desc.Render("Bridges an editor's document store to a TGT-aware language service"))
	fmt.Println(desc.Render("through a virtual file host and a source-map composition engine."))
	fmt.Println()

	fmt.Println(section.Render("Usage:"))
	fmt.Println("  civetls [command] [flags]")
	fmt.Println()

	fmt.Println(section.Render("Available Commands:"))
	commands := []struct{ name, desc string }{
		{"serve", "Run the virtual-file host over JSON-RPC2"},
		{"remap", "Remap a generated position through a source map file"},
		{"version", "Print the version number of civetls"},
		{"help", "Help about any command"},
	}

	for _, cmd := range commands {
		fmt.Printf("  %s  %s\n", command.Render(fmt.Sprintf("%-12s", cmd.name)), cmd.desc)
	}
	fmt.Println()

	fmt.Println(section.Render("Flags:"))
	fmt.Printf("  %s      help for civetls\n", flag.Render("-h, --help"))
	fmt.Printf("  %s   version for civetls\n", flag.Render("-v, --version"))
	fmt.Println()

	fmt.Println(muted.Render("Use \"civetls [command] --help\" for more information about a command."))
	fmt.Println()
}
