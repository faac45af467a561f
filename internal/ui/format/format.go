// Package format renders instance status lines and full-status blocks.
package format

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imamik/shepherd/internal/provider"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#6b7280")

	runningStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	stoppedStyle    = lipgloss.NewStyle().Foreground(colorDim)
	terminatedStyle = lipgloss.NewStyle().Foreground(colorRed)
	transientStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// Printer writes host lines to Out, colouring state labels when Color is set.
type Printer struct {
	Out   io.Writer
	Color bool
}

// NewPrinter returns a Printer for out. Colour is enabled only for a
// terminal and only when NO_COLOR is unset.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out, Color: ColorEnabled(out)}
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// Host prints the status line of one instance, followed by block when it
// is not empty.
func (p *Printer) Host(name, id string, state provider.StateCode, block string) {
	label := state.Label()
	if p.Color {
		label = styleFor(state).Render(label)
	}
	fmt.Fprintln(p.Out, HostLine(name, id, label))
	if block != "" {
		fmt.Fprint(p.Out, block)
	}
}

// HostLine renders the fixed-width status line: name, instance id, label.
func HostLine(name, id, label string) string {
	return strings.TrimRight(fmt.Sprintf("%-24s %-25s %s", name, id, label), " ")
}

// Block renders the full-status lines of d, each indented by two spaces
// and terminated by a newline. Lines without data are left out.
func Block(d provider.Details) string {
	var lines []string
	if d.FQDN != "" {
		lines = append(lines, "FQDN:          "+d.FQDN)
	}
	if d.InstanceType != "" {
		lines = append(lines, "Instance type: "+d.InstanceType)
	}
	if d.AvailabilityZone != "" {
		lines = append(lines, fmt.Sprintf("Location:      %s (availability zone)", d.AvailabilityZone))
	}

	var addrs []string
	for _, a := range []string{d.PublicIP, d.PrivateIP, d.IPv6} {
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) > 0 {
		lines = append(lines, "IP addrs:      "+strings.Join(addrs, " "))
	}
	if d.Network != "" {
		lines = append(lines, "Network:       "+d.Network)
	}

	switch {
	case !d.LaunchTime.IsZero() && d.ImageID != "":
		lines = append(lines, fmt.Sprintf("Launch time:   %s from image: %s", launchTime(d.LaunchTime), d.ImageID))
	case !d.LaunchTime.IsZero():
		lines = append(lines, "Launch time:   "+launchTime(d.LaunchTime))
	case d.ImageID != "":
		lines = append(lines, "Image:         "+d.ImageID)
	}

	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func launchTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05+00:00")
}

func styleFor(s provider.StateCode) lipgloss.Style {
	switch s {
	case provider.StateRunning:
		return runningStyle
	case provider.StateStopped:
		return stoppedStyle
	case provider.StateTerminated:
		return terminatedStyle
	default:
		return transientStyle
	}
}
