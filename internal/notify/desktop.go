package notify

import (
	"os/exec"
	"runtime"
	"strings"
)

// DesktopNotifier pops up notifications with notify-send on Linux and
// osascript on macOS. Other systems are ignored.
type DesktopNotifier struct {
	enabled bool
	goos    string
	run     func(name string, args ...string) error
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{
		enabled: enabled,
		goos:    runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send shows n on the desktop
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}
	name, args, ok := desktopCommand(d.goos, n)
	if !ok {
		return nil
	}
	return d.run(name, args...)
}

// desktopCommand returns the command line that shows n on goos
func desktopCommand(goos string, n Notification) (string, []string, bool) {
	body := n.Message
	if len(n.Details) > 0 {
		body += "\n" + strings.Join(n.Details, " → ")
	}

	switch goos {
	case "linux":
		urgency := "normal"
		if n.Level == LevelFailed || n.Level == LevelSlipped {
			urgency = "critical"
		}
		return "notify-send", []string{"--app-name", "critpath", "--urgency", urgency, "--icon", iconFor(n.Level), n.Title, body}, true
	case "darwin":
		script := `display notification "` + appleScriptString(body) + `" with title "` + appleScriptString(n.Title) + `"`
		return "osascript", []string{"-e", script}, true
	}
	return "", nil, false
}

func appleScriptString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ").Replace(s)
}

func iconFor(l Level) string {
	switch l {
	case LevelImproved:
		return "dialog-positive"
	case LevelSlipped:
		return "dialog-warning"
	case LevelFailed:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}
