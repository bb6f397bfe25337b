package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/mysh/core/config"
)

var (
	colorDir  = color.New(color.FgBlue, color.Bold)
	colorName = color.New(color.FgGreen, color.Bold)
)

// Prompt renders the interactive prompt from a template.
//
//   \w  the working directory, with the home directory abbreviated to ~
//   \$  # for root and $ for everyone else
type Prompt struct {
	Template string
	Color    bool

	// Getwd, Home and Geteuid default to the process's values.
	Getwd   func() (string, error)
	Home    func() (string, error)
	Geteuid func() int
}

func (p *Prompt) Render() string {
	getwd, home, geteuid := p.Getwd, p.Home, p.Geteuid
	if getwd == nil {
		getwd = os.Getwd
	}
	if home == nil {
		home = os.UserHomeDir
	}
	if geteuid == nil {
		geteuid = os.Geteuid
	}

	pwd, err := getwd()
	if err != nil {
		pwd = "?"
	}
	if homeDir, err := home(); err == nil && homeDir != "" {
		if pwd == homeDir || strings.HasPrefix(pwd, homeDir+string(filepath.Separator)) {
			pwd = "~" + strings.TrimPrefix(pwd, homeDir)
		}
	}

	sign := "$"
	if geteuid() == 0 {
		sign = "#"
	}

	return strings.NewReplacer(
		`\w`, sprint(colorDir, p.Color, pwd),
		`\$`, sign,
	).Replace(p.Template)
}

// sprint formats a with c only when enabled is set, regardless of what the
// color package detected for the process.
func sprint(c *color.Color, enabled bool, a ...interface{}) string {
	// Copy so enabling colors doesn't leak into shared values.
	colored := *c
	if enabled {
		colored.EnableColor()
	} else {
		colored.DisableColor()
	}
	return colored.Sprint(a...)
}

// colorEnabled decides whether output to w is colorized for a setting.
func colorEnabled(setting string, w io.Writer) bool {
	switch setting {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	file, ok := w.(*os.File)
	return ok && isTerminal(file)
}
