package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"
)

// Color settings.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	MaxTokens         int    `json:"max_tokens" validate:"gte=1,lte=4096"`
	RedirectMode      string `json:"redirect_mode" validate:"required,filemode"`
	BuiltinsSetStatus bool   `json:"builtins_set_status"`
	Prompt            string `json:"prompt" validate:"required"`
	Color             string `json:"color" validate:"oneof=always auto never"`
	HistoryFile       string `json:"history_file" validate:"omitempty,excludesall=/"`
	EventLog          bool   `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	if err := validate.RegisterValidation("filemode", func(fl validator.FieldLevel) bool {
		_, err := parseFileMode(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	return validate.Struct(c)
}

func parseFileMode(mode string) (os.FileMode, error) {
	perm, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode %q: %v", mode, err)
	}
	if perm&^uint64(os.ModePerm) != 0 {
		return 0, fmt.Errorf("invalid file mode %q: only permission bits are allowed", mode)
	}
	return os.FileMode(perm), nil
}

// FileMode returns the permissions for files created by redirection.
func (c *Configuration) FileMode() os.FileMode {
	mode, err := parseFileMode(c.RedirectMode)
	if err != nil {
		return 0640
	}
	return mode
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the directory the configuration was loaded from, empty for the
// built-in defaults.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// HistoryPath returns the absolute path of the history file or an empty string
// if history shouldn't be persisted.
func (c *Configuration) HistoryPath() string {
	if c.HistoryFile == "" || c.configurationDir == "" {
		return ""
	}
	path, err := filepath.Abs(filepath.Join(c.configurationDir, c.HistoryFile))
	if err != nil {
		return ""
	}
	return path
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration. It isn't backed by a directory
// so the event log is kept in memory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
