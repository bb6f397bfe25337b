package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/josephlewis42/mysh/core/config"
	"github.com/josephlewis42/mysh/core/shell"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandLine string
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadShellConfig is like loadConfig but uses the built-in defaults if the
// configuration directory was never initialized.
func loadShellConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return configuration, err
}

// exitStatus is returned by the root command to exit with the status of the
// last line it ran.
type exitStatus shell.Status

func (e exitStatus) Error() string {
	return shell.Status(e).String()
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mysh",
	Short: "A small interactive command shell",
	Long: `mysh runs one command line at a time. A line may pipe one program into
another with |, redirect input and output with < and >, expand * wildcards
and start with then or else to run only if the previous line succeeded or
failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadShellConfig()
		if err != nil {
			return err
		}

		sh, closeEvents, err := newShell(cmd, configuration)
		if err != nil {
			return err
		}
		defer closeEvents()

		if cmd.Flags().Changed("command") {
			status := shell.Success
			runLine(cmd.Context(), sh, commandLine, &status)
			if status != shell.Success {
				cmd.SilenceErrors = true
				return exitStatus(status)
			}
			return nil
		}

		return interactive(cmd, sh, configuration)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(shell.Status(status).ExitCode())
	}
	cobra.CheckErr(err)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".mysh")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config path")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single command line and exit with its status")
}
