package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/josephlewis42/mysh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	reportSession string
	reportFormat  string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

// buildReport aggregates the events in r, keeping only those of session if
// it's set.
func buildReport(r io.Reader, session string) (*logger.Report, error) {
	var report logger.Report
	err := logger.ReadJSONLinesLog(r, func(le *logger.LogEntry) {
		if session == "" || le.SessionID == session {
			report.Update(le)
		}
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func marshalReport(report *logger.Report, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(report)
	case "json":
		return json.MarshalIndent(report, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q, expected yaml or json", format)
	}
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of the commands the shell ran.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := config.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report, err := buildReport(fd, reportSession)
		if err != nil {
			return err
		}

		out, err := marshalReport(report, reportFormat)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)

	reportCommand.Flags().StringVar(&reportSession, "session", "", "only include events from this session ID")
	reportCommand.Flags().StringVarP(&reportFormat, "format", "o", "yaml", "output format: yaml or json")
}
