package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/alert"
	"github.com/shaharia-lab/alertmail/internal/config"
)

// NewSendCmd returns the "send" subcommand that dispatches one alert from files.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		alertFile      string
		resultFile     string
		mailConfigFile string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch the actions of an alert definition once",
		Long: `Load an alert definition (YAML) and a trigger result (JSON), then run every
action of the alert. Use "-" to read the trigger result from stdin.

The mail configuration is read from the database unless --mail-config is given.`,
		Example: `  alertmail send --alert disk.yaml --result result.json
  curl -s localhost:9200/logs/_search | alertmail send --alert disk.yaml --result -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := alert.LoadDefinition(alertFile, action.DefaultRegistry())
			if err != nil {
				return err
			}
			res, err := readResult(cmd.InOrStdin(), resultFile)
			if err != nil {
				return err
			}

			var source config.MailConfigSource
			if mailConfigFile != "" {
				mc, err := config.LoadMailConfigFile(mailConfigFile)
				if err != nil {
					return err
				}
				source = config.NewStaticMailConfigSource(mc)
			}

			env, err := openLocal(cfg, source)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return sendAlert(ctx, cmd.OutOrStdout(), env, def, res)
		},
	}

	cmd.Flags().StringVar(&alertFile, "alert", "", "Alert definition file (YAML)")
	cmd.Flags().StringVar(&resultFile, "result", "-", `Trigger result file (JSON), "-" for stdin`)
	cmd.Flags().StringVar(&mailConfigFile, "mail-config", "", "Mail configuration file (YAML); defaults to the stored configuration")
	_ = cmd.MarkFlagRequired("alert")
	return cmd
}

func readResult(stdin io.Reader, path string) (*alert.SearchResult, error) {
	if path == "-" {
		res, err := alert.DecodeSearchResult(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading trigger result from stdin: %w", err)
		}
		return res, nil
	}
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("opening trigger result: %w", err)
	}
	defer f.Close() //nolint:errcheck
	res, err := alert.DecodeSearchResult(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func sendAlert(ctx context.Context, w io.Writer, env *localEnv, def *alert.Definition, res alert.TriggerResult) error {
	outcomes, err := env.svc.DispatchAlert(ctx, def, res)
	renderOutcomes(w, def.Name(), outcomes)
	if err != nil {
		return fmt.Errorf("alert %q: %w", def.Name(), err)
	}
	return nil
}
