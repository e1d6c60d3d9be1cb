package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/service"
)

// NewMailConfigCmd returns the "mail-config" command group.
func NewMailConfigCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mail-config",
		Aliases: []string{"mc"},
		Short:   "Inspect and change the stored mail configuration",
	}
	cmd.AddCommand(
		newMailConfigShowCmd(cfg),
		newMailConfigSetCmd(cfg),
		newMailConfigTestCmd(cfg),
		newMailConfigLogCmd(cfg),
	)
	return cmd
}

func newMailConfigShowCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored mail configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openLocal(cfg, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			mc, err := env.svc.GetMailConfig(cmd.Context())
			var nf *service.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("no mail configuration stored"))
				return nil
			}
			if err != nil {
				return err
			}
			renderMailConfig(cmd.OutOrStdout(), mc)
			return nil
		},
	}
}

type mailConfigFlags struct {
	server        string
	port          int
	from          string
	passwordStdin bool
	clearPassword bool
}

func newMailConfigSetCmd(cfg *config.AppConfig) *cobra.Command {
	var f mailConfigFlags

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change fields of the stored mail configuration",
		Long: `Change fields of the stored mail configuration. Unspecified fields keep
their current value. Running dispatchers pick up the change immediately.`,
		Example: `  alertmail mail-config set --server smtp.example.com --port 587 --from alerts@example.com
  echo "$SMTP_PASSWORD" | alertmail mail-config set --password-stdin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.passwordStdin && f.clearPassword {
				return errors.New("--password-stdin and --clear-password are mutually exclusive")
			}
			env, err := openLocal(cfg, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			mc, err := applyMailConfigFlags(cmd.Context(), env.mailCfg, cmd, f)
			if err != nil {
				return err
			}
			if err := env.svc.UpdateMailConfig(cmd.Context(), mc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("mail configuration saved"))
			renderMailConfig(cmd.OutOrStdout(), mc)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.server, "server", "", "SMTP server host")
	cmd.Flags().IntVar(&f.port, "port", 0, "SMTP server port")
	cmd.Flags().StringVar(&f.from, "from", "", "Sender address, also the SMTP username")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the SMTP password from stdin")
	cmd.Flags().BoolVar(&f.clearPassword, "clear-password", false, "Remove the stored password and send unauthenticated")
	return cmd
}

// applyMailConfigFlags returns the stored configuration with the changed flags applied.
func applyMailConfigFlags(ctx context.Context, src config.MailConfigSource, cmd *cobra.Command, f mailConfigFlags) (*config.MailConfig, error) {
	mc, err := src.GetGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		mc = &config.MailConfig{}
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		mc.ServerHost = f.server
	}
	if flags.Changed("port") {
		mc.ServerPort = f.port
	}
	if flags.Changed("from") {
		mc.FromAddress = f.from
	}
	switch {
	case f.clearPassword:
		mc.FromPassword = nil
	case f.passwordStdin:
		pw, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		mc.FromPassword = &pw
	}
	return mc, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password on stdin; use --clear-password to remove it")
	}
	return pw, nil
}

func newMailConfigTestCmd(cfg *config.AppConfig) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test message with the stored mail configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openLocal(cfg, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.svc.TestNotification(cmd.Context(), to); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("test message sent to "+to))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newMailConfigLogCmd(cfg *config.AppConfig) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent deliveries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openLocal(cfg, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			entries, err := env.svc.ListLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderLog(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}
