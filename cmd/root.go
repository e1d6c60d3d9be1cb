package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/alertmail/internal/build"
	"github.com/shaharia-lab/alertmail/internal/config"
)

// NewRootCmd builds the command tree.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "alertmail",
		Short:         "E-mail notifications for firing search alerts",
		Long:          "alertmail renders alert reports and delivers them over SMTP using a shared, hot-reloadable mail configuration.",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		NewServeCmd(cfg),
		NewSendCmd(cfg),
		NewMailConfigCmd(cfg),
		NewUpdateCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute(cfg *config.AppConfig) {
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
