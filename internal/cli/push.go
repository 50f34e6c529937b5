package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"inspire-orcid/internal/app"
	orciddomain "inspire-orcid/internal/domain/orcid"
)

type PushOptions struct {
	*RootOptions
	Token string
	// AppOptions is passed to app.New; tests point it at a fake registry.
	AppOptions app.Options
}

func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push <orcid> <recid>",
		Short: "Push one record to one ORCID identity and wait for the result",
		Long: `Push one record to one ORCID identity and wait for the result.

The OAuth token comes from --token or ORCID_TOKEN. Transient registry
failures are retried as configured by PUSH_MAX_RETRIES.

Example:
  inspire-orcid push 0000-0002-1825-0097 4328 --token $TOKEN`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "ORCID OAuth access token (default $ORCID_TOKEN)")

	return cmd
}

func runPush(cmd *cobra.Command, opts *PushOptions, orcid, recid string) error {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("ORCID_TOKEN"))
	}
	if token == "" {
		return fmt.Errorf("missing token: pass --token or set ORCID_TOKEN")
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	application, err := app.New(cfg, opts.Log, opts.AppOptions)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Push().Push(cmd.Context(), orciddomain.PushRequest{Orcid: orcid, Recid: recid, Token: token})
	if err != nil {
		return err
	}

	line := fmt.Sprintf("pushed orcid=%s recid=%s putcode=%d attempts=%d", result.Orcid, result.Recid, result.Putcode, result.Attempts)
	if result.Skipped {
		line = fmt.Sprintf("skipped orcid=%s recid=%s: not whitelisted", result.Orcid, result.Recid)
	}
	return printResult(cmd.OutOrStdout(), opts.Format, result, line)
}
