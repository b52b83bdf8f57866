package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hub-order-sync/internal/syncclient"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	NodeURL string
	APIKey  string
	Secret  string
	Timeout time.Duration
	Format  string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the syncctl root command. Credentials default to
// the node's admin key pair from the environment.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "syncctl",
		Short: "syncctl - operate an order sync node",
		Long:  "Sends signed requests to the admin API of a local order sync node.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.NodeURL, "node", envOr("SYNCCTL_NODE_URL", "http://localhost:8081"), "base URL of the local node")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", os.Getenv("ADMIN_API_KEY"), "admin api key")
	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", os.Getenv("ADMIN_SECRET_KEY"), "admin signing secret")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", syncclient.DefaultTimeout, "request timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewNoteCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewPushOrderCommand(opts))
	cmd.AddCommand(NewPushNoteCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// adminClient signs with the admin key pair against the local node.
func (o *RootOptions) adminClient() (*syncclient.Client, error) {
	if o.APIKey == "" || o.Secret == "" {
		return nil, NewExitError(ExitCommandError, "admin credentials are required (--api-key/--secret or ADMIN_API_KEY/ADMIN_SECRET_KEY)")
	}
	return syncclient.New(syncclient.Config{
		PeerURL: o.NodeURL,
		APIKey:  o.APIKey,
		Secret:  o.Secret,
		Timeout: o.Timeout,
	}), nil
}

func (o *RootOptions) apiURL(format string, args ...any) string {
	return strings.TrimRight(o.NodeURL, "/") + "/api" + fmt.Sprintf(format, args...)
}
