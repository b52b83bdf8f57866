package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hub-order-sync/internal/models"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, "order id must be a positive integer")
	}
	return id, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read order", err)
	}
	if !json.Valid(b) {
		return nil, NewExitError(ExitCommandError, "order file is not valid JSON")
	}
	return b, nil
}

func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List orders on the node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.adminClient()
			if err != nil {
				return err
			}
			res := c.Do(cmd.Context(), http.MethodGet, opts.apiURL("/orders"), nil)
			if err := checkResult(res); err != nil {
				return err
			}
			return printer{format: opts.Format, w: cmd.OutOrStdout()}.orders(res.Body)
		},
	}
}

func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.adminClient()
			if err != nil {
				return err
			}
			res := c.Do(cmd.Context(), http.MethodGet, opts.apiURL("/orders/%d", id), nil)
			if err := checkResult(res); err != nil {
				return err
			}
			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return p.raw(res.Body)
			}
			var view models.OrderView
			if err := json.Unmarshal(res.Body, &view); err != nil {
				return WrapExitError(ExitFailure, "unexpected response", err)
			}
			return p.order(view)
		},
	}
}

func NewCreateCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a local order from a JSON file",
		Long: `Store a local order on the node. The order is not sent to the peer
until it is published.

Examples:
  syncctl create -f order.json
  cat order.json | syncctl create -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			c, err := opts.adminClient()
			if err != nil {
				return err
			}
			res := c.Do(cmd.Context(), http.MethodPost, opts.apiURL("/orders"), body)
			if err := checkResult(res); err != nil {
				return err
			}
			return printer{format: opts.Format, w: cmd.OutOrStdout()}.raw(res.Body)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "order JSON file, - for stdin (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change an order status and push it to the peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, _ := json.Marshal(models.StatusRequest{Status: args[1]})
			return opts.post(cmd, http.MethodPut, opts.apiURL("/orders/%d/status", id), body)
		},
	}
}

func NewNoteCommand(opts *RootOptions) *cobra.Command {
	var (
		customer bool
		author   string
	)
	cmd := &cobra.Command{
		Use:   "note <id> <content>",
		Short: "Add a note to an order and push it to the peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, _ := json.Marshal(map[string]any{
				"content":          args[1],
				"is_customer_note": customer,
				"added_by":         author,
			})
			return opts.post(cmd, http.MethodPost, opts.apiURL("/orders/%d/notes", id), body)
		},
	}
	cmd.Flags().BoolVar(&customer, "customer", false, "mark the note as visible to the customer")
	cmd.Flags().StringVar(&author, "by", "", "note author (defaults to the node name)")
	return cmd
}

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Push the current status of an order to the peer again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.post(cmd, http.MethodPost, opts.apiURL("/orders/%d/sync", id), nil)
		},
	}
}

func NewPublishCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Send a local order to the peer and link the peer's id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.post(cmd, http.MethodPost, opts.apiURL("/orders/%d/publish", id), nil)
		},
	}
}

func (o *RootOptions) post(cmd *cobra.Command, method, url string, body []byte) error {
	c, err := o.adminClient()
	if err != nil {
		return err
	}
	res := c.Do(cmd.Context(), method, url, body)
	if err := checkResult(res); err != nil {
		return err
	}
	return printer{format: o.Format, w: cmd.OutOrStdout()}.raw(res.Body)
}
