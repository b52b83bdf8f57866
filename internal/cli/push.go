package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/syncclient"
)

type PushOptions struct {
	*RootOptions
	PeerURL    string
	PeerKey    string
	PeerSecret string
}

// NewPushOrderCommand posts a raw order straight to a peer's create
// endpoint, signed with the shared peer key pair. This is what a shop does
// when it hands a new order to the hub.
func NewPushOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push-order <file>",
		Short: "Send an order JSON file to a peer's POST /orders",
		Long: `Send an order JSON file to a peer's create endpoint. The order's "id"
becomes the peer's external id for it. Sending the same id again merges.

Examples:
  syncctl push-order order.json --peer-url https://hub.example.com
  cat order.json | syncctl push-order -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPushOrder(opts, cmd, args[0])
		},
	}

	opts.peerFlags(cmd)
	return cmd
}

// NewPushNoteCommand posts a note to a peer's notes endpoint. The peer keeps
// it and relays it back once as a regular update.
func NewPushNoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}
	var customer bool

	cmd := &cobra.Command{
		Use:   "push-note <order-id> <content>",
		Short: "Send a note to a peer's POST /orders/{id}/notes",
		Long: `Send a note to a peer's notes endpoint. <order-id> is this side's id for
the order, which the peer holds as its external id.

Examples:
  syncctl push-note 167 "Ready for pickup" --peer-url https://hub.example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.peerClient()
			if err != nil {
				return err
			}
			res := c.SendNote(cmd.Context(), ref, models.NoteRequest{Content: args[1], IsCustomerNote: customer})
			if err := checkResult(res); err != nil {
				return err
			}
			if opts.Format == "json" {
				return printer{format: opts.Format, w: cmd.OutOrStdout()}.raw(res.Body)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "note sent for order %d\n", ref)
			return err
		},
	}

	cmd.Flags().BoolVar(&customer, "customer", false, "mark the note as visible to the customer")
	opts.peerFlags(cmd)
	return cmd
}

func (opts *PushOptions) peerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.PeerURL, "peer-url", os.Getenv("PEER_URL"), "peer base URL")
	cmd.Flags().StringVar(&opts.PeerKey, "peer-key", os.Getenv("API_KEY"), "shared peer api key")
	cmd.Flags().StringVar(&opts.PeerSecret, "peer-secret", os.Getenv("SECRET_KEY"), "shared peer signing secret")
}

func (opts *PushOptions) peerClient() (*syncclient.Client, error) {
	if opts.PeerURL == "" || opts.PeerKey == "" || opts.PeerSecret == "" {
		return nil, NewExitError(ExitCommandError, "peer url and credentials are required")
	}
	return syncclient.New(syncclient.Config{
		PeerURL: opts.PeerURL,
		APIKey:  opts.PeerKey,
		Secret:  opts.PeerSecret,
		Timeout: opts.Timeout,
	}), nil
}

func runPushOrder(opts *PushOptions, cmd *cobra.Command, path string) error {
	c, err := opts.peerClient()
	if err != nil {
		return err
	}
	body, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	res, id := c.SendOrder(cmd.Context(), body)
	if err := checkResult(res); err != nil {
		return err
	}
	if opts.Format == "json" {
		return printer{format: opts.Format, w: cmd.OutOrStdout()}.raw(res.Body)
	}
	verb := "merged into"
	if res.StatusCode == 201 {
		verb = "created as"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "order %s peer order %d\n", verb, id)
	return err
}
