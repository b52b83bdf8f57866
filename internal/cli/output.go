package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/syncclient"
)

// Exit codes for syncctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the node answered with an error
	ExitCommandError = 2 // bad input, unreachable node
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that carry no code.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// checkResult turns an undelivered request into an ExitError carrying the
// node's own message when it sent one.
func checkResult(res syncclient.Result) error {
	if res.Delivered {
		return nil
	}
	if res.StatusCode == 0 {
		return WrapExitError(ExitCommandError, "node unreachable", res.Err)
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(res.Body, &body) == nil && body.Message != "" {
		return NewExitError(ExitFailure, fmt.Sprintf("%d %s", res.StatusCode, body.Message))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("node answered %d", res.StatusCode))
}

type printer struct {
	format string
	w      io.Writer
}

// raw prints a response body. JSON bodies are indented in either format.
func (p printer) raw(body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = p.w.Write(append(body, '\n'))
		return err
	}
	buf.WriteByte('\n')
	_, err := p.w.Write(buf.Bytes())
	return err
}

func (p printer) orders(body []byte) error {
	if p.format == "json" {
		return p.raw(body)
	}
	var resp struct {
		Data []models.OrderView `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return WrapExitError(ExitFailure, "unexpected response", err)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPEER ID\tSTATUS\tTITLE\tTOTAL\tNOTES")
	for _, o := range resp.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", o.ID, peerID(o.ExternalID), o.Status, o.Title, o.Total.StringFixed(2), len(o.Notes))
	}
	return tw.Flush()
}

func (p printer) order(view models.OrderView) error {
	fmt.Fprintf(p.w, "%s (id %d, peer id %s)\n", view.Title, view.ID, peerID(view.ExternalID))
	fmt.Fprintf(p.w, "status:   %s\n", view.Status)
	if view.DateCreated != "" {
		fmt.Fprintf(p.w, "created:  %s\n", view.DateCreated)
	}
	if view.ShippingDate != "" {
		fmt.Fprintf(p.w, "shipping: %s\n", view.ShippingDate)
	}
	fmt.Fprintf(p.w, "total:    %s\n", view.Total.StringFixed(2))
	for _, n := range view.Notes {
		fmt.Fprintf(p.w, "  [%s] %s: %s\n", n.Origin, n.AddedBy, n.Content)
	}
	return nil
}

func peerID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}
