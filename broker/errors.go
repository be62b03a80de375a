// Copyright (c) 2025 StratX21

package broker

import (
	"fmt"
	"strings"
)

// CancelReason is the brokerage's reason code for a failed cancel request.
type CancelReason string

// CancelReasonUnsupportedAPIVersion indicates the cancel request itself was
// rejected without reaching the order. The order state is unchanged and the
// cancel can be retried.
const CancelReasonUnsupportedAPIVersion CancelReason = "UnsupportedApiVersion"

// PlacementError reports a rejected order placement along with the
// brokerage's explanation messages.
type PlacementError struct {
	Ticker   string
	Side     Side
	Messages []string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("brokerage rejected %s order for %s: %s", e.Side, e.Ticker, strings.Join(e.Messages, "; "))
}

// IsOversold reports whether any rejection message indicates the order would
// oversell or overbuy the current position.
func (e *PlacementError) IsOversold() bool {
	for _, m := range e.Messages {
		l := strings.ToLower(m)
		if strings.Contains(l, "oversold") || strings.Contains(l, "overbought") {
			return true
		}
	}
	return false
}

// CancelError reports a failed cancel request. The working order may or may
// not still exist; callers decide based on the reason code.
type CancelError struct {
	OrderID  OrderID
	Reason   CancelReason
	Messages []string
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("brokerage could not cancel order %s (reason %q): %s", e.OrderID, e.Reason, strings.Join(e.Messages, "; "))
}

// AuthError reports a failed credential refresh or an authorization
// rejection.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("brokerage authorization failure (status %d): %s", e.Status, e.Message)
}
