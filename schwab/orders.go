// Copyright (c) 2025 StratX21

package schwab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

// Return codes the order endpoint reports for accepted orders.
var validOrderReturnCodes = map[int]bool{0: true, 10: true, 20: true}

// PlaceBracketedOrder places an OCO bracket with a limit entry and a
// trailing-stop exit. Placement is two-phased: the first post verifies the
// order (OrderProcessingControl 1) and the second post submits it for real
// (OrderProcessingControl 2).
func (c *Client) PlaceBracketedOrder(ctx context.Context, creds broker.Credentials, order *broker.Order) (broker.OrderID, error) {
	if order.Quantity <= 0 {
		return "", fmt.Errorf("order quantity must be positive: %w", os.ErrInvalid)
	}

	request := c.newBracketRequest(order)

	status, body, err := c.postJSON(ctx, c.gatewayURL(ordersPath), creds.UpdateToken, "1.0", request)
	if err != nil {
		return "", fmt.Errorf("could not post order verification request: %w", err)
	}
	if status != http.StatusOK {
		return "", &broker.PlacementError{
			Ticker:   order.Ticker,
			Side:     order.Side,
			Messages: []string{fmt.Sprintf("status %d: %s", status, body)},
		}
	}

	var resp placeOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("could not unmarshal order verification response: %w", err)
	}
	if !validOrderReturnCodes[resp.OrderStrategy.OrderReturnCode] {
		return "", &broker.PlacementError{
			Ticker:   order.Ticker,
			Side:     order.Side,
			Messages: resp.messages(),
		}
	}

	// Submit phase reuses the verified payload with the issued order id.
	request.OrderStrategy.OrderID = resp.OrderStrategy.OrderID
	request.OrderProcessingControl = 2
	if legs := resp.OrderStrategy.OrderLegs; len(legs) > 0 && legs[0].SchwabSecurityID != 0 {
		request.OrderStrategy.OrderLegs[0].Instrument.ItemIssueID = legs[0].SchwabSecurityID
	}

	status, body, err = c.postJSON(ctx, c.gatewayURL(ordersPath), creds.UpdateToken, "1.0", request)
	if err != nil {
		return "", fmt.Errorf("could not post order submit request: %w", err)
	}
	if status != http.StatusOK {
		return "", &broker.PlacementError{
			Ticker:   order.Ticker,
			Side:     order.Side,
			Messages: []string{fmt.Sprintf("status %d: %s", status, body)},
		}
	}

	var submitResp placeOrderResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return "", fmt.Errorf("could not unmarshal order submit response: %w", err)
	}
	if !validOrderReturnCodes[submitResp.OrderStrategy.OrderReturnCode] {
		return "", &broker.PlacementError{
			Ticker:   order.Ticker,
			Side:     order.Side,
			Messages: submitResp.messages(),
		}
	}

	id := broker.OrderID(strconv.FormatInt(resp.OrderStrategy.OrderID, 10))
	slog.Info("placed bracketed order", "ticker", order.Ticker, "side", order.Side, "order-id", id, "limit-price", order.LimitPrice, "client-order-id", order.ClientOrderID)
	return id, nil
}

func (c *Client) newBracketRequest(order *broker.Order) *placeOrderRequest {
	instruction := instructionBuy
	if order.Side == broker.SideSell {
		instruction = instructionSell
	}
	qty := strconv.FormatInt(order.Quantity, 10)

	leg := orderLeg{
		Instruction:    instruction,
		Quantity:       qty,
		LeavesQuantity: qty,
		SecurityType:   securityTypeEquity,
		Instrument:     instrument{Symbol: order.Ticker},
	}

	// Prices over a dollar take at most 2 decimal places; cheaper prices
	// take at most 4.
	limitPrice := order.LimitPrice.Round(2)
	if order.LimitPrice.LessThan(decimal.New(1, 0)) {
		limitPrice = order.LimitPrice.Round(4)
	}

	entry := childOrder{
		Duration:            orderDuration,
		LimitPrice:          limitPrice.String(),
		OrderLegs:           []orderLeg{leg},
		OrderStrategyType:   orderStrategyTypeSingle,
		OrderType:           orderTypeLimit,
		PrimarySecurityType: securityTypeEquity,
		StopPrice:           "0",
	}
	exit := childOrder{
		Duration:            orderDuration,
		LimitPrice:          "0",
		OrderLegs:           []orderLeg{leg},
		OrderStrategyType:   orderStrategyTypeSingle,
		OrderType:           orderTypeTrailingStop,
		PrimarySecurityType: securityTypeEquity,
		StopPrice:           "0",
		TrailingStop: &trailingStop{
			StopPriceLinkType: trailingStopLinkTypeDollars,
			StopPriceOffset:   order.StopOffset.String(),
		},
	}

	return &placeOrderRequest{
		UserContext: userContext{
			AccountID:    c.accountID,
			AccountColor: 1,
		},
		OrderStrategy: orderStrategy{
			OrderStrategyType: orderStrategyTypeOCO,
			ChildOrders:       []childOrder{entry, exit},
			OrderLegs:         []orderLeg{leg},
		},
		OrderProcessingControl: 1,
	}
}

// CancelOrder cancels a working order. Cancellation is two-phased: the first
// post requests a cancel id and the second post confirms it. Failures are
// reported as *broker.CancelError carrying the endpoint's reason code.
func (c *Client) CancelOrder(ctx context.Context, creds broker.Credentials, id broker.OrderID, ticker string, side broker.Side, price decimal.Decimal, quantity int64) error {
	orderID, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return fmt.Errorf("order id %q is not numeric: %w", id, os.ErrInvalid)
	}

	action := "Buy"
	if side == broker.SideSell {
		action = "Sell"
	}

	request := &cancelOrderRequest{
		OrderManagementSystem: 1,
		Orders: []cancelOrderEntry{
			{
				OrderID:        orderID,
				IsLiveOrder:    true,
				InstrumentType: securityTypeEquity,
				Price:          "Limit $" + price.StringFixed(2),
				CancelOrderLegs: []cancelOrderLeg{
					{
						Action:           action,
						Quantity:         strconv.FormatInt(quantity, 10),
						QuantityUnitCode: quantity,
						Symbol:           ticker,
					},
				},
			},
		},
		OrderProcessingControl: 1,
	}

	status, body, err := c.postJSON(ctx, c.gatewayURL(cancelOrderPath), creds.APIToken, "2.0", request)
	if err != nil {
		return fmt.Errorf("could not post cancel request: %w", err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return newCancelError(id, status, body)
	}

	var resp cancelOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return newCancelError(id, status, body)
	}

	request.ConfirmCancelOrderID = resp.CancelOrderID
	request.OrderProcessingControl = 2

	status, body, err = c.postJSON(ctx, c.gatewayURL(cancelOrderPath), creds.APIToken, "2.0", request)
	if err != nil {
		return fmt.Errorf("could not post cancel confirm request: %w", err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return newCancelError(id, status, body)
	}

	var confirm cancelOrderResponse
	if err := json.Unmarshal(body, &confirm); err != nil {
		return newCancelError(id, status, body)
	}
	if !confirm.CancelOperationSuccessful {
		return &broker.CancelError{
			OrderID:  id,
			Reason:   broker.CancelReason(confirm.ReasonCode),
			Messages: confirm.Messages,
		}
	}

	slog.Info("canceled working order", "ticker", ticker, "side", side, "order-id", id)
	return nil
}

// newCancelError maps a failed cancel response to a typed error. The
// endpoint reports its reason code in the response body; request-level
// rejections are recognized by substring when the body is not json.
func newCancelError(id broker.OrderID, status int, body []byte) error {
	var resp cancelOrderResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.ReasonCode) > 0 {
		return &broker.CancelError{
			OrderID:  id,
			Reason:   broker.CancelReason(resp.ReasonCode),
			Messages: resp.Messages,
		}
	}
	reason := broker.CancelReason("")
	if strings.Contains(string(body), string(broker.CancelReasonUnsupportedAPIVersion)) {
		reason = broker.CancelReasonUnsupportedAPIVersion
	}
	return &broker.CancelError{
		OrderID:  id,
		Reason:   reason,
		Messages: []string{fmt.Sprintf("status %d: %s", status, body)},
	}
}
