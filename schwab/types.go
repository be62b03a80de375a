// Copyright (c) 2025 StratX21

package schwab

import "encoding/json"

// Wire constants from the web trading API. Values are undocumented; they
// mirror what the web interface sends.
const (
	instructionBuy  = 49
	instructionSell = 50

	securityTypeEquity = 46

	orderTypeLimit        = "50"
	orderTypeTrailingStop = "84"

	orderStrategyTypeSingle = 1
	orderStrategyTypeOCO    = 4

	orderDuration = "48"

	trailingStopLinkTypeDollars = 1
)

type userContext struct {
	AccountID    string `json:"AccountId"`
	AccountColor int    `json:"AccountColor"`
	CustomerID   int    `json:"CustomerId"`
}

type instrument struct {
	Symbol      string `json:"Symbol"`
	ItemIssueID int64  `json:"ItemIssueId,omitempty"`
}

type orderLeg struct {
	Instruction    int        `json:"Instruction"`
	Quantity       string     `json:"Quantity"`
	LeavesQuantity string     `json:"LeavesQuantity"`
	SecurityType   int        `json:"SecurityType"`
	Instrument     instrument `json:"Instrument"`
}

type trailingStop struct {
	StopPriceLinkType int    `json:"stopPriceLinkType"`
	StopPriceOffset   string `json:"stopPriceOffset"`
}

type childOrder struct {
	AllNoneIn           bool          `json:"AllNoneIn"`
	DoNotReduceIn       bool          `json:"DoNotReduceIn"`
	Duration            string        `json:"Duration"`
	LimitPrice          string        `json:"LimitPrice"`
	MinimumQuantity     int           `json:"MinimumQuantity"`
	OrderID             int64         `json:"OrderId"`
	OrderLegs           []orderLeg    `json:"OrderLegs"`
	OrderStrategyType   int           `json:"OrderStrategyType"`
	OrderType           string        `json:"OrderType"`
	PrimarySecurityType int           `json:"PrimarySecurityType"`
	ReinvestDividend    bool          `json:"ReinvestDividend"`
	StopPrice           string        `json:"StopPrice"`
	TrailingStop        *trailingStop `json:"TrailingStop,omitempty"`
}

type orderStrategy struct {
	OrderStrategyType int          `json:"OrderStrategyType"`
	GroupOrderID      int64        `json:"GroupOrderId"`
	OrderID           int64        `json:"OrderId,omitempty"`
	ChildOrders       []childOrder `json:"ChildOrders"`
	OrderLegs         []orderLeg   `json:"OrderLegs"`
}

type placeOrderRequest struct {
	UserContext            userContext   `json:"UserContext"`
	OrderStrategy          orderStrategy `json:"OrderStrategy"`
	OrderProcessingControl int           `json:"OrderProcessingControl"`
}

type placeOrderResponse struct {
	OrderStrategy struct {
		OrderID         int64 `json:"orderId"`
		OrderReturnCode int   `json:"orderReturnCode"`
		OrderMessages   []struct {
			Message string `json:"message"`
		} `json:"orderMessages"`
		OrderLegs []struct {
			SchwabSecurityID int64 `json:"schwabSecurityId"`
		} `json:"orderLegs"`
	} `json:"orderStrategy"`
}

func (r *placeOrderResponse) messages() []string {
	var ms []string
	for _, m := range r.OrderStrategy.OrderMessages {
		ms = append(ms, m.Message)
	}
	return ms
}

type cancelOrderLeg struct {
	Action           string `json:"Action"`
	Quantity         string `json:"Quantity"`
	QuantityUnitCode int64  `json:"QuantityUnitCode"`
	Symbol           string `json:"Symbol"`
}

type cancelOrderEntry struct {
	OrderID             int64            `json:"OrderId"`
	IsLiveOrder         bool             `json:"IsLiveOrder"`
	InstrumentType      int              `json:"InstrumentType"`
	IsOrphanConditional bool             `json:"IsOrphanConditional"`
	Price               string           `json:"Price"`
	CancelOrderLegs     []cancelOrderLeg `json:"CancelOrderLegs"`
}

type cancelOrderRequest struct {
	TypeOfOrder            int                `json:"TypeOfOrder"`
	OrderManagementSystem  int                `json:"OrderManagementSystem"`
	Orders                 []cancelOrderEntry `json:"Orders"`
	ContingentIDToCancel   int64              `json:"ContingentIdToCancel"`
	OrderIDToCancel        int64              `json:"OrderIdToCancel"`
	OrderProcessingControl int                `json:"OrderProcessingControl"`
	ConfirmCancelOrderID   int64              `json:"ConfirmCancelOrderId"`
}

type cancelOrderResponse struct {
	CancelOrderID             int64    `json:"CancelOrderId"`
	CancelOperationSuccessful bool     `json:"CancelOperationSuccessful"`
	ReasonCode                string   `json:"ReasonCode"`
	Messages                  []string `json:"Messages"`
}

type quoteRequest struct {
	Symbols        []string `json:"Symbols"`
	IsIra          bool     `json:"IsIra"`
	AccountRegType string   `json:"AccountRegType"`
}

type quoteResponse struct {
	Quotes []struct {
		Symbol string `json:"symbol"`
		Quote  struct {
			Bid json.Number `json:"bid"`
			Ask json.Number `json:"ask"`
		} `json:"quote"`
	} `json:"quotes"`
}

type authorizeResponse struct {
	Token string `json:"token"`
}
