package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserPayload struct {
	Id       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    UserPayload `json:"user"`
	Token   string      `json:"token"`
}

type VerifyResponse struct {
	Status bool         `json:"status"`
	User   *UserPayload `json:"user,omitempty"`
}

type CreateOrderRequest struct {
	Name       string          `json:"name" validate:"required"`
	Symbol     string          `json:"symbol" validate:"required"`
	Qty        int64           `json:"qty" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price" validate:"required"`
	Mode       string          `json:"mode" validate:"required"`
	OrderType  string          `json:"orderType,omitempty"`
	Product    string          `json:"product,omitempty"`
	Exchange   string          `json:"exchange,omitempty"`
	PaymentRef string          `json:"paymentReference,omitempty"`
}

type OrderPayload struct {
	OrderId     string    `json:"orderId"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Quantity    int64     `json:"quantity"`
	Price       string    `json:"price"`
	Mode        string    `json:"mode"`
	OrderType   string    `json:"orderType"`
	Product     string    `json:"product"`
	Exchange    string    `json:"exchange"`
	TotalAmount string    `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    OrderPayload `json:"data"`
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

type OrderListResponse struct {
	Success    bool           `json:"success"`
	Data       []OrderPayload `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type HoldingPayload struct {
	Id               string `json:"id"`
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	Quantity         int64  `json:"quantity"`
	AveragePrice     string `json:"averagePrice"`
	LastPrice        string `json:"lastPrice"`
	LivePrice        string `json:"livePrice"`
	Change           string `json:"change"`
	ChangePercentage string `json:"changePercentage"`
	Investment       string `json:"investment"`
	CurrentValue     string `json:"currentValue"`
	Pnl              string `json:"pnl"`
	PnlPercentage    string `json:"pnlPercentage"`
	DayPnl           string `json:"dayPnl"`
	Exchange         string `json:"exchange"`
	Instrument       string `json:"instrument"`
	UsingFallback    bool   `json:"usingFallback,omitempty"`
}

type PortfolioSummary struct {
	TotalInvestment    string `json:"totalInvestment"`
	CurrentValue       string `json:"currentValue"`
	TotalPnl           string `json:"totalPnl"`
	TotalPnlPercentage string `json:"totalPnlPercentage"`
	DayPnl             string `json:"dayPnl"`
}

type HoldingsResponse struct {
	Success     bool             `json:"success"`
	Data        []HoldingPayload `json:"data"`
	Summary     PortfolioSummary `json:"summary"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

type AddHoldingRequest struct {
	Name       string          `json:"name" validate:"required"`
	Symbol     string          `json:"symbol" validate:"required"`
	Qty        int64           `json:"qty" validate:"required,gt=0"`
	Avg        decimal.Decimal `json:"avg" validate:"required"`
	Exchange   string          `json:"exchange,omitempty"`
	Instrument string          `json:"instrument,omitempty"`
}

type UpdateHoldingRequest struct {
	Qty       *int64           `json:"qty,omitempty"`
	Avg       *decimal.Decimal `json:"avg,omitempty"`
	LastPrice *decimal.Decimal `json:"lastPrice,omitempty"`
}

type PositionPayload struct {
	Id               string    `json:"id"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol"`
	Product          string    `json:"product"`
	Quantity         int64     `json:"quantity"`
	AveragePrice     string    `json:"averagePrice"`
	LastPrice        string    `json:"lastPrice"`
	LivePrice        string    `json:"livePrice"`
	Change           string    `json:"change"`
	ChangePercentage string    `json:"changePercentage"`
	Investment       string    `json:"investment"`
	CurrentValue     string    `json:"currentValue"`
	Pnl              string    `json:"pnl"`
	PnlPercentage    string    `json:"pnlPercentage"`
	DayPnl           string    `json:"dayPnl"`
	DayPnlPercentage string    `json:"dayPnlPercentage"`
	IsLoss           bool      `json:"isLoss"`
	Exchange         string    `json:"exchange"`
	Instrument       string    `json:"instrument"`
	LastUpdated      time.Time `json:"lastUpdated"`
	UsingFallback    bool      `json:"usingFallback,omitempty"`
}

type PositionsResponse struct {
	Success     bool              `json:"success"`
	Data        []PositionPayload `json:"data"`
	Summary     PositionsSummary  `json:"summary"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

type PositionsSummary struct {
	TotalInvestment    string `json:"totalInvestment"`
	TotalCurrentValue  string `json:"totalCurrentValue"`
	TotalPnl           string `json:"totalPnl"`
	TotalPnlPercentage string `json:"totalPnlPercentage"`
	DayPnl             string `json:"dayPnl"`
}

type SquareOffRequest struct {
	Symbol string           `json:"symbol" validate:"required"`
	Price  *decimal.Decimal `json:"price,omitempty"`
}

type SquareOffResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    SquareOffPayload `json:"data"`
}

type SquareOffPayload struct {
	Symbol         string `json:"symbol"`
	Quantity       int64  `json:"quantity"`
	AveragePrice   string `json:"averagePrice"`
	SquareOffPrice string `json:"squareOffPrice"`
	Pnl            string `json:"pnl"`
	PnlPercentage  string `json:"pnlPercentage"`
}

type AddFundsRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentRef  string          `json:"paymentReference,omitempty"`
	Description string          `json:"description,omitempty"`
}

type WithdrawFundsRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description,omitempty"`
}

type FundsBreakdown struct {
	TotalAdded      string `json:"totalAdded"`
	TotalWithdrawn  string `json:"totalWithdrawn"`
	TotalInvestment string `json:"totalInvestment"`
}

type LedgerEntryPayload struct {
	Id          string    `json:"id"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	PaymentRef  string    `json:"paymentReference,omitempty"`
	Status      string    `json:"status"`
}

type FundsResponse struct {
	Success bool         `json:"success"`
	Data    FundsPayload `json:"data"`
}

type FundsPayload struct {
	TotalFunds       string               `json:"totalFunds"`
	AvailableBalance string               `json:"availableBalance"`
	InvestedAmount   string               `json:"investedAmount"`
	Breakdown        FundsBreakdown       `json:"fundsBreakdown"`
	History          []LedgerEntryPayload `json:"fundsHistory"`
}

type FundsMutationResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    FundsMutationPayload `json:"data"`
}

type FundsMutationPayload struct {
	Amount           string `json:"amount"`
	TotalFunds       string `json:"totalFunds"`
	AvailableBalance string `json:"availableBalance"`
	TransactionId    string `json:"transactionId"`
}

type SummaryResponse struct {
	Success         bool      `json:"success"`
	UserName        string    `json:"userName"`
	UserId          int64     `json:"userId"`
	MarginAvailable string    `json:"marginAvailable"`
	MarginUsed      string    `json:"marginUsed"`
	HoldingsCount   int       `json:"holdingsCount"`
	TotalInvested   string    `json:"totalInvested"`
	CurrentValue    string    `json:"currentValue"`
	Pnl             string    `json:"pnl"`
	PnlPercent      string    `json:"pnlPercent"`
	IsLoss          bool      `json:"isLoss"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

type WatchlistAddRequest struct {
	Name          string          `json:"name" validate:"required"`
	Symbol        string          `json:"symbol" validate:"required"`
	FallbackPrice decimal.Decimal `json:"fallbackPrice,omitempty"`
}

type WatchlistItemPayload struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	CurrentPrice  string `json:"currentPrice"`
	Change        string `json:"change"`
	PercentChange string `json:"percentChange"`
	IsLoss        bool   `json:"isLoss"`
	UsingFallback bool   `json:"usingFallback"`
}

type WatchlistResponse struct {
	Success bool                   `json:"success"`
	Data    []WatchlistItemPayload `json:"data"`
}

type IndexPayload struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Value         string `json:"value"`
	Change        string `json:"change"`
	PercentChange string `json:"percentChange"`
	UsingFallback bool   `json:"usingFallback"`
}

type IndicesResponse struct {
	Success bool           `json:"success"`
	Data    []IndexPayload `json:"data"`
}

type SymbolMatchPayload struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

type SearchResponse struct {
	Success bool                 `json:"success"`
	Data    []SymbolMatchPayload `json:"data"`
}

type PriceResponse struct {
	Success       bool   `json:"success"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	PercentChange string `json:"percentChange"`
	UsingFallback bool   `json:"usingFallback"`
}

type CreatePaymentIntentRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Currency string          `json:"currency,omitempty"`
}

type CreatePaymentIntentResponse struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentId string `json:"paymentIntentId"`
}

type PaymentIntentResponse struct {
	Success  bool      `json:"success"`
	Id       string    `json:"id"`
	Amount   string    `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
	Created  time.Time `json:"created"`
}
