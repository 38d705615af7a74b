package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stocksim/internal/simerror"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// YahooClient fetches monthly opening quotes from the Yahoo Finance chart
// endpoint. No API key is needed for historical chart data.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewYahooClient creates a new Yahoo quote client. Requests that exceed the
// timeout surface as ErrPriceUnavailable rather than as hard failures.
func NewYahooClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *YahooClient {
	return &YahooClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Open []*float64 `json:"open"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// MonthlyOpen returns the opening price of the first monthly candle at or
// after year-month. Every upstream failure mode (timeout, unknown symbol,
// missing candle, malformed body) maps to ErrPriceUnavailable.
func (c *YahooClient) MonthlyOpen(ctx context.Context, symbol string, year, month int) (decimal.Decimal, error) {
	if month < 1 || month > 12 {
		return decimal.Zero, fmt.Errorf("%w: month out of range: %d", simerror.ErrValidation, month)
	}

	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), url.Values{
		"period1":  []string{fmt.Sprintf("%d", periodStart.Unix())},
		"period2":  []string{fmt.Sprintf("%d", periodEnd.Unix())},
		"interval": []string{"1mo"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", simerror.ErrPriceUnavailable, symbol)
	}
	req.Header.Set("User-Agent", "stocksim/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"symbol": symbol, "year": year, "month": month}).
			WithError(err).Warn("quote request failed")
		return decimal.Zero, fmt.Errorf("%w: %s", simerror.ErrPriceUnavailable, symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{"symbol": symbol, "status": resp.StatusCode}).
			Warn("quote request returned non-OK status")
		return decimal.Zero, fmt.Errorf("%w: %s", simerror.ErrPriceUnavailable, symbol)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", simerror.ErrPriceUnavailable, symbol)
	}
	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", simerror.ErrPriceUnavailable, symbol)
	}

	quotes := chart.Chart.Result[0].Indicators.Quote
	if len(quotes) == 0 || len(quotes[0].Open) == 0 || quotes[0].Open[0] == nil {
		return decimal.Zero, fmt.Errorf("%w: no candle for %s %04d-%02d", simerror.ErrPriceUnavailable, symbol, year, month)
	}

	return decimal.NewFromFloat(*quotes[0].Open[0]), nil
}
