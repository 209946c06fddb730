package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/quantfolio/internal/contracts"
	"github.com/wonny/quantfolio/pkg/httputil"
	"github.com/wonny/quantfolio/pkg/logger"
)

// DefaultYahooBaseURL Yahoo Finance chart API host
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient downloads daily closes from the Yahoo Finance v8 chart API
// ⭐ SSOT: Yahoo 시세 API 호출은 이 클라이언트에서만
type YahooClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewYahooClient creates a new Yahoo chart client
func NewYahooClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// chartResponse is the subset of the v8 chart payload we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchCloses returns adjusted daily closes for ticker over period
// null 종가는 건너뜀, 날짜는 거래소 현지 날짜 (UTC 자정)
func (c *YahooClient) FetchCloses(ctx context.Context, ticker string, period string) ([]contracts.Bar, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	params.Set("includeAdjustedClose", "true")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	bars, err := parseChart(&resp)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"period": period,
		"count":  len(bars),
	}).Debug("Fetched closes")

	return bars, nil
}

// parseChart converts a chart payload into ascending dated closes
func parseChart(resp *chartResponse) ([]contracts.Bar, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart result", contracts.ErrInsufficientData)
	}

	result := resp.Chart.Result[0]

	// adjclose 우선, 없으면 close
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("%w: %d closes for %d timestamps", contracts.ErrMisaligned, len(closes), len(result.Timestamp))
	}

	offset := time.Duration(result.Meta.GMTOffset) * time.Second
	bars := make([]contracts.Bar, 0, len(closes))
	for i, ts := range result.Timestamp {
		v := closes[i]
		if v == nil || *v <= 0 || math.IsNaN(*v) {
			continue
		}
		local := time.Unix(ts, 0).UTC().Add(offset)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		// 같은 날 중복 (장중 마지막 봉) → 마지막 값
		if n := len(bars); n > 0 && bars[n-1].Date.Equal(day) {
			bars[n-1].Close = *v
			continue
		}
		bars = append(bars, contracts.Bar{Date: day, Close: *v})
	}

	return bars, nil
}
