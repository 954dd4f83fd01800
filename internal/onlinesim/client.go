package onlinesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"simwatch/internal/models"
)

// Client talks to the OnlineSim HTTP API for a single (country, service)
// number pool. Availability and purchase are independent remote calls with
// no transactional guarantee between them: only the purchase response says
// whether a number was actually obtained.
type Client struct {
	apiKey  string
	baseURL string
	country int
	service string
	http    *http.Client
}

// New creates a marketplace client. Every remote call is bounded by timeout.
func New(apiKey, baseURL string, country int, service string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		country: country,
		service: service,
		http:    &http.Client{Timeout: timeout},
	}
}

type freeListResponse struct {
	Response json.RawMessage  `json:"response"`
	Numbers  []freeListNumber `json:"numbers"`
	Msg      string           `json:"msg"`
}

type freeListNumber struct {
	Number string  `json:"number"`
	Price  float64 `json:"price"`
}

type getNumResponse struct {
	Response json.RawMessage `json:"response"`
	TzID     int64           `json:"tzid"`
	Number   string          `json:"number"`
	Country  int             `json:"country"`
	Price    float64         `json:"price"`
	Msg      string          `json:"msg"`
}

type statsResponse struct {
	Response json.RawMessage              `json:"response"`
	Services map[string]statsServiceEntry `json:"services"`
	Msg      string                       `json:"msg"`
}

type statsServiceEntry struct {
	Count int     `json:"count"`
	Price float64 `json:"price"`
}

// CheckAvailability lists the numbers currently obtainable for the pool, in
// the order the API reports them. An empty pool yields an empty slice, not
// an error.
func (c *Client) CheckAvailability(ctx context.Context) ([]models.AvailabilityRecord, error) {
	body, err := c.get(ctx, "getFreePhoneList.php", url.Values{
		"country": {strconv.Itoa(c.country)},
		"service": {c.service},
	})
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}

	var resp freeListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("check availability: decode response: %w", err)
	}
	if err := apiError(resp.Response, resp.Msg); err != nil {
		if errors.Is(err, ErrSoldOut) {
			// A drained pool is the expected steady state.
			return nil, nil
		}
		return nil, fmt.Errorf("check availability: %w", err)
	}

	records := make([]models.AvailabilityRecord, 0, len(resp.Numbers))
	for _, n := range resp.Numbers {
		records = append(records, models.AvailabilityRecord{
			Number:  n.Number,
			Price:   n.Price,
			Country: c.country,
			Service: c.service,
		})
	}
	return records, nil
}

// Purchase buys one specific number. The remote account balance is debited
// on success. Success is judged solely by this response, never inferred from
// a prior availability check.
func (c *Client) Purchase(ctx context.Context, rec models.AvailabilityRecord) (models.PurchasedNumber, error) {
	body, err := c.get(ctx, "getNum.php", url.Values{
		"country": {strconv.Itoa(c.country)},
		"service": {c.service},
		"number":  {rec.Number},
	})
	if err != nil {
		return models.PurchasedNumber{}, fmt.Errorf("purchase %s: %w", rec.Number, err)
	}

	var resp getNumResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.PurchasedNumber{}, fmt.Errorf("purchase %s: decode response: %w", rec.Number, err)
	}
	if err := apiError(resp.Response, resp.Msg); err != nil {
		return models.PurchasedNumber{}, fmt.Errorf("purchase %s: %w", rec.Number, err)
	}
	if resp.TzID == 0 || resp.Number == "" {
		return models.PurchasedNumber{}, fmt.Errorf("purchase %s: unexpected response %s", rec.Number, body)
	}

	price := resp.Price
	if price == 0 {
		price = rec.Price
	}
	return models.PurchasedNumber{
		Number:        resp.Number,
		TransactionID: strconv.FormatInt(resp.TzID, 10),
		Price:         price,
		Country:       c.country,
		Service:       c.service,
		PurchasedAt:   time.Now().UTC(),
	}, nil
}

// Stats reports how many numbers the pool currently holds and their unit
// price. Used at startup to surface a bad key before the loop starts.
func (c *Client) Stats(ctx context.Context) (count int, price float64, err error) {
	body, err := c.get(ctx, "getNumbersStats.php", url.Values{
		"country": {strconv.Itoa(c.country)},
		"service": {c.service},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("pool stats: %w", err)
	}

	var resp statsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, fmt.Errorf("pool stats: decode response: %w", err)
	}
	if err := apiError(resp.Response, resp.Msg); err != nil {
		return 0, 0, fmt.Errorf("pool stats: %w", err)
	}

	entry, ok := resp.Services["service_"+c.service]
	if !ok {
		return 0, 0, nil
	}
	return entry.Count, entry.Price, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	params.Set("apikey", c.apiKey)
	req.URL.RawQuery = params.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransient, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, endpoint)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s: status %d", ErrAuth, endpoint, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s: status %d", ErrTransient, endpoint, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransient, endpoint, err)
	}
	return body, nil
}

// apiError maps the API's textual response words onto the error taxonomy.
// Numeric response codes ("1" or an integer) mean success.
func apiError(response json.RawMessage, msg string) error {
	if len(response) == 0 {
		return nil
	}
	var word string
	if err := json.Unmarshal(response, &word); err != nil {
		return nil
	}
	switch word {
	case "", "1":
		return nil
	case "NO_NUMBER":
		return ErrSoldOut
	case "ERROR_WRONG_KEY", "ERROR_NO_KEY", "ACCOUNT_BLOCKED":
		return ErrAuth
	case "ERROR_NO_BALANCE", "NO_BALANCE":
		return ErrNoBalance
	default:
		if msg != "" {
			return fmt.Errorf("api error %s: %s", word, msg)
		}
		return fmt.Errorf("api error %s", word)
	}
}
