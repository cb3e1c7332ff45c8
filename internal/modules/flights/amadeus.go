package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tripgenie/internal/types"
)

const maxOffers = 5

// AmadeusSearcher queries the Amadeus Flight Offers Search API. Tokens are obtained
// with the client-credentials grant and cached until expiry by the oauth2 package.
type AmadeusSearcher struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger
}

func NewAmadeusSearcher(apiKey, apiSecret, baseURL string, timeout time.Duration, log *zap.Logger) *AmadeusSearcher {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     apiKey,
		ClientSecret: apiSecret,
		TokenURL:     baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	return &AmadeusSearcher{
		baseURL:    baseURL,
		httpClient: cc.Client(tokenCtx),
		timeout:    timeout,
		log:        log,
	}
}

func (s *AmadeusSearcher) Name() string { return "amadeus" }

type offersResponse struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Duration string `json:"duration"`
			Segments []struct {
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Departure   struct {
					At string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					At string `json:"at"`
				} `json:"arrival"`
			} `json:"segments"`
		} `json:"itineraries"`
		TravelerPricings []struct {
			FareDetailsBySegment []struct {
				Cabin string `json:"cabin"`
			} `json:"fareDetailsBySegment"`
		} `json:"travelerPricings"`
	} `json:"data"`
}

type apiErrors struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (s *AmadeusSearcher) Search(ctx context.Context, req SearchRequest) ([]FlightOption, error) {
	if err := req.validate(); err != nil {
		return nil, &APIError{Reason: ReasonInvalidRequest, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("originLocationCode", req.Origin)
	params.Set("destinationLocationCode", req.Destination)
	params.Set("departureDate", req.DepartDate)
	if req.ReturnDate != "" {
		params.Set("returnDate", req.ReturnDate)
	}
	params.Set("adults", strconv.Itoa(req.Adults))
	params.Set("travelClass", req.cabin())
	params.Set("currencyCode", types.DefaultCurrency)
	if req.NonStop {
		params.Set("nonStop", "true")
	}
	params.Set("max", strconv.Itoa(maxOffers))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/shopping/flight-offers?"+params.Encode(), nil)
	if err != nil {
		return nil, &APIError{Reason: ReasonInvalidRequest, Err: err}
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Reason: ReasonHTTPStatus, StatusCode: resp.StatusCode, Err: errors.New(apiErrorMessage(body))}
	}

	var or offersResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, &APIError{Reason: ReasonDecode, StatusCode: resp.StatusCode, Err: err}
	}

	out := make([]FlightOption, 0, len(or.Data))
	for i, item := range or.Data {
		if len(out) == maxOffers {
			break
		}
		if len(item.Itineraries) == 0 || len(item.Itineraries[0].Segments) == 0 {
			s.log.Debug("skipping flight offer without segments", zap.Int("index", i))
			continue
		}
		price, err := strconv.ParseFloat(item.Price.Total, 64)
		if err != nil {
			s.log.Debug("skipping flight offer with bad price", zap.Int("index", i), zap.String("total", item.Price.Total))
			continue
		}
		itin := item.Itineraries[0]
		first, last := itin.Segments[0], itin.Segments[len(itin.Segments)-1]
		cabin := req.cabin()
		if len(item.TravelerPricings) > 0 && len(item.TravelerPricings[0].FareDetailsBySegment) > 0 {
			cabin = item.TravelerPricings[0].FareDetailsBySegment[0].Cabin
		}
		currency := item.Price.Currency
		if currency == "" {
			currency = types.DefaultCurrency
		}
		out = append(out, FlightOption{
			Carrier:         first.CarrierCode,
			FlightNumber:    first.CarrierCode + first.Number,
			Price:           types.Money{Amount: price, Currency: currency},
			FareBasis:       FareOfferTotal,
			DepartureTime:   first.Departure.At,
			ArrivalTime:     last.Arrival.At,
			DurationMinutes: int(parseISODuration(itin.Duration) / time.Minute),
			Stops:           len(itin.Segments) - 1,
			CabinClass:      cabin,
		})
	}
	return out, nil
}

func classifyTransportError(ctx context.Context, err error) *APIError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Reason: ReasonTimeout, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &APIError{Reason: ReasonAuth, StatusCode: status, Err: err}
	}
	return &APIError{Reason: ReasonTransport, Err: err}
}

func apiErrorMessage(body []byte) string {
	var ae apiErrors
	if json.Unmarshal(body, &ae) == nil && len(ae.Errors) > 0 {
		e := ae.Errors[0]
		if e.Detail != "" {
			return e.Title + ": " + e.Detail
		}
		return e.Title
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?)?$`)

// parseISODuration understands the PnDTnHnM subset Amadeus returns; anything else is 0.
func parseISODuration(s string) time.Duration {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute}
	for i, u := range units {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		d += time.Duration(n) * u
	}
	return d
}
