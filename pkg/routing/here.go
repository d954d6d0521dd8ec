package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/util"
)

const DefaultBaseURL = "https://transit.router.hereapi.com"

// Query is one routing request between two points.
// An empty Modes list lets the provider use every mode it knows.
type Query struct {
	Origin       ctdf.LatLng
	Destination  ctdf.LatLng
	Alternatives int
	Modes        []ctdf.TransportMode
}

// Constrained reports whether the query is limited to specific transport modes
func (q Query) Constrained() bool {
	return len(q.Modes) > 0
}

// StatusError is returned when the provider answers with a non 2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("routing provider returned status %d: %s", e.StatusCode, e.Body)
}

// HereClient talks to the HERE Public Transit v8 API
type HereClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewHereClient(apiKey string) *HereClient {
	return &HereClient{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
		Timeout:    20 * time.Second,
	}
}

func NewHereClientFromEnvironment() (*HereClient, error) {
	env := util.GetEnvironmentVariables()

	apiKey := env["TRAVIGO_HERE_API_KEY"]
	if apiKey == "" {
		return nil, fmt.Errorf("TRAVIGO_HERE_API_KEY must be set")
	}

	client := NewHereClient(apiKey)
	if env["TRAVIGO_HERE_BASE_URL"] != "" {
		client.BaseURL = strings.TrimSuffix(env["TRAVIGO_HERE_BASE_URL"], "/")
	}

	return client, nil
}

func (c *HereClient) requestURL(query Query) string {
	params := url.Values{}
	params.Set("origin", formatLatLng(query.Origin))
	params.Set("destination", formatLatLng(query.Destination))
	params.Set("alternatives", strconv.Itoa(query.Alternatives))
	params.Set("return", "polyline,intermediate,travelSummary")
	params.Set("apiKey", c.APIKey)

	if query.Constrained() {
		modes := make([]string, 0, len(query.Modes))
		for _, mode := range query.Modes {
			if hereMode := hereModeFor(mode); hereMode != "" {
				modes = append(modes, hereMode)
			}
		}
		params.Set("modes", strings.Join(modes, ","))
	}

	return fmt.Sprintf("%s/v8/routes?%s", c.BaseURL, params.Encode())
}

func (c *HereClient) Routes(ctx context.Context, query Query) ([]*ctdf.PlannedRoute, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read routing response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: util.TrimString(string(body), 200)}
	}

	var response hereResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode routing response: %w", err)
	}

	if len(response.Notices) > 0 {
		for _, notice := range response.Notices {
			log.Debug().Str("code", notice.Code).Str("title", notice.Title).Msg("Routing provider notice")
		}
	}

	return response.toCTDF(), nil
}

func formatLatLng(point ctdf.LatLng) string {
	return strconv.FormatFloat(point.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(point.Lng, 'f', -1, 64)
}

// hereModeFor maps our modes onto the HERE transit mode names
func hereModeFor(mode ctdf.TransportMode) string {
	switch mode {
	case ctdf.TransportModeBus:
		return "bus"
	case ctdf.TransportModeTram:
		return "lightRail"
	case ctdf.TransportModeTrain:
		return "regionalTrain"
	default:
		return ""
	}
}

// NormaliseMode turns a HERE section mode into the lowercase name live vehicles use
func NormaliseMode(hereMode string) string {
	switch strings.ToLower(hereMode) {
	case "bus", "busrapid", "privatebus":
		return ctdf.TransportModeBus.Lower()
	case "lightrail", "tram":
		return ctdf.TransportModeTram.Lower()
	case "regionaltrain", "citytrain", "intercitytrain", "interregionaltrain", "highspeedtrain", "subway", "monorail":
		return ctdf.TransportModeTrain.Lower()
	default:
		return hereMode
	}
}
