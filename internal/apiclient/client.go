// Package apiclient provides stateless entity clients for the mailing list REST API.
// Each client builds and issues JSON requests for one resource type and reports
// failures with a single error category.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	apiPathPrefix          = "/api"
	headerAccept           = "Accept"
	headerContentType      = "Content-Type"
	mediaTypeJSON          = "application/json"
	defaultRequestTimeout  = 10 * time.Second
	maxResponseBodyBytes   = 4 << 20
	logEventAPIRequest     = "api_request"
	logEventAPIRequestFail = "api_request_failed"

	errorMessageRequestFailed = "apiclient: request failed"
	errorMessageMissingBase   = "apiclient: missing base url"
	errorMessageInvalidBase   = "apiclient: invalid base url"
)

var (
	// ErrRequestFailed is wrapped by every error the entity clients return.
	ErrRequestFailed = errors.New(errorMessageRequestFailed)
	// ErrMissingBaseURL indicates the client configuration omitted the API base URL.
	ErrMissingBaseURL = errors.New(errorMessageMissingBase)
	// ErrInvalidBaseURL indicates the API base URL could not be parsed.
	ErrInvalidBaseURL = errors.New(errorMessageInvalidBase)
)

// RequestError describes a failed request. It always matches ErrRequestFailed.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (requestError *RequestError) Error() string {
	var builder strings.Builder
	builder.WriteString(errorMessageRequestFailed)
	builder.WriteString(": ")
	builder.WriteString(requestError.Method)
	builder.WriteString(" ")
	builder.WriteString(requestError.URL)
	if requestError.StatusCode != 0 {
		fmt.Fprintf(&builder, ": status %d", requestError.StatusCode)
	}
	if requestError.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(requestError.Err.Error())
	}
	return builder.String()
}

func (requestError *RequestError) Unwrap() []error {
	if requestError.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, requestError.Err}
}

// Config captures what every entity client needs to reach the API.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type transport struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newTransport(configuration Config) (*transport, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if trimmedBaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	parsedBaseURL, parseErr := url.Parse(trimmedBaseURL)
	if parseErr != nil || parsedBaseURL.Scheme == "" || parsedBaseURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, configuration.BaseURL)
	}

	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &transport{
		baseURL:    trimmedBaseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (client *transport) endpoint(segments ...string) string {
	escapedSegments := make([]string, 0, len(segments))
	for _, segment := range segments {
		escapedSegments = append(escapedSegments, url.PathEscape(segment))
	}
	return client.baseURL + apiPathPrefix + "/" + strings.Join(escapedSegments, "/")
}

// do issues one request and decodes a JSON response into destination when it is non-nil.
func (client *transport) do(ctx context.Context, method string, endpoint string, query url.Values, payload any, destination any) error {
	requestURL := endpoint
	if len(query) > 0 {
		requestURL = endpoint + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encodedPayload, encodeErr := json.Marshal(payload)
		if encodeErr != nil {
			return &RequestError{Method: method, URL: requestURL, Err: encodeErr}
		}
		body = bytes.NewReader(encodedPayload)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, requestURL, body)
	if requestErr != nil {
		return &RequestError{Method: method, URL: requestURL, Err: requestErr}
	}
	request.Header.Set(headerAccept, mediaTypeJSON)
	if payload != nil {
		request.Header.Set(headerContentType, mediaTypeJSON)
	}

	start := time.Now()
	response, responseErr := client.httpClient.Do(request)
	if responseErr != nil {
		client.logger.Warn(logEventAPIRequestFail,
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.Error(responseErr),
		)
		return &RequestError{Method: method, URL: requestURL, Err: responseErr}
	}
	defer response.Body.Close()

	client.logger.Debug(logEventAPIRequest,
		zap.String("method", method),
		zap.String("url", requestURL),
		zap.Int("status", response.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBodyBytes))
		client.logger.Warn(logEventAPIRequestFail,
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.Int("status", response.StatusCode),
		)
		return &RequestError{Method: method, URL: requestURL, StatusCode: response.StatusCode}
	}

	if destination == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBodyBytes))
		return nil
	}

	decodeErr := json.NewDecoder(io.LimitReader(response.Body, maxResponseBodyBytes)).Decode(destination)
	if decodeErr != nil {
		return &RequestError{Method: method, URL: requestURL, StatusCode: response.StatusCode, Err: decodeErr}
	}
	return nil
}
