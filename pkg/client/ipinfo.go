package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type ipInfoResponse struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

// IPLocator guesses the caller's city from their public IP address.
type IPLocator struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

func NewIPLocator(endpoint string, timeout time.Duration, logger *zap.Logger) *IPLocator {
	if endpoint == "" {
		endpoint = "https://ipinfo.io/json"
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &IPLocator{
		client: client,
		url:    endpoint,
		logger: logger,
	}
}

// Locate returns the lower-cased city name of the current public IP.
func (l *IPLocator) Locate(ctx context.Context) (string, error) {
	var result ipInfoResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(l.url)
	if err != nil {
		return "", fmt.Errorf("%w: ip lookup: %v", models.ErrNetworkFailure, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: ip lookup: HTTP %d", models.ErrNetworkFailure, resp.StatusCode())
	}

	city := strings.ToLower(strings.TrimSpace(result.City))
	if city == "" {
		return "", models.ErrLocationUnresolved
	}

	l.logger.Debug("Resolved location from IP",
		zap.String("city", city),
		zap.String("country", result.Country))

	return city, nil
}
