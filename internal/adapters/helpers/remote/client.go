// Package remote implementa helpers.Registry contra el registry de perfiles externo.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/platform/httpclient"
)

var (
	ErrRegistryNotConfigured = errors.New("helper registry not configured")
	ErrRegistryUpstream      = errors.New("helper registry upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

type Client struct {
	http *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrRegistryNotConfigured
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		hc.WithHeader(h, key)
	}
	return &Client{http: hc}, nil
}

type profileDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Bio          string    `json:"bio"`
	RequestTypes []string  `json:"request_types"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Client) GetByID(ctx context.Context, id string) (helpers.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return helpers.Profile{}, apperrors.NotFound("helper profile")
	}
	return c.fetch(ctx, "/v1/helper-profiles/"+url.PathEscape(id))
}

func (c *Client) GetByUserID(ctx context.Context, userID string) (helpers.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return helpers.Profile{}, apperrors.NotFound("helper profile")
	}
	return c.fetch(ctx, "/v1/users/"+url.PathEscape(userID)+"/helper-profile")
}

func (c *Client) fetch(ctx context.Context, path string) (helpers.Profile, error) {
	var dto profileDTO
	err := c.http.Get(ctx, path, &dto)
	switch {
	case err == nil:
	case httpclient.IsStatus(err, http.StatusNotFound):
		return helpers.Profile{}, apperrors.NotFound("helper profile")
	default:
		return helpers.Profile{}, fmt.Errorf("%w: %v", ErrRegistryUpstream, err)
	}

	p := helpers.Profile{
		ID:           dto.ID,
		UserID:       dto.UserID,
		DisplayName:  dto.DisplayName,
		City:         dto.City,
		Country:      dto.Country,
		Bio:          dto.Bio,
		RequestTypes: make([]placement.RequestType, 0, len(dto.RequestTypes)),
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
	}
	// tipos desconocidos del upstream se ignoran
	for _, raw := range dto.RequestTypes {
		if t := placement.RequestType(strings.TrimSpace(raw)); t.Valid() {
			p.RequestTypes = append(p.RequestTypes, t)
		}
	}
	return p, nil
}
