package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

// Province is a top-level administrative division.
type Province struct {
	Code      int        `json:"code"`
	Name      string     `json:"name"`
	Codename  string     `json:"codename"`
	PhoneCode int        `json:"phone_code"`
	Districts []District `json:"districts,omitempty"`
}

// District is a second-level division, optionally with its wards.
type District struct {
	Code         int    `json:"code"`
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	ProvinceCode int    `json:"province_code"`
	Wards        []Ward `json:"wards,omitempty"`
}

// Ward is the smallest administrative unit.
type Ward struct {
	Code         int    `json:"code"`
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	DistrictCode int    `json:"district_code"`
}

// Client calls the public administrative-divisions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a lookup client from the configured base URL and timeout.
func NewClient(cfg config.LocationsConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("locations base url required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// ListProvinces returns every province without nested divisions.
func (c *Client) ListProvinces(ctx context.Context) ([]Province, error) {
	var provinces []Province
	if err := c.getJSON(ctx, "/p/", &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

// GetProvince returns one province with its districts.
func (c *Client) GetProvince(ctx context.Context, code int) (*Province, error) {
	var province Province
	if err := c.getJSON(ctx, fmt.Sprintf("/p/%d?depth=2", code), &province); err != nil {
		return nil, err
	}
	return &province, nil
}

// GetDistrict returns one district with its wards.
func (c *Client) GetDistrict(ctx context.Context, code int) (*District, error) {
	var district District
	if err := c.getJSON(ctx, fmt.Sprintf("/d/%d?depth=2", code), &district); err != nil {
		return nil, err
	}
	return &district, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building locations request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locations service unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("locations service returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding locations response")
	}
	return nil
}
