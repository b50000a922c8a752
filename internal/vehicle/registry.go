package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RegistryRecord is what the government vehicle registry knows about a
// plate, used to auto-fill vehicle forms.
type RegistryRecord struct {
	Plate              string
	Make               string
	Model              string
	Year               int
	Color              string
	VIN                string
	FuelType           string
	EngineModel        string
	RegistrationExpiry string
}

// RegistryClient queries the data.gov.il datastore for vehicle records.
// Lookups are best-effort form fills: one request, no retries.
type RegistryClient struct {
	BaseURL    string
	ResourceID string
	HTTPClient *http.Client
}

// NewRegistryClient creates a registry client with a 10s request timeout.
func NewRegistryClient(baseURL, resourceID string) *RegistryClient {
	return &RegistryClient{
		BaseURL:    baseURL,
		ResourceID: resourceID,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// registryResponse mirrors the datastore_search envelope, Hebrew field names
// and all.
type registryResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []struct {
			MisparRechev json.Number `json:"mispar_rechev"`
			TozeretNm    string      `json:"tozeret_nm"`
			KinuyMishari string      `json:"kinuy_mishari"`
			ShnatYitzur  int         `json:"shnat_yitzur"`
			TzevaRechev  string      `json:"tzeva_rechev"`
			Misgeret     string      `json:"misgeret"`
			SugDelekNm   string      `json:"sug_delek_nm"`
			DegemManoa   string      `json:"degem_manoa"`
			TokefDt      string      `json:"tokef_dt"`
		} `json:"records"`
	} `json:"result"`
}

// Lookup fetches the registry record for a plate.
func (c *RegistryClient) Lookup(ctx context.Context, plate string) (*RegistryRecord, error) {
	normalized, err := NormalizePlate(plate)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("resource_id", c.ResourceID)
	q.Set("q", normalized)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("vehicle: registry request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vehicle: registry lookup %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vehicle: registry lookup %s: status %d", normalized, resp.StatusCode)
	}

	var parsed registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vehicle: decode registry response: %w", err)
	}
	if !parsed.Success || len(parsed.Result.Records) == 0 {
		return nil, fmt.Errorf("%w: registry has no record for %s", ErrNotFound, FormatPlate(normalized))
	}

	rec := parsed.Result.Records[0]
	return &RegistryRecord{
		Plate:              normalized,
		Make:               rec.TozeretNm,
		Model:              rec.KinuyMishari,
		Year:               rec.ShnatYitzur,
		Color:              rec.TzevaRechev,
		VIN:                rec.Misgeret,
		FuelType:           rec.SugDelekNm,
		EngineModel:        rec.DegemManoa,
		RegistrationExpiry: rec.TokefDt,
	}, nil
}
