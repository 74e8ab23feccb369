package ministry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
)

// RemoteRecord is one record from the ministry read API, already translated
// into the local field vocabulary. Key is the local entity id.
type RemoteRecord struct {
	Key    string
	Fields map[string]string
}

// listBody is the envelope the ministry read API wraps record lists in.
type listBody struct {
	Datos []map[string]any `json:"datos"`
	Total int              `json:"total"`
}

// FetchRecords lists the ministry's records for one entity type in one
// academic period. Remote field names (estado, nota_numerica, ...) are
// mapped back into the local vocabulary before returning, so callers diff
// against local records without knowing the ministry's naming.
func (c *Client) FetchRecords(ctx context.Context, entityType, periodID string) ([]RemoteRecord, error) {
	path, err := EndpointFor(entityType)
	if err != nil {
		return nil, err
	}

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, apperrors.Wrap(err, "build ministry endpoint url")
	}
	endpoint += "?periodo=" + url.QueryEscape(periodID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "build ministry request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("ministry read api: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("ministry read api returned %d", resp.StatusCode))
	}

	var body listBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrap(err, "decode ministry response")
	}

	records := make([]RemoteRecord, 0, len(body.Datos))
	for _, raw := range body.Datos {
		rec := LocalizeRecord(entityType, raw)
		if rec.Key == "" {
			c.logger.WarnContext(ctx, "ministry record without id skipped",
				"entity_type", entityType,
				"period_id", periodID,
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
