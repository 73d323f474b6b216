package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// BaserowAdapter drains a Baserow table used the same way as the
// Airtable queue: one row per inbound Post, deleted after ingestion.
type BaserowAdapter struct {
	cfg    config.BaserowConfig
	client *http.Client
}

func NewBaserowAdapter(cfg config.BaserowConfig) *BaserowAdapter {
	return &BaserowAdapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *BaserowAdapter) Name() string { return "baserow" }

type baserowListResponse struct {
	Results []baserowRow `json:"results"`
	Next    *string      `json:"next"`
}

type baserowRow struct {
	ID        int64  `json:"id"`
	Account   string `json:"Account"`
	Content   string `json:"Content"`
	Link      string `json:"Link"`
	Source    string `json:"Source"`
	CreatedOn string `json:"created_on"`
}

func (a *BaserowAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	var failures []error
	endpoint := fmt.Sprintf("%s/api/database/rows/table/%s/?user_field_names=true&size=100",
		a.cfg.BaseURL, a.cfg.TableID)

	for endpoint != "" {
		resp, next, err := a.listPage(ctx, endpoint)
		if err != nil {
			failures = append(failures, fmt.Errorf("baserow: listing rows: %w", err))
			break
		}

		for _, row := range resp {
			if row.Account == "" || row.Content == "" || row.Link == "" || row.Source == "" {
				continue
			}
			createdAt, err := time.Parse(time.RFC3339, row.CreatedOn)
			if err != nil {
				createdAt = time.Now().UTC()
			}

			raw, _ := json.Marshal(row)
			p := &models.Post{
				Source:      row.Source,
				SourceID:    fmt.Sprint(row.ID),
				User:        row.Account,
				URL:         row.Link,
				CreatedAt:   createdAt,
				FetchedAt:   time.Now().UTC(),
				ContentHTML: row.Content,
				ContentTxt:  row.Content,
				Raw:         string(raw),
			}
			if err := persistOne(ctx, st, p, onPost); err != nil {
				failures = append(failures, fmt.Errorf("baserow: persisting row %d: %w", row.ID, err))
			}
			if err := a.deleteRow(ctx, row.ID); err != nil {
				failures = append(failures, fmt.Errorf("baserow: deleting row %d: %w", row.ID, err))
			}
		}

		if next == nil {
			break
		}
		endpoint = *next
	}

	if len(failures) > 0 {
		return models.NewFetchError("baserow", failures)
	}
	return nil
}

func (a *BaserowAdapter) listPage(ctx context.Context, endpoint string) ([]baserowRow, *string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Token "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out baserowListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, err
	}
	return out.Results, out.Next, nil
}

func (a *BaserowAdapter) deleteRow(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("%s/api/database/rows/table/%s/%d/", a.cfg.BaseURL, a.cfg.TableID, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
