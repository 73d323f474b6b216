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

// AirtableAdapter drains an Airtable table used as an inbound queue:
// every record is converted to a Post and then deleted, mirroring the
// teacher's queue-table conventions for externally-fed content.
type AirtableAdapter struct {
	cfg    config.AirtableConfig
	client *http.Client
}

func NewAirtableAdapter(cfg config.AirtableConfig) *AirtableAdapter {
	return &AirtableAdapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *AirtableAdapter) Name() string { return "airtable" }

type airtableListResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

type airtableRecord struct {
	ID          string          `json:"id"`
	CreatedTime time.Time       `json:"createdTime"`
	Fields      json.RawMessage `json:"fields"`
}

type airtableFields struct {
	Account string `json:"Account"`
	Content string `json:"Content"`
	Link    string `json:"Link"`
	Source  string `json:"Source"`
	ID      any    `json:"Id"`
}

func (a *AirtableAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	var failures []error
	offset := ""
	for {
		resp, err := a.listPage(ctx, offset)
		if err != nil {
			failures = append(failures, fmt.Errorf("airtable: listing records: %w", err))
			break
		}

		for _, rec := range resp.Records {
			var fields airtableFields
			if err := json.Unmarshal(rec.Fields, &fields); err != nil {
				continue
			}
			if fields.Account == "" || fields.Content == "" || fields.Link == "" || fields.Source == "" || fields.ID == nil {
				continue
			}

			p := &models.Post{
				Source:      fields.Source,
				SourceID:    fmt.Sprint(fields.ID),
				User:        fields.Account,
				URL:         fields.Link,
				CreatedAt:   rec.CreatedTime,
				FetchedAt:   time.Now().UTC(),
				ContentHTML: fields.Content,
				ContentTxt:  fields.Content,
				Raw:         string(rec.Fields),
			}
			if err := persistOne(ctx, st, p, onPost); err != nil {
				failures = append(failures, fmt.Errorf("airtable: persisting record %s: %w", rec.ID, err))
			}
			if err := a.deleteRecord(ctx, rec.ID); err != nil {
				failures = append(failures, fmt.Errorf("airtable: deleting record %s: %w", rec.ID, err))
			}
		}

		if resp.Offset == "" {
			break
		}
		offset = resp.Offset
	}

	if len(failures) > 0 {
		return models.NewFetchError("airtable", failures)
	}
	return nil
}

func (a *AirtableAdapter) listPage(ctx context.Context, offset string) (*airtableListResponse, error) {
	endpoint := fmt.Sprintf("https://api.airtable.com/v0/%s/%s", a.cfg.BaseID, a.cfg.TableID)
	if offset != "" {
		endpoint += "?offset=" + offset
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out airtableListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AirtableAdapter) deleteRecord(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("https://api.airtable.com/v0/%s/%s/%s", a.cfg.BaseID, a.cfg.TableID, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
