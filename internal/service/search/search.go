package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/medremind/reminder-api/internal/models"
)

const MedicationIndex = "medications"

// Search runs a fuzzy multi-match over medication names and notes.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Medication, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "notes"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Medication `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	meds := make([]models.Medication, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		meds[i] = hit.Source
	}
	return r.Hits.Total.Value, meds, nil
}

// IndexMedication upserts one medication document.
func IndexMedication(ctx context.Context, es *elasticsearch.Client, index string, med *models.Medication) error {
	data, err := json.Marshal(med)
	if err != nil {
		return fmt.Errorf("index medication: %w", err)
	}
	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(med.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index medication: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index medication: %s", res.Status())
	}
	return nil
}

// DeleteMedication removes the document; a missing document is not an error.
func DeleteMedication(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete medication: %s", res.Status())
	}
	return nil
}
