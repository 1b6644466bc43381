package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// defineAuditMapping returns the JSON mapping of the access audit index.
func defineAuditMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"kind":        map[string]interface{}{"type": "keyword"},
				"session_id":  map[string]interface{}{"type": "keyword"},
				"identity_id": map[string]interface{}{"type": "keyword"},
				"email":       map[string]interface{}{"type": "keyword"},
				"role":        map[string]interface{}{"type": "keyword"},
				"path":        map[string]interface{}{"type": "keyword"},
				"outcome":     map[string]interface{}{"type": "keyword"},
				"reason":      map[string]interface{}{"type": "text"},
				"request_id":  map[string]interface{}{"type": "keyword"},
				"at":          map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling audit mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateAuditIndexIfNotExists creates the audit index with its mapping if
// it does not already exist.
func CreateAuditIndexIfNotExists(ctx context.Context, client *ESClientWrapper, index string, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if audit index exists", zap.Error(err))
		return fmt.Errorf("error checking if audit index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Audit index already exists", zap.String("index_name", index))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Error checking if audit index exists, unexpected status",
			zap.String("status", res.Status()),
			zap.String("index_name", index),
		)
		return fmt.Errorf("error checking if audit index exists: status %s", res.Status())
	}

	mappingJSON, err := defineAuditMapping()
	if err != nil {
		log.Error("Failed to define audit mapping", zap.Error(err))
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating audit index", zap.Error(err), zap.String("index_name", index))
		return fmt.Errorf("error creating audit index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		log.Error("Failed to create audit index",
			zap.String("status", createRes.Status()),
			zap.Any("error_details", decodeError(createRes)),
			zap.String("index_name", index),
		)
		return fmt.Errorf("failed to create audit index %s: status %s", index, createRes.Status())
	}

	log.Info("Audit index created successfully", zap.String("index_name", index))
	return nil
}

// IndexDocument stores one JSON document in index.
func IndexDocument(ctx context.Context, client *ESClientWrapper, index string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := esapi.IndexRequest{
		Index: index,
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("index document in %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document in %s: status %s", index, res.Status())
	}
	return nil
}
