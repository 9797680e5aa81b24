package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewESClient(cfg ESConfig) (*elasticsearch.Client, error) {
	slog.Info("es_connecting", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: create client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info returned %s: %s", res.Status(), body)
	}
	return client, nil
}

// ESIndexer copies audit entries into a search index.
type ESIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

type esDoc struct {
	*models.AuditLog
	Timestamp string `json:"@timestamp"`
}

func (x *ESIndexer) Record(ctx context.Context, entry *models.AuditLog) error {
	var buf bytes.Buffer
	doc := esDoc{AuditLog: entry, Timestamp: entry.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")}
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("es: encode audit entry: %w", err)
	}

	opts := []func(*esapi.IndexRequest){x.Client.Index.WithContext(ctx)}
	if entry.ID != 0 {
		opts = append(opts, x.Client.Index.WithDocumentID(strconv.FormatUint(uint64(entry.ID), 10)))
	}

	res, err := x.Client.Index(x.Index, &buf, opts...)
	if err != nil {
		return fmt.Errorf("es: index audit entry: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index audit entry: %s", res.Status())
	}
	return nil
}
