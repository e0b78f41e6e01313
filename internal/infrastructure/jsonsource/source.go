package jsonsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// Source reads products from a scraper or database export: a JSON array of
// product objects, or an object wrapping that array under "products".
type Source struct {
	path string
}

// New creates a source over the JSON file at path.
func New(path string) *Source {
	return &Source{path: path}
}

// ListProducts reads and decodes the whole file.
func (s *Source) ListProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open product file: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return records, nil
}

// rawProduct accepts the field spellings seen in exports.
type rawProduct struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Brand     string          `json:"brand"`
	Img       json.RawMessage `json:"img"`
	ImageURL  json.RawMessage `json:"imageUrl"`
	Image     json.RawMessage `json:"image"`
	UpdatedAt string          `json:"updatedAt"`
}

// Decode parses product records from r.
func Decode(r io.Reader) ([]domain.ProductRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty product file", domain.ErrInvalidRequest)
	}

	var raw []rawProduct
	if trimmed[0] == '{' {
		var wrapped struct {
			Products []rawProduct `json:"products"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		raw = wrapped.Products
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	records := make([]domain.ProductRecord, 0, len(raw))
	for i, p := range raw {
		id := decodeID(p.ID)
		if id == "" {
			id = decodeID(p.MongoID)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: product #%d has no id", domain.ErrInvalidRequest, i)
		}

		name := p.Name
		if strings.TrimSpace(name) == "" {
			name = p.Title
		}

		record := domain.ProductRecord{
			ID:       id,
			Name:     name,
			Category: p.Category,
			Brand:    p.Brand,
			ImageFields: domain.ImageFields{
				Primary: decodeText(p.Img),
				AliasA:  decodeText(p.ImageURL),
				AliasB:  decodeText(p.Image),
			},
		}
		if p.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, p.UpdatedAt); err == nil {
				record.UpdatedAt = t
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// decodeID accepts a string, a number, or a Mongo extended-JSON {"$oid": ".."}.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return strings.TrimSpace(oid.OID)
	}

	return ""
}

// decodeText keeps string values as-is. JSON null and non-string values
// become empty so the image resolver treats them as missing.
func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
