package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Exporter ships rollup buckets somewhere external.
type Exporter interface {
	Export(ctx context.Context, buckets []Bucket) error
	Close() error
}

// JSONExporter writes indented JSON to a writer.
type JSONExporter struct{ w io.Writer }

func NewJSONExporter(w io.Writer) *JSONExporter { return &JSONExporter{w: w} }

func (e *JSONExporter) Export(_ context.Context, buckets []Bucket) error {
	data, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(data, '\n'))
	return err
}

func (e *JSONExporter) Close() error { return nil }

// CSVExporter writes one row per bucket with a header line.
type CSVExporter struct{ w io.Writer }

func NewCSVExporter(w io.Writer) *CSVExporter { return &CSVExporter{w: w} }

func (e *CSVExporter) Export(_ context.Context, buckets []Bucket) error {
	cw := csv.NewWriter(e.w)
	if err := cw.Write([]string{"period", "key", "start", "end", "points", "awards"}); err != nil {
		return err
	}
	for _, b := range buckets {
		row := []string{
			string(b.Period),
			b.Key,
			b.StartTime.Format(time.RFC3339),
			b.EndTime.Format(time.RFC3339),
			strconv.Itoa(b.Points),
			strconv.Itoa(b.Awards),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *CSVExporter) Close() error { return nil }

// HTTPExporter POSTs buckets as JSON to an external endpoint.
type HTTPExporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPExporter(endpoint, apiKey string) *HTTPExporter {
	return &HTTPExporter{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *HTTPExporter) Export(ctx context.Context, buckets []Bucket) error {
	if len(buckets) == 0 {
		return nil
	}
	payload, err := json.Marshal(buckets)
	if err != nil {
		return fmt.Errorf("marshal rollup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send rollup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rollup export returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (e *HTTPExporter) Close() error { return nil }

// MultiExporter fans buckets out to several exporters, stopping on the first
// failure.
type MultiExporter struct{ exporters []Exporter }

func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

func (e *MultiExporter) Export(ctx context.Context, buckets []Bucket) error {
	for _, exp := range e.exporters {
		if err := exp.Export(ctx, buckets); err != nil {
			return fmt.Errorf("export via %T: %w", exp, err)
		}
	}
	return nil
}

func (e *MultiExporter) Close() error {
	var lastErr error
	for _, exp := range e.exporters {
		if err := exp.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
