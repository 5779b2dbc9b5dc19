package competitor

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// Feed holds competitor prices loaded from one or more CSV feeds.
type Feed struct {
	client *resty.Client
	prices *Static
	mu     sync.RWMutex
}

// feedLoadResult holds the result of loading a single feed
type feedLoadResult struct {
	index int
	rows  []models.CompetitorPrice
	err   error
}

// NewFeed creates an empty feed source.
func NewFeed(timeout time.Duration) *Feed {
	client := resty.New()
	client.SetTimeout(timeout)

	return &Feed{
		client: client,
		prices: NewStatic(nil),
	}
}

// Load fetches every source concurrently and replaces the current prices.
// Sources are http(s) URLs or local paths; gzip content is detected automatically.
// When several feeds carry the same product, the later feed wins.
func (f *Feed) Load(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		return fmt.Errorf("no feed sources provided")
	}

	resultChan := make(chan feedLoadResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			rows, err := f.loadSource(ctx, source)
			resultChan <- feedLoadResult{
				index: index,
				rows:  rows,
				err:   err,
			}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]feedLoadResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	var merged []models.CompetitorPrice
	for i, result := range results {
		if result.err != nil {
			return fmt.Errorf("failed to load feed %s: %w", sources[i], result.err)
		}
		merged = append(merged, result.rows...)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices = NewStatic(merged)

	return nil
}

func (f *Feed) loadSource(ctx context.Context, source string) ([]models.CompetitorPrice, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := f.client.R().SetContext(ctx).Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to download feed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
		}
		return ParseFeed(bytes.NewReader(resp.Body()))
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	defer file.Close()

	return ParseFeed(file)
}

// ParseFeed reads "product_id,price[,competitor_name]" records.
// A leading header row is skipped and gzip input is decompressed.
func ParseFeed(r io.Reader) ([]models.CompetitorPrice, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		return parseRecords(gz)
	}
	return parseRecords(br)
}

func parseRecords(r io.Reader) ([]models.CompetitorPrice, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []models.CompetitorPrice
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading feed: %w", err)
		}

		id := strings.TrimSpace(record[0])
		if line == 1 && strings.EqualFold(id, "product_id") {
			continue
		}
		if len(record) < 2 || id == "" {
			return nil, fmt.Errorf("line %d: expected product_id and price", line)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("line %d: invalid price %q", line, record[1])
		}

		row := models.CompetitorPrice{ProductID: id, Price: price}
		if len(record) > 2 {
			row.CompetitorName = strings.TrimSpace(record[2])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (f *Feed) Lookup(ctx context.Context, productID string) (*float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.prices.Lookup(ctx, productID)
}

func (f *Feed) List(ctx context.Context) ([]models.CompetitorPrice, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.prices.List(ctx)
}

func (f *Feed) ProductIDs(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.prices.ProductIDs(ctx)
}

// Stats summarizes the loaded feed.
func (f *Feed) Stats() map[string]interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return map[string]interface{}{
		"total_prices": len(f.prices.rows),
	}
}
