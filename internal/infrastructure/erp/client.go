// Package erp implements the SOAP client for the back-office 1C-style
// stock service. The service speaks SOAP 1.1 but returns its payloads as
// JSON strings inside the response element.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/infrastructure/config"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 50 * 1024 * 1024 // 50MB max response

// StockLine is one row of the ERP stock and price report.
type StockLine struct {
	GoodsID  string
	Name     string
	Article  string
	Code     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Client talks to the ERP stock endpoint with basic auth and bounded
// retries on transport failures.
type Client struct {
	cfg        config.ERPConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ERP client from configuration.
func NewClient(cfg config.ERPConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// stockRow mirrors the JSON rows the ERP report returns. Field names are
// fixed by the 1C configuration.
type stockRow struct {
	GoodsID  string          `json:"Номенклатура"`
	Name     string          `json:"НоменклатураНаименование"`
	Article  string          `json:"Артикул"`
	Code     string          `json:"НоменклатураКод"`
	Quantity decimal.Decimal `json:"КоличествоОстаток"`
	Price    decimal.Decimal `json:"Цена"`
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Return string `xml:"return"`
		} `xml:"getPricesAndRestsResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	Reason string `xml:"faultstring"`
}

const stockRequestTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ws="http://wsproduct.ru">
  <soap:Body>
    <ws:getPricesAndRests>
      <ws:GUID_Store>%s</ws:GUID_Store>
      <ws:AllGoods>true</ws:AllGoods>
      <ws:SN_Level>true</ws:SN_Level>
    </ws:getPricesAndRests>
  </soap:Body>
</soap:Envelope>`

// GetStock fetches the stock report for every warehouse and merges the
// result. Lines with no article or priced below the configured floor are
// dropped; lines of the same goods at the same price are summed.
func (c *Client) GetStock(ctx context.Context, warehouseIDs []string) ([]StockLine, error) {
	var all []stockRow
	for _, id := range warehouseIDs {
		rows, err := c.fetchWarehouse(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("stock report for warehouse %s: %w", id, err)
		}
		all = append(all, rows...)
	}
	return c.consolidate(all), nil
}

func (c *Client) fetchWarehouse(ctx context.Context, warehouseID string) ([]stockRow, error) {
	body := fmt.Sprintf(stockRequestTemplate, warehouseID)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		payload, err := c.call(ctx, body)
		if err == nil {
			var rows []stockRow
			if err := json.Unmarshal([]byte(payload), &rows); err != nil {
				return nil, fmt.Errorf("stock report is not valid JSON: %w", err)
			}
			return rows, nil
		}
		lastErr = err
		c.logger.Warn("ERP request failed",
			zap.String("warehouse", warehouseID),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err))
		if attempt < c.cfg.MaxRetries {
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// call performs one SOAP round trip and extracts the JSON payload string.
func (c *Client) call(ctx context.Context, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WSDLURL, bytes.NewBufferString(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://wsproduct.ru#getPricesAndRests")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		// SOAP faults come back as 500 with an envelope; anything else is
		// a transport-level failure.
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope soapEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("malformed SOAP envelope: %w", err)
	}
	if envelope.Body.Fault != nil {
		return "", fmt.Errorf("SOAP fault %s: %s", envelope.Body.Fault.Code, envelope.Body.Fault.Reason)
	}
	return envelope.Body.Response.Return, nil
}

// consolidate drops unusable lines and merges duplicates. The report
// repeats a goods entry per serial-number level; quantities of the same
// goods at the same price are summed into one line.
func (c *Client) consolidate(rows []stockRow) []StockLine {
	minPrice := decimal.NewFromInt(c.cfg.MinPrice)

	type key struct {
		goodsID string
		price   string
	}
	index := make(map[key]int)
	var out []StockLine

	for _, row := range rows {
		if row.Article == "" {
			continue
		}
		if row.Price.LessThan(minPrice) {
			continue
		}
		k := key{goodsID: row.GoodsID, price: row.Price.String()}
		if i, ok := index[k]; ok {
			out[i].Quantity = out[i].Quantity.Add(row.Quantity)
			continue
		}
		index[k] = len(out)
		out = append(out, StockLine{
			GoodsID:  row.GoodsID,
			Name:     row.Name,
			Article:  row.Article,
			Code:     row.Code,
			Quantity: row.Quantity,
			Price:    row.Price,
		})
	}
	return out
}
