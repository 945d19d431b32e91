// Package external resolves gene symbols to full gene identifiers through the
// HGNC REST API, with rate limiting, a circuit breaker and two cache tiers.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/phenorank/internal/domain"
)

// HGNCClient handles interactions with the HUGO Gene Nomenclature Committee (HGNC) API
type HGNCClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retries    int
	logger     *logrus.Logger
}

// HGNCDoc is one gene record of an HGNC fetch response.
type HGNCDoc struct {
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Status          string   `json:"status"`
	LocusType       string   `json:"locus_type"`
	PreviousSymbols []string `json:"prev_symbol"`
	AliasSymbols    []string `json:"alias_symbol"`
	HGNCID          string   `json:"hgnc_id"`
	EntrezID        string   `json:"entrez_id"`
	EnsemblGeneID   string   `json:"ensembl_gene_id"`
	UCSCID          string   `json:"ucsc_id"`
	Location        string   `json:"location"`
}

// HGNCResponse represents the JSON response structure from HGNC API
type HGNCResponse struct {
	Response struct {
		NumFound int       `json:"numFound"`
		Docs     []HGNCDoc `json:"docs"`
	} `json:"response"`
}

// statusError is a non-200 HGNC response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HGNC API returned status %d: %s", e.code, e.body)
}

// NewHGNCClient creates a new HGNC API client
func NewHGNCClient(config domain.HGNCConfig, logger *logrus.Logger) *HGNCClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://rest.genenames.org"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 3 // HGNC recommendation: 3 requests per second
	}

	return &HGNCClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   newBreaker("HGNC", logger),
		retries:   config.RetryCount,
		logger:    logger,
	}
}

// FetchGene returns the HGNC record whose approved, previous or alias symbol is
// symbol, trying them in that order. An unknown symbol is domain.ErrNotFound.
func (h *HGNCClient) FetchGene(ctx context.Context, symbol string) (*HGNCDoc, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("gene symbol cannot be empty")
	}

	for _, field := range []string{"symbol", "prev_symbol", "alias_symbol"} {
		resp, err := h.fetch(ctx, field, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch gene symbol %s: %w", symbol, err)
		}
		if len(resp.Response.Docs) > 0 {
			doc := resp.Response.Docs[0]
			if field != "symbol" {
				h.logger.WithFields(logrus.Fields{
					"gene_symbol":     symbol,
					"approved_symbol": doc.Symbol,
					"matched_on":      field,
				}).Debug("Resolved non-approved gene symbol")
			}
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("gene symbol %s: %w", symbol, domain.ErrNotFound)
}

// ResolveGene implements domain.GeneResolver. The Entrez id is the gene id.
func (h *HGNCClient) ResolveGene(ctx context.Context, symbol string) (domain.GeneIdentifier, error) {
	doc, err := h.FetchGene(ctx, symbol)
	if err != nil {
		return domain.GeneIdentifier{}, err
	}
	return doc.GeneIdentifier()
}

// GeneIdentifier converts the record into a validated domain identifier.
func (d *HGNCDoc) GeneIdentifier() (domain.GeneIdentifier, error) {
	return domain.NewGeneIdentifier(domain.GeneIdentifierFields{
		GeneID:     d.EntrezID,
		GeneSymbol: d.Symbol,
		HGNCID:     d.HGNCID,
		HGNCSymbol: d.Symbol,
		EntrezID:   d.EntrezID,
		EnsemblID:  d.EnsemblGeneID,
		UCSCID:     d.UCSCID,
	})
}

// fetch calls /fetch/{field}/{value} through the circuit breaker, retrying server
// errors.
func (h *HGNCClient) fetch(ctx context.Context, field, value string) (*HGNCResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		result, err := h.breaker.Execute(func() (interface{}, error) {
			return h.doFetch(ctx, field, value)
		})
		if err == nil {
			return result.(*HGNCResponse), nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < http.StatusInternalServerError {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (h *HGNCClient) doFetch(ctx context.Context, field, value string) (*HGNCResponse, error) {
	if err := h.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fetchURL := fmt.Sprintf("%s/fetch/%s/%s", h.baseURL, field, url.PathEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "phenorank/1.0")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	var hgncResponse HGNCResponse
	if err := json.Unmarshal(body, &hgncResponse); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &hgncResponse, nil
}
