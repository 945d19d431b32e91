package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenorank/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

const fgfr2Doc = `{"responseHeader":{"status":0},"response":{"numFound":1,"docs":[{
	"symbol":"FGFR2","name":"fibroblast growth factor receptor 2","status":"Approved",
	"hgnc_id":"HGNC:3689","entrez_id":"2263","ensembl_gene_id":"ENSG00000066468",
	"ucsc_id":"uc057wle.1","prev_symbol":["BEK","KGFR"],"alias_symbol":["CD332"],
	"location":"10q26.13"}]}}`

const emptyDoc = `{"responseHeader":{"status":0},"response":{"numFound":0,"docs":[]}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *HGNCClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHGNCClient(domain.HGNCConfig{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		RateLimit:  100,
		RetryCount: 2,
	}, testLogger())
}

func TestHGNCClient_ResolveGene(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		responses   map[string]string
		expectError error
		wantPaths   []string
	}{
		{
			name:      "approved symbol",
			symbol:    "FGFR2",
			responses: map[string]string{"/fetch/symbol/FGFR2": fgfr2Doc},
			wantPaths: []string{"/fetch/symbol/FGFR2"},
		},
		{
			name:   "previous symbol",
			symbol: "BEK",
			responses: map[string]string{
				"/fetch/symbol/BEK":      emptyDoc,
				"/fetch/prev_symbol/BEK": fgfr2Doc,
			},
			wantPaths: []string{"/fetch/symbol/BEK", "/fetch/prev_symbol/BEK"},
		},
		{
			name:   "alias symbol",
			symbol: "CD332",
			responses: map[string]string{
				"/fetch/symbol/CD332":       emptyDoc,
				"/fetch/prev_symbol/CD332":  emptyDoc,
				"/fetch/alias_symbol/CD332": fgfr2Doc,
			},
			wantPaths: []string{"/fetch/symbol/CD332", "/fetch/prev_symbol/CD332", "/fetch/alias_symbol/CD332"},
		},
		{
			name:   "unknown symbol",
			symbol: "NOTAGENE",
			responses: map[string]string{
				"/fetch/symbol/NOTAGENE":       emptyDoc,
				"/fetch/prev_symbol/NOTAGENE":  emptyDoc,
				"/fetch/alias_symbol/NOTAGENE": emptyDoc,
			},
			expectError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				paths = append(paths, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				body, ok := tt.responses[r.URL.Path]
				if !ok {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
			})

			id, err := client.ResolveGene(context.Background(), tt.symbol)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaths, paths)
			assert.Equal(t, "FGFR2", id.GeneSymbol())
			assert.Equal(t, "2263", id.GeneID())
			assert.Equal(t, 2263, id.EntrezIDAsInt())
			assert.Equal(t, "HGNC:3689", id.HGNCID())
			assert.Equal(t, "ENSG00000066468", id.EnsemblID())
			assert.Equal(t, "uc057wle.1", id.UCSCID())
		})
	}
}

func TestHGNCClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, fgfr2Doc)
	})

	id, err := client.ResolveGene(context.Background(), "FGFR2")
	require.NoError(t, err)
	assert.Equal(t, "FGFR2", id.GeneSymbol())
	assert.Equal(t, int32(2), calls.Load())
}

func TestHGNCClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.ResolveGene(context.Background(), "FGFR2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHGNCClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.retries = 0

	for i := 0; i < 5; i++ {
		_, err := client.ResolveGene(context.Background(), "FGFR2")
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), calls.Load(), "requests stop once the breaker is open")
}

func TestHGNCClient_EmptySymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.ResolveGene(context.Background(), "  ")
	assert.Error(t, err)
}

func TestHGNCClient_InvalidEntrezID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"numFound":1,"docs":[{"symbol":"ODD","entrez_id":"abc"}]}}`)
	})
	_, err := client.ResolveGene(context.Background(), "ODD")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}
