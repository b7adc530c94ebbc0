// Package ledger owns the connection to the remote graph store.
//
// The adapter shapes query and transaction payloads and selects which key
// signs them; serialization details, signature verification, persistence and
// consensus live behind the endpoint and are out of scope.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shipledger/shipledger/internal/identity"
)

// HostConfig locates the ledger endpoint.
type HostConfig struct {
	Host string
	Port int
}

// DefaultHostConfig returns the local development endpoint.
func DefaultHostConfig() HostConfig {
	return HostConfig{Host: "http://localhost", Port: 8090}
}

// QuerySpec is the wire shape of one collection query:
// select one variable's fields (or "*") where the variable has a given type.
type QuerySpec struct {
	Select map[string][]string `json:"select"`
	Where  QueryWhere          `json:"where"`
}

// QueryWhere binds the selected variable to an entity type.
type QueryWhere struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

// CollectionQuery builds the spec for fetching every entity of one type.
// Pass no fields to select all of them.
func CollectionQuery(typeName string, fields ...string) QuerySpec {
	variable := "?" + strings.ToLower(typeName) + "s"
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	return QuerySpec{
		Select: map[string][]string{variable: fields},
		Where:  QueryWhere{ID: variable, Type: typeName},
	}
}

// CommitResult reports one accepted transaction.
type CommitResult struct {
	TxID      string    `json:"txId"`
	Committed time.Time `json:"committed"`
}

// defaultContext is the JSON-LD context the original client configured:
// reference fields are ids, items form a set, dates are xsd:dateTime.
// It rides along with every request envelope and is otherwise opaque.
var defaultContext = map[string]any{
	"id":            "@id",
	"type":          "@type",
	"xsd":           "http://www.w3.org/2001/XMLSchema#",
	"location":      map[string]any{"@type": "@id"},
	"company":       map[string]any{"@type": "@id"},
	"fromLocation":  map[string]any{"@type": "@id"},
	"toLocation":    map[string]any{"@type": "@id"},
	"initiatedBy":   map[string]any{"@type": "@id"},
	"items":         map[string]any{"@type": "@id", "@container": "@set"},
	"shippedDate":   map[string]any{"@type": "xsd:dateTime"},
	"deliveredDate": map[string]any{"@type": "xsd:dateTime"},
}

// Connection is one live, signed session against a named ledger. It is
// created per identity and replaced, never mutated, when the identity
// changes.
type Connection struct {
	baseURL    string
	ledgerName string
	key        identity.SigningKey
	httpClient *http.Client
	timeout    time.Duration
	released   bool
}

// Connect establishes a connection for one signing key. The dial itself is
// lazy; the first query or upsert touches the network.
func Connect(_ context.Context, key identity.SigningKey, ledgerName string, host HostConfig) (*Connection, error) {
	if strings.TrimSpace(ledgerName) == "" {
		return nil, fmt.Errorf("ledger: ledger name required")
	}
	if host.Host == "" {
		host = DefaultHostConfig()
	}
	base := strings.TrimRight(host.Host, "/")
	if host.Port > 0 {
		base = fmt.Sprintf("%s:%d", base, host.Port)
	}
	return &Connection{
		baseURL:    base,
		ledgerName: ledgerName,
		key:        key,
		httpClient: &http.Client{},
		timeout:    10 * time.Second,
	}, nil
}

// Key returns the signing key this connection was created for.
func (c *Connection) Key() identity.SigningKey { return c.key }

// Release closes the connection's idle transports. A released connection
// must not be used again; the registry hands out a fresh one instead.
func (c *Connection) Release() {
	if c.released {
		return
	}
	c.released = true
	c.httpClient.CloseIdleConnections()
}

type queryEnvelope struct {
	From    string              `json:"from"`
	Context map[string]any      `json:"@context"`
	Select  map[string][]string `json:"select"`
	Where   QueryWhere          `json:"where"`
	Opts    requestOpts         `json:"opts"`
}

type transactEnvelope struct {
	Ledger  string         `json:"ledger"`
	Context map[string]any `json:"@context"`
	Upsert  map[string]any `json:"upsert"`
	Opts    requestOpts    `json:"opts"`
}

type requestOpts struct {
	SignedBy string `json:"signedBy"`
}

// Query runs one collection query and decodes the record array into out.
func (c *Connection) Query(ctx context.Context, spec QuerySpec, out any) error {
	env := queryEnvelope{
		From:    c.ledgerName,
		Context: defaultContext,
		Select:  spec.Select,
		Where:   spec.Where,
		Opts:    requestOpts{SignedBy: c.key.DID},
	}
	body, err := c.post(ctx, "/fluree/query", "query", env)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &StoreError{Op: "query", Err: fmt.Errorf("decode records: %w", err)}
	}
	return nil
}

// Upsert submits one transactional patch: atomic commit or reject, signed by
// this connection's key.
func (c *Connection) Upsert(ctx context.Context, doc map[string]any) (CommitResult, error) {
	env := transactEnvelope{
		Ledger:  c.ledgerName,
		Context: defaultContext,
		Upsert:  doc,
		Opts:    requestOpts{SignedBy: c.key.DID},
	}
	body, err := c.post(ctx, "/fluree/transact", "upsert", env)
	if err != nil {
		return CommitResult{}, err
	}
	var result CommitResult
	if len(body) > 0 {
		// A commit ack with an undecodable body is still a commit.
		_ = json.Unmarshal(body, &result)
	}
	return result, nil
}

func (c *Connection) post(ctx context.Context, path, op string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StoreError{Op: op, Status: resp.StatusCode, Body: decodeErrorBody(body)}
	}
	return body, nil
}

// decodeErrorBody returns the structured body when the response carries one,
// nil otherwise. Callers fall back to the generic message on nil.
func decodeErrorBody(raw []byte) *ErrorBody {
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return nil
	}
	return &body
}
