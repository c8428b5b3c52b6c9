package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gql "github.com/hasura/go-graphql-client"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	"github.com/ons3/Pfe-Project-Final/internal/domain/query"
	portexecutor "github.com/ons3/Pfe-Project-Final/internal/port/executor"
)

var _ portexecutor.Executor = (*Client)(nil)

// Client executes GraphQL operations over HTTP POST and classifies every
// failure into a fetch error kind.
type Client struct {
	gql *gql.Client
}

// NewClient returns a client for endpoint. An empty token sends no
// Authorization header; a nil httpClient uses http.DefaultClient's settings.
func NewClient(endpoint, token string, httpClient *http.Client) *Client {
	hc := http.Client{}
	if httpClient != nil {
		hc = *httpClient
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = recordingTransport{next: next}

	c := gql.NewClient(endpoint, &hc)
	if token != "" {
		c = c.WithRequestModifier(func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
	}
	return &Client{gql: c}
}

func (c *Client) Execute(ctx context.Context, q query.Descriptor, vars map[string]any, out any) error {
	op := q.OperationName()
	if vars == nil {
		vars = map[string]any{}
	}

	ex := &exchange{}
	data, err := c.gql.ExecRaw(context.WithValue(ctx, exchangeKey{}, ex), q.Document(), vars, gql.OperationName(op))
	if err != nil {
		return classify(ctx, op, ex, err)
	}
	if len(data) == 0 || string(data) == "null" {
		return fetch.ProtocolError(op, "response has no data", nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fetch.ProtocolError(op, "data does not match the selection", err)
	}
	return nil
}

// classify maps a client error onto the fetch taxonomy. The recorded HTTP
// exchange decides between transport and server failures; the library's
// error codes tell undecodable bodies apart from errors the server reported.
func classify(ctx context.Context, op string, ex *exchange, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return fetch.CancelledError(op, ctxErr)
	}
	if ex.err != nil {
		return fetch.NetworkError(op, ex.err)
	}

	var errs gql.Errors
	isGQL := errors.As(err, &errs)
	if ex.status != 0 && ex.status != http.StatusOK {
		if msgs := serverMessages(errs); isGQL && len(msgs) > 0 {
			return fetch.ServerError(op, msgs...)
		}
		return fetch.ServerError(op, fmt.Sprintf("unexpected HTTP status %d", ex.status))
	}
	if !isGQL {
		return fetch.NetworkError(op, err)
	}
	for _, e := range errs {
		switch errorCode(e) {
		case gql.ErrJsonDecode, gql.ErrGraphQLDecode:
			return fetch.ProtocolError(op, "malformed response body", e)
		case gql.ErrRequestError:
			return fetch.NetworkError(op, e)
		}
	}
	// Partial results are not accepted: any reported error fails the whole
	// operation.
	return fetch.ServerError(op, serverMessages(errs)...)
}

// serverMessages returns the messages of errors the server reported, leaving
// out those the client library raised itself.
func serverMessages(errs gql.Errors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		switch errorCode(e) {
		case gql.ErrRequestError, gql.ErrJsonEncode, gql.ErrJsonDecode, gql.ErrGraphQLEncode, gql.ErrGraphQLDecode:
			continue
		}
		out = append(out, message(e))
	}
	return out
}

func errorCode(e gql.Error) string {
	code, _ := e.Extensions["code"].(string)
	return code
}

func message(e gql.Error) string {
	if len(e.Path) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = fmt.Sprint(p)
	}
	return e.Message + " (at " + strings.Join(parts, ".") + ")"
}

type exchangeKey struct{}

// exchange is what the transport saw for one request.
type exchange struct {
	status int
	err    error
}

// recordingTransport notes the status code or transport error of each round
// trip in the exchange carried by the request context.
type recordingTransport struct {
	next http.RoundTripper
}

func (t recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(r)
	if ex, ok := r.Context().Value(exchangeKey{}).(*exchange); ok {
		ex.err = err
		if resp != nil {
			ex.status = resp.StatusCode
		}
	}
	return resp, err
}
