package elasticsearch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	status   int
	body     string
	requests []*http.Request
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func TestSearchIDs(t *testing.T) {
	ft := &fakeTransport{
		status: http.StatusOK,
		body:   `{"hits":{"total":{"value":2},"hits":[{"_id":"12"},{"_id":"7"}]}}`,
	}
	c, err := NewClientWithTransport(ft)
	require.NoError(t, err)

	ids, err := c.SearchIDs(context.Background(), "journal-entries", map[string]interface{}{"query": map[string]interface{}{}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "7"}, ids)
	require.Len(t, ft.requests, 1)
	assert.Contains(t, ft.requests[0].URL.Path, "/journal-entries/_search")
}

func TestDeleteDocument_NotFoundIsOK(t *testing.T) {
	ft := &fakeTransport{status: http.StatusNotFound, body: `{"result":"not_found"}`}
	c, err := NewClientWithTransport(ft)
	require.NoError(t, err)

	assert.NoError(t, c.DeleteDocument(context.Background(), "journal-entries", "3"))
}

func TestIndexDocument_Error(t *testing.T) {
	ft := &fakeTransport{status: http.StatusBadRequest, body: `{"error":"mapper_parsing_exception"}`}
	c, err := NewClientWithTransport(ft)
	require.NoError(t, err)

	err = c.IndexDocument(context.Background(), "journal-entries", "3", map[string]string{"title": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}
