package builder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/pagebuilder-site/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeResponse = `{
	"results": [{
		"id": "page-home",
		"name": "Home",
		"modelId": "model-page",
		"published": "published",
		"lastUpdated": 1700000000000,
		"data": {
			"title": "Home",
			"description": "Welcome",
			"image": "https://cdn.example.com/home.png",
			"url": "/",
			"blocks": [{
				"@type": "@builder.io/sdk:Element",
				"id": "builder-1",
				"component": {"name": "Text", "options": {"text": "<p>Hello</p>"}}
			}]
		}
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)
	return client
}

func TestClientGet_Success(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(homeResponse))
	})

	content, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/", Locale: "en-US"}, GetOptions{IncludeRefs: true, CacheBust: true})
	require.NoError(t, err)
	require.NotNil(t, content)

	assert.Equal(t, "/api/v3/content/page", gotPath)
	assert.Equal(t, []string{"test-key"}, gotQuery["apiKey"])
	assert.Equal(t, []string{"/"}, gotQuery["userAttributes.urlPath"])
	assert.Equal(t, []string{"en-US"}, gotQuery["userAttributes.locale"])
	assert.Equal(t, []string{"true"}, gotQuery["includeRefs"])
	assert.Equal(t, []string{"true"}, gotQuery["cachebust"])
	assert.Equal(t, []string{"1"}, gotQuery["limit"])

	assert.Equal(t, "page-home", content.ID)
	assert.Equal(t, "Home", content.Data.Title)
	assert.Equal(t, "Welcome", content.Data.Description)
	assert.Equal(t, "https://cdn.example.com/home.png", content.Data.Image)
	assert.Equal(t, "/", content.Data.Fields["url"])
	require.Len(t, content.Data.Blocks, 1)
	assert.Equal(t, "Text", content.Data.Blocks[0].Component.Name)
	assert.Equal(t, "<p>Hello</p>", content.Data.Blocks[0].Component.Option("text"))
}

func TestClientGet_NoLocaleOmitsParam(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	_, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/about"}, GetOptions{})
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "userAttributes.locale")
	assert.NotContains(t, gotQuery, "includeRefs")
}

func TestClientGet_NoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	content, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/missing"}, GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestClientGet_NotFoundStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	content, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/"}, GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestClientGet_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	content, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/"}, GetOptions{})
	require.Error(t, err)
	assert.Nil(t, content)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, ModelPage, apiErr.Model)
	assert.Contains(t, err.Error(), "502")
}

func TestClientGet_UnexpectedShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"name": "no id"}]}`))
	})

	_, err := client.Get(context.Background(), ModelPage, Query{URLPath: "/"}, GetOptions{})
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestClientGet_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, ModelPage, Query{URLPath: "/"}, GetOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "k", BaseURL: "not a url"}, nil)
	assert.Error(t, err)

	client, err := NewClient(Config{APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "cdn.builder.io", client.baseURL.Host)
}

func TestData_RoundTrip(t *testing.T) {
	in := `{"title": "About", "image": null, "url": "/about", "custom": {"a": 1}}`

	var data Data
	require.NoError(t, json.Unmarshal([]byte(in), &data))
	assert.Equal(t, "About", data.Title)
	assert.Empty(t, data.Image)
	assert.Equal(t, "/about", data.Fields["url"])
	assert.NotContains(t, data.Fields, "title")

	out, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "About", decoded["title"])
	assert.Equal(t, "/about", decoded["url"])
	assert.NotContains(t, decoded, "image")
}

func TestComponent_DecodeOption(t *testing.T) {
	c := &Component{Name: "Columns", Options: map[string]any{
		"columns": []any{map[string]any{"width": 50.0}},
	}}

	var cols []struct {
		Width float64 `json:"width"`
	}
	require.NoError(t, c.DecodeOption("columns", &cols))
	require.Len(t, cols, 1)
	assert.Equal(t, 50.0, cols[0].Width)

	var nilComponent *Component
	assert.Equal(t, "", nilComponent.Option("text"))
	assert.False(t, nilComponent.BoolOption("openLinkInNewTab"))
}
