package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ftc-sync/pkg/anthropic"
)

const ratesPageHTML = `<html>
<head><title>Rates</title><script>var junk = 1;</script><style>.x{}</style></head>
<body>
<nav>Home | Business</nav>
<h1>Rates for fuel acquired</h1>
<table><tr><td>Liquid fuels</td><td>28.8 cents</td></tr></table>
<footer>Copyright</footer>
</body>
</html>`

func TestExtractTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesPageHTML))
	}))
	defer srv.Close()

	rawDoc := `{"Rates for fuel acquired": {"Table 1": {"Period": "1 July 2023 to 30 June 2024", "Data": []}}}`

	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		if req.Model != "claude-haiku-4-5-20251001" || len(req.Messages) != 1 {
			return false
		}
		content := req.Messages[0].Content
		// The prompt carries the instruction, the page URL and the page
		// text, but none of the stripped chrome.
		return strings.Contains(content, "Extract all the available tables") &&
			strings.Contains(content, srv.URL) &&
			strings.Contains(content, "28.8 cents") &&
			!strings.Contains(content, "var junk") &&
			!strings.Contains(content, "Copyright")
	})).Return(textResponse(rawDoc), nil)

	e := New(ai, Config{Model: "claude-haiku-4-5-20251001"})
	got, err := e.ExtractTables(context.Background(), srv.URL,
		"Extract all the available tables containing the 'Rates for fuel acquired' from the page.")
	require.NoError(t, err)
	assert.JSONEq(t, rawDoc, string(got))
	ai.AssertExpectations(t)
}

func TestExtractTablesFencedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesPageHTML))
	}))
	defer srv.Close()

	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("Here you go:\n```json\n{\"Rates for fuel acquired\": {}}\n```"), nil)

	e := New(ai, Config{Model: "m"})
	got, err := e.ExtractTables(context.Background(), srv.URL, "instruction")
	require.NoError(t, err)
	assert.True(t, json.Valid(got))
	assert.JSONEq(t, `{"Rates for fuel acquired": {}}`, string(got))
}

func TestExtractTablesInvalidJSONReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesPageHTML))
	}))
	defer srv.Close()

	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("I could not find any tables on that page."), nil)

	e := New(ai, Config{Model: "m"})
	_, err := e.ExtractTables(context.Background(), srv.URL, "instruction")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestExtractTablesPageFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ai := &mockAnthropicClient{}
	e := New(ai, Config{Model: "m"})

	_, err := e.ExtractTables(context.Background(), srv.URL, "instruction")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around json", "Sure thing.\n{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestPageText(t *testing.T) {
	text, err := pageText(ratesPageHTML)
	require.NoError(t, err)

	assert.Contains(t, text, "Rates for fuel acquired")
	assert.Contains(t, text, "28.8 cents")
	assert.NotContains(t, text, "var junk")
	assert.NotContains(t, text, "Home | Business")
	assert.NotContains(t, text, "Copyright")
}

func TestCollapseWhitespace(t *testing.T) {
	in := "  a   b  \n\n\n c\t\td \n"
	assert.Equal(t, "a b\nc d", collapseWhitespace(in))
}
