package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOCM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("countrycode") {
		case "DE":
			w.Write([]byte(`[{"ID":7,"AddressInfo":{"Title":"Autohof","Town":"Kassel","Latitude":51.3,"Longitude":9.5},"OperatorInfo":{"Title":"Ionity"}}]`)) //nolint:errcheck
		default:
			http.Error(w, "quota", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	c := testConfig(t)
	c.OCM.BaseURL = srv.URL + "/v3/poi/"
	out := filepath.Join(c.Output.Dir, c.OCM.OutputFile)

	var buf bytes.Buffer
	require.NoError(t, runOCM(context.Background(), c, newOCMClient(c), out, &buf))
	assert.Equal(t, "Wrote 1 CCS features to "+out+"\n", buf.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"https://openchargemap.org/site/poi/7"`)
	assert.Contains(t, string(data), `"country": "DE"`)
}
