package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/photohub/internal/http/handlers"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantLabel string
		wantField string
	}{
		{name: "minor", body: `{"name":"Jane","age":16,"gender":"female","place_of_living":"Lisbon","country_of_origin":"PT"}`, wantCode: http.StatusOK, wantLabel: "minor"},
		{name: "technical", body: `{"name":"Ana","age":40,"gender":"f","place_of_living":"Porto","country_of_origin":"PT","description":"Senior ENGINEER"}`, wantCode: http.StatusOK, wantLabel: "technical"},
		{name: "category_f", body: `{"name":"Ana","age":40,"gender":"Female","place_of_living":"Porto","country_of_origin":"PT","description":null}`, wantCode: http.StatusOK, wantLabel: "category-f"},
		{name: "standard", body: `{"name":"Rui","age":40,"gender":"male","place_of_living":"Porto","country_of_origin":"PT"}`, wantCode: http.StatusOK, wantLabel: "standard"},
		{name: "missing_age", body: `{"name":"Rui","gender":"male","place_of_living":"Porto","country_of_origin":"PT"}`, wantCode: http.StatusBadRequest, wantField: "age"},
		{name: "missing_gender", body: `{"name":"Rui","age":40,"place_of_living":"Porto","country_of_origin":"PT"}`, wantCode: http.StatusBadRequest, wantField: "gender"},
		{name: "empty_gender", body: `{"name":"Rui","age":40,"gender":"","place_of_living":"Porto","country_of_origin":"PT"}`, wantCode: http.StatusBadRequest, wantField: "gender"},
		{name: "missing_name", body: `{"age":40,"gender":"male","place_of_living":"Porto","country_of_origin":"PT"}`, wantCode: http.StatusBadRequest, wantField: "name"},
		{name: "missing_place", body: `{"name":"Rui","age":40,"gender":"male","country_of_origin":"PT"}`, wantCode: http.StatusBadRequest, wantField: "place_of_living"},
		{name: "missing_country", body: `{"name":"Rui","age":40,"gender":"male","place_of_living":"Porto"}`, wantCode: http.StatusBadRequest, wantField: "country_of_origin"},
		{name: "invalid_json", body: `not json`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			prom := observability.NewProm(prometheus.NewRegistry(), "classifier")
			h := handlers.NewClassifyHandler(prom)
			r := setupRouter(http.MethodPost, "/classify", h.Classify)

			req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(r, req)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			if tt.wantField != "" {
				var env struct {
					Error struct {
						Details struct {
							Fields []handlers.FieldError `json:"fields"`
						} `json:"details"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
				require.Len(t, env.Error.Details.Fields, 1)
				assert.Equal(t, tt.wantField, env.Error.Details.Fields[0].Field)
				assert.Equal(t, "required", env.Error.Details.Fields[0].Rule)
			}

			if tt.wantLabel == "" {
				return
			}

			var resp struct {
				Label string `json:"label"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantLabel, resp.Label)
			assert.Equal(t, float64(1), testutil.ToFloat64(prom.SubmissionsTotal.WithLabelValues(tt.wantLabel)))
		})
	}
}
