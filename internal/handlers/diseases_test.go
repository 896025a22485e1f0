package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiseasesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockDiseaseLister(ctrl)
	svc.EXPECT().Diseases(gomock.Any()).Return([]string{"Bacterialblight", "Blast", "Brownspot"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/diseases", nil)
	rec := httptest.NewRecorder()

	NewDiseasesHandler(svc)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp DiseasesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Bacterialblight", "Blast", "Brownspot"}, resp.Diseases)
}
