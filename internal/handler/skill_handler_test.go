package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/service"
)

func newSuggestOnlySkillService() *service.SkillService {
	return service.NewSkillService(nil, nil, nil, service.DocumentPolicy{}, nil, nil, nil, nil,
		service.SkillServiceConfig{
			PendingLimit: 3,
			Vocabulary: []string{
				"Plumbing", "Electrical Wiring", "HVAC Repair", "Appliance Repair",
				"Carpentry", "Painting", "Roofing", "Landscaping", "Masonry", "Welding",
			},
		})
}

func TestSkillHandlerSuggest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSkillHandler(newSuggestOnlySkillService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/skills/suggest?q=plumb", nil)

	handler.Suggest(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			Skill string  `json:"skill"`
			Score float64 `json:"score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 6)
	assert.Equal(t, "Plumbing", envelope.Data[0].Skill)
}

func TestSkillHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSkillHandler(newSuggestOnlySkillService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/skills", nil)

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
