package api_test

import (
	"net/http"
	"testing"

	"familyfinance/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEducationHandler_ListContentFilter(t *testing.T) {
	env := newTestEnv(t)
	for _, c := range []models.EducationalContent{
		{Title: "Everyone", Content: "x", Type: "lesson", AgeGroup: "all"},
		{Title: "Kids", Content: "x", Type: "game", AgeGroup: "children"},
		{Title: "Teens", Content: "x", Type: "lesson", AgeGroup: "teens"},
	} {
		c := c
		_, err := env.repo.CreateEducationalContent(testContext(t), &c)
		require.NoError(t, err)
	}

	titles := func(path string) []string {
		w := env.do("GET", path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []string
		for _, item := range decodeList(t, w) {
			out = append(out, item["title"].(string))
		}
		return out
	}

	assert.Equal(t, []string{"Everyone", "Kids", "Teens"}, titles("/api/educational-content"))
	assert.Equal(t, []string{"Everyone", "Kids"}, titles("/api/educational-content?ageGroup=children"))
	assert.Equal(t, []string{"Everyone"}, titles("/api/educational-content?ageGroup=adults"))
	assert.Equal(t, []string{"Everyone", "Teens"}, titles("/api/educational-content?type=lesson"))
	assert.Equal(t, []string{"Kids"}, titles("/api/educational-content?type=game&ageGroup=children"))
}

func TestEducationHandler_UpsertProgress(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("PUT", "/api/members/m1/learning-progress", map[string]interface{}{"contentId": "c1", "progress": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)

	w = env.do("PUT", "/api/members/m1/learning-progress", map[string]interface{}{"contentId": "c1", "progress": 100, "completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Equal(t, first["id"], second["id"])

	w = env.do("GET", "/api/members/m1/learning-progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, float64(100), list[0]["progress"])
	assert.Equal(t, true, list[0]["completed"])

	for _, body := range []map[string]interface{}{
		{"progress": 10},
		{"contentId": "c1"},
		{"contentId": "c1", "progress": 101},
		{"contentId": "c1", "progress": -1},
	} {
		w = env.do("PUT", "/api/members/m1/learning-progress", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCatalogHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/investments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = env.do("POST", "/api/family/f1/financial-services", map[string]interface{}{
		"type":           "loan",
		"name":           "Home Loan",
		"amount":         "2500000",
		"monthlyPayment": "28500",
		"details":        map[string]interface{}{"remaining": "18 years", "tenure": "20 years"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decode(t, w)
	assert.Equal(t, "active", svc["status"])
	assert.Equal(t, "18 years", svc["details"].(map[string]interface{})["remaining"])

	w = env.do("POST", "/api/family/f1/financial-services", map[string]interface{}{"type": "mortgage", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/api/family/f1/financial-services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)
}
