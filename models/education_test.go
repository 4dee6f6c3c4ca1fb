package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter_Matches(t *testing.T) {
	forAll := EducationalContent{Type: "game", AgeGroup: AgeGroupAll}
	forAdults := EducationalContent{Type: "lesson", AgeGroup: "adults"}

	for _, group := range []string{"", "children", "teens", "adults", AgeGroupAll} {
		assert.True(t, ContentFilter{AgeGroup: group}.Matches(forAll), group)
	}

	assert.True(t, ContentFilter{}.Matches(forAdults))
	assert.True(t, ContentFilter{AgeGroup: "adults"}.Matches(forAdults))
	assert.False(t, ContentFilter{AgeGroup: "teens"}.Matches(forAdults))

	assert.True(t, ContentFilter{Type: "lesson", AgeGroup: "adults"}.Matches(forAdults))
	assert.False(t, ContentFilter{Type: "game", AgeGroup: "adults"}.Matches(forAdults))
}
