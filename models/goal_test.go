package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyGoal_Percentage(t *testing.T) {
	g := FamilyGoal{
		TargetAmount:  decimal.RequireFromString("1000"),
		CurrentAmount: decimal.RequireFromString("250"),
	}
	assert.Equal(t, 25.0, g.Percentage())

	g.CurrentAmount = decimal.RequireFromString("1")
	g.TargetAmount = decimal.RequireFromString("3")
	assert.Equal(t, 33.33, g.Percentage())

	// 目标金额为 0 时不除零
	g.TargetAmount = decimal.Zero
	assert.Equal(t, 0.0, g.Percentage())
}

func TestFamilyGoal_MarshalJSON(t *testing.T) {
	g := FamilyGoal{
		ID:            "goal-1",
		FamilyID:      "family-1",
		Name:          "Emergency Fund",
		TargetAmount:  decimal.RequireFromString("100000"),
		CurrentAmount: decimal.RequireFromString("85000"),
		Contributors:  StringList{"member-1"},
		IsActive:      true,
	}
	b, err := json.Marshal(g)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "goal-1", out["id"])
	assert.Equal(t, "family-1", out["familyId"])
	assert.Equal(t, "85000", out["currentAmount"])
	assert.Equal(t, 85.0, out["percentage"])
	assert.Equal(t, []interface{}{"member-1"}, out["contributors"])
}

func TestGoalUpdate_Apply(t *testing.T) {
	g := FamilyGoal{Name: "Trip", CurrentAmount: decimal.Zero, IsActive: true}
	amount := decimal.RequireFromString("500")
	inactive := false
	contributors := []string{"m1", "m2"}

	u := GoalUpdate{CurrentAmount: &amount, IsActive: &inactive, Contributors: &contributors}
	u.Apply(&g)

	assert.Equal(t, "Trip", g.Name)
	assert.True(t, g.CurrentAmount.Equal(amount))
	assert.False(t, g.IsActive)
	assert.Equal(t, StringList{"m1", "m2"}, g.Contributors)

	cols := u.Columns()
	assert.Len(t, cols, 3)
	assert.Equal(t, false, cols["is_active"])
}

func TestStringList_Scan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, l.Scan(42))
}
