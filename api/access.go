package api

import (
	"familyfinance/middleware"
	"familyfinance/repository"

	"github.com/gin-gonic/gin"
)

// ownedByCaller 未启用 JWT 时不限制；启用时记录必须属于令牌中的家庭。
// 不属于时按不存在处理，不暴露其他家庭的记录 ID。
func ownedByCaller(c *gin.Context, familyID string) bool {
	current := middleware.GetCurrentFamilyID(c)
	return current == "" || current == familyID
}

// memberOwnedByCaller 成员需属于令牌中的家庭；未启用 JWT 时不查询成员
func memberOwnedByCaller(c *gin.Context, repo repository.Repository, memberID string) error {
	if middleware.GetCurrentFamilyID(c) == "" {
		return nil
	}
	member, err := repo.GetMember(c.Request.Context(), memberID)
	if err != nil {
		return err
	}
	if !ownedByCaller(c, member.FamilyID) {
		return repository.ErrNotFound
	}
	return nil
}
