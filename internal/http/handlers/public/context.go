package public

import (
	"strconv"

	"github.com/anonic-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// parsePeerID 解析路径中的 peer_id 参数，非法时直接返回错误响应。
func parsePeerID(c *gin.Context) (int64, bool) {
	raw := c.Param("peer_id")
	peerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || peerID <= 0 {
		response.BadRequest(c, "invalid peer_id")
		return 0, false
	}
	return peerID, true
}
