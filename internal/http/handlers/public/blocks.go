package public

import (
	"github.com/anonic-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreateBlockRequest 拉黑请求
type CreateBlockRequest struct {
	BlockedPeerID int64 `json:"blocked_peer_id" binding:"required"`
}

// RemoveBlockRequest 解除拉黑请求，identifier 为快照昵称或短码片段
type RemoveBlockRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ListBlocks 列出当前身份的黑名单
func (h *Handler) ListBlocks(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	blocks, err := h.BlockService.List(peerID)
	if err != nil {
		respondBlockError(c, err)
		return
	}

	views := make([]blockView, 0, len(blocks))
	for i := range blocks {
		views = append(views, newBlockView(&blocks[i]))
	}
	response.Success(c, views)
}

// CreateBlock 将某个身份加入黑名单
func (h *Handler) CreateBlock(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	block, err := h.BlockService.Block(peerID, req.BlockedPeerID)
	if err != nil {
		respondBlockError(c, err)
		return
	}

	response.Success(c, newBlockView(block))
}

// RemoveBlock 按昵称或短码片段解除一条拉黑
func (h *Handler) RemoveBlock(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	var req RemoveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	block, err := h.BlockService.Unblock(peerID, req.Identifier)
	if err != nil {
		respondBlockError(c, err)
		return
	}

	response.Success(c, newBlockView(block))
}

// ClearBlocks 清空黑名单
func (h *Handler) ClearBlocks(c *gin.Context) {
	peerID, ok := parsePeerID(c)
	if !ok {
		return
	}

	removed, err := h.BlockService.UnblockAll(peerID)
	if err != nil {
		respondBlockError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": removed})
}
