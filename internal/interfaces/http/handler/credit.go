package handler

import (
	"github.com/gin-gonic/gin"

	"copysmith-ai-api/internal/application/credit"
	"copysmith-ai-api/internal/interfaces/http/dto"
)

// CreditHandler 积分查询处理器
type CreditHandler struct {
	gate *credit.Gate
}

// NewCreditHandler 创建积分查询处理器
func NewCreditHandler(gate *credit.Gate) *CreditHandler {
	return &CreditHandler{gate: gate}
}

// Balance 查询积分余额
// @Summary 查询积分余额
// @Tags Credits
// @Produce json
// @Success 200 {object} dto.Response[dto.BalanceResponse]
// @Router /v1/credits/balance [get]
func (h *CreditHandler) Balance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		dto.Unauthorized(c, "user not authenticated")
		return
	}

	balance, err := h.gate.Balance(c.Request.Context(), userID)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.BalanceResponse{UserID: userID, Balance: balance})
}

// Transactions 分页查询积分流水
// @Summary 查询积分流水
// @Tags Credits
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.TransactionListResponse]
// @Router /v1/credits/transactions [get]
func (h *CreditHandler) Transactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		dto.Unauthorized(c, "user not authenticated")
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.gate.Transactions(c.Request.Context(), userID, query.ToPagination())
	if err != nil {
		dto.AppError(c, err)
		return
	}

	transactions := make([]*dto.TransactionResponse, 0, len(result.Items))
	for _, tx := range result.Items {
		transactions = append(transactions, dto.FromTransaction(tx))
	}
	dto.SuccessWithPage(c, dto.TransactionListResponse{Transactions: transactions},
		dto.NewPageMeta(query.Page, query.PageSize, result.Total))
}
