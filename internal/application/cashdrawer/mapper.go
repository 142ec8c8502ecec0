package cashdrawer

import (
	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
)

func toSessionResponse(s *entity.CashDrawerSession, movements []*entity.CashDrawerMovement) *dto.CashDrawerSessionResponse {
	out := &dto.CashDrawerSessionResponse{
		ID:             s.ID,
		CompanyID:      s.CompanyID,
		LocationID:     s.LocationID,
		Status:         s.Status,
		OpenedBy:       s.OpenedBy,
		OpeningAmount:  s.OpeningAmount,
		CashSalesTotal: s.CashSalesTotal,
		OpenedAt:       s.OpenedAt,
		ClosedBy:       s.ClosedBy,
		ClosingAmount:  s.ClosingAmount,
		ExpectedAmount: s.ExpectedAmount,
		Variance:       s.Variance,
		CountedChecks:  s.CountedChecks,
		CountedCard:    s.CountedCard,
		ClosedAt:       s.ClosedAt,
		Notes:          s.Notes,
	}
	if movements != nil {
		out.Movements = make([]dto.CashDrawerMovementResponse, 0, len(movements))
		for _, m := range movements {
			out.Movements = append(out.Movements, dto.CashDrawerMovementResponse{
				ID:        m.ID,
				InvoiceID: m.InvoiceID,
				Amount:    m.Amount,
				CreatedBy: m.CreatedBy,
				CreatedAt: m.CreatedAt,
			})
		}
	}
	return out
}
