package usecase

import (
	"context"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

type ListAuditLogsInput struct {
	Paging
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
}

type AuditLogListOutput struct {
	Logs []model.AuditLog `json:"logs"`
	PageInfo
}

func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) (AuditLogListOutput, error) {
	pg, err := in.Paging.normalize()
	if err != nil {
		return AuditLogListOutput{}, err
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Page:        pg.Page,
		Limit:       pg.Limit,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		switch a {
		case model.AuditActionApproveProduct, model.AuditActionDeleteProduct,
			model.AuditActionUpdateOrderStatus, model.AuditActionUpdatePayment:
		default:
			return AuditLogListOutput{}, ErrValidation("invalid action")
		}
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if rt != model.AuditResourceProduct && rt != model.AuditResourceOrder {
			return AuditLogListOutput{}, ErrValidation("invalid resourceType")
		}
		f.ResourceType = &rt
	}

	logs, total, err := u.logs.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, storeFailure(ctx, "audit.list", err)
	}
	return AuditLogListOutput{Logs: logs, PageInfo: newPageInfo(pg, total)}, nil
}
