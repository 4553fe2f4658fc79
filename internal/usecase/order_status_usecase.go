package usecase

import (
	"context"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"
)

// 注文ステータス更新。sellerは遷移表の範囲だけ、管理者は何でも（監査ログに残す）
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actor Principal, orderID int64, status string) (model.Order, error) {
	// 値チェックは読み込みより先
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return model.Order{}, ErrValidation("invalid status")
	}
	if orderID <= 0 {
		return model.Order{}, ErrValidation("invalid order id")
	}
	if actor.Role != model.RoleSeller && actor.Role != model.RoleAdmin {
		return model.Order{}, ErrForbidden("sellers or admins only")
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := o.OrderStatus

		if actor.Role == model.RoleSeller {
			if !o.InvolvesSeller(actor.UserID) {
				return ErrForbidden("not authorized to update this order status")
			}
			if before.Settled() {
				return ErrForbiddenTransition("cannot change order in status " + string(before))
			}
			if !before.SellerCanTransitionTo(next) {
				return ErrForbiddenTransition("cannot move order from " + string(before) + " to " + string(next))
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}

		if actor.Role == model.RoleAdmin {
			if err := r.AuditLogs().Create(ctx, auditEntry(actor, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
				map[string]interface{}{"orderStatus": before},
				map[string]interface{}{"orderStatus": next},
			)); err != nil {
				return err
			}
		}

		o.OrderStatus = next
		if actor.Role == model.RoleSeller {
			o.Items = itemsOfSeller(o.Items, actor.UserID)
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, translateStoreError(ctx, "order.update_status", err, "order not found", "order_id", orderID)
	}
	return out, nil
}
