package repository

import (
	"context"
	"testing"

	"refurbmarket/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Name: "user " + email, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID int64, name string, price string, stock int64, approved bool) model.Product {
	t.Helper()
	p := model.Product{
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString(price),
		Category:      "phones",
		Brand:         "acme",
		Condition:     model.ConditionGood,
		StockQuantity: stock,
		SellerID:      sellerID,
		Images:        model.StringList{"https://img.example/" + name + ".jpg"},
		Tags:          model.TagSet{"refurb"},
		Approved:      approved,
	}
	require.NoError(t, NewProductGormRepository(db).Create(context.Background(), &p))
	return p
}
