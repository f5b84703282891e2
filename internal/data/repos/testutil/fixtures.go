package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/lvflow-backend/internal/domain"
)

func Str(s string) *string { return &s }
func Int(i int) *int       { return &i }

func SeedOffer(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Offer {
	tb.Helper()
	o := &types.Offer{DocName: name}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed offer: %v", err)
	}
	return o
}

func SeedGroup(tb testing.TB, ctx context.Context, tx *gorm.DB, offerID uint, groupNr *string, title string) *types.ProdGroup {
	tb.Helper()
	g := &types.ProdGroup{OfferID: offerID, GroupNr: groupNr, Title: title}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed group: %v", err)
	}
	return g
}

func SeedVariant(tb testing.TB, ctx context.Context, tx *gorm.DB, groupID uint, varNr *string, shortText string) *types.ProdVariant {
	tb.Helper()
	v := &types.ProdVariant{GroupID: groupID, VarNr: varNr, ShortText: shortText}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed variant: %v", err)
	}
	return v
}
