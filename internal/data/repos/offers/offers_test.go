package offers

import (
	"context"
	"testing"

	"github.com/yungbote/lvflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
)

func TestOfferRepoGetOrCreateByName(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOfferRepo(db, testutil.Logger(t))

	first, created, err := repo.GetOrCreateByName(dbc, " LV Hallenbad ")
	if err != nil || !created {
		t.Fatalf("GetOrCreateByName: created=%v err=%v", created, err)
	}
	again, created, err := repo.GetOrCreateByName(dbc, "LV Hallenbad")
	if err != nil || created {
		t.Fatalf("second GetOrCreateByName: created=%v err=%v", created, err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected reuse of offer %d, got %d", first.ID, again.ID)
	}

	if err := repo.SetSourceFilename(dbc, first.ID, "LV_Hallenbad.pdf"); err != nil {
		t.Fatalf("SetSourceFilename: %v", err)
	}
	got, err := repo.GetByID(dbc, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SourceFilename == nil || *got.SourceFilename != "LV_Hallenbad.pdf" {
		t.Fatalf("source filename not stored: %v", got.SourceFilename)
	}
}

func TestGroupRepoUpsertNullKeyMatchesSameRow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewGroupRepo(db, testutil.Logger(t))
	offer := testutil.SeedOffer(t, ctx, tx, "offer")

	a, err := repo.Upsert(dbc, GroupFields{OfferID: offer.ID, Title: "Allgemein", PageFrom: testutil.Int(1)})
	if err != nil {
		t.Fatalf("Upsert a: %v", err)
	}
	b, err := repo.Upsert(dbc, GroupFields{OfferID: offer.ID, GroupNr: testutil.Str("  "), Title: "Allgemein 2", PageTo: testutil.Int(4)})
	if err != nil {
		t.Fatalf("Upsert b: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("null group_nr should upsert to the same row: %d vs %d", a.ID, b.ID)
	}

	var stored types.ProdGroup
	if err := tx.First(&stored, a.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "Allgemein 2" || stored.PageFrom != nil || stored.PageTo == nil || *stored.PageTo != 4 {
		t.Fatalf("mutable fields not overwritten: %+v", stored)
	}
	if n := testutil.Count(t, tx, &types.ProdGroup{}); n != 1 {
		t.Fatalf("expected 1 group row, got %d", n)
	}
}

func TestGroupRepoUpsertDistinctKeys(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewGroupRepo(db, testutil.Logger(t))
	offer := testutil.SeedOffer(t, ctx, tx, "offer")
	other := testutil.SeedOffer(t, ctx, tx, "other")

	for _, in := range []GroupFields{
		{OfferID: offer.ID, GroupNr: testutil.Str("1.1"), Title: "Rohbau"},
		{OfferID: offer.ID, GroupNr: testutil.Str("1.2"), Title: "Ausbau"},
		{OfferID: offer.ID, GroupNr: testutil.Str(" 1.1 "), Title: "Rohbau neu"},
		{OfferID: other.ID, GroupNr: testutil.Str("1.1"), Title: "Rohbau"},
	} {
		if _, err := repo.Upsert(dbc, in); err != nil {
			t.Fatalf("Upsert %+v: %v", in, err)
		}
	}
	groups, err := repo.ListByOffer(dbc, offer.ID)
	if err != nil {
		t.Fatalf("ListByOffer: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups for offer, got %d", len(groups))
	}
	if groups[0].Title != "Rohbau neu" {
		t.Fatalf("expected in-place update, got %q", groups[0].Title)
	}
}

func TestStoreRejectsDuplicateNullGroupKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	offer := testutil.SeedOffer(t, ctx, tx, "offer")
	testutil.SeedGroup(t, ctx, tx, offer.ID, nil, "a")

	dup := &types.ProdGroup{OfferID: offer.ID, Title: "b"}
	if err := tx.Create(dup).Error; err == nil {
		t.Fatalf("expected unique index to reject a second null-key group")
	}
}

func TestVariantRepoUpsertPreservesCount(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewVariantRepo(db, testutil.Logger(t))
	offer := testutil.SeedOffer(t, ctx, tx, "offer")
	group := testutil.SeedGroup(t, ctx, tx, offer.ID, testutil.Str("1.1"), "g")

	v, err := repo.Upsert(dbc, VariantFields{GroupID: group.ID, VarNr: testutil.Str("1.1.10"), ShortText: "Tür", LongText: testutil.Str("Holztür")})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := tx.Model(&types.ProdVariant{}).Where("id = ?", v.ID).Update("count", 3).Error; err != nil {
		t.Fatalf("set count: %v", err)
	}
	again, err := repo.Upsert(dbc, VariantFields{GroupID: group.ID, VarNr: testutil.Str("1.1.10"), ShortText: "Tür T30"})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if again.ID != v.ID {
		t.Fatalf("expected stable id %d, got %d", v.ID, again.ID)
	}

	var stored types.ProdVariant
	if err := tx.First(&stored, v.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.ShortText != "Tür T30" || stored.LongText != nil {
		t.Fatalf("mutable fields not overwritten: %+v", stored)
	}
	if stored.Count == nil || *stored.Count != 3 {
		t.Fatalf("count should survive upsert, got %v", stored.Count)
	}

	rows, err := repo.ListByOffer(dbc, offer.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByOffer: err=%v len=%d", err, len(rows))
	}
}

func TestComponentAndLinkUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	components := NewComponentRepo(db, log)
	links := NewLinkRepo(db, log)

	offer := testutil.SeedOffer(t, ctx, tx, "offer")
	group := testutil.SeedGroup(t, ctx, tx, offer.ID, testutil.Str("1"), "g")
	variant := testutil.SeedVariant(t, ctx, tx, group.ID, testutil.Str("1.1"), "v")

	c1, err := components.GetOrCreate(dbc, "Drückergarnitur Edelstahl")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	c2, err := components.GetOrCreate(dbc, "  Drückergarnitur Edelstahl\n")
	if err != nil {
		t.Fatalf("GetOrCreate trimmed: %v", err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("expected dedupe on trimmed text: %d vs %d", c1.ID, c2.ID)
	}
	if _, err := components.GetOrCreate(dbc, "drückergarnitur edelstahl"); err != nil {
		t.Fatalf("GetOrCreate case variant: %v", err)
	}
	if n := testutil.Count(t, tx, &types.Component{}); n != 2 {
		t.Fatalf("matching is exact, expected 2 components, got %d", n)
	}
	if _, err := components.GetOrCreate(dbc, "   "); err == nil {
		t.Fatalf("expected error for blank description")
	}

	_, created, err := links.Upsert(dbc, variant.ID, c1.ID)
	if err != nil || !created {
		t.Fatalf("link Upsert: created=%v err=%v", created, err)
	}
	_, created, err = links.Upsert(dbc, variant.ID, c1.ID)
	if err != nil || created {
		t.Fatalf("duplicate link should be a no-op: created=%v err=%v", created, err)
	}
	if n, err := links.CountByVariant(dbc, variant.ID); err != nil || n != 1 {
		t.Fatalf("CountByVariant: n=%d err=%v", n, err)
	}
}

func TestOfferTreeAndCascade(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repos := NewRepos(db, testutil.Logger(t))

	offer, _, err := repos.Offers.GetOrCreateByName(dbc, "tree")
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	g, err := repos.Groups.Upsert(dbc, GroupFields{OfferID: offer.ID, GroupNr: testutil.Str("2.1"), Title: "Fenster"})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	v, err := repos.Variants.Upsert(dbc, VariantFields{GroupID: g.ID, VarNr: testutil.Str("2.1.1"), ShortText: "Fenster 1-flg"})
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	c, err := repos.Components.GetOrCreate(dbc, "Fenstergriff")
	if err != nil {
		t.Fatalf("component: %v", err)
	}
	if _, _, err := repos.Links.Upsert(dbc, v.ID, c.ID); err != nil {
		t.Fatalf("link: %v", err)
	}

	tree, err := repos.Offers.GetTree(dbc, offer.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if len(tree.Groups) != 1 || len(tree.Groups[0].Variants) != 1 || len(tree.Groups[0].Variants[0].Components) != 1 {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
	if tree.Groups[0].Variants[0].Components[0].Component == nil || tree.Groups[0].Variants[0].Components[0].Component.Description != "Fenstergriff" {
		t.Fatalf("component not preloaded")
	}

	if err := db.Delete(&types.Offer{}, offer.ID).Error; err != nil {
		t.Fatalf("delete offer: %v", err)
	}
	for _, model := range []any{&types.ProdGroup{}, &types.ProdVariant{}, &types.ProdVariantComponent{}} {
		if n := testutil.Count(t, db, model); n != 0 {
			t.Fatalf("cascade left %d rows in %T", n, model)
		}
	}
	if n := testutil.Count(t, db, &types.Component{}); n != 1 {
		t.Fatalf("components are store-wide and survive offer deletion, got %d", n)
	}
}
