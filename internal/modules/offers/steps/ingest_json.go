package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	offersrepo "github.com/yungbote/lvflow-backend/internal/data/repos/offers"
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/extraction"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

const (
	GroupsFile     = "product_groups.json"
	VariantsFile   = "product_variants.json"
	ComponentsFile = "required_components.json"
)

type IngestJSONDeps struct {
	DB    *gorm.DB
	Log   *logger.Logger
	Repos offersrepo.Repos
}

type IngestJSONInput struct {
	OfferName string
	BaseDir   string
}

type IngestJSONOutput struct {
	OfferID uint               `json:"offer_id"`
	Counts  types.IngestCounts `json:"counts"`
}

type jsonGroups struct {
	Groups []extraction.Group `json:"groups"`
}

type jsonVariants struct {
	Variants []extraction.Variant `json:"variants"`
}

type jsonComponents struct {
	Components []extraction.Component `json:"components"`
}

// IngestFromJSON loads pre-extracted groups, variants and components from BaseDir
// and upserts them under the named offer in one transaction.
func IngestFromJSON(ctx context.Context, deps IngestJSONDeps, in IngestJSONInput) (IngestJSONOutput, error) {
	out := IngestJSONOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Repos.Offers == nil {
		return out, fmt.Errorf("ingest_json: missing deps")
	}
	offerName := strings.TrimSpace(in.OfferName)
	if offerName == "" {
		return out, fmt.Errorf("ingest_json: missing offer_name")
	}
	baseDir := in.BaseDir
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "data"
	}
	log := deps.Log.With("step", "ingest_json", "offer_name", offerName, "base_dir", baseDir)

	var groups jsonGroups
	if _, err := readJSON(filepath.Join(baseDir, GroupsFile), &groups); err != nil {
		return out, err
	}
	var variants jsonVariants
	if _, err := readJSON(filepath.Join(baseDir, VariantsFile), &variants); err != nil {
		return out, err
	}
	var components jsonComponents
	hasComponents, err := readJSON(filepath.Join(baseDir, ComponentsFile), &components)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return out, err
	}

	var counts types.IngestCounts
	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		offer, _, err := deps.Repos.Offers.GetOrCreateByName(dbc, offerName)
		if err != nil {
			return fmt.Errorf("get or create offer: %w", err)
		}
		out.OfferID = offer.ID
		counts.Offers = 1

		groupIDs := map[string]uint{}
		for _, g := range groups.Groups {
			row, err := deps.Repos.Groups.Upsert(dbc, offersrepo.GroupFields{
				OfferID:  offer.ID,
				GroupNr:  g.GroupNo,
				Title:    strings.TrimSpace(g.Title),
				PageFrom: g.PageFrom,
				PageTo:   g.PageTo,
			})
			if err != nil {
				return fmt.Errorf("group %q: %w", deref(g.GroupNo), err)
			}
			if row.GroupNr != nil {
				groupIDs[*row.GroupNr] = row.ID
			}
			counts.Groups++
		}

		var fallback *types.ProdGroup
		for _, v := range variants.Variants {
			groupID, ok := groupIDs[GroupNrOf(deref(v.VariantNo))]
			if !ok {
				if fallback == nil {
					fallback, err = deps.Repos.Offers.FirstGroup(dbc, offer.ID)
					if err != nil {
						return fmt.Errorf("variant %q: no group to attach to: %w", deref(v.VariantNo), err)
					}
				}
				groupID = fallback.ID
			}
			if _, err := deps.Repos.Variants.Upsert(dbc, offersrepo.VariantFields{
				GroupID:   groupID,
				VarNr:     v.VariantNo,
				ShortText: strings.TrimSpace(v.Title),
				LongText:  optionalText(v.Text),
				PageFrom:  v.PageFrom,
				PageTo:    v.PageTo,
			}); err != nil {
				return fmt.Errorf("variant %q: %w", deref(v.VariantNo), err)
			}
			counts.Variants++
		}

		if !hasComponents || len(components.Components) == 0 {
			return nil
		}
		offerVariants, err := deps.Repos.Variants.ListByOffer(dbc, offer.ID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		byNr := map[string][]uint{}
		for _, v := range offerVariants {
			if v.VarNr != nil {
				byNr[*v.VarNr] = append(byNr[*v.VarNr], v.ID)
			}
		}
		seen := map[uint]bool{}
		for _, c := range components.Components {
			desc := strings.TrimSpace(c.Description)
			if desc == "" {
				continue
			}
			comp, err := deps.Repos.Components.GetOrCreate(dbc, desc)
			if err != nil {
				return fmt.Errorf("component %q: %w", desc, err)
			}
			if !seen[comp.ID] {
				seen[comp.ID] = true
				counts.Components++
			}
			for _, no := range c.VariantNos {
				for _, variantID := range byNr[strings.TrimSpace(no)] {
					if _, _, err := deps.Repos.Links.Upsert(dbc, variantID, comp.ID); err != nil {
						return fmt.Errorf("link %q -> %q: %w", no, desc, err)
					}
					counts.VariantComponents++
				}
			}
		}
		return nil
	})
	if err != nil {
		return IngestJSONOutput{}, err
	}
	out.Counts = counts
	log.Info("JSON ingestion finished",
		"offer_id", out.OfferID,
		"groups", counts.Groups,
		"variants", counts.Variants,
		"components", counts.Components,
		"variant_components", counts.VariantComponents,
	)
	return out, nil
}

// GroupNrOf derives a group number from the first two dot segments of a variant number.
func GroupNrOf(variantNo string) string {
	variantNo = strings.TrimSpace(variantNo)
	if !strings.Contains(variantNo, ".") {
		return ""
	}
	parts := strings.SplitN(variantNo, ".", 3)
	return parts[0] + "." + parts[1]
}

// readJSON decodes path into out. The bool reports whether the file existed.
func readJSON(path string, out any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
