package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		files        []string
		opts         []Option
		wantComplete bool
		wantItem     string
		wantModifier string
		wantMissing  []string
	}{
		{
			name: "both_present",
			files: []string{
				"20251224_ItemSelectionDetails.csv",
				"20251224_ModifiersSelectionDetails.csv",
			},
			wantComplete: true,
			wantItem:     "20251224_ItemSelectionDetails.csv",
			wantModifier: "20251224_ModifiersSelectionDetails.csv",
		},
		{
			name: "case_insensitive",
			files: []string{
				"ITEMSELECTIONDETAILS.CSV",
				"modifiersselectiondetails.csv",
			},
			wantComplete: true,
			wantItem:     "ITEMSELECTIONDETAILS.CSV",
			wantModifier: "modifiersselectiondetails.csv",
		},
		{
			name: "prefix_and_extension_independent",
			files: []string{
				"export-ItemSelectionDetails-final.txt",
				"store_ModifiersSelectionDetails_v2",
			},
			wantComplete: true,
			wantItem:     "export-ItemSelectionDetails-final.txt",
			wantModifier: "store_ModifiersSelectionDetails_v2",
		},
		{
			name: "missing_modifier",
			files: []string{
				"ItemSelectionDetails.csv",
				"CheckDetails.csv",
			},
			wantComplete: false,
			wantMissing:  []string{DefaultModifierKeyword},
		},
		{
			name:         "missing_both",
			files:        []string{"README.txt"},
			wantComplete: false,
			wantMissing:  []string{DefaultItemKeyword, DefaultModifierKeyword},
		},
		{
			name:         "empty_listing",
			files:        nil,
			wantComplete: false,
			wantMissing:  []string{DefaultItemKeyword, DefaultModifierKeyword},
		},
		{
			name: "first_match_wins",
			files: []string{
				"a_ItemSelectionDetails.csv",
				"b_ItemSelectionDetails.csv",
				"ModifiersSelectionDetails.csv",
			},
			wantComplete: true,
			wantItem:     "a_ItemSelectionDetails.csv",
			wantModifier: "ModifiersSelectionDetails.csv",
		},
		{
			name: "ignore_globs_applied",
			files: []string{
				"ItemSelectionDetails.csv.tmp",
				"ItemSelectionDetails.csv",
				"ModifiersSelectionDetails.csv",
			},
			opts:         []Option{WithIgnoreGlobs([]string{"*.tmp"})},
			wantComplete: true,
			wantItem:     "ItemSelectionDetails.csv",
			wantModifier: "ModifiersSelectionDetails.csv",
		},
		{
			name: "custom_keywords",
			files: []string{
				"SalesSummary.csv",
				"VoidSummary.csv",
			},
			opts:         []Option{WithKeywords("salessummary", "voidsummary")},
			wantComplete: true,
			wantItem:     "SalesSummary.csv",
			wantModifier: "VoidSummary.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.opts...)
			res := m.Match(tt.files)

			assert.Equal(t, tt.wantComplete, res.Complete())
			if tt.wantComplete {
				assert.Equal(t, tt.wantItem, res.Pair.Item)
				assert.Equal(t, tt.wantModifier, res.Pair.Modifier)
				assert.Empty(t, res.Missing())
			} else {
				assert.Equal(t, tt.wantMissing, res.Missing())
			}
		})
	}
}
