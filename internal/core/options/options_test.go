package options

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLegacyQuestions(t *testing.T) {
	payload := `[
		"Which pose?",
		{"title": "Background colour"},
		{"label": "Reference link", "id": 9},
		{"label": "Notes"},
		{"id": 12, "text": "Canonical"},
		{"text": "No id yet"},
		42,
		{"something": "else"}
	]`
	var raw []RawQuestion
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	got := Questions(raw)
	require.Equal(t, []models.Question{
		{ID: 1, Text: "Which pose?"},
		{ID: 2, Text: "Background colour"},
		{ID: 9, Text: "Reference link"},
		{ID: 4, Text: "Notes"},
		{ID: 12, Text: "Canonical"},
		{ID: 13, Text: "No id yet"},
		{ID: 7, Text: "42"},
		{ID: 8, Text: `{"something": "else"}`},
	}, got)
}

func TestLegacyQuestionsRenumberPositionalCollisions(t *testing.T) {
	var raw []RawQuestion
	require.NoError(t, json.Unmarshal([]byte(`[{"label": "a", "id": 2}, "b", {"id": 1, "text": "c"}]`), &raw))

	got := Questions(raw)
	require.Equal(t, []models.Question{
		{ID: 2, Text: "a"},
		{ID: 3, Text: "b"},
		{ID: 1, Text: "c"},
	}, got)

	listing := sampleListing()
	listing.GeneralOptions.Questions = got
	require.NoError(t, ValidateListing(NormalizeListing(listing)))
}

func TestQuestionsAreIdempotent(t *testing.T) {
	var raw []RawQuestion
	require.NoError(t, json.Unmarshal([]byte(`["a", {"title": "b"}, {"label": "c"}]`), &raw))
	first := Questions(raw)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	var again []RawQuestion
	require.NoError(t, json.Unmarshal(encoded, &again))
	require.Equal(t, first, Questions(again))
}

func TestAssignIDsKeepsExistingAndAvoidsCollisions(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Addon
		want []int
	}{
		{name: "all missing", in: []models.Addon{{}, {}, {}}, want: []int{1, 2, 3}},
		{name: "all present", in: []models.Addon{{ID: 5}, {ID: 2}}, want: []int{5, 2}},
		{name: "mixed", in: []models.Addon{{}, {ID: 1}, {}}, want: []int{2, 1, 3}},
		{name: "empty", in: []models.Addon{}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignIDs(tt.in, func(a *models.Addon) *int { return &a.ID })
			ids := make([]int, len(tt.in))
			for i, addon := range tt.in {
				ids[i] = addon.ID
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func sampleListing() models.CommissionListing {
	return models.CommissionListing{
		BasePrice: d(1000),
		Flow:      models.ListingFlowStandard,
		GeneralOptions: models.ListingOptions{
			OptionGroups: []models.OptionGroup{{
				Title: "Size",
				Selections: []models.OptionSelection{
					{Label: "Bust", Price: d(200)},
					{Label: "Full body", Price: d(500)},
				},
			}},
			Addons:    []models.Addon{{Label: "Background", Price: d(300)}},
			Questions: []models.Question{{Text: "Character name?"}},
		},
	}
}

func TestComputePriceRange(t *testing.T) {
	listing := NormalizeListing(sampleListing())
	got := ComputePriceRange(listing.BasePrice, listing.GeneralOptions, listing.SubjectOptions)
	require.True(t, got.Min.Equal(d(1200)), "min %s", got.Min)
	require.True(t, got.Max.Equal(d(2000)), "max %s", got.Max)
}

func TestComputePriceRangeIncludesSubjects(t *testing.T) {
	listing := sampleListing()
	listing.SubjectOptions = models.SubjectOptions{{
		Title: "Extra character",
		ListingOptions: models.ListingOptions{
			OptionGroups: []models.OptionGroup{{Selections: []models.OptionSelection{{Price: d(150)}, {Price: d(100)}}}},
			Addons:       []models.Addon{{Price: d(50)}},
		},
	}}
	listing = NormalizeListing(listing)

	got := ComputePriceRange(listing.BasePrice, listing.GeneralOptions, listing.SubjectOptions)
	require.True(t, got.Min.Equal(d(1300)), "min %s", got.Min)
	require.True(t, got.Max.Equal(d(2300)), "max %s", got.Max)
}

func TestNormalizeListingIsIdempotent(t *testing.T) {
	listing := sampleListing()
	listing.Flow = models.ListingFlowMilestone
	listing.Milestones = models.Milestones{{Title: "Sketch", Percent: 30}, {Title: "Final", Percent: 70}}
	listing.SubjectOptions = models.SubjectOptions{{Title: "Pet", ListingOptions: models.ListingOptions{
		Addons: []models.Addon{{Label: "Collar", Price: d(20)}},
	}}}

	once := NormalizeListing(listing)
	twice := NormalizeListing(once)
	require.Equal(t, once, twice)
	require.Equal(t,
		ComputePriceRange(once.BasePrice, once.GeneralOptions, once.SubjectOptions),
		ComputePriceRange(twice.BasePrice, twice.GeneralOptions, twice.SubjectOptions))

	require.Equal(t, 1, once.GeneralOptions.OptionGroups[0].ID)
	require.Equal(t, 2, once.GeneralOptions.OptionGroups[0].Selections[1].ID)
	require.Equal(t, 1, once.GeneralOptions.Addons[0].ID)
	require.Equal(t, 2, once.Milestones[1].ID)
	require.Equal(t, 1, once.SubjectOptions[0].ID)
	require.Equal(t, models.TurnaroundDays, once.Unit)

	// the input is left untouched
	require.Zero(t, listing.GeneralOptions.OptionGroups[0].ID)
}

func TestValidateMilestones(t *testing.T) {
	tests := []struct {
		name     string
		flow     models.ListingFlow
		percents []int
		wantErr  bool
	}{
		{name: "does not sum to 100", flow: models.ListingFlowMilestone, percents: []int{30, 30, 30}, wantErr: true},
		{name: "sums to 100", flow: models.ListingFlowMilestone, percents: []int{30, 30, 40}},
		{name: "zero share", flow: models.ListingFlowMilestone, percents: []int{0, 100}, wantErr: true},
		{name: "negative share", flow: models.ListingFlowMilestone, percents: []int{-10, 110}, wantErr: true},
		{name: "none for milestone flow", flow: models.ListingFlowMilestone, wantErr: true},
		{name: "standard flow ignores milestones", flow: models.ListingFlowStandard, percents: []int{10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			milestones := make(models.Milestones, len(tt.percents))
			for i, p := range tt.percents {
				milestones[i] = models.Milestone{ID: i + 1, Percent: p}
			}
			err := ValidateMilestones(tt.flow, milestones)
			if tt.wantErr {
				require.True(t, errors.Is(err, appErrors.ErrValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateListing(t *testing.T) {
	negative := -1
	tests := []struct {
		name   string
		mutate func(*models.CommissionListing)
	}{
		{name: "negative base price", mutate: func(l *models.CommissionListing) { l.BasePrice = d(-1) }},
		{name: "negative slots", mutate: func(l *models.CommissionListing) { l.Slots = &negative }},
		{name: "negative addon", mutate: func(l *models.CommissionListing) { l.GeneralOptions.Addons[0].Price = d(-5) }},
		{name: "duplicate addon ids", mutate: func(l *models.CommissionListing) {
			l.GeneralOptions.Addons = append(l.GeneralOptions.Addons, models.Addon{ID: 1, Label: "dup"})
		}},
		{name: "empty group", mutate: func(l *models.CommissionListing) {
			l.GeneralOptions.OptionGroups = append(l.GeneralOptions.OptionGroups, models.OptionGroup{ID: 7})
		}},
		{name: "blank question", mutate: func(l *models.CommissionListing) { l.GeneralOptions.Questions[0].Text = "" }},
	}
	require.NoError(t, ValidateListing(NormalizeListing(sampleListing())))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := NormalizeListing(sampleListing())
			tt.mutate(&listing)
			require.True(t, errors.Is(ValidateListing(listing), appErrors.ErrValidation))
		})
	}
}

func TestResolveProposalOptions(t *testing.T) {
	listing := sampleListing()
	listing.SubjectOptions = models.SubjectOptions{{
		Title: "Extra character",
		ListingOptions: models.ListingOptions{
			Addons: []models.Addon{{Label: "Wings", Price: d(80)}},
		},
	}}
	listing = NormalizeListing(listing)

	res, err := ResolveProposalOptions(listing,
		models.ProposalOptions{
			Selections: []models.ChosenSelection{{GroupID: 1, SelectionID: 2, Price: d(1)}},
			Addons:     []models.ChosenAddon{{AddonID: 1}},
			Answers:    []models.Answer{{QuestionID: 1, Answer: "  Mira "}},
		},
		models.ProposalSubjects{{SubjectID: 1, ProposalOptions: models.ProposalOptions{
			Addons: []models.ChosenAddon{{AddonID: 1}},
		}}},
	)
	require.NoError(t, err)
	require.True(t, res.CalculatedPrice.Equal(d(1880)), "price %s", res.CalculatedPrice)
	require.True(t, res.General.Selections[0].Price.Equal(d(500)))
	require.Equal(t, "Full body", res.General.Selections[0].Label)
	require.Equal(t, 1, res.General.Selections[0].ID)
	require.Equal(t, "Mira", res.General.Answers[0].Answer)
	require.Equal(t, "Character name?", res.General.Answers[0].Question)
	require.Equal(t, "Extra character", res.Subjects[0].Title)
	require.Equal(t, 1, res.Subjects[0].ID)

	again, err := ResolveProposalOptions(listing, res.General, res.Subjects)
	require.NoError(t, err)
	require.Equal(t, res, again)
}

func TestResolveProposalOptionsRejectsBadReferences(t *testing.T) {
	listing := NormalizeListing(sampleListing())
	tests := []struct {
		name     string
		general  models.ProposalOptions
		subjects models.ProposalSubjects
	}{
		{name: "unknown group", general: models.ProposalOptions{Selections: []models.ChosenSelection{{GroupID: 9, SelectionID: 1}}}},
		{name: "unknown selection", general: models.ProposalOptions{Selections: []models.ChosenSelection{{GroupID: 1, SelectionID: 9}}}},
		{name: "two selections in one group", general: models.ProposalOptions{Selections: []models.ChosenSelection{
			{GroupID: 1, SelectionID: 1}, {GroupID: 1, SelectionID: 2},
		}}},
		{name: "unknown addon", general: models.ProposalOptions{Addons: []models.ChosenAddon{{AddonID: 4}}}},
		{name: "addon twice", general: models.ProposalOptions{Addons: []models.ChosenAddon{{AddonID: 1}, {AddonID: 1}}}},
		{name: "unknown question", general: models.ProposalOptions{Answers: []models.Answer{{QuestionID: 3, Answer: "x"}}}},
		{name: "unknown subject", subjects: models.ProposalSubjects{{SubjectID: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveProposalOptions(listing, tt.general, tt.subjects)
			require.True(t, errors.Is(err, appErrors.ErrValidation), "got %v", err)
		})
	}
}
