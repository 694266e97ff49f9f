// Package options canonicalizes listing option structures, computes price
// ranges and prices the choices a client makes against a listing.
package options

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// NormalizeListingOptions returns a copy of opts where every group,
// selection, addon and question has an id. Ids already present are kept.
func NormalizeListingOptions(opts models.ListingOptions) models.ListingOptions {
	out := models.ListingOptions{
		OptionGroups: make([]models.OptionGroup, len(opts.OptionGroups)),
		Addons:       append([]models.Addon{}, opts.Addons...),
		Questions:    append([]models.Question{}, opts.Questions...),
	}
	for i, group := range opts.OptionGroups {
		group.Title = strings.TrimSpace(group.Title)
		group.Selections = append([]models.OptionSelection{}, group.Selections...)
		assignIDs(group.Selections, func(s *models.OptionSelection) *int { return &s.ID })
		out.OptionGroups[i] = group
	}
	assignIDs(out.OptionGroups, func(g *models.OptionGroup) *int { return &g.ID })
	assignIDs(out.Addons, func(a *models.Addon) *int { return &a.ID })
	for i := range out.Questions {
		out.Questions[i].Text = strings.TrimSpace(out.Questions[i].Text)
	}
	assignIDs(out.Questions, func(q *models.Question) *int { return &q.ID })
	return out
}

// NormalizeSubjects normalizes every subject and its nested options.
func NormalizeSubjects(subjects models.SubjectOptions) models.SubjectOptions {
	out := make(models.SubjectOptions, len(subjects))
	for i, subject := range subjects {
		subject.Title = strings.TrimSpace(subject.Title)
		subject.ListingOptions = NormalizeListingOptions(subject.ListingOptions)
		out[i] = subject
	}
	assignIDs(out, func(s *models.SubjectOption) *int { return &s.ID })
	return out
}

// NormalizeMilestones returns a copy of milestones with ids assigned.
func NormalizeMilestones(milestones models.Milestones) models.Milestones {
	out := append(models.Milestones{}, milestones...)
	assignIDs(out, func(m *models.Milestone) *int { return &m.ID })
	return out
}

// NormalizeListing canonicalizes every nested structure of listing.
func NormalizeListing(listing models.CommissionListing) models.CommissionListing {
	listing.GeneralOptions = NormalizeListingOptions(listing.GeneralOptions)
	listing.SubjectOptions = NormalizeSubjects(listing.SubjectOptions)
	listing.Milestones = NormalizeMilestones(listing.Milestones)
	if listing.Unit == "" {
		listing.Unit = models.TurnaroundDays
	}
	return listing
}

// ValidateListing checks a normalized listing for inconsistent pricing,
// duplicate ids, slot bounds and milestone shares.
func ValidateListing(listing models.CommissionListing) error {
	if listing.BasePrice.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "basePrice must not be negative")
	}
	if listing.Slots != nil && *listing.Slots < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "slots must not be negative")
	}
	if listing.Slots != nil && listing.SlotsUsed > *listing.Slots {
		return appErrors.Clone(appErrors.ErrValidation, "slots cannot be lower than slots already used")
	}
	if listing.RushFee != nil && listing.RushFee.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "rushFee must not be negative")
	}
	if err := validateOptions("generalOptions", listing.GeneralOptions); err != nil {
		return err
	}
	if id, dup := hasDuplicateIDs(listing.SubjectOptions, func(s *models.SubjectOption) *int { return &s.ID }); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate subject id %d", id))
	}
	for _, subject := range listing.SubjectOptions {
		if subject.Title == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %d requires a title", subject.ID))
		}
		if err := validateOptions(fmt.Sprintf("subject %d", subject.ID), subject.ListingOptions); err != nil {
			return err
		}
	}
	return ValidateMilestones(listing.Flow, listing.Milestones)
}

func validateOptions(scope string, opts models.ListingOptions) error {
	if id, dup := hasDuplicateIDs(opts.OptionGroups, func(g *models.OptionGroup) *int { return &g.ID }); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: duplicate option group id %d", scope, id))
	}
	for _, group := range opts.OptionGroups {
		if len(group.Selections) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: option group %d has no selections", scope, group.ID))
		}
		if id, dup := hasDuplicateIDs(group.Selections, func(s *models.OptionSelection) *int { return &s.ID }); dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: option group %d has duplicate selection id %d", scope, group.ID, id))
		}
		for _, selection := range group.Selections {
			if selection.Price.IsNegative() {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: selection %d price must not be negative", scope, selection.ID))
			}
		}
	}
	if id, dup := hasDuplicateIDs(opts.Addons, func(a *models.Addon) *int { return &a.ID }); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: duplicate addon id %d", scope, id))
	}
	for _, addon := range opts.Addons {
		if addon.Price.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: addon %d price must not be negative", scope, addon.ID))
		}
	}
	if id, dup := hasDuplicateIDs(opts.Questions, func(q *models.Question) *int { return &q.ID }); dup {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: duplicate question id %d", scope, id))
	}
	for _, question := range opts.Questions {
		if question.Text == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: question %d has no text", scope, question.ID))
		}
	}
	return nil
}

// ValidateMilestones requires a milestone listing to split the total into
// positive shares adding up to exactly 100 percent.
func ValidateMilestones(flow models.ListingFlow, milestones models.Milestones) error {
	if flow != models.ListingFlowMilestone {
		return nil
	}
	if len(milestones) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "milestone flow requires at least one milestone")
	}
	total := 0
	for _, m := range milestones {
		if m.Percent <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("milestone %d percent must be positive", m.ID))
		}
		total += m.Percent
	}
	if total != 100 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("milestone percentages must sum to 100, got %d", total))
	}
	return nil
}

// ComputePriceRange returns the cheapest configuration (one cheapest
// selection per group, no addons) and the most expensive one (every
// selection and every addon) over the general and subject options.
func ComputePriceRange(base decimal.Decimal, general models.ListingOptions, subjects models.SubjectOptions) models.PriceRange {
	lo, hi := base, base
	add := func(opts models.ListingOptions) {
		for _, group := range opts.OptionGroups {
			for _, selection := range group.Selections {
				hi = hi.Add(selection.Price)
			}
			if cheapest, ok := cheapestSelection(group); ok {
				lo = lo.Add(cheapest)
			}
		}
		for _, addon := range opts.Addons {
			hi = hi.Add(addon.Price)
		}
	}
	add(general)
	for _, subject := range subjects {
		add(subject.ListingOptions)
	}
	return models.PriceRange{Min: lo, Max: hi}
}

func cheapestSelection(group models.OptionGroup) (decimal.Decimal, bool) {
	if len(group.Selections) == 0 {
		return decimal.Zero, false
	}
	cheapest := group.Selections[0].Price
	for _, selection := range group.Selections[1:] {
		if selection.Price.LessThan(cheapest) {
			cheapest = selection.Price
		}
	}
	return cheapest, true
}
