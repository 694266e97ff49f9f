package options

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// Resolution is a client's choice set priced against a listing.
type Resolution struct {
	General         models.ProposalOptions
	Subjects        models.ProposalSubjects
	CalculatedPrice decimal.Decimal
}

// ResolveProposalOptions checks every reference in the submitted choices
// against listing and copies labels and prices from the listing. Prices sent
// by the client are ignored.
func ResolveProposalOptions(listing models.CommissionListing, general models.ProposalOptions, subjects models.ProposalSubjects) (Resolution, error) {
	resolvedGeneral, sum, err := resolveChoices("generalOptions", listing.GeneralOptions, general)
	if err != nil {
		return Resolution{}, err
	}
	total := listing.BasePrice.Add(sum)

	byID := make(map[int]models.SubjectOption, len(listing.SubjectOptions))
	for _, subject := range listing.SubjectOptions {
		byID[subject.ID] = subject
	}
	resolvedSubjects := make(models.ProposalSubjects, len(subjects))
	for i, chosen := range subjects {
		subject, ok := byID[chosen.SubjectID]
		if !ok {
			return Resolution{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown subject %d", chosen.SubjectID))
		}
		opts, subtotal, err := resolveChoices(fmt.Sprintf("subject %d", subject.ID), subject.ListingOptions, chosen.ProposalOptions)
		if err != nil {
			return Resolution{}, err
		}
		resolvedSubjects[i] = models.ProposalSubject{
			ID:              chosen.ID,
			SubjectID:       subject.ID,
			Title:           subject.Title,
			ProposalOptions: opts,
		}
		total = total.Add(subtotal)
	}
	assignIDs(resolvedSubjects, func(s *models.ProposalSubject) *int { return &s.ID })

	return Resolution{General: resolvedGeneral, Subjects: resolvedSubjects, CalculatedPrice: total}, nil
}

func resolveChoices(scope string, opts models.ListingOptions, in models.ProposalOptions) (models.ProposalOptions, decimal.Decimal, error) {
	sum := decimal.Zero
	out := models.ProposalOptions{
		Selections: make([]models.ChosenSelection, 0, len(in.Selections)),
		Addons:     make([]models.ChosenAddon, 0, len(in.Addons)),
		Answers:    make([]models.Answer, 0, len(in.Answers)),
	}

	groups := make(map[int]models.OptionGroup, len(opts.OptionGroups))
	for _, group := range opts.OptionGroups {
		groups[group.ID] = group
	}
	chosenGroups := make(map[int]struct{}, len(in.Selections))
	for _, ref := range in.Selections {
		group, ok := groups[ref.GroupID]
		if !ok {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: unknown option group %d", scope, ref.GroupID))
		}
		if _, dup := chosenGroups[group.ID]; dup {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: only one selection allowed in option group %d", scope, group.ID))
		}
		selection, ok := findSelection(group, ref.SelectionID)
		if !ok {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: unknown selection %d in option group %d", scope, ref.SelectionID, group.ID))
		}
		chosenGroups[group.ID] = struct{}{}
		out.Selections = append(out.Selections, models.ChosenSelection{
			ID:          ref.ID,
			GroupID:     group.ID,
			SelectionID: selection.ID,
			GroupTitle:  group.Title,
			Label:       selection.Label,
			Price:       selection.Price,
		})
		sum = sum.Add(selection.Price)
	}

	addons := make(map[int]models.Addon, len(opts.Addons))
	for _, addon := range opts.Addons {
		addons[addon.ID] = addon
	}
	chosenAddons := make(map[int]struct{}, len(in.Addons))
	for _, ref := range in.Addons {
		addon, ok := addons[ref.AddonID]
		if !ok {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: unknown addon %d", scope, ref.AddonID))
		}
		if _, dup := chosenAddons[addon.ID]; dup {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: addon %d chosen twice", scope, addon.ID))
		}
		chosenAddons[addon.ID] = struct{}{}
		out.Addons = append(out.Addons, models.ChosenAddon{ID: ref.ID, AddonID: addon.ID, Label: addon.Label, Price: addon.Price})
		sum = sum.Add(addon.Price)
	}

	questions := make(map[int]models.Question, len(opts.Questions))
	for _, question := range opts.Questions {
		questions[question.ID] = question
	}
	answered := make(map[int]struct{}, len(in.Answers))
	for _, ref := range in.Answers {
		question, ok := questions[ref.QuestionID]
		if !ok {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: unknown question %d", scope, ref.QuestionID))
		}
		if _, dup := answered[question.ID]; dup {
			return out, sum, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: question %d answered twice", scope, question.ID))
		}
		answered[question.ID] = struct{}{}
		out.Answers = append(out.Answers, models.Answer{
			ID:         ref.ID,
			QuestionID: question.ID,
			Question:   question.Text,
			Answer:     strings.TrimSpace(ref.Answer),
		})
	}

	assignIDs(out.Selections, func(s *models.ChosenSelection) *int { return &s.ID })
	assignIDs(out.Addons, func(a *models.ChosenAddon) *int { return &a.ID })
	assignIDs(out.Answers, func(a *models.Answer) *int { return &a.ID })
	return out, sum, nil
}

func findSelection(group models.OptionGroup, id int) (models.OptionSelection, bool) {
	for _, selection := range group.Selections {
		if selection.ID == id {
			return selection, true
		}
	}
	return models.OptionSelection{}, false
}
