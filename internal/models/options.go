package models

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// OptionSelection is one mutually exclusive choice inside an OptionGroup.
type OptionSelection struct {
	ID    int             `json:"id"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// OptionGroup offers selections of which the client picks one.
type OptionGroup struct {
	ID         int               `json:"id"`
	Title      string            `json:"title"`
	Selections []OptionSelection `json:"selections"`
}

// Addon is an independently optional, stackable extra.
type Addon struct {
	ID    int             `json:"id"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Question is the canonical form of a listing question.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ListingOptions groups the priced structures of a listing or a subject.
type ListingOptions struct {
	OptionGroups []OptionGroup `json:"optionGroups"`
	Addons       []Addon       `json:"addons"`
	Questions    []Question    `json:"questions"`
}

// Value implements driver.Valuer.
func (o ListingOptions) Value() (driver.Value, error) { return jsonValue(o) }

// Scan implements sql.Scanner.
func (o *ListingOptions) Scan(src interface{}) error { return scanJSON(src, o) }

// SubjectOption is a per-subject variant (e.g. "extra character") of the
// listing options.
type SubjectOption struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	ListingOptions
}

// SubjectOptions is stored as a single jsonb document.
type SubjectOptions []SubjectOption

// Value implements driver.Valuer.
func (s SubjectOptions) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]SubjectOption{})
	}
	return jsonValue([]SubjectOption(s))
}

// Scan implements sql.Scanner.
func (s *SubjectOptions) Scan(src interface{}) error { return scanJSON(src, s) }

// Milestone is a payment checkpoint expressed as a share of the total.
type Milestone struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Percent int    `json:"percent"`
}

// Milestones is stored as a single jsonb document.
type Milestones []Milestone

// Value implements driver.Valuer.
func (m Milestones) Value() (driver.Value, error) {
	if m == nil {
		return jsonValue([]Milestone{})
	}
	return jsonValue([]Milestone(m))
}

// Scan implements sql.Scanner.
func (m *Milestones) Scan(src interface{}) error { return scanJSON(src, m) }

// ChosenSelection records the client's pick within a listing option group,
// priced from the listing.
type ChosenSelection struct {
	ID          int             `json:"id"`
	GroupID     int             `json:"groupId"`
	SelectionID int             `json:"selectionId"`
	GroupTitle  string          `json:"groupTitle,omitempty"`
	Label       string          `json:"label,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// ChosenAddon records an addon the client enabled, priced from the listing.
type ChosenAddon struct {
	ID      int             `json:"id"`
	AddonID int             `json:"addonId"`
	Label   string          `json:"label,omitempty"`
	Price   decimal.Decimal `json:"price"`
}

// Answer is the client's reply to a listing question.
type Answer struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"questionId"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer"`
}

// ProposalOptions are the resolved general choices of a proposal.
type ProposalOptions struct {
	Selections []ChosenSelection `json:"selections"`
	Addons     []ChosenAddon     `json:"addons"`
	Answers    []Answer          `json:"answers"`
}

// Value implements driver.Valuer.
func (o ProposalOptions) Value() (driver.Value, error) { return jsonValue(o) }

// Scan implements sql.Scanner.
func (o *ProposalOptions) Scan(src interface{}) error { return scanJSON(src, o) }

// ProposalSubject holds the choices made for one listing subject.
type ProposalSubject struct {
	ID        int    `json:"id"`
	SubjectID int    `json:"subjectId"`
	Title     string `json:"title,omitempty"`
	ProposalOptions
}

// ProposalSubjects is stored as a single jsonb document.
type ProposalSubjects []ProposalSubject

// Value implements driver.Valuer.
func (s ProposalSubjects) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]ProposalSubject{})
	}
	return jsonValue([]ProposalSubject(s))
}

// Scan implements sql.Scanner.
func (s *ProposalSubjects) Scan(src interface{}) error { return scanJSON(src, s) }
