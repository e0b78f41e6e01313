package domain

import "time"

// ChangedFields flags which proposed values differ from the current record.
type ChangedFields struct {
	Category bool `json:"category"`
	Brand    bool `json:"brand"`
	Image    bool `json:"image"`
}

// Any reports whether at least one field changed.
func (c ChangedFields) Any() bool {
	return c.Category || c.Brand || c.Image
}

// EnrichmentResult is the proposal for one record. It is built once per run
// and never mutated afterwards. Current carries the values the proposal was
// computed from so the applier can detect concurrent edits.
type EnrichmentResult struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	ProposedCategory    string         `json:"proposedCategory"`
	CategoryRule        string         `json:"categoryRule,omitempty"`
	CategorySource      MatchSource    `json:"categorySource"`
	ProposedBrand       string         `json:"proposedBrand"`
	BrandRule           string         `json:"brandRule,omitempty"`
	ProposedImage       ImageReference `json:"proposedImage"`
	ProposedImageFields ImageFields    `json:"proposedImageFields"`
	FallbackImage       string         `json:"fallbackImage,omitempty"`
	Changed             ChangedFields  `json:"changed"`
	Current             ProductRecord  `json:"current"`
}

// ChangesetSummary aggregates a run for reports and CLI output.
type ChangesetSummary struct {
	Total           int `json:"total"`
	Changed         int `json:"changed"`
	CategoryChanges int `json:"categoryChanges"`
	BrandChanges    int `json:"brandChanges"`
	ImageChanges    int `json:"imageChanges"`
	Unclassified    int `json:"unclassified"`
	GenericBrand    int `json:"genericBrand"`
	MissingImages   int `json:"missingImages"`
}

// Changeset is the output of one pipeline run, not yet applied to storage.
type Changeset struct {
	RunID       string             `json:"runId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Version     string             `json:"rulebookVersion,omitempty"`
	Results     []EnrichmentResult `json:"results"`
	Summary     ChangesetSummary   `json:"summary"`
}

// ApplyReport describes what the applier wrote.
type ApplyReport struct {
	Applied   int           `json:"applied"`
	Unchanged int           `json:"unchanged"`
	Conflicts int           `json:"conflicts"`
	Failures  []RecordError `json:"failures,omitempty"`
}

// ImageAudit is the outcome of an explicit reachability check for one record.
type ImageAudit struct {
	ID        string         `json:"id"`
	Image     ImageReference `json:"image"`
	Reachable bool           `json:"reachable"`
	Cached    bool           `json:"cached"`
	Err       error          `json:"-"`
}
