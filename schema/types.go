package schema

import "time"

// IntentKind classifies what a query is asking for.
type IntentKind string

const (
	IntentLiterature IntentKind = "literature"
	IntentTrial      IntentKind = "trial"
	IntentDrug       IntentKind = "drug"
	IntentGeneral    IntentKind = "general"
)

// SourceType tags where a retrieval record came from.
type SourceType string

const (
	SourcePubMed SourceType = "pubmed"
	SourceTrial  SourceType = "clinical_trial"
	SourceDrug   SourceType = "fda_drug"
)

// DataOrigin records which stage of the degradation chain produced a result set.
type DataOrigin string

const (
	OriginLive      DataOrigin = "live"
	OriginCache     DataOrigin = "cache"
	OriginSynthetic DataOrigin = "synthetic"
)

// Filters narrows a search. Zero value means unfiltered.
type Filters struct {
	DateFrom   string   `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo     string   `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Statuses   []string `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Phases     []string `json:"phases,omitempty" yaml:"phases,omitempty"`
	Locations  []string `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f.DateFrom == "" && f.DateTo == "" && len(f.Categories) == 0 &&
		len(f.Statuses) == 0 && len(f.Phases) == 0 && len(f.Locations) == 0
}

// Query is the immutable input to one retrieval session. The orchestrator
// may substitute a rewritten standalone form before routing; downstream
// components only ever see the substituted value.
type Query struct {
	Text    string    `json:"text"`
	Vector  []float32 `json:"-"`
	Filters Filters   `json:"filters,omitempty"`
}

// Intent is the routing decision for one query.
type Intent struct {
	Kind           IntentKind          `json:"kind"`
	Confidence     float64             `json:"confidence"`
	Entities       map[string][]string `json:"entities,omitempty"`
	SelectedAgents []SourceType        `json:"selected_agents"`
	RewrittenQuery string              `json:"rewritten_query,omitempty"`
}

// RetrievalRecord is one candidate result in the common shape shared by
// every specialist agent. Relevance is always normalized to [0,1].
type RetrievalRecord struct {
	ID        string            `json:"id"`
	Source    SourceType        `json:"source_type"`
	Title     string            `json:"title"`
	Abstract  string            `json:"abstract,omitempty"`
	Relevance float64           `json:"relevance_score"`
	Date      string            `json:"date,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AgentOutcome is the result of one specialist agent invocation.
type AgentOutcome struct {
	Agent   SourceType        `json:"agent"`
	Records []RetrievalRecord `json:"records"`
	Origin  DataOrigin        `json:"origin"`
	Err     string            `json:"error,omitempty"`
}

// Empty reports whether the outcome carries no usable records.
func (o AgentOutcome) Empty() bool { return len(o.Records) == 0 }

// ConfidenceBand is the coarse trust label attached to an answer.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "High"
	BandMedium ConfidenceBand = "Medium"
	BandLow    ConfidenceBand = "Low"
)

// ConfidenceAssessment is derived once from the merged records.
type ConfidenceAssessment struct {
	Score           float64        `json:"confidence_score"`
	Band            ConfidenceBand `json:"confidence_band"`
	Recency         float64        `json:"recency_score"`
	Conflicts       bool           `json:"conflicts"`
	ConflictSummary string         `json:"conflict_summary,omitempty"`
}

// Citation is one entry in the ranked citation list handed to synthesis.
type Citation struct {
	ID        string            `json:"id"`
	Source    SourceType        `json:"source_type"`
	Title     string            `json:"title"`
	Relevance float64           `json:"relevance_score"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// SessionStatus is the lifecycle of one workflow session.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
	StatusFailed    SessionStatus = "failed"
)

// WorkflowState is the orchestrator's running record for one session.
// Exactly one orchestrating task writes it at a time.
type WorkflowState struct {
	SessionID  string                       `json:"session_id"`
	Query      Query                        `json:"query"`
	Intent     *Intent                      `json:"intent,omitempty"`
	Outcomes   map[SourceType]AgentOutcome  `json:"outcomes,omitempty"`
	Assessment *ConfidenceAssessment        `json:"assessment,omitempty"`
	Citations  []Citation                   `json:"citations,omitempty"`
	Synthesis  string                       `json:"synthesis_payload,omitempty"`
	Errors     []string                     `json:"errors,omitempty"`
	Progress   int                          `json:"progress"`
	Step       string                       `json:"step"`
	Status     SessionStatus                `json:"status"`
	StartedAt  time.Time                    `json:"started_at"`
	FinishedAt time.Time                    `json:"finished_at,omitempty"`
}

// ProgressEvent is pushed to the progress sink at each state transition.
type ProgressEvent struct {
	Status   SessionStatus `json:"status"`
	Message  string        `json:"message"`
	Progress int           `json:"progress"`
	Step     string        `json:"step"`
}

// Session is the persisted view of one workflow execution.
type Session struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Status    SessionStatus `json:"status"`
	Response  string        `json:"response,omitempty"`
	Citations []Citation    `json:"citations,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
