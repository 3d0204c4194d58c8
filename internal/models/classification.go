// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

// PriorityLevel orders requests for assignee-tier resolution.
type PriorityLevel int

const (
	PriorityLow PriorityLevel = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String returns the level name used in routing tables and JSON output.
func (p PriorityLevel) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// RequestTypes is the static catalogue of supported request types and their
// sub-types. Loaded once; never mutated at run time.
var RequestTypes = map[string][]string{
	"Adjustment":                {},
	"AU Transfer":               {"Reallocation Fees", "Amendment Fees", "Reallocation Principal"},
	"Closing Notice":            {"Cashless Roll", "Decrease", "Increase"},
	"Commitment Change":         {},
	"Fee Payment":               {"Ongoing Fee", "Letter of Credit Fee"},
	"Money Movement - Inbound":  {"Principal", "Interest", "Principal + Interest", "Principal + Interest + Fee"},
	"Money Movement - Outbound": {"Timebound", "Foreign Currency"},
}

// DefaultPriorities maps each request type to its standing priority.
// Unknown types fall back to PriorityLow.
var DefaultPriorities = map[string]PriorityLevel{
	"Money Movement - Inbound":  PriorityCritical,
	"Money Movement - Outbound": PriorityCritical,
	"Closing Notice":            PriorityHigh,
	"Commitment Change":         PriorityHigh,
	"Fee Payment":               PriorityMedium,
	"AU Transfer":               PriorityMedium,
	"Adjustment":                PriorityMedium,
}

// PriorityFor returns the standing priority for a request type.
func PriorityFor(requestType string) PriorityLevel {
	if p, ok := DefaultPriorities[requestType]; ok {
		return p
	}
	return PriorityLow
}

// Classification is one typed request produced by the classifier service,
// validated at the boundary.
type Classification struct {
	RequestType     string            `json:"request_type"`
	SubRequestType  string            `json:"sub_request_type,omitempty"`
	ConfidenceScore float64           `json:"confidence_score"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Priority        PriorityLevel     `json:"priority"`
	IsDuplicate     bool              `json:"is_duplicate"`
	DuplicateReason string            `json:"duplicate_reason,omitempty"`
}

// MultiRequestResult holds the classifier's full answer: one primary request
// plus any secondary requests found in the same submission.
type MultiRequestResult struct {
	Primary         Classification    `json:"primary_request"`
	Secondary       []Classification  `json:"secondary_requests,omitempty"`
	IsThread        bool              `json:"is_thread"`
	ThreadRelations map[string]string `json:"thread_relations,omitempty"`
}

// RoutingDecision is the resolver output for one classified request.
// Reason is populated only on non-assignment.
type RoutingDecision struct {
	Team       string  `json:"team"`
	Assignee   string  `json:"assignee,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	AutoAssign bool    `json:"auto_assign"`
	Confidence float64 `json:"confidence_score"`
	Priority   string  `json:"priority"`
}

// TriageResult is the full pipeline output for one submission.
type TriageResult struct {
	SubmissionID string                `json:"submission_id"`
	Message      *ParsedMessage        `json:"message"`
	Attachments  []ExtractedAttachment `json:"attachments"`
	Fingerprint  string                `json:"fingerprint"`
	IsDuplicate  bool                  `json:"is_duplicate"`
	DuplicateOf  string                `json:"duplicate_reason,omitempty"`
	Request      *MultiRequestResult   `json:"request,omitempty"`
	Fields       map[string][]string   `json:"fields,omitempty"`
	Routing      *RoutingDecision      `json:"routing,omitempty"`
}
