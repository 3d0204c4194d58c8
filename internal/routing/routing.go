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

// Package routing maps classified requests to handling teams. Pure functions
// over static routing tables and a team registry; a missing rule is a
// defined Unassigned outcome, not an error.
package routing

import (
	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// UnassignedTeam is the sentinel team for requests no rule or team covers.
const UnassignedTeam = "Unassigned"

// Rule is one request type's routing target.
type Rule struct {
	Team              string
	RequiredSkills    []string
	PriorityThreshold float64
	// PriorityMapping resolves an assignee tier from the request priority.
	PriorityMapping map[models.PriorityLevel]string
}

// routingRules maps request type to its routing rule. Static tables; loaded
// once, never mutated.
var routingRules = map[string]Rule{
	"Money Movement - Inbound": {
		Team:              "Payments Processing",
		RequiredSkills:    []string{"payment_verification", "fraud_detection"},
		PriorityThreshold: 0.8,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Senior Processor",
			models.PriorityHigh:     "Processor II",
			models.PriorityMedium:   "Processor I",
			models.PriorityLow:      "Junior Processor",
		},
	},
	"Money Movement - Outbound": {
		Team:              "Payments Processing",
		RequiredSkills:    []string{"payment_verification", "compliance_check"},
		PriorityThreshold: 0.8,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Senior Processor",
			models.PriorityHigh:     "Processor II",
			models.PriorityMedium:   "Processor I",
			models.PriorityLow:      "Junior Processor",
		},
	},
	"Adjustment": {
		Team:              "Account Management",
		RequiredSkills:    []string{"account_reconciliation"},
		PriorityThreshold: 0.7,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Account Manager",
			models.PriorityHigh:     "Senior Account Specialist",
			models.PriorityMedium:   "Account Specialist",
			models.PriorityLow:      "Junior Account Specialist",
		},
	},
	"Commitment Change": {
		Team:              "Account Management",
		RequiredSkills:    []string{"account_reconciliation"},
		PriorityThreshold: 0.7,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Account Manager",
			models.PriorityHigh:     "Senior Account Specialist",
			models.PriorityMedium:   "Account Specialist",
			models.PriorityLow:      "Junior Account Specialist",
		},
	},
	"AU Transfer": {
		Team:              "Loan Servicing",
		RequiredSkills:    []string{"facility_management"},
		PriorityThreshold: 0.7,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Senior Servicing Officer",
			models.PriorityHigh:     "Servicing Officer II",
			models.PriorityMedium:   "Servicing Officer I",
			models.PriorityLow:      "Junior Servicing Officer",
		},
	},
	"Closing Notice": {
		Team:              "Loan Servicing",
		RequiredSkills:    []string{"facility_management", "document_review"},
		PriorityThreshold: 0.7,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Senior Servicing Officer",
			models.PriorityHigh:     "Servicing Officer II",
			models.PriorityMedium:   "Servicing Officer I",
			models.PriorityLow:      "Junior Servicing Officer",
		},
	},
	"Fee Payment": {
		Team:              "Fee Operations",
		RequiredSkills:    []string{"fee_processing"},
		PriorityThreshold: 0.7,
		PriorityMapping: map[models.PriorityLevel]string{
			models.PriorityCritical: "Senior Fee Analyst",
			models.PriorityHigh:     "Fee Analyst II",
			models.PriorityMedium:   "Fee Analyst I",
			models.PriorityLow:      "Junior Fee Analyst",
		},
	},
}

// DefaultTeams is the standing team registry: team name to skills.
var DefaultTeams = map[string][]string{
	"Payments Processing": {"payment_verification", "fraud_detection", "compliance_check"},
	"Account Management":  {"account_reconciliation", "balance_verification"},
	"Loan Servicing":      {"facility_management", "document_review"},
	"Fee Operations":      {"fee_processing"},
}

// Router resolves teams and assignees for classified requests.
type Router struct {
	teams map[string][]string
}

// NewRouter creates a router over a team registry of {name -> skills}.
func NewRouter(teams map[string][]string) *Router {
	return &Router{teams: teams}
}

// Route resolves a classified request to a team and, above the rule's
// confidence threshold, an assignee tier.
func (r *Router) Route(requestType string, confidence float64, priority models.PriorityLevel) models.RoutingDecision {
	rule, ok := routingRules[requestType]
	if !ok {
		return models.RoutingDecision{
			Team:       UnassignedTeam,
			Reason:     "no routing rule for this request type",
			AutoAssign: false,
			Confidence: confidence,
			Priority:   priority.String(),
		}
	}

	team, ok := r.suitableTeam(rule)
	if !ok {
		return models.RoutingDecision{
			Team:       UnassignedTeam,
			Reason:     "no team with required skills available",
			AutoAssign: false,
			Confidence: confidence,
			Priority:   priority.String(),
		}
	}

	decision := models.RoutingDecision{
		Team:       team,
		AutoAssign: confidence >= rule.PriorityThreshold,
		Confidence: confidence,
		Priority:   priority.String(),
	}
	if decision.AutoAssign {
		assignee, ok := rule.PriorityMapping[priority]
		if !ok {
			assignee = UnassignedTeam
		}
		decision.Assignee = assignee
	}
	return decision
}

// suitableTeam finds the registered team matching the rule's declared team
// name that possesses every required skill.
func (r *Router) suitableTeam(rule Rule) (string, bool) {
	skills, registered := r.teams[rule.Team]
	if !registered {
		return "", false
	}
	for _, required := range rule.RequiredSkills {
		if !contains(skills, required) {
			return "", false
		}
	}
	return rule.Team, true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
