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

// Package fields pulls structured business fields out of body and attachment
// text using static per-request-type pattern tables. The tables are built
// once at init and never mutated.
package fields

import "regexp"

// FieldRule is one field's ordered pattern list. Numeric fields have
// thousands separators stripped from their matches, so "2,500.00" is
// collected as "2500.00".
type FieldRule struct {
	Field    string
	Patterns []*regexp.Regexp
	Numeric  bool
}

// ExcelRules declares which spreadsheet columns feed which fields. Deal-name
// columns are scanned whenever deal_name is a priority field for the type.
type ExcelRules struct {
	AmountColumns []string
	DateColumns   []string
}

// RuleSet is one request type's extraction table, partitioned by source.
type RuleSet struct {
	PriorityFields []string
	Body           []FieldRule
	PDF            []FieldRule
	Excel          ExcelRules
}

func rx(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// extractionRules maps request type to its rule set. Unknown types resolve
// to the zero RuleSet, which extracts nothing.
var extractionRules = map[string]RuleSet{
	"Money Movement - Inbound": {
		PriorityFields: []string{"amount", "account_number", "routing_number", "effective_date"},
		Body: []FieldRule{
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					// Loan payment shares first: the specific pattern must win
					// the precedence order over the generic ones.
					`Your share of the USD [\d,]+\.\d{2}.*?payment is USD ([\d,]+\.\d{2})`,
					`(?i)(?:we will remit|remittance).*?USD ([\d,]+\.\d{2})`,
					`\bUSD\s*([\d,]+\.\d{2})\b`,
					`(?i)(?:amount|payment).*?\$([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "account_number",
				Patterns: rx(
					`(?i)account.*?(\d{4,20})`,
					`(?i)acct.*?(\d{4,20})`,
				),
			},
			{
				Field: "routing_number",
				Patterns: rx(
					`(?i)ABA.*?(\d{8,9})`,
					`(?i)routing.*?(\d{8,9})`,
				),
			},
			{
				Field: "effective_date",
				Patterns: rx(
					`(?i)effective.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
					`(?i)date.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
				),
			},
		},
		PDF: []FieldRule{
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					`(?i)total.*?\$?([\d,]+\.\d{2})`,
					`\bUSD\s*([\d,]+\.\d{2})\b`,
				),
			},
			{
				Field: "date",
				Patterns: rx(
					`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`,
					`(?i)effective.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
				),
			},
		},
		Excel: ExcelRules{
			AmountColumns: []string{"Amount", "Value", "Payment"},
			DateColumns:   []string{"Date", "Effective Date"},
		},
	},
	"Money Movement - Outbound": {
		PriorityFields: []string{"amount", "account_number", "routing_number", "effective_date", "currency"},
		Body: []FieldRule{
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					`(?i)amount[\s:]*\$?([\d,]+\.\d{2})`,
					`(?i)transfer.*\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "account_number",
				Patterns: rx(
					`(?i)account.*?(\d{4,20})`,
					`(?i)acct.*?(\d{4,20})`,
				),
			},
			{
				Field: "routing_number",
				Patterns: rx(
					`(?i)ABA.*?(\d{8,9})`,
					`(?i)routing.*?(\d{8,9})`,
				),
			},
			{
				Field: "effective_date",
				Patterns: rx(
					`(?i)effective.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
					`(?i)date.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
				),
			},
			{
				Field: "currency",
				Patterns: rx(
					`(?i)currency.*?([A-Z]{3})`,
					`(?i)payment.*?in\s+([A-Z]{3})`,
				),
			},
		},
		PDF: []FieldRule{
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					`(?i)total.*?\$?([\d,]+\.\d{2})`,
					`\b([A-Z]{3})\s*([\d,]+\.\d{2})\b`,
				),
			},
			{
				Field: "currency",
				Patterns: rx(
					`(?i)currency.*?([A-Z]{3})`,
				),
			},
		},
	},
	"Adjustment": {
		PriorityFields: []string{"adjustment_amount", "effective_date", "deal_name", "previous_balance", "new_balance"},
		Body: []FieldRule{
			{
				Field:   "adjustment_amount",
				Numeric: true,
				Patterns: rx(
					`(?i)adjustment.*?\$?([\d,]+\.\d{2})`,
					`(?i)change.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "effective_date",
				Patterns: rx(
					`(?i)effective.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
				),
			},
			{
				Field: "deal_name",
				Patterns: rx(
					`(?i)deal.*?name.*?([A-Z0-9].*?\b)`,
					`(?i)reference.*?([A-Z0-9].*?\b)`,
				),
			},
			{
				Field:   "previous_balance",
				Numeric: true,
				Patterns: rx(
					`(?i)previous.*?balance.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field:   "new_balance",
				Numeric: true,
				Patterns: rx(
					`(?i)new.*?balance.*?\$?([\d,]+\.\d{2})`,
				),
			},
		},
	},
	"AU Transfer": {
		PriorityFields: []string{"transfer_type", "amount", "deal_name", "effective_date"},
		Body: []FieldRule{
			{
				Field: "transfer_type",
				Patterns: rx(
					`(?i)reallocation\s*(fees|principal)`,
					`(?i)amendment\s*fees`,
				),
			},
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					`(?i)amount.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "deal_name",
				Patterns: rx(
					`(?i)deal.*?name.*?([A-Z0-9].*?\b)`,
				),
			},
		},
	},
	"Closing Notice": {
		PriorityFields: []string{"notice_type", "effective_date", "deal_name", "change_amount"},
		Body: []FieldRule{
			{
				Field: "notice_type",
				Patterns: rx(
					`(?i)cashless\s*roll`,
					`(?i)(decrease|increase)\s*in\s*commitment`,
				),
			},
			{
				Field:   "change_amount",
				Numeric: true,
				Patterns: rx(
					`(?i)change.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "deal_name",
				Patterns: rx(
					`(?i)deal.*?name.*?([A-Z0-9].*?\b)`,
				),
			},
		},
	},
	"Commitment Change": {
		PriorityFields: []string{"new_commitment", "previous_commitment", "effective_date", "deal_name"},
		Body: []FieldRule{
			{
				Field:   "new_commitment",
				Numeric: true,
				Patterns: rx(
					`(?i)new.*?commitment.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field:   "previous_commitment",
				Numeric: true,
				Patterns: rx(
					`(?i)previous.*?commitment.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "deal_name",
				Patterns: rx(
					`(?i)deal.*?name.*?([A-Z0-9].*?\b)`,
				),
			},
		},
	},
	"Fee Payment": {
		PriorityFields: []string{"fee_type", "amount", "due_date", "deal_name"},
		Body: []FieldRule{
			{
				Field: "fee_type",
				Patterns: rx(
					`(?i)ongoing\s*fee`,
					`(?i)letter\s*of\s*credit\s*fee`,
				),
			},
			{
				Field:   "amount",
				Numeric: true,
				Patterns: rx(
					`(?i)amount.*?\$?([\d,]+\.\d{2})`,
					`(?i)fee.*?\$?([\d,]+\.\d{2})`,
				),
			},
			{
				Field: "due_date",
				Patterns: rx(
					`(?i)due.*?date.*?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
				),
			},
			{
				Field: "deal_name",
				Patterns: rx(
					`(?i)deal.*?name.*?([A-Z0-9].*?\b)`,
				),
			},
		},
	},
}
