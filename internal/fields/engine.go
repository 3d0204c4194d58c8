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

package fields

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ExtractedFields maps field name to matched values in pattern-evaluation
// order. Values from later patterns append; nothing overwrites and nothing
// is deduplicated.
type ExtractedFields map[string][]string

// Merge appends the other result's values onto this one, field by field.
func (f ExtractedFields) Merge(other ExtractedFields) {
	for field, values := range other {
		f[field] = append(f[field], values...)
	}
}

// Engine applies one request type's extraction table. Unknown request types
// get the empty table and extract nothing; that is never an error.
type Engine struct {
	requestType string
	rules       RuleSet
}

// NewEngine creates an engine for a classified request type.
func NewEngine(requestType string) *Engine {
	return &Engine{
		requestType: requestType,
		rules:       extractionRules[requestType],
	}
}

// PriorityFields returns the fields that matter most for this request type,
// in table order.
func (e *Engine) PriorityFields() []string {
	return e.rules.PriorityFields
}

// ExtractFromText applies the body pattern table to the given text.
func (e *Engine) ExtractFromText(text string) ExtractedFields {
	return applyRules(e.rules.Body, text)
}

// ExtractFromAttachment dispatches on the attachment's extension to its
// format sub-table. PDF uses pattern rules over the extracted text;
// spreadsheets scan the declared columns of the flat-rendered table.
func (e *Engine) ExtractFromAttachment(filename, text string) ExtractedFields {
	results := make(ExtractedFields)
	if text == "" {
		return results
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return applyRules(e.rules.PDF, text)
	case "xls", "xlsx", "csv":
		return e.extractFromTable(text)
	}
	return results
}

// applyRules collects every match of every pattern, field by field, in table
// order. A pattern with capture groups contributes each non-empty group per
// occurrence; a group-free pattern contributes the whole match.
func applyRules(rules []FieldRule, text string) ExtractedFields {
	results := make(ExtractedFields)
	if text == "" {
		return results
	}

	for _, rule := range rules {
		for _, pattern := range rule.Patterns {
			for _, m := range pattern.FindAllStringSubmatch(text, -1) {
				if pattern.NumSubexp() == 0 {
					results[rule.Field] = append(results[rule.Field], normalize(m[0], rule.Numeric))
					continue
				}
				for _, group := range m[1:] {
					if group == "" {
						continue
					}
					results[rule.Field] = append(results[rule.Field], normalize(group, rule.Numeric))
				}
			}
		}
	}
	return results
}

// normalize strips thousands separators from numeric matches.
func normalize(value string, numeric bool) string {
	if numeric {
		return strings.ReplaceAll(value, ",", "")
	}
	return value
}

var cellAmount = regexp.MustCompile(`(\d+\.\d{2})`)

// extractFromTable scans a flat-rendered table (rows joined by newlines,
// cells by pipes) for the declared amount, date and deal-name columns.
// Malformed tables contribute nothing rather than failing the call.
func (e *Engine) extractFromTable(text string) ExtractedFields {
	results := make(ExtractedFields)

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return results
	}
	header := splitRow(lines[0])
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitRow(line))
	}

	collect := func(col int, field string, numericOnly bool) {
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			if numericOnly {
				m := cellAmount.FindStringSubmatch(strings.ReplaceAll(cell, ",", ""))
				if m == nil {
					continue
				}
				cell = m[1]
			}
			results[field] = append(results[field], cell)
		}
	}

	for i, name := range header {
		name = strings.TrimSpace(name)
		if containsFold(e.rules.Excel.AmountColumns, name) {
			collect(i, "amount", true)
		}
		if containsFold(e.rules.Excel.DateColumns, name) {
			collect(i, "effective_date", false)
		}
	}

	if containsFold(e.rules.PriorityFields, "deal_name") {
		for i, name := range header {
			lower := strings.ToLower(name)
			if strings.Contains(lower, "deal") || strings.Contains(lower, "name") {
				collect(i, "deal_name", false)
			}
		}
	}

	return results
}

func splitRow(line string) []string {
	return strings.Split(line, " | ")
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
