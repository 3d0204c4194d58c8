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
	"reflect"
	"strings"
	"testing"
)

// TestInboundLoanShare verifies the payment-share pattern wins precedence and
// that numeric matches lose their thousands separators.
func TestInboundLoanShare(t *testing.T) {
	e := NewEngine("Money Movement - Inbound")
	body := "Your share of the USD 10,000.00 loan payment is USD 2,500.00"

	got := e.ExtractFromText(body)

	amounts := got["amount"]
	if len(amounts) == 0 {
		t.Fatal("no amount extracted")
	}
	if amounts[0] != "2500.00" {
		t.Errorf("amounts[0] = %q, want the payment share 2500.00 first", amounts[0])
	}
	for _, a := range amounts {
		if strings.Contains(a, ",") {
			t.Errorf("amount %q still carries a thousands separator", a)
		}
	}
}

func TestExtractFromText(t *testing.T) {
	tests := []struct {
		name        string
		requestType string
		text        string
		field       string
		want        []string
	}{
		{
			name:        "inbound remittance",
			requestType: "Money Movement - Inbound",
			text:        "We will remit USD 1,234.56 to your account 98765432, ABA 021000021.",
			field:       "routing_number",
			want:        []string{"021000021"},
		},
		{
			name:        "inbound effective date",
			requestType: "Money Movement - Inbound",
			text:        "The payment is effective 03/15/2026 per the agreement.",
			field:       "effective_date",
			want:        []string{"03/15/2026"},
		},
		{
			name:        "outbound currency",
			requestType: "Money Movement - Outbound",
			text:        "Please process the payment in EUR at your earliest convenience.",
			field:       "currency",
			want:        []string{"EUR"},
		},
		{
			name:        "adjustment balances",
			requestType: "Adjustment",
			text:        "Previous balance $5,000.00 adjusted; new balance $4,250.00.",
			field:       "new_balance",
			want:        []string{"4250.00"},
		},
		{
			name:        "fee payment full match",
			requestType: "Fee Payment",
			text:        "The ongoing fee for the facility is due.",
			field:       "fee_type",
			want:        []string{"ongoing fee"},
		},
		{
			name:        "unknown type extracts nothing",
			requestType: "Totally Made Up",
			text:        "We will remit USD 1,234.56 to your account.",
			field:       "amount",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEngine(tt.requestType).ExtractFromText(tt.text)
			if !reflect.DeepEqual(got[tt.field], tt.want) {
				t.Errorf("%s = %v, want %v", tt.field, got[tt.field], tt.want)
			}
		})
	}
}

// TestMatchesAppend verifies repeated matches all land in order; nothing is
// deduplicated or overwritten.
func TestMatchesAppend(t *testing.T) {
	e := NewEngine("Money Movement - Inbound")
	got := e.ExtractFromText("USD 100.00 then USD 100.00 then USD 200.00")

	want := []string{"100.00", "100.00", "200.00"}
	if !reflect.DeepEqual(got["amount"], want) {
		t.Errorf("amount = %v, want %v", got["amount"], want)
	}
}

func TestMerge(t *testing.T) {
	a := ExtractedFields{"amount": {"100.00"}}
	b := ExtractedFields{"amount": {"200.00"}, "currency": {"USD"}}

	a.Merge(b)

	if !reflect.DeepEqual(a["amount"], []string{"100.00", "200.00"}) {
		t.Errorf("amount = %v after merge", a["amount"])
	}
	if !reflect.DeepEqual(a["currency"], []string{"USD"}) {
		t.Errorf("currency = %v after merge", a["currency"])
	}
}

// TestExtractFromAttachmentPDF verifies PDFs get the PDF pattern table, not
// the body one.
func TestExtractFromAttachmentPDF(t *testing.T) {
	e := NewEngine("Money Movement - Inbound")
	got := e.ExtractFromAttachment("notice.pdf", "Total due: $3,500.00 effective 01/02/2026")

	if !reflect.DeepEqual(got["amount"], []string{"3500.00"}) {
		t.Errorf("amount = %v", got["amount"])
	}
	// Both date patterns hit, and matches are never deduplicated.
	if !reflect.DeepEqual(got["date"], []string{"01/02/2026", "01/02/2026"}) {
		t.Errorf("date = %v", got["date"])
	}
}

// TestExtractFromAttachmentTable verifies column scanning over the flat
// table rendering.
func TestExtractFromAttachmentTable(t *testing.T) {
	e := NewEngine("Money Movement - Inbound")
	table := strings.Join([]string{
		"Amount | Effective Date | Notes",
		"1,250.00 | 03/01/2026 | first tranche",
		"2,750.00 | 04/01/2026 | second tranche",
	}, "\n")

	got := e.ExtractFromAttachment("schedule.xlsx", table)

	if !reflect.DeepEqual(got["amount"], []string{"1250.00", "2750.00"}) {
		t.Errorf("amount = %v", got["amount"])
	}
	if !reflect.DeepEqual(got["effective_date"], []string{"03/01/2026", "04/01/2026"}) {
		t.Errorf("effective_date = %v", got["effective_date"])
	}
}

// TestTableDealNameScan verifies deal-name columns are scanned only when the
// type declares deal_name a priority field.
func TestTableDealNameScan(t *testing.T) {
	table := "Deal Name | Status\nProject Meridian | active"

	got := NewEngine("Adjustment").ExtractFromAttachment("deals.csv", table)
	if !reflect.DeepEqual(got["deal_name"], []string{"Project Meridian"}) {
		t.Errorf("deal_name = %v, want scanned value", got["deal_name"])
	}

	got = NewEngine("Money Movement - Inbound").ExtractFromAttachment("deals.csv", table)
	if got["deal_name"] != nil {
		t.Errorf("deal_name = %v, want none for a type without the priority field", got["deal_name"])
	}
}

func TestExtractFromAttachmentUnknownExtension(t *testing.T) {
	e := NewEngine("Money Movement - Inbound")
	got := e.ExtractFromAttachment("image.png", "USD 999.00 visible in scan")
	if len(got) != 0 {
		t.Errorf("got %v, want nothing for non-tabular, non-PDF attachments", got)
	}
}

func TestPriorityFields(t *testing.T) {
	got := NewEngine("Adjustment").PriorityFields()
	want := []string{"adjustment_amount", "effective_date", "deal_name", "previous_balance", "new_balance"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PriorityFields = %v, want %v", got, want)
	}

	if got := NewEngine("nope").PriorityFields(); len(got) != 0 {
		t.Errorf("unknown type PriorityFields = %v, want empty", got)
	}
}
