package models

import (
	"testing"
)

func TestPartyBalance(t *testing.T) {
	supplier := Party{ID: "s1", Type: PartyTypeSupplier}
	customer := Party{ID: "c1", Type: PartyTypeCustomer}
	both := Party{ID: "b1", Type: PartyTypeBoth}

	entry := func(party string, cat LedgerCategory, dir Direction, amount string, status RecordStatus) LedgerEntry {
		return LedgerEntry{PartyId: party, Category: cat, Direction: dir, Amount: d(amount), Status: status}
	}

	cases := []struct {
		name    string
		party   Party
		entries []LedgerEntry
		want    string
	}{
		{
			name:    "supplier purchase",
			party:   supplier,
			entries: []LedgerEntry{entry("s1", LedgerCategoryPurchase, DirectionDebit, "1000", RecordStatusActive)},
			want:    "1000",
		},
		{
			name:  "supplier purchase then outbound payment",
			party: supplier,
			entries: []LedgerEntry{
				entry("s1", LedgerCategoryPurchase, DirectionDebit, "1000", RecordStatusActive),
				entry("s1", LedgerCategoryPayment, DirectionCredit, "1000", RecordStatusActive),
			},
			want: "0",
		},
		{
			name:  "customer sale ignores cogs",
			party: customer,
			entries: []LedgerEntry{
				entry("c1", LedgerCategorySale, DirectionCredit, "500", RecordStatusActive),
				entry("c1", LedgerCategoryCOGS, DirectionDebit, "300", RecordStatusActive),
				entry("c1", LedgerCategoryPayment, DirectionDebit, "200", RecordStatusActive),
			},
			want: "300",
		},
		{
			name:  "voided entries and other parties ignored",
			party: customer,
			entries: []LedgerEntry{
				entry("c1", LedgerCategorySale, DirectionCredit, "500", RecordStatusVoided),
				entry("s1", LedgerCategorySale, DirectionCredit, "700", RecordStatusActive),
			},
			want: "0",
		},
		{
			name:  "both nets sales against purchases",
			party: both,
			entries: []LedgerEntry{
				entry("b1", LedgerCategorySale, DirectionCredit, "800", RecordStatusActive),
				entry("b1", LedgerCategoryPurchase, DirectionDebit, "300", RecordStatusActive),
			},
			want: "500",
		},
		{
			name:  "compensated sale nets to zero",
			party: customer,
			entries: []LedgerEntry{
				entry("c1", LedgerCategorySale, DirectionCredit, "500", RecordStatusActive),
				entry("c1", LedgerCategorySale, DirectionDebit, "500", RecordStatusActive),
			},
			want: "0",
		},
	}

	for _, tc := range cases {
		got := PartyBalance(tc.party, tc.entries)
		if !got.Equal(d(tc.want)) {
			t.Fatalf("%s: balance = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestOpeningBalanceDirection(t *testing.T) {
	supplier := Party{ID: "s1", Type: PartyTypeSupplier}
	customer := Party{ID: "c1", Type: PartyTypeCustomer}
	for _, p := range []Party{supplier, customer} {
		e := LedgerEntry{PartyId: p.ID, Category: LedgerCategoryOpeningBalance, Direction: OpeningBalanceDirection(p.Type), Amount: d("250"), Status: RecordStatusActive}
		if got := PartyBalance(p, []LedgerEntry{e}); !got.Equal(d("250")) {
			t.Fatalf("%s opening balance = %s, want 250", p.Type, got)
		}
	}
}
