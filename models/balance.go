package models

import (
	"github.com/shopspring/decimal"
)

// PartyBalance derives what is owed between the business and a party from its active
// ledger entries. COGS entries are internal and never count.
//
// Supplier: debits (purchases) minus credits (outbound payments), what we owe them.
// Customer and Both: credits (sales) minus debits (inbound payments), what they owe us.
func PartyBalance(party Party, entries []LedgerEntry) decimal.Decimal {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, e := range entries {
		if e.PartyId != party.ID || e.Status != RecordStatusActive || e.Category == LedgerCategoryCOGS {
			continue
		}
		switch e.Direction {
		case DirectionDebit:
			debit = debit.Add(e.Amount)
		case DirectionCredit:
			credit = credit.Add(e.Amount)
		}
	}
	if party.Type == PartyTypeSupplier {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// OpeningBalanceDirection is the direction that makes a positive opening balance
// increase PartyBalance for the party's type.
func OpeningBalanceDirection(t PartyType) Direction {
	if t == PartyTypeSupplier {
		return DirectionDebit
	}
	return DirectionCredit
}
