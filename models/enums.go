package models

type StockItemKind string

const (
	StockItemKindGreenCoffee StockItemKind = "GreenCoffee"
	StockItemKindRoastStock  StockItemKind = "RoastStock"
	StockItemKindPackaging   StockItemKind = "Packaging"
)

func (k StockItemKind) IsValid() bool {
	switch k {
	case StockItemKindGreenCoffee, StockItemKindRoastStock, StockItemKindPackaging:
		return true
	}
	return false
}

// ItemKind tells whether a movement references a stock item or a finished-good key.
type ItemKind string

const (
	ItemKindStockItem    ItemKind = "StockItem"
	ItemKindFinishedGood ItemKind = "FinishedGood"
)

type MovementReason string

const (
	MovementReasonPurchase   MovementReason = "Purchase"
	MovementReasonUsage      MovementReason = "Usage"
	MovementReasonProduction MovementReason = "Production"
	MovementReasonSale       MovementReason = "Sale"
	MovementReasonVoid       MovementReason = "Void"
	MovementReasonAdjustment MovementReason = "Adjustment"
)

// SourceType links a movement or ledger entry back to the header that produced it.
type SourceType string

const (
	SourceTypePurchase   SourceType = "Purchase"
	SourceTypeProduction SourceType = "Production"
	SourceTypeSale       SourceType = "Sale"
	SourceTypePayment    SourceType = "Payment"
	SourceTypeAdjustment SourceType = "Adjustment"
	SourceTypeParty      SourceType = "Party"
)

type RecordStatus string

const (
	RecordStatusActive RecordStatus = "Active"
	RecordStatusVoided RecordStatus = "Voided"
)

type LedgerCategory string

const (
	LedgerCategoryPurchase       LedgerCategory = "Purchase"
	LedgerCategorySale           LedgerCategory = "Sale"
	LedgerCategoryCOGS           LedgerCategory = "COGS"
	LedgerCategoryPayment        LedgerCategory = "Payment"
	LedgerCategoryOpeningBalance LedgerCategory = "OpeningBalance"
)

type Direction string

const (
	DirectionDebit  Direction = "Debit"
	DirectionCredit Direction = "Credit"
)

func (d Direction) Opposite() Direction {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

type PartyType string

const (
	PartyTypeCustomer PartyType = "Customer"
	PartyTypeSupplier PartyType = "Supplier"
	PartyTypeBoth     PartyType = "Both"
)

func (t PartyType) IsValid() bool {
	switch t {
	case PartyTypeCustomer, PartyTypeSupplier, PartyTypeBoth:
		return true
	}
	return false
}

func (t PartyType) IsSupplier() bool {
	return t == PartyTypeSupplier || t == PartyTypeBoth
}

func (t PartyType) IsCustomer() bool {
	return t == PartyTypeCustomer || t == PartyTypeBoth
}

type PaymentDirection string

const (
	PaymentDirectionInbound  PaymentDirection = "Inbound"
	PaymentDirectionOutbound PaymentDirection = "Outbound"
)

func (d PaymentDirection) IsValid() bool {
	return d == PaymentDirectionInbound || d == PaymentDirectionOutbound
}

type PackagingRole string

const (
	PackagingRoleBag        PackagingRole = "Bag"
	PackagingRoleFrontLabel PackagingRole = "FrontLabel"
	PackagingRoleBackLabel  PackagingRole = "BackLabel"
	PackagingRoleBox        PackagingRole = "Box"
)

func (r PackagingRole) IsValid() bool {
	switch r {
	case PackagingRoleBag, PackagingRoleFrontLabel, PackagingRoleBackLabel, PackagingRoleBox:
		return true
	}
	return false
}

type FulfillmentStatus string

const (
	FulfillmentStatusOpen    FulfillmentStatus = "Open"
	FulfillmentStatusShipped FulfillmentStatus = "Shipped"
)

type ChangeAction string

const (
	ChangeActionInsert ChangeAction = "Insert"
	ChangeActionUpdate ChangeAction = "Update"
	ChangeActionUpsert ChangeAction = "Upsert"
	ChangeActionDelete ChangeAction = "Delete"
	ChangeActionReset  ChangeAction = "Reset"
)
