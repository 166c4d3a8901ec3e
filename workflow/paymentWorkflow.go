package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/roastery_backend/models"
)

// RecordPayment settles part of a party balance. Inbound money from a customer posts
// a Debit, outbound money to a supplier a Credit.
func (b *Books) RecordPayment(ctx context.Context, input *models.NewPayment) (*models.Payment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Direction.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment direction %q", models.ErrValidation, input.Direction)
	}
	if err := requirePositive("amount", input.Amount); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	party, ok := b.parties.get(input.PartyId)
	if !ok {
		return nil, notFound("party", input.PartyId)
	}

	p := b.newPosting(ctx)
	payment := &models.Payment{
		ID:            models.NewId(),
		PartyId:       party.ID,
		Direction:     input.Direction,
		Amount:        input.Amount,
		PaymentDate:   input.PaymentDate,
		Method:        input.Method,
		Reference:     input.Reference,
		Notes:         input.Notes,
		VoidInfo:      models.VoidInfo{Status: models.RecordStatusActive},
		CorrelationId: p.correlationId,
		CreatedAt:     p.now,
		UpdatedAt:     p.now,
	}
	p.cs.Insert(payment)
	p.ledgerEntry(party.ID, models.LedgerCategoryPayment, payment.LedgerDirection(), payment.Amount,
		models.SourceTypePayment, payment.ID, payment.PaymentDate, fmt.Sprintf("%s payment %s", payment.Direction, payment.Reference))

	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return payment, nil
}

func (b *Books) VoidPayment(ctx context.Context, id string, reason string) (*models.Payment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.payments.get(id)
	if !ok {
		return nil, notFound("payment", id)
	}
	if current.IsVoided() {
		return nil, fmt.Errorf("%w: payment %s", models.ErrAlreadyVoided, id)
	}

	p := b.newPosting(ctx)
	p.reverseLedger(models.SourceTypePayment, id)
	payment := current
	payment.MarkVoided(p.now, reason)
	payment.UpdatedAt = p.now
	p.cs.Update(&payment)

	if err := b.commit(ctx, p.cs); err != nil {
		return nil, err
	}
	return &payment, nil
}
