package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/repairshop-api/internal/application/dto"
	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/invoicing"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

// ItemUseCase administra las líneas de una factura. Cada mutación bloquea la
// cabecera, aplica el cambio y recalcula los totales en la misma transacción.
type ItemUseCase struct {
	txRunner BillingTxRunner
	log      zerolog.Logger
	now      func() time.Time
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(txRunner BillingTxRunner, log zerolog.Logger) *ItemUseCase {
	return &ItemUseCase{
		txRunner: txRunner,
		log:      log.With().Str("component", "invoice_items").Logger(),
		now:      time.Now,
	}
}

// AddItem agrega una línea y recalcula la factura.
func (uc *ItemUseCase) AddItem(ctx context.Context, companyID, invoiceID string, in dto.CreateInvoiceItemRequest) (*dto.InvoiceItemResponse, error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	pct := valueOrZero(in.DiscountPercent)
	if err := invoicing.ValidateItem(invoicing.ItemInput{
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: pct,
		Type:            in.Type,
	}); err != nil {
		return nil, err
	}
	verr := &domain.ValidationError{}
	in.InventoryItemID = normalizeOptionalID(verr, "inventory_item_id", in.InventoryItemID)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	item := &entity.InvoiceItem{
		ID:              uuid.New().String(),
		InvoiceID:       invoiceID,
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: pct,
		Type:            in.Type,
		InventoryItemID: in.InventoryItemID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	invoicing.PriceItem(item)

	err := uc.mutate(ctx, companyID, invoiceID, func(invoiceRepo repository.InvoiceRepository) error {
		return invoiceRepo.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("item_id", item.ID).Msg("línea agregada")
	return toItemResponse(item), nil
}

// UpdateItem aplica un parche a una línea existente y recalcula la factura.
func (uc *ItemUseCase) UpdateItem(ctx context.Context, companyID, invoiceID, itemID string, in dto.UpdateInvoiceItemRequest) (*dto.InvoiceItemResponse, error) {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return nil, domain.NotFound("factura")
	}
	if itemID, ok = parseID(itemID); !ok {
		return nil, domain.NotFound("línea de factura")
	}
	verr := &domain.ValidationError{}
	in.InventoryItemID = normalizeOptionalID(verr, "inventory_item_id", in.InventoryItemID)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	var item *entity.InvoiceItem
	err := uc.mutate(ctx, companyID, invoiceID, func(invoiceRepo repository.InvoiceRepository) error {
		var err error
		item, err = invoiceRepo.GetItem(ctx, invoiceID, itemID)
		if err != nil {
			return fmt.Errorf("obtener línea: %w", err)
		}
		if item == nil {
			return domain.NotFound("línea de factura")
		}
		applyItemPatch(item, in)
		if err := invoicing.ValidateItem(invoicing.ItemInput{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Type:            item.Type,
		}); err != nil {
			return err
		}
		invoicing.PriceItem(item)
		item.UpdatedAt = uc.now().UTC()
		return invoiceRepo.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("item_id", itemID).Msg("línea actualizada")
	return toItemResponse(item), nil
}

// RemoveItem elimina una línea y recalcula la factura.
func (uc *ItemUseCase) RemoveItem(ctx context.Context, companyID, invoiceID, itemID string) error {
	invoiceID, ok := parseID(invoiceID)
	if !ok {
		return domain.NotFound("factura")
	}
	if itemID, ok = parseID(itemID); !ok {
		return domain.NotFound("línea de factura")
	}
	err := uc.mutate(ctx, companyID, invoiceID, func(invoiceRepo repository.InvoiceRepository) error {
		deleted, err := invoiceRepo.DeleteItem(ctx, invoiceID, itemID)
		if err != nil {
			return fmt.Errorf("borrar línea: %w", err)
		}
		if !deleted {
			return domain.NotFound("línea de factura")
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("item_id", itemID).Msg("línea eliminada")
	return nil
}

// mutate bloquea la factura, ejecuta fn y persiste los totales recalculados.
func (uc *ItemUseCase) mutate(ctx context.Context, companyID, invoiceID string, fn func(repository.InvoiceRepository) error) error {
	return uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.CashDrawerRepository) error {
		inv, err := invoiceRepo.GetForUpdate(ctx, companyID, invoiceID)
		if err != nil {
			return fmt.Errorf("bloquear factura: %w", err)
		}
		if inv == nil {
			return domain.NotFound("factura")
		}
		if err := invoicing.EnsureEditable(inv); err != nil {
			return err
		}
		if err := fn(invoiceRepo); err != nil {
			return err
		}
		items, err := invoiceRepo.ListItems(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("obtener líneas: %w", err)
		}
		invoicing.RecomputeTotals(inv, items)
		if err := invoicing.EnsureTotalsInRange(inv); err != nil {
			return err
		}
		inv.UpdatedAt = uc.now().UTC()
		return invoiceRepo.Update(ctx, inv)
	})
}

func applyItemPatch(item *entity.InvoiceItem, in dto.UpdateInvoiceItemRequest) {
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.UnitPrice != nil {
		item.UnitPrice = *in.UnitPrice
	}
	if in.DiscountPercent != nil {
		item.DiscountPercent = *in.DiscountPercent
	}
	if in.Type != nil {
		item.Type = *in.Type
	}
	if in.InventoryItemID != nil {
		item.InventoryItemID = in.InventoryItemID
	}
}
