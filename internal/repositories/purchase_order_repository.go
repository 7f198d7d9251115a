package repositories

import (
	"context"
	"errors"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PurchaseOrderRepository struct {
	DB *pgxpool.Pool
}

func NewPurchaseOrderRepository(db *pgxpool.Pool) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{DB: db}
}

func (r *PurchaseOrderRepository) Get(ctx context.Context, id int) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.DB.QueryRow(ctx,
		`SELECT id, po_number, COALESCE(status,''), material_id, COALESCE(supplier_id,0),
                site_id, COALESCE(user_id,0), date
         FROM purchase_orders WHERE id=$1`, id).
		Scan(&po.ID, &po.PONumber, &po.Status, &po.MaterialID, &po.SupplierID,
			&po.SiteID, &po.UserID, &po.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// OrderedQty sums the ordered quantity of an item across the PO's lines.
func (r *PurchaseOrderRepository) OrderedQty(ctx context.Context, poID, itemID int) (float64, error) {
	var qty float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(qty), 0) FROM po_details WHERE po_id=$1 AND item_id=$2`,
		poID, itemID).Scan(&qty)
	return qty, err
}

// FirstPoDetailID resolves the po_details row for (po, item). Returns 0 when
// the item is not on the order.
func (r *PurchaseOrderRepository) FirstPoDetailID(ctx context.Context, poID, itemID int) (int, error) {
	var id int
	err := r.DB.QueryRow(ctx,
		`SELECT id FROM po_details WHERE po_id=$1 AND item_id=$2 ORDER BY id LIMIT 1`,
		poID, itemID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// ItemsOnOrder lists the distinct item ids on the PO.
func (r *PurchaseOrderRepository) ItemsOnOrder(ctx context.Context, poID int) ([]int, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT DISTINCT item_id FROM po_details WHERE po_id=$1`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
