package repositories

import (
	"context"
	"errors"
	"time"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by ledger writes. Services translate them into
// business errors with user-facing messages.
var (
	ErrStockRowMissing   = errors.New("no stock balance exists for this item at this site")
	ErrInsufficientStock = errors.New("issued quantity exceeds the available stock")
)

type StockRepository struct {
	DB *pgxpool.Pool
}

func NewStockRepository(db *pgxpool.Pool) *StockRepository {
	return &StockRepository{DB: db}
}

// AppendInStock records a receipt and bumps the running balance in one
// transaction. A transaction-scoped advisory lock on (po, item) serializes
// concurrent receipts so the guard sees a stable received total. The guard
// runs before the insert; returning an error aborts the whole write.
func (r *StockRepository) AppendInStock(ctx context.Context, in *models.InStock, guard func(received float64) error) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, in.POID, in.ItemID)
	if err != nil {
		return err
	}

	var received float64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM in_stocks WHERE po_id=$1 AND item_id=$2`,
		in.POID, in.ItemID).Scan(&received)
	if err != nil {
		return err
	}

	if guard != nil {
		if err := guard(received); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO in_stocks
         (in_no, ref_no, quantity, date, item_id, site_id, po_id, po_detail_id,
          user_id, supp_delivery_note, from_site_id, remarks)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		in.InNo, in.RefNo, in.Quantity, in.Date, in.ItemID, in.SiteID, in.POID,
		in.PODetailID, in.UserID, in.SuppDeliveryNote, in.FromSiteID, in.Remarks).
		Scan(&in.ID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO stock_quantities (qty_received, qty_stock, item_id, site_id, usr_id)
         VALUES ($1, $1, $2, $3, $4)
         ON CONFLICT (item_id, site_id) DO UPDATE SET
           qty_received = stock_quantities.qty_received + EXCLUDED.qty_received,
           qty_stock    = stock_quantities.qty_stock + EXCLUDED.qty_stock,
           usr_id       = EXCLUDED.usr_id`,
		in.Quantity, in.ItemID, in.SiteID, in.UserID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppendOutStock records an issue and decrements the running balance in one
// transaction. The balance row must already exist; receipts create it. When
// allowNegative is false the decrement is conditional on sufficient stock.
func (r *StockRepository) AppendOutStock(ctx context.Context, out *models.OutStock, allowNegative bool) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `UPDATE stock_quantities SET qty_stock = qty_stock - $1
              WHERE item_id=$2 AND site_id=$3`
	if !allowNegative {
		query += ` AND qty_stock >= $1`
	}
	tag, err := tx.Exec(ctx, query, out.Quantity, out.ItemID, out.SiteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM stock_quantities WHERE item_id=$1 AND site_id=$2)`,
			out.ItemID, out.SiteID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrStockRowMissing
		}
		return ErrInsufficientStock
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO out_stocks
         (out_no, ref_no, quantity, date, item_id, site_id, sub_id, num_id,
          user_id, to_site_id, is_approved_by_op, remarks, out_stock_note)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id`,
		out.OutNo, out.RefNo, out.Quantity, out.Date, out.ItemID, out.SiteID,
		out.SubID, out.NumID, out.UserID, out.ToSiteID, out.IsApprovedByOP,
		out.Remarks, out.OutStockNote).Scan(&out.ID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *StockRepository) Quantity(ctx context.Context, itemID, siteID int) (*models.StockQuantity, error) {
	var q models.StockQuantity
	err := r.DB.QueryRow(ctx,
		`SELECT id, qty_received, qty_stock, item_id, site_id, COALESCE(usr_id,0)
         FROM stock_quantities WHERE item_id=$1 AND site_id=$2`, itemID, siteID).
		Scan(&q.ID, &q.QtyReceived, &q.QtyStock, &q.ItemID, &q.SiteID, &q.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ReceivedForPO sums receipts of an item against a purchase order.
func (r *StockRepository) ReceivedForPO(ctx context.Context, poID, itemID int) (float64, error) {
	var qty float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM in_stocks WHERE po_id=$1 AND item_id=$2`,
		poID, itemID).Scan(&qty)
	return qty, err
}

// AvailableQty derives the balance from the ledger itself: total received
// minus total issued at a site. It must agree with stock_quantities and is
// the consistency check against it.
func (r *StockRepository) AvailableQty(ctx context.Context, itemID, siteID int) (float64, error) {
	var qty float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE((SELECT SUM(quantity) FROM in_stocks  WHERE item_id=$1 AND site_id=$2), 0)
              - COALESCE((SELECT SUM(quantity) FROM out_stocks WHERE item_id=$1 AND site_id=$2), 0)`,
		itemID, siteID).Scan(&qty)
	return qty, err
}

// StockStatus builds the per-item report for a site: requested, ordered,
// received and consumed totals. Items with no activity are omitted.
func (r *StockRepository) StockStatus(ctx context.Context, siteID int) ([]*models.StockStatus, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.name, COALESCE(i.unit,''), COALESCE(c.name,''),
                s.name, COALESCE(s.acronym,''),
                COALESCE(req.qty, 0), COALESCE(ord.qty, 0),
                COALESCE(sq.qty_received, 0),
                COALESCE(sq.qty_received, 0) - COALESCE(sq.qty_stock, 0)
         FROM items i
         JOIN sites s ON s.id = $1 AND s.is_dead = false
         LEFT JOIN categories c ON c.id = i.category_id
         LEFT JOIN stock_quantities sq ON sq.item_id = i.id AND sq.site_id = $1
         LEFT JOIN (
            SELECT item_id, SUM(quantity) AS qty FROM material_details
            WHERE site_id = $1 GROUP BY item_id
         ) req ON req.item_id = i.id
         LEFT JOIN (
            SELECT item_id, SUM(qty) AS qty FROM po_details
            WHERE site_id = $1 GROUP BY item_id
         ) ord ON ord.item_id = i.id
         WHERE COALESCE(req.qty,0) <> 0 OR COALESCE(ord.qty,0) <> 0
            OR COALESCE(sq.qty_received,0) <> 0
         ORDER BY i.name`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []*models.StockStatus
	for rows.Next() {
		var st models.StockStatus
		if err := rows.Scan(&st.ItemID, &st.Item, &st.Unit, &st.CategoryName,
			&st.SiteName, &st.Acronym, &st.Requested, &st.Ordered,
			&st.Received, &st.Consumed); err != nil {
			return nil, err
		}
		report = append(report, &st)
	}
	return report, rows.Err()
}

// Movement is a recent ledger event for the live activity feed.
type Movement struct {
	Direction string  `json:"direction"` // "in" or "out"
	RefNo     string  `json:"ref_no"`
	ItemID    int     `json:"item_id"`
	SiteID    int     `json:"site_id"`
	Quantity  float64 `json:"quantity"`
	At        string  `json:"at"`
}

// RecentMovements merges the newest events from both ledgers.
func (r *StockRepository) RecentMovements(ctx context.Context, limit int) ([]*Movement, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT * FROM (
           SELECT 'in' AS direction, ref_no, item_id, site_id, quantity, date
           FROM in_stocks
           UNION ALL
           SELECT 'out', ref_no, item_id, site_id, quantity, date
           FROM out_stocks
         ) m ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []*Movement
	for rows.Next() {
		var m Movement
		var at time.Time
		if err := rows.Scan(&m.Direction, &m.RefNo, &m.ItemID, &m.SiteID, &m.Quantity, &at); err != nil {
			return nil, err
		}
		m.At = at.Format("2006-01-02 15:04:05")
		moves = append(moves, &m)
	}
	return moves, rows.Err()
}
