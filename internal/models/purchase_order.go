package models

import "time"

// PurchaseOrder is created downstream of an approved material request by the
// purchasing office; this system only reads it to receive stock against it.
type PurchaseOrder struct {
	ID         int       `json:"id"`
	PONumber   string    `json:"po_number"`
	Status     string    `json:"status,omitempty"`
	MaterialID int       `json:"material_id"`
	SupplierID int       `json:"supplier_id,omitempty"`
	SiteID     int       `json:"site_id"`
	UserID     int       `json:"user_id,omitempty"`
	Date       time.Time `json:"date"`
}

type PoDetail struct {
	ID        int     `json:"id"`
	POID      int     `json:"po_id"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	ItemID    int     `json:"item_id"`
	CostCodeID int    `json:"cost_code_id,omitempty"`
	SiteID    int     `json:"site_id"`
}
