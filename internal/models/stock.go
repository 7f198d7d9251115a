package models

import "time"

// Out-stock destination selectors. Anything else is rejected.
const (
	OutToSubcontractor   = "1"
	OutToSiteConsumption = "3"
	OutToOtherSite       = "4"
)

// SubIDSiteConsumption is the sentinel subcontractor row representing
// consumption by the site itself.
const SubIDSiteConsumption = 1

// InStock is an append-only ledger event: material received against a
// purchase order at a site. Never updated or deleted.
type InStock struct {
	ID               int       `json:"id"`
	InNo             int       `json:"in_no"`
	RefNo            string    `json:"ref_no"`
	Quantity         float64   `json:"quantity"`
	Date             time.Time `json:"date"`
	ItemID           int       `json:"item_id"`
	SiteID           int       `json:"site_id"`
	POID             int       `json:"po_id"`
	PODetailID       int       `json:"po_detail_id"`
	UserID           int       `json:"user_id"`
	SuppDeliveryNote string    `json:"supp_delivery_note,omitempty"`
	FromSiteID       int       `json:"from_site_id,omitempty"`
	Remarks          string    `json:"remarks,omitempty"`
}

// OutStock is an append-only ledger event: material issued from a site to a
// subcontractor, to site consumption, or to another site.
type OutStock struct {
	ID             int       `json:"id"`
	OutNo          int       `json:"out_no"`
	RefNo          string    `json:"ref_no"`
	Quantity       float64   `json:"quantity"`
	Date           time.Time `json:"date"`
	ItemID         int       `json:"item_id"`
	SiteID         int       `json:"site_id"`
	SubID          int       `json:"sub_id"`
	NumID          int       `json:"num_id"`
	UserID         int       `json:"user_id"`
	ToSiteID       int       `json:"to_site_id,omitempty"`
	IsApprovedByOP bool      `json:"is_approved_by_op"`
	Remarks        string    `json:"remarks,omitempty"`
	OutStockNote   string    `json:"out_stock_note"`
}

// StockQuantity is the mutable running balance per (item, site).
// QtyReceived only grows; QtyStock moves with every movement event.
type StockQuantity struct {
	ID          int     `json:"id"`
	QtyReceived float64 `json:"qty_received"`
	QtyStock    float64 `json:"qty_stock"`
	ItemID      int     `json:"item_id"`
	SiteID      int     `json:"site_id"`
	UserID      int     `json:"user_id,omitempty"`
}

// ReceiveStockRequest represents the request body for an InStock operation.
type ReceiveStockRequest struct {
	POID             int        `json:"po_id"`
	ItemID           int        `json:"item_id"`
	SiteID           int        `json:"site_id"` // 0 = default from the PO
	PODetailID       int        `json:"po_detail_id"` // 0 = resolve by (po, item)
	Quantity         float64    `json:"quantity"`
	InNo             int        `json:"in_no"`
	RefNo            string     `json:"ref_no"`
	SuppDeliveryNote string     `json:"supp_delivery_note"`
	Date             *time.Time `json:"date"`
}

// IssueStockRequest represents the request body for an OutStock operation.
// Actor identity and site come from the authenticated context, never from
// the body.
type IssueStockRequest struct {
	ItemID       int     `json:"item_id"`
	Quantity     float64 `json:"quantity"`
	Destination  string  `json:"destination"` // "1", "3" or "4"
	SubID        int     `json:"sub_id"`
	NumID        int     `json:"num_id"`
	ToSiteID     int     `json:"to_site_id"`
	OutNo        int     `json:"out_no"`
	RefNo        string  `json:"ref_no"`
	Remarks      string  `json:"remarks"`
	OutStockNote string  `json:"out_stock_note"`
}

// IssuedRow is the display row returned after a successful issue.
type IssuedRow struct {
	OutID          int    `json:"out_id"`
	RefNo          string `json:"ref_no"`
	ItemName       string `json:"item_name"`
	ItemUnit       string `json:"item_unit"`
	Quantity       string `json:"quantity"`
	SubName        string `json:"sub_name"`
	ContractNumber string `json:"contract_number"`
	DateString     string `json:"date_string"`
}

// StockStatus is the per-item report row for a site.
type StockStatus struct {
	ItemID       int     `json:"item_id"`
	Item         string  `json:"item"`
	Unit         string  `json:"unit"`
	CategoryName string  `json:"category_name"`
	SiteName     string  `json:"site_name"`
	Acronym      string  `json:"acronym"`
	Requested    float64 `json:"requested"`
	Ordered      float64 `json:"ordered"`
	Received     float64 `json:"received"`
	Consumed     float64 `json:"consumed"`
}

// UnitInfo answers the out-stock form's item lookup.
type UnitInfo struct {
	Unit  string  `json:"unit"`
	Stock float64 `json:"stock"`
}
