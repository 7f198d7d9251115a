package models

import "time"

// Material request statuses. Persisted as strings; treat as a closed set.
const (
	StatusPendingApproval    = "Pending Approval"
	StatusRejected           = "Rejected"
	StatusPOInProgress       = "PO in Progress"
	StatusPendingPOs         = "Pending POs"
	StatusTransferInDelivery = "Transfer In Delivery"
	StatusTransferCompleted  = "Transfer Completed from Warehouse"
	StatusRequestDelivered   = "Request Delivered"
)

type MaterialRequest struct {
	ID             int       `json:"id"`
	MaterialNumber int       `json:"material_number"` // per-site sequential counter
	RefNo          string    `json:"ref_no"`          // REQ-{siteCode}-{number:D4}, immutable
	Status         string    `json:"status"`
	RejectionNote  string    `json:"rejection_note,omitempty"`
	SiteID         int       `json:"site_id"`
	UserID         int       `json:"user_id"`
	Date           time.Time `json:"date"`
	IsApprovedByPm bool      `json:"is_approved_by_pm"`
	Remarks        string    `json:"remarks,omitempty"`
}

type MaterialDetail struct {
	ID         int     `json:"id"`
	MaterialID int     `json:"material_id"`
	ItemID     int     `json:"item_id"`
	Quantity   float64 `json:"quantity"`
	CostCodeID int     `json:"cost_code_id"`
	SubID      int     `json:"sub_id,omitempty"`
	CategoryID int     `json:"category_id,omitempty"`
	SiteID     int     `json:"site_id"`
	UserID     int     `json:"user_id,omitempty"`
}

// CreateRequestRequest represents the request body for a new material request
type CreateRequestRequest struct {
	Remarks string              `json:"remarks"`
	Items   []RequestItemInput  `json:"items"`
}

type RequestItemInput struct {
	ItemID     int     `json:"item_id"`
	Quantity   float64 `json:"quantity"`
	CostCodeID int     `json:"cost_code_id"`
}

// EditRequestRequest replaces a request's remarks and line items wholesale.
type EditRequestRequest struct {
	Remarks string             `json:"remarks"`
	Items   []RequestItemInput `json:"items"`
}

type RejectRequestRequest struct {
	Note string `json:"note"`
}

// NewRequestData previews the next reference number for a site.
type NewRequestData struct {
	RefNumber string `json:"ref_number"`
	ReqNo     int    `json:"req_no"`
}

type RequestWithDetails struct {
	Request *MaterialRequest  `json:"request"`
	Details []*MaterialDetail `json:"details"`
}
