package services

import (
	"context"
	"fmt"
	"time"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
	"pam-backend/internal/timeutil"
)

// requestStore is the persistence surface RequestService needs.
type requestStore interface {
	Get(ctx context.Context, id int) (*models.MaterialRequest, error)
	LatestMaterialNumber(ctx context.Context, siteID int) (int, error)
	Create(ctx context.Context, req *models.MaterialRequest, details []*models.MaterialDetail) error
	ListBySite(ctx context.Context, siteID int, status string) ([]*models.MaterialRequest, error)
	Details(ctx context.Context, materialID int) ([]*models.MaterialDetail, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	SetPmApproval(ctx context.Context, id int, approved bool) error
	SetRejection(ctx context.Context, id int, note string) error
	ReplaceDetails(ctx context.Context, req *models.MaterialRequest, details []*models.MaterialDetail, remarks string, date time.Time, approvedByPm bool) error
}

type siteCodeStore interface {
	SiteCode(ctx context.Context, siteID int) (string, error)
}

// accessChecker is satisfied by *access.Resolver.
type accessChecker interface {
	HasSiteAccess(ctx context.Context, user *models.User, siteID int) (bool, error)
}

var knownStatuses = map[string]bool{
	models.StatusPendingApproval:    true,
	models.StatusRejected:           true,
	models.StatusPOInProgress:       true,
	models.StatusPendingPOs:         true,
	models.StatusTransferInDelivery: true,
	models.StatusTransferCompleted:  true,
	models.StatusRequestDelivered:   true,
}

type RequestService struct {
	requests requestStore
	sites    siteCodeStore
	access   accessChecker
}

func NewRequestService(requests requestStore, sites siteCodeStore, checker accessChecker) *RequestService {
	return &RequestService{requests: requests, sites: sites, access: checker}
}

func (s *RequestService) checkSite(ctx context.Context, user *models.User, siteID int) error {
	ok, err := s.access.HasSiteAccess(ctx, user, siteID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// NewRequestData previews the reference number the next request at the site
// will get. Two users previewing concurrently may see the same number; the
// number is only claimed on create.
func (s *RequestService) NewRequestData(ctx context.Context, user *models.User, siteID int) (*models.NewRequestData, error) {
	if !access.Role(user.RoleID).CanSendRequests() {
		return nil, ErrForbidden
	}
	if err := s.checkSite(ctx, user, siteID); err != nil {
		return nil, err
	}
	code, err := s.sites.SiteCode(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrNotFound
	}
	last, err := s.requests.LatestMaterialNumber(ctx, siteID)
	if err != nil {
		return nil, err
	}
	next := last + 1
	return &models.NewRequestData{
		RefNumber: fmt.Sprintf("REQ-%s-%04d", code, next),
		ReqNo:     next,
	}, nil
}

func validateItems(items []models.RequestItemInput) error {
	if len(items) == 0 {
		return validationf("a request needs at least one line item")
	}
	for i, it := range items {
		if it.ItemID == 0 {
			return validationf("line %d: item is required", i+1)
		}
		if it.Quantity <= 0 {
			return validationf("line %d: quantity must be positive", i+1)
		}
		if it.CostCodeID == 0 {
			return validationf("line %d: cost code is required", i+1)
		}
	}
	return nil
}

// Create opens a new material request at the site. The creator's own PM role
// counts as the PM approval.
func (s *RequestService) Create(ctx context.Context, user *models.User, siteID int, in *models.CreateRequestRequest) (*models.RequestWithDetails, error) {
	role := access.Role(user.RoleID)
	if !role.CanSendRequests() {
		return nil, ErrForbidden
	}
	if err := s.checkSite(ctx, user, siteID); err != nil {
		return nil, err
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	data, err := s.NewRequestData(ctx, user, siteID)
	if err != nil {
		return nil, err
	}

	req := &models.MaterialRequest{
		MaterialNumber: data.ReqNo,
		RefNo:          data.RefNumber,
		Status:         models.StatusPendingApproval,
		SiteID:         siteID,
		UserID:         user.ID,
		Date:           timeutil.Now(),
		IsApprovedByPm: role.CanApproveAsPM(),
		Remarks:        in.Remarks,
	}
	details := buildDetails(in.Items, siteID, user.ID)
	if err := s.requests.Create(ctx, req, details); err != nil {
		return nil, err
	}
	return &models.RequestWithDetails{Request: req, Details: details}, nil
}

func buildDetails(items []models.RequestItemInput, siteID, userID int) []*models.MaterialDetail {
	details := make([]*models.MaterialDetail, 0, len(items))
	for _, it := range items {
		details = append(details, &models.MaterialDetail{
			ItemID:     it.ItemID,
			Quantity:   it.Quantity,
			CostCodeID: it.CostCodeID,
			SiteID:     siteID,
			UserID:     userID,
		})
	}
	return details
}

// List returns a site's requests, optionally narrowed to a status.
func (s *RequestService) List(ctx context.Context, user *models.User, siteID int, status string) ([]*models.MaterialRequest, error) {
	if err := s.checkSite(ctx, user, siteID); err != nil {
		return nil, err
	}
	if status != "" && !knownStatuses[status] {
		return nil, validationf("unknown status %q", status)
	}
	return s.requests.ListBySite(ctx, siteID, status)
}

func (s *RequestService) GetWithDetails(ctx context.Context, user *models.User, id int) (*models.RequestWithDetails, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if err := s.checkSite(ctx, user, req.SiteID); err != nil {
		return nil, err
	}
	details, err := s.requests.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RequestWithDetails{Request: req, Details: details}, nil
}

// Approve advances the two-stage workflow. A PM approval marks the request;
// an operations approval of a PM-approved request moves it into purchasing.
// Any other combination leaves the request untouched.
func (s *RequestService) Approve(ctx context.Context, user *models.User, id int) (*models.MaterialRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if err := s.checkSite(ctx, user, req.SiteID); err != nil {
		return nil, err
	}

	role := access.Role(user.RoleID)
	switch {
	case role.CanApproveAsPM() && req.Status == models.StatusPendingApproval && !req.IsApprovedByPm:
		if err := s.requests.SetPmApproval(ctx, id, true); err != nil {
			return nil, err
		}
		req.IsApprovedByPm = true

	case role.CanAdvanceToPO() && req.Status == models.StatusPendingApproval && req.IsApprovedByPm:
		if err := s.requests.UpdateStatus(ctx, id, models.StatusPOInProgress); err != nil {
			return nil, err
		}
		req.Status = models.StatusPOInProgress

	default:
		return nil, ErrInvalidTransition
	}
	return req, nil
}

// Reject moves the request to Rejected with an attributed note.
func (s *RequestService) Reject(ctx context.Context, user *models.User, id int, note string) (*models.MaterialRequest, error) {
	if note == "" {
		return nil, validationf("a rejection note is required")
	}
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if err := s.checkSite(ctx, user, req.SiteID); err != nil {
		return nil, err
	}
	if !access.Role(user.RoleID).CanRejectAt(req.Status) {
		return nil, ErrInvalidTransition
	}

	formatted := fmt.Sprintf("Rejected by %s because of: %s", user.Name, note)
	if err := s.requests.SetRejection(ctx, id, formatted); err != nil {
		return nil, err
	}
	req.Status = models.StatusRejected
	req.RejectionNote = formatted
	return req, nil
}

// Edit replaces the request's line items wholesale and restarts the approval
// workflow. Only pending or rejected requests can be edited; the reference
// number never changes.
func (s *RequestService) Edit(ctx context.Context, user *models.User, id int, in *models.EditRequestRequest) (*models.RequestWithDetails, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if err := s.checkSite(ctx, user, req.SiteID); err != nil {
		return nil, err
	}
	if req.Status != models.StatusPendingApproval && req.Status != models.StatusRejected {
		return nil, ErrInvalidTransition
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	details := buildDetails(in.Items, req.SiteID, user.ID)
	now := timeutil.Now()
	if err := s.requests.ReplaceDetails(ctx, req, details, in.Remarks, now, false); err != nil {
		return nil, err
	}
	req.Status = models.StatusPendingApproval
	req.IsApprovedByPm = false
	req.RejectionNote = ""
	req.Remarks = in.Remarks
	req.Date = now
	return &models.RequestWithDetails{Request: req, Details: details}, nil
}
