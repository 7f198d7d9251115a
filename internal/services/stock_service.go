package services

import (
	"context"
	"errors"
	"fmt"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
	"pam-backend/internal/repositories"
	"pam-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// receiveBuffer is the tolerance applied on top of the ordered quantity.
// Suppliers routinely over-deliver by small amounts; anything past 10% is a
// data-entry error or an unapproved order change.
var receiveBuffer = decimal.NewFromFloat(1.10)

type stockStore interface {
	AppendInStock(ctx context.Context, in *models.InStock, guard func(received float64) error) error
	AppendOutStock(ctx context.Context, out *models.OutStock, allowNegative bool) error
	Quantity(ctx context.Context, itemID, siteID int) (*models.StockQuantity, error)
	ReceivedForPO(ctx context.Context, poID, itemID int) (float64, error)
	AvailableQty(ctx context.Context, itemID, siteID int) (float64, error)
}

type poStore interface {
	Get(ctx context.Context, id int) (*models.PurchaseOrder, error)
	OrderedQty(ctx context.Context, poID, itemID int) (float64, error)
	FirstPoDetailID(ctx context.Context, poID, itemID int) (int, error)
}

type itemStore interface {
	Get(ctx context.Context, id int) (*models.Item, error)
}

type subcontractorStore interface {
	Name(ctx context.Context, subID int) (string, error)
	ContractNumber(ctx context.Context, numID int) (string, error)
}

type siteStore interface {
	SiteByID(ctx context.Context, id int) (*models.Site, error)
}

// reconcileStore is the slice of the request store reconciliation touches.
type reconcileStore interface {
	Get(ctx context.Context, id int) (*models.MaterialRequest, error)
	Details(ctx context.Context, materialID int) ([]*models.MaterialDetail, error)
	UpdateStatus(ctx context.Context, id int, status string) error
}

// TransferNotice describes a site-to-site issue for the destination's
// approvers.
type TransferNotice struct {
	FromSiteID int
	ToSiteID   int
	ItemName   string
	Unit       string
	Quantity   float64
	RefNo      string
	Date       string
	Remarks    string
	ActorName  string
}

// transferNotifier delivers the notice on a best-effort basis; failures are
// its own problem, never the caller's.
type transferNotifier interface {
	NotifyTransfer(notice *TransferNotice)
}

// stockCache invalidates derived report caches after ledger writes.
type stockCache interface {
	InvalidateStockStatus(ctx context.Context, siteID int)
}

type StockService struct {
	stock    stockStore
	pos      poStore
	requests reconcileStore
	items    itemStore
	subs     subcontractorStore
	sites    siteStore
	access   accessChecker
	notifier transferNotifier
	cache    stockCache

	allowNegative bool
}

func NewStockService(stock stockStore, pos poStore, requests reconcileStore,
	items itemStore, subs subcontractorStore, sites siteStore,
	checker accessChecker, notifier transferNotifier, cache stockCache,
	allowNegative bool) *StockService {
	return &StockService{
		stock: stock, pos: pos, requests: requests, items: items, subs: subs,
		sites: sites, access: checker, notifier: notifier, cache: cache,
		allowNegative: allowNegative,
	}
}

func (s *StockService) invalidate(ctx context.Context, siteID int) {
	if s.cache != nil {
		s.cache.InvalidateStockStatus(ctx, siteID)
	}
}

// Receive appends an in-stock event against a purchase order and updates the
// running balance, then re-evaluates the order's delivery status.
func (s *StockService) Receive(ctx context.Context, user *models.User, in *models.ReceiveStockRequest) (*models.InStock, error) {
	if in.Quantity <= 0 {
		return nil, validationf("received quantity must be positive")
	}

	po, err := s.pos.Get(ctx, in.POID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, validationf("purchase order %d does not exist", in.POID)
	}
	ordered, err := s.pos.OrderedQty(ctx, in.POID, in.ItemID)
	if err != nil {
		return nil, err
	}
	if ordered == 0 {
		return nil, validationf("item %d is not on purchase order %d", in.ItemID, in.POID)
	}

	siteID := in.SiteID
	if siteID == 0 {
		siteID = po.SiteID
	}
	if err := s.checkSite(ctx, user, siteID); err != nil {
		return nil, err
	}

	poDetailID := in.PODetailID
	if poDetailID == 0 {
		poDetailID, err = s.pos.FirstPoDetailID(ctx, in.POID, in.ItemID)
		if err != nil {
			return nil, err
		}
	}

	date := timeutil.Now()
	if in.Date != nil && timeutil.Plausible(*in.Date) {
		date = timeutil.ToLocal(*in.Date)
	}

	capQty := decimal.NewFromFloat(ordered).Mul(receiveBuffer).Round(3)
	qty := decimal.NewFromFloat(in.Quantity)

	event := &models.InStock{
		InNo:             in.InNo,
		RefNo:            in.RefNo,
		Quantity:         in.Quantity,
		Date:             date,
		ItemID:           in.ItemID,
		SiteID:           siteID,
		POID:             in.POID,
		PODetailID:       poDetailID,
		UserID:           user.ID,
		SuppDeliveryNote: in.SuppDeliveryNote,
	}
	guard := func(received float64) error {
		total := decimal.NewFromFloat(received).Add(qty)
		if total.GreaterThan(capQty) {
			max, _ := capQty.Float64()
			return &BufferExceededError{Max: max}
		}
		return nil
	}
	if err := s.stock.AppendInStock(ctx, event, guard); err != nil {
		return nil, err
	}
	s.invalidate(ctx, siteID)

	if err := s.reconcile(ctx, po); err != nil {
		return nil, err
	}
	return event, nil
}

// reconcile re-evaluates delivery completion after a receipt. Every line of
// the order's originating request must be fully received; partial receipts
// leave the status alone.
func (s *StockService) reconcile(ctx context.Context, po *models.PurchaseOrder) error {
	req, err := s.requests.Get(ctx, po.MaterialID)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	switch req.Status {
	case models.StatusTransferCompleted, models.StatusRequestDelivered:
		return nil
	}

	details, err := s.requests.Details(ctx, req.ID)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	for _, d := range details {
		received, err := s.stock.ReceivedForPO(ctx, po.ID, d.ItemID)
		if err != nil {
			return err
		}
		if received < d.Quantity {
			return nil
		}
	}

	next := models.StatusRequestDelivered
	if req.Status == models.StatusTransferInDelivery {
		next = models.StatusTransferCompleted
	}
	return s.requests.UpdateStatus(ctx, req.ID, next)
}

// Issue appends an out-stock event from the actor's own site. The issuing
// site and actor identity come from the authenticated user, never the body.
func (s *StockService) Issue(ctx context.Context, user *models.User, in *models.IssueStockRequest) (*models.IssuedRow, error) {
	if !access.Role(user.RoleID).CanIssueStock() {
		return nil, ErrForbidden
	}
	if user.SiteID == 0 {
		return nil, ErrForbidden
	}
	if in.Quantity <= 0 {
		return nil, validationf("issued quantity must be positive")
	}
	if in.OutStockNote == "" {
		return nil, validationf("an issue note is required")
	}

	out := &models.OutStock{
		OutNo:        in.OutNo,
		RefNo:        in.RefNo,
		Quantity:     in.Quantity,
		Date:         timeutil.Now(),
		ItemID:       in.ItemID,
		SiteID:       user.SiteID,
		UserID:       user.ID,
		Remarks:      in.Remarks,
		OutStockNote: in.OutStockNote,
	}

	switch in.Destination {
	case models.OutToSubcontractor:
		if in.SubID == 0 || in.NumID == 0 {
			return nil, validationf("subcontractor and contract number are required")
		}
		out.SubID = in.SubID
		out.NumID = in.NumID
		out.IsApprovedByOP = true

	case models.OutToSiteConsumption:
		out.SubID = models.SubIDSiteConsumption
		out.NumID = 0
		out.IsApprovedByOP = true

	case models.OutToOtherSite:
		if in.ToSiteID == 0 || in.ToSiteID == user.SiteID {
			return nil, validationf("a destination site is required")
		}
		out.SubID = models.SubIDSiteConsumption
		out.ToSiteID = in.ToSiteID
		out.IsApprovedByOP = false

	default:
		return nil, validationf("unknown destination %q", in.Destination)
	}

	err := s.stock.AppendOutStock(ctx, out, s.allowNegative)
	if errors.Is(err, repositories.ErrStockRowMissing) {
		return nil, validationf("no stock of this item has been received at your site")
	}
	if errors.Is(err, repositories.ErrInsufficientStock) {
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.SiteID)

	row, err := s.buildIssuedRow(ctx, out, in.Destination)
	if err != nil {
		return nil, err
	}

	if in.Destination == models.OutToOtherSite && s.notifier != nil {
		notice := &TransferNotice{
			FromSiteID: out.SiteID,
			ToSiteID:   out.ToSiteID,
			ItemName:   row.ItemName,
			Unit:       row.ItemUnit,
			Quantity:   out.Quantity,
			RefNo:      out.RefNo,
			Date:       row.DateString,
			Remarks:    out.Remarks,
			ActorName:  user.Name,
		}
		go s.notifier.NotifyTransfer(notice)
	}
	return row, nil
}

func (s *StockService) buildIssuedRow(ctx context.Context, out *models.OutStock, destination string) (*models.IssuedRow, error) {
	row := &models.IssuedRow{
		OutID:      out.ID,
		RefNo:      out.RefNo,
		Quantity:   fmt.Sprintf("%g", out.Quantity),
		DateString: timeutil.Format(out.Date, timeutil.DisplayLayout),
	}
	if item, err := s.items.Get(ctx, out.ItemID); err != nil {
		return nil, err
	} else if item != nil {
		row.ItemName = item.Name
		row.ItemUnit = item.Unit
	}

	switch destination {
	case models.OutToSubcontractor:
		name, err := s.subs.Name(ctx, out.SubID)
		if err != nil {
			return nil, err
		}
		num, err := s.subs.ContractNumber(ctx, out.NumID)
		if err != nil {
			return nil, err
		}
		row.SubName = name
		row.ContractNumber = num

	case models.OutToSiteConsumption:
		row.SubName = "Site Consumption"

	case models.OutToOtherSite:
		dest, err := s.sites.SiteByID(ctx, out.ToSiteID)
		if err != nil {
			return nil, err
		}
		if dest != nil {
			row.SubName = dest.Name
		}
	}
	return row, nil
}

// ItemUnit answers the out-stock form: the item's unit and the quantity on
// hand at the actor's site.
func (s *StockService) ItemUnit(ctx context.Context, user *models.User, itemID int) (*models.UnitInfo, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	info := &models.UnitInfo{Unit: item.Unit}
	q, err := s.stock.Quantity(ctx, itemID, user.SiteID)
	if err != nil {
		return nil, err
	}
	if q != nil {
		info.Stock = q.QtyStock
	}
	return info, nil
}

// AvailableQty recomputes the balance from the two ledgers. The cached
// balance must agree with it; reports use this derivation.
func (s *StockService) AvailableQty(ctx context.Context, user *models.User, itemID, siteID int) (float64, error) {
	if err := s.checkSite(ctx, user, siteID); err != nil {
		return 0, err
	}
	return s.stock.AvailableQty(ctx, itemID, siteID)
}

func (s *StockService) checkSite(ctx context.Context, user *models.User, siteID int) error {
	ok, err := s.access.HasSiteAccess(ctx, user, siteID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
