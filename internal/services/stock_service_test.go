package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
	"pam-backend/internal/repositories"
	"pam-backend/internal/services"
)

// fakeLedger keeps both ledgers and the running balance in memory, applying
// the same guard and balance rules the SQL layer does.
type fakeLedger struct {
	inStocks  []*models.InStock
	outStocks []*models.OutStock
	balances  map[[2]int]*models.StockQuantity // (item, site)
	nextID    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[[2]int]*models.StockQuantity{}, nextID: 1}
}

func (f *fakeLedger) key(itemID, siteID int) [2]int { return [2]int{itemID, siteID} }

func (f *fakeLedger) AppendInStock(ctx context.Context, in *models.InStock, guard func(received float64) error) error {
	var received float64
	for _, e := range f.inStocks {
		if e.POID == in.POID && e.ItemID == in.ItemID {
			received += e.Quantity
		}
	}
	if err := guard(received); err != nil {
		return err
	}
	in.ID = f.nextID
	f.nextID++
	f.inStocks = append(f.inStocks, in)

	k := f.key(in.ItemID, in.SiteID)
	q := f.balances[k]
	if q == nil {
		q = &models.StockQuantity{ItemID: in.ItemID, SiteID: in.SiteID}
		f.balances[k] = q
	}
	q.QtyReceived += in.Quantity
	q.QtyStock += in.Quantity
	return nil
}

func (f *fakeLedger) AppendOutStock(ctx context.Context, out *models.OutStock, allowNegative bool) error {
	q := f.balances[f.key(out.ItemID, out.SiteID)]
	if q == nil {
		return repositories.ErrStockRowMissing
	}
	if !allowNegative && q.QtyStock < out.Quantity {
		return repositories.ErrInsufficientStock
	}
	out.ID = f.nextID
	f.nextID++
	f.outStocks = append(f.outStocks, out)
	q.QtyStock -= out.Quantity
	return nil
}

func (f *fakeLedger) Quantity(ctx context.Context, itemID, siteID int) (*models.StockQuantity, error) {
	return f.balances[f.key(itemID, siteID)], nil
}

func (f *fakeLedger) ReceivedForPO(ctx context.Context, poID, itemID int) (float64, error) {
	var sum float64
	for _, e := range f.inStocks {
		if e.POID == poID && e.ItemID == itemID {
			sum += e.Quantity
		}
	}
	return sum, nil
}

func (f *fakeLedger) AvailableQty(ctx context.Context, itemID, siteID int) (float64, error) {
	var sum float64
	for _, e := range f.inStocks {
		if e.ItemID == itemID && e.SiteID == siteID {
			sum += e.Quantity
		}
	}
	for _, e := range f.outStocks {
		if e.ItemID == itemID && e.SiteID == siteID {
			sum -= e.Quantity
		}
	}
	return sum, nil
}

type fakePOStore struct {
	pos      map[int]*models.PurchaseOrder
	ordered  map[[2]int]float64 // (po, item)
	detailID map[[2]int]int
}

func (f *fakePOStore) Get(ctx context.Context, id int) (*models.PurchaseOrder, error) {
	return f.pos[id], nil
}

func (f *fakePOStore) OrderedQty(ctx context.Context, poID, itemID int) (float64, error) {
	return f.ordered[[2]int{poID, itemID}], nil
}

func (f *fakePOStore) FirstPoDetailID(ctx context.Context, poID, itemID int) (int, error) {
	return f.detailID[[2]int{poID, itemID}], nil
}

type fakeItems struct {
	items map[int]*models.Item
}

func (f *fakeItems) Get(ctx context.Context, id int) (*models.Item, error) {
	return f.items[id], nil
}

type fakeSubs struct {
	names     map[int]string
	contracts map[int]string
}

func (f *fakeSubs) Name(ctx context.Context, subID int) (string, error) {
	return f.names[subID], nil
}

func (f *fakeSubs) ContractNumber(ctx context.Context, numID int) (string, error) {
	return f.contracts[numID], nil
}

type fakeSites struct {
	sites map[int]*models.Site
}

func (f *fakeSites) SiteByID(ctx context.Context, id int) (*models.Site, error) {
	return f.sites[id], nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []*services.TransferNotice
	done    chan struct{}
}

func (n *recordingNotifier) NotifyTransfer(notice *services.TransferNotice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
	close(n.done)
}

type stockFixture struct {
	ledger   *fakeLedger
	pos      *fakePOStore
	requests *fakeRequestStore
	notifier *recordingNotifier
	svc      *services.StockService
}

func newStockFixture(t *testing.T, allowNegative bool) *stockFixture {
	t.Helper()
	ledger := newFakeLedger()
	pos := &fakePOStore{
		pos:      map[int]*models.PurchaseOrder{},
		ordered:  map[[2]int]float64{},
		detailID: map[[2]int]int{},
	}
	requests := newFakeRequestStore()
	items := &fakeItems{items: map[int]*models.Item{
		1: {ID: 1, Name: "Cement", Unit: "bag"},
		2: {ID: 2, Name: "Rebar 12mm", Unit: "ton"},
	}}
	subs := &fakeSubs{
		names:     map[int]string{7: "Al Bina Contracting"},
		contracts: map[int]string{3: "CN-2024-031"},
	}
	sites := &fakeSites{sites: map[int]*models.Site{
		5: {ID: 5, Name: "Beirut Port"},
		6: {ID: 6, Name: "Tripoli North"},
	}}
	notifier := &recordingNotifier{done: make(chan struct{})}
	svc := services.NewStockService(ledger, pos, requests, items, subs, sites,
		&fakeAccess{}, notifier, nil, allowNegative)
	return &stockFixture{ledger: ledger, pos: pos, requests: requests, notifier: notifier, svc: svc}
}

func (fx *stockFixture) addPO(id, materialID, siteID, itemID int, ordered float64) {
	fx.pos.pos[id] = &models.PurchaseOrder{ID: id, MaterialID: materialID, SiteID: siteID}
	fx.pos.ordered[[2]int{id, itemID}] = ordered
	fx.pos.detailID[[2]int{id, itemID}] = id*100 + itemID
}

func TestReceiveAppendsAndUpdatesBalance(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.addPO(1, 0, 5, 1, 100)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	event, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 60, RefNo: "REQ-BEY-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, event.SiteID, "site defaults from the purchase order")
	assert.Equal(t, 101, event.PODetailID, "detail id resolved by (po, item)")
	assert.Equal(t, user.ID, event.UserID)

	q, err := fx.ledger.Quantity(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 60.0, q.QtyReceived)
	assert.Equal(t, 60.0, q.QtyStock)
}

func TestReceiveEnforcesOrderedBuffer(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.addPO(1, 0, 5, 1, 100)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 100,
	})
	require.NoError(t, err)

	// 100 received, cap is 110: 10 more fits, 10.001 does not.
	_, err = fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 10.001,
	})
	var bufErr *services.BufferExceededError
	require.ErrorAs(t, err, &bufErr)
	assert.InDelta(t, 110, bufErr.Max, 1e-9)

	_, err = fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 10,
	})
	assert.NoError(t, err)
}

func TestReceiveBufferAvoidsFloatDrift(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.addPO(1, 0, 5, 1, 0.3)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	// 0.3 * 1.10 = 0.33 exactly under decimal arithmetic.
	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 0.33,
	})
	assert.NoError(t, err)
}

func TestReceiveRejectsUnknownPOAndItem(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.addPO(1, 0, 5, 1, 100)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	var vErr *services.ValidationError

	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 99, ItemID: 1, Quantity: 5,
	})
	assert.ErrorAs(t, err, &vErr)

	_, err = fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 2, Quantity: 5,
	})
	assert.ErrorAs(t, err, &vErr)
}

func TestReceiveReplacesImplausibleDate(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.addPO(1, 0, 5, 1, 100)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	ancient := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	event, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 5, Date: &ancient,
	})
	require.NoError(t, err)
	assert.True(t, event.Date.Year() >= 2000, "implausible date replaced with now")
}

func TestReceiveReconcilesFullyDeliveredRequest(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.requests.requests[10] = &models.MaterialRequest{
		ID: 10, SiteID: 5, Status: models.StatusPOInProgress,
	}
	fx.requests.details[10] = []*models.MaterialDetail{
		{MaterialID: 10, ItemID: 1, Quantity: 50},
		{MaterialID: 10, ItemID: 2, Quantity: 3},
	}
	fx.addPO(1, 10, 5, 1, 50)
	fx.pos.ordered[[2]int{1, 2}] = 3
	user := siteUser(int(access.RoleWarehouseManager), 5)

	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPOInProgress, fx.requests.requests[10].Status,
		"partial delivery leaves the status alone")

	_, err = fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 2, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequestDelivered, fx.requests.requests[10].Status)
}

func TestReceiveReconcileTransferBecomesCompleted(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.requests.requests[10] = &models.MaterialRequest{
		ID: 10, SiteID: 5, Status: models.StatusTransferInDelivery,
	}
	fx.requests.details[10] = []*models.MaterialDetail{
		{MaterialID: 10, ItemID: 1, Quantity: 20},
	}
	fx.addPO(1, 10, 5, 1, 20)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTransferCompleted, fx.requests.requests[10].Status)
}

func TestReceiveReconcileSkipsTerminalStatuses(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.requests.requests[10] = &models.MaterialRequest{
		ID: 10, SiteID: 5, Status: models.StatusRequestDelivered,
	}
	fx.requests.details[10] = []*models.MaterialDetail{
		{MaterialID: 10, ItemID: 1, Quantity: 5},
	}
	fx.addPO(1, 10, 5, 1, 50)
	user := siteUser(int(access.RoleWarehouseManager), 5)

	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 1, ItemID: 1, Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequestDelivered, fx.requests.requests[10].Status)
}

func issueReq(dest string) *models.IssueStockRequest {
	return &models.IssueStockRequest{
		ItemID: 1, Quantity: 10, Destination: dest,
		RefNo: "REQ-BEY-0001", OutStockNote: "daily issue",
	}
}

func (fx *stockFixture) seedStock(t *testing.T, itemID, siteID int, qty float64) {
	t.Helper()
	fx.addPO(9, 0, siteID, itemID, qty*10)
	user := siteUser(int(access.RoleWarehouseManager), siteID)
	_, err := fx.svc.Receive(context.Background(), user, &models.ReceiveStockRequest{
		POID: 9, ItemID: itemID, Quantity: qty,
	})
	require.NoError(t, err)
}

func TestIssueToSubcontractor(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	req := issueReq(models.OutToSubcontractor)
	req.SubID = 7
	req.NumID = 3
	row, err := fx.svc.Issue(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, "Al Bina Contracting", row.SubName)
	assert.Equal(t, "CN-2024-031", row.ContractNumber)
	assert.Equal(t, "Cement", row.ItemName)

	out := fx.ledger.outStocks[0]
	assert.True(t, out.IsApprovedByOP)
	assert.Equal(t, 5, out.SiteID, "issuing site comes from the user")
	assert.Equal(t, 90.0, fx.ledger.balances[[2]int{1, 5}].QtyStock)
}

func TestIssueToSubcontractorRequiresContract(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	var vErr *services.ValidationError
	req := issueReq(models.OutToSubcontractor)
	req.SubID = 7 // NumID missing
	_, err := fx.svc.Issue(context.Background(), user, req)
	assert.ErrorAs(t, err, &vErr)
}

func TestIssueToSiteConsumption(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	row, err := fx.svc.Issue(context.Background(), user, issueReq(models.OutToSiteConsumption))
	require.NoError(t, err)
	assert.Equal(t, "Site Consumption", row.SubName)

	out := fx.ledger.outStocks[0]
	assert.Equal(t, models.SubIDSiteConsumption, out.SubID)
	assert.Zero(t, out.NumID)
	assert.True(t, out.IsApprovedByOP)
}

func TestIssueTransferToOtherSiteNotifies(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	req := issueReq(models.OutToOtherSite)
	req.ToSiteID = 6
	row, err := fx.svc.Issue(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, "Tripoli North", row.SubName)

	out := fx.ledger.outStocks[0]
	assert.False(t, out.IsApprovedByOP, "transfers await approval at the destination")
	assert.Equal(t, models.SubIDSiteConsumption, out.SubID)
	assert.Equal(t, 6, out.ToSiteID)

	select {
	case <-fx.notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("transfer notification never fired")
	}
	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	require.Len(t, fx.notifier.notices, 1)
	assert.Equal(t, 5, fx.notifier.notices[0].FromSiteID)
	assert.Equal(t, 6, fx.notifier.notices[0].ToSiteID)
	assert.Equal(t, "Cement", fx.notifier.notices[0].ItemName)
}

func TestIssueTransferRejectsOwnSite(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	var vErr *services.ValidationError
	req := issueReq(models.OutToOtherSite)
	req.ToSiteID = 5
	_, err := fx.svc.Issue(context.Background(), user, req)
	assert.ErrorAs(t, err, &vErr)
}

func TestIssueUnknownDestination(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)

	var vErr *services.ValidationError
	_, err := fx.svc.Issue(context.Background(), siteUser(int(access.RoleSiteUser), 5), issueReq("2"))
	assert.ErrorAs(t, err, &vErr)
}

func TestIssueRoleAndSiteChecks(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)

	_, err := fx.svc.Issue(context.Background(), siteUser(int(access.RoleOperations), 5), issueReq(models.OutToSiteConsumption))
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = fx.svc.Issue(context.Background(), siteUser(int(access.RoleSiteUser), 0), issueReq(models.OutToSiteConsumption))
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestIssueDistinguishesMissingRowFromShortage(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 5)
	user := siteUser(int(access.RoleSiteUser), 5)

	// Item never received at this site.
	var vErr *services.ValidationError
	req := issueReq(models.OutToSiteConsumption)
	req.ItemID = 2
	_, err := fx.svc.Issue(context.Background(), user, req)
	assert.ErrorAs(t, err, &vErr)

	// Received but not enough.
	_, err = fx.svc.Issue(context.Background(), user, issueReq(models.OutToSiteConsumption))
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
}

func TestIssueAllowNegativeOverride(t *testing.T) {
	fx := newStockFixture(t, true)
	fx.seedStock(t, 1, 5, 5)
	user := siteUser(int(access.RoleSiteUser), 5)

	_, err := fx.svc.Issue(context.Background(), user, issueReq(models.OutToSiteConsumption))
	require.NoError(t, err)
	assert.Equal(t, -5.0, fx.ledger.balances[[2]int{1, 5}].QtyStock)
}

func TestAvailableQtyMatchesRunningBalance(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 100)
	user := siteUser(int(access.RoleSiteUser), 5)

	req := issueReq(models.OutToSiteConsumption)
	req.Quantity = 30
	_, err := fx.svc.Issue(context.Background(), user, req)
	require.NoError(t, err)

	derived, err := fx.svc.AvailableQty(context.Background(), user, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 70.0, derived)
	assert.Equal(t, derived, fx.ledger.balances[[2]int{1, 5}].QtyStock)
}

func TestItemUnitReportsStockOnHand(t *testing.T) {
	fx := newStockFixture(t, false)
	fx.seedStock(t, 1, 5, 12)
	user := siteUser(int(access.RoleSiteUser), 5)

	info, err := fx.svc.ItemUnit(context.Background(), user, 1)
	require.NoError(t, err)
	assert.Equal(t, "bag", info.Unit)
	assert.Equal(t, 12.0, info.Stock)

	// Known item, nothing received yet: zero stock, not an error.
	info, err = fx.svc.ItemUnit(context.Background(), user, 2)
	require.NoError(t, err)
	assert.Zero(t, info.Stock)

	_, err = fx.svc.ItemUnit(context.Background(), user, 99)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
