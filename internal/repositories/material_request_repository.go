package repositories

import (
	"context"
	"errors"
	"time"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MaterialRequestRepository struct {
	DB *pgxpool.Pool
}

func NewMaterialRequestRepository(db *pgxpool.Pool) *MaterialRequestRepository {
	return &MaterialRequestRepository{DB: db}
}

const requestColumns = `id, material_number, ref_no, status, COALESCE(rejection_note,''),
site_id, user_id, date, is_approved_by_pm, COALESCE(remarks,'')`

func scanRequest(row pgx.Row) (*models.MaterialRequest, error) {
	var m models.MaterialRequest
	err := row.Scan(&m.ID, &m.MaterialNumber, &m.RefNo, &m.Status, &m.RejectionNote,
		&m.SiteID, &m.UserID, &m.Date, &m.IsApprovedByPm, &m.Remarks)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRequestRepository) Get(ctx context.Context, id int) (*models.MaterialRequest, error) {
	m, err := scanRequest(r.DB.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM material_requests WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// LatestMaterialNumber returns the highest per-site counter, 0 when the site
// has no requests yet.
func (r *MaterialRequestRepository) LatestMaterialNumber(ctx context.Context, siteID int) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(MAX(material_number), 0) FROM material_requests WHERE site_id=$1`,
		siteID).Scan(&n)
	return n, err
}

// Create inserts the request and its line items in one transaction and fills
// in the generated ids.
func (r *MaterialRequestRepository) Create(ctx context.Context, req *models.MaterialRequest, details []*models.MaterialDetail) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO material_requests
         (material_number, ref_no, status, site_id, user_id, date, is_approved_by_pm, remarks)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		req.MaterialNumber, req.RefNo, req.Status, req.SiteID, req.UserID,
		req.Date, req.IsApprovedByPm, req.Remarks).Scan(&req.ID)
	if err != nil {
		return err
	}

	for _, d := range details {
		d.MaterialID = req.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO material_details
             (material_id, item_id, quantity, cost_code_id, sub_id, category_id, site_id, user_id)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			d.MaterialID, d.ItemID, d.Quantity, d.CostCodeID, d.SubID,
			d.CategoryID, d.SiteID, d.UserID).Scan(&d.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListBySite returns a site's requests newest first, optionally filtered by
// status.
func (r *MaterialRequestRepository) ListBySite(ctx context.Context, siteID int, status string) ([]*models.MaterialRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM material_requests WHERE site_id=$1`
	args := []interface{}{siteID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY material_number DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.MaterialRequest
	for rows.Next() {
		m, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, m)
	}
	return reqs, rows.Err()
}

func (r *MaterialRequestRepository) Details(ctx context.Context, materialID int) ([]*models.MaterialDetail, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, material_id, item_id, quantity, cost_code_id,
                COALESCE(sub_id,0), COALESCE(category_id,0), site_id, COALESCE(user_id,0)
         FROM material_details WHERE material_id=$1 ORDER BY id`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*models.MaterialDetail
	for rows.Next() {
		var d models.MaterialDetail
		if err := rows.Scan(&d.ID, &d.MaterialID, &d.ItemID, &d.Quantity, &d.CostCodeID,
			&d.SubID, &d.CategoryID, &d.SiteID, &d.UserID); err != nil {
			return nil, err
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}

func (r *MaterialRequestRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE material_requests SET status=$1 WHERE id=$2`, status, id)
	return err
}

func (r *MaterialRequestRepository) SetPmApproval(ctx context.Context, id int, approved bool) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE material_requests SET is_approved_by_pm=$1 WHERE id=$2`, approved, id)
	return err
}

// SetRejection moves the request to Rejected and records the formatted note.
func (r *MaterialRequestRepository) SetRejection(ctx context.Context, id int, note string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE material_requests SET status=$1, rejection_note=$2 WHERE id=$3`,
		models.StatusRejected, note, id)
	return err
}

// ReplaceDetails rewrites the request's line items wholesale and resets the
// approval state, all in one transaction. Editing restarts the workflow.
func (r *MaterialRequestRepository) ReplaceDetails(ctx context.Context, req *models.MaterialRequest, details []*models.MaterialDetail, remarks string, date time.Time, approvedByPm bool) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE material_requests
         SET status=$1, is_approved_by_pm=$2, rejection_note='', remarks=$3, date=$4
         WHERE id=$5`,
		models.StatusPendingApproval, approvedByPm, remarks, date, req.ID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM material_details WHERE material_id=$1`, req.ID)
	if err != nil {
		return err
	}

	for _, d := range details {
		d.MaterialID = req.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO material_details
             (material_id, item_id, quantity, cost_code_id, sub_id, category_id, site_id, user_id)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			d.MaterialID, d.ItemID, d.Quantity, d.CostCodeID, d.SubID,
			d.CategoryID, d.SiteID, d.UserID).Scan(&d.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
