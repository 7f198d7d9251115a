package repositories

import (
	"context"
	"errors"
	"strconv"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemRepository struct {
	DB *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{DB: db}
}

func (r *ItemRepository) Get(ctx context.Context, id int) (*models.Item, error) {
	var it models.Item
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, unit, category_id FROM items WHERE id=$1`, id).
		Scan(&it.ID, &it.Name, &it.Unit, &it.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Search returns up to 20 items whose name contains the term.
func (r *ItemRepository) Search(ctx context.Context, term string) ([]*models.ItemOption, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name FROM items WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 20`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*models.ItemOption
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		options = append(options, &models.ItemOption{Value: strconv.Itoa(id), Text: name})
	}
	return options, rows.Err()
}

func (r *ItemRepository) ListCostCodes(ctx context.Context) ([]*models.CostCode, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, code, COALESCE(name, '') FROM cost_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*models.CostCode
	for rows.Next() {
		var c models.CostCode
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		codes = append(codes, &c)
	}
	return codes, rows.Err()
}
