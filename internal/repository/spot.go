package repository

import (
	"context"
	"errors"
	"fmt"

	"spot-booking-backend/internal/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pg = goqu.Dialect("postgres")

const spotColumns = `id, owner_id, address, city, state, country, lat, lng, name, description, price, created_at, updated_at`

// SpotRepository handles database operations for spots and spot images
type SpotRepository struct {
	db *pgxpool.Pool
}

// NewSpotRepository creates a new spot repository
func NewSpotRepository(db *pgxpool.Pool) *SpotRepository {
	return &SpotRepository{db: db}
}

// Create creates a new spot
func (r *SpotRepository) Create(ctx context.Context, spot *models.Spot) error {
	query := `
		INSERT INTO spots (` + spotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		spot.ID, spot.OwnerID, spot.Address, spot.City, spot.State, spot.Country,
		spot.Lat, spot.Lng, spot.Name, spot.Description, spot.Price, spot.CreatedAt, spot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create spot: %w", err)
	}
	return nil
}

// GetByID retrieves a spot by ID
func (r *SpotRepository) GetByID(ctx context.Context, id string) (*models.Spot, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + spotColumns + ` FROM spots WHERE id = $1`
	spot, err := scanSpot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get spot: %w", err)
	}
	return spot, nil
}

// GetByIDs retrieves several spots keyed by ID; missing IDs are absent from the map
func (r *SpotRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Spot, error) {
	spots := make(map[string]*models.Spot, len(ids))
	if len(ids) == 0 {
		return spots, nil
	}

	query := `SELECT ` + spotColumns + ` FROM spots WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get spots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		spots[spot.ID] = spot
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spots: %w", err)
	}
	return spots, nil
}

// Update replaces the editable fields of a spot
func (r *SpotRepository) Update(ctx context.Context, spot *models.Spot) error {
	query := `
		UPDATE spots
		SET address = $2, city = $3, state = $4, country = $5, lat = $6, lng = $7,
		    name = $8, description = $9, price = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		spot.ID, spot.Address, spot.City, spot.State, spot.Country, spot.Lat, spot.Lng,
		spot.Name, spot.Description, spot.Price, spot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update spot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a spot by ID; dependent rows cascade
func (r *SpotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM spots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves spots matching the filter together with their preview image and average rating
func (r *SpotRepository) List(ctx context.Context, filter SpotFilter) ([]*models.SpotListItem, error) {
	query, args, err := buildSpotListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build spot list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spots: %w", err)
	}
	defer rows.Close()

	items := []*models.SpotListItem{}
	for rows.Next() {
		var item models.SpotListItem
		err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Address, &item.City, &item.State, &item.Country,
			&item.Lat, &item.Lng, &item.Name, &item.Description, &item.Price,
			&item.CreatedAt, &item.UpdatedAt, &item.PreviewImage, &item.AvgRating,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spots: %w", err)
	}
	return items, nil
}

// buildSpotListQuery renders the filtered, paginated spot listing
func buildSpotListQuery(filter SpotFilter) (string, []interface{}, error) {
	ds := pg.From(goqu.T("spots").As("s")).
		Prepared(true).
		Select(
			"s.id", "s.owner_id", "s.address", "s.city", "s.state", "s.country",
			"s.lat", "s.lng", "s.name", "s.description", "s.price", "s.created_at", "s.updated_at",
			goqu.L(`(SELECT si.url FROM spot_images si WHERE si.spot_id = s.id AND si.preview ORDER BY si.created_at LIMIT 1)`).As("preview_image"),
			goqu.L(`(SELECT AVG(rv.stars)::float8 FROM reviews rv WHERE rv.spot_id = s.id)`).As("avg_rating"),
		)

	if filter.OwnerID != "" {
		ds = ds.Where(goqu.I("s.owner_id").Eq(filter.OwnerID))
	}
	for _, cond := range []exp.Expression{
		rangeCondition("s.lat", filter.MinLat, filter.MaxLat),
		rangeCondition("s.lng", filter.MinLng, filter.MaxLng),
		rangeCondition("s.price", filter.MinPrice, filter.MaxPrice),
	} {
		if cond != nil {
			ds = ds.Where(cond)
		}
	}

	ds = ds.Order(goqu.I("s.created_at").Asc(), goqu.I("s.id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
		if filter.Offset > 0 {
			ds = ds.Offset(uint(filter.Offset))
		}
	}
	return ds.ToSQL()
}

// rangeCondition is inclusive BETWEEN when both bounds are set and a
// one-sided comparison otherwise
func rangeCondition(column string, min, max *float64) exp.Expression {
	col := goqu.I(column)
	switch {
	case min != nil && max != nil:
		return col.Between(goqu.Range(*min, *max))
	case min != nil:
		return col.Gte(*min)
	case max != nil:
		return col.Lte(*max)
	default:
		return nil
	}
}

// CreateImage attaches an image to a spot
func (r *SpotRepository) CreateImage(ctx context.Context, image *models.SpotImage) error {
	query := `
		INSERT INTO spot_images (id, spot_id, url, preview, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, image.ID, image.SpotID, image.URL, image.Preview, image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create spot image: %w", err)
	}
	return nil
}

// GetImage retrieves a spot image by ID
func (r *SpotRepository) GetImage(ctx context.Context, id string) (*models.SpotImage, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT id, spot_id, url, preview, created_at FROM spot_images WHERE id = $1`
	var image models.SpotImage
	err := r.db.QueryRow(ctx, query, id).Scan(&image.ID, &image.SpotID, &image.URL, &image.Preview, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get spot image: %w", err)
	}
	return &image, nil
}

// ListImages retrieves the images of a spot in upload order
func (r *SpotRepository) ListImages(ctx context.Context, spotID string) ([]models.SpotImage, error) {
	query := `
		SELECT id, spot_id, url, preview, created_at
		FROM spot_images
		WHERE spot_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, spotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spot images: %w", err)
	}
	images, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SpotImage, error) {
		var image models.SpotImage
		err := row.Scan(&image.ID, &image.SpotID, &image.URL, &image.Preview, &image.CreatedAt)
		return image, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan spot images: %w", err)
	}
	return images, nil
}

// DeleteImage deletes a spot image by ID
func (r *SpotRepository) DeleteImage(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM spot_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spot image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSpot(row pgx.Row) (*models.Spot, error) {
	var spot models.Spot
	err := row.Scan(
		&spot.ID, &spot.OwnerID, &spot.Address, &spot.City, &spot.State, &spot.Country,
		&spot.Lat, &spot.Lng, &spot.Name, &spot.Description, &spot.Price, &spot.CreatedAt, &spot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &spot, nil
}
