package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

const listingsTable = "properties"

// imagesColumn aggregates the gallery in display order
var imagesColumn = goqu.L(`COALESCE((SELECT array_agg(pi.image_url ORDER BY pi.display_order, pi.created_at) FROM property_images pi WHERE pi.property_id = p.id), '{}')`).As("images")

// ListingAdapter implements ListingRepository
type ListingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client *postgres.Client) repositories.ListingRepository {
	return &ListingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *ListingAdapter) selectListings() *goqu.SelectDataset {
	return a.db.Select(
		goqu.I("p.id"), goqu.I("p.owner_id"), goqu.I("p.title"), goqu.I("p.description"),
		goqu.I("p.address"), goqu.I("p.type"), goqu.I("p.price"), goqu.I("p.distance_km"),
		goqu.I("p.bedrooms"), goqu.I("p.bathrooms"), goqu.I("p.surface"), goqu.I("p.furnished"),
		goqu.I("p.availability"), goqu.I("p.utilities"), goqu.I("p.services"), imagesColumn,
		goqu.I("p.status"), goqu.I("p.created_at"), goqu.I("p.updated_at"),
	).From(goqu.T(listingsTable).As("p"))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*entities.Listing, error) {
	listing := &entities.Listing{}
	var ownerID, availability sql.NullString
	var utilities, status string

	err := row.Scan(
		&listing.ID,
		&ownerID,
		&listing.Title,
		&listing.Description,
		&listing.Address,
		&listing.Type,
		&listing.Price,
		&listing.DistanceKm,
		&listing.Bedrooms,
		&listing.Bathrooms,
		&listing.Surface,
		&listing.Furnished,
		&availability,
		&utilities,
		pq.Array(&listing.Services),
		pq.Array(&listing.Images),
		&status,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.OwnerID = ownerID.String
	listing.Utilities = entities.ParseUtilities(utilities)
	listing.Status, err = entities.ParseListingStatus(status)
	if err != nil {
		return nil, err
	}

	// without a stored label, availability follows the status
	switch {
	case availability.Valid && availability.String != "":
		listing.Availability = entities.ParseAvailability(availability.String)
	case listing.Status == entities.ListingStatusAvailable:
		listing.Availability = entities.AvailableNow()
	default:
		listing.Availability = entities.NotAvailable()
	}

	if listing.Services == nil {
		listing.Services = []string{}
	}
	if listing.Images == nil {
		listing.Images = []string{}
	}
	return listing, nil
}

func (a *ListingAdapter) queryListings(ctx context.Context, ds *goqu.SelectDataset, action string) ([]*entities.Listing, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to "+action, err)
	}
	defer rows.Close()

	listings := []*entities.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan listing", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to "+action, err)
	}
	return listings, nil
}

func listingRecord(listing *entities.Listing) goqu.Record {
	record := goqu.Record{
		"title":       listing.Title,
		"description": listing.Description,
		"address":     listing.Address,
		"type":        listing.Type,
		"price":       listing.Price,
		"distance_km": listing.DistanceKm,
		"bedrooms":    listing.Bedrooms,
		"bathrooms":   listing.Bathrooms,
		"surface":     listing.Surface,
		"furnished":   listing.Furnished,
		"utilities":   listing.Utilities.String(),
		"services":    pq.Array(listing.Services),
		"updated_at":  listing.UpdatedAt,
	}
	// Now and Unavailable follow the status; only a date label is stored
	if listing.Availability.Kind == entities.AvailabilityOnDate {
		record["availability"] = listing.Availability.Label
	} else {
		record["availability"] = nil
	}
	return record
}

// Create creates a new listing
func (a *ListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	record := listingRecord(listing)
	record["id"] = listing.ID
	record["owner_id"] = sql.NullString{String: listing.OwnerID, Valid: listing.OwnerID != ""}
	record["status"] = listing.Status.StorageValue()
	record["created_at"] = listing.CreatedAt

	query, args, err := a.db.Insert(listingsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create listing", err)
	}
	return nil
}

// GetByID retrieves a listing by ID regardless of status
func (a *ListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	query, args, err := a.selectListings().Where(goqu.Ex{"p.id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	listing, err := scanListing(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}
	return listing, nil
}

// GetByIDs retrieves multiple listings; missing IDs are skipped
func (a *ListingAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}
	return a.queryListings(ctx, a.selectListings().Where(goqu.Ex{"p.id": ids}), "get listings by ids")
}

// Update updates the editable fields of a listing
func (a *ListingAdapter) Update(ctx context.Context, listing *entities.Listing) error {
	listing.UpdatedAt = time.Now()

	query, args, err := a.db.Update(listingsTable).
		Set(listingRecord(listing)).
		Where(goqu.Ex{"id": listing.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return a.execOne(ctx, query, args, listing.ID, "update listing")
}

// UpdateStatus changes the lifecycle status of a listing
func (a *ListingAdapter) UpdateStatus(ctx context.Context, id string, status entities.ListingStatus) error {
	query, args, err := a.db.Update(listingsTable).
		Set(goqu.Record{
			"status":     status.StorageValue(),
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status query", err)
	}

	return a.execOne(ctx, query, args, id, "update listing status")
}

// Delete deletes a listing
func (a *ListingAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(listingsTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return a.execOne(ctx, query, args, id, "delete listing")
}

func (a *ListingAdapter) execOne(ctx context.Context, query string, args []interface{}, id, action string) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to "+action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	return nil
}

// ListAvailable returns available listings of active or unowned accounts, newest first
func (a *ListingAdapter) ListAvailable(ctx context.Context) ([]*entities.Listing, error) {
	ds := a.selectListings().
		LeftJoin(goqu.T("owners").As("o"), goqu.On(goqu.Ex{"o.id": goqu.I("p.owner_id")})).
		Where(
			goqu.Ex{"p.status": entities.ListingStatusAvailable.StorageValue()},
			goqu.Or(
				goqu.I("p.owner_id").IsNull(),
				goqu.I("o.is_active").IsTrue(),
			),
		).
		Order(goqu.I("p.created_at").Desc())

	return a.queryListings(ctx, ds, "list available listings")
}

// ListByOwner returns every listing of an owner, newest first
func (a *ListingAdapter) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Listing, error) {
	ds := a.selectListings().
		Where(goqu.Ex{"p.owner_id": ownerID}).
		Order(goqu.I("p.created_at").Desc())

	return a.queryListings(ctx, ds, "list owner listings")
}

// DeleteByOwner deletes all listings of an owner and returns the count
func (a *ListingAdapter) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	query, args, err := a.db.Delete(listingsTable).Where(goqu.Ex{"owner_id": ownerID}).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to delete owner listings", err)
	}
	return result.RowsAffected()
}
