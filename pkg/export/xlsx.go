package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"propertyhub_backend/internal/model"
)

const SheetName = "Properties"

var header = []interface{}{
	"ID", "Title", "Slug", "Type", "Listing", "Status", "Price", "Area", "Area Unit",
	"Bedrooms", "Bathrooms", "Featured", "Verified", "Views", "City", "Locality",
	"Owner", "Owner Email", "Category", "Created At",
}

// PropertiesXLSX renders properties into a single-sheet workbook.
func PropertiesXLSX(properties []model.Property) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range properties {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := propertyRow(p)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf, nil
}

func propertyRow(p model.Property) []interface{} {
	var city, locality, owner, ownerEmail, category string
	if p.Location != nil {
		city, locality = p.Location.City, p.Location.Locality
	}
	if p.Owner != nil {
		owner, ownerEmail = p.Owner.Name, p.Owner.Email
	}
	if p.Category != nil {
		category = p.Category.Name
	}

	return []interface{}{
		p.ID, p.Title, p.Slug, string(p.PropertyType), string(p.ListingType), string(p.Status),
		p.Price, p.Area, p.AreaUnit, p.Bedroom, p.Bathroom, p.IsFeatured, p.IsVerified,
		p.ViewsCount, city, locality, owner, ownerEmail, category,
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
