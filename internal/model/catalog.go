package model

import "github.com/shopspring/decimal"

// CatalogItem is static reference data; UnitPrice is the supplier price per unit.
type CatalogItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Category  string          `gorm:"type:varchar(50);not null" json:"category" validate:"required"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
}

func (CatalogItem) TableName() string {
	return "catalog_items"
}

// InventoryItem marks a catalog item as stocked. Current stock is always
// recomputed from the ledger; SeedStock only records the opening quantity.
type InventoryItem struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ItemName      string `gorm:"type:varchar(255);uniqueIndex;not null" json:"item_name" validate:"required"`
	MinStockLevel int    `gorm:"not null;default:0" json:"min_stock_level" validate:"gte=0"`
	SeedStock     int    `gorm:"not null;default:0" json:"seed_stock"`
}

func (InventoryItem) TableName() string {
	return "inventory"
}

const (
	CategoryPaper       = "paper"
	CategoryProduct     = "product"
	CategoryLargeFormat = "large_format"
	CategorySpecialty   = "specialty"
)

func catalogItem(name, category, price string) CatalogItem {
	return CatalogItem{Name: name, Category: category, UnitPrice: decimal.RequireFromString(price)}
}

// DefaultCatalog is the full list of supplies the company can sell.
var DefaultCatalog = []CatalogItem{
	// Paper, priced per sheet
	catalogItem("A4 paper", CategoryPaper, "0.05"),
	catalogItem("Letter-sized paper", CategoryPaper, "0.06"),
	catalogItem("Cardstock", CategoryPaper, "0.15"),
	catalogItem("Colored paper", CategoryPaper, "0.10"),
	catalogItem("Glossy paper", CategoryPaper, "0.20"),
	catalogItem("Matte paper", CategoryPaper, "0.18"),
	catalogItem("Recycled paper", CategoryPaper, "0.08"),
	catalogItem("Eco-friendly paper", CategoryPaper, "0.12"),
	catalogItem("Poster paper", CategoryPaper, "0.25"),
	catalogItem("Banner paper", CategoryPaper, "0.30"),
	catalogItem("Kraft paper", CategoryPaper, "0.10"),
	catalogItem("Construction paper", CategoryPaper, "0.07"),
	catalogItem("Wrapping paper", CategoryPaper, "0.15"),
	catalogItem("Glitter paper", CategoryPaper, "0.22"),
	catalogItem("Decorative paper", CategoryPaper, "0.18"),
	catalogItem("Letterhead paper", CategoryPaper, "0.12"),
	catalogItem("Legal-size paper", CategoryPaper, "0.08"),
	catalogItem("Crepe paper", CategoryPaper, "0.05"),
	catalogItem("Photo paper", CategoryPaper, "0.25"),
	catalogItem("Uncoated paper", CategoryPaper, "0.06"),
	catalogItem("Butcher paper", CategoryPaper, "0.10"),
	catalogItem("Heavyweight paper", CategoryPaper, "0.20"),
	catalogItem("Standard copy paper", CategoryPaper, "0.04"),
	catalogItem("Bright-colored paper", CategoryPaper, "0.12"),
	catalogItem("Patterned paper", CategoryPaper, "0.15"),

	// Products, priced per unit
	catalogItem("Paper plates", CategoryProduct, "0.10"),
	catalogItem("Paper cups", CategoryProduct, "0.08"),
	catalogItem("Paper napkins", CategoryProduct, "0.02"),
	catalogItem("Disposable cups", CategoryProduct, "0.10"),
	catalogItem("Table covers", CategoryProduct, "1.50"),
	catalogItem("Envelopes", CategoryProduct, "0.05"),
	catalogItem("Sticky notes", CategoryProduct, "0.03"),
	catalogItem("Notepads", CategoryProduct, "2.00"),
	catalogItem("Invitation cards", CategoryProduct, "0.50"),
	catalogItem("Flyers", CategoryProduct, "0.15"),
	catalogItem("Party streamers", CategoryProduct, "0.05"),
	catalogItem("Decorative adhesive tape (washi tape)", CategoryProduct, "0.20"),
	catalogItem("Paper party bags", CategoryProduct, "0.25"),
	catalogItem("Name tags with lanyards", CategoryProduct, "0.75"),
	catalogItem("Presentation folders", CategoryProduct, "0.50"),

	// Large format
	catalogItem("Large poster paper (24x36 inches)", CategoryLargeFormat, "1.00"),
	catalogItem("Rolls of banner paper (36-inch width)", CategoryLargeFormat, "2.50"),

	// Specialty
	catalogItem("100 lb cover stock", CategorySpecialty, "0.50"),
	catalogItem("80 lb text paper", CategorySpecialty, "0.40"),
	catalogItem("250 gsm cardstock", CategorySpecialty, "0.30"),
	catalogItem("220 gsm poster paper", CategorySpecialty, "0.35"),
}
