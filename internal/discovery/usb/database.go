// internal/discovery/usb/database.go
package usb

import (
	"github.com/google/gousb"

	"ic-control/internal/model"
)

// ProductInfo describes an adapter the link layer can drive directly
type ProductInfo struct {
	Model      string
	DeviceType model.DeviceType
	Channels   []string
}

// DeviceDatabase contains known USB adapters keyed by vendor then product
type DeviceDatabase struct {
	vendors map[gousb.ID]map[gousb.ID]*ProductInfo
}

// NewDeviceDatabase creates and initializes the adapter database
func NewDeviceDatabase() *DeviceDatabase {
	db := &DeviceDatabase{vendors: make(map[gousb.ID]map[gousb.ID]*ProductInfo)}
	db.AddProduct(0x0403, 0x6010, &ProductInfo{
		Model:      "FT2232",
		DeviceType: model.DeviceTypeFT2232H,
		Channels:   []string{"A", "B"},
	})
	db.AddProduct(0x0403, 0x6030, &ProductInfo{
		Model:      "FT260",
		DeviceType: model.DeviceTypeFT260,
	})
	return db
}

// AddProduct registers an adapter
func (db *DeviceDatabase) AddProduct(vendorID, productID gousb.ID, info *ProductInfo) {
	products, ok := db.vendors[vendorID]
	if !ok {
		products = make(map[gousb.ID]*ProductInfo)
		db.vendors[vendorID] = products
	}
	products[productID] = info
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *DeviceDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// Identify resolves a descriptor to an adapter. FT2232 parts report bcdDevice
// 0x05xx for the D revision and 0x07xx for H.
func (db *DeviceDatabase) Identify(desc *gousb.DeviceDesc) (ProductInfo, bool) {
	info, ok := db.vendors[desc.Vendor][desc.Product]
	if !ok {
		return ProductInfo{}, false
	}
	out := *info
	if out.DeviceType.IsFTDI() {
		switch uint16(desc.Device) >> 8 {
		case 0x05:
			out.Model, out.DeviceType = "FT2232D", model.DeviceTypeFT2232D
		default:
			out.Model, out.DeviceType = "FT2232H", model.DeviceTypeFT2232H
		}
	}
	return out, true
}

// GetTotalProductCount returns total number of known products
func (db *DeviceDatabase) GetTotalProductCount() int {
	total := 0
	for _, products := range db.vendors {
		total += len(products)
	}
	return total
}
