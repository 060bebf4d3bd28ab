package model

import (
	"time"

	"github.com/google/uuid"
)

// Device is a tracked handset, identified by IMEI and/or phone number.
// At least one identifier is always set; each is unique when present
// (NULLs never collide, so optional identifiers stay optional).
// APIToken is the sole credential the ingestion API trusts.
type Device struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Owner      *string    `gorm:"type:varchar(255)" json:"owner,omitempty"`
	IMEI       *string    `gorm:"column:imei;type:varchar(15);uniqueIndex" json:"imei,omitempty"`
	Phone      *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Carrier    *string    `gorm:"type:varchar(255)" json:"carrier,omitempty"`
	Region     *string    `gorm:"type:varchar(255)" json:"region,omitempty"`
	APIToken   string     `gorm:"type:varchar(64);not null" json:"api_token"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	LastLat    *float64   `json:"last_lat,omitempty"`
	LastLng    *float64   `json:"last_lng,omitempty"`
}

// LocationSample is one GPS fix in a device's history. Append-only,
// owned by its device and removed only by cascade with it. Ordering by
// Ts ascending defines the trajectory.
type LocationSample struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	DeviceID uuid.UUID `gorm:"type:uuid;not null;index" json:"device_id"`
	Device   Device    `gorm:"foreignKey:DeviceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Lat      float64   `gorm:"not null" json:"lat"`
	Lng      float64   `gorm:"not null" json:"lng"`
	Ts       time.Time `gorm:"not null;index" json:"ts"`
}
