package repository

import (
	"context"
	"time"

	"tracker/internal/model"
	"tracker/internal/validate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceRepository defines data access for devices and their location
// history. All methods honor a transaction injected via the context.
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByIdentifier(ctx context.Context, id validate.Identifier) (*model.Device, error)
	ListAll(ctx context.Context) ([]model.Device, error)
	UpdateToken(ctx context.Context, deviceID uuid.UUID, token string) error
	UpdateLastKnown(ctx context.Context, deviceID uuid.UUID, lat, lng float64, at time.Time) error
	AppendSample(ctx context.Context, sample *model.LocationSample) error
	History(ctx context.Context, deviceID uuid.UUID) ([]model.LocationSample, error)
}

type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository returns a new instance of DeviceRepository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, device *model.Device) error {
	return GetDB(ctx, r.db).Create(device).Error
}

func (r *deviceRepository) GetByIdentifier(ctx context.Context, id validate.Identifier) (*model.Device, error) {
	var device model.Device
	q := GetDB(ctx, r.db)
	var err error
	switch id.Kind {
	case validate.KindIMEI:
		err = q.First(&device, "imei = ?", id.Value).Error
	default:
		err = q.First(&device, "phone = ?", id.Value).Error
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) ListAll(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := GetDB(ctx, r.db).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) UpdateToken(ctx context.Context, deviceID uuid.UUID, token string) error {
	return GetDB(ctx, r.db).Model(&model.Device{}).
		Where("id = ?", deviceID).
		Update("api_token", token).Error
}

func (r *deviceRepository) UpdateLastKnown(ctx context.Context, deviceID uuid.UUID, lat, lng float64, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"last_lat":    lat,
			"last_lng":    lng,
			"last_update": at,
		}).Error
}

func (r *deviceRepository) AppendSample(ctx context.Context, sample *model.LocationSample) error {
	return GetDB(ctx, r.db).Create(sample).Error
}

func (r *deviceRepository) History(ctx context.Context, deviceID uuid.UUID) ([]model.LocationSample, error) {
	var samples []model.LocationSample
	if err := GetDB(ctx, r.db).
		Where("device_id = ?", deviceID).
		Order("ts ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
