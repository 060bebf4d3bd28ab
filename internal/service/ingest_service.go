package service

import (
	"context"
	"errors"
	"time"

	"tracker/internal/model"
	"tracker/internal/repository"
	"tracker/internal/validate"

	"gorm.io/gorm"
)

// IngestService is the write path for field devices. Both operations
// authenticate with the device's bearer token, never a session.
type IngestService interface {
	// ValidateDevice reports nil when the token matches the device's
	// stored one, ErrDeviceNotFound or ErrInvalidToken otherwise.
	ValidateDevice(ctx context.Context, id validate.Identifier, token string) error
	// SubmitLocation appends a sample at the current server time and
	// overwrites the device's last-known snapshot, atomically.
	SubmitLocation(ctx context.Context, id validate.Identifier, lat, lng float64, token string) error
}

type ingestService struct {
	devices repository.DeviceRepository
	tx      repository.TransactionManager
}

// NewIngestService returns a new instance of IngestService
func NewIngestService(devices repository.DeviceRepository, tx repository.TransactionManager) IngestService {
	return &ingestService{devices: devices, tx: tx}
}

func (s *ingestService) authenticate(ctx context.Context, id validate.Identifier, token string) (*model.Device, error) {
	device, err := s.devices.GetByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	if !tokensEqual(device.APIToken, token) {
		return nil, ErrInvalidToken
	}
	return device, nil
}

func (s *ingestService) ValidateDevice(ctx context.Context, id validate.Identifier, token string) error {
	_, err := s.authenticate(ctx, id, token)
	return err
}

func (s *ingestService) SubmitLocation(ctx context.Context, id validate.Identifier, lat, lng float64, token string) error {
	// One transaction around the sample append and snapshot update: a
	// concurrent reader must never see one without the other.
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		device, err := s.authenticate(txCtx, id, token)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		sample := &model.LocationSample{
			DeviceID: device.ID,
			Lat:      lat,
			Lng:      lng,
			Ts:       now,
		}
		if err := s.devices.AppendSample(txCtx, sample); err != nil {
			return err
		}
		return s.devices.UpdateLastKnown(txCtx, device.ID, lat, lng, now)
	})
}
