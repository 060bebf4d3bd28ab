package service

import (
	"context"
	"errors"
	"time"

	"tracker/internal/model"
	"tracker/internal/repository"
	"tracker/internal/validate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportSample is one history entry in the transfer document.
type ExportSample struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	Ts  time.Time `json:"ts"`
}

// ExportDevice is a device record plus its ordered history, in the
// document shape shared by export and import.
type ExportDevice struct {
	Owner        *string        `json:"owner"`
	IMEI         *string        `json:"imei"`
	Phone        *string        `json:"phone"`
	Carrier      *string        `json:"carrier"`
	Region       *string        `json:"region"`
	APIToken     string         `json:"api_token,omitempty"`
	LastUpdate   *time.Time     `json:"last_update"`
	LastLocation *Point         `json:"last_location"`
	Locations    []ExportSample `json:"locations"`
}

// ExportDocument is the whole-corpus transfer document. No filtering,
// no pagination — intended for small-to-moderate datasets.
type ExportDocument struct {
	Devices []ExportDevice `json:"devices"`
}

// ImportSummary reports what an import run did.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TransferService covers the JSON backup/restore convenience.
type TransferService interface {
	Export(ctx context.Context) (*ExportDocument, error)
	Import(ctx context.Context, doc *ExportDocument) (*ImportSummary, error)
}

type transferService struct {
	devices repository.DeviceRepository
	tx      repository.TransactionManager
}

// NewTransferService returns a new instance of TransferService
func NewTransferService(devices repository.DeviceRepository, tx repository.TransactionManager) TransferService {
	return &transferService{devices: devices, tx: tx}
}

func (s *transferService) Export(ctx context.Context) (*ExportDocument, error) {
	devices, err := s.devices.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{Devices: make([]ExportDevice, 0, len(devices))}
	for i := range devices {
		d := &devices[i]
		entry := ExportDevice{
			Owner:      d.Owner,
			IMEI:       d.IMEI,
			Phone:      d.Phone,
			Carrier:    d.Carrier,
			Region:     d.Region,
			APIToken:   d.APIToken,
			LastUpdate: d.LastUpdate,
			Locations:  []ExportSample{},
		}
		if d.LastLat != nil && d.LastLng != nil {
			entry.LastLocation = &Point{Lat: *d.LastLat, Lng: *d.LastLng}
		}

		history, err := s.devices.History(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, sample := range history {
			entry.Locations = append(entry.Locations, ExportSample{Lat: sample.Lat, Lng: sample.Lng, Ts: sample.Ts})
		}
		doc.Devices = append(doc.Devices, entry)
	}
	return doc, nil
}

// Import inserts each incoming device and its history verbatim, one
// transaction per device. A device whose IMEI or phone already exists
// is skipped entirely — first write wins, no merge.
func (s *transferService) Import(ctx context.Context, doc *ExportDocument) (*ImportSummary, error) {
	summary := &ImportSummary{}

	for i := range doc.Devices {
		incoming := &doc.Devices[i]

		// An entry with neither IMEI nor phone could never be addressed
		// again; it is skipped rather than inserted.
		if !hasIdentifier(incoming) || s.exists(ctx, incoming) {
			summary.Skipped++
			continue
		}

		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			device := &model.Device{
				ID:         uuid.New(),
				Owner:      incoming.Owner,
				IMEI:       incoming.IMEI,
				Phone:      incoming.Phone,
				Carrier:    incoming.Carrier,
				Region:     incoming.Region,
				APIToken:   incoming.APIToken,
				LastUpdate: incoming.LastUpdate,
			}
			if device.APIToken == "" {
				device.APIToken = NewAPIToken()
			}
			if incoming.LastLocation != nil {
				lat, lng := incoming.LastLocation.Lat, incoming.LastLocation.Lng
				device.LastLat = &lat
				device.LastLng = &lng
			}

			if err := s.devices.Create(txCtx, device); err != nil {
				return err
			}
			for _, loc := range incoming.Locations {
				sample := &model.LocationSample{
					DeviceID: device.ID,
					Lat:      loc.Lat,
					Lng:      loc.Lng,
					Ts:       loc.Ts,
				}
				if err := s.devices.AppendSample(txCtx, sample); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			// A duplicate slipping past the pre-check loses the race to
			// the unique constraint and counts as skipped.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				summary.Skipped++
				continue
			}
			return nil, err
		}
		summary.Imported++
	}
	return summary, nil
}

func hasIdentifier(incoming *ExportDevice) bool {
	if incoming.IMEI != nil && *incoming.IMEI != "" {
		return true
	}
	return incoming.Phone != nil && *incoming.Phone != ""
}

func (s *transferService) exists(ctx context.Context, incoming *ExportDevice) bool {
	if incoming.IMEI != nil && *incoming.IMEI != "" {
		if _, err := s.devices.GetByIdentifier(ctx, validate.IMEIIdentifier(*incoming.IMEI)); err == nil {
			return true
		}
	}
	if incoming.Phone != nil && *incoming.Phone != "" {
		if _, err := s.devices.GetByIdentifier(ctx, validate.PhoneIdentifier(*incoming.Phone)); err == nil {
			return true
		}
	}
	return false
}
