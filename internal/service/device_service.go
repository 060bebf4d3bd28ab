package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tracker/internal/model"
	"tracker/internal/phone"
	"tracker/internal/repository"
	"tracker/internal/validate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterDeviceRequest is the operator-submitted registration payload.
// At least one of IMEI/Phone must be present.
type RegisterDeviceRequest struct {
	Owner string `json:"owner"`
	IMEI  string `json:"imei"`
	Phone string `json:"phone"`
}

// Point is a lat/lng pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeviceResponse mirrors a Device record, including its bearer token —
// the operator surfaces that mint and display tokens need it.
type DeviceResponse struct {
	ID           uuid.UUID  `json:"id"`
	Owner        *string    `json:"owner,omitempty"`
	IMEI         *string    `json:"imei,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Carrier      *string    `json:"carrier,omitempty"`
	Region       *string    `json:"region,omitempty"`
	APIToken     string     `json:"api_token"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
	LastLocation *Point     `json:"last_location"`
}

// LocationPoint is one history entry in a lookup result.
type LocationPoint struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	Ts  time.Time `json:"ts"`
}

// DeviceDetail is a device plus its full ordered trajectory.
type DeviceDetail struct {
	DeviceResponse
	Locations []LocationPoint `json:"locations"`
}

// DeviceService covers registration, lookup and token rotation.
type DeviceService interface {
	Register(ctx context.Context, req RegisterDeviceRequest) (*DeviceResponse, error)
	Lookup(ctx context.Context, id validate.Identifier) (*DeviceDetail, error)
	RotateToken(ctx context.Context, query string, regenerate bool) (*DeviceResponse, error)
}

type deviceService struct {
	devices repository.DeviceRepository
	phones  phone.Metadata
}

// NewDeviceService returns a new instance of DeviceService
func NewDeviceService(devices repository.DeviceRepository, phones phone.Metadata) DeviceService {
	return &deviceService{devices: devices, phones: phones}
}

func mapDeviceToResponse(device *model.Device) DeviceResponse {
	resp := DeviceResponse{
		ID:         device.ID,
		Owner:      device.Owner,
		IMEI:       device.IMEI,
		Phone:      device.Phone,
		Carrier:    device.Carrier,
		Region:     device.Region,
		APIToken:   device.APIToken,
		LastUpdate: device.LastUpdate,
	}
	if device.LastLat != nil && device.LastLng != nil {
		resp.LastLocation = &Point{Lat: *device.LastLat, Lng: *device.LastLng}
	}
	return resp
}

func (s *deviceService) Register(ctx context.Context, req RegisterDeviceRequest) (*DeviceResponse, error) {
	owner := strings.TrimSpace(req.Owner)
	imei := strings.TrimSpace(req.IMEI)
	phoneRaw := strings.TrimSpace(req.Phone)

	var errs []string
	if imei != "" && !validate.IsIMEI(imei) {
		errs = append(errs, "IMEI must be a valid 15-digit number.")
	}
	var phoneE164 string
	if phoneRaw != "" {
		normalized, ok := s.phones.Normalize(phoneRaw)
		if !ok {
			errs = append(errs, "Phone number must be valid and include country code.")
		} else {
			phoneE164 = normalized
		}
	}
	if imei == "" && phoneRaw == "" {
		errs = append(errs, "Provide at least IMEI or phone number.")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	// Fast-path duplicate checks give identifier-specific messages; the
	// unique constraints at insert time stay authoritative. Both paths
	// surface as ErrDeviceExists conflicts.
	if imei != "" {
		if _, err := s.devices.GetByIdentifier(ctx, validate.IMEIIdentifier(imei)); err == nil {
			return nil, ErrIMEIExists
		}
	}
	if phoneE164 != "" {
		if _, err := s.devices.GetByIdentifier(ctx, validate.PhoneIdentifier(phoneE164)); err == nil {
			return nil, ErrPhoneExists
		}
	}

	device := &model.Device{
		ID:       uuid.New(),
		APIToken: NewAPIToken(),
	}
	if owner != "" {
		device.Owner = &owner
	}
	if imei != "" {
		device.IMEI = &imei
	}
	if phoneE164 != "" {
		device.Phone = &phoneE164
		// Derived metadata is best-effort and never blocks registration.
		if carrier := s.phones.Carrier(phoneE164); carrier != "" {
			device.Carrier = &carrier
		}
		if region := s.phones.Region(phoneE164); region != "" {
			device.Region = &region
		}
	}

	if err := s.devices.Create(ctx, device); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDeviceExists
		}
		return nil, err
	}

	resp := mapDeviceToResponse(device)
	return &resp, nil
}

func (s *deviceService) Lookup(ctx context.Context, id validate.Identifier) (*DeviceDetail, error) {
	device, err := s.devices.GetByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	history, err := s.devices.History(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	detail := &DeviceDetail{
		DeviceResponse: mapDeviceToResponse(device),
		Locations:      make([]LocationPoint, 0, len(history)),
	}
	for _, sample := range history {
		detail.Locations = append(detail.Locations, LocationPoint{Lat: sample.Lat, Lng: sample.Lng, Ts: sample.Ts})
	}
	return detail, nil
}

func (s *deviceService) RotateToken(ctx context.Context, query string, regenerate bool) (*DeviceResponse, error) {
	id, err := validate.ParseIdentifier(query, s.phones)
	if err != nil {
		return nil, ErrDeviceNotFound
	}

	device, err := s.devices.GetByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	if regenerate {
		token := NewAPIToken()
		if err := s.devices.UpdateToken(ctx, device.ID, token); err != nil {
			return nil, err
		}
		device.APIToken = token
	}

	resp := mapDeviceToResponse(device)
	return &resp, nil
}
