package validate

import (
	"errors"
	"strings"
)

// IdentifierKind tags which of the two device identifiers a query holds.
type IdentifierKind string

const (
	KindIMEI  IdentifierKind = "imei"
	KindPhone IdentifierKind = "phone"
)

// Identifier is a device identifier resolved once at the HTTP boundary.
// Lower layers receive it explicitly instead of re-sniffing the raw
// query string.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// ErrUnrecognizedIdentifier means the input is neither a valid IMEI nor
// a normalizable phone number.
var ErrUnrecognizedIdentifier = errors.New("not a valid IMEI or phone number")

// Normalizer is the slice of phone metadata needed to classify a query.
type Normalizer interface {
	Normalize(raw string) (string, bool)
}

// ParseIdentifier classifies a raw query string as an IMEI or a phone
// number. IMEI wins when the Luhn check passes; otherwise the string
// must normalize to E.164.
func ParseIdentifier(raw string, n Normalizer) (Identifier, error) {
	s := strings.TrimSpace(raw)
	if IsIMEI(s) {
		return Identifier{Kind: KindIMEI, Value: s}, nil
	}
	if e164, ok := n.Normalize(s); ok {
		return Identifier{Kind: KindPhone, Value: e164}, nil
	}
	return Identifier{}, ErrUnrecognizedIdentifier
}

// IMEIIdentifier wraps a raw IMEI submitted through an explicit field.
func IMEIIdentifier(imei string) Identifier {
	return Identifier{Kind: KindIMEI, Value: imei}
}

// PhoneIdentifier wraps a raw phone submitted through an explicit field.
func PhoneIdentifier(phone string) Identifier {
	return Identifier{Kind: KindPhone, Value: phone}
}
