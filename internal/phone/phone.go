// Package phone wraps the libphonenumber port behind the narrow surface
// the tracker needs, so tests can substitute a stub.
package phone

import "github.com/nyaruka/phonenumbers"

// Metadata normalizes phone numbers and derives best-effort metadata.
type Metadata interface {
	// Normalize parses raw with full international semantics (a country
	// code is required) and returns the E.164 form. ok is false when the
	// number cannot be parsed or is implausible.
	Normalize(raw string) (e164 string, ok bool)
	// Carrier names the carrier serving an E.164 number, or "".
	Carrier(e164 string) string
	// Region describes the geographic region of an E.164 number, or "".
	Region(e164 string) string
}

type libMetadata struct{}

// NewMetadata returns the phonenumbers-backed Metadata implementation.
func NewMetadata() Metadata {
	return libMetadata{}
}

func (libMetadata) Normalize(raw string) (string, bool) {
	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

func (libMetadata) Carrier(e164 string) string {
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return ""
	}
	name, err := phonenumbers.GetCarrierForNumber(num, "en")
	if err != nil {
		return ""
	}
	return name
}

func (libMetadata) Region(e164 string) string {
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return ""
	}
	desc, err := phonenumbers.GetGeocodingForNumber(num, "en")
	if err != nil {
		return ""
	}
	return desc
}
