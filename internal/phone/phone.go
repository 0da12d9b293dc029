// internal/phone/phone.go
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"

	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// Normalize parses raw into E.164 form, using defaultRegion (ISO 3166-1,
// e.g. "US") when the number carries no country prefix. Failure is terminal
// for the contact: an unparseable number never becomes valid on retry.
func Normalize(raw, defaultRegion string) (model.NormalizedPhone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.NormalizedPhone{}, appErrors.NewInvalidPhoneNumber(raw)
	}
	if defaultRegion == "" {
		defaultRegion = "US"
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return model.NormalizedPhone{}, appErrors.NewInvalidPhoneNumber(raw)
	}
	if !phonenumbers.IsValidNumber(num) {
		return model.NormalizedPhone{}, appErrors.NewInvalidPhoneNumber(raw)
	}

	return model.NormalizedPhone{
		E164:        phonenumbers.Format(num, phonenumbers.E164),
		CountryCode: int(num.GetCountryCode()),
	}, nil
}

// RegionForDialCode maps a dial prefix like "+1" or "254" to the parse
// region phonenumbers expects. Unknown prefixes fall back to US, matching
// the campaign default country code.
func RegionForDialCode(code string) string {
	code = strings.TrimPrefix(strings.TrimSpace(code), "+")
	n, err := strconv.Atoi(code)
	if err != nil {
		return "US"
	}
	region := phonenumbers.GetRegionCodeForCountryCode(n)
	if region == "" || region == "ZZ" {
		return "US"
	}
	return region
}
