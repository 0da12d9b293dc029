// internal/service/contacts_import.go
package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// ImportContacts parses an uploaded CSV into campaign contacts. Column
// names are matched loosely (patient_name or name, phone_number or phone)
// since the uploads come from hand-edited spreadsheets.
func (s *CampaignService) ImportContacts(campaignID uuid.UUID, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	col := func(names ...string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	nameCol := col("patient_name", "name")
	phoneCol := col("phone_number", "phone")
	if phoneCol < 0 {
		return 0, fmt.Errorf("csv has no phone_number column")
	}
	dateCol := col("appointment_date")
	timeCol := col("appointment_time")
	providerCol := col("provider_name")
	locationCol := col("office_location")

	field := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	contacts := []model.Contact{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv row: %w", err)
		}

		contacts = append(contacts, model.Contact{
			CampaignID:      campaignID,
			PatientName:     field(record, nameCol),
			Phone:           field(record, phoneCol),
			AppointmentDate: field(record, dateCol),
			AppointmentTime: field(record, timeCol),
			ProviderName:    field(record, providerCol),
			OfficeLocation:  field(record, locationCol),
		})
	}

	if len(contacts) == 0 {
		return 0, fmt.Errorf("csv contains no contact rows")
	}
	return s.ContactRepo.BulkInsert(contacts)
}
