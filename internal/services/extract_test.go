package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPersonalNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"standard form", "Patient: 19850312-1234 inkommer med besvär", "19850312-1234"},
		{"2000s century", "Pnr 20010930-5678", "20010930-5678"},
		{"invalid month", "19851312-1234", ""},
		{"invalid day", "19850332-1234", ""},
		{"missing dash", "198503121234", ""},
		{"embedded in longer number", "x119850312-1234", ""},
		{"absent", "ingen identitet angiven", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ExtractFields(tt.text)
			assert.Equal(t, tt.want, fields.PersonalNumber)
		})
	}
}

func TestExtractReferralDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"slash DMY", "Remissdatum: 15/03/2024", "2024-03-15"},
		{"dash DMY", "daterad 5-7-2023", "2023-07-05"},
		{"iso", "skickad 2024-03-15 från vårdcentralen", "2024-03-15"},
		{"dotted DMY", "15.03.2024", "2024-03-15"},
		{"two digit year below pivot", "15/03/24", "2024-03-15"},
		{"two digit year above pivot", "15/03/87", "1987-03-15"},
		{"invalid month skipped", "15/13/2024 men även 01.02.2023", "2023-02-01"},
		{"no date", "remiss utan datum", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ExtractFields(tt.text)
			assert.Equal(t, tt.want, fields.ReferralDate)
		})
	}
}

func TestExtractBothFields(t *testing.T) {
	text := "Remiss för 19700101-0000, utfärdad 2023-11-02."
	fields := ExtractFields(text)
	assert.Equal(t, "19700101-0000", fields.PersonalNumber)
	assert.Equal(t, "2023-11-02", fields.ReferralDate)
}
