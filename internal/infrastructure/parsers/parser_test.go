package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func TestForFormat(t *testing.T) {
	tests := []struct {
		format   string
		wantType Parser
	}{
		{"json", &JSONParser{}},
		{"JSON", &JSONParser{}},
		{"csv", &CSVParser{}},
		{"CSV", &CSVParser{}},
		{"xml", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.wantType, ForFormat(tt.format))
		})
	}
}

func TestForFile(t *testing.T) {
	assert.Equal(t, &CSVParser{}, ForFile("feeds/vendor_a.csv"))
	assert.Equal(t, &JSONParser{}, ForFile("feeds/market_b.JSON"))
	assert.Nil(t, ForFile("feeds/notes.txt"))
	assert.Nil(t, ForFile("feeds/noext"))
}

func TestCSVParser_Parse(t *testing.T) {
	input := `security_id,security_name,issuer_name,asset_class,currency
SEC001,HSBC Holdings plc,HSBC Holdings,EQUITY,GBP
SEC002,Barclays PLC,Barclays,EQUITY,GBP
`
	parser := &CSVParser{}
	records, err := parser.Parse(strings.NewReader(input), entities.SourceFeedA)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, entities.SourceFeedA, records[0].Source)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "SEC001", records[0].Field("security_id"))
	assert.Equal(t, "HSBC Holdings plc", records[0].Field("security_name"))
	assert.Equal(t, "GBP", records[0].Field("currency"))

	assert.Equal(t, 3, records[1].Line)
	assert.Equal(t, "SEC002", records[1].Field("security_id"))
}

func TestCSVParser_Parse_RaggedRow(t *testing.T) {
	// Short rows leave trailing columns unset instead of failing.
	input := `security_id,security_name,issuer_name
SEC001,HSBC Holdings plc
`
	parser := &CSVParser{}
	records, err := parser.Parse(strings.NewReader(input), entities.SourceFeedA)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "HSBC Holdings plc", records[0].Field("security_name"))
	assert.Equal(t, "", records[0].Field("issuer_name"))
}

func TestCSVParser_Parse_HeaderWhitespace(t *testing.T) {
	input := " security_id , security_name \nSEC001,HSBC\n"
	parser := &CSVParser{}
	records, err := parser.Parse(strings.NewReader(input), entities.SourceFeedA)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SEC001", records[0].Field("security_id"))
}

func TestCSVParser_Parse_EmptyInput(t *testing.T) {
	parser := &CSVParser{}
	_, err := parser.Parse(strings.NewReader(""), entities.SourceFeedA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestCSVParser_Parse_HeaderOnly(t *testing.T) {
	parser := &CSVParser{}
	records, err := parser.Parse(strings.NewReader("security_id,security_name\n"), entities.SourceFeedA)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONParser_Parse(t *testing.T) {
	input := `[
		{"ric_code": "HSBA.L", "instrument_name": "HSBC HOLDINGS ORD", "issuer": "HSBC Holdings", "instrument_type": "Equity"},
		{"ric_code": "BARC.L", "instrument_name": "BARCLAYS ORD", "issuer": "Barclays", "instrument_type": "Equity"}
	]`

	parser := &JSONParser{}
	records, err := parser.Parse(strings.NewReader(input), entities.SourceFeedB)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, entities.SourceFeedB, records[0].Source)
	assert.Equal(t, 1, records[0].Line)
	assert.Equal(t, "HSBA.L", records[0].Field("ric_code"))
	assert.Equal(t, 2, records[1].Line)
	assert.Equal(t, "BARC.L", records[1].Field("ric_code"))
}

func TestJSONParser_Parse_ValueTypes(t *testing.T) {
	input := `[{"fca_ref_number": 123456, "fund_name": "Income Fund", "active": true, "ratio": 1.5, "notes": null}]`

	parser := &JSONParser{}
	records, err := parser.Parse(strings.NewReader(input), entities.SourceFeedC)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "123456", records[0].Field("fca_ref_number"))
	assert.Equal(t, "Income Fund", records[0].Field("fund_name"))
	assert.Equal(t, "true", records[0].Field("active"))
	assert.Equal(t, "1.5", records[0].Field("ratio"))
	assert.Equal(t, "", records[0].Field("notes"))
}

func TestJSONParser_Parse_Invalid(t *testing.T) {
	parser := &JSONParser{}
	_, err := parser.Parse(strings.NewReader(`{"not": "an array"}`), entities.SourceFeedB)
	require.Error(t, err)
}

func TestJSONParser_Parse_EmptyArray(t *testing.T) {
	parser := &JSONParser{}
	records, err := parser.Parse(strings.NewReader(`[]`), entities.SourceFeedB)
	require.NoError(t, err)
	assert.Empty(t, records)
}
