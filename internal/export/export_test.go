package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"truvamate/internal/models"
	"truvamate/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleEntries() []service.ReferralEntry {
	return []service.ReferralEntry{
		{
			Referral: models.Referral{
				ID:                "alice_bob",
				ReferredUserName:  "Bob",
				ReferredUserEmail: "bob@example.com",
				CommissionCents:   40000,
				CommissionPaid:    true,
				CreatedAt:         time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC),
			},
			ReferrerName:  "Alice",
			ReferrerEmail: "alice@example.com",
		},
		{
			Referral: models.Referral{
				ID:                "alice_carol",
				ReferredUserName:  "Carol, Jr.",
				ReferredUserEmail: "carol@example.com",
				CommissionCents:   1250,
				CreatedAt:         time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC),
			},
			ReferrerName:  "Alice",
			ReferrerEmail: "alice@example.com",
		},
	}
}

func TestThaiDate(t *testing.T) {
	// 20:00 UTC is already the next day in Bangkok.
	assert.Equal(t, "10/3/2569", ThaiDate(time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1/1/2570", ThaiDate(time.Date(2026, 12, 31, 17, 0, 0, 0, time.UTC)))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleEntries()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, headers, records[0])
	assert.Equal(t, []string{"10/3/2569", "Alice", "alice@example.com", "Bob", "bob@example.com", "400.00", "จ่ายแล้ว"}, records[1])
	assert.Equal(t, "Carol, Jr.", records[2][3])
	assert.Equal(t, "12.50", records[2][5])
	assert.Equal(t, "รอจ่าย", records[2][6])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleEntries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "Bob", rows[1][3])
	assert.Equal(t, "รอจ่าย", rows[2][6])
}

func TestWriteUnsupported(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "pdf", nil))
	assert.Empty(t, ContentType("pdf"))
	assert.Equal(t, "referrals_2026-10-17.csv", Filename(FormatCSV, time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)))
}
