package sheets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/permitflow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testSummary() *service.ReportSummary {
	return &service.ReportSummary{
		GeneratedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Title:       "Permit Duration Report",
		Source:      "permits.xlsx",
		Mode:        "proportion",
		Rows: []service.SummaryRow{
			{
				Group:    "Manhattan",
				Subtype:  "MH",
				Category: "3–5 floors",
				Count:    3,
				Percent:  decimal.RequireFromString("33.3"),
				Expected: decimal.NewNullDecimal(decimal.RequireFromString("47")),
			},
			{
				Group:    "NYC",
				Subtype:  "BL",
				Category: ">15 floors",
				Count:    0,
				Percent:  decimal.Zero,
			},
		},
		Averages: []service.AverageRow{
			{Group: "Manhattan", Subtype: "MH", Mean: decimal.RequireFromString("150.5"), Count: 4},
		},
	}
}

func TestPrepareReportData(t *testing.T) {
	values := PrepareReportData(testSummary())

	require.Len(t, values, 10)
	assert.Equal(t, []any{"Permit Duration Report", "May 1, 2024 09:30"}, values[0])
	assert.Equal(t, []any{"Mode", "proportion"}, values[2])
	assert.Equal(t, distributionHeader, values[4])
	assert.Equal(t, []any{"Manhattan", "MH", "3–5 floors", 3, 33.3, 47.0}, values[5])
	assert.Equal(t, []any{"NYC", "BL", ">15 floors", 0, 0.0, ""}, values[6])
	assert.Equal(t, []any{}, values[7])
	assert.Equal(t, []any{"Manhattan", "MH", 150.5, 4}, values[9])
}

func TestPrepareReportData_NoAverages(t *testing.T) {
	s := testSummary()
	s.Averages = nil
	assert.Len(t, PrepareReportData(s), 7)
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, testSummary()))
	m.WriteFunc = func(context.Context, *service.ReportSummary) error { return errors.New("quota") }
	assert.Error(t, m.Write(ctx, testSummary()))

	calls := m.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.NoError(t, calls[0].Error)
	assert.Error(t, calls[1].Error)
	assert.Equal(t, 2, m.WriteCallCount)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
	assert.Nil(t, m.LastSummary)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))
	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)

	cached, err := GetOrCreateToken(context.Background(), OAuth2Config{TokenFile: path})
	require.NoError(t, err)
	assert.Equal(t, "access", cached.AccessToken)
}

func TestOAuth2Config_RedirectURL(t *testing.T) {
	c := OAuth2Config{ClientID: "id", ClientSecret: "secret"}
	assert.Equal(t, "http://localhost:8080/callback", c.oauth().RedirectURL)

	c.CallbackAddr = "127.0.0.1:9999"
	assert.Equal(t, "http://127.0.0.1:9999/callback", c.oauth().RedirectURL)
}
