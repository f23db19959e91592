package report

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/inventory"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

func sampleReport() CycleReport {
	return CycleReport{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Rebalance: &inventory.RebalanceResult{
			Accepted: []inventory.RebalanceOutcome{
				{
					Candidate: inventory.RebalanceCandidate{ChainID: types.ChainID(10), Amount: big.NewInt(1234567890)},
					Executed:  true,
					TxHash:    "0x1234567890abcdef1234567890abcdef12345678",
				},
			},
			Unexecuted: []inventory.RebalanceOutcome{
				{
					Candidate:  inventory.RebalanceCandidate{ChainID: types.ChainID(137), Amount: big.NewInt(42)},
					SkipReason: "balance changed",
				},
			},
		},
		Unwrap: &inventory.UnwrapResult{
			Accepted: []inventory.UnwrapOutcome{
				{
					Candidate: inventory.UnwrapCandidate{ChainID: types.ChainID(10), Amount: big.NewInt(9000000000000000000)},
					Executed:  true,
					TxHash:    "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
				},
			},
		},
	}
}

func TestReportTextIncludesAcceptedAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatText)
	r.Report(sampleReport())

	out := buf.String()
	assert.Contains(t, out, "Rebalances accepted: 1")
	assert.Contains(t, out, "Rebalances skipped: 1")
	assert.Contains(t, out, "balance changed")
	assert.Contains(t, out, "Unwraps accepted: 1")
	assert.Contains(t, out, "1,234,567,890")
	assert.Contains(t, out, "0x123456") // start of shortened tx hash
}

func TestReportTextOmitsSectionsForNilResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatText)
	r.Report(CycleReport{Timestamp: time.Now()})

	out := buf.String()
	assert.NotContains(t, out, "Rebalances accepted")
	assert.NotContains(t, out, "Unwraps accepted")
}

func TestReportJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatJSON)
	r.Report(sampleReport())

	var decoded CycleReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.Rebalance)
	assert.Len(t, decoded.Rebalance.Accepted, 1)
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", decoded.Rebalance.Accepted[0].TxHash)
}

func TestNewReporterDefaultsOutputToStdout(t *testing.T) {
	r := NewReporter(nil, FormatText)
	assert.NotNil(t, r.output)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "", shortHash(""))
	assert.Equal(t, "0xabc", shortHash("0xabc"))

	long := "0x1234567890abcdef1234567890abcdef12345678"
	short := shortHash(long)
	assert.True(t, strings.HasPrefix(short, "0x123456"))
	assert.True(t, strings.HasSuffix(short, "345678"))
	assert.Less(t, len(short), len(long))
}
