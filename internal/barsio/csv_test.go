package barsio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/backtestengine/internal/barsio"
	"github.com/sawpanic/backtestengine/internal/config"
	"github.com/sawpanic/backtestengine/internal/engine"
)

const csvFixture = `timestamp,open,high,low,close,long_signal,short_signal,long_tp,long_sl,short_tp,short_sl,long_size,short_size,expiration_time
1,100,100,100,100,true,false,110,90,0,0,1,0,
2,100,100,100,100,false,false,110,90,0,0,1,0,
3,100,110,100,110,false,false,110,90,0,0,1,0,
4,100,100,100,100,false,false,110,90,0,0,1,0,
`

func TestReadCSVParsesAllColumns(t *testing.T) {
	s, err := barsio.ReadCSV(strings.NewReader(csvFixture))
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	require.True(t, s.LongSignal[0])
	require.False(t, s.HasExpiration(0))
	require.Equal(t, 110.0, s.LongTP[0])
}

func TestReadCSVRejectsMissingRequiredColumn(t *testing.T) {
	bad := `timestamp,open,high,low,close,long_signal,short_signal,long_tp,long_sl,short_tp,short_sl,long_size
1,100,100,100,100,true,false,110,90,0,0,1
`
	_, err := barsio.ReadCSV(strings.NewReader(bad))
	require.Error(t, err)
}

func TestReadCSVRejectsUnrecognizedBoolean(t *testing.T) {
	bad := `timestamp,open,high,low,close,long_signal,short_signal,long_tp,long_sl,short_tp,short_sl,long_size,short_size
1,100,100,100,100,maybe,false,110,90,0,0,1,0
`
	_, err := barsio.ReadCSV(strings.NewReader(bad))
	require.Error(t, err)
}

// S8 — CSV load -> engine.Run -> JSON write round trip using spec field names.
func TestCSVToEngineToJSONRoundTrip(t *testing.T) {
	series, err := barsio.ReadCSV(strings.NewReader(csvFixture))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Workers = 2

	result, err := engine.Run(context.Background(), engine.Request{Series: series, Config: cfg})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, barsio.WriteResultJSON(&buf, result))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Contains(t, doc, "run_id")
	require.Contains(t, doc, "closed_positions")
	require.Contains(t, doc, "exposure_time_series")
	metricsDoc, ok := doc["metrics"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, metricsDoc, "overall")
	require.Contains(t, metricsDoc, "long")
	require.Contains(t, metricsDoc, "short")

	closed, ok := doc["closed_positions"].([]any)
	require.True(t, ok)
	require.Len(t, closed, 1)
	firstPos, ok := closed[0].(map[string]any)
	require.True(t, ok)
	require.Contains(t, firstPos, "position_id")
	require.Contains(t, firstPos, "exit_condition")
	require.Equal(t, "TP", firstPos["exit_condition"])
}
