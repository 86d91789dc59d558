package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type JournalTestSuite struct {
	suite.Suite
	journal *DuckDBJournal
	tempDir string
}

func TestJournalSuite(t *testing.T) {
	suite.Run(t, new(JournalTestSuite))
}

func (suite *JournalTestSuite) SetupTest() {
	journal, err := NewDuckDBJournal(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.journal = journal
	suite.tempDir = suite.T().TempDir()
}

func (suite *JournalTestSuite) TearDownTest() {
	if suite.journal != nil {
		suite.journal.Close()
	}
}

func event(runID string, instrumentID string, signalType types.SignalType, day int) types.SignalEvent {
	e := sampleEvent()
	e.RunID = runID
	e.InstrumentID = instrumentID
	e.Type = signalType
	e.Time = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)

	return e
}

func (suite *JournalTestSuite) TestRecordAndReadBack() {
	original := event("run-1", "AAPL", types.SignalTypeBuy, 3)

	suite.Require().NoError(suite.journal.Record(original))
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeSell, 9)))
	suite.Require().NoError(suite.journal.Record(event("run-2", "AAPL", types.SignalTypeBuy, 1)))

	events, err := suite.journal.Events("run-1")
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	first := events[0]
	suite.True(original.Time.Equal(first.Time))
	suite.Equal(types.SignalTypeBuy, first.Type)
	suite.Equal(original.TriggerConditions, first.TriggerConditions)
	for key, value := range original.IndicatorValues {
		suite.InDelta(value, first.IndicatorValues[key], 1e-9, key)
	}

	suite.Equal(types.SignalTypeSell, events[1].Type)

	other, err := suite.journal.Events("run-2")
	suite.Require().NoError(err)
	suite.Len(other, 1)

	missing, err := suite.journal.Events("run-3")
	suite.Require().NoError(err)
	suite.Empty(missing)
}

func (suite *JournalTestSuite) TestConcurrentRecord() {
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(day int) {
			defer wg.Done()
			suite.NoError(suite.journal.Record(event("run-1", "MSFT", types.SignalTypeBuy, day)))
		}(i)
	}

	wg.Wait()

	events, err := suite.journal.Events("run-1")
	suite.Require().NoError(err)
	suite.Len(events, 8)

	for i := 1; i < len(events); i++ {
		suite.False(events[i].Time.Before(events[i-1].Time))
	}
}

func (suite *JournalTestSuite) TestWriteExportsParquetAndSummary() {
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeBuy, 1)))
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeSell, 5)))
	suite.Require().NoError(suite.journal.Record(event("run-1", "MSFT", types.SignalTypeBuy, 2)))

	dir := filepath.Join(suite.tempDir, "results")
	suite.Require().NoError(suite.journal.Write(dir))

	info, err := os.Stat(filepath.Join(dir, SignalsFile))
	suite.Require().NoError(err)
	suite.Greater(info.Size(), int64(0))

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	suite.Require().NoError(err)

	var summary Summary
	suite.Require().NoError(yaml.Unmarshal(data, &summary))
	suite.Equal(3, summary.TotalSignals)
	suite.Equal(2, summary.Runs["run-1"].Buys)
	suite.Equal(1, summary.Runs["run-1"].Sells)
	suite.Equal(InstrumentSummary{Buys: 1, Sells: 1}, summary.Runs["run-1"].Instruments["AAPL"])
	suite.Equal(InstrumentSummary{Buys: 1, Sells: 0}, summary.Runs["run-1"].Instruments["MSFT"])
}

func (suite *JournalTestSuite) TestWriteRunExportsOnlyThatRun() {
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeBuy, 1)))
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeSell, 5)))
	suite.Require().NoError(suite.journal.Record(event("run-2", "MSFT", types.SignalTypeBuy, 2)))

	dir := filepath.Join(suite.tempDir, "run-2")
	suite.Require().NoError(suite.journal.WriteRun(dir, "run-2"))

	var count int
	var runID string
	row := suite.journal.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*), MIN(run_id) FROM read_parquet('%s')`, filepath.Join(dir, SignalsFile)))
	suite.Require().NoError(row.Scan(&count, &runID))
	suite.Equal(1, count)
	suite.Equal("run-2", runID)

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	suite.Require().NoError(err)

	var summary Summary
	suite.Require().NoError(yaml.Unmarshal(data, &summary))
	suite.Equal(1, summary.TotalSignals)
	suite.Len(summary.Runs, 1)
	suite.Contains(summary.Runs, "run-2")

	suite.Error(suite.journal.WriteRun(dir, ""))
}

func (suite *JournalTestSuite) TestCleanup() {
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeBuy, 1)))
	suite.Require().NoError(suite.journal.Cleanup())

	events, err := suite.journal.Events("run-1")
	suite.Require().NoError(err)
	suite.Empty(events)

	// the table is usable again after cleanup
	suite.Require().NoError(suite.journal.Record(event("run-1", "AAPL", types.SignalTypeBuy, 1)))
}
