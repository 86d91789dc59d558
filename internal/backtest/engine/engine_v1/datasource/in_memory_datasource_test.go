package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type InMemoryDataSourceTestSuite struct {
	suite.Suite
	start time.Time
}

func TestInMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDataSourceTestSuite))
}

func (suite *InMemoryDataSourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *InMemoryDataSourceTestSuite) bar(instrumentID string, day int) types.Bar {
	return types.Bar{
		InstrumentID: instrumentID,
		Time:         suite.start.AddDate(0, 0, day),
		Close:        float64(100 + day),
	}
}

func (suite *InMemoryDataSourceTestSuite) TestGroupsByInstrument() {
	ds := NewInMemoryDataSource([]types.Bar{
		suite.bar("MSFT", 0), suite.bar("AAPL", 0), suite.bar("MSFT", 1), suite.bar("AAPL", 1), suite.bar("AAPL", 2),
	})
	suite.NoError(ds.Initialize(""))

	instruments, err := ds.Instruments()
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, instruments)

	bars, err := ds.ReadBars("AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(bars, 3)

	bounded, err := ds.ReadBars("AAPL", optional.Some(suite.start.AddDate(0, 0, 1)), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(bounded, 2)

	count, err := ds.Count(optional.None[time.Time](), optional.Some(suite.start))
	suite.Require().NoError(err)
	suite.Equal(2, count)

	suite.NoError(ds.Close())
}

func (suite *InMemoryDataSourceTestSuite) TestOrderValidation() {
	ds := NewInMemoryDataSource([]types.Bar{suite.bar("AAPL", 1), suite.bar("AAPL", 0)})

	_, err := ds.ReadBars("AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBarOrder))
}

func (suite *InMemoryDataSourceTestSuite) TestUnknownInstrumentAndPath() {
	ds := NewInMemoryDataSource(nil)

	_, err := ds.ReadBars("AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
	suite.True(errors.HasCode(ds.Initialize("bars.parquet"), errors.ErrCodeUnsupportedFormat))
}

func (suite *InMemoryDataSourceTestSuite) TestBoundsOutsideDataAreNotFound() {
	ds := NewInMemoryDataSource([]types.Bar{suite.bar("AAPL", 0), suite.bar("AAPL", 1)})

	_, err := ds.ReadBars("AAPL", optional.Some(suite.start.AddDate(0, 0, 5)), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *InMemoryDataSourceTestSuite) TestMissingColumns() {
	suite.Empty(MissingColumns(types.BarColumns))
	suite.Equal([]string{"amount", "volume"}, MissingColumns([]string{"Timestamp", "open", "high", "low", "close", "instrument_id"}))
}
