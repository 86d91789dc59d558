package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-contraction/internal/strategy Strategy
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_journal.go -package=mocks github.com/rxtech-lab/argo-contraction/internal/journal Journal
