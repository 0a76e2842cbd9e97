// Package params provides the process-wide financial parameters used by
// the aggregation engine. Values live in a key/value store and are loaded
// fresh on every aggregation pass so a change takes effect on the next
// recompute without a restart.
package params

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Parameter keys and their documented string defaults.
const (
	KeyGeneralHourlyRate   = "projectfin.general_hourly_rate"
	KeyVendorBillSurcharge = "projectfin.vendor_bill_surcharge_factor"

	DefaultGeneralHourlyRate   = "66.0"
	DefaultVendorBillSurcharge = "1.30"
)

// Values holds one aggregation pass worth of parameters.
type Values struct {
	GeneralHourlyRate         float64
	VendorBillSurchargeFactor float64
}

// Defaults returns the documented fallback values.
func Defaults() Values {
	rate, _ := strconv.ParseFloat(DefaultGeneralHourlyRate, 64)
	surcharge, _ := strconv.ParseFloat(DefaultVendorBillSurcharge, 64)
	return Values{GeneralHourlyRate: rate, VendorBillSurchargeFactor: surcharge}
}

// Provider loads the current parameter values.
type Provider interface {
	Load(ctx context.Context) (Values, error)
}

// Store is a key→string configuration store.
type Store interface {
	Get(ctx context.Context, key, fallback string) (string, error)
}

// PGStore reads parameters from the system_parameters table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a Postgres-backed parameter store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Get returns the stored value for key, or fallback when absent.
func (s *PGStore) Get(ctx context.Context, key, fallback string) (string, error) {
	const query = `SELECT value FROM system_parameters WHERE key = $1`
	var value string
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if err == pgx.ErrNoRows {
			return fallback, nil
		}
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// StoreProvider adapts a Store into a Provider, parsing the raw strings
// and falling back to the documented defaults on malformed values.
type StoreProvider struct {
	store  Store
	logger *slog.Logger
}

// NewStoreProvider constructs a StoreProvider.
func NewStoreProvider(store Store, logger *slog.Logger) *StoreProvider {
	return &StoreProvider{store: store, logger: logger}
}

// Load reads both parameters from the store.
func (p *StoreProvider) Load(ctx context.Context) (Values, error) {
	values := Defaults()

	rate, err := p.store.Get(ctx, KeyGeneralHourlyRate, DefaultGeneralHourlyRate)
	if err != nil {
		return Values{}, err
	}
	values.GeneralHourlyRate = p.parse(KeyGeneralHourlyRate, rate, values.GeneralHourlyRate)

	surcharge, err := p.store.Get(ctx, KeyVendorBillSurcharge, DefaultVendorBillSurcharge)
	if err != nil {
		return Values{}, err
	}
	values.VendorBillSurchargeFactor = p.parse(KeyVendorBillSurcharge, surcharge, values.VendorBillSurchargeFactor)

	return values, nil
}

func (p *StoreProvider) parse(key, raw string, fallback float64) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("malformed parameter value, using default",
				slog.String("key", key), slog.String("value", raw))
		}
		return fallback
	}
	return value
}

// Static is a fixed-value Provider for tests and tooling.
type Static struct {
	Values Values
}

// Load returns the fixed values.
func (s Static) Load(context.Context) (Values, error) {
	return s.Values, nil
}
