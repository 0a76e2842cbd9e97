package params

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) Get(_ context.Context, key, fallback string) (string, error) {
	if v, ok := m[key]; ok && v != "" {
		return v, nil
	}
	return fallback, nil
}

func TestLoadDefaults(t *testing.T) {
	provider := NewStoreProvider(mapStore{}, nil)
	values, err := provider.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 66.0, values.GeneralHourlyRate)
	require.Equal(t, 1.30, values.VendorBillSurchargeFactor)
}

func TestLoadOverrides(t *testing.T) {
	store := mapStore{
		KeyGeneralHourlyRate:   "80.5",
		KeyVendorBillSurcharge: "1.10",
	}
	provider := NewStoreProvider(store, nil)
	values, err := provider.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80.5, values.GeneralHourlyRate)
	require.Equal(t, 1.10, values.VendorBillSurchargeFactor)
}

func TestLoadMalformedFallsBack(t *testing.T) {
	store := mapStore{KeyGeneralHourlyRate: "not-a-number"}
	provider := NewStoreProvider(store, nil)
	values, err := provider.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 66.0, values.GeneralHourlyRate)
}
