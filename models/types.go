// File: /models/types.go
package models

// FuelType enumerates the fuel kinds a vehicle profile can declare.
type FuelType string

const (
	FuelDiesel   FuelType = "diesel"
	FuelGasoline FuelType = "gasoline"
)

func (ft FuelType) IsValid() bool {
	return ft == FuelDiesel || ft == FuelGasoline
}

// ConsumptionUnit is the basis a vehicle's consumption figure is expressed in.
type ConsumptionUnit string

const (
	LitersPer100Km ConsumptionUnit = "l_per_100km"
	KmPerLiter     ConsumptionUnit = "km_per_l"
)

func (u ConsumptionUnit) IsValid() bool {
	return u == LitersPer100Km || u == KmPerLiter
}

// PriceSource distinguishes automatically fetched fuel prices from user overrides.
type PriceSource string

const (
	PriceSourceAuto   PriceSource = "auto"
	PriceSourceManual PriceSource = "manual"
)
