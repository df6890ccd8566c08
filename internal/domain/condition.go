package domain

import (
	"fmt"
	"strconv"
)

// Condition is one of the named weather extremes a query can ask about.
type Condition string

const (
	ConditionHot  Condition = "hot"
	ConditionCold Condition = "cold"
	ConditionWind Condition = "wind"
	ConditionWet  Condition = "wet"
)

// AllConditions is the fixed evaluation order.
var AllConditions = []Condition{ConditionHot, ConditionCold, ConditionWind, ConditionWet}

// Direction is the strict comparison used to count a hit.
type Direction string

const (
	DirectionGreater Direction = ">"
	DirectionLess    Direction = "<"
)

// Threshold is a configured comparison for one condition.
type Threshold struct {
	Value     float64   `json:"value"`
	Direction Direction `json:"direction"`
}

type conditionSpec struct {
	variable  Variable
	symbol    string
	unit      string
	direction Direction
	threshold float64
}

var conditionSpecs = map[Condition]conditionSpec{
	ConditionHot:  {variable: VariableTMax, symbol: "Tmax", unit: "°C", direction: DirectionGreater, threshold: 32},
	ConditionCold: {variable: VariableTMin, symbol: "Tmin", unit: "°C", direction: DirectionLess, threshold: 0},
	ConditionWind: {variable: VariableWind, symbol: "WS10M", unit: "m/s", direction: DirectionGreater, threshold: 7},
	ConditionWet:  {variable: VariablePrecip, symbol: "Precip", unit: "mm/day", direction: DirectionGreater, threshold: 10},
}

// ParseCondition validates a condition name.
func ParseCondition(name string) (Condition, bool) {
	c := Condition(name)
	_, ok := conditionSpecs[c]
	return c, ok
}

// Variable returns the daily parameter the condition is evaluated on.
func (c Condition) Variable() Variable {
	return conditionSpecs[c].variable
}

// Unit returns the display unit of the condition's variable.
func (c Condition) Unit() string {
	return conditionSpecs[c].unit
}

// Label renders a threshold for display, e.g. "Tmax > 32 °C".
func (c Condition) Label(t Threshold) string {
	spec := conditionSpecs[c]
	return fmt.Sprintf("%s %s %s %s", spec.symbol, t.Direction, strconv.FormatFloat(t.Value, 'g', -1, 64), spec.unit)
}

// DefaultThresholds returns hot > 32 °C, cold < 0 °C, wind > 7 m/s and wet > 10 mm/day.
func DefaultThresholds() map[Condition]Threshold {
	out := make(map[Condition]Threshold, len(conditionSpecs))
	for c, spec := range conditionSpecs {
		out[c] = Threshold{Value: spec.threshold, Direction: spec.direction}
	}
	return out
}

// WithThresholdValue returns the condition's default direction paired with value.
func (c Condition) WithThresholdValue(value float64) Threshold {
	return Threshold{Value: value, Direction: conditionSpecs[c].direction}
}

// ConditionInfo describes a configured condition for API consumers.
type ConditionInfo struct {
	Name      Condition `json:"name"`
	Variable  Variable  `json:"variable"`
	Threshold Threshold `json:"threshold"`
	Unit      string    `json:"unit"`
	Label     string    `json:"label"`
}

// DescribeConditions lists every condition with its configured threshold.
func DescribeConditions(thresholds map[Condition]Threshold) []ConditionInfo {
	out := make([]ConditionInfo, 0, len(AllConditions))
	for _, c := range AllConditions {
		t, ok := thresholds[c]
		if !ok {
			continue
		}
		out = append(out, ConditionInfo{
			Name:      c,
			Variable:  c.Variable(),
			Threshold: t,
			Unit:      c.Unit(),
			Label:     c.Label(t),
		})
	}
	return out
}
