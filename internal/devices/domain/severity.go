package devices

// Severity is the urgency tier of an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Alert types with a fixed meaning.
const (
	AlertTypePowerLoss  = "Power Loss"
	AlertTypeSuddenTilt = "Sudden Tilt"
	AlertTypeLowVoltage = "Low Voltage"
	AlertTypeNoGPS      = "Without GPS Location"
)

var severityByType = map[string]Severity{
	AlertTypePowerLoss:  SeverityHigh,
	AlertTypeSuddenTilt: SeverityCritical,
	AlertTypeLowVoltage: SeverityMedium,
	AlertTypeNoGPS:      SeverityLow,
}

// SeverityFor classifies an alert type. Unknown types are medium.
func SeverityFor(alertType string) Severity {
	if severity, ok := severityByType[alertType]; ok {
		return severity
	}
	return SeverityMedium
}

// IsValid reports whether s is a known tier.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}
