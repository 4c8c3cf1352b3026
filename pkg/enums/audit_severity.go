package enums

// AuditSeverity grades entries written to the audit trail.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

func (s AuditSeverity) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AuditSeverity.
func (s AuditSeverity) IsValid() bool {
	switch s {
	case AuditSeverityInfo, AuditSeverityWarning, AuditSeverityCritical:
		return true
	}
	return false
}
