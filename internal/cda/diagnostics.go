package cda

import (
	"fmt"

	"go.uber.org/zap"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// KindTransientFetch: network error, timeout or non-2xx response.
	KindTransientFetch Kind = "transient_fetch"
	// KindMalformedArchive: the body is not a readable archive.
	KindMalformedArchive Kind = "malformed_archive"
	// KindRecordParse: one member table could not be parsed; its rows are excluded.
	KindRecordParse Kind = "record_parse"
	// KindDataQuality: a value was defaulted (missing market value, zero NAV).
	KindDataQuality Kind = "data_quality"
)

// Diagnostic is one entry of the per-run diagnostics list.
type Diagnostic struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Period  Period `json:"period" yaml:"period"`
	Member  string `json:"member,omitempty" yaml:"member,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// IsFailure reports whether the diagnostic means the whole period was lost.
func (d Diagnostic) IsFailure() bool {
	return d.Kind == KindTransientFetch || d.Kind == KindMalformedArchive
}

func (d Diagnostic) String() string {
	if d.Member != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Period, d.Kind, d.Member, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Period, d.Kind, d.Message)
}

func (d Diagnostic) log() {
	fields := []zap.Field{
		zap.String("period", d.Period.String()),
		zap.String("kind", string(d.Kind)),
		zap.String("message", d.Message),
	}
	if d.Member != "" {
		fields = append(fields, zap.String("member", d.Member))
	}
	if d.Kind == KindDataQuality {
		zap.L().Debug("cda: data quality note", fields...)
		return
	}
	zap.L().Warn("cda: diagnostic", fields...)
}

// SupersededNote records that dropped reports the same competency month as
// kept, a later archive, and was left out of the matrix.
func SupersededNote(dropped, kept Composition) Diagnostic {
	return newDiagnostic(KindDataQuality, dropped.Period, "",
		"competency %s also reported by %s; keeping the later archive", dropped.Label, kept.Period)
}

func newDiagnostic(kind Kind, p Period, member, format string, args ...any) Diagnostic {
	d := Diagnostic{Kind: kind, Period: p, Member: member, Message: fmt.Sprintf(format, args...)}
	d.log()
	return d
}

// PeriodError reports a period whose archive could not be obtained.
type PeriodError struct {
	Period Period
	Kind   Kind
	Err    error
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("period %s unavailable (%s): %v", e.Period, e.Kind, e.Err)
}

func (e *PeriodError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error into a diagnostics entry.
func (e *PeriodError) Diagnostic() Diagnostic {
	return Diagnostic{Kind: e.Kind, Period: e.Period, Message: e.Err.Error()}
}
