package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yatube/backend/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSystemKey    = "db.system"
	dbTableKey     = "db.table"
	dbOperationKey = "db.operation"
	dbStatementKey = "db.statement"

	spanKey      = "otel:span"
	startTimeKey = "otel:startTime"
	operationKey = "otel:operation"
)

// GORMPlugin returns a GORM plugin that traces every query and records its
// latency in the database Prometheus metrics
func GORMPlugin() gorm.Plugin {
	return &tracingPlugin{
		tracer: otel.Tracer("gorm"),
	}
}

type tracingPlugin struct {
	tracer trace.Tracer
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name      string
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", "RAW", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		operation := h.operation
		if err := h.before("telemetry:before_"+h.name, func(tx *gorm.DB) { p.startSpan(tx, operation) }); err != nil {
			return fmt.Errorf("failed to register before_%s callback: %w", h.name, err)
		}
		if err := h.after("telemetry:after_"+h.name, p.endSpan); err != nil {
			return fmt.Errorf("failed to register after_%s callback: %w", h.name, err)
		}
	}
	return nil
}

func (p *tracingPlugin) startSpan(db *gorm.DB, operation string) {
	db.InstanceSet(startTimeKey, time.Now())
	db.InstanceSet(operationKey, operation)

	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	_, span := p.tracer.Start(ctx, fmt.Sprintf("db.%s", strings.ToLower(operation)),
		trace.WithAttributes(
			attribute.String(dbSystemKey, db.Dialector.Name()),
			attribute.String(dbTableKey, tableName(db)),
			attribute.String(dbOperationKey, operation),
		),
	)
	db.InstanceSet(spanKey, span)
}

func (p *tracingPlugin) endSpan(db *gorm.DB) {
	var duration time.Duration
	if raw, ok := db.InstanceGet(startTimeKey); ok {
		if start, ok := raw.(time.Time); ok {
			duration = time.Since(start)
		}
	}
	operation := "UNKNOWN"
	if raw, ok := db.InstanceGet(operationKey); ok {
		operation, _ = raw.(string)
	}

	status := "success"
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		status = "error"
	}
	m := metrics.Get()
	table := tableName(db)
	m.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	m.DatabaseQueriesTotal.WithLabelValues(operation, table, status).Inc()

	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.Int64("db.duration_ms", duration.Milliseconds()))

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > 500 {
			sql = sql[:500] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}
	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
	if status == "error" {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}

func tableName(db *gorm.DB) string {
	if db.Statement.Table != "" {
		return db.Statement.Table
	}
	return "unknown"
}
