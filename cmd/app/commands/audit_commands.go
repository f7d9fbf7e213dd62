package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditDto "github.com/allisson/envelope/internal/audit/http/dto"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
)

// RunAuditLogs prints up to limit audit events, newest first.
func RunAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	writer io.Writer,
	limit int,
	format string,
) error {
	if limit < 1 || limit > auditDomain.MaxEntries {
		return fmt.Errorf("limit must be between 1 and %d, got: %d", auditDomain.MaxEntries, limit)
	}

	events, err := auditLogUseCase.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}

	response := auditDto.MapAuditLogsToListResponse(events)
	if format == "json" {
		return writeJSON(writer, response)
	}

	if len(response.Data) == 0 {
		_, _ = fmt.Fprintln(writer, "No audit logs found")
		return nil
	}

	for _, event := range response.Data {
		_, _ = fmt.Fprintf(writer, "%s  %-26s %-10s %-7s%s\n",
			event.Timestamp.Format(time.RFC3339),
			event.Action,
			event.Source,
			event.Target,
			formatDetails(event.Details),
		)
	}
	return nil
}

// RunClearAuditLogs removes every audit event. The use case then records a
// logs_cleared event, so the log is never left silently empty.
func RunClearAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	if err := auditLogUseCase.Clear(ctx, auditDomain.SourceCLI); err != nil {
		return fmt.Errorf("failed to clear audit logs: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Audit logs cleared")
	logger.Info("audit logs cleared")
	return nil
}

// RunVerifyAuditLogs verifies the HMAC-SHA256 signature of every audit event.
// Unsigned events were recorded while no KEK was loaded and do not fail the check.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	result, err := auditLogUseCase.Verify(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	response := auditDto.MapVerifyResult(result)
	if format == "json" {
		if err := writeJSON(writer, struct {
			auditDto.VerifyAuditLogsResponse
			Passed bool `json:"passed"`
		}{response, response.Invalid == 0}); err != nil {
			return err
		}
	} else {
		outputVerifyText(writer, response)
	}

	logger.Info("verification completed",
		slog.Int("total", response.Total),
		slog.Int("valid", response.Valid),
		slog.Int("invalid", response.Invalid),
		slog.Int("unsigned", response.Unsigned),
	)

	if response.Invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", response.Invalid)
	}
	return nil
}

func outputVerifyText(writer io.Writer, response auditDto.VerifyAuditLogsResponse) {
	_, _ = fmt.Fprintf(writer, "Audit Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", response.Total)
	_, _ = fmt.Fprintf(writer, "Unsigned:       %d\n", response.Unsigned)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", response.Valid)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", response.Invalid)

	switch {
	case response.Invalid > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d log(s) failed integrity check!\n", response.Invalid)
		_, _ = fmt.Fprintf(writer, "Status: FAILED\n")
	case response.Total == 0:
		_, _ = fmt.Fprintf(writer, "Status: No logs found\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+details[k])
	}
	return " " + strings.Join(pairs, " ")
}
