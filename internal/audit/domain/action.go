package domain

// Action codes recorded by the DEK manager.
const (
	ActionDekGenerated    = "dek_generated"
	ActionDekRotateStart  = "dek_rotate_start"
	ActionDekRotateOK     = "dek_rotate_success"
	ActionDekRotateFailed = "dek_rotate_failed"
	ActionDekCritical     = "dek_critical"
	ActionDekInfo         = "dek_info"
	ActionDekWarning      = "dek_warning"
	ActionDekError        = "dek_error"
	ActionDekPruned       = "dek_pruned"
	ActionDekPruneSkipped = "dek_prune_skipped"
)

// Action codes recorded by the envelope codec.
const (
	ActionEncryptRequestReceived  = "encrypt_request_received"
	ActionEncryptRequestProcessed = "encrypt_request_processed"
	ActionEncryptFailed           = "encrypt_failed"
	ActionDecryptRequestReceived  = "decrypt_request_received"
	ActionDecryptRequestProcessed = "decrypt_request_processed"
	ActionDecryptFailed           = "decrypt_failed"
	ActionDecryptAttemptSkipped   = "decrypt_attempt_skipped"
	ActionCryptoError             = "crypto_error"
)

// Action codes recorded by administration and scheduling.
const (
	ActionLogsCleared      = "logs_cleared"
	ActionCronRescheduled  = "cron_rescheduled"
	ActionSettingsRejected = "settings_rejected"
)

// Well-known sources.
const (
	SourceSystem    = "system"
	SourceScheduler = "scheduler"
	SourceAdmin     = "admin"
	SourceCLI       = "cli"
	SourceAPI       = "api"
)

// Well-known targets.
const (
	TargetDek      = "dek"
	TargetString   = "string"
	TargetFile     = "file"
	TargetAuditLog = "audit_log"
	TargetSchedule = "rotation_schedule"
)
