package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldErrorType    = "error_type"
	FieldOperation    = "operation"
	FieldResource     = "resource"
	FieldOutcome      = "outcome"
	FieldDecision     = "decision"
	FieldReason       = "reason"
	FieldState        = "state"
	FieldUserID       = "user_id"
	FieldCurrencyFrom = "from"
	FieldCurrencyTo   = "to"
	FieldAmount       = "amount"
	FieldRate         = "rate"
	FieldSource       = "source"
	FieldFallback     = "fallback"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldBackend      = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentAuth      = "auth"
	ComponentGate      = "gate"
	ComponentSession   = "session"
	ComponentStorage   = "storage"
	ComponentCurrency  = "currency"
	ComponentAggregate = "aggregate"
	ComponentDashboard = "dashboard"
	ComponentExport    = "export"
	ComponentSheets    = "sheets"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpConvert  = "convert"
	OpValidate = "validate"
	OpConfirm  = "confirm"
	OpEnter    = "enter"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpExpire   = "expire"
	OpRead     = "read"
	OpWrite    = "write"
	OpClear    = "clear"
	OpExport   = "export"
	OpPublish  = "publish"
	OpRefresh  = "refresh"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeTransient     = "transient_error"
	ErrorTypeConversion    = "conversion_unavailable"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithResource adds the remote resource name
func (f LogFields) WithResource(name string) LogFields {
	f[FieldResource] = name
	return f
}

// WithConversion adds currency conversion fields
func (f LogFields) WithConversion(from, to, amount string) LogFields {
	f[FieldCurrencyFrom] = from
	f[FieldCurrencyTo] = to
	f[FieldAmount] = amount
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode > 0 && statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
