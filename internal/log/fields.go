package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldEndpoint  = "endpoint"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldTenantID  = "tenant_id"
	FieldUserID    = "user_id"
	FieldGastoID   = "gasto_id"
	FieldValor     = "valor"
	FieldBackend   = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentAPI     = "api"
	ComponentSession = "session"
	ComponentStorage = "storage"
	ComponentPages   = "pages"
	ComponentCache   = "cache"
	ComponentExport  = "export"
	ComponentEvents  = "events"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpRefresh  = "refresh_tenants"
	OpSelect   = "select_tenant"
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpExport   = "export"
	OpPublish  = "publish"
)
