package models

// Sentinel marks a cell that will never be filled: a closed checkout with no
// real return, or the exit half of a return recorded without a prior exit.
const Sentinel = "-"

// CustodyState is the externally reported state of a badge.
type CustodyState string

const (
	StateNotRegistered CustodyState = "NO REGISTRADO"
	StateOut           CustodyState = "EN SALIDA"
	StateArchived      CustodyState = "EN ARCHIVO"
)

// UsageState mirrors CustodyState for display purposes.
type UsageState string

const (
	UsageInUse    UsageState = "EN USO"
	UsageReturned UsageState = "DEVUELTO"
)

// LedgerRow is one physical row of the custody ledger. JSON keys match the
// original sidebar front end, which renders these records directly.
type LedgerRow struct {
	Row             int    `json:"fila"`
	ExitDate        string `json:"fechaRetiro"`
	BadgeID         string `json:"numeroLegajo"`
	ExitCredential  string `json:"credencialRetira"`
	Division        string `json:"division"`
	EntryCredential string `json:"credencialEntrada"`
	EntryDate       string `json:"fechaEntrada"`
}

// Pending reports whether the row records a checkout with no entry yet.
func (r LedgerRow) Pending() bool {
	return r.EntryCredential == "" && r.EntryDate == ""
}

// Empty reports whether the row holds no data at all.
func (r LedgerRow) Empty() bool {
	return r.ExitDate == "" && r.BadgeID == "" && r.ExitCredential == "" &&
		r.Division == "" && r.EntryCredential == "" && r.EntryDate == ""
}

// Returned reports whether the row carries a real entry (not just sentinels).
func (r LedgerRow) Returned() bool {
	return r.EntryDate != "" && r.EntryDate != Sentinel
}

// ExitRequest is a check-out submission.
type ExitRequest struct {
	ExitDate       string `json:"fechaSalida" validate:"required"`
	BadgeID        string `json:"numeroLegajo" validate:"required,legajo"`
	ExitCredential string `json:"credencialSalida" validate:"required,credencial"`
	Division       string `json:"division" validate:"required"`
}

// EntryRequest is a check-in submission.
type EntryRequest struct {
	EntryDate       string `json:"fechaEntrada" validate:"required"`
	BadgeID         string `json:"numeroLegajo" validate:"required,legajo"`
	EntryCredential string `json:"credencialEntrada" validate:"required,credencial"`
}

// ReconcileEntryRequest is the operator-confirmed overwrite of a conflicting
// entry, issued after an EntryResult came back with Confirm set.
type ReconcileEntryRequest struct {
	Row             int    `json:"fila" validate:"required,gte=4"`
	BadgeID         string `json:"numeroLegajo" validate:"required,legajo"`
	EntryDate       string `json:"fechaEntrada" validate:"required"`
	EntryCredential string `json:"credencialEntrada" validate:"required,credencial"`
}

// ExitData is the exit-side projection of a row, used in conflict details.
type ExitData struct {
	ExitDate       string `json:"fechaSalida"`
	BadgeID        string `json:"numeroLegajo"`
	ExitCredential string `json:"credencialSalida"`
	Division       string `json:"division"`
}

// EntryData is the entry-side projection of a row, used in conflict details.
type EntryData struct {
	EntryDate       string `json:"fechaEntrada"`
	BadgeID         string `json:"numeroLegajo"`
	EntryCredential string `json:"credencialEntrada"`
}

// ExitResult reports the outcome of a check-out submission.
type ExitResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	OperationID  string    `json:"operationId,omitempty"`
	Row          int       `json:"fila,omitempty"`
	Notification string    `json:"notification,omitempty"`
	Existing     *ExitData `json:"datosExistentes,omitempty"`
}

// EntryResult reports the outcome of a check-in submission. Confirm signals
// that a conflicting entry exists and the caller must render a diff of
// Existing vs Proposed and reconcile explicitly.
type EntryResult struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	OperationID  string     `json:"operationId,omitempty"`
	RowsUpdated  int        `json:"filasActualizadas,omitempty"`
	Rows         []int      `json:"filas,omitempty"`
	Notification string     `json:"notification,omitempty"`
	Confirm      bool       `json:"modal,omitempty"`
	Existing     *EntryData `json:"datosExistentes,omitempty"`
	Proposed     *EntryData `json:"datosNuevos,omitempty"`
	ConflictRow  int        `json:"filaCoincidente,omitempty"`
}

// StatusResult is the read-only custody status of a badge.
type StatusResult struct {
	Success     bool         `json:"success"`
	BadgeID     string       `json:"numeroLegajo"`
	State       CustodyState `json:"estado"`
	ActualState UsageState   `json:"estadoActual,omitempty"`
	MostRecent  *LedgerRow   `json:"ultimoRegistro,omitempty"`
	History     []LedgerRow  `json:"historial,omitempty"`
	Message     string       `json:"message,omitempty"`
}
