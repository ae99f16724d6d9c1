package errors

// ErrorTemplate defines a registered code.
type ErrorTemplate struct {
	Category Category
	Severity Severity
	Message  string
	Detail   string
	DocURL   string
}

// registry maps codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Store Diagnostics (W101-W119)
	// ============================================

	"W101": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Write to controlled property rejected",
		Detail:   "Set was called on a property whose value is owned by the caller that configured it. The write was ignored.",
		DocURL:   "https://controlstore.dev/docs/errors/W101",
	},
	"W102": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Change to controlled property filtered",
		Detail:   "Apply received a change for a controlled property. The change was dropped and the remaining properties were applied.",
		DocURL:   "https://controlstore.dev/docs/errors/W102",
	},
	"W103": {
		Category: CategoryRuntime,
		Severity: SeverityError,
		Message:  "Controlled property changed mode",
		Detail:   "Elements should not switch from uncontrolled to controlled (or vice versa).",
		DocURL:   "https://controlstore.dev/docs/errors/W103",
	},
	"W104": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Controlled setter has no change callback",
		Detail:   "A setter was invoked for a controlled property that was configured without OnChange. The value was dropped.",
		DocURL:   "https://controlstore.dev/docs/errors/W104",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "controlstore.json could not be read or parsed.",
		DocURL:   "https://controlstore.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A value in controlstore.json is out of range or inconsistent.",
		DocURL:   "https://controlstore.dev/docs/errors/E121",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No controlstore.json was found.",
		DocURL:   "https://controlstore.dev/docs/errors/E141",
	},

	// ============================================
	// Persistence Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryPersist,
		Message:  "Snapshot encoding failed",
		Detail:   "A state value could not be encoded as JSON.",
		DocURL:   "https://controlstore.dev/docs/errors/E160",
	},
	"E161": {
		Category: CategoryPersist,
		Message:  "Snapshot decoding failed",
		Detail:   "The stored snapshot is not a valid controlstore document.",
		DocURL:   "https://controlstore.dev/docs/errors/E161",
	},
	"E162": {
		Category: CategoryPersist,
		Message:  "Snapshot backend failed",
		Detail:   "The persistence backend returned an error.",
		DocURL:   "https://controlstore.dev/docs/errors/E162",
	},
	"E163": {
		Category: CategoryPersist,
		Message:  "Snapshot backend closed",
		Detail:   "The persistence backend has been closed.",
		DocURL:   "https://controlstore.dev/docs/errors/E163",
	},

	// ============================================
	// Scenario Errors (E180-E189)
	// ============================================

	"E180": {
		Category: CategoryScenario,
		Message:  "Invalid scenario",
		Detail:   "The scenario file could not be parsed.",
		DocURL:   "https://controlstore.dev/docs/errors/E180",
	},
	"E181": {
		Category: CategoryScenario,
		Message:  "Unknown scenario step",
		Detail:   "Each step must set exactly one of configure, set, apply, update, setter, sync or expect.",
		DocURL:   "https://controlstore.dev/docs/errors/E181",
	},
	"E182": {
		Category: CategoryScenario,
		Message:  "Scenario expectation failed",
		Detail:   "The store state did not match an expect step.",
		DocURL:   "https://controlstore.dev/docs/errors/E182",
	},

	// ============================================
	// CLI Errors (E190-E199)
	// ============================================

	"E190": {
		Category: CategoryCLI,
		Message:  "Store not found",
		Detail:   "No store is registered under that name.",
		DocURL:   "https://controlstore.dev/docs/errors/E190",
	},
}

// GetAllCodes returns all registered codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
