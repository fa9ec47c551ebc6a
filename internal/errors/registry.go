package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://navintent.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "navintent.json could not be read or is not valid JSON.",
		DocURL:   docBase + "E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid deep link rule",
		DocURL:   docBase + "E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid server port",
		DocURL:   docBase + "E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid debounce duration",
		DocURL:   docBase + "E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid locale",
		DocURL:   docBase + "E124",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid identifier mode",
		DocURL:   docBase + "E125",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   docBase + "E141",
	},

	// ============================================
	// Remote Config Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryRemote,
		Message:  "Failed to fetch remote configuration",
		DocURL:   docBase + "E150",
	},
	"E151": {
		Category: CategoryRemote,
		Message:  "Invalid remote configuration URI",
		Detail:   "Remote configuration must be addressed as s3://bucket/key.",
		DocURL:   docBase + "E151",
	},

	// ============================================
	// CLI and Service Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Invalid command-line flag",
		DocURL:   docBase + "E160",
	},
	"E170": {
		Category: CategoryService,
		Message:  "Server failed",
		DocURL:   docBase + "E170",
	},
}

// Register adds a custom error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
