package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/resume/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Snapshot Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategorySnapshot,
		Message:  "Snapshot exceeds size limit",
		Detail:   "The serialized snapshot is larger than the configured maximum. Nothing was emitted.",
		DocURL:   docBase + "E020",
	},
	"E021": {
		Category: CategorySnapshot,
		Message:  "Snapshot route missing",
		Detail:   "Every snapshot must record the route it was rendered for.",
		DocURL:   docBase + "E021",
	},
	"E022": {
		Category: CategorySnapshot,
		Message:  "Graph serialization failed",
		Detail:   "A signal or computed value could not be encoded as JSON.",
		DocURL:   docBase + "E022",
	},
	"E023": {
		Category: CategorySnapshot,
		Message:  "Invalid node registration",
		Detail:   "A DOM node must have a tag name and listeners must name an event and a handler.",
		DocURL:   docBase + "E023",
	},

	// ============================================
	// Version Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryVersion,
		Message:  "Snapshot version mismatch",
		Detail:   "The snapshot was produced by an incompatible version of the serializer.",
		DocURL:   docBase + "E030",
	},
	"E031": {
		Category: CategoryVersion,
		Message:  "Invalid snapshot version",
		Detail:   "Snapshot versions must be semantic versions such as 1.0.0.",
		DocURL:   docBase + "E031",
	},

	// ============================================
	// Resolution Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryResolution,
		Message:  "Node not found in document",
		Detail:   "No element in the document matches the fingerprint recorded in the snapshot.",
		DocURL:   docBase + "E040",
	},
	"E041": {
		Category: CategoryResolution,
		Message:  "Handler not registered",
		Detail:   "The snapshot references a handler id that is not present in the handler registry.",
		DocURL:   docBase + "E041",
	},
	"E042": {
		Category: CategoryResolution,
		Message:  "Handler source not allowed",
		Detail:   "The snapshot carries handler source code but source evaluation is disabled.",
		DocURL:   docBase + "E042",
	},
	"E043": {
		Category: CategoryResolution,
		Message:  "Handler source failed to compile",
		Detail:   "The handler source captured in the snapshot is not a valid function.",
		DocURL:   docBase + "E043",
	},

	// ============================================
	// Resume Errors (E050-E069)
	// ============================================

	"E050": {
		Category: CategoryResume,
		Message:  "Resume timed out",
		Detail:   "Resuming took longer than the configured timeout.",
		DocURL:   docBase + "E050",
	},
	"E060": {
		Category: CategoryResume,
		Message:  "Snapshot parse failed",
		Detail:   "The embedded resume state is not valid JSON.",
		DocURL:   docBase + "E060",
	},
	"E061": {
		Category: CategoryResume,
		Message:  "Resume state missing",
		Detail:   "The document does not contain a resume state script.",
		DocURL:   docBase + "E061",
	},
	"E062": {
		Category: CategoryResume,
		Message:  "Graph restore failed",
		Detail:   "The signals and computeds in the snapshot could not be restored.",
		DocURL:   docBase + "E062",
	},
	"E063": {
		Category: CategoryResume,
		Message:  "Handler failed",
		Detail:   "An event handler raised an error while being dispatched.",
		DocURL:   docBase + "E063",
	},

	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No resume.yaml or resume.json was found in the directory.",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file could not be parsed.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config value is out of range or not one of the accepted values.",
		DocURL:   docBase + "E102",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Input file not readable",
		Detail:   "The file passed on the command line could not be read.",
		DocURL:   docBase + "E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Unsupported input",
		Detail:   "Input must be an HTML document with an embedded snapshot or a snapshot JSON file.",
		DocURL:   docBase + "E141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The preview server stopped with an error.",
		DocURL:   docBase + "E142",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
