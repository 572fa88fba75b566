package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// Registered error codes referenced from other packages.
const (
	CodeConfigInvalid   = "E200"
	CodeConfigMissing   = "E201"
	CodeInvalidBasePath = "E202"
	CodeUnknownMode     = "E203"

	CodeRouteRender      = "E210"
	CodeNotPrerenderable = "E211"
	CodeDuplicateRoute   = "E212"
	CodeUnknownRoute     = "E213"
	CodeInvalidEntry     = "E214"
	CodeMissingBinding   = "E215"
	CodeRouteScan        = "E216"
	CodeIncompleteBuild  = "E217"

	CodeAssetNotFound = "E220"
	CodeAssetScan     = "E221"
	CodeAssetInvalid  = "E222"

	CodeOutputWrite  = "E230"
	CodeBuildAborted = "E231"
	CodeManifest     = "E232"

	CodeDeployFailed = "E240"
	CodeDeployConfig = "E241"

	CodeServeFailed      = "E250"
	CodeProjectExists    = "E251"
	CodeTemplateNotFound = "E252"
	CodeInvalidName      = "E253"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E200-E209)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid vizsite.json",
		Detail:   "The vizsite.json configuration file is malformed.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E200",
	},
	CodeConfigMissing: {
		Category: CategoryConfig,
		Message:  "Not a vizsite project",
		Detail:   "No vizsite.json was found. Run this command from a directory with vizsite.json.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E201",
	},
	CodeInvalidBasePath: {
		Category: CategoryConfig,
		Message:  "Invalid base path configuration",
		Detail:   "A base path must be empty or start with '/' and must not end with '/'.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E202",
	},
	CodeUnknownMode: {
		Category: CategoryConfig,
		Message:  "No base path configured for mode",
		Detail:   "The selected build mode has no entry in the \"base\" section of vizsite.json.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E203",
	},

	// ============================================
	// Route Errors (E210-E219)
	// ============================================

	CodeRouteRender: {
		Category: CategoryRoute,
		Message:  "Route failed to render",
		Detail:   "The page for this route could not be rendered to static HTML.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E210",
	},
	CodeNotPrerenderable: {
		Category: CategoryRoute,
		Message:  "Route cannot be prerendered",
		Detail:   "Every route must be known at build time. Dynamic routes need a finite list of prerender entries.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E211",
	},
	CodeDuplicateRoute: {
		Category: CategoryRoute,
		Message:  "Duplicate route",
		Detail:   "Multiple page files resolve to the same URL pattern.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E212",
	},
	CodeUnknownRoute: {
		Category: CategoryRoute,
		Message:  "Link to unknown route",
		Detail:   "A page links to an internal path that no route produces.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E213",
	},
	CodeInvalidEntry: {
		Category: CategoryRoute,
		Message:  "Invalid prerender entry",
		Detail:   "A prerender entry is missing a route parameter or has a value of the wrong type.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E214",
	},
	CodeMissingBinding: {
		Category: CategoryRoute,
		Message:  "Missing data binding",
		Detail:   "A chart component is bound to a column that the dataset does not have.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E215",
	},
	CodeRouteScan: {
		Category: CategoryRoute,
		Message:  "Route scan failed",
		Detail:   "The routes directory could not be read.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E216",
	},
	CodeIncompleteBuild: {
		Category: CategoryRoute,
		Message:  "Incomplete build",
		Detail:   "The number of rendered pages does not match the route table.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E217",
	},

	// ============================================
	// Asset Errors (E220-E229)
	// ============================================

	CodeAssetNotFound: {
		Category: CategoryAsset,
		Message:  "Asset not found",
		Detail:   "The referenced path is not in the static directory.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E220",
	},
	CodeAssetScan: {
		Category: CategoryAsset,
		Message:  "Asset scan failed",
		Detail:   "The static directory could not be read.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E221",
	},
	CodeAssetInvalid: {
		Category: CategoryAsset,
		Message:  "Invalid asset path",
		Detail:   "Asset paths must stay inside the static directory.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E222",
	},

	// ============================================
	// Build Errors (E230-E239)
	// ============================================

	CodeOutputWrite: {
		Category: CategoryBuild,
		Message:  "Failed to write build output",
		Detail:   "A file in the output directory could not be written.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E230",
	},
	CodeBuildAborted: {
		Category: CategoryBuild,
		Message:  "Build aborted",
		Detail:   "The build was cancelled before it completed. The previous output was left untouched.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E231",
	},
	CodeManifest: {
		Category: CategoryBuild,
		Message:  "Invalid build manifest",
		Detail:   "The build manifest is missing or malformed. Run 'vizsite build' first.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E232",
	},

	// ============================================
	// Deploy Errors (E240-E249)
	// ============================================

	CodeDeployFailed: {
		Category: CategoryDeploy,
		Message:  "Deploy failed",
		Detail:   "An object could not be uploaded to the bucket.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E240",
	},
	CodeDeployConfig: {
		Category: CategoryDeploy,
		Message:  "Deploy target not configured",
		Detail:   "Set deploy.bucket in vizsite.json or pass --bucket.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E241",
	},

	// ============================================
	// CLI Errors (E250-E259)
	// ============================================

	CodeServeFailed: {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The preview server could not start.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E250",
	},
	CodeProjectExists: {
		Category: CategoryCLI,
		Message:  "Directory already exists",
		Detail:   "vizsite create only writes into a new directory.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E251",
	},
	CodeTemplateNotFound: {
		Category: CategoryCLI,
		Message:  "Unknown project template",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E252",
	},
	CodeInvalidName: {
		Category: CategoryCLI,
		Message:  "Invalid project name",
		Detail:   "Project names may contain letters, digits, hyphens and underscores.",
		DocURL:   "https://vango.dev/docs/vizsite/errors/E253",
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
