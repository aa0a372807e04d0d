package rules

// Extension groups shared by the catalogs.
var (
	cFamilyExts = []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"}
	pythonExts  = []string{".py", ".pyi"}
	tsExts      = []string{".ts", ".tsx"}
	markdownExt = []string{".md", ".markdown"}
)

// qualityRules is the Cycle 1 catalog: placeholder and stub detection in
// file writes. These target the write-something-that-looks-done failure
// mode, so most are warn severity and block.
func qualityRules() []Rule {
	return []Rule{
		{
			ID:          "no-todo-comments",
			Cycle:       CycleQuality,
			Priority:    PriorityDefault,
			Severity:    SeverityWarn,
			Code:        "quality.deferred-work",
			Message:     "deferred-work marker (TODO/FIXME/HACK/XXX)",
			Remediation: "Finish the work now instead of leaving a marker, or remove the marker if the work is done.",
			AppliesTo:   ContextFileWrite,
			Pattern:     `\b(?:TODO|FIXME|HACK|XXX)\b`,
		},
		{
			ID:             "no-empty-pass",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.placeholder-pass",
			Message:        "function body is only `pass`",
			Remediation:    "Implement the function body; a pass-only function is a stub.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `def\s+\w+\s*\([^)]*\)\s*(?:->\s*[^:\n]+)?:[ \t]*(?:\n[ \t]+)?pass\b`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:             "no-ellipsis-body",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.placeholder-ellipsis",
			Message:        "function body is only `...`",
			Remediation:    "Replace the ellipsis placeholder with a real implementation.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `def\s+\w+\s*\([^)]*\)\s*(?:->\s*[^:\n]+)?:[ \t]*(?:\n[ \t]+)?\.\.\.`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:             "no-raise-notimplemented",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.not-implemented",
			Message:        "raises NotImplementedError",
			Remediation:    "Implement the behavior instead of raising NotImplementedError.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `raise\s+NotImplementedError\b`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:             "no-throw-notimplemented",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.not-implemented",
			Message:        "throws a not-implemented error",
			Remediation:    "Implement the behavior instead of throwing a not-implemented error.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `(?i)throw\s+new\s+Error\s*\(\s*["'](?:not\s+implemented|unimplemented|todo)`,
			FileExtensions: cFamilyExts,
			ContextAware:   true,
		},
		{
			ID:          "no-placeholder-text",
			Cycle:       CycleQuality,
			Priority:    PriorityDefault,
			Severity:    SeverityWarn,
			Code:        "quality.placeholder-text",
			Message:     "placeholder text instead of an implementation",
			Remediation: "Write the actual code or content the placeholder stands for.",
			AppliesTo:   ContextFileWrite,
			Pattern:     `(?i)(?:your (?:code|logic|implementation) (?:goes )?here|implementation goes here|add (?:your )?(?:code|logic) here|rest of (?:the )?(?:code|file|implementation)|placeholder (?:code|implementation|value|text)|this is a (?:stub|placeholder)|lorem ipsum)`,
		},
		{
			ID:             "no-empty-catch",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.empty-catch",
			Message:        "empty catch block swallows errors",
			Remediation:    "Handle the error or rethrow it; an empty catch hides failures.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `catch\s*(?:\([^)]*\))?\s*\{\s*\}`,
			FileExtensions: cFamilyExts,
			ContextAware:   true,
		},
		{
			ID:             "no-silent-except",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.empty-catch",
			Message:        "except clause silently passes",
			Remediation:    "Handle the exception or re-raise it; a silent except hides failures.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `except[^:\n]*:[ \t]*(?:\n[ \t]+)?pass\b`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:             "no-bare-except",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.bare-except",
			Message:        "bare except catches everything, including KeyboardInterrupt",
			Remediation:    "Catch the specific exception types this code can actually handle.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `(?m)^[ \t]*except\s*:`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:             "no-catch-log-only",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.catch-log-only",
			Message:        "catch block only logs the error",
			Remediation:    "Recover, rethrow, or surface the error; logging alone loses it.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `catch\s*\([^)]*\)\s*\{\s*console\.(?:log|error|warn|debug)\s*\([^)]*\)\s*;?\s*\}`,
			FileExtensions: cFamilyExts,
			ContextAware:   true,
		},
		{
			ID:             "no-empty-function",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "quality.empty-function",
			Message:        "empty function body",
			Remediation:    "Implement the function or remove it; an empty body is a stub.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `(?:\bfunction\b[^(){}]*\([^)]*\)|=>)\s*\{\s*\}`,
			FileExtensions: cFamilyExts,
			ContextAware:   true,
		},
		{
			ID:             "no-any-type",
			Cycle:          CycleQuality,
			Priority:       PriorityDefault,
			Severity:       SeverityInfo,
			Code:           "quality.any-type",
			Message:        "explicit `any` type erases type checking",
			Remediation:    "Give the value a real type, or `unknown` if it is truly dynamic.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `:\s*any\b`,
			FileExtensions: tsExts,
			ContextAware:   true,
		},
	}
}
