package mcp

// ToolDefinition describes one MCP tool and its JSON input schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func object(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func strList(description string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": description}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

var sessionIDProp = str("Session ID")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Company
		{
			Name:        "onboard_company",
			Description: "Create the tenant's company profile. Each tenant has exactly one company.",
			InputSchema: object([]string{"name"}, map[string]any{
				"name":           str("Company name"),
				"industry":       str("Industry"),
				"size":           enum("Headcount bucket", "micro", "small", "medium", "large", "enterprise"),
				"country":        str("Country"),
				"description":    str("What the company does"),
				"annual_revenue": number("Annual revenue"),
			}),
		},
		{
			Name:        "get_company",
			Description: "Get the tenant's company profile",
			InputSchema: object(nil, map[string]any{}),
		},
		{
			Name:        "update_company",
			Description: "Update fields of the company profile. Omitted fields are unchanged.",
			InputSchema: object(nil, map[string]any{
				"name":           str("Company name"),
				"industry":       str("Industry"),
				"size":           enum("Headcount bucket", "micro", "small", "medium", "large", "enterprise"),
				"country":        str("Country"),
				"description":    str("What the company does"),
				"annual_revenue": number("Annual revenue"),
			}),
		},

		// Datasets
		{
			Name:        "upload_dataset",
			Description: "Upload a CSV or XLSX file. The first 100 rows are stored as a sample.",
			InputSchema: object([]string{"file_name", "content"}, map[string]any{
				"name":      str("Display name (defaults to the file name)"),
				"type":      enum("Data category", "sales", "customers", "costs", "inventory", "marketing", "financial", "hr", "operations", "other"),
				"file_name": str("Original file name; the extension selects the parser"),
				"content":   str("File content, base64 encoded"),
			}),
		},
		{
			Name:        "list_datasets",
			Description: "List uploaded datasets, newest first",
			InputSchema: object(nil, map[string]any{}),
		},
		{
			Name:        "delete_dataset",
			Description: "Delete a dataset",
			InputSchema: object([]string{"id"}, map[string]any{
				"id": str("Dataset ID"),
			}),
		},

		// Sessions
		{
			Name:        "create_session",
			Description: "Start a workflow session for a module at its first step",
			InputSchema: object([]string{"module"}, map[string]any{
				"module":              enum("Advisory module", "consulting", "audit", "branding", "tax_legal"),
				"title":               str("Session title"),
				"problem_description": str("Consulting: the business problem (at least 20 characters to continue)"),
				"context":             str("Consulting: additional context"),
				"domains":             strList("Consulting: business domains involved"),
				"audit_type":          enum("Audit: audit type", "financial", "operational", "compliance", "it", "tax"),
				"standard":            enum("Audit: standard", "gaap", "ifrs", "sox", "iso_27001", "internal"),
				"dataset_ids":         strList("Datasets to analyze"),
			}),
		},
		{
			Name:        "get_session",
			Description: "Get a session with its artifacts, status sequence and whether the current step can continue",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "list_sessions",
			Description: "List sessions, most recently updated first",
			InputSchema: object(nil, map[string]any{
				"module": enum("Filter by module", "consulting", "audit", "branding", "tax_legal"),
				"limit":  integer("Maximum results"),
				"offset": integer("Results to skip"),
			}),
		},
		{
			Name:        "update_session_inputs",
			Description: "Update the current step's form fields. Omitted fields are unchanged. audit_type and standard are accepted on audit sessions only.",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id":          sessionIDProp,
				"title":               str("Session title"),
				"problem_description": str("Consulting problem description"),
				"context":             str("Consulting context"),
				"domains":             strList("Consulting domains"),
				"audit_type":          str("Audit type"),
				"standard":            str("Audit standard"),
				"dataset_ids":         strList("Datasets to analyze"),
			}),
		},
		{
			Name:        "advance_session",
			Description: "Set a session's status and step and merge artifact patches. Pass expected_version to fail on concurrent edits instead of overwriting.",
			InputSchema: object([]string{"session_id", "status", "step"}, map[string]any{
				"session_id":       sessionIDProp,
				"status":           str("Target status"),
				"step":             integer("Target step index"),
				"artifacts":        map[string]any{"type": "object", "description": "Artifact name to JSON value"},
				"expected_version": integer("Version the caller last read"),
			}),
		},
		{
			Name:        "back_session",
			Description: "Return to the previous step. Artifacts are kept.",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "delete_session",
			Description: "Delete a session with its findings and milestones",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "complete_session",
			Description: "Mark a session complete from its last working step",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},

		// Consulting
		{
			Name:        "consulting_diagnose",
			Description: "Run the diagnosis for a consulting session at intake",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "consulting_scenarios",
			Description: "Simulate scenarios from the stored diagnosis",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "consulting_plan",
			Description: "Build the execution plan for a scenario and create its milestones. On a rerun, milestones whose title matches keep their owner, due date and status.",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
				"scenario":   str("Scenario name to plan (defaults to the first scenario)"),
			}),
		},

		// Audit
		{
			Name:        "audit_configure",
			Description: "Set the audit type and standard, then attach datasets",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id":  sessionIDProp,
				"audit_type":  enum("Audit type", "financial", "operational", "compliance", "it", "tax"),
				"standard":    enum("Audit standard", "gaap", "ifrs", "sox", "iso_27001", "internal"),
				"dataset_ids": strList("Datasets to audit"),
			}),
		},
		{
			Name:        "audit_analyze",
			Description: "Analyze the attached datasets and record findings",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id":  sessionIDProp,
				"dataset_ids": strList("Datasets to attach before analyzing"),
			}),
		},
		{
			Name:        "list_findings",
			Description: "List a session's findings, most severe first",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "acknowledge_finding",
			Description: "Acknowledge a finding",
			InputSchema: object([]string{"session_id", "finding_id"}, map[string]any{
				"session_id": sessionIDProp,
				"finding_id": str("Finding ID"),
			}),
		},
		{
			Name:        "export_report",
			Description: "Render the audit report as PDF or XLSX",
			InputSchema: object([]string{"session_id", "format"}, map[string]any{
				"session_id": sessionIDProp,
				"format":     enum("File format", "pdf", "xlsx"),
			}),
		},

		// Branding and tax
		{
			Name:        "branding_generate",
			Description: "Generate a brand identity from the intake form",
			InputSchema: object([]string{"session_id", "business_name"}, map[string]any{
				"session_id":      sessionIDProp,
				"business_name":   str("Business name"),
				"industry":        str("Industry"),
				"target_audience": str("Target audience"),
				"values":          strList("Brand values"),
				"tone":            str("Desired tone"),
			}),
		},
		{
			Name:        "tax_legal_analyze",
			Description: "Analyze a tax or legal question across jurisdictions",
			InputSchema: object([]string{"session_id", "jurisdictions", "question"}, map[string]any{
				"session_id":    sessionIDProp,
				"jurisdictions": strList("Jurisdictions involved"),
				"entity_type":   str("Legal entity type"),
				"question":      str("The question (at least 20 characters)"),
			}),
		},

		// Milestones
		{
			Name:        "list_milestones",
			Description: "List a session's execution milestones",
			InputSchema: object([]string{"session_id"}, map[string]any{
				"session_id": sessionIDProp,
			}),
		},
		{
			Name:        "cycle_milestone",
			Description: "Move a milestone to its next status: not_started, in_progress, blocked, complete, then back to not_started",
			InputSchema: object([]string{"id"}, map[string]any{
				"id": str("Milestone ID"),
			}),
		},
		{
			Name:        "assign_milestone",
			Description: "Set a milestone's owner and due date",
			InputSchema: object([]string{"id"}, map[string]any{
				"id":       str("Milestone ID"),
				"owner":    str("Owner name"),
				"due_date": str("Due date as YYYY-MM-DD; omit to clear"),
			}),
		},

		// Activity
		{
			Name:        "recent_activity",
			Description: "Get recent workflow activity",
			InputSchema: object(nil, map[string]any{
				"session_id": str("Filter by session"),
				"type":       str("Filter by activity type"),
				"limit":      integer("Maximum results (default 50)"),
			}),
		},
	}
}
